package main

/*
#include <stdlib.h>
*/
import "C"

import "unsafe"

// handleToPtr/ptrToHandle box an int64 handle as the opaque pointer the C
// ABI exchanges, since cgo cannot hand out a real Go pointer across the
// boundary. The pointer is heap-allocated on the C side via C.malloc so it
// outlives the call and remains stable until delete_problem_instance frees
// it.
func handleToPtr(handle int64) unsafe.Pointer {
	p := C.malloc(C.size_t(unsafe.Sizeof(handle)))
	*(*int64)(p) = handle
	return p
}

func ptrToHandle(ptr unsafe.Pointer) int64 {
	return *(*int64)(ptr)
}

func cDoubleSliceToGo(p *C.double, n C.int) []float64 {
	if p == nil || n == 0 {
		return nil
	}
	src := unsafe.Slice((*float64)(unsafe.Pointer(p)), int(n))
	out := make([]float64, n)
	copy(out, src)
	return out
}

func copyGoSliceToCDoubles(src []float64, dst *C.double, n C.int) {
	if dst == nil || n == 0 {
		return
	}
	out := unsafe.Slice((*float64)(unsafe.Pointer(dst)), int(n))
	copy(out, src)
}
