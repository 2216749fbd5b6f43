// Command cabi builds the stable C ABI of §6 as a c-archive/c-shared
// library (`go build -buildmode=c-archive ./cmd/cabi`). All marshalling
// lives here; the behaviour lives in internal/cabiserver so it stays
// testable with the plain Go toolchain.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/fixprop/heuristic/internal/cabiserver"
)

//export setup
func setup(filename *C.char, outStatus *C.int, verbosity C.int, timestamp C.double, addCutoff C.int) unsafe.Pointer {
	handle, status := cabiserver.Setup(C.GoString(filename))
	*outStatus = C.int(status)
	if status != cabiserver.StatusOK {
		return nil
	}
	return handleToPtr(handle)
}

//export delete_problem_instance
func delete_problem_instance(ptr unsafe.Pointer) {
	cabiserver.DeleteInstance(ptrToHandle(ptr))
	C.free(ptr)
}

//export call_algorithm
func call_algorithm(
	ptr unsafe.Pointer,
	contSolution *C.double,
	result *C.double,
	n C.int,
	currentObj *C.double,
	infeasibleCopyStrategy C.int,
	applyConflicts C.int,
	sizeOfConstraints C.int,
	maxBacktracks C.int,
	performOneOpt C.int,
	remainingTimeInSec C.double,
) C.int {
	handle := ptrToHandle(ptr)
	cont := cDoubleSliceToGo(contSolution, n)

	sol, obj, found := cabiserver.CallAlgorithm(
		handle, cont, float64(*currentObj),
		cabiserver.OneOptMode(performOneOpt), float64(remainingTimeInSec),
	)
	if !found {
		return 0
	}
	copyGoSliceToCDoubles(sol, result, n)
	*currentObj = C.double(obj)
	return 1
}

//export perform_one_opt
func perform_one_opt(
	ptr unsafe.Pointer,
	sol *C.double,
	n C.int,
	performOptOne C.int,
	currentObj *C.double,
	remainingTimeInSec C.double,
) {
	handle := ptrToHandle(ptr)
	goSol := cDoubleSliceToGo(sol, n)

	newSol, obj := cabiserver.PerformOneOpt(handle, goSol, float64(*currentObj), float64(remainingTimeInSec))
	copyGoSliceToCDoubles(newSol, sol, n)
	*currentObj = C.double(obj)
}

//export call_simple_heuristic
func call_simple_heuristic(ptr unsafe.Pointer, result *C.double, currentObj *C.double) C.int {
	handle := ptrToHandle(ptr)

	sol, obj, found := cabiserver.CallSimpleHeuristic(handle)
	if !found {
		return 0
	}
	copyGoSliceToCDoubles(sol, result, C.int(len(sol)))
	*currentObj = C.double(obj)
	return 1
}

func main() {}
