package heuristic

import (
	"runtime"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fixprop/heuristic/pkg/fixnum"
	"github.com/fixprop/heuristic/pkg/volume"
)

// OptimizeOption configures a Driver at construction time, following the
// functional-options idiom: callers compose the options they need instead of
// filling out a large struct of mostly-default fields.
type OptimizeOption func(*Options)

// Options holds every tunable the driver recognises, named after the
// AlgorithmParameter keys of the host-facing configuration surface.
type Options struct {
	Threads int // 0 = automatic (K=4 if parallelism is available, else 1)

	// TimeLimit is the wall-clock budget for one call. A literal zero means
	// "return within one inner-loop round", matching the timeout-
	// responsiveness property; a negative value means unlimited.
	TimeLimit time.Duration

	PerformBacktracking bool
	StopAtInfeasibility bool
	MaxBacktracks        int

	Volume volume.Params

	RandomSeed int64

	Logger *logrus.Logger
}

// DefaultOptions mirrors the defaults used throughout the specification.
func DefaultOptions() Options {
	return Options{
		Threads:              0,
		TimeLimit:            -1,
		PerformBacktracking:  true,
		StopAtInfeasibility:  true,
		MaxBacktracks:        1,
		Volume:               volume.DefaultParams(),
		RandomSeed:           1,
		Logger:               newDiscardLogger(),
	}
}

func WithThreads(n int) OptimizeOption { return func(o *Options) { o.Threads = n } }

func WithTimeLimit(d time.Duration) OptimizeOption { return func(o *Options) { o.TimeLimit = d } }

func WithBacktracking(enabled bool) OptimizeOption {
	return func(o *Options) { o.PerformBacktracking = enabled }
}

func WithStopAtInfeasibility(enabled bool) OptimizeOption {
	return func(o *Options) { o.StopAtInfeasibility = enabled }
}

func WithMaxBacktracks(n int) OptimizeOption { return func(o *Options) { o.MaxBacktracks = n } }

func WithVolumeParams(p volume.Params) OptimizeOption {
	return func(o *Options) { o.Volume = p }
}

func WithRandomSeed(seed int64) OptimizeOption { return func(o *Options) { o.RandomSeed = seed } }

func WithLogger(l *logrus.Logger) OptimizeOption { return func(o *Options) { o.Logger = l } }

// resolveReplicaCount implements the K=4-when-parallel-else-1 rule.
func resolveReplicaCount(threads int) int {
	if threads > 0 {
		return threads
	}
	if runtime.NumCPU() > 1 {
		return 4
	}
	return 1
}

func resolveTimer(limit time.Duration) *fixnum.Timer {
	if limit < 0 {
		return fixnum.NewUnlimitedTimer()
	}
	return fixnum.NewTimer(limit)
}

// ParseAlgorithmParameters translates the host's wire-level AlgorithmParameter
// map (string keys like "vol.alpha", "time_limit", "threads") into
// OptimizeOptions, the way an AlgorithmParameter consumer would. Unknown keys
// are rejected rather than silently ignored, since a typo'd key silently
// falling back to a default is worse than a loud startup error.
func ParseAlgorithmParameters(params map[string]string) ([]OptimizeOption, error) {
	v := volume.DefaultParams()
	var opts []OptimizeOption
	volTouched := false

	parseFloat := func(key, raw string) (float64, error) {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "algorithm parameter %q", key)
		}
		return f, nil
	}

	for key, raw := range params {
		switch key {
		case "vol.alpha":
			f, err := parseFloat(key, raw)
			if err != nil {
				return nil, err
			}
			v.Alpha, volTouched = f, true
		case "vol.alpha_max":
			f, err := parseFloat(key, raw)
			if err != nil {
				return nil, err
			}
			v.AlphaMax, volTouched = f, true
		case "vol.f":
			f, err := parseFloat(key, raw)
			if err != nil {
				return nil, err
			}
			v.F, volTouched = f, true
		case "vol.f_min":
			f, err := parseFloat(key, raw)
			if err != nil {
				return nil, err
			}
			v.FMin, volTouched = f, true
		case "vol.f_max":
			f, err := parseFloat(key, raw)
			if err != nil {
				return nil, err
			}
			v.FMax, volTouched = f, true
		case "vol.f_strong_incr_factor":
			f, err := parseFloat(key, raw)
			if err != nil {
				return nil, err
			}
			v.FStrongIncr, volTouched = f, true
		case "vol.f_weak_incr_factor":
			f, err := parseFloat(key, raw)
			if err != nil {
				return nil, err
			}
			v.FWeakIncr, volTouched = f, true
		case "vol.f_decr_factor":
			f, err := parseFloat(key, raw)
			if err != nil {
				return nil, err
			}
			v.FDecr, volTouched = f, true
		case "vol.obj_reltol":
			f, err := parseFloat(key, raw)
			if err != nil {
				return nil, err
			}
			v.ObjRelTol, volTouched = f, true
		case "vol.obj_abstol":
			f, err := parseFloat(key, raw)
			if err != nil {
				return nil, err
			}
			v.ObjAbsTol, volTouched = f, true
		case "vol.con_abstol":
			f, err := parseFloat(key, raw)
			if err != nil {
				return nil, err
			}
			v.ConAbsTol, volTouched = f, true
		case "vol.weak_improvement_iter_limit":
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "algorithm parameter %q", key)
			}
			v.WeakImprovementIterLimit, volTouched = n, true
		case "vol.non_improvement_iter_limit":
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "algorithm parameter %q", key)
			}
			v.NonImprovementIterLimit, volTouched = n, true
		case "vol.threshold_hard_constraints":
			f, err := parseFloat(key, raw)
			if err != nil {
				return nil, err
			}
			v.ThresholdHardConstraints, volTouched = f, true
		case "time_limit":
			f, err := parseFloat(key, raw)
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithTimeLimit(time.Duration(f*float64(time.Second))))
		case "threads":
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "algorithm parameter %q", key)
			}
			opts = append(opts, WithThreads(n))
		default:
			return nil, errors.Errorf("unrecognised algorithm parameter %q", key)
		}
	}

	if volTouched {
		opts = append(opts, WithVolumeParams(v))
	}
	return opts, nil
}
