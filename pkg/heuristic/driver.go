// Package heuristic implements the driver that runs K parallel
// fix-and-propagate replicas, optionally runs the 1-opt local search against
// each replica's own result independently, and only then selects the best of
// them. The driver carries volume-algorithm parameters in Options.Volume but
// does not run the volume algorithm; callers run pkg/volume themselves.
package heuristic

import (
	"context"
	"math"
	"sort"

	"github.com/fixprop/heuristic/internal/pool"
	"github.com/fixprop/heuristic/pkg/fixdive"
	"github.com/fixprop/heuristic/pkg/fixmodel"
	"github.com/fixprop/heuristic/pkg/fixnum"
	"github.com/fixprop/heuristic/pkg/fixprobe"
	"github.com/fixprop/heuristic/pkg/fixround"
)

// replica is one self-contained fix-and-propagate worker: its view,
// strategy, and result buffer are exclusively owned by it and never shared
// with any other replica.
type replica struct {
	id       int
	view     *fixprobe.View
	strategy fixround.Strategy
	result   fixdive.Result
}

// Driver holds the K replicas and the shared, read-only Problem.
type Driver struct {
	problem *fixmodel.Problem
	num     fixnum.Num
	opts    Options

	replicas []*replica
	pool     *pool.WorkerPool

	// scratchView backs PerformOneOpt's feasibility check when the caller
	// hands in a solution that isn't tied to any of the replicas above (the
	// C ABI's perform_one_opt entry point, and the in-repo demo).
	scratchView *fixprobe.View

	// objPerm is the column permutation sorted by objective coefficient
	// descending, ties broken by higher column index, precomputed once in
	// Setup for 1-opt's scan order.
	objPerm []int
}

// New constructs a driver over problem, applying opts in order.
func New(problem *fixmodel.Problem, opts ...OptimizeOption) *Driver {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Driver{
		problem: problem,
		num:     fixnum.NewNum(fixnum.DefaultTolerances()),
		opts:    o,
	}
}

// Setup allocates the K replicas (each with its own view and rounding
// strategy) and precomputes the objective-sorted column permutation used by
// 1-opt.
func (d *Driver) Setup() {
	k := resolveReplicaCount(d.opts.Threads)
	d.replicas = make([]*replica, k)
	strategies := d.buildStrategies(k)
	for i := 0; i < k; i++ {
		d.replicas[i] = &replica{
			id:       i,
			view:     fixprobe.NewView(d.problem, d.num),
			strategy: strategies[i%len(strategies)],
		}
	}
	d.pool = pool.NewWorkerPool(k)
	d.scratchView = fixprobe.NewView(d.problem, d.num)

	d.objPerm = make([]int, d.problem.NumCols)
	for i := range d.objPerm {
		d.objPerm[i] = i
	}
	sort.Slice(d.objPerm, func(a, b int) bool {
		ca, cb := d.objPerm[a], d.objPerm[b]
		if d.problem.Obj[ca] != d.problem.Obj[cb] {
			return d.problem.Obj[ca] > d.problem.Obj[cb]
		}
		return ca > cb
	})
}

func (d *Driver) buildStrategies(k int) []fixround.Strategy {
	base := []fixround.Strategy{
		fixround.NewFractional(d.num),
		fixround.NewFarkas(d.num, fixround.FarkasTowardLower),
		fixround.NewFarkas(d.num, fixround.FarkasTowardUpper),
		fixround.NewRandom(d.opts.RandomSeed),
	}
	if k <= len(base) {
		return base[:k]
	}
	out := make([]fixround.Strategy, k)
	for i := range out {
		out[i] = base[i%len(base)]
	}
	return out
}

// ApplyOptions mutates the driver's configuration in place, e.g. to update
// the remaining time budget between successive C ABI calls against the same
// driver instance.
func (d *Driver) ApplyOptions(opts ...OptimizeOption) {
	for _, opt := range opts {
		opt(&d.opts)
	}
}

// Close releases the worker pool.
func (d *Driver) Close() {
	if d.pool != nil {
		d.pool.Shutdown()
	}
}

// PerformFixAndPropagate resets every replica's view, runs all K of them in
// parallel, and selects the best integer-feasible result: the strictly
// improving one with the lowest objective, falling back to any feasible one
// if bestObj has no incumbent yet (signalled by hasIncumbent=false).
func (d *Driver) PerformFixAndPropagate(xRef []float64, hasIncumbent bool, bestObj float64) (newBestObj float64, bestSol []float64, found bool) {
	timer := resolveTimer(d.opts.TimeLimit)
	diveOpts := fixdive.Options{
		PerformBacktracking: d.opts.PerformBacktracking,
		StopAtInfeasibility: d.opts.StopAtInfeasibility,
	}

	tasks := make([]func(), len(d.replicas))
	for _, r := range d.replicas {
		r := r
		tasks[r.id] = func() {
			r.result = fixdive.Run(r.view, r.strategy, d.num, xRef, timer, diveOpts)
		}
	}
	d.pool.RunAll(context.Background(), tasks)

	for _, r := range d.replicas {
		replicaLogger(d.opts.Logger, r.id, r.strategy.Name()).WithField("infeasible", r.result.Infeasible).Debug("dive finished")
	}

	var candidates []replicaCandidate
	for _, r := range d.replicas {
		if r.result.Infeasible {
			continue
		}
		candidates = append(candidates, replicaCandidate{obj: d.problem.Objective(r.result.X), id: r.id, x: r.result.X})
	}
	newBestObj, bestSol, found = reduceCandidates(candidates, hasIncumbent, bestObj, d.num)
	if found {
		d.opts.Logger.WithFields(map[string]interface{}{
			"objective": newBestObj,
		}).Info("new incumbent from fix-and-propagate")
	}
	return newBestObj, bestSol, found
}

// PerformOneOptReplicas runs the 1-opt local search of 4.7 against every
// replica's own fix-and-propagate result independently, the way the
// underlying engine sequences it: every replica's int_solutions[i] gets its
// own pass over the objective-sorted columns before anything is compared
// across replicas, so a replica whose raw dive lost on objective but whose
// solution had a better flip available still gets to compete. Replicas the
// dive left infeasible are skipped, same as in PerformFixAndPropagate.
func (d *Driver) PerformOneOptReplicas(hasIncumbent bool, bestObj float64) (newBestObj float64, bestSol []float64, found bool) {
	var candidates []replicaCandidate
	for _, r := range d.replicas {
		if r.result.Infeasible {
			continue
		}
		obj := d.problem.Objective(r.result.X)
		newSol, newObj, improved := d.oneOptScan(r.view, r.result.X, r.result.X, obj)
		if improved {
			r.result.X = newSol
			obj = newObj
			d.opts.Logger.WithFields(map[string]interface{}{
				"replica_id": r.id,
				"objective":  obj,
			}).Debug("1-opt flip accepted")
		}
		candidates = append(candidates, replicaCandidate{obj: obj, id: r.id, x: r.result.X})
	}
	return reduceCandidates(candidates, hasIncumbent, bestObj, d.num)
}

// PerformOneOpt runs the 1-opt local search of 4.7 against a single
// caller-supplied solution. This is the shape the C ABI's perform_one_opt
// call needs: the host hands in a solution that isn't tied to any replica
// here, so there's no per-replica result to update in place. It reuses the
// driver's scratch view for the feasibility check, the same propagation
// primitive PerformOneOptReplicas reuses from each replica's own view.
func (d *Driver) PerformOneOpt(sol []float64, currentObj float64) (newSol []float64, newObj float64, improved bool) {
	return d.oneOptScan(d.scratchView, sol, sol, currentObj)
}

// oneOptScan walks the objective-sorted columns of 4.7 against sol, flipping
// binary integer columns in the direction their objective coefficient
// favours. Feasibility of a flip is checked by fixing only the flipped
// column in view and propagating — the same single-decision-then-propagate
// primitive a dive step uses — rather than re-fixing every integer column
// to its old value: a flip can force other columns through propagation
// alone (fixing x1:=0 against x1+x2>=1 forces x2:=1 even though nothing
// touched x2 directly), and a check that re-pinned every column first would
// never see that. xRef supplies the continuous values a column falls back
// to wherever propagation leaves it underdetermined.
func (d *Driver) oneOptScan(view *fixprobe.View, xRef, sol []float64, currentObj float64) (newSol []float64, newObj float64, improved bool) {
	newSol = append([]float64(nil), sol...)
	newObj = currentObj
	improved = false

	for _, col := range d.objPerm {
		c := d.problem.Obj[col]
		if c == 0 {
			break // remaining columns cannot improve, per the scan-order contract
		}
		if !isBinaryColumn(d.problem, col) {
			continue
		}

		var target float64
		switch {
		case c > 0 && newSol[col] == 1:
			target = 0
		case c < 0 && newSol[col] == 0:
			target = 1
		default:
			continue
		}

		point, feasible := d.oneOptFeasible(view, xRef, newSol, col, target)
		if !feasible {
			continue
		}
		pointObj := d.problem.Objective(point)
		if !d.num.Improves(pointObj, newObj) {
			continue
		}
		newSol = point
		newObj = pointObj
		improved = true
	}
	return newSol, newObj, improved
}

// oneOptFeasible fixes only col to target in view and propagates, then
// assembles the resulting point: every other integer column propagation
// pinned to a single value takes that value, any other integer column keeps
// its value from sol, and continuous columns take xRef clamped to whatever
// bounds propagation left. The assembled point is confirmed against every
// non-redundant row before being accepted.
func (d *Driver) oneOptFeasible(view *fixprobe.View, xRef, sol []float64, col int, target float64) (point []float64, feasible bool) {
	view.Reset()
	view.SetProbingColumn(col, target)
	view.PropagateDomains()
	if view.IsInfeasible() {
		return nil, false
	}

	point = append([]float64(nil), sol...)
	point[col] = target
	for c := 0; c < d.problem.NumCols; c++ {
		if c == col {
			continue
		}
		if d.problem.IsIntegerColumn(c) {
			if view.LB(c) == view.UB(c) {
				point[c] = view.LB(c)
			}
			continue
		}
		v := xRef[c]
		if v < view.LB(c) {
			v = view.LB(c)
		} else if v > view.UB(c) {
			v = view.UB(c)
		}
		point[c] = v
	}
	if !isFeasiblePoint(d.problem, point, d.num) {
		return nil, false
	}
	return point, true
}

func isBinaryColumn(p *fixmodel.Problem, col int) bool {
	return p.IsIntegerColumn(col) && p.LowerBound(col) == 0 && p.UpperBound(col) == 1
}

// replicaCandidate is one replica's result, ready for the deterministic
// reduction shared by PerformFixAndPropagate and PerformOneOptReplicas.
type replicaCandidate struct {
	obj float64
	id  int
	x   []float64
}

// reduceCandidates implements the deterministic reduction of 5: sort by
// (objective ascending, replica-id ascending), then accept the winner only
// if it strictly improves over bestObj when the caller already has an
// incumbent.
func reduceCandidates(candidates []replicaCandidate, hasIncumbent bool, bestObj float64, num fixnum.Num) (newBestObj float64, bestSol []float64, found bool) {
	if len(candidates) == 0 {
		return bestObj, nil, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].obj != candidates[j].obj {
			return candidates[i].obj < candidates[j].obj
		}
		return candidates[i].id < candidates[j].id
	})
	best := candidates[0]
	if hasIncumbent && !num.Improves(best.obj, bestObj) {
		return bestObj, nil, false
	}
	return best.obj, append([]float64(nil), best.x...), true
}

// isFeasiblePoint checks every non-redundant row of p at the fully
// determined point x within the feasibility tolerance. Since x has no free
// variables, checking feasibility degenerates to a direct per-row activity
// evaluation rather than interval propagation.
func isFeasiblePoint(p *fixmodel.Problem, x []float64, num fixnum.Num) bool {
	for r := 0; r < p.NumRows; r++ {
		if p.RowFlags[r].Has(fixmodel.Redundant) {
			continue
		}
		var activity float64
		p.A.EachRowEntry(r, func(col int, coef float64) {
			activity += coef * x[col]
		})
		lhs, rhs := p.RowLhs(r), p.RowRhs(r)
		if !math.IsInf(lhs, -1) && num.Less(activity, lhs) {
			return false
		}
		if !math.IsInf(rhs, 1) && num.Greater(activity, rhs) {
			return false
		}
	}
	return true
}
