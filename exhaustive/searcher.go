// Package exhaustive finds the assignment with the smallest makespan by
// simulating every possible assignment.
package exhaustive

import (
	"context"
	"math"
	"sync"

	"github.com/go-logr/logr"
	"github.com/sarchlab/partsim/datarecording"
	"github.com/sarchlab/partsim/monitoring"
	"github.com/sarchlab/partsim/sim"
	"github.com/sarchlab/partsim/timing"
	"github.com/sourcegraph/conc/pool"
)

// Hook positions raised by the Searcher. Hooks are invoked from worker
// goroutines, one at a time.
var (
	// HookPosCandidate fires for every evaluated assignment in detailed mode.
	// The item is a Candidate.
	HookPosCandidate = &sim.HookPos{Name: "Candidate"}

	// HookPosProgress fires each time another feedback interval of the
	// search space is done. The item is the finished fraction (float64).
	HookPosProgress = &sim.HookPos{Name: "Progress"}

	// HookPosNewBest fires when a better assignment is found. The item is a
	// Candidate.
	HookPosNewBest = &sim.HookPos{Name: "NewBest"}
)

// CandidatesTable is the table that evaluated assignments are recorded into.
const CandidatesTable = "candidates"

// A Candidate is one evaluated assignment.
type Candidate struct {
	Index      uint64
	Assignment timing.Assignment
	Makespan   sim.VTimeInSec
}

// Best is the outcome of a search.
type Best struct {
	Candidate

	// Result is the simulation of the best assignment on the caller's
	// simulator.
	Result timing.Result

	Evaluated uint64
	Total     uint64
}

type candidateEntry struct {
	ID         int64
	Assignment string
	Makespan   float64
}

// Status is what the monitor shows about a running search.
type Status struct {
	Evaluated      uint64
	Total          uint64
	Found          bool
	BestIndex      uint64
	BestMakespan   float64
	BestAssignment string
}

// A Searcher enumerates all assignments of a simulator's placeable layers.
type Searcher struct {
	*sim.HookableBase

	numWorkers       int
	chunkSize        uint64
	feedbackInterval float64
	detailed         bool
	log              logr.Logger
	monitor          *monitoring.Monitor
	recorder         datarecording.DataRecorder

	lock         sync.Mutex
	total        uint64
	evaluated    uint64
	progressStep int
	found        bool
	best         Candidate
	bar          *monitoring.ProgressBar
}

// Name returns the name the searcher is monitored under.
func (s *Searcher) Name() string {
	return "ExhaustiveSearch"
}

// Snapshot returns the current Status.
func (s *Searcher) Snapshot() any {
	s.lock.Lock()
	defer s.lock.Unlock()

	st := &Status{
		Evaluated: s.evaluated,
		Total:     s.total,
		Found:     s.found,
	}

	if s.found {
		st.BestIndex = s.best.Index
		st.BestMakespan = float64(s.best.Makespan)
		st.BestAssignment = s.best.Assignment.String()
	}

	return st
}

// Search simulates every assignment of the simulator's placeable layers to
// its devices and returns the one with the smallest makespan. Ties go to the
// assignment enumerated first. The cost is |devices|^|placeable layers|
// simulations, each linear in the graph size, so only small graphs are
// practical.
//
// Each worker simulates on a private fork. When the search completes, the
// best assignment is simulated once more on the given simulator so that its
// layers and devices reflect the winner.
func (s *Searcher) Search(
	ctx context.Context,
	simulator *timing.Simulator,
) (Best, error) {
	slots := simulator.Graph().Placeable()

	enum, err := NewEnumerator(simulator.Devices().Len(), len(slots))
	if err != nil {
		return Best{}, err
	}

	s.start(enum.Total())
	defer s.finish()

	s.log.Info("search started",
		"candidates", enum.Total(), "workers", s.numWorkers)

	err = s.runWorkers(ctx, simulator, enum, slots)
	if err != nil {
		return Best{}, err
	}

	s.lock.Lock()
	best := s.best
	evaluated := s.evaluated
	s.lock.Unlock()

	res, err := simulator.Simulate(best.Assignment)
	if err != nil {
		return Best{}, err
	}

	s.log.Info("search finished",
		"evaluated", evaluated, "makespan", float64(best.Makespan))

	return Best{
		Candidate: best,
		Result:    res,
		Evaluated: evaluated,
		Total:     enum.Total(),
	}, nil
}

func (s *Searcher) start(total uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.total = total
	s.evaluated = 0
	s.progressStep = 0
	s.found = false
	s.best = Candidate{}

	if s.monitor != nil {
		s.bar = s.monitor.CreateProgressBar(s.Name(), total)
	}

	if s.recorder != nil {
		s.recorder.CreateTable(CandidatesTable, candidateEntry{})
	}
}

func (s *Searcher) finish() {
	if s.bar != nil {
		s.monitor.CompleteProgressBar(s.bar)
		s.bar = nil
	}

	if s.recorder != nil {
		s.recorder.Flush()
	}
}

func (s *Searcher) chunk(total uint64) uint64 {
	if s.chunkSize > 0 {
		return s.chunkSize
	}

	c := total / uint64(s.numWorkers*8)

	return min(max(c, 1), 1<<16)
}

// chunkEnd returns the exclusive end of the chunk starting at from. It never
// passes total, so it cannot wrap around.
func chunkEnd(from, total, chunk uint64) uint64 {
	return from + min(chunk, total-from)
}

func (s *Searcher) runWorkers(
	ctx context.Context,
	simulator *timing.Simulator,
	enum *Enumerator,
	slots []int,
) error {
	p := pool.New().
		WithMaxGoroutines(s.numWorkers).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	total := enum.Total()
	chunk := s.chunk(total)

	for from, to := uint64(0), uint64(0); from < total; from = to {
		if ctx.Err() != nil {
			break
		}

		to = chunkEnd(from, total, chunk)
		fork := simulator.Fork()
		lo, hi := from, to

		p.Go(func(ctx context.Context) error {
			return s.evaluateRange(ctx, fork, enum, slots, lo, hi)
		})
	}

	err := p.Wait()
	if err != nil {
		return err
	}

	return ctx.Err()
}

func (s *Searcher) evaluateRange(
	ctx context.Context,
	fork *timing.Simulator,
	enum *Enumerator,
	slots []int,
	from, to uint64,
) error {
	if s.bar != nil {
		s.bar.IncrementInProgress(to - from)
	}

	vec := make([]int, len(slots))
	enum.Decode(from, vec)

	a := timing.NewAssignment(fork.Graph().Len())
	a[fork.Graph().Source().ID] = fork.Devices().Baseline().ID

	for i := from; i < to; i++ {
		if (i-from)%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		for k, id := range slots {
			a[id] = vec[k]
		}

		res, err := fork.Simulate(a)
		if err != nil {
			return err
		}

		s.collect(i, a, res.Makespan)
		enum.Advance(vec)
	}

	return nil
}

// collect is the single synchronization point of the workers.
func (s *Searcher) collect(
	index uint64,
	a timing.Assignment,
	makespan sim.VTimeInSec,
) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.evaluated++

	if s.detailed {
		s.InvokeHook(sim.HookCtx{
			Domain: s,
			Pos:    HookPosCandidate,
			Now:    makespan,
			Item:   Candidate{Index: index, Assignment: a.Clone(), Makespan: makespan},
		})
	}

	if s.recorder != nil {
		s.recorder.InsertData(CandidatesTable, candidateEntry{
			ID:         int64(min(index, math.MaxInt64)),
			Assignment: a.String(),
			Makespan:   float64(makespan),
		})
	}

	if !s.found || makespan < s.best.Makespan ||
		(makespan == s.best.Makespan && index < s.best.Index) {
		s.found = true
		s.best = Candidate{Index: index, Assignment: a.Clone(), Makespan: makespan}

		s.InvokeHook(sim.HookCtx{
			Domain: s,
			Pos:    HookPosNewBest,
			Now:    makespan,
			Item:   s.best,
		})
	}

	if s.bar != nil {
		s.bar.MoveInProgressToFinished(1)
	}

	s.reportProgress()
}

func (s *Searcher) reportProgress() {
	if s.feedbackInterval <= 0 {
		return
	}

	for {
		fraction := float64(s.progressStep+1) * s.feedbackInterval
		if fraction > 1+1e-9 {
			return
		}

		needed := uint64(math.Ceil(fraction*float64(s.total) - 1e-9))
		if s.evaluated < needed {
			return
		}

		s.progressStep++

		s.log.V(1).Info("search progress", "fraction", fraction)
		s.InvokeHook(sim.HookCtx{
			Domain: s,
			Pos:    HookPosProgress,
			Item:   fraction,
		})
	}
}
