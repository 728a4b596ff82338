package algo

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// Infeasible is the value reported when no finite broadcast time exists.
const Infeasible = -1

type Reason string

const (
	ReasonNone           Reason = ""
	ReasonInvalidSpeed   Reason = "invalid_speed"
	ReasonMalformedInput Reason = "malformed_input"
	ReasonEmptyGraph     Reason = "empty_graph"
	ReasonUnreachable    Reason = "unreachable"
	ReasonCanceled       Reason = "canceled"
	ReasonOverflow       Reason = "time_overflow"
)

// Result is the outcome of ComputeRequiredTime. From and To name an
// unreachable pair when Reason is ReasonUnreachable.
type Result struct {
	Time         int
	MaxDistance  float64
	SlowestSpeed float64
	Feasible     bool
	Reason       Reason
	From, To     int
}

// Value is Time for a feasible result and Infeasible otherwise.
func (r Result) Value() int {
	if !r.Feasible {
		return Infeasible
	}
	return r.Time
}

// InfeasibleResult builds a result for an outcome decided without a search.
func InfeasibleResult(speed float64, reason Reason) Result {
	return Result{Time: Infeasible, SlowestSpeed: speed, Reason: reason, From: -1, To: -1}
}

type options struct {
	workers int
	logger  *slog.Logger
}

type Option func(*options)

// WithWorkers runs up to n single-source searches at once. n <= 1 is sequential.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// errStop cancels the remaining searches once an unreachable pair is found.
var errStop = errors.New("algo: unreachable pair found")

type reduction struct {
	mu       sync.Mutex
	max      float64
	found    bool
	from, to int
}

// observe folds one distance table into the reduction and reports whether
// every vertex was reachable from its source.
func (r *reduction) observe(t *DistTable) bool {
	local := 0.0
	for j := range t.dist {
		if !t.HasPathTo(j) {
			r.mu.Lock()
			if !r.found {
				r.found, r.from, r.to = true, t.source, j
			}
			r.mu.Unlock()
			return false
		}
		local = max(local, t.dist[j])
	}
	r.mu.Lock()
	r.max = max(r.max, local)
	r.mu.Unlock()
	return true
}

// ComputeRequiredTime returns ceil(D / slowestSpeed), where D is the largest
// shortest-path distance over all ordered vertex pairs of g. Any unreachable
// pair makes the result infeasible. The returned error is non-nil only for
// cancellation or a network that breaks the non-negative weight contract.
func ComputeRequiredTime(ctx context.Context, g Network, slowestSpeed float64, opts ...Option) (Result, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	if !(slowestSpeed > 0) || math.IsInf(slowestSpeed, 0) {
		return InfeasibleResult(slowestSpeed, ReasonInvalidSpeed), nil
	}
	n := g.VertexCount()
	if n == 0 {
		return InfeasibleResult(slowestSpeed, ReasonEmptyGraph), nil
	}
	if n == 1 {
		return Result{Time: 0, SlowestSpeed: slowestSpeed, Feasible: true, From: -1, To: -1}, nil
	}

	start := time.Now()
	red := &reduction{}

	var err error
	if o.workers <= 1 {
		err = reduceSequential(ctx, g, red)
	} else {
		err = reduceParallel(ctx, g, red, o.workers)
	}

	switch {
	case red.found:
		res := InfeasibleResult(slowestSpeed, ReasonUnreachable)
		res.From, res.To = red.from, red.to
		if o.logger != nil {
			o.logger.Debug("unreachable pair", "from", red.from, "to", red.to, "elapsed", time.Since(start))
		}
		return res, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return InfeasibleResult(slowestSpeed, ReasonCanceled), err
	case err != nil:
		return InfeasibleResult(slowestSpeed, ReasonNone), err
	}

	ticks := math.Ceil(red.max / slowestSpeed)
	if ticks >= math.MaxInt {
		// not representable as a non-negative int
		res := InfeasibleResult(slowestSpeed, ReasonOverflow)
		res.MaxDistance = red.max
		return res, nil
	}
	res := Result{
		Time:         int(ticks),
		MaxDistance:  red.max,
		SlowestSpeed: slowestSpeed,
		Feasible:     true,
		From:         -1,
		To:           -1,
	}
	if o.logger != nil {
		o.logger.Debug("worst-case distance", "vertices", n, "max_distance", red.max,
			"time", res.Time, "workers", o.workers, "elapsed", time.Since(start))
	}
	return res, nil
}

func reduceSequential(ctx context.Context, g Network, red *reduction) error {
	for i := range g.VertexCount() {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := ShortestPathsFrom(g, i)
		if err != nil {
			return err
		}
		if !red.observe(t) {
			return nil
		}
	}
	return nil
}

func reduceParallel(ctx context.Context, g Network, red *reduction, workers int) error {
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i := range g.VertexCount() {
		if ectx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			t, err := ShortestPathsFrom(g, i)
			if err != nil {
				return err
			}
			if !red.observe(t) {
				return errStop
			}
			return nil
		})
	}

	err := eg.Wait()
	if errors.Is(err, errStop) {
		return nil
	}
	if err == nil {
		// the group's context is only canceled by a failing goroutine, so a
		// parent cancellation between scheduling and Wait shows up here
		return ctx.Err()
	}
	return err
}
