// Package contest answers the broadcast question for one street network and
// three contestants: how long must the show run so that, whatever their start
// intersections, all three can meet somewhere.
package contest

import (
	"context"
	"io"

	"golang.org/x/exp/slog"

	"github.com/atharv3903/meetcast/internal/algo"
	"github.com/atharv3903/meetcast/internal/graph"
	"github.com/atharv3903/meetcast/internal/loader"
	"github.com/atharv3903/meetcast/internal/model"
)

// Params are the computation settings shared by the CLI and the server.
type Params struct {
	SpeedScale      float64
	Workers         int
	StrictEdgeCount bool
	MaxVertices     int
	Logger          *slog.Logger
}

func DefaultParams() Params {
	return Params{SpeedScale: algo.DefaultSpeedScale, Workers: 1, MaxVertices: loader.DefaultMaxVertices}
}

// LoaderOptions translates the parsing settings for loader.Parse.
func (p Params) LoaderOptions() []loader.Option {
	opts := []loader.Option{loader.WithMaxVertices(p.MaxVertices)}
	if p.StrictEdgeCount {
		opts = append(opts, loader.WithStrictEdgeCount())
	}
	return opts
}

// Contest pairs a loaded network, or the reason it failed to load, with the
// contestants' speeds.
type Contest struct {
	graph   *graph.Graph
	loadErr error
	speeds  model.Speeds
	params  Params
}

// New wraps an already loaded graph. loadErr, when non-nil, marks the
// network as invalid and g is ignored.
func New(g *graph.Graph, loadErr error, speeds model.Speeds, p Params) *Contest {
	if loadErr == nil && g == nil {
		loadErr = loader.ErrMalformedInput
	}
	return &Contest{graph: g, loadErr: loadErr, speeds: speeds, params: p}
}

func FromReader(r io.Reader, speeds model.Speeds, p Params) *Contest {
	g, err := loader.Parse(r, p.LoaderOptions()...)
	return New(g, err, speeds, p)
}

func FromFile(path string, speeds model.Speeds, p Params) *Contest {
	g, err := loader.LoadFile(path, p.LoaderOptions()...)
	return New(g, err, speeds, p)
}

// Valid reports whether the network description was well formed.
func (c *Contest) Valid() bool { return c.loadErr == nil }

// LoadErr is the loader error behind an invalid network.
func (c *Contest) LoadErr() error { return c.loadErr }

// TimeRequired computes the broadcast duration. Invalid speeds take
// precedence over an invalid network.
func (c *Contest) TimeRequired(ctx context.Context) (algo.Result, error) {
	speed, err := algo.SlowestSpeed(c.speeds[:], c.params.SpeedScale)
	if err != nil {
		return algo.InfeasibleResult(-1, algo.ReasonInvalidSpeed), nil
	}
	if c.loadErr != nil {
		return algo.InfeasibleResult(speed, algo.ReasonMalformedInput), nil
	}

	opts := []algo.Option{algo.WithWorkers(c.params.Workers)}
	if c.params.Logger != nil {
		opts = append(opts, algo.WithLogger(c.params.Logger))
	}
	return algo.ComputeRequiredTime(ctx, c.graph, speed, opts...)
}

// Response renders a result for the HTTP surface.
func Response(network string, res algo.Result) model.BroadcastResponse {
	return model.BroadcastResponse{
		Network:      network,
		Time:         res.Value(),
		Feasible:     res.Feasible,
		Reason:       string(res.Reason),
		MaxDistance:  res.MaxDistance,
		SlowestSpeed: res.SlowestSpeed,
	}
}
