// Package graph holds the in-memory street network: a fixed number of
// intersections and the one-way weighted streets between them.
package graph

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/atharv3903/meetcast/internal/model"
)

var (
	ErrInvalidSize      = errors.New("graph: vertex count must be non-negative")
	ErrVertexOutOfRange = errors.New("graph: vertex out of range")
	ErrInvalidWeight    = errors.New("graph: edge weight must be a non-negative number")
)

type arc struct {
	to     int
	weight float64
}

// Graph is a directed weighted graph over vertices [0, V).
// Parallel edges are kept as separate arcs.
type Graph struct {
	v     int
	adj   [][]arc
	edges []model.Edge
}

// New allocates a graph with v vertices and no edges. A zero-vertex graph is
// allowed and treated as degenerate by callers.
func New(v int) (*Graph, error) {
	if v < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, v)
	}
	return &Graph{
		v:   v,
		adj: make([][]arc, v),
	}, nil
}

// AddEdge appends the edge from -> to to the adjacency list of from.
func (g *Graph) AddEdge(from, to int, weight float64) error {
	if from < 0 || from >= g.v || to < 0 || to >= g.v {
		return fmt.Errorf("%w: %d->%d (V=%d)", ErrVertexOutOfRange, from, to, g.v)
	}
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("%w: %d->%d weight=%v", ErrInvalidWeight, from, to, weight)
	}

	g.adj[from] = append(g.adj[from], arc{to: to, weight: weight})
	g.edges = append(g.edges, model.Edge{From: from, To: to, Weight: weight})
	return nil
}

func (g *Graph) VertexCount() int { return g.v }

func (g *Graph) EdgeCount() int { return len(g.edges) }

// Adjacent yields (to, weight) for every edge leaving v. Each call starts a
// fresh traversal; an out-of-range v yields nothing.
func (g *Graph) Adjacent(v int) iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		if v < 0 || v >= g.v {
			return
		}
		for _, a := range g.adj[v] {
			if !yield(a.to, a.weight) {
				return
			}
		}
	}
}

// Edges yields every edge in insertion order.
func (g *Graph) Edges() iter.Seq[model.Edge] {
	return func(yield func(model.Edge) bool) {
		for _, e := range g.edges {
			if !yield(e) {
				return
			}
		}
	}
}
