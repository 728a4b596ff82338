package algo

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atharv3903/meetcast/internal/graph"
	"github.com/atharv3903/meetcast/internal/model"
)

func build(t *testing.T, v int, edges ...model.Edge) *graph.Graph {
	t.Helper()
	g, err := graph.New(v)
	require.NoError(t, err)
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e.From, e.To, e.Weight))
	}
	return g
}

// cycle is the directed ring 0->1->...->n-1->0 with weight w on every edge.
func cycle(t *testing.T, n int, w float64) *graph.Graph {
	t.Helper()
	edges := make([]model.Edge, 0, n)
	for i := range n {
		edges = append(edges, model.Edge{From: i, To: (i + 1) % n, Weight: w})
	}
	return build(t, n, edges...)
}

// rawNetwork lets tests feed the engine data the graph store would reject.
type rawNetwork struct {
	v   int
	adj map[int][]model.Edge
}

func (r rawNetwork) VertexCount() int { return r.v }

func (r rawNetwork) Adjacent(v int) iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		for _, e := range r.adj[v] {
			if !yield(e.To, e.Weight) {
				return
			}
		}
	}
}
