package algo

import "iter"

// Network is the read-only view of a street graph the engine walks.
// *graph.Graph satisfies it.
type Network interface {
	VertexCount() int
	Adjacent(v int) iter.Seq2[int, float64]
}
