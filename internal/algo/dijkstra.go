package algo

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
)

var (
	ErrVertexOutOfRange = errors.New("algo: source vertex out of range")
	ErrInvalidWeight    = errors.New("algo: negative edge weight")
	ErrUnreachable      = errors.New("algo: vertex unreachable from source")
)

type pqItem struct {
	node int
	dist float64
}

type pq []pqItem

func (p pq) Len() int           { return len(p) }
func (p pq) Less(i, j int) bool { return p[i].dist < p[j].dist }
func (p pq) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

func (p *pq) Push(x any) {
	*p = append(*p, x.(pqItem))
}

func (p *pq) Pop() any {
	old := *p
	n := len(old)
	item := old[n-1]
	*p = old[:n-1]
	return item
}

// DistTable holds the shortest distances from one source to every vertex.
// Unreachable vertices keep +Inf.
type DistTable struct {
	source  int
	dist    []float64
	settled []bool
	count   int
}

func (t *DistTable) Source() int { return t.source }

func (t *DistTable) HasPathTo(v int) bool {
	return v >= 0 && v < len(t.dist) && !math.IsInf(t.dist[v], 1)
}

func (t *DistTable) DistanceTo(v int) (float64, error) {
	if !t.HasPathTo(v) {
		return 0, fmt.Errorf("%w: %d->%d", ErrUnreachable, t.source, v)
	}
	return t.dist[v], nil
}

// Settled is the number of vertices whose distance was finalized.
func (t *DistTable) Settled() int { return t.count }

// ShortestPathsFrom runs Dijkstra from src over g. Stale heap entries are
// skipped on pop instead of being decreased in place.
func ShortestPathsFrom(g Network, src int) (*DistTable, error) {
	n := g.VertexCount()
	if src < 0 || src >= n {
		return nil, fmt.Errorf("%w: %d (V=%d)", ErrVertexOutOfRange, src, n)
	}

	t := &DistTable{
		source:  src,
		dist:    make([]float64, n),
		settled: make([]bool, n),
	}
	for i := range t.dist {
		t.dist[i] = math.Inf(1)
	}
	t.dist[src] = 0

	pq := &pq{}
	heap.Push(pq, pqItem{node: src, dist: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		u := cur.node

		if t.settled[u] {
			continue
		}
		t.settled[u] = true
		t.count++

		for w, weight := range g.Adjacent(u) {
			if weight < 0 {
				return nil, fmt.Errorf("%w: %d->%d weight=%v", ErrInvalidWeight, u, w, weight)
			}
			if t.settled[w] {
				continue
			}
			nd := t.dist[u] + weight
			if nd < t.dist[w] {
				t.dist[w] = nd
				heap.Push(pq, pqItem{node: w, dist: nd})
			}
		}
	}

	return t, nil
}
