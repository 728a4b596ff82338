// Package loader reads the flat edge-list description of a street network:
//
//	V
//	E
//	from to weight
//	...
//
// Tokens may be split by any whitespace. Every structural problem is reported
// as ErrMalformedInput and no partially built graph is returned.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/atharv3903/meetcast/internal/graph"
)

var ErrMalformedInput = errors.New("loader: malformed input")

// DefaultMaxVertices bounds the declared vertex count, which sizes the
// adjacency table before any edge is read.
const DefaultMaxVertices = 1 << 20

type options struct {
	strictEdgeCount bool
	maxVertices     int
}

type Option func(*options)

// WithStrictEdgeCount requires the declared edge count to match the number
// of edge lines, which catches truncated descriptions.
func WithStrictEdgeCount() Option {
	return func(o *options) { o.strictEdgeCount = true }
}

// WithMaxVertices rejects descriptions declaring more than n vertices.
// n <= 0 keeps DefaultMaxVertices.
func WithMaxVertices(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxVertices = n
		}
	}
}

type tokens struct {
	sc  *bufio.Scanner
	pos int
}

func (t *tokens) next(what string) (string, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return "", fmt.Errorf("%w: reading %s: %v", ErrMalformedInput, what, err)
		}
		return "", fmt.Errorf("%w: missing %s", ErrMalformedInput, what)
	}
	t.pos++
	return t.sc.Text(), nil
}

func (t *tokens) int(what string) (int, error) {
	s, err := t.next(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: token %d: %s %q is not an integer", ErrMalformedInput, t.pos, what, s)
	}
	return n, nil
}

func (t *tokens) float(what string) (float64, error) {
	s, err := t.next(what)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: token %d: %s %q is not a number", ErrMalformedInput, t.pos, what, s)
	}
	return f, nil
}

// Parse builds a graph from r.
func Parse(r io.Reader, opts ...Option) (*graph.Graph, error) {
	o := options{maxVertices: DefaultMaxVertices}
	for _, opt := range opts {
		opt(&o)
	}

	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	tk := &tokens{sc: sc}

	v, err := tk.int("vertex count")
	if err != nil {
		return nil, err
	}
	if v < 0 {
		return nil, fmt.Errorf("%w: negative vertex count %d", ErrMalformedInput, v)
	}
	if v > o.maxVertices {
		return nil, fmt.Errorf("%w: vertex count %d exceeds limit %d", ErrMalformedInput, v, o.maxVertices)
	}
	declared, err := tk.int("edge count")
	if err != nil {
		return nil, err
	}
	if declared < 0 {
		return nil, fmt.Errorf("%w: negative edge count %d", ErrMalformedInput, declared)
	}

	g, err := graph.New(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	for line := 1; ; line++ {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, fmt.Errorf("%w: edge %d: %v", ErrMalformedInput, line, err)
			}
			break
		}
		tk.pos++
		from, err := strconv.Atoi(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("%w: edge %d: source %q is not an integer", ErrMalformedInput, line, sc.Text())
		}
		to, err := tk.int("edge target")
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", line, err)
		}
		w, err := tk.float("edge weight")
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", line, err)
		}
		if err := g.AddEdge(from, to, w); err != nil {
			return nil, fmt.Errorf("%w: edge %d: %v", ErrMalformedInput, line, err)
		}
	}

	if g.EdgeCount() == 0 {
		return nil, fmt.Errorf("%w: no edges", ErrMalformedInput)
	}
	if o.strictEdgeCount && g.EdgeCount() != declared {
		return nil, fmt.Errorf("%w: declared %d edges, read %d", ErrMalformedInput, declared, g.EdgeCount())
	}
	return g, nil
}

// LoadFile parses the description stored at path. A file that cannot be
// opened counts as malformed input.
func LoadFile(path string, opts ...Option) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	defer f.Close()
	return Parse(f, opts...)
}
