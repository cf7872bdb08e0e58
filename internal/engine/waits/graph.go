// Package waits records what blocked builds are waiting for, so that a wait
// closing a cycle fails instead of blocking forever.
package waits

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/zerr"
)

// Path is the node of a path being built. Any other comparable value, such
// as a job, can be a node too.
type Path string

type nodeKey struct{}

// WithNode tags ctx with the node on whose behalf its holder waits.
func WithNode(ctx context.Context, node any) context.Context {
	return context.WithValue(ctx, nodeKey{}, node)
}

// NodeOf returns the node ctx is tagged with, or nil.
func NodeOf(ctx context.Context) any {
	return ctx.Value(nodeKey{})
}

// Graph is a waits-for graph. A nil *Graph records nothing.
type Graph struct {
	mu    sync.Mutex
	edges map[any]map[any]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{edges: make(map[any]map[any]int)}
}

// Add records that from waits for to and returns the func that removes the
// edge again. It fails with domain.ErrDependencyCycle, leaving the graph
// unchanged, when to already waits for from; the returned func is then a
// no-op.
func (g *Graph) Add(from, to any) (func(), error) {
	if g == nil || from == nil || to == nil {
		return func() {}, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if chain := g.chain(to, from); chain != nil {
		cycle := describe(append([]any{from}, chain...))
		return func() {}, zerr.With(zerr.Wrap(domain.ErrDependencyCycle, "waiting through "+cycle), "cycle", cycle)
	}

	out, ok := g.edges[from]
	if !ok {
		out = make(map[any]int)
		g.edges[from] = out
	}
	out[to]++

	var once sync.Once
	return func() {
		once.Do(func() { g.remove(from, to) })
	}, nil
}

// Len returns the number of distinct edges.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for _, out := range g.edges {
		n += len(out)
	}
	return n
}

func (g *Graph) remove(from, to any) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := g.edges[from]
	out[to]--
	if out[to] > 0 {
		return
	}
	delete(out, to)
	if len(out) == 0 {
		delete(g.edges, from)
	}
}

// chain returns the nodes leading from start to goal, both included, or nil
// when goal cannot be reached.
func (g *Graph) chain(start, goal any) []any {
	prev := map[any]any{start: nil}
	queue := []any{start}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if n == goal {
			var out []any
			for cur := n; cur != nil; cur = prev[cur] {
				out = append(out, cur)
			}
			slices.Reverse(out)
			return out
		}

		for next := range g.edges[n] {
			if _, seen := prev[next]; !seen {
				prev[next] = n
				queue = append(queue, next)
			}
		}
	}
	return nil
}

// describe lists the paths of a cycle in wait order.
func describe(nodes []any) string {
	var paths []string
	for _, n := range nodes {
		if p, ok := n.(Path); ok && !slices.Contains(paths, string(p)) {
			paths = append(paths, string(p))
		}
	}
	if len(paths) == 0 {
		return "itself"
	}
	return strings.Join(paths, " -> ")
}
