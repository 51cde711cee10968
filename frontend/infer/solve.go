package infer

import (
	"cmp"
	"iter"
	"slices"

	"github.com/cottand/duckcheck/frontend/types"
	"github.com/cottand/duckcheck/internal/log"
	"github.com/cottand/duckcheck/util"
	"github.com/hashicorp/go-set/v3"
)

var solveLogger = log.DefaultLogger.With("section", "solve")

// Table holds the solved type of every symbol. It is immutable.
type Table struct {
	env        *Env
	structural []types.StructuralType
	dynamic    *set.Set[SymbolID]
	passes     int
	converged  bool
}

// Source returns where the type of id comes from
func (t *Table) Source(id SymbolID) TypeSource {
	sym := t.env.Symbols[id]
	if known := sym.Type(); known.Known() {
		return Declared{Type: known}
	}
	return Inferred{Structural: t.structural[id], Dynamic: t.dynamic.Contains(id)}
}

// Structural returns the requirements inferred for id, Top for declared symbols
func (t *Table) Structural(id SymbolID) types.StructuralType { return t.structural[id] }

func (t *Table) IsDynamic(id SymbolID) bool { return t.dynamic.Contains(id) }

// Passes is the number of propagation passes the solver ran
func (t *Table) Passes() int { return t.passes }

// Converged is false when propagation stopped at the pass bound while still changing
func (t *Table) Converged() bool { return t.converged }

// Solve builds the Table from the collected constraints.
//
// Direct requirements are merged into their symbol first. Then requirements are
// propagated along flows from callee parameters to the arguments of their callers,
// repeatedly, until no symbol changes. Each pass walks the flow graph from every
// source with its own visited set, so recursion terminates, and the number of passes
// is bounded by the longest acyclic chain of flows plus one.
func Solve(env *Env, collections []*Collection) *Table {
	dynamic := util.MapIter(slices.Values(collections), func(c *Collection) iter.Seq[SymbolID] {
		return slices.Values(c.Dynamic)
	})
	t := &Table{
		env:        env,
		structural: make([]types.StructuralType, len(env.Symbols)),
		dynamic:    util.SetFromSeq(util.ConcatIter(slices.Collect(dynamic)...), 8),
	}
	lattice := env.Registry

	for _, c := range collections {
		for _, req := range c.Requires {
			if t.dynamic.Contains(req.Symbol) {
				continue
			}
			merged, changed := t.structural[req.Symbol].Add(lattice, req.Capability)
			if changed && merged.IsConflicting() && !t.structural[req.Symbol].IsConflicting() {
				solveLogger.Debug("conflicting requirement", "symbol", env.Symbols[req.Symbol], "site", req.Site, "conflict", merged.Conflict())
			}
			t.structural[req.Symbol] = merged
		}
	}

	graph := newFlowGraph(collections)
	bound := graph.longestChain() + 1
	t.converged = true
	for t.passes = 0; ; t.passes++ {
		if t.passes == bound {
			t.converged = false
			solveLogger.Warn("propagation did not settle", "passes", t.passes)
			break
		}
		if !t.propagate(graph) {
			t.passes++
			break
		}
	}
	solveLogger.Debug("solved", "passes", t.passes, "flows", graph.size)
	return t
}

// effective is what flowing out of id requires from the value flowing in:
// the inferred requirements, or compatibility with a declared type
func (t *Table) effective(id SymbolID) (types.StructuralType, bool) {
	if declared := t.env.Symbols[id].Declared; declared.Known() {
		return types.StructuralOf(t.env.Registry, types.Instance(declared)), true
	}
	if t.dynamic.Contains(id) {
		return types.Top, false
	}
	st := t.structural[id]
	return st, !st.IsTop()
}

// propagate runs one pass over every flow, reporting whether any symbol changed
func (t *Table) propagate(graph *flowGraph) bool {
	changed := false
	for _, source := range graph.sources {
		visited := set.New[SymbolID](8)
		pending := &util.Stack[SymbolID]{}
		pending.Push(source)
		for pending.Len() > 0 {
			current, _ := pending.Pop()
			if !visited.Insert(current) {
				continue
			}
			requirements, ok := t.effective(current)
			for _, next := range graph.edges[current] {
				if ok && !t.dynamic.Contains(next) {
					merged, grew := t.structural[next].Merge(t.env.Registry, requirements)
					if grew {
						t.structural[next] = merged
						changed = true
					}
				}
				pending.Push(next)
			}
		}
	}
	return changed
}

// flowGraph indexes Flow constraints by their From symbol, deduplicated and in
// a deterministic order
type flowGraph struct {
	edges   map[SymbolID][]SymbolID
	sources []SymbolID
	size    int
}

type flowEdge = util.Pair[SymbolID, SymbolID]

func newFlowGraph(collections []*Collection) *flowGraph {
	unique := set.New[flowEdge](16)
	for _, c := range collections {
		for _, flow := range c.Flows {
			if flow.From != flow.To {
				unique.Insert(util.NewPair(flow.From, flow.To))
			}
		}
	}
	edges := unique.Slice()
	slices.SortFunc(edges, func(a, b flowEdge) int {
		return cmp.Or(cmp.Compare(a.Fst, b.Fst), cmp.Compare(a.Snd, b.Snd))
	})
	g := &flowGraph{edges: make(map[SymbolID][]SymbolID), size: len(edges)}
	for _, e := range edges {
		if _, ok := g.edges[e.Fst]; !ok {
			g.sources = append(g.sources, e.Fst)
		}
		g.edges[e.Fst] = append(g.edges[e.Fst], e.Snd)
	}
	return g
}

// longestChain returns the number of edges in the longest path without repeated
// symbols, ignoring edges that close a cycle. The walk is a depth-first search on an
// explicit stack.
func (g *flowGraph) longestChain() int {
	const (
		unvisited = iota
		inProgress
		done
	)
	type frame struct {
		id   SymbolID
		next int
	}
	state := make(map[SymbolID]int)
	depth := make(map[SymbolID]int)
	longest := 0
	for _, source := range g.sources {
		if state[source] != unvisited {
			continue
		}
		state[source] = inProgress
		pending := &util.Stack[frame]{}
		pending.Push(frame{id: source})
		for pending.Len() > 0 {
			top, _ := pending.Pop()
			if edges := g.edges[top.id]; top.next < len(edges) {
				next := edges[top.next]
				top.next++
				pending.Push(top)
				switch state[next] {
				case unvisited:
					state[next] = inProgress
					pending.Push(frame{id: next})
				case done:
					depth[top.id] = max(depth[top.id], depth[next]+1)
				}
				continue
			}
			state[top.id] = done
			if parent, ok := pending.Pop(); ok {
				depth[parent.id] = max(depth[parent.id], depth[top.id]+1)
				pending.Push(parent)
			}
		}
		longest = max(longest, depth[source])
	}
	return longest
}
