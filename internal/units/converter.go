package units

import "fmt"

// Conversion moves a value expressed in Source to Destination units.
// Apply receives the bare numeric magnitude in Source units and
// returns the magnitude in Destination units; callers at the
// EngineValue layer attach units before and after.
type Conversion interface {
	Source() Units
	Destination() Units
	Apply(value float64) (float64, error)
}

// Callable is a user-declared conversion body, compiled from a `unit`
// stanza's conversion block.
type Callable func(value float64) (float64, error)

type directConversion struct {
	src, dst Units
	fn       Callable
}

func (d directConversion) Source() Units      { return d.src }
func (d directConversion) Destination() Units { return d.dst }
func (d directConversion) Apply(v float64) (float64, error) { return d.fn(v) }

// noopConversion is returned for src == dst: identity on value and
// units, per testable property 2.
type noopConversion struct{ u Units }

func (n noopConversion) Source() Units               { return n.u }
func (n noopConversion) Destination() Units          { return n.u }
func (n noopConversion) Apply(v float64) (float64, error) { return v, nil }

// transitiveConversion composes a chain of direct conversions
// discovered by BFS. The intermediate units must line up: each step's
// destination equals the next step's source.
type transitiveConversion struct {
	src, dst Units
	steps    []Conversion
}

func (t transitiveConversion) Source() Units      { return t.src }
func (t transitiveConversion) Destination() Units { return t.dst }

func (t transitiveConversion) Apply(v float64) (float64, error) {
	cur := v
	for _, step := range t.steps {
		next, err := step.Apply(cur)
		if err != nil {
			return 0, err
		}
		cur = next
	}
	return cur, nil
}

// Builder accumulates Conversion edges declared by `unit` stanzas
// before Build() finalizes them into a queryable Converter.
type Builder struct {
	edges map[string][]directConversion
}

// NewBuilder returns an empty conversion-graph builder.
func NewBuilder() *Builder {
	return &Builder{edges: make(map[string][]directConversion)}
}

// AddConversion registers a direct src->dst edge ahead of any edges
// added earlier for the same source.
func (b *Builder) AddConversion(src, dst Units, fn Callable) {
	e := directConversion{src: src, dst: dst, fn: fn}
	b.edges[src.String()] = append([]directConversion{e}, b.edges[src.String()]...)
}

// AddAlias registers a noop (identity) edge, for unit aliases.
func (b *Builder) AddAlias(src, dst Units) {
	b.AddConversion(src, dst, func(v float64) (float64, error) { return v, nil })
}

// Build finalizes the accumulated edges into a Converter.
func (b *Builder) Build() *Converter {
	edges := make(map[string][]directConversion, len(b.edges))
	for k, v := range b.edges {
		edges[k] = append([]directConversion(nil), v...)
	}
	return &Converter{edges: edges}
}

// Converter resolves a (src, dst) pair into a Conversion, searching
// the declared-edge graph transitively when no direct edge exists.
type Converter struct {
	edges map[string][]directConversion
}

// GetConversion implements §4.2's resolution order: identity, direct,
// then BFS-discovered transitive chain. Returns UnknownConversion-style
// error (as a plain error; values.Cast wraps it) when
// dst is unreachable from src.
func (c *Converter) GetConversion(src, dst Units) (Conversion, error) {
	if src.Equal(dst) {
		return noopConversion{u: src}, nil
	}

	if edges, ok := c.edges[src.String()]; ok {
		for _, e := range edges {
			if e.dst.Equal(dst) {
				return e, nil
			}
		}
	}

	path, err := c.bfs(src, dst)
	if err != nil {
		return nil, err
	}
	return path, nil
}

type bfsNode struct {
	units Units
	path  []Conversion
}

// bfs performs breadth-first search over the declared conversion graph
// from src to dst, composing the discovered edges into a
// transitiveConversion. Each step's destination is checked against the
// next step's source by construction (we only ever append an edge
// whose src equals the current frontier node).
func (c *Converter) bfs(src, dst Units) (Conversion, error) {
	visited := map[string]bool{src.String(): true}
	queue := []bfsNode{{units: src, path: nil}}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for _, e := range c.edges[node.units.String()] {
			if visited[e.dst.String()] {
				continue
			}
			newPath := append(append([]Conversion(nil), node.path...), e)
			if e.dst.Equal(dst) {
				return transitiveConversion{src: src, dst: dst, steps: newPath}, nil
			}
			visited[e.dst.String()] = true
			queue = append(queue, bfsNode{units: e.dst, path: newPath})
		}
	}

	return nil, fmt.Errorf("no conversion path from %q to %q", src.String(), dst.String())
}
