// Package runtime implements the L4 scheduler: the two-timeline
// entity model, per-step event ordering, lazy attribute evaluation
// with cycle detection, and cross-entity resolution that execute the
// Action chains internal/compiler produces.
package runtime

import (
	"github.com/google/uuid"

	"github.com/schmidtdse/joshsim/internal/compiler"
	"github.com/schmidtdse/joshsim/internal/values"
)

// Kind collapses the source Entity class hierarchy (Entity ->
// SpatialEntity -> {RootSpatial, MemberSpatial} -> {Agent, Disturbance,
// Patch, Simulation, External}) into a tagged enum; polymorphic
// behavior becomes a field check instead of a type switch.
type Kind int

const (
	KindSimulation Kind = iota
	KindPatch
	KindAgent
	KindDisturbance
	KindExternal
)

func kindFromStanza(declared string) Kind {
	switch declared {
	case "simulation":
		return KindSimulation
	case "patch":
		return KindPatch
	case "agent", "organism", "management":
		return KindAgent
	case "disturbance":
		return KindDisturbance
	case "external":
		return KindExternal
	default:
		return KindAgent
	}
}

// timeline holds one attribute table: a dense slot array indexed by
// the prototype's attribute bijection, plus per-slot in-progress
// marks used only on the current (mutable) table.
type timeline struct {
	slots      []values.Value
	present    []bool
	inProgress []bool
}

func newTimeline(n int) *timeline {
	return &timeline{slots: make([]values.Value, n), present: make([]bool, n), inProgress: make([]bool, n)}
}

// Entity is one live instance of a Prototype: an ID, its shared
// prototype handle, a non-owning parent reference, and the two
// timelines §4.4.1 describes. Geometry is optional (nil for entities
// without spatial extent, e.g. Simulation).
type Entity struct {
	ID       string
	Proto    *compiler.Prototype
	Kind     Kind
	Geometry Geometry
	Parent   *Entity // non-owning; nil for the Simulation root

	prior   *timeline
	current *timeline

	members []*Entity // patch/simulation children, insertion order
	removed bool
}

// NewEntity allocates a fresh instance of proto with an empty current
// timeline and no prior history (prior is filled in at promotion).
func NewEntity(proto *compiler.Prototype, kind Kind, geometry Geometry, parent *Entity) *Entity {
	n := len(proto.AttributeNames)
	return &Entity{
		ID:       uuid.NewString(),
		Proto:    proto,
		Kind:     kind,
		Geometry: geometry,
		Parent:   parent,
		prior:    newTimeline(n),
		current:  newTimeline(n),
	}
}

// Snapshot returns an immutable view over e's current timeline,
// satisfying values.EntitySnapshot for cross-entity references. Once
// returned, the snapshot's attribute access never triggers handler
// evaluation (§4.4.5): it reads whatever was already computed.
func (e *Entity) Snapshot() values.EntitySnapshot {
	return &frozenSnapshot{name: e.ID, kind: e.Proto.Name, entity: e}
}

type frozenSnapshot struct {
	name   string
	kind   string
	entity *Entity
}

func (f *frozenSnapshot) Name() string     { return f.name }
func (f *frozenSnapshot) KindName() string { return f.kind }
func (f *frozenSnapshot) Attribute(name string) (values.Value, bool) {
	idx, ok := f.entity.Proto.AttributeIndex[name]
	if !ok {
		return nil, false
	}
	if f.entity.current.present[idx] {
		return f.entity.current.slots[idx], true
	}
	if f.entity.prior.present[idx] {
		return f.entity.prior.slots[idx], true
	}
	return nil, false
}

// state returns the entity's `state` attribute, defaulting to "" (the
// source's `None`) when absent or not a string.
func (e *Entity) state() string {
	idx, ok := e.Proto.AttributeIndex["state"]
	if !ok || !e.current.present[idx] {
		if ok && e.prior.present[idx] {
			if s, ok := e.prior.slots[idx].(values.StringValue); ok {
				return s.V
			}
		}
		return ""
	}
	if s, ok := e.current.slots[idx].(values.StringValue); ok {
		return s.V
	}
	return ""
}

// promote moves current into prior (per §4.4.1, a move not a copy) and
// allocates a fresh empty current table for the next step. Attributes
// not evaluated this step keep their prior value.
func (e *Entity) promote() {
	next := e.current
	for i, ok := range e.prior.present {
		if ok && !next.present[i] {
			next.slots[i] = e.prior.slots[i]
			next.present[i] = true
		}
	}
	e.prior = next
	e.current = newTimeline(len(e.Proto.AttributeNames))
}
