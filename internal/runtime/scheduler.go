package runtime

import (
	"context"

	"github.com/schmidtdse/joshsim/internal/compiler"
	"github.com/schmidtdse/joshsim/internal/josherr"
	"github.com/schmidtdse/joshsim/internal/obslog"
	"github.com/schmidtdse/joshsim/internal/values"
)

// Config is the external collaborator §6 names: `get(name)` with
// absent keys left to the caller's `else` default.
type Config interface {
	Get(name string) (values.Value, bool)
}

// ExternalResource is the §6 collaborator backing `external[name]`
// lookups: pure and idempotent, with an optional explicit time.
type ExternalResource interface {
	DistributionFor(geometry Geometry, time *float64) (values.Value, error)
}

// Simulation holds everything one run needs: the compiled program, the
// live entity tree, and the collaborators the resolver reaches for.
type Simulation struct {
	ProgramCompiled *compiler.Program
	Converter       values.Converter
	Config          Config
	External        map[string]ExternalResource
	RNG             *DeterministicRNG
	Cancel          *CancelToken

	Root    *Entity
	Patches []*Entity // row-major grid order
	Step    int
}

// evaluateAttribute implements §4.4.3: lazy evaluation with
// in-progress cycle detection, caching the result for the rest of the
// step.
func (s *Simulation) evaluateAttribute(e *Entity, attribute, event string) (values.Value, error) {
	idx, ok := e.Proto.AttributeIndex[attribute]
	if !ok {
		return nil, josherr.New(josherr.UnknownAttribute, "%s has no attribute %q", e.Proto.Name, attribute)
	}
	if e.current.present[idx] {
		return e.current.slots[idx], nil
	}
	if e.current.inProgress[idx] {
		return nil, josherr.New(josherr.CyclicDependency, "cyclic attribute dependency at %s.%s", e.Proto.Name, attribute)
	}

	e.current.inProgress[idx] = true
	defer func() { e.current.inProgress[idx] = false }()

	group, hasGroup := e.Proto.LookupHandlerGroup(e.state(), attribute, event)
	if !hasGroup {
		return s.defaultAttributeValue(e, attribute, idx)
	}

	result, err := runHandlerGroup(group, s, e, event)
	if err != nil {
		return nil, err
	}
	e.current.slots[idx] = result
	e.current.present[idx] = true
	return result, nil
}

// defaultAttributeValue implements the no-handler fallback: carry
// prior forward, else evaluate a constant handler, else fail.
func (s *Simulation) defaultAttributeValue(e *Entity, attribute string, idx int) (values.Value, error) {
	if e.prior.present[idx] {
		v := e.prior.slots[idx]
		e.current.slots[idx] = v
		e.current.present[idx] = true
		return v, nil
	}
	if group, ok := e.Proto.LookupHandlerGroup(e.state(), attribute, "constant"); ok {
		result, err := runHandlerGroup(group, s, e, "constant")
		if err != nil {
			return nil, err
		}
		e.current.slots[idx] = result
		e.current.present[idx] = true
		return result, nil
	}
	return nil, josherr.New(josherr.UnknownAttribute, "%s.%s has no handler and no prior value", e.Proto.Name, attribute)
}

// runHandlerGroup implements §4.4.4's in-group selection: the first
// handler whose selector is nil or evaluates true.
func runHandlerGroup(group *compiler.EventHandlerGroup, s *Simulation, e *Entity, event string) (values.Value, error) {
	resolver := &entityResolver{sim: s, entity: e, event: event}
	for _, h := range group.Handlers {
		if h.Selector != nil {
			m := compiler.NewMachine()
			if err := h.Selector(m, resolver); err != nil {
				return nil, err
			}
			v, err := m.Pop()
			if err != nil {
				return nil, err
			}
			b, ok := v.(values.BoolValue)
			if !ok || !b.V {
				continue
			}
		}
		m := compiler.NewMachine()
		if err := h.Body(m, resolver); err != nil {
			return nil, err
		}
		if !m.IsEnded() {
			return nil, josherr.New(josherr.Arithmetic, "%s.%s handler terminated without end", e.Proto.Name, event)
		}
		return m.Result()
	}
	return nil, josherr.New(josherr.UnknownAttribute, "no handler selector matched for %s event %s", e.Proto.Name, event)
}

// collectionAttribute builds the distribution values.Value for
// `here.<Collection>.<attr>` and `<EntityName>.<attr>`: frozen
// snapshots of each matching member's attribute, never triggering
// evaluation.
func (s *Simulation) collectionAttribute(host *Entity, collection, attr string) (values.Value, error) {
	var vals []values.Value
	for _, member := range host.members {
		if member.removed || member.Proto.Name != collection {
			continue
		}
		snap := member.Snapshot()
		v, ok := snap.Attribute(attr)
		if !ok {
			continue
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return nil, josherr.New(josherr.UnknownAttribute, "no members of %s found for attribute %s", collection, attr)
	}
	rd, err := values.NewRealizedDistribution(vals, vals[0].Units())
	if err != nil {
		return nil, err
	}
	return values.DistributionValue{D: rd}, nil
}

// createEntities implements §4.4.7: instantiate N fresh members of
// kind in creator's patch, running their init handlers immediately in
// attribute-declaration order before control returns. A PositionValue
// argument places the new members at that point geometry instead of
// inheriting the creator's.
func (s *Simulation) createEntities(creator *Entity, kind string, count int64, position values.Value) error {
	proto, ok := s.ProgramCompiled.Prototypes[kind]
	if !ok {
		return josherr.New(josherr.UnknownAttribute, "no entity prototype named %q", kind)
	}
	host := creator.hostPatch()
	if host == nil {
		return josherr.New(josherr.UnknownAttribute, "creator has no enclosing patch")
	}
	geom := creator.Geometry
	if pos, ok := position.(values.PositionValue); ok {
		x, _ := pos.X.Float64()
		y, _ := pos.Y.Float64()
		geom = NewPointGeometry(x, y)
	}
	for i := int64(0); i < count; i++ {
		child := NewEntity(proto, kindFromStanza(proto.Kind), geom, host)
		for _, attrName := range proto.AttributeNames {
			if proto.HasNoHandler("init", attrName) {
				continue
			}
			if _, err := s.evaluateAttribute(child, attrName, "init"); err != nil {
				return err
			}
		}
		host.members = append(host.members, child)
	}
	return nil
}

// spatialQuery implements §4.4.6: enumerate patches within radius of
// e's geometry (through the Geometry collaborator) and aggregate the
// named entity type's frozen members across them.
func (s *Simulation) spatialQuery(e *Entity, kind string, radius values.Value) (values.Value, error) {
	radiusDecimal, err := values.AsDecimal(radius)
	if err != nil {
		return nil, err
	}
	radiusFloat, _ := radiusDecimal.Float64()

	var found []values.Value
	for _, patch := range s.Patches {
		if e.Geometry == nil || patch.Geometry == nil {
			continue
		}
		if !patch.Geometry.Within(e.Geometry, radiusFloat) {
			continue
		}
		for _, member := range patch.members {
			if member.removed || member.Proto.Name != kind {
				continue
			}
			found = append(found, values.EntityValue{Ref: member.Snapshot()})
		}
	}
	if len(found) == 0 {
		return nil, josherr.New(josherr.UnknownAttribute, "spatial query for %s found no matches", kind)
	}
	rd, err := values.NewRealizedDistribution(found, found[0].Units())
	if err != nil {
		return nil, err
	}
	return values.DistributionValue{D: rd}, nil
}

// RunStep executes one full step per §4.4.2's five phases. event is
// "init" for step zero and "step" thereafter.
func (s *Simulation) RunStep(ctx context.Context, event string) error {
	timer := obslog.StartTimer(obslog.CategoryScheduler, "step")
	defer timer.Stop()

	order := s.iterationOrder()

	if err := s.dispatchEvent(ctx, []*Entity{s.Root}, "start"); err != nil {
		return err
	}

	// Walks patches in the same (step, patchIndex)-reseeded shards as
	// RunStepConcurrent, just sequentially, so a `sample` draw depends
	// only on (base_seed, step, patch_index) and never on thread count
	// (§4.4.8, §8.6).
	for i, patch := range s.Patches {
		if s.RNG != nil {
			s.RNG.Reseed(s.Step, i)
		}
		shard := append([]*Entity{patch}, patch.members...)
		if err := s.dispatchEvent(ctx, shard, "start"); err != nil {
			return err
		}
		if err := s.dispatchEvent(ctx, shard, event); err != nil {
			return err
		}
		if err := s.dispatchEvent(ctx, shard, "end"); err != nil {
			return err
		}
	}

	if err := s.dispatchEvent(ctx, []*Entity{s.Root}, "end"); err != nil {
		return err
	}

	s.removeFinished(order)

	for _, e := range order {
		e.promote()
	}
	s.Step++
	return nil
}

// dispatchEvent evaluates every attribute carrying a handler for event,
// for each entity in order, the same way step-body evaluates "step":
// this covers both the bulk work phase and the narrower start/end
// phases, which typically only a few attributes hook.
func (s *Simulation) dispatchEvent(ctx context.Context, order []*Entity, event string) error {
	for _, e := range order {
		if err := s.Cancel.CheckAt(ctx); err != nil {
			return err
		}
		for _, attr := range e.Proto.AttributeNames {
			if e.Proto.HasNoHandler(event, attr) {
				continue
			}
			if _, err := s.evaluateAttribute(e, attr, event); err != nil {
				return err
			}
		}
	}
	return nil
}

// removeFinished implements §4.4.2 step 4: any entity whose
// event=="remove" handler fires and evaluates true is removed.
// `remove = <bool>` decodes to the bare attribute "" (§4.1); a dotted
// form like `isDead.remove = <bool>` decodes to a named attribute
// instead, so every attribute slot is scanned for a "remove" handler
// rather than assuming the attribute is literally named "remove".
func (s *Simulation) removeFinished(order []*Entity) {
	for _, e := range order {
		for _, attr := range e.Proto.AttributeNames {
			if e.Proto.HasNoHandler("remove", attr) {
				continue
			}
			result, err := s.evaluateAttribute(e, attr, "remove")
			if err != nil {
				continue
			}
			if b, ok := result.(values.BoolValue); ok && b.V && e.Parent != nil {
				e.removed = true
				break
			}
		}
	}
	for _, patch := range s.Patches {
		kept := patch.members[:0]
		for _, m := range patch.members {
			if !m.removed {
				kept = append(kept, m)
			}
		}
		patch.members = kept
	}
}

// iterationOrder implements §4.4.2's deterministic traversal:
// simulation, then patches in grid order, then members by insertion
// order.
func (s *Simulation) iterationOrder() []*Entity {
	order := []*Entity{s.Root}
	for _, patch := range s.Patches {
		order = append(order, patch)
		order = append(order, patch.members...)
	}
	return order
}
