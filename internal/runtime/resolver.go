package runtime

import (
	"github.com/schmidtdse/joshsim/internal/josherr"
	"github.com/schmidtdse/joshsim/internal/values"
)

// entityResolver implements compiler.Resolver for one handler
// invocation: it closes over the Simulation, the entity the handler
// runs on, and the event being evaluated (bare/current references
// resolve against that event's evaluation, per §4.4.1).
type entityResolver struct {
	sim    *Simulation
	entity *Entity
	event  string
}

func (r *entityResolver) Converter() values.Converter { return r.sim.Converter }

// RandomUniform and RandomNormal draw off the simulation's RNG, which
// both schedulers reseed per (step, patch index) shard (§4.4.8), so
// `sample ... uniform`/`sample ... normal` stay deterministic under
// both the single- and multi-threaded schedulers.
func (r *entityResolver) RandomUniform() float64 { return r.sim.RNG.Float64() }
func (r *entityResolver) RandomNormal() float64  { return r.sim.RNG.NormFloat64() }

// ResolveAttribute implements the §4.4.5 scope-chain table.
func (r *entityResolver) ResolveAttribute(scope string, path []string) (values.Value, error) {
	switch scope {
	case "", "current":
		if len(path) != 1 {
			return nil, josherr.New(josherr.UnknownAttribute, "unsupported attribute path %v", path)
		}
		return r.sim.evaluateAttribute(r.entity, path[0], r.event)

	case "prior":
		if len(path) != 1 {
			return nil, josherr.New(josherr.UnknownAttribute, "unsupported attribute path %v", path)
		}
		return r.entity.readPrior(path[0])

	case "here":
		host := r.entity.hostPatch()
		if host == nil {
			return nil, josherr.New(josherr.UnknownAttribute, "entity has no enclosing patch")
		}
		if len(path) == 1 {
			return r.sim.evaluateAttribute(host, path[0], r.event)
		}
		if len(path) == 2 {
			return r.sim.collectionAttribute(host, path[0], path[1])
		}
		return nil, josherr.New(josherr.UnknownAttribute, "unsupported here.* path %v", path)

	case "meta":
		if len(path) != 1 {
			return nil, josherr.New(josherr.UnknownAttribute, "unsupported meta.* path %v", path)
		}
		return r.sim.evaluateAttribute(r.sim.Root, path[0], r.event)

	default:
		// <EntityName>.<attr>: distribution over members of that named
		// collection within the entity's patch.
		host := r.entity.hostPatch()
		if host == nil {
			return nil, josherr.New(josherr.UnknownAttribute, "entity has no enclosing patch")
		}
		if len(path) != 1 {
			return nil, josherr.New(josherr.UnknownAttribute, "unsupported %s.* path %v", scope, path)
		}
		return r.sim.collectionAttribute(host, scope, path[0])
	}
}

func (r *entityResolver) ResolveConfig(name string, hasDefault bool) (values.Value, bool, error) {
	v, ok := r.sim.Config.Get(name)
	if !ok {
		if hasDefault {
			return nil, false, nil
		}
		return nil, false, josherr.New(josherr.UnresolvedConfig, "config %q has no value and no default", name)
	}
	return v, true, nil
}

func (r *entityResolver) ResolveExternal(name string, at values.Value) (values.Value, error) {
	ext, ok := r.sim.External[name]
	if !ok {
		return nil, josherr.New(josherr.UnknownAttribute, "no external resource named %q", name)
	}
	var t *float64
	if at != nil {
		d, err := values.AsDecimal(at)
		if err != nil {
			return nil, err
		}
		f, _ := d.Float64()
		t = &f
	}
	return ext.DistributionFor(r.entity.Geometry, t)
}

func (r *entityResolver) CreateEntity(kind string, count int64, position values.Value) error {
	return r.sim.createEntities(r.entity, kind, count, position)
}

func (r *entityResolver) SpatialQuery(kind string, radius values.Value) (values.Value, error) {
	return r.sim.spatialQuery(r.entity, kind, radius)
}

// readPrior reads attribute directly from e's prior timeline without
// triggering evaluation.
func (e *Entity) readPrior(attribute string) (values.Value, error) {
	idx, ok := e.Proto.AttributeIndex[attribute]
	if !ok || !e.prior.present[idx] {
		return nil, josherr.New(josherr.UnknownAttribute, "no prior value for %s.%s", e.Proto.Name, attribute)
	}
	return e.prior.slots[idx], nil
}

// hostPatch returns the patch containing e, or e itself if e is a
// patch.
func (e *Entity) hostPatch() *Entity {
	if e.Kind == KindPatch {
		return e
	}
	return e.Parent
}
