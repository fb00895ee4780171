package compiler

import (
	"github.com/schmidtdse/joshsim/internal/josherr"
	"github.com/schmidtdse/joshsim/internal/units"
	"github.com/schmidtdse/joshsim/internal/values"
)

// Resolver is the runtime-side collaborator an Action calls into for
// anything beyond pure stack arithmetic: attribute lookups across the
// scope chain, entity creation, spatial queries, and unit conversion.
// internal/runtime implements this; internal/compiler only depends on
// the interface, avoiding an import cycle between the two layers.
type Resolver interface {
	ResolveAttribute(scope string, path []string) (values.Value, error)
	ResolveConfig(name string, hasDefault bool) (values.Value, bool, error)
	ResolveExternal(name string, at values.Value) (values.Value, error)
	CreateEntity(kind string, count int64, position values.Value) error
	SpatialQuery(kind string, radius values.Value) (values.Value, error)
	Converter() values.Converter

	// RandomUniform draws from [0, 1) off the simulation's
	// synchronized deterministic RNG, backing `sample ... uniform`.
	RandomUniform() float64
	// RandomNormal draws a standard-normal sample off the same RNG,
	// backing `sample ... normal`.
	RandomNormal() float64
}

// Action mutates a Machine's stack, optionally consulting a Resolver
// for anything beyond pure arithmetic. Handler bodies compile to a
// chain of Actions executed in sequence until IsEnded.
type Action func(m *Machine, r Resolver) error

// Run executes a chain of Actions in order, stopping early once the
// machine signals it has ended.
func Run(actions []Action, m *Machine, r Resolver) error {
	for _, a := range actions {
		if m.IsEnded() {
			return nil
		}
		if err := a(m, r); err != nil {
			return err
		}
	}
	return nil
}

// ConditionalAction evaluates cond, pops the resulting boolean, and
// runs positive or negative accordingly. negative may be nil, in which
// case a false condition is a no-op (used for a bare `if` with no
// `else`).
func ConditionalAction(cond Action, positive Action, negative Action) Action {
	return func(m *Machine, r Resolver) error {
		if err := cond(m, r); err != nil {
			return err
		}
		v, err := m.Pop()
		if err != nil {
			return err
		}
		b, ok := v.(values.BoolValue)
		if !ok {
			return josherr.New(josherr.Arithmetic, "condition did not evaluate to a boolean")
		}
		if b.V {
			return positive(m, r)
		}
		if negative != nil {
			return negative(m, r)
		}
		return nil
	}
}

// CondArm is one arm of a ChainedConditional: a condition Action and
// the body Action to run when it is true.
type CondArm struct {
	Cond Action
	Body Action
}

// ChainedConditional tries each arm's condition in order, running the
// first whose condition is true; if none match, runs els (which may
// be nil, leaving the machine un-ended).
func ChainedConditional(arms []CondArm, els Action) Action {
	return func(m *Machine, r Resolver) error {
		for _, arm := range arms {
			if err := arm.Cond(m, r); err != nil {
				return err
			}
			v, err := m.Pop()
			if err != nil {
				return err
			}
			b, ok := v.(values.BoolValue)
			if !ok {
				return josherr.New(josherr.Arithmetic, "condition did not evaluate to a boolean")
			}
			if b.V {
				return arm.Body(m, r)
			}
		}
		if els != nil {
			return els(m, r)
		}
		return nil
	}
}

// PushConst pushes a compile-time-known literal value.
func PushConst(v values.Value) Action {
	return func(m *Machine, r Resolver) error {
		m.Push(v)
		return nil
	}
}

// EndAction pops the top of stack and ends the handler with it.
func EndAction() Action {
	return func(m *Machine, r Resolver) error {
		v, err := m.Pop()
		if err != nil {
			return err
		}
		m.End(v)
		return nil
	}
}

// BinaryOpAction evaluates left then right, pops both, and pushes
// op(left, right).
func BinaryOpAction(left, right Action, op func(a, b values.Value) (values.Value, error)) Action {
	return func(m *Machine, r Resolver) error {
		if err := left(m, r); err != nil {
			return err
		}
		if err := right(m, r); err != nil {
			return err
		}
		b, err := m.Pop()
		if err != nil {
			return err
		}
		a, err := m.Pop()
		if err != nil {
			return err
		}
		result, err := op(a, b)
		if err != nil {
			return err
		}
		m.Push(result)
		return nil
	}
}

// UnaryOpAction evaluates operand, pops it, and pushes op(operand).
func UnaryOpAction(operand Action, op func(a values.Value) (values.Value, error)) Action {
	return func(m *Machine, r Resolver) error {
		if err := operand(m, r); err != nil {
			return err
		}
		a, err := m.Pop()
		if err != nil {
			return err
		}
		result, err := op(a)
		if err != nil {
			return err
		}
		m.Push(result)
		return nil
	}
}

// CastAction evaluates value, pops it, casts to destination units
// through the Resolver's Converter, and pushes the result.
func CastAction(value Action, to units.Units, force bool) Action {
	return func(m *Machine, r Resolver) error {
		if err := value(m, r); err != nil {
			return err
		}
		v, err := m.Pop()
		if err != nil {
			return err
		}
		result, err := values.Cast(r.Converter(), v, to, force)
		if err != nil {
			return err
		}
		m.Push(result)
		return nil
	}
}

// PushAttributeAction resolves a dotted scope-chain reference via the
// Resolver and pushes the result.
func PushAttributeAction(scope string, path []string) Action {
	return func(m *Machine, r Resolver) error {
		if scope == "" && len(path) == 1 {
			if local, ok := m.LoadLocal(path[0]); ok {
				m.Push(local)
				return nil
			}
		}
		v, err := r.ResolveAttribute(scope, path)
		if err != nil {
			return err
		}
		m.Push(v)
		return nil
	}
}

// CreateEntityAction pops a count off the stack (via countAction) and
// asks the Resolver to instantiate that many of kind at the given
// position (positionAction may be nil to inherit the creator's spot).
func CreateEntityAction(countAction Action, kind string, positionAction Action) Action {
	return func(m *Machine, r Resolver) error {
		if err := countAction(m, r); err != nil {
			return err
		}
		countVal, err := m.Pop()
		if err != nil {
			return err
		}
		var posVal values.Value
		if positionAction != nil {
			if err := positionAction(m, r); err != nil {
				return err
			}
			posVal, err = m.Pop()
			if err != nil {
				return err
			}
		}
		iv, ok := countVal.(values.IntValue)
		if !ok {
			return josherr.New(josherr.Arithmetic, "create count must be an integer")
		}
		if err := r.CreateEntity(kind, iv.V, posVal); err != nil {
			return err
		}
		m.Push(values.IntValue{V: iv.V})
		return nil
	}
}

// SpatialQueryAction pops a distance and asks the Resolver to
// enumerate entities of kind within it.
func SpatialQueryAction(kind string, radiusAction Action) Action {
	return func(m *Machine, r Resolver) error {
		if err := radiusAction(m, r); err != nil {
			return err
		}
		radius, err := m.Pop()
		if err != nil {
			return err
		}
		result, err := r.SpatialQuery(kind, radius)
		if err != nil {
			return err
		}
		m.Push(result)
		return nil
	}
}

// ConfigAction resolves a config lookup, falling back to defaultAction
// when present and the key is absent.
func ConfigAction(name string, defaultAction Action) Action {
	return func(m *Machine, r Resolver) error {
		v, found, err := r.ResolveConfig(name, defaultAction != nil)
		if err != nil {
			return err
		}
		if found {
			m.Push(v)
			return nil
		}
		if defaultAction == nil {
			return josherr.New(josherr.UnresolvedConfig, "config %q has no value and no default", name)
		}
		return defaultAction(m, r)
	}
}

// ExternalAction resolves an ExternalResource lookup, optionally at a
// specific time produced by atAction.
func ExternalAction(name string, atAction Action) Action {
	return func(m *Machine, r Resolver) error {
		var at values.Value
		if atAction != nil {
			if err := atAction(m, r); err != nil {
				return err
			}
			v, err := m.Pop()
			if err != nil {
				return err
			}
			at = v
		}
		result, err := r.ResolveExternal(name, at)
		if err != nil {
			return err
		}
		m.Push(result)
		return nil
	}
}
