// Package values implements the §3 EngineValue sum type: scalars with
// units, booleans, strings, entity references, and distributions, plus
// the §3/§4.3 widening caster and arithmetic contracts.
package values

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/schmidtdse/joshsim/internal/josherr"
	"github.com/schmidtdse/joshsim/internal/units"
)

// LanguageType is the derivable type tag described in §3.
type LanguageType string

const (
	TypeInt         LanguageType = "int"
	TypeDecimal     LanguageType = "decimal"
	TypeBool        LanguageType = "boolean"
	TypeString      LanguageType = "string"
	TypeEntity      LanguageType = "entity"
	TypeDistribution LanguageType = "RealizedDistribution"
)

// Value is the EngineValue interface every variant implements. Every
// variant carries Units, per §3.
type Value interface {
	Type() LanguageType
	Units() units.Units
	String() string
}

// EntitySnapshot is the minimal read-only view of a frozen entity that
// values.EntityValue needs. The runtime package's frozen entity type
// satisfies this without values importing runtime (which would cycle,
// since runtime depends on values for attribute storage).
type EntitySnapshot interface {
	Name() string
	KindName() string
	Attribute(name string) (Value, bool)
}

// IntValue is an arbitrary-but-machine-int64 integer with units.
type IntValue struct {
	V int64
	U units.Units
}

func (v IntValue) Type() LanguageType { return TypeInt }
func (v IntValue) Units() units.Units { return v.U }
func (v IntValue) String() string     { return fmt.Sprintf("%d %s", v.V, v.U) }

// DecimalValue is an arbitrary-precision decimal with units.
type DecimalValue struct {
	V decimal.Decimal
	U units.Units
}

func (v DecimalValue) Type() LanguageType { return TypeDecimal }
func (v DecimalValue) Units() units.Units { return v.U }
func (v DecimalValue) String() string     { return fmt.Sprintf("%s %s", v.V.String(), v.U) }

// BoolValue is a boolean; units are always dimensionless.
type BoolValue struct{ V bool }

func (v BoolValue) Type() LanguageType { return TypeBool }
func (v BoolValue) Units() units.Units { return units.EMPTY }
func (v BoolValue) String() string     { return fmt.Sprintf("%t", v.V) }

// StringValue is a string; units are always dimensionless.
type StringValue struct{ V string }

func (v StringValue) Type() LanguageType { return TypeString }
func (v StringValue) Units() units.Units { return units.EMPTY }
func (v StringValue) String() string     { return v.V }

// EntityValue wraps a frozen entity snapshot. Its reported Units is
// the entity's kind name per §3 ("units = entity name"); it supports
// neither arithmetic nor scalar coercion.
type EntityValue struct {
	Ref EntitySnapshot
}

func (v EntityValue) Type() LanguageType { return LanguageType(v.Ref.KindName()) }
func (v EntityValue) Units() units.Units { return units.Atom(v.Ref.KindName()) }
func (v EntityValue) String() string     { return fmt.Sprintf("<%s %s>", v.Ref.KindName(), v.Ref.Name()) }

// DistributionValue wraps a Distribution (realized or virtual).
type DistributionValue struct {
	D Distribution
}

func (v DistributionValue) Type() LanguageType { return TypeDistribution }
func (v DistributionValue) Units() units.Units { return v.D.Units() }
func (v DistributionValue) String() string     { return fmt.Sprintf("Distribution(%s)", v.D.Units()) }

// PositionValue is a literal spatial coordinate pair produced by
// an `(x, y)` position literal: a scope-free value the runtime's geometry
// collaborator can turn into a concrete Geometry without values
// needing to know how. Units is reported as the X component's, since
// position literals are conventionally same-unit pairs (degrees or
// meters); callers needing both should read X/Y directly.
type PositionValue struct {
	X, Y decimal.Decimal
	XUnit, YUnit units.Units
}

func (v PositionValue) Type() LanguageType { return "position" }
func (v PositionValue) Units() units.Units { return v.XUnit }
func (v PositionValue) String() string {
	return fmt.Sprintf("(%s %s, %s %s)", v.X.String(), v.XUnit, v.Y.String(), v.YUnit)
}

// AsDecimal widens an Int or Decimal value to a decimal.Decimal
// magnitude, failing for any other variant.
func AsDecimal(v Value) (decimal.Decimal, error) {
	switch t := v.(type) {
	case IntValue:
		return decimal.NewFromInt(t.V), nil
	case DecimalValue:
		return t.V, nil
	default:
		return decimal.Decimal{}, josherr.New(josherr.Arithmetic, "cannot treat %s as a numeric scalar", v.Type())
	}
}

// CanBePower reports whether v may serve as an exponent: dimensionless,
// and either an integer or a decimal with an integer value.
func CanBePower(v Value) bool {
	if !v.Units().IsEmpty() {
		return false
	}
	switch t := v.(type) {
	case IntValue:
		return true
	case DecimalValue:
		return t.V.Equal(t.V.Truncate(0))
	default:
		return false
	}
}

// AsIntExponent extracts an integer exponent from a value that
// CanBePower reports true for.
func AsIntExponent(v Value) (int, error) {
	if !CanBePower(v) {
		return 0, josherr.New(josherr.UnitMismatch, "%s cannot serve as an exponent", v.Type())
	}
	switch t := v.(type) {
	case IntValue:
		return int(t.V), nil
	case DecimalValue:
		return int(t.V.IntPart()), nil
	default:
		return 0, josherr.New(josherr.UnitMismatch, "%s cannot serve as an exponent", v.Type())
	}
}
