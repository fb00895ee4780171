package values

import (
	"github.com/shopspring/decimal"

	"github.com/schmidtdse/joshsim/internal/josherr"
	"github.com/schmidtdse/joshsim/internal/units"
)

// Converter is the subset of units.Converter the cast machine op
// needs; kept as an interface so tests can stub it.
type Converter interface {
	GetConversion(src, dst units.Units) (units.Conversion, error)
}

// Cast converts v to destination units to. When force is true, an
// unconvertible value (e.g. UnknownConversion) instead reinterprets
// the magnitude under the new units without scaling — the `as!`
// operator's force semantics. Distributions cast pointwise.
func Cast(conv Converter, v Value, to units.Units, force bool) (Value, error) {
	if dv, ok := v.(DistributionValue); ok {
		return broadcastUnary(dv, func(inner Value) (Value, error) { return Cast(conv, inner, to, force) })
	}

	if v.Units().Equal(to) {
		return v, nil
	}

	conversion, err := conv.GetConversion(v.Units(), to)
	if err != nil {
		if force {
			return reinterpretUnits(v, to)
		}
		return nil, josherr.Wrap(josherr.UnknownConversion, err, "no conversion from %s to %s", v.Units(), to)
	}

	d, err := AsDecimal(v)
	if err != nil {
		if force {
			return reinterpretUnits(v, to)
		}
		return nil, err
	}
	f, _ := d.Float64()
	converted, err := conversion.Apply(f)
	if err != nil {
		return nil, josherr.Wrap(josherr.UnitMismatch, err, "conversion from %s to %s failed", v.Units(), to)
	}
	return DecimalValue{V: decimal.NewFromFloat(converted), U: to}, nil
}

// reinterpretUnits keeps a value's magnitude and swaps its units tag,
// used by force-cast when no conversion exists.
func reinterpretUnits(v Value, to units.Units) (Value, error) {
	switch t := v.(type) {
	case IntValue:
		return IntValue{V: t.V, U: to}, nil
	case DecimalValue:
		return DecimalValue{V: t.V, U: to}, nil
	default:
		return nil, josherr.New(josherr.UnitMismatch, "cannot force-cast %s", v.Type())
	}
}
