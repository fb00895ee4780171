package values

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/schmidtdse/joshsim/internal/josherr"
)

// Count returns the number of elements in a distribution (dimensionless
// int), or 1 for any scalar.
func Count(v Value) (Value, error) {
	if dv, ok := v.(DistributionValue); ok {
		r, err := dv.D.Realize()
		if err != nil {
			return nil, err
		}
		return IntValue{V: int64(len(r.Values))}, nil
	}
	return IntValue{V: 1}, nil
}

// reduceDistribution applies a RealizedDistribution reducer, erroring
// with an Arithmetic kind when v is not a distribution or the reducer
// yields no result.
func reduceDistribution(v Value, reduce func(*RealizedDistribution) (Value, bool), name string) (Value, error) {
	dv, ok := v.(DistributionValue)
	if !ok {
		return nil, josherr.New(josherr.Arithmetic, "%s requires a distribution, got %s", name, v.Type())
	}
	r, err := dv.D.Realize()
	if err != nil {
		return nil, err
	}
	out, ok := reduce(r)
	if !ok {
		return nil, josherr.New(josherr.Arithmetic, "%s could not be computed", name)
	}
	return out, nil
}

func Sum(v Value) (Value, error) {
	return reduceDistribution(v, (*RealizedDistribution).GetSum, "sum")
}

func Mean(v Value) (Value, error) {
	return reduceDistribution(v, (*RealizedDistribution).GetMean, "mean")
}

func Min(v Value) (Value, error) {
	return reduceDistribution(v, (*RealizedDistribution).GetMin, "min")
}

func Max(v Value) (Value, error) {
	return reduceDistribution(v, (*RealizedDistribution).GetMax, "max")
}

func Std(v Value) (Value, error) {
	return reduceDistribution(v, (*RealizedDistribution).GetStd, "std")
}

// elementwiseMath applies a decimal->decimal function to a scalar,
// broadcasting over a distribution.
func elementwiseMath(v Value, fn func(decimal.Decimal) (decimal.Decimal, error)) (Value, error) {
	if dv, ok := v.(DistributionValue); ok {
		return broadcastUnary(dv, func(inner Value) (Value, error) { return elementwiseMath(inner, fn) })
	}
	d, err := AsDecimal(v)
	if err != nil {
		return nil, err
	}
	out, err := fn(d)
	if err != nil {
		return nil, err
	}
	return DecimalValue{V: out, U: v.Units()}, nil
}

func Abs(v Value) (Value, error) {
	return elementwiseMath(v, func(d decimal.Decimal) (decimal.Decimal, error) { return d.Abs(), nil })
}

func Ceil(v Value) (Value, error) {
	return elementwiseMath(v, func(d decimal.Decimal) (decimal.Decimal, error) { return d.Ceil(), nil })
}

func Floor(v Value) (Value, error) {
	return elementwiseMath(v, func(d decimal.Decimal) (decimal.Decimal, error) { return d.Floor(), nil })
}

func Round(v Value) (Value, error) {
	return elementwiseMath(v, func(d decimal.Decimal) (decimal.Decimal, error) { return d.Round(0), nil })
}

func Log10(v Value) (Value, error) {
	return elementwiseMath(v, func(d decimal.Decimal) (decimal.Decimal, error) {
		f, _ := d.Float64()
		if f <= 0 {
			return decimal.Decimal{}, josherr.New(josherr.Arithmetic, "log10 of non-positive value")
		}
		return decimal.NewFromFloat(math.Log10(f)), nil
	})
}

func Ln(v Value) (Value, error) {
	return elementwiseMath(v, func(d decimal.Decimal) (decimal.Decimal, error) {
		f, _ := d.Float64()
		if f <= 0 {
			return decimal.Decimal{}, josherr.New(josherr.Arithmetic, "ln of non-positive value")
		}
		return decimal.NewFromFloat(math.Log(f)), nil
	})
}

// Concat joins two string values.
func Concat(a, b Value) (Value, error) {
	as, ok := a.(StringValue)
	if !ok {
		return nil, josherr.New(josherr.UnitMismatch, "concat requires strings, got %s", a.Type())
	}
	bs, ok := b.(StringValue)
	if !ok {
		return nil, josherr.New(josherr.UnitMismatch, "concat requires strings, got %s", b.Type())
	}
	return StringValue{V: as.V + bs.V}, nil
}

// Slice returns the [lo, hi) elements of a distribution.
func Slice(v Value, lo, hi int) (Value, error) {
	dv, ok := v.(DistributionValue)
	if !ok {
		return nil, josherr.New(josherr.Arithmetic, "slice requires a distribution, got %s", v.Type())
	}
	r, err := dv.D.Realize()
	if err != nil {
		return nil, err
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(r.Values) {
		hi = len(r.Values)
	}
	if lo >= hi {
		return nil, josherr.New(josherr.Arithmetic, "slice bounds [%d:%d] produce an empty distribution", lo, hi)
	}
	rd, err := NewRealizedDistribution(append([]Value(nil), r.Values[lo:hi]...), r.U)
	if err != nil {
		return nil, err
	}
	return DistributionValue{D: rd}, nil
}

// Limit clamps v into [lo, hi], requiring equal units across all three.
func Limit(v, lo, hi Value) (Value, error) {
	if !v.Units().Equal(lo.Units()) || !v.Units().Equal(hi.Units()) {
		return nil, josherr.New(josherr.UnitMismatch, "limit bounds must share units with the value")
	}
	below, err := Compare("<", v, lo)
	if err != nil {
		return nil, err
	}
	if below.(BoolValue).V {
		return lo, nil
	}
	above, err := Compare(">", v, hi)
	if err != nil {
		return nil, err
	}
	if above.(BoolValue).V {
		return hi, nil
	}
	return v, nil
}

// MapLinear maps v from [fromLow, fromHigh] onto [toLow, toHigh]
// linearly. All bounds must share v's units for the source pair, and
// the destination pair defines the result's units.
func MapLinear(v, fromLow, fromHigh, toLow, toHigh Value) (Value, error) {
	if !v.Units().Equal(fromLow.Units()) || !v.Units().Equal(fromHigh.Units()) {
		return nil, josherr.New(josherr.UnitMismatch, "map-linear source bounds must share units with the value")
	}
	vd, err := AsDecimal(v)
	if err != nil {
		return nil, err
	}
	flo, err := AsDecimal(fromLow)
	if err != nil {
		return nil, err
	}
	fhi, err := AsDecimal(fromHigh)
	if err != nil {
		return nil, err
	}
	tlo, err := AsDecimal(toLow)
	if err != nil {
		return nil, err
	}
	thi, err := AsDecimal(toHigh)
	if err != nil {
		return nil, err
	}
	span := fhi.Sub(flo)
	if span.IsZero() {
		return nil, josherr.New(josherr.Arithmetic, "map-linear source range has zero width")
	}
	t := vd.Sub(flo).Div(span)
	result := tlo.Add(t.Mul(thi.Sub(tlo)))
	return DecimalValue{V: result, U: toLow.Units()}, nil
}
