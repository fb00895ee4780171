package values

import (
	"github.com/shopspring/decimal"

	"github.com/schmidtdse/joshsim/internal/josherr"
	"github.com/schmidtdse/joshsim/internal/units"
)

// Distribution is either already realized (a concrete ordered multiset)
// or virtual (a lazily-sampled source, e.g. an ExternalResource query
// or a `sample` expression not yet materialized). Realize forces a
// virtual distribution to a concrete one; it is a no-op on an already
// realized one.
type Distribution interface {
	Units() units.Units
	Realize() (*RealizedDistribution, error)
}

// RealizedDistribution is an ordered multiset of values sharing units.
type RealizedDistribution struct {
	Values []Value
	U      units.Units
}

// NewRealizedDistribution builds a distribution, failing on an empty
// slice per §4.3.
func NewRealizedDistribution(vals []Value, u units.Units) (*RealizedDistribution, error) {
	if len(vals) == 0 {
		return nil, josherr.New(josherr.Arithmetic, "cannot construct an empty distribution")
	}
	return &RealizedDistribution{Values: vals, U: u}, nil
}

func (d *RealizedDistribution) Units() units.Units              { return d.U }
func (d *RealizedDistribution) Realize() (*RealizedDistribution, error) { return d, nil }

// GetContents returns n elements. With replacement, indices cycle (i
// mod len); without replacement, it returns the first min(n, len)
// elements in stable order.
func (d *RealizedDistribution) GetContents(n int, withReplacement bool) []Value {
	if n <= 0 {
		return nil
	}
	if withReplacement {
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			out[i] = d.Values[i%len(d.Values)]
		}
		return out
	}
	limit := n
	if limit > len(d.Values) {
		limit = len(d.Values)
	}
	out := make([]Value, limit)
	copy(out, d.Values[:limit])
	return out
}

func (d *RealizedDistribution) decimals() ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(d.Values))
	for i, v := range d.Values {
		dv, err := AsDecimal(v)
		if err != nil {
			return nil, err
		}
		out[i] = dv
	}
	return out, nil
}

// GetMean returns the arithmetic mean with units preserved, or false
// if the distribution truly cannot be reduced to a scalar (never for
// a non-empty numeric distribution; kept as a bool return to mirror
// the optional-decimal contract in §4.3).
func (d *RealizedDistribution) GetMean() (Value, bool) {
	ds, err := d.decimals()
	if err != nil {
		return nil, false
	}
	sum := decimal.Zero
	for _, v := range ds {
		sum = sum.Add(v)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(ds))))
	return DecimalValue{V: mean, U: d.U}, true
}

// GetSum returns the sum with units preserved.
func (d *RealizedDistribution) GetSum() (Value, bool) {
	ds, err := d.decimals()
	if err != nil {
		return nil, false
	}
	sum := decimal.Zero
	for _, v := range ds {
		sum = sum.Add(v)
	}
	return DecimalValue{V: sum, U: d.U}, true
}

// GetMin returns the minimum element with units preserved.
func (d *RealizedDistribution) GetMin() (Value, bool) {
	ds, err := d.decimals()
	if err != nil {
		return nil, false
	}
	min := ds[0]
	for _, v := range ds[1:] {
		if v.LessThan(min) {
			min = v
		}
	}
	return DecimalValue{V: min, U: d.U}, true
}

// GetMax returns the maximum element with units preserved.
func (d *RealizedDistribution) GetMax() (Value, bool) {
	ds, err := d.decimals()
	if err != nil {
		return nil, false
	}
	max := ds[0]
	for _, v := range ds[1:] {
		if v.GreaterThan(max) {
			max = v
		}
	}
	return DecimalValue{V: max, U: d.U}, true
}

// GetStd returns the population standard deviation with units
// preserved.
func (d *RealizedDistribution) GetStd() (Value, bool) {
	ds, err := d.decimals()
	if err != nil {
		return nil, false
	}
	meanVal, ok := d.GetMean()
	if !ok {
		return nil, false
	}
	mean := meanVal.(DecimalValue).V
	sumSq := decimal.Zero
	for _, v := range ds {
		diff := v.Sub(mean)
		sumSq = sumSq.Add(diff.Mul(diff))
	}
	variance := sumSq.Div(decimal.NewFromInt(int64(len(ds))))
	std, _ := bigSqrt(variance)
	return DecimalValue{V: std, U: d.U}, true
}

// bigSqrt computes a decimal square root via Newton's method, since
// shopspring/decimal has no built-in Sqrt in the version used here.
func bigSqrt(x decimal.Decimal) (decimal.Decimal, error) {
	if x.IsZero() {
		return decimal.Zero, nil
	}
	if x.IsNegative() {
		return decimal.Decimal{}, josherr.New(josherr.Arithmetic, "cannot take square root of a negative number")
	}
	guess := x
	two := decimal.NewFromInt(2)
	for i := 0; i < 50; i++ {
		next := guess.Add(x.Div(guess)).Div(two)
		if next.Sub(guess).Abs().LessThan(decimal.New(1, -12)) {
			return next, nil
		}
		guess = next
	}
	return guess, nil
}

// VirtualDistribution wraps a lazy sampling source (ExternalResource
// query, unmaterialized `sample` expression) that is only materialized
// when demanded.
type VirtualDistribution struct {
	U      units.Units
	Sample func() (*RealizedDistribution, error)
}

func (v VirtualDistribution) Units() units.Units { return v.U }
func (v VirtualDistribution) Realize() (*RealizedDistribution, error) { return v.Sample() }
