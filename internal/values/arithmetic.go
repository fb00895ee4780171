package values

import (
	"github.com/shopspring/decimal"

	"github.com/schmidtdse/joshsim/internal/josherr"
)

// widen reconciles two scalar (non-distribution) values into the same
// representation, per the §3/§8.3 widening caster: Int widens to
// Decimal whenever the other operand is Decimal; two Ints stay Int.
// Returns an error for any non-numeric operand.
func widen(a, b Value) (aw, bw Value, err error) {
	ai, aIsInt := a.(IntValue)
	bi, bIsInt := b.(IntValue)
	if aIsInt && bIsInt {
		return ai, bi, nil
	}

	ad, err := AsDecimal(a)
	if err != nil {
		return nil, nil, err
	}
	bd, err := AsDecimal(b)
	if err != nil {
		return nil, nil, err
	}
	return DecimalValue{V: ad, U: a.Units()}, DecimalValue{V: bd, U: b.Units()}, nil
}

// Add implements + per §3/§8.3: equal units required (after any
// conversion the caller has already attempted), Int+Int stays Int,
// any Decimal operand widens both sides, distributions broadcast.
func Add(a, b Value) (Value, error) {
	if d, ok, err := broadcastBinary(a, b, Add); ok || err != nil {
		return d, err
	}
	if !a.Units().Equal(b.Units()) {
		return nil, josherr.New(josherr.UnitMismatch, "cannot add %s and %s: unit mismatch", a.Units(), b.Units())
	}
	aw, bw, err := widen(a, b)
	if err != nil {
		return nil, err
	}
	if ai, ok := aw.(IntValue); ok {
		bi := bw.(IntValue)
		return IntValue{V: ai.V + bi.V, U: ai.U}, nil
	}
	ad, bd := aw.(DecimalValue), bw.(DecimalValue)
	return DecimalValue{V: ad.V.Add(bd.V), U: ad.U}, nil
}

// Subtract implements - symmetrically to Add.
func Subtract(a, b Value) (Value, error) {
	if d, ok, err := broadcastBinary(a, b, Subtract); ok || err != nil {
		return d, err
	}
	if !a.Units().Equal(b.Units()) {
		return nil, josherr.New(josherr.UnitMismatch, "cannot subtract %s and %s: unit mismatch", a.Units(), b.Units())
	}
	aw, bw, err := widen(a, b)
	if err != nil {
		return nil, err
	}
	if ai, ok := aw.(IntValue); ok {
		bi := bw.(IntValue)
		return IntValue{V: ai.V - bi.V, U: ai.U}, nil
	}
	ad, bd := aw.(DecimalValue), bw.(DecimalValue)
	return DecimalValue{V: ad.V.Sub(bd.V), U: ad.U}, nil
}

// Multiply implements * per §3: units combine algebraically, no
// equality requirement.
func Multiply(a, b Value) (Value, error) {
	if d, ok, err := broadcastBinary(a, b, Multiply); ok || err != nil {
		return d, err
	}
	aw, bw, err := widen(a, b)
	if err != nil {
		return nil, err
	}
	u := a.Units().Multiply(b.Units())
	if ai, ok := aw.(IntValue); ok {
		bi := bw.(IntValue)
		return IntValue{V: ai.V * bi.V, U: u}, nil
	}
	ad, bd := aw.(DecimalValue), bw.(DecimalValue)
	return DecimalValue{V: ad.V.Mul(bd.V), U: u}, nil
}

// Divide implements / per §3: units divide algebraically; integer
// division truncates toward zero; division by zero fails.
func Divide(a, b Value) (Value, error) {
	if d, ok, err := broadcastBinary(a, b, Divide); ok || err != nil {
		return d, err
	}
	aw, bw, err := widen(a, b)
	if err != nil {
		return nil, err
	}
	u := a.Units().Divide(b.Units())
	if ai, ok := aw.(IntValue); ok {
		bi := bw.(IntValue)
		if bi.V == 0 {
			return nil, josherr.New(josherr.Arithmetic, "division by zero")
		}
		// Go's integer division already truncates toward zero.
		return IntValue{V: ai.V / bi.V, U: u}, nil
	}
	ad, bd := aw.(DecimalValue), bw.(DecimalValue)
	if bd.V.IsZero() {
		return nil, josherr.New(josherr.Arithmetic, "division by zero")
	}
	return DecimalValue{V: ad.V.Div(bd.V), U: u}, nil
}

// Pow implements ^ per §3/§8.4: exponent must be dimensionless, and
// either an integer or decimal-with-integer-value; a non-integer
// exponent on a unit-bearing base fails.
func Pow(base, exp Value) (Value, error) {
	if d, ok := base.(DistributionValue); ok {
		return broadcastUnary(d, func(v Value) (Value, error) { return Pow(v, exp) })
	}

	if !CanBePower(exp) {
		if !base.Units().IsEmpty() {
			return nil, josherr.New(josherr.UnitMismatch, "exponent must be a dimensionless integer for a unit-bearing base")
		}
		return nil, josherr.New(josherr.UnitMismatch, "exponent must be a dimensionless integer or integer-valued decimal")
	}
	n, err := AsIntExponent(exp)
	if err != nil {
		return nil, err
	}
	u, err := base.Units().RaiseToPower(n)
	if err != nil {
		return nil, err
	}

	bd, err := AsDecimal(base)
	if err != nil {
		return nil, err
	}
	result := decimal.NewFromInt(1)
	abs := n
	if abs < 0 {
		abs = -abs
	}
	for i := 0; i < abs; i++ {
		result = result.Mul(bd)
	}
	if n < 0 {
		if result.IsZero() {
			return nil, josherr.New(josherr.Arithmetic, "division by zero raising to negative power")
		}
		result = decimal.NewFromInt(1).Div(result)
	}
	return DecimalValue{V: result, U: u}, nil
}

// broadcastBinary handles the distribution-involving cases of a
// binary operator: scalar⊕distribution, distribution⊕scalar, and
// distribution⊕distribution (pointwise, equal length required). ok is
// false when neither operand is a distribution, signalling the caller
// to fall through to scalar handling.
func broadcastBinary(a, b Value, op func(Value, Value) (Value, error)) (Value, bool, error) {
	ad, aIsDist := a.(DistributionValue)
	bd, bIsDist := b.(DistributionValue)

	switch {
	case aIsDist && bIsDist:
		ar, err := ad.D.Realize()
		if err != nil {
			return nil, true, err
		}
		br, err := bd.D.Realize()
		if err != nil {
			return nil, true, err
		}
		if len(ar.Values) != len(br.Values) {
			return nil, true, josherr.New(josherr.Arithmetic, "distributions of unequal length cannot combine pointwise: %d vs %d", len(ar.Values), len(br.Values))
		}
		out := make([]Value, len(ar.Values))
		for i := range ar.Values {
			v, err := op(ar.Values[i], br.Values[i])
			if err != nil {
				return nil, true, err
			}
			out[i] = v
		}
		rd, err := NewRealizedDistribution(out, out[0].Units())
		if err != nil {
			return nil, true, err
		}
		return DistributionValue{D: rd}, true, nil

	case aIsDist:
		ar, err := ad.D.Realize()
		if err != nil {
			return nil, true, err
		}
		out := make([]Value, len(ar.Values))
		for i, v := range ar.Values {
			r, err := op(v, b)
			if err != nil {
				return nil, true, err
			}
			out[i] = r
		}
		rd, err := NewRealizedDistribution(out, out[0].Units())
		if err != nil {
			return nil, true, err
		}
		return DistributionValue{D: rd}, true, nil

	case bIsDist:
		br, err := bd.D.Realize()
		if err != nil {
			return nil, true, err
		}
		out := make([]Value, len(br.Values))
		for i, v := range br.Values {
			r, err := op(a, v)
			if err != nil {
				return nil, true, err
			}
			out[i] = r
		}
		rd, err := NewRealizedDistribution(out, out[0].Units())
		if err != nil {
			return nil, true, err
		}
		return DistributionValue{D: rd}, true, nil

	default:
		return nil, false, nil
	}
}

// broadcastUnary maps a unary operator over a distribution.
func broadcastUnary(dv DistributionValue, op func(Value) (Value, error)) (Value, error) {
	r, err := dv.D.Realize()
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(r.Values))
	for i, v := range r.Values {
		o, err := op(v)
		if err != nil {
			return nil, err
		}
		out[i] = o
	}
	rd, err := NewRealizedDistribution(out, out[0].Units())
	if err != nil {
		return nil, err
	}
	return DistributionValue{D: rd}, nil
}

// Compare implements ==, !=, <, >, <=, >= between two scalar values.
// Strings and bools compare only for (in)equality; numeric comparisons
// require equal units.
func Compare(op string, a, b Value) (Value, error) {
	switch at := a.(type) {
	case StringValue:
		bt, ok := b.(StringValue)
		if !ok {
			return nil, josherr.New(josherr.UnitMismatch, "cannot compare string to %s", b.Type())
		}
		return compareOrdered(op, stringCmp(at.V, bt.V))
	case BoolValue:
		bt, ok := b.(BoolValue)
		if !ok {
			return nil, josherr.New(josherr.UnitMismatch, "cannot compare boolean to %s", b.Type())
		}
		if op != "==" && op != "!=" {
			return nil, josherr.New(josherr.UnitMismatch, "booleans only support == and !=")
		}
		eq := at.V == bt.V
		if op == "!=" {
			eq = !eq
		}
		return BoolValue{V: eq}, nil
	default:
		if !a.Units().Equal(b.Units()) {
			return nil, josherr.New(josherr.UnitMismatch, "cannot compare %s and %s: unit mismatch", a.Units(), b.Units())
		}
		ad, err := AsDecimal(a)
		if err != nil {
			return nil, err
		}
		bd, err := AsDecimal(b)
		if err != nil {
			return nil, err
		}
		return compareOrdered(op, ad.Cmp(bd))
	}
}

func stringCmp(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareOrdered(op string, cmp int) (Value, error) {
	var result bool
	switch op {
	case "==":
		result = cmp == 0
	case "!=":
		result = cmp != 0
	case "<":
		result = cmp < 0
	case ">":
		result = cmp > 0
	case "<=":
		result = cmp <= 0
	case ">=":
		result = cmp >= 0
	default:
		return nil, josherr.New(josherr.ParseError, "unknown comparison operator %q", op)
	}
	return BoolValue{V: result}, nil
}

// BoolOp implements and/or/xor between two boolean values.
func BoolOp(op string, a, b Value) (Value, error) {
	at, ok := a.(BoolValue)
	if !ok {
		return nil, josherr.New(josherr.UnitMismatch, "%s operand must be boolean, got %s", op, a.Type())
	}
	bt, ok := b.(BoolValue)
	if !ok {
		return nil, josherr.New(josherr.UnitMismatch, "%s operand must be boolean, got %s", op, b.Type())
	}
	switch op {
	case "and":
		return BoolValue{V: at.V && bt.V}, nil
	case "or":
		return BoolValue{V: at.V || bt.V}, nil
	case "xor":
		return BoolValue{V: at.V != bt.V}, nil
	default:
		return nil, josherr.New(josherr.ParseError, "unknown boolean operator %q", op)
	}
}
