package values

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmidtdse/joshsim/internal/units"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestUnitMultiply(t *testing.T) {
	m := units.Atom("m")
	s := units.Atom("s")
	a := DecimalValue{V: dec("10.5"), U: m}
	b := DecimalValue{V: dec("2.0"), U: s}

	result, err := Multiply(a, b)
	require.NoError(t, err)
	dr := result.(DecimalValue)
	assert.True(t, dr.V.Equal(dec("21.00")))
	assert.True(t, dr.U.Equal(m.Multiply(s)))
}

func TestIntegerPower(t *testing.T) {
	m := units.Atom("m")
	base := IntValue{V: 2, U: m}
	exp := IntValue{V: 3, U: units.EMPTY}

	result, err := Pow(base, exp)
	require.NoError(t, err)
	dr := result.(DecimalValue)
	assert.True(t, dr.V.Equal(dec("8")))
	m3, _ := m.RaiseToPower(3)
	assert.True(t, dr.U.Equal(m3))
}

func TestPowerNonIntegerExponentOnUnitBaseFails(t *testing.T) {
	m := units.Atom("m")
	base := IntValue{V: 2, U: m}
	exp := DecimalValue{V: dec("1.5"), U: units.EMPTY}

	_, err := Pow(base, exp)
	assert.Error(t, err)
}

func TestDivisionUnits(t *testing.T) {
	m := units.Atom("m")
	s := units.Atom("s")
	a := IntValue{V: 10, U: m}
	b := IntValue{V: 2, U: s}

	result, err := Divide(a, b)
	require.NoError(t, err)
	ir := result.(IntValue)
	assert.Equal(t, int64(5), ir.V)
	assert.True(t, ir.U.Equal(m.Divide(s)))
}

func TestDivisionByZeroFails(t *testing.T) {
	a := IntValue{V: 10, U: units.EMPTY}
	b := IntValue{V: 0, U: units.EMPTY}
	_, err := Divide(a, b)
	assert.Error(t, err)
}

func TestIntegerDivisionTruncatesTowardZero(t *testing.T) {
	a := IntValue{V: -7, U: units.EMPTY}
	b := IntValue{V: 2, U: units.EMPTY}
	result, err := Divide(a, b)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), result.(IntValue).V)
}

func TestWideningSymmetry(t *testing.T) {
	m := units.Atom("m")
	i := IntValue{V: 3, U: m}
	d := DecimalValue{V: dec("2.5"), U: m}

	lhs, err := Add(i, d)
	require.NoError(t, err)
	rhs, err := Add(d, i)
	require.NoError(t, err)

	assert.True(t, lhs.(DecimalValue).V.Equal(rhs.(DecimalValue).V))
	assert.True(t, lhs.(DecimalValue).U.Equal(rhs.(DecimalValue).U))
}

func TestDistributionBroadcastAndMean(t *testing.T) {
	m := units.Atom("m")
	vals := []Value{
		IntValue{V: 1, U: m}, IntValue{V: 2, U: m}, IntValue{V: 3, U: m},
		IntValue{V: 4, U: m}, IntValue{V: 5, U: m},
	}
	rd, err := NewRealizedDistribution(vals, m)
	require.NoError(t, err)

	result, err := Add(DistributionValue{D: rd}, IntValue{V: 10, U: m})
	require.NoError(t, err)
	resultDist := result.(DistributionValue).D.(*RealizedDistribution)
	want := []int64{11, 12, 13, 14, 15}
	for i, v := range resultDist.Values {
		assert.Equal(t, want[i], v.(IntValue).V)
	}

	meanInput, err := NewRealizedDistribution(vals, m)
	require.NoError(t, err)
	mean, err := Mean(DistributionValue{D: meanInput})
	require.NoError(t, err)
	assert.True(t, mean.(DecimalValue).V.Equal(dec("3.0")))
}

func TestDistributionUnequalLengthFails(t *testing.T) {
	m := units.Atom("m")
	a, _ := NewRealizedDistribution([]Value{IntValue{V: 1, U: m}}, m)
	b, _ := NewRealizedDistribution([]Value{IntValue{V: 1, U: m}, IntValue{V: 2, U: m}}, m)
	_, err := Add(DistributionValue{D: a}, DistributionValue{D: b})
	assert.Error(t, err)
}

func TestEmptyDistributionConstructionFails(t *testing.T) {
	_, err := NewRealizedDistribution(nil, units.EMPTY)
	assert.Error(t, err)
}

func TestGetContentsWithAndWithoutReplacement(t *testing.T) {
	m := units.Atom("m")
	vals := []Value{IntValue{V: 1, U: m}, IntValue{V: 2, U: m}, IntValue{V: 3, U: m}}
	rd, err := NewRealizedDistribution(vals, m)
	require.NoError(t, err)

	withRepl := rd.GetContents(5, true)
	assert.Len(t, withRepl, 5)
	assert.Equal(t, int64(1), withRepl[3].(IntValue).V) // index 3 mod 3 == 0

	without := rd.GetContents(5, false)
	assert.Len(t, without, 3)
}

func TestCanBePower(t *testing.T) {
	assert.True(t, CanBePower(IntValue{V: 2, U: units.EMPTY}))
	assert.True(t, CanBePower(DecimalValue{V: dec("3"), U: units.EMPTY}))
	assert.False(t, CanBePower(DecimalValue{V: dec("3.5"), U: units.EMPTY}))
	assert.False(t, CanBePower(IntValue{V: 2, U: units.Atom("m")}))
}
