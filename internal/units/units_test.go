package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitAlgebraInvariants(t *testing.T) {
	m := Atom("m")
	s := Atom("s")

	// u.multiply(u.invert()).simplify() == EMPTY
	assert.True(t, m.Multiply(m.Invert()).IsEmpty())

	// invert(invert(u)) == u
	assert.True(t, m.Invert().Invert().Equal(m))

	// multiply is commutative
	a := m.Multiply(s)
	b := s.Multiply(m)
	assert.True(t, a.Equal(b))

	// multiply is associative
	mps := Atom("m").Divide(Atom("s"))
	lhs := mps.Multiply(s).Multiply(m)
	rhs := mps.Multiply(s.Multiply(m))
	assert.True(t, lhs.Equal(rhs))
}

func TestUnitsSimplifyCancelsSharedAtoms(t *testing.T) {
	m := Atom("m")
	u := m.Multiply(m.Invert())
	assert.Empty(t, u.num)
	assert.Empty(t, u.den)
}

func TestUnitsStringCanonicalForm(t *testing.T) {
	m := Atom("m")
	s := Atom("s")
	assert.Equal(t, "m", m.String())
	assert.Equal(t, "m / s", m.Divide(s).String())
	assert.Equal(t, "", EMPTY.String())
}

func TestParseUnitExpression(t *testing.T) {
	u, err := Parse("m * m / s")
	require.NoError(t, err)
	assert.Equal(t, "m * m / s", u.String())

	_, err = Parse("m / s / s")
	assert.Error(t, err)
}

func TestConverterNoop(t *testing.T) {
	c := NewBuilder().Build()
	conv, err := c.GetConversion(Atom("m"), Atom("m"))
	require.NoError(t, err)
	v, err := conv.Apply(5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)
	assert.True(t, conv.Source().Equal(conv.Destination()))
}

func TestConverterTransitive(t *testing.T) {
	// km -> m and m -> cm declared; km -> cm must compose transitively.
	b := NewBuilder()
	km, m, cm := Atom("km"), Atom("m"), Atom("cm")
	b.AddConversion(km, m, func(v float64) (float64, error) { return v * 1000, nil })
	b.AddConversion(m, cm, func(v float64) (float64, error) { return v * 100, nil })
	c := b.Build()

	conv, err := c.GetConversion(km, cm)
	require.NoError(t, err)
	assert.True(t, conv.Source().Equal(km))
	assert.True(t, conv.Destination().Equal(cm))

	v, err := conv.Apply(1)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, v)
}

func TestConverterUnreachable(t *testing.T) {
	c := NewBuilder().Build()
	_, err := c.GetConversion(Atom("m"), Atom("kg"))
	assert.Error(t, err)
}

func TestSeedBuiltinsKmToCm(t *testing.T) {
	b := NewBuilder()
	SeedBuiltins(b)
	c := b.Build()
	conv, err := c.GetConversion(Atom("km"), Atom("cm"))
	require.NoError(t, err)
	v, err := conv.Apply(1)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, v)
}
