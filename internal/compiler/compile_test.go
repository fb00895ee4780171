package compiler

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmidtdse/joshsim/internal/lang"
	"github.com/schmidtdse/joshsim/internal/units"
	"github.com/schmidtdse/joshsim/internal/values"
)

// fakeResolver stands in for the runtime scheduler in isolated
// compiler tests: it answers prior/bare attributes and
// here.<Collection>.<attr> from fixed maps, and returns nil for
// everything else.
type fakeResolver struct {
	prior      map[string]values.Value
	collection map[string]values.Value
}

func (f fakeResolver) ResolveAttribute(scope string, path []string) (values.Value, error) {
	if (scope == "prior" || scope == "") && len(path) == 1 {
		return f.prior[path[0]], nil
	}
	if scope == "here" && len(path) == 2 {
		return f.collection[path[0]+"."+path[1]], nil
	}
	return nil, nil
}
func (f fakeResolver) ResolveConfig(name string, hasDefault bool) (values.Value, bool, error) {
	return nil, false, nil
}
func (f fakeResolver) ResolveExternal(name string, at values.Value) (values.Value, error) {
	return nil, nil
}
func (f fakeResolver) CreateEntity(kind string, count int64, position values.Value) error { return nil }
func (f fakeResolver) SpatialQuery(kind string, radius values.Value) (values.Value, error) {
	return nil, nil
}
func (f fakeResolver) Converter() values.Converter { return nil }
func (f fakeResolver) RandomUniform() float64      { return 0.5 }
func (f fakeResolver) RandomNormal() float64       { return 0 }

func TestCompileCounterStepHandler(t *testing.T) {
	src := `
start organism Tree:
  age.init = 0 year
  age.step = prior.age + 1 year
end organism
`
	prog, err := lang.Parse(src)
	require.NoError(t, err)
	compiled, err := Compile(prog)
	require.NoError(t, err)

	proto := compiled.Prototypes["Tree"]
	group, ok := proto.LookupHandlerGroup("", "age", "step")
	require.True(t, ok)
	require.Len(t, group.Handlers, 1)

	m := NewMachine()
	resolver := fakeResolver{prior: map[string]values.Value{"age": values.IntValue{V: 4, U: units.Atom("year")}}}
	require.NoError(t, group.Handlers[0].Body(m, resolver))
	result, err := m.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.(values.IntValue).V)
}

func TestCompileConditionalHandlerSelection(t *testing.T) {
	src := `
start organism Tree:
  height:
    if age > 10 year -> 5 m
    else -> 1 m
end organism
`
	prog, err := lang.Parse(src)
	require.NoError(t, err)
	compiled, err := Compile(prog)
	require.NoError(t, err)

	proto := compiled.Prototypes["Tree"]
	group, ok := proto.LookupHandlerGroup("", "height", "constant")
	require.True(t, ok)
	require.Len(t, group.Handlers, 2)

	m := NewMachine()
	resolver := fakeResolver{prior: map[string]values.Value{"age": values.IntValue{V: 4, U: units.Atom("year")}}}
	require.NoError(t, group.Handlers[0].Selector(m, resolver))
	sel, err := m.Pop()
	require.NoError(t, err)
	assert.False(t, sel.(values.BoolValue).V)
}

func TestCompileSampleUniformAndNormal(t *testing.T) {
	src := `
start organism Bug:
  roll.step = sample 1 uniform from here.Bug.age
  drift.step = sample 1 normal from here.Bug.age
end organism
`
	prog, err := lang.Parse(src)
	require.NoError(t, err)
	compiled, err := Compile(prog)
	require.NoError(t, err)

	dist, err := values.NewRealizedDistribution([]values.Value{
		values.IntValue{V: 0, U: units.Atom("year")},
		values.IntValue{V: 10, U: units.Atom("year")},
	}, units.Atom("year"))
	require.NoError(t, err)
	resolver := fakeResolver{collection: map[string]values.Value{
		"Bug.age": values.DistributionValue{D: dist},
	}}

	proto := compiled.Prototypes["Bug"]

	rollGroup, ok := proto.LookupHandlerGroup("", "roll", "step")
	require.True(t, ok)
	m := NewMachine()
	require.NoError(t, rollGroup.Handlers[0].Body(m, resolver))
	rollResult, err := m.Result()
	require.NoError(t, err)
	rollDist := rollResult.(values.DistributionValue).D.(*values.RealizedDistribution)
	require.Len(t, rollDist.Values, 1)
	rollDec, err := values.AsDecimal(rollDist.Values[0])
	require.NoError(t, err)
	assert.True(t, rollDec.GreaterThanOrEqual(decimal.NewFromInt(0)))
	assert.True(t, rollDec.LessThanOrEqual(decimal.NewFromInt(10)))

	driftGroup, ok := proto.LookupHandlerGroup("", "drift", "step")
	require.True(t, ok)
	m = NewMachine()
	require.NoError(t, driftGroup.Handlers[0].Body(m, resolver))
	driftResult, err := m.Result()
	require.NoError(t, err)
	driftDist := driftResult.(values.DistributionValue).D.(*values.RealizedDistribution)
	require.Len(t, driftDist.Values, 1)
	assert.Equal(t, units.Atom("year"), driftDist.Values[0].Units())
}

func TestHasNoHandlerBitset(t *testing.T) {
	src := `
start organism Tree:
  age.init = 0 year
end organism
`
	prog, err := lang.Parse(src)
	require.NoError(t, err)
	compiled, err := Compile(prog)
	require.NoError(t, err)

	proto := compiled.Prototypes["Tree"]
	assert.False(t, proto.HasNoHandler("init", "age"))
	assert.True(t, proto.HasNoHandler("step", "age"))
}
