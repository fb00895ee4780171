package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventKeyParsingSuffix(t *testing.T) {
	attr, event := decodeHandlerName("a.b.c.step")
	assert.Equal(t, "a.b.c", attr)
	assert.Equal(t, "step", event)
}

func TestEventKeyParsingNoSuffix(t *testing.T) {
	attr, event := decodeHandlerName("a.b.c")
	assert.Equal(t, "a.b.c", attr)
	assert.Equal(t, "constant", event)
}

func TestParseCounterAgent(t *testing.T) {
	src := `
start organism Tree:
  age.init = 0 year
  age.step = prior.age + 1 year
end organism
`
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Entities, 1)
	ent := prog.Entities[0]
	assert.Equal(t, "organism", ent.Kind)
	assert.Equal(t, "Tree", ent.Name)
	require.Len(t, ent.Handlers, 2)
	assert.Equal(t, "age", ent.Handlers[0].Attribute)
	assert.Equal(t, "init", ent.Handlers[0].Event)
	assert.Equal(t, "age", ent.Handlers[1].Attribute)
	assert.Equal(t, "step", ent.Handlers[1].Event)

	add, ok := ent.Handlers[1].Branches[0].Body.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", add.Op)
	access, ok := add.Left.(*AttributeAccessExpr)
	require.True(t, ok)
	assert.Equal(t, "prior", access.Scope)
	assert.Equal(t, []string{"age"}, access.Path)
}

func TestParseConditionalHandlerGroup(t *testing.T) {
	src := `
start organism Tree:
  height:
    if age > 10 year -> 5 m
    else -> 1 m
end organism
`
	prog, err := Parse(src)
	require.NoError(t, err)
	hg := prog.Entities[0].Handlers[0]
	assert.Equal(t, "height", hg.Attribute)
	assert.Equal(t, "constant", hg.Event)
	require.Len(t, hg.Branches, 2)
	assert.NotNil(t, hg.Branches[0].Cond)
	assert.Nil(t, hg.Branches[1].Cond)
}

func TestParseUnitStanza(t *testing.T) {
	src := `
unit km:
  m = X * 1000
end unit
`
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Units, 1)
	assert.Equal(t, "km", prog.Units[0].Name)
	assert.Equal(t, "m", prog.Units[0].Conversions[0].Target)
}

func TestParseConfigWithDefault(t *testing.T) {
	src := `
start organism Tree:
  height.init = config foo else 5 m
end organism
`
	prog, err := Parse(src)
	require.NoError(t, err)
	hg := prog.Entities[0].Handlers[0]
	cfg, ok := hg.Branches[0].Body.(*ConfigExpr)
	require.True(t, ok)
	assert.Equal(t, "foo", cfg.Name)
	require.NotNil(t, cfg.Default)
}

func TestParseStateStanza(t *testing.T) {
	src := `
start organism Tree:
  start state Dormant:
    growth.step = 0 m
  end state
end organism
`
	prog, err := Parse(src)
	require.NoError(t, err)
	ent := prog.Entities[0]
	require.Len(t, ent.States, 1)
	assert.Equal(t, "Dormant", ent.States[0].Name)
	assert.Equal(t, "growth", ent.States[0].Handlers[0].Attribute)
}

func TestReservedWordAsEntityNameFails(t *testing.T) {
	src := `
start organism state:
end organism
`
	_, err := Parse(src)
	assert.Error(t, err)
}

func TestParseSpatialQuery(t *testing.T) {
	src := `
start organism Tree:
  neighbors.step = Tree within 5 m of here
end organism
`
	prog, err := Parse(src)
	require.NoError(t, err)
	within, ok := prog.Entities[0].Handlers[0].Branches[0].Body.(*WithinExpr)
	require.True(t, ok)
	assert.Equal(t, "Tree", within.EntityKind)
	assert.Equal(t, "m", within.RadiusUnit)
}

func TestParseLimitExpr(t *testing.T) {
	src := `
start organism Tree:
  height.step = limit height to [0 m, 100 m]
end organism
`
	prog, err := Parse(src)
	require.NoError(t, err)
	limit, ok := prog.Entities[0].Handlers[0].Branches[0].Body.(*LimitExpr)
	require.True(t, ok)
	assert.NotNil(t, limit.Low)
	assert.NotNil(t, limit.High)
}
