package runtime

import (
	"context"
	"testing"

	"go.uber.org/goleak"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmidtdse/joshsim/internal/compiler"
	"github.com/schmidtdse/joshsim/internal/lang"
	"github.com/schmidtdse/joshsim/internal/values"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type noopConfig struct{}

func (noopConfig) Get(name string) (values.Value, bool) { return nil, false }

func compileSource(t *testing.T, src string) *compiler.Program {
	t.Helper()
	prog, err := lang.Parse(src)
	require.NoError(t, err)
	compiled, err := compiler.Compile(prog)
	require.NoError(t, err)
	return compiled
}

func TestCounterAfterFiveSteps(t *testing.T) {
	src := `
start simulation Main:
end simulation

start patch Grid:
end patch

start organism Tree:
  age.init = 0 year
  age.step = prior.age + 1 year
end organism
`
	compiled := compileSource(t, src)
	sim, err := NewSimulation(context.Background(), compiled, "Main", "Grid", GridSpec{Width: 1, Height: 1}, noopConfig{}, nil, 42)
	require.NoError(t, err)
	require.NoError(t, sim.SeedAgents("Tree", 1))

	require.NoError(t, sim.Run(context.Background(), 0, 5, 1, nil))

	tree := sim.Patches[0].members[0]
	age, err := tree.readPrior("age")
	require.NoError(t, err)
	assert.Equal(t, int64(5), age.(values.IntValue).V)
}

func TestPriorCarryForward(t *testing.T) {
	src := `
start simulation Main:
end simulation

start patch Grid:
end patch

start organism Rock:
  weight.init = 10 kg
end organism
`
	compiled := compileSource(t, src)
	sim, err := NewSimulation(context.Background(), compiled, "Main", "Grid", GridSpec{Width: 1, Height: 1}, noopConfig{}, nil, 1)
	require.NoError(t, err)
	require.NoError(t, sim.SeedAgents("Rock", 1))

	require.NoError(t, sim.Run(context.Background(), 0, 3, 1, nil))

	rock := sim.Patches[0].members[0]
	weight, err := rock.readPrior("weight")
	require.NoError(t, err)
	assert.Equal(t, int64(10), weight.(values.IntValue).V)
}

func TestCyclicDependencyFails(t *testing.T) {
	src := `
start simulation Main:
end simulation

start patch Grid:
end patch

start organism Pair:
  a.step = current.b + 1
  b.step = current.a + 1
end organism
`
	compiled := compileSource(t, src)
	sim, err := NewSimulation(context.Background(), compiled, "Main", "Grid", GridSpec{Width: 1, Height: 1}, noopConfig{}, nil, 1)
	require.NoError(t, err)
	require.NoError(t, sim.SeedAgents("Pair", 1))

	err = sim.Run(context.Background(), 0, 1, 1, nil)
	assert.Error(t, err)
}

func TestBareRemoveHandlerRemovesEntity(t *testing.T) {
	src := `
start simulation Main:
end simulation

start patch Grid:
end patch

start organism Bug:
  age.init = 0 year
  age.step = prior.age + 1 year
  remove = age > 2 year
end organism
`
	compiled := compileSource(t, src)
	sim, err := NewSimulation(context.Background(), compiled, "Main", "Grid", GridSpec{Width: 1, Height: 1}, noopConfig{}, nil, 1)
	require.NoError(t, err)
	require.NoError(t, sim.SeedAgents("Bug", 1))
	require.Len(t, sim.Patches[0].members, 1)

	require.NoError(t, sim.Run(context.Background(), 0, 3, 1, nil))

	assert.Empty(t, sim.Patches[0].members)
}

func TestConditionalStateHandlerSelection(t *testing.T) {
	src := `
start simulation Main:
end simulation

start patch Grid:
end patch

start organism Tree:
  age.init = 3 year
  age.step = prior.age
  height.step:
    if age > 2 year -> 5 m
    else -> 1 m
end organism
`
	compiled := compileSource(t, src)
	sim, err := NewSimulation(context.Background(), compiled, "Main", "Grid", GridSpec{Width: 1, Height: 1}, noopConfig{}, nil, 1)
	require.NoError(t, err)
	require.NoError(t, sim.SeedAgents("Tree", 1))

	require.NoError(t, sim.Run(context.Background(), 0, 1, 1, nil))

	tree := sim.Patches[0].members[0]
	height, err := tree.readPrior("height")
	require.NoError(t, err)
	assert.Equal(t, int64(5), height.(values.IntValue).V)
}
