package runtime

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmidtdse/joshsim/internal/units"
	"github.com/schmidtdse/joshsim/internal/values"
)

// twoPointExternal backs `external[spread]` with a fixed two-value
// distribution, giving `sample ... uniform`/`sample ... normal` a
// non-degenerate span without depending on entity seeding order.
type twoPointExternal struct{}

func (twoPointExternal) DistributionFor(geometry Geometry, time *float64) (values.Value, error) {
	lo := values.DecimalValue{V: decimal.NewFromInt(0), U: units.Atom("year")}
	hi := values.DecimalValue{V: decimal.NewFromInt(100), U: units.Atom("year")}
	rd, err := values.NewRealizedDistribution([]values.Value{lo, hi}, units.Atom("year"))
	if err != nil {
		return nil, err
	}
	return values.DistributionValue{D: rd}, nil
}

// runDrawScript runs a script sampling uniformly from a non-degenerate
// external distribution across a multi-patch grid for five steps,
// under the given thread count, and returns every patch's surviving
// Bug's final "roll" attribute.
func runDrawScript(t *testing.T, threads int, seed int64) []string {
	t.Helper()
	src := `
start simulation Main:
end simulation

start patch Grid:
end patch

start organism Bug:
  roll.init = sample 1 uniform from external[spread]
  roll.step = sample 1 uniform from external[spread]
end organism
`
	compiled := compileSource(t, src)
	ext := map[string]ExternalResource{"spread": twoPointExternal{}}
	sim, err := NewSimulation(context.Background(), compiled, "Main", "Grid", GridSpec{Width: 3, Height: 3}, noopConfig{}, ext, seed)
	require.NoError(t, err)
	require.NoError(t, sim.SeedAgents("Bug", 1))

	require.NoError(t, sim.Run(context.Background(), 0, 5, threads, nil))

	out := make([]string, 0, len(sim.Patches))
	for _, patch := range sim.Patches {
		require.Len(t, patch.members, 1)
		roll, err := patch.members[0].readPrior("roll")
		require.NoError(t, err)
		out = append(out, roll.String())
	}
	return out
}

// TestStepDeterminismAcrossThreadCounts implements §8.6: a run's
// per-patch RNG draws depend only on (base_seed, step, patch_index),
// so results must be byte-identical whether RunStep (threads<=1) or
// RunStepConcurrent (threads>1) drove the schedule.
func TestStepDeterminismAcrossThreadCounts(t *testing.T) {
	single := runDrawScript(t, 1, 7)
	concurrent := runDrawScript(t, 4, 7)
	assert.Equal(t, single, concurrent)

	// Sanity check the source distribution is actually non-degenerate:
	// a different seed should produce different draws, or this test
	// would pass even with no reseeding at all.
	otherSeed := runDrawScript(t, 1, 99)
	assert.NotEqual(t, single, otherSeed)
}

// TestRunStepConcurrentMatchesSequentialCounter exercises
// RunStepConcurrent directly against a grid wide enough to shard
// across goroutines, checked against the single-threaded scheduler on
// a script with no randomness at all.
func TestRunStepConcurrentMatchesSequentialCounter(t *testing.T) {
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

	seqSim, err := NewSimulation(context.Background(), compiled, "Main", "Grid", GridSpec{Width: 2, Height: 2}, noopConfig{}, nil, 3)
	require.NoError(t, err)
	require.NoError(t, seqSim.SeedAgents("Tree", 2))
	require.NoError(t, seqSim.Run(context.Background(), 0, 4, 1, nil))

	concSim, err := NewSimulation(context.Background(), compiled, "Main", "Grid", GridSpec{Width: 2, Height: 2}, noopConfig{}, nil, 3)
	require.NoError(t, err)
	require.NoError(t, concSim.SeedAgents("Tree", 2))
	require.NoError(t, concSim.Run(context.Background(), 0, 4, 4, nil))

	for i := range seqSim.Patches {
		for j := range seqSim.Patches[i].members {
			seqAge, err := seqSim.Patches[i].members[j].readPrior("age")
			require.NoError(t, err)
			concAge, err := concSim.Patches[i].members[j].readPrior("age")
			require.NoError(t, err)
			assert.Equal(t, seqAge, concAge)
		}
	}
}
