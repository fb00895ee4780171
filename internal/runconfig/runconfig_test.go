package runconfig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmidtdse/joshsim/internal/values"
)

func TestParseJshcBasic(t *testing.T) {
	src := `
# a comment
grid_size = 10 m
base_seed = 42

replicates = 3
label = alpha
`
	cfg, err := ParseJshc(strings.NewReader(src))
	require.NoError(t, err)

	v, ok := cfg.Get("grid_size")
	require.True(t, ok)
	assert.Equal(t, int64(10), v.(values.IntValue).V)

	v, ok = cfg.Get("base_seed")
	require.True(t, ok)
	assert.Equal(t, int64(42), v.(values.IntValue).V)

	v, ok = cfg.Get("label")
	require.True(t, ok)
	assert.Equal(t, "alpha", v.(values.StringValue).V)

	_, ok = cfg.Get("missing")
	assert.False(t, ok)
}

func TestParseJshcMissingEqualsFails(t *testing.T) {
	_, err := ParseJshc(strings.NewReader("not_an_assignment"))
	assert.Error(t, err)
}

func TestDefaultJobConfig(t *testing.T) {
	cfg := DefaultJobConfig()
	assert.Equal(t, 1, cfg.Replicates)
	assert.Equal(t, "stdout", cfg.Output)
}
