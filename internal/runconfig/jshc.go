// Package runconfig loads the two configuration surfaces a run needs:
// the line-oriented .jshc config collaborator file (§6) and the
// higher-level YAML/viper job descriptor that drives the CLI.
package runconfig

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/schmidtdse/joshsim/internal/josherr"
	"github.com/schmidtdse/joshsim/internal/units"
	"github.com/schmidtdse/joshsim/internal/values"
)

func decimalFromFloat(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// JshcConfig implements runtime.Config by keying on the entries of a
// parsed .jshc file.
type JshcConfig struct {
	entries map[string]values.Value
}

// Get implements runtime.Config.
func (c *JshcConfig) Get(name string) (values.Value, bool) {
	v, ok := c.entries[name]
	return v, ok
}

// ParseJshc parses the line-oriented grammar: each line is
// `identifier = number [unit]`, a `#` comment, or blank. Units, when
// absent, mean dimensionless. A value that does not parse as a number
// is kept as a string.
func ParseJshc(r io.Reader) (*JshcConfig, error) {
	cfg := &JshcConfig{entries: make(map[string]values.Value)}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			return nil, josherr.At(josherr.ParseError, josherr.Pos{Line: lineNo, Col: 1}, "expected 'identifier = number [unit]', got %q", line)
		}
		name := strings.TrimSpace(line[:eq])
		rest := strings.Fields(strings.TrimSpace(line[eq+1:]))
		if len(rest) == 0 {
			return nil, josherr.At(josherr.ParseError, josherr.Pos{Line: lineNo, Col: eq + 1}, "missing value for %q", name)
		}
		numTok := rest[0]
		unit := ""
		if len(rest) > 1 {
			unit = rest[1]
		}
		cfg.entries[name] = parseNumericValue(numTok, unit)
	}
	if err := scanner.Err(); err != nil {
		return nil, josherr.Wrap(josherr.IoError, err, "reading .jshc config")
	}
	return cfg, nil
}

func parseNumericValue(tok, unit string) values.Value {
	u := units.EMPTY
	if unit != "" {
		u = units.Atom(unit)
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return values.IntValue{V: n, U: u}
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return values.DecimalValue{V: decimalFromFloat(f), U: u}
	}
	return values.StringValue{V: tok}
}
