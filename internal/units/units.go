// Package units implements the §3 unit algebra: an ordered pair of
// numerator/denominator atom multisets with non-negative integer
// exponents, simplified so no atom appears on both sides.
package units

import (
	"fmt"
	"sort"
	"strings"
)

// Units is a dimensional tag: numerator atoms to their exponent, and
// denominator atoms to their exponent. Simplify maintains the
// invariant that no atom key appears in both maps.
type Units struct {
	num map[string]int
	den map[string]int
}

// EMPTY is the dimensionless identity.
var EMPTY = Units{}

// New builds a Units value from explicit numerator/denominator
// exponent maps, simplifying before returning.
func New(num, den map[string]int) Units {
	u := Units{num: cloneNonZero(num), den: cloneNonZero(den)}
	return u.simplify()
}

// Atom builds a single-atom numerator unit, e.g. Atom("m").
func Atom(symbol string) Units {
	if symbol == "" {
		return EMPTY
	}
	return Units{num: map[string]int{symbol: 1}}
}

func cloneNonZero(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

// simplify cancels shared atoms between numerator and denominator and
// drops zero-exponent entries.
func (u Units) simplify() Units {
	num := cloneNonZero(u.num)
	den := cloneNonZero(u.den)
	for atom, nExp := range num {
		if dExp, ok := den[atom]; ok {
			switch {
			case nExp > dExp:
				num[atom] = nExp - dExp
				delete(den, atom)
			case dExp > nExp:
				den[atom] = dExp - nExp
				delete(num, atom)
			default:
				delete(num, atom)
				delete(den, atom)
			}
		}
	}
	return Units{num: num, den: den}
}

// IsEmpty reports whether u is the dimensionless identity.
func (u Units) IsEmpty() bool {
	return len(u.num) == 0 && len(u.den) == 0
}

// Equal reports structural equality after simplification.
func (u Units) Equal(other Units) bool {
	a, b := u.simplify(), other.simplify()
	return mapsEqual(a.num, b.num) && mapsEqual(a.den, b.den)
}

func mapsEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// Multiply combines two units by adding numerator exponents and adding
// denominator exponents, then simplifying.
func (u Units) Multiply(other Units) Units {
	num := mergeAdd(u.num, other.num)
	den := mergeAdd(u.den, other.den)
	return Units{num: num, den: den}.simplify()
}

// Divide combines two units as u / other.
func (u Units) Divide(other Units) Units {
	return u.Multiply(other.Invert())
}

// Invert swaps numerator and denominator.
func (u Units) Invert() Units {
	return Units{num: cloneNonZero(u.den), den: cloneNonZero(u.num)}
}

func mergeAdd(a, b map[string]int) map[string]int {
	out := make(map[string]int, len(a)+len(b))
	for k, v := range a {
		out[k] += v
	}
	for k, v := range b {
		out[k] += v
	}
	return out
}

// RaiseToPower multiplies every exponent by n. A negative n is handled
// as Invert().RaiseToPower(-n); callers enforce "dimensionless or
// integer" exponents at the EngineValue layer.
func (u Units) RaiseToPower(n int) (Units, error) {
	if n < 0 {
		inv, err := u.Invert().RaiseToPower(-n)
		return inv, err
	}
	num := make(map[string]int, len(u.num))
	den := make(map[string]int, len(u.den))
	for k, v := range u.num {
		num[k] = v * n
	}
	for k, v := range u.den {
		den[k] = v * n
	}
	return Units{num: num, den: den}.simplify(), nil
}

// String renders the canonical "a * b * ... / x * y * ..." form from
// §6: empty numerator omits the prefix, missing denominator omits "/".
func (u Units) String() string {
	numAtoms := expandAtoms(u.num)
	denAtoms := expandAtoms(u.den)

	var sb strings.Builder
	if len(numAtoms) > 0 {
		sb.WriteString(strings.Join(numAtoms, " * "))
	}
	if len(denAtoms) > 0 {
		if len(numAtoms) > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("/ ")
		sb.WriteString(strings.Join(denAtoms, " * "))
	}
	return sb.String()
}

// expandAtoms renders each atom^exponent as exponent repeated tokens
// (a, a, a for a^3) to match the grammar's "A * B * ..." production,
// in a stable sorted order for deterministic output.
func expandAtoms(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []string
	for _, k := range keys {
		for i := 0; i < m[k]; i++ {
			out = append(out, k)
		}
	}
	return out
}

// Parse parses the grammar "A * B * ... / X * Y * ..." or a bare unit
// alias token. At most one '/' is allowed. "%" is a valid atom.
func Parse(src string) (Units, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return EMPTY, nil
	}

	parts := strings.Split(src, "/")
	if len(parts) > 2 {
		return EMPTY, fmt.Errorf("unit expression has more than one '/': %q", src)
	}

	num, err := parseSide(parts[0])
	if err != nil {
		return EMPTY, err
	}
	den := map[string]int{}
	if len(parts) == 2 {
		den, err = parseSide(parts[1])
		if err != nil {
			return EMPTY, err
		}
	}
	return New(num, den), nil
}

func parseSide(side string) (map[string]int, error) {
	side = strings.TrimSpace(side)
	out := map[string]int{}
	if side == "" {
		return out, nil
	}
	for _, tok := range strings.Split(side, "*") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, fmt.Errorf("empty unit atom in %q", side)
		}
		out[tok]++
	}
	return out, nil
}
