package units

// SeedBuiltins registers the common length/time/mass conversions every
// script can rely on without declaring its own `unit` stanzas, per
// SPEC_FULL.md §C.2. User-declared stanzas are added to the same
// Builder afterward and take precedence for any edge they redeclare,
// since AddConversion puts each new edge ahead of earlier ones for the
// same source and GetConversion takes the first match.
func SeedBuiltins(b *Builder) {
	linear := func(factor float64) Callable {
		return func(v float64) (float64, error) { return v * factor, nil }
	}
	invLinear := func(factor float64) Callable {
		return func(v float64) (float64, error) { return v / factor, nil }
	}

	m := Atom("m")
	addPair := func(atom string, metersPerUnit float64) {
		u := Atom(atom)
		b.AddConversion(u, m, linear(metersPerUnit))
		b.AddConversion(m, u, invLinear(metersPerUnit))
	}
	addPair("km", 1000)
	addPair("cm", 0.01)
	addPair("mm", 0.001)
	addPair("ft", 0.3048)
	addPair("mi", 1609.344)

	s := Atom("s")
	addTime := func(atom string, secondsPerUnit float64) {
		u := Atom(atom)
		b.AddConversion(u, s, linear(secondsPerUnit))
		b.AddConversion(s, u, invLinear(secondsPerUnit))
	}
	addTime("min", 60)
	addTime("hr", 3600)
	addTime("day", 86400)
	addTime("year", 31557600)

	g := Atom("g")
	addMass := func(atom string, gramsPerUnit float64) {
		u := Atom(atom)
		b.AddConversion(u, g, linear(gramsPerUnit))
		b.AddConversion(g, u, invLinear(gramsPerUnit))
	}
	addMass("kg", 1000)
}
