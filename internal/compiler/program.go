package compiler

import (
	"github.com/schmidtdse/joshsim/internal/lang"
	"github.com/schmidtdse/joshsim/internal/units"
)

// Program is the fully compiled form of a parsed Josh script: one
// Prototype per entity stanza plus the Converter built from its unit
// stanzas.
type Program struct {
	Converter  *units.Converter
	Prototypes map[string]*Prototype
	// Order preserves declaration order for deterministic diagnostics
	// and tooling output.
	Order []string
}

// Compile lowers a parsed AST into a Program ready for the runtime
// scheduler to instantiate entities from.
func Compile(prog *lang.Program) (*Program, error) {
	converter, err := BuildConverter(prog.Units)
	if err != nil {
		return nil, err
	}

	out := &Program{Converter: converter, Prototypes: make(map[string]*Prototype, len(prog.Entities))}
	for _, ent := range prog.Entities {
		proto, err := CompileEntity(ent)
		if err != nil {
			return nil, err
		}
		out.Prototypes[ent.Name] = proto
		out.Order = append(out.Order, ent.Name)
	}
	return out, nil
}
