package compiler

import (
	"github.com/shopspring/decimal"

	"github.com/schmidtdse/joshsim/internal/josherr"
	"github.com/schmidtdse/joshsim/internal/lang"
	"github.com/schmidtdse/joshsim/internal/units"
	"github.com/schmidtdse/joshsim/internal/values"
)

func decimalFromFloat(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// conversionResolver supports only the identifier `X`, the lone free
// variable a unit stanza's conversion expression may reference (bound
// to the source magnitude). Anything else is out of scope for a unit
// conversion body.
type conversionResolver struct{}

func (conversionResolver) ResolveAttribute(scope string, path []string) (values.Value, error) {
	return nil, josherr.New(josherr.UnknownAttribute, "unit conversions may only reference X, got %v.%v", scope, path)
}
func (conversionResolver) ResolveConfig(name string, hasDefault bool) (values.Value, bool, error) {
	return nil, false, josherr.New(josherr.UnresolvedConfig, "config is not available inside a unit conversion")
}
func (conversionResolver) ResolveExternal(name string, at values.Value) (values.Value, error) {
	return nil, josherr.New(josherr.UnknownAttribute, "external resources are not available inside a unit conversion")
}
func (conversionResolver) CreateEntity(kind string, count int64, position values.Value) error {
	return josherr.New(josherr.ParseError, "entity creation is not available inside a unit conversion")
}
func (conversionResolver) SpatialQuery(kind string, radius values.Value) (values.Value, error) {
	return nil, josherr.New(josherr.ParseError, "spatial queries are not available inside a unit conversion")
}
func (conversionResolver) Converter() values.Converter { return nil }
func (conversionResolver) RandomUniform() float64      { return 0 }
func (conversionResolver) RandomNormal() float64       { return 0 }

// BuildConverter lowers every parsed unit stanza into a units.Converter,
// registering one direct conversion (or alias) per ConversionDecl.
func BuildConverter(stanzas []*lang.UnitStanza) (*units.Converter, error) {
	builder := units.NewBuilder()
	units.SeedBuiltins(builder)

	for _, stanza := range stanzas {
		src := units.Atom(stanza.Name)
		for _, conv := range stanza.Conversions {
			dst := units.Atom(conv.Target)
			if conv.IsAlias {
				builder.AddAlias(src, dst)
				continue
			}
			action, err := CompileExpr(conv.Expr)
			if err != nil {
				return nil, err
			}
			callable := makeCallable(action)
			builder.AddConversion(src, dst, callable)
		}
	}
	return builder.Build(), nil
}

func makeCallable(action Action) units.Callable {
	return func(x float64) (float64, error) {
		m := NewMachine()
		m.SaveLocal("X", values.DecimalValue{V: decimalFromFloat(x)})
		if err := action(m, conversionResolver{}); err != nil {
			return 0, err
		}
		result, err := m.Pop()
		if err != nil {
			return 0, err
		}
		d, err := values.AsDecimal(result)
		if err != nil {
			return 0, err
		}
		f, _ := d.Float64()
		return f, nil
	}
}
