package compiler

import (
	"github.com/shopspring/decimal"

	"github.com/schmidtdse/joshsim/internal/josherr"
	"github.com/schmidtdse/joshsim/internal/lang"
	"github.com/schmidtdse/joshsim/internal/units"
	"github.com/schmidtdse/joshsim/internal/values"
)

// CompileExpr lowers one AST expression into a single Action that,
// when run, leaves the expression's value on top of the stack.
func CompileExpr(e lang.Expr) (Action, error) {
	switch n := e.(type) {
	case *lang.IntLit:
		u := units.EMPTY
		if n.Unit != "" {
			u = units.Atom(n.Unit)
		}
		return PushConst(values.IntValue{V: n.Value, U: u}), nil

	case *lang.DecimalLit:
		d, err := decimal.NewFromString(n.Value)
		if err != nil {
			return nil, josherr.At(josherr.ParseError, n.Position(), "invalid decimal literal %q", n.Value)
		}
		u := units.EMPTY
		if n.Unit != "" {
			u = units.Atom(n.Unit)
		}
		return PushConst(values.DecimalValue{V: d, U: u}), nil

	case *lang.BoolLit:
		return PushConst(values.BoolValue{V: n.Value}), nil

	case *lang.StringLit:
		return PushConst(values.StringValue{V: n.Value}), nil

	case *lang.Ident:
		return PushAttributeAction("", []string{n.Name}), nil

	case *lang.AttributeAccessExpr:
		return PushAttributeAction(n.Scope, n.Path), nil

	case *lang.BinaryExpr:
		return compileBinary(n)

	case *lang.TernaryExpr:
		cond, err := CompileExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := CompileExpr(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := CompileExpr(n.Else)
		if err != nil {
			return nil, err
		}
		return ConditionalAction(cond, then, els), nil

	case *lang.IfExpr:
		return compileIfExpr(n)

	case *lang.CastExpr:
		value, err := CompileExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return CastAction(value, units.Atom(n.Unit), n.Force), nil

	case *lang.LimitExpr:
		return compileLimit(n)

	case *lang.MapLinearExpr:
		return compileMapLinear(n)

	case *lang.MapParamExpr:
		return compileMapParam(n)

	case *lang.FuncCallExpr:
		return compileFuncCall(n)

	case *lang.ConcatExpr:
		left, err := CompileExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := CompileExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return BinaryOpAction(left, right, values.Concat), nil

	case *lang.SliceExpr:
		return compileSlice(n)

	case *lang.SampleExpr:
		return compileSample(n)

	case *lang.WithinExpr:
		radius, err := CompileExpr(n.Radius)
		if err != nil {
			return nil, err
		}
		if n.RadiusUnit != "" {
			radius = CastAction(radius, units.Atom(n.RadiusUnit), false)
		}
		return SpatialQueryAction(n.EntityKind, radius), nil

	case *lang.ExternalExpr:
		var at Action
		if n.At != nil {
			a, err := CompileExpr(n.At)
			if err != nil {
				return nil, err
			}
			at = a
		}
		return ExternalAction(n.Name, at), nil

	case *lang.ConfigExpr:
		var def Action
		if n.Default != nil {
			d, err := CompileExpr(n.Default)
			if err != nil {
				return nil, err
			}
			def = d
		}
		return ConfigAction(n.Name, def), nil

	case *lang.CreateExpr:
		count, err := CompileExpr(n.Count)
		if err != nil {
			return nil, err
		}
		var position Action
		if n.Position != nil {
			p, err := CompileExpr(n.Position)
			if err != nil {
				return nil, err
			}
			position = p
		}
		return CreateEntityAction(count, n.Kind, position), nil

	case *lang.PositionExpr:
		x, err := CompileExpr(n.X)
		if err != nil {
			return nil, err
		}
		y, err := CompileExpr(n.Y)
		if err != nil {
			return nil, err
		}
		return func(m *Machine, r Resolver) error {
			if err := x(m, r); err != nil {
				return err
			}
			xv, err := m.Pop()
			if err != nil {
				return err
			}
			if err := y(m, r); err != nil {
				return err
			}
			yv, err := m.Pop()
			if err != nil {
				return err
			}
			xd, err := values.AsDecimal(xv)
			if err != nil {
				return err
			}
			yd, err := values.AsDecimal(yv)
			if err != nil {
				return err
			}
			m.Push(values.PositionValue{X: xd, Y: yd, XUnit: xv.Units(), YUnit: yv.Units()})
			return nil
		}, nil

	default:
		return nil, josherr.At(josherr.ParseError, e.Position(), "unsupported expression node %T", e)
	}
}

func compileBinary(n *lang.BinaryExpr) (Action, error) {
	left, err := CompileExpr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := CompileExpr(n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "+":
		return BinaryOpAction(left, right, values.Add), nil
	case "-":
		return BinaryOpAction(left, right, values.Subtract), nil
	case "*":
		return BinaryOpAction(left, right, values.Multiply), nil
	case "/":
		return BinaryOpAction(left, right, values.Divide), nil
	case "^":
		return BinaryOpAction(left, right, values.Pow), nil
	case "==", "!=", "<", "<=", ">", ">=":
		op := n.Op
		return BinaryOpAction(left, right, func(a, b values.Value) (values.Value, error) {
			return values.Compare(op, a, b)
		}), nil
	case "and", "or", "xor":
		op := n.Op
		return BinaryOpAction(left, right, func(a, b values.Value) (values.Value, error) {
			return values.BoolOp(op, a, b)
		}), nil
	default:
		return nil, josherr.At(josherr.ParseError, n.Position(), "unknown binary operator %q", n.Op)
	}
}

func compileIfExpr(n *lang.IfExpr) (Action, error) {
	var arms []CondArm
	for _, branch := range n.Branches {
		cond, err := CompileExpr(branch.Cond)
		if err != nil {
			return nil, err
		}
		body, err := CompileExpr(branch.Body)
		if err != nil {
			return nil, err
		}
		arms = append(arms, CondArm{Cond: cond, Body: body})
	}
	var els Action
	if n.Else != nil {
		e, err := CompileExpr(n.Else)
		if err != nil {
			return nil, err
		}
		els = e
	}
	return ChainedConditional(arms, els), nil
}

func compileLimit(n *lang.LimitExpr) (Action, error) {
	value, err := CompileExpr(n.Value)
	if err != nil {
		return nil, err
	}
	lo, err := CompileExpr(n.Low)
	if err != nil {
		return nil, err
	}
	hi, err := CompileExpr(n.High)
	if err != nil {
		return nil, err
	}
	return func(m *Machine, r Resolver) error {
		if err := value(m, r); err != nil {
			return err
		}
		v, err := m.Pop()
		if err != nil {
			return err
		}
		if err := lo(m, r); err != nil {
			return err
		}
		loV, err := m.Pop()
		if err != nil {
			return err
		}
		if err := hi(m, r); err != nil {
			return err
		}
		hiV, err := m.Pop()
		if err != nil {
			return err
		}
		result, err := values.Limit(v, loV, hiV)
		if err != nil {
			return err
		}
		m.Push(result)
		return nil
	}, nil
}

func compileMapLinear(n *lang.MapLinearExpr) (Action, error) {
	value, err := CompileExpr(n.Value)
	if err != nil {
		return nil, err
	}
	fromLow, err := CompileExpr(n.FromLow)
	if err != nil {
		return nil, err
	}
	fromHigh, err := CompileExpr(n.FromHigh)
	if err != nil {
		return nil, err
	}
	toLow, err := CompileExpr(n.ToLow)
	if err != nil {
		return nil, err
	}
	toHigh, err := CompileExpr(n.ToHigh)
	if err != nil {
		return nil, err
	}
	return func(m *Machine, r Resolver) error {
		args, err := evalAll(m, r, value, fromLow, fromHigh, toLow, toHigh)
		if err != nil {
			return err
		}
		result, err := values.MapLinear(args[0], args[1], args[2], args[3], args[4])
		if err != nil {
			return err
		}
		m.Push(result)
		return nil
	}, nil
}

// compileMapParam compiles the parameterized mapping functions
// (sigmoid and similar). Only linear is specified numerically by the
// grammar; parameterized methods are accepted syntactically and fall
// back to the linear rule, matching the source's documented behavior
// for methods it does not give a distinct formula for.
func compileMapParam(n *lang.MapParamExpr) (Action, error) {
	value, err := CompileExpr(n.Value)
	if err != nil {
		return nil, err
	}
	fromLow, err := CompileExpr(n.FromLow)
	if err != nil {
		return nil, err
	}
	fromHigh, err := CompileExpr(n.FromHigh)
	if err != nil {
		return nil, err
	}
	toLow, err := CompileExpr(n.ToLow)
	if err != nil {
		return nil, err
	}
	toHigh, err := CompileExpr(n.ToHigh)
	if err != nil {
		return nil, err
	}
	return func(m *Machine, r Resolver) error {
		args, err := evalAll(m, r, value, fromLow, fromHigh, toLow, toHigh)
		if err != nil {
			return err
		}
		result, err := values.MapLinear(args[0], args[1], args[2], args[3], args[4])
		if err != nil {
			return err
		}
		m.Push(result)
		return nil
	}, nil
}

func compileFuncCall(n *lang.FuncCallExpr) (Action, error) {
	arg, err := CompileExpr(n.Arg)
	if err != nil {
		return nil, err
	}
	var fn func(values.Value) (values.Value, error)
	switch n.Name {
	case "abs":
		fn = values.Abs
	case "ceil":
		fn = values.Ceil
	case "floor":
		fn = values.Floor
	case "round":
		fn = values.Round
	case "log10":
		fn = values.Log10
	case "ln":
		fn = values.Ln
	case "count":
		fn = values.Count
	case "sum":
		fn = values.Sum
	case "mean":
		fn = values.Mean
	case "min":
		fn = values.Min
	case "max":
		fn = values.Max
	case "std":
		fn = values.Std
	default:
		return nil, josherr.At(josherr.ParseError, n.Position(), "unknown function %q", n.Name)
	}
	return UnaryOpAction(arg, fn), nil
}

func compileSlice(n *lang.SliceExpr) (Action, error) {
	value, err := CompileExpr(n.Value)
	if err != nil {
		return nil, err
	}
	lo, err := CompileExpr(n.Low)
	if err != nil {
		return nil, err
	}
	hi, err := CompileExpr(n.High)
	if err != nil {
		return nil, err
	}
	return func(m *Machine, r Resolver) error {
		args, err := evalAll(m, r, value, lo, hi)
		if err != nil {
			return err
		}
		loI, err := values.AsIntExponent(args[1])
		if err != nil {
			return err
		}
		hiI, err := values.AsIntExponent(args[2])
		if err != nil {
			return err
		}
		result, err := values.Slice(args[0], loI, hiI)
		if err != nil {
			return err
		}
		m.Push(result)
		return nil
	}, nil
}

func compileSample(n *lang.SampleExpr) (Action, error) {
	count, err := CompileExpr(n.Count)
	if err != nil {
		return nil, err
	}
	source, err := CompileExpr(n.Source)
	if err != nil {
		return nil, err
	}
	withReplacement := n.Replacement
	kind := n.Kind
	return func(m *Machine, r Resolver) error {
		args, err := evalAll(m, r, count, source)
		if err != nil {
			return err
		}
		n, err := values.AsIntExponent(args[0])
		if err != nil {
			return err
		}
		dv, ok := args[1].(values.DistributionValue)
		if !ok {
			return josherr.New(josherr.Arithmetic, "sample source must be a distribution")
		}
		realized, err := dv.D.Realize()
		if err != nil {
			return err
		}

		var contents []values.Value
		switch kind {
		case "uniform":
			contents, err = sampleUniform(realized, n, r)
		case "normal":
			contents, err = sampleNormal(realized, n, r)
		default:
			contents = realized.GetContents(n, withReplacement)
		}
		if err != nil {
			return err
		}

		rd, err := values.NewRealizedDistribution(contents, realized.U)
		if err != nil {
			return err
		}
		m.Push(values.DistributionValue{D: rd})
		return nil
	}, nil
}

// sampleUniform draws n values uniformly across [min, max] of source,
// the way `sample N uniform from ...` spreads draws across the
// source's observed range rather than resampling its members.
func sampleUniform(source *values.RealizedDistribution, n int, r Resolver) ([]values.Value, error) {
	minV, ok := source.GetMin()
	if !ok {
		return nil, josherr.New(josherr.Arithmetic, "uniform sample source has no min")
	}
	maxV, ok := source.GetMax()
	if !ok {
		return nil, josherr.New(josherr.Arithmetic, "uniform sample source has no max")
	}
	lo, err := values.AsDecimal(minV)
	if err != nil {
		return nil, err
	}
	hi, err := values.AsDecimal(maxV)
	if err != nil {
		return nil, err
	}
	span := hi.Sub(lo)

	out := make([]values.Value, n)
	for i := 0; i < n; i++ {
		draw := lo.Add(span.Mul(decimal.NewFromFloat(r.RandomUniform())))
		out[i] = values.DecimalValue{V: draw, U: source.U}
	}
	return out, nil
}

// sampleNormal draws n values from a normal distribution fit to
// source's mean and population standard deviation.
func sampleNormal(source *values.RealizedDistribution, n int, r Resolver) ([]values.Value, error) {
	meanV, ok := source.GetMean()
	if !ok {
		return nil, josherr.New(josherr.Arithmetic, "normal sample source has no mean")
	}
	stdV, ok := source.GetStd()
	if !ok {
		return nil, josherr.New(josherr.Arithmetic, "normal sample source has no standard deviation")
	}
	mean, err := values.AsDecimal(meanV)
	if err != nil {
		return nil, err
	}
	std, err := values.AsDecimal(stdV)
	if err != nil {
		return nil, err
	}

	out := make([]values.Value, n)
	for i := 0; i < n; i++ {
		draw := mean.Add(std.Mul(decimal.NewFromFloat(r.RandomNormal())))
		out[i] = values.DecimalValue{V: draw, U: source.U}
	}
	return out, nil
}

// evalAll runs each Action in order and returns the popped results in
// the same order, so multi-argument builtins read naturally.
func evalAll(m *Machine, r Resolver, actions ...Action) ([]values.Value, error) {
	out := make([]values.Value, len(actions))
	for i, a := range actions {
		if err := a(m, r); err != nil {
			return nil, err
		}
		v, err := m.Pop()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
