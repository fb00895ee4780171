package lang

import "github.com/schmidtdse/joshsim/internal/josherr"

// Program is the root AST node for one parsed Josh script.
type Program struct {
	Units    []*UnitStanza
	Entities []*EntityStanza
	Pos      josherr.Pos
}

// UnitStanza declares a unit name plus the conversions attached to it.
//
//	unit kg:
//	  alias kilogram = X
//	  g = X * 1000
//	end unit
type UnitStanza struct {
	Name        string
	Conversions []*ConversionDecl
	Pos         josherr.Pos
}

// ConversionDecl is one line inside a unit stanza: either a straight
// numeric alias or an expression that converts a placeholder value X
// from Name into Target units.
type ConversionDecl struct {
	IsAlias bool
	Target  string
	Expr    Expr // evaluated with X bound to the source magnitude
	Pos     josherr.Pos
}

// EntityStanza is one top-level `start <kind> <Name>: ... end <kind>`
// block, e.g. `start organism Tree:`, `start patch Grid:`,
// `start simulation Main:`.
type EntityStanza struct {
	Kind   string // agent|organism|management|disturbance|external|patch|simulation
	Name   string
	States []*StateStanza
	// Handlers declared directly under the entity (state-agnostic).
	Handlers []*HandlerGroupDecl
	Pos      josherr.Pos
}

// StateStanza is a `start state <Name>: ... end state` block nested inside an entity,
// scoping its handlers to that state.
type StateStanza struct {
	Name     string
	Handlers []*HandlerGroupDecl
	Pos      josherr.Pos
}

// HandlerGroupDecl binds one attribute/event pair to an ordered list of
// conditional branches, e.g.:
//
//	age.step = age + 1 count
//	height.init:
//	  if age > 10 year -> 5 m
//	  else -> 1 m
type HandlerGroupDecl struct {
	Attribute string
	Event     string // init|start|step|end|remove|constant
	Branches  []*HandlerBranch
	Pos       josherr.Pos
}

// HandlerBranch is one `if/elif/else -> expr` arm, or the single
// unconditional arm of a non-branching assignment. Cond is nil for an
// unconditional branch.
type HandlerBranch struct {
	Cond Expr // nil means unconditional (else, or a bare assignment)
	Body Expr
	Pos  josherr.Pos
}

// Expr is any expression grammar node.
type Expr interface {
	exprNode()
	Position() josherr.Pos
}

type baseExpr struct{ Pos josherr.Pos }

func (baseExpr) exprNode()                 {}
func (b baseExpr) Position() josherr.Pos   { return b.Pos }

type IntLit struct {
	baseExpr
	Value int64
	Unit  string // "" when dimensionless
}

type DecimalLit struct {
	baseExpr
	Value string // kept textual; internal/compiler parses to decimal.Decimal
	Unit  string
}

type BoolLit struct {
	baseExpr
	Value bool
}

type StringLit struct {
	baseExpr
	Value string
}

// Ident is a bare name reference: a local variable, attribute, or
// state/entity name depending on resolution context.
type Ident struct {
	baseExpr
	Name string
}

// BinaryExpr covers arithmetic, comparison, and boolean binary ops:
// + - * / ^, == != < <= > >=, and or xor.
type BinaryExpr struct {
	baseExpr
	Op    string
	Left  Expr
	Right Expr
}

// TernaryExpr is `cond ? then : else`.
type TernaryExpr struct {
	baseExpr
	Cond Expr
	Then Expr
	Else Expr
}

// CondBranch is one `if/elif` arm inside an IfExpr.
type CondBranch struct {
	Cond Expr
	Body Expr
}

// IfExpr is the `if ... elif ... else ...` expression form (distinct
// from HandlerBranch's handler-selection usage, though both sequence
// CondBranches).
type IfExpr struct {
	baseExpr
	Branches []CondBranch
	Else     Expr // nil if no else arm
}

// CastExpr is `expr as Unit` or `expr as! Unit` (Force=true).
type CastExpr struct {
	baseExpr
	Value Expr
	Unit  string
	Force bool
}

// LimitExpr is `limit expr to [low, high]`.
type LimitExpr struct {
	baseExpr
	Value Expr
	Low   Expr
	High  Expr
}

// MapLinearExpr is `map expr from [lo,hi] to [lo,hi] linear`.
type MapLinearExpr struct {
	baseExpr
	Value     Expr
	FromLow   Expr
	FromHigh  Expr
	ToLow     Expr
	ToHigh    Expr
}

// MapParamExpr is `map expr from [lo,hi] to [lo,hi] sigmoid <param>` and
// similar parameterized mapping functions named by Method.
type MapParamExpr struct {
	baseExpr
	Value    Expr
	FromLow  Expr
	FromHigh Expr
	ToLow    Expr
	ToHigh   Expr
	Method   string
	Param    Expr
}

// FuncCallExpr is a single-argument builtin call: abs, ceil, floor,
// round, log10, ln, count, sum, mean, min, max, std.
type FuncCallExpr struct {
	baseExpr
	Name string
	Arg  Expr
}

// ConcatExpr joins two string expressions.
type ConcatExpr struct {
	baseExpr
	Left  Expr
	Right Expr
}

// SliceExpr is `expr[lo:hi]` over a distribution.
type SliceExpr struct {
	baseExpr
	Value Expr
	Low   Expr
	High  Expr
}

// SampleExpr is `sample N [uniform|normal] from expr [with
// replacement]`. Kind is "" for a plain positional sample, "uniform"
// to draw from a uniform distribution spanning the source's range, or
// "normal" to draw from a normal distribution fit to the source's
// mean/std.
type SampleExpr struct {
	baseExpr
	Count       Expr
	Source      Expr
	Kind        string
	Replacement bool
}

// WithinExpr is the spatial query form: `<EntityKind> within <radius>
// <unit> of here`.
type WithinExpr struct {
	baseExpr
	EntityKind string
	Radius     Expr
	RadiusUnit string
}

// AttributeAccessExpr resolves dotted scope chains: prior.X, current.X,
// here.X, here.Collection.attr, EntityName.attr, meta.X.
type AttributeAccessExpr struct {
	baseExpr
	Scope string // prior|current|here|meta|"" (bare) or an entity/collection name
	Path  []string
}

// ExternalExpr is `external[name]` or `external[name] at <step>`.
type ExternalExpr struct {
	baseExpr
	Name string
	At   Expr // nil means current step
}

// ConfigExpr is `config name` or `config name else <default>`.
type ConfigExpr struct {
	baseExpr
	Name    string
	Default Expr // nil if no else clause
}

// CreateExpr is `create N of Kind` with optional replacement position.
type CreateExpr struct {
	baseExpr
	Count    Expr
	Kind     string
	Position Expr // nil means inherit creator's position
}

// PositionExpr is a literal spatial position, e.g. `(1 m, 2 m)`.
type PositionExpr struct {
	baseExpr
	X Expr
	Y Expr
}
