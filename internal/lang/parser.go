package lang

import (
	"strconv"
	"strings"

	"github.com/schmidtdse/joshsim/internal/josherr"
)

// Parser is a recursive-descent parser over a token stream produced by
// Lexer.Tokenize.
type Parser struct {
	toks []Token
	pos  int
}

// Parse lexes and parses src into a Program.
func Parse(src string) (*Program, error) {
	toks, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseProgram()
}

func (p *Parser) cur() Token  { return p.toks[p.pos] }
func (p *Parser) at(offset int) Token {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) pErr(format string, args ...interface{}) error {
	t := p.cur()
	return josherr.At(josherr.ParseError, josherr.Pos{Line: t.Line, Col: t.Col}, format, args...)
}

func (p *Parser) isKeyword(text string) bool {
	t := p.cur()
	return (t.Type == TokKeyword || t.Type == TokIdent) && t.Text == text
}

func (p *Parser) expectKeyword(text string) (Token, error) {
	if !p.isKeyword(text) {
		return Token{}, p.pErr("expected keyword %q, found %s %q", text, p.cur().Type, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	if p.cur().Type != tt {
		return Token{}, p.pErr("expected %s, found %s %q", tt, p.cur().Type, p.cur().Text)
	}
	return p.advance(), nil
}

var entityKinds = map[string]bool{
	"agent": true, "organism": true, "management": true,
	"disturbance": true, "external": true, "patch": true, "simulation": true,
}

func (p *Parser) parseProgram() (*Program, error) {
	prog := &Program{Pos: josherr.Pos{Line: 1, Col: 1}}
	for p.cur().Type != TokEOF {
		switch {
		case p.isKeyword("unit"):
			u, err := p.parseUnitStanza()
			if err != nil {
				return nil, err
			}
			prog.Units = append(prog.Units, u)
		case p.isKeyword("start") && entityKinds[p.at(1).Text]:
			e, err := p.parseEntityStanza()
			if err != nil {
				return nil, err
			}
			prog.Entities = append(prog.Entities, e)
		default:
			return nil, p.pErr("expected 'start <kind>' or 'unit', found %s %q", p.cur().Type, p.cur().Text)
		}
	}
	return prog, nil
}

// parseUnitStanza: `unit <name>: (alias <name> = <expr>) | (<name> = <expr>)* end unit`
func (p *Parser) parseUnitStanza() (*UnitStanza, error) {
	kw, err := p.expectKeyword("unit")
	if err != nil {
		return nil, err
	}
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokColon); err != nil {
		return nil, err
	}
	u := &UnitStanza{Name: name.Text, Pos: josherr.Pos{Line: kw.Line, Col: kw.Col}}
	for !(p.isKeyword("end")) {
		conv, err := p.parseConversionDecl()
		if err != nil {
			return nil, err
		}
		u.Conversions = append(u.Conversions, conv)
	}
	if _, err := p.expectKeyword("end"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("unit"); err != nil {
		return nil, err
	}
	return u, nil
}

func (p *Parser) parseConversionDecl() (*ConversionDecl, error) {
	isAlias := false
	if p.isKeyword("alias") {
		isAlias = true
		p.advance()
	}
	target, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokEquals); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ConversionDecl{IsAlias: isAlias, Target: target.Text, Expr: expr, Pos: josherr.Pos{Line: target.Line, Col: target.Col}}, nil
}

// parseEntityStanza: `start <kind> <Name>: (stateStanza | handlerGroup)* end <kind>`
func (p *Parser) parseEntityStanza() (*EntityStanza, error) {
	startTok, err := p.expectKeyword("start")
	if err != nil {
		return nil, err
	}
	kindTok := p.advance()
	if !entityKinds[kindTok.Text] {
		return nil, josherr.At(josherr.ParseError, josherr.Pos{Line: kindTok.Line, Col: kindTok.Col}, "unknown entity kind %q", kindTok.Text)
	}
	nameTok, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if IsReserved(nameTok.Text) {
		return nil, josherr.At(josherr.ReservedWord, josherr.Pos{Line: nameTok.Line, Col: nameTok.Col}, "%q is a reserved word and cannot name an entity", nameTok.Text)
	}
	if _, err := p.expect(TokColon); err != nil {
		return nil, err
	}

	ent := &EntityStanza{Kind: kindTok.Text, Name: nameTok.Text, Pos: josherr.Pos{Line: startTok.Line, Col: startTok.Col}}
	for !(p.isKeyword("end") && entityKinds[p.at(1).Text]) {
		if p.isKeyword("start") && p.at(1).Text == "state" {
			st, err := p.parseStateStanza()
			if err != nil {
				return nil, err
			}
			ent.States = append(ent.States, st)
			continue
		}
		hg, err := p.parseHandlerGroupDecl()
		if err != nil {
			return nil, err
		}
		ent.Handlers = append(ent.Handlers, hg)
	}
	if _, err := p.expectKeyword("end"); err != nil {
		return nil, err
	}
	p.advance() // kind
	return ent, nil
}

func (p *Parser) parseStateStanza() (*StateStanza, error) {
	startTok, err := p.expectKeyword("start")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("state"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokColon); err != nil {
		return nil, err
	}
	st := &StateStanza{Name: nameTok.Text, Pos: josherr.Pos{Line: startTok.Line, Col: startTok.Col}}
	for !(p.isKeyword("end") && p.at(1).Text == "state") {
		hg, err := p.parseHandlerGroupDecl()
		if err != nil {
			return nil, err
		}
		st.Handlers = append(st.Handlers, hg)
	}
	if _, err := p.expectKeyword("end"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("state"); err != nil {
		return nil, err
	}
	return st, nil
}

// decodeHandlerName implements §4.1's handler-name decoding rule.
func decodeHandlerName(dotted string) (attribute string, event string) {
	parts := strings.Split(dotted, ".")
	last := parts[len(parts)-1]
	if ReservedEventNames[last] {
		return strings.Join(parts[:len(parts)-1], "."), last
	}
	return dotted, "constant"
}

// parseHandlerGroupDecl handles both the single form
// `<name> = <expr>` and the multi form
// `<name>: if cond -> expr (elif cond -> expr)* (else -> expr)?`
func (p *Parser) parseHandlerGroupDecl() (*HandlerGroupDecl, error) {
	// A bare event name (`remove = ...`) lexes as a keyword but is
	// still a valid handler name.
	nameTok := p.cur()
	if nameTok.Type != TokIdent && !(nameTok.Type == TokKeyword && ReservedEventNames[nameTok.Text]) {
		return nil, p.pErr("expected %s, found %s %q", TokIdent, nameTok.Type, nameTok.Text)
	}
	p.advance()
	attribute, event := decodeHandlerName(nameTok.Text)
	hg := &HandlerGroupDecl{Attribute: attribute, Event: event, Pos: josherr.Pos{Line: nameTok.Line, Col: nameTok.Col}}

	switch p.cur().Type {
	case TokEquals:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		hg.Branches = append(hg.Branches, &HandlerBranch{Body: expr, Pos: nameTok.Position()})
		return hg, nil
	case TokColon:
		p.advance()
		for {
			branch, isElse, err := p.parseHandlerBranch()
			if err != nil {
				return nil, err
			}
			hg.Branches = append(hg.Branches, branch)
			if isElse {
				break
			}
			if !p.isKeyword("elif") && !p.isKeyword("else") {
				break
			}
		}
		return hg, nil
	default:
		return nil, p.pErr("expected '=' or ':' after handler name %q", nameTok.Text)
	}
}

func (p *Parser) parseHandlerBranch() (*HandlerBranch, bool, error) {
	switch {
	case p.isKeyword("if") || p.isKeyword("elif"):
		tok := p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		if _, err := p.expectArrow(); err != nil {
			return nil, false, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		return &HandlerBranch{Cond: cond, Body: body, Pos: tok.Position()}, false, nil
	case p.isKeyword("else"):
		tok := p.advance()
		if _, err := p.expectArrow(); err != nil {
			return nil, false, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		return &HandlerBranch{Body: body, Pos: tok.Position()}, true, nil
	default:
		return nil, false, p.pErr("expected 'if', 'elif', or 'else'")
	}
}

// expectArrow consumes the `->` token, lexed as two TokOp '-' and '>'
// tokens, or a single comparison-lexed '>' following a '-' op.
func (p *Parser) expectArrow() (Token, error) {
	minus, err := p.expect(TokOp)
	if err != nil || minus.Text != "-" {
		return Token{}, p.pErr("expected '->'")
	}
	gt := p.cur()
	if gt.Type != TokOp || gt.Text != ">" {
		return Token{}, p.pErr("expected '->'")
	}
	p.advance()
	return minus, nil
}

// ---- Expression grammar ----
//
// Precedence, loosest to tightest:
//   ternary ?:
//   or / xor
//   and
//   comparison == != < <= > >=
//   additive + -
//   multiplicative * /
//   power ^
//   unary - (and postfix cast/slice)
//   primary

func (p *Parser) parseExpr() (Expr, error) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (Expr, error) {
	cond, err := p.parseIfExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Type == TokQuestion {
		tok := p.advance()
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon); err != nil {
			return nil, err
		}
		els, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &TernaryExpr{baseExpr: baseExpr{tok.Position()}, Cond: cond, Then: then, Else: els}, nil
	}
	return cond, nil
}

func (p *Parser) parseIfExpr() (Expr, error) {
	if !p.isKeyword("if") {
		return p.parseOr()
	}
	tok := p.advance()
	ie := &IfExpr{baseExpr: baseExpr{tok.Position()}}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectArrow(); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	ie.Branches = append(ie.Branches, CondBranch{Cond: cond, Body: body})
	for p.isKeyword("elif") {
		p.advance()
		c, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectArrow(); err != nil {
			return nil, err
		}
		b, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ie.Branches = append(ie.Branches, CondBranch{Cond: c, Body: b})
	}
	if p.isKeyword("else") {
		p.advance()
		if _, err := p.expectArrow(); err != nil {
			return nil, err
		}
		b, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ie.Else = b
	}
	return ie, nil
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") || p.isKeyword("xor") {
		opTok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{baseExpr: baseExpr{opTok.Position()}, Op: opTok.Text, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		opTok := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{baseExpr: baseExpr{opTok.Position()}, Op: opTok.Text, Left: left, Right: right}
	}
	return left, nil
}

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == TokOp && comparisonOps[p.cur().Text] {
		opTok := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{baseExpr: baseExpr{opTok.Position()}, Op: opTok.Text, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == TokOp && (p.cur().Text == "+" || p.cur().Text == "-") && !p.nextIsArrowGt() {
		opTok := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{baseExpr: baseExpr{opTok.Position()}, Op: opTok.Text, Left: left, Right: right}
	}
	return left, nil
}

// nextIsArrowGt guards against consuming the '-' of a '->' arrow as a
// subtraction operator while inside a handler branch condition.
func (p *Parser) nextIsArrowGt() bool {
	return p.cur().Text == "-" && p.at(1).Type == TokOp && p.at(1).Text == ">"
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == TokOp && (p.cur().Text == "*" || p.cur().Text == "/") {
		opTok := p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{baseExpr: baseExpr{opTok.Position()}, Op: opTok.Text, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePower() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.cur().Type == TokOp && p.cur().Text == "^" {
		opTok := p.advance()
		right, err := p.parsePower() // right-associative
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{baseExpr: baseExpr{opTok.Position()}, Op: "^", Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.cur().Type == TokOp && p.cur().Text == "-" {
		opTok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		zero := &IntLit{baseExpr: baseExpr{opTok.Position()}, Value: 0}
		return &BinaryExpr{baseExpr: baseExpr{opTok.Position()}, Op: "-", Left: zero, Right: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix applies `as`/`as!` casts and `[lo:hi]` slices after a
// primary, left-associatively.
func (p *Parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isKeyword("as"):
			tok := p.advance()
			force := false
			if p.cur().Type == TokOp && p.cur().Text == "!" {
				p.advance()
				force = true
			}
			unitTok, err := p.expect(TokIdent)
			if err != nil {
				return nil, err
			}
			expr = &CastExpr{baseExpr: baseExpr{tok.Position()}, Value: expr, Unit: unitTok.Text, Force: force}
		case p.cur().Type == TokLBracket:
			tok := p.advance()
			lo, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokColon); err != nil {
				return nil, err
			}
			hi, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokRBracket); err != nil {
				return nil, err
			}
			expr = &SliceExpr{baseExpr: baseExpr{tok.Position()}, Value: expr, Low: lo, High: hi}
		default:
			return expr, nil
		}
	}
}

var singleArgFuncs = map[string]bool{
	"abs": true, "ceil": true, "floor": true, "round": true,
	"log10": true, "ln": true, "count": true, "sum": true,
	"mean": true, "min": true, "max": true, "std": true,
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.cur()
	switch tok.Type {
	case TokNumber:
		p.advance()
		return p.parseNumberLit(tok)
	case TokString:
		p.advance()
		return &StringLit{baseExpr: baseExpr{tok.Position()}, Value: tok.Text}, nil
	case TokLParen:
		p.advance()
		first, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur().Type == TokComma {
			p.advance()
			second, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokRParen); err != nil {
				return nil, err
			}
			return &PositionExpr{baseExpr: baseExpr{tok.Position()}, X: first, Y: second}, nil
		}
		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}
		return first, nil
	case TokKeyword:
		switch tok.Text {
		case "true":
			p.advance()
			return &BoolLit{baseExpr: baseExpr{tok.Position()}, Value: true}, nil
		case "false":
			p.advance()
			return &BoolLit{baseExpr: baseExpr{tok.Position()}, Value: false}, nil
		case "limit":
			return p.parseLimitExpr()
		case "create":
			return p.parseCreateExpr()
		case "prior", "current", "here", "meta":
			return p.parseAttributeAccess(tok.Text)
		case "external":
			return p.parseExternalExpr()
		case "config":
			return p.parseConfigExpr()
		}
		return nil, p.pErr("unexpected keyword %q in expression", tok.Text)
	case TokIdent:
		if tok.Text == "map" {
			return p.parseMapExpr()
		}
		if tok.Text == "sample" {
			return p.parseSampleExpr()
		}
		if singleArgFuncs[tok.Text] && p.at(1).Type == TokLParen {
			p.advance()
			p.advance() // (
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokRParen); err != nil {
				return nil, err
			}
			return &FuncCallExpr{baseExpr: baseExpr{tok.Position()}, Name: tok.Text, Arg: arg}, nil
		}
		if p.at(1).Text == "within" {
			return p.parseWithinExpr()
		}
		p.advance()
		return p.parseIdentOrAccess(tok)
	default:
		return nil, p.pErr("unexpected token %s %q in expression", tok.Type, tok.Text)
	}
}

// sampleWords follow a sample count and are never read as its unit.
var sampleWords = map[string]bool{"from": true, "uniform": true, "normal": true}

func (p *Parser) parseNumberLit(tok Token) (Expr, error) {
	unit := ""
	if next := p.cur(); next.Type == TokIdent && !IsReserved(next.Text) && next.Line == tok.Line && !sampleWords[next.Text] {
		unit = p.advance().Text
	}
	if strings.Contains(tok.Text, ".") {
		return &DecimalLit{baseExpr: baseExpr{tok.Position()}, Value: tok.Text, Unit: unit}, nil
	}
	n, err := strconv.ParseInt(tok.Text, 10, 64)
	if err != nil {
		return &DecimalLit{baseExpr: baseExpr{tok.Position()}, Value: tok.Text, Unit: unit}, nil
	}
	return &IntLit{baseExpr: baseExpr{tok.Position()}, Value: n, Unit: unit}, nil
}

// parseIdentOrAccess handles dotted attribute paths and plain
// identifiers, including `<EntityName>.<attr>` cross-entity access.
func (p *Parser) parseIdentOrAccess(first Token) (Expr, error) {
	parts := strings.Split(first.Text, ".")
	for p.cur().Type == TokDot {
		p.advance()
		nextTok, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		parts = append(parts, nextTok.Text)
	}
	if len(parts) == 1 {
		return &Ident{baseExpr: baseExpr{first.Position()}, Name: parts[0]}, nil
	}
	return &AttributeAccessExpr{baseExpr: baseExpr{first.Position()}, Scope: parts[0], Path: parts[1:]}, nil
}

func (p *Parser) parseAttributeAccess(scope string) (Expr, error) {
	tok := p.advance() // consume scope keyword
	if _, err := p.expect(TokDot); err != nil {
		return nil, err
	}
	var path []string
	for {
		nameTok, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		path = append(path, nameTok.Text)
		if p.cur().Type != TokDot {
			break
		}
		p.advance()
	}
	return &AttributeAccessExpr{baseExpr: baseExpr{tok.Position()}, Scope: scope, Path: path}, nil
}

func (p *Parser) parseExternalExpr() (Expr, error) {
	tok := p.advance() // external
	if _, err := p.expect(TokLBracket); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRBracket); err != nil {
		return nil, err
	}
	ext := &ExternalExpr{baseExpr: baseExpr{tok.Position()}, Name: nameTok.Text}
	if p.isKeyword("at") {
		p.advance()
		at, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ext.At = at
	}
	return ext, nil
}

func (p *Parser) parseConfigExpr() (Expr, error) {
	tok := p.advance() // config
	nameTok, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	cfg := &ConfigExpr{baseExpr: baseExpr{tok.Position()}, Name: nameTok.Text}
	if p.isKeyword("else") {
		p.advance()
		def, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cfg.Default = def
	}
	return cfg, nil
}

func (p *Parser) parseLimitExpr() (Expr, error) {
	tok := p.advance() // limit
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("to"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBracket); err != nil {
		return nil, err
	}
	lo, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokComma); err != nil {
		return nil, err
	}
	hi, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRBracket); err != nil {
		return nil, err
	}
	return &LimitExpr{baseExpr: baseExpr{tok.Position()}, Value: val, Low: lo, High: hi}, nil
}

// parseMapExpr handles both `map v from [a,b] to [c,d] linear` and the
// parameterized `... sigmoid <param>` form.
func (p *Parser) parseMapExpr() (Expr, error) {
	tok := p.advance() // map
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("from") {
		return nil, p.pErr("expected 'from' in map expression")
	}
	p.advance()
	if _, err := p.expect(TokLBracket); err != nil {
		return nil, err
	}
	fromLow, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokComma); err != nil {
		return nil, err
	}
	fromHigh, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRBracket); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("to"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBracket); err != nil {
		return nil, err
	}
	toLow, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokComma); err != nil {
		return nil, err
	}
	toHigh, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRBracket); err != nil {
		return nil, err
	}

	if p.cur().Type == TokIdent && p.cur().Text == "linear" {
		p.advance()
		return &MapLinearExpr{baseExpr: baseExpr{tok.Position()}, Value: val, FromLow: fromLow, FromHigh: fromHigh, ToLow: toLow, ToHigh: toHigh}, nil
	}
	methodTok, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	param, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &MapParamExpr{baseExpr: baseExpr{tok.Position()}, Value: val, FromLow: fromLow, FromHigh: fromHigh, ToLow: toLow, ToHigh: toHigh, Method: methodTok.Text, Param: param}, nil
}

func (p *Parser) parseSampleExpr() (Expr, error) {
	tok := p.advance() // sample
	count, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	kind := ""
	if p.cur().Type == TokIdent && (p.cur().Text == "uniform" || p.cur().Text == "normal") {
		kind = p.advance().Text
	}
	if !p.isKeyword("from") {
		return nil, p.pErr("expected 'from' in sample expression")
	}
	p.advance()
	source, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	sample := &SampleExpr{baseExpr: baseExpr{tok.Position()}, Count: count, Source: source, Kind: kind}
	if p.cur().Type == TokIdent && p.cur().Text == "with" {
		p.advance()
		if _, err := p.expectKeyword("replacement"); err != nil {
			return nil, err
		}
		sample.Replacement = true
	}
	return sample, nil
}

func (p *Parser) parseWithinExpr() (Expr, error) {
	kindTok := p.advance()
	if !p.isKeyword("within") {
		return nil, p.pErr("expected 'within'")
	}
	p.advance()
	radius, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	unit := ""
	if p.cur().Type == TokIdent && !IsReserved(p.cur().Text) {
		unit = p.advance().Text
	} else if lit, ok := radius.(*IntLit); ok {
		unit = lit.Unit
	} else if lit, ok := radius.(*DecimalLit); ok {
		unit = lit.Unit
	}
	if !p.isKeyword("of") {
		return nil, p.pErr("expected 'of' in spatial query")
	}
	p.advance()
	if _, err := p.expectKeyword("here"); err != nil {
		return nil, err
	}
	return &WithinExpr{baseExpr: baseExpr{kindTok.Position()}, EntityKind: kindTok.Text, Radius: radius, RadiusUnit: unit}, nil
}

func (p *Parser) parseCreateExpr() (Expr, error) {
	tok := p.advance() // create
	count, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("of") {
		return nil, p.pErr("expected 'of' in create expression")
	}
	p.advance()
	kindTok, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	ce := &CreateExpr{baseExpr: baseExpr{tok.Position()}, Count: count, Kind: kindTok.Text}
	if p.isKeyword("at") {
		p.advance()
		pos, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Position = pos
	}
	return ce, nil
}
