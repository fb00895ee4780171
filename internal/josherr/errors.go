// Package josherr implements the §7 error taxonomy as a single wrapped
// error type instead of the reference CLI's ad hoc fmt.Errorf chains,
// so callers can branch on errors.As with a *josherr.Error target and
// switch on Kind.
package josherr

import "fmt"

// Kind names one of the error categories from the specification.
type Kind string

const (
	ParseError         Kind = "ParseError"
	ReservedWord       Kind = "ReservedWord"
	UnitMismatch       Kind = "UnitMismatch"
	UnknownConversion  Kind = "UnknownConversion"
	UnknownAttribute   Kind = "UnknownAttribute"
	CyclicDependency   Kind = "CyclicDependency"
	Arithmetic         Kind = "Arithmetic"
	FrozenMutation     Kind = "FrozenMutation"
	UnresolvedConfig   Kind = "UnresolvedConfig"
	IoError            Kind = "IoError"
	Cancelled          Kind = "Cancelled"
)

// Pos is a source location. The zero value means "not applicable".
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.Line == 0 && p.Col == 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Error is the single error type for every failure the engine raises.
type Error struct {
	Kind Kind
	Pos  Pos
	Msg  string
	Hint string
	Err  error
}

func (e *Error) Error() string {
	loc := e.Pos.String()
	switch {
	case loc != "" && e.Hint != "":
		return fmt.Sprintf("%s at %s: %s (%s)", e.Kind, loc, e.Msg, e.Hint)
	case loc != "":
		return fmt.Sprintf("%s at %s: %s", e.Kind, loc, e.Msg)
	case e.Hint != "":
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Msg, e.Hint)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no position and no wrapped cause.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// At builds an Error anchored to a source position.
func At(kind Kind, pos Pos, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error carrying an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// WithHint attaches remediation guidance (e.g. "did you mean 'step'?")
// and returns the same error for chaining.
func (e *Error) WithHint(format string, args ...interface{}) *Error {
	e.Hint = fmt.Sprintf(format, args...)
	return e
}

// Is reports whether err (or anything it wraps) is a *Error of kind k.
func Is(err error, k Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == k {
				return true
			}
			err = e.Err
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
