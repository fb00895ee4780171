// Package compiler lowers a parsed Josh program (internal/lang) into
// compiled Action chains that the runtime scheduler executes against a
// push-down stack machine.
package compiler

import (
	"github.com/schmidtdse/joshsim/internal/josherr"
	"github.com/schmidtdse/joshsim/internal/values"
)

// Machine is a per-handler-invocation value stack plus the handler's
// end-of-execution signal. A Machine never crosses invocations; the
// scheduler allocates one per attribute evaluation.
type Machine struct {
	stack   []values.Value
	locals  map[string]values.Value
	ended   bool
	result  values.Value
}

// NewMachine allocates an empty machine with an empty stack and no
// local variable bindings.
func NewMachine() *Machine {
	return &Machine{locals: make(map[string]values.Value)}
}

func (m *Machine) Push(v values.Value) { m.stack = append(m.stack, v) }

func (m *Machine) Pop() (values.Value, error) {
	if len(m.stack) == 0 {
		return nil, josherr.New(josherr.Arithmetic, "stack underflow")
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *Machine) Peek() (values.Value, error) {
	if len(m.stack) == 0 {
		return nil, josherr.New(josherr.Arithmetic, "stack underflow")
	}
	return m.stack[len(m.stack)-1], nil
}

func (m *Machine) Dup() error {
	v, err := m.Peek()
	if err != nil {
		return err
	}
	m.Push(v)
	return nil
}

func (m *Machine) Swap() error {
	if len(m.stack) < 2 {
		return josherr.New(josherr.Arithmetic, "stack underflow on swap")
	}
	n := len(m.stack)
	m.stack[n-1], m.stack[n-2] = m.stack[n-2], m.stack[n-1]
	return nil
}

// End marks the handler as having produced its return value. Further
// Actions in the chain must not run once isEnded is true.
func (m *Machine) End(v values.Value) { m.ended = true; m.result = v }

func (m *Machine) IsEnded() bool { return m.ended }

func (m *Machine) Result() (values.Value, error) {
	if !m.ended {
		return nil, josherr.New(josherr.Arithmetic, "handler terminated without end")
	}
	return m.result, nil
}

func (m *Machine) SaveLocal(name string, v values.Value) { m.locals[name] = v }

func (m *Machine) LoadLocal(name string) (values.Value, bool) {
	v, ok := m.locals[name]
	return v, ok
}
