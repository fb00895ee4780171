package compiler

import (
	"github.com/schmidtdse/joshsim/internal/lang"
)

// EventKey identifies one handler group: an optional state gate, the
// attribute it computes, and the lifecycle event it fires on. State is
// "" for a state-agnostic (default) group.
type EventKey struct {
	State     string
	Attribute string
	Event     string
}

// Handler is one compiled branch of a handler group: an optional
// Selector (nil means unconditional, e.g. a bare assignment or a
// trailing `else`) gating a compiled Body.
type Handler struct {
	Selector Action
	Body     Action
}

// EventHandlerGroup is the ordered set of handlers sharing one
// EventKey. Handlers are tried in declaration order; the first whose
// selector is nil or true wins.
type EventHandlerGroup struct {
	Handlers []Handler
}

// Prototype is the shared, immutable metadata the scheduler
// instantiates entities from: the compiled handler tables, the
// attribute name<->index bijection, and precomputed lookup caches.
// Every instance of a prototype shares one Prototype; only each
// instance's attribute value array is unique to it.
type Prototype struct {
	Kind           string
	Name           string
	AttributeNames []string
	AttributeIndex map[string]int
	Groups         map[EventKey]*EventHandlerGroup

	// handlerCache maps a resolved (state, attribute, event) lookup to
	// the group that answers it, so runtime dispatch never rescans
	// Groups once warmed. State "" entries serve the state-agnostic
	// fallback.
	handlerCache map[EventKey]*EventHandlerGroup

	// NoHandlerSlots[event] is a bitset (by attribute slot) marking
	// attributes with no handler at all for that event, across every
	// state, so the scheduler can skip evaluation in O(1).
	NoHandlerSlots map[string][]bool
}

// attributeIndex builds the dense name<->index bijection in
// first-seen (attribute-declaration) order, since §4.4.7 requires
// newly created instances' init handlers run in that order.
func attributeIndex(names []string) ([]string, map[string]int) {
	seen := make(map[string]bool)
	var ordered []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			ordered = append(ordered, n)
		}
	}
	idx := make(map[string]int, len(ordered))
	for i, n := range ordered {
		idx[n] = i
	}
	return ordered, idx
}

// CompileEntity lowers one parsed entity stanza into a Prototype,
// compiling every handler group (state-agnostic and per-state) into
// Action chains.
func CompileEntity(ent *lang.EntityStanza) (*Prototype, error) {
	proto := &Prototype{
		Kind:   ent.Kind,
		Name:   ent.Name,
		Groups: make(map[EventKey]*EventHandlerGroup),
	}

	var attrNames []string
	events := make(map[string]bool)

	collect := func(state string, decls []*lang.HandlerGroupDecl) error {
		for _, hg := range decls {
			attrNames = append(attrNames, hg.Attribute)
			events[hg.Event] = true
			key := EventKey{State: state, Attribute: hg.Attribute, Event: hg.Event}
			group, err := compileHandlerGroup(hg)
			if err != nil {
				return err
			}
			proto.Groups[key] = group
		}
		return nil
	}

	if err := collect("", ent.Handlers); err != nil {
		return nil, err
	}
	for _, st := range ent.States {
		if err := collect(st.Name, st.Handlers); err != nil {
			return nil, err
		}
	}

	proto.AttributeNames, proto.AttributeIndex = attributeIndex(attrNames)
	proto.buildCaches(events)
	return proto, nil
}

// compileHandlerGroup lowers a HandlerGroupDecl's ordered branches into
// an EventHandlerGroup. Each branch's body Action is wrapped so it ends
// the handler (§4.4.4: execution yields a value via an explicit end).
func compileHandlerGroup(hg *lang.HandlerGroupDecl) (*EventHandlerGroup, error) {
	group := &EventHandlerGroup{}
	for _, branch := range hg.Branches {
		body, err := CompileExpr(branch.Body)
		if err != nil {
			return nil, err
		}
		endingBody := wrapEnd(body)

		var selector Action
		if branch.Cond != nil {
			cond, err := CompileExpr(branch.Cond)
			if err != nil {
				return nil, err
			}
			selector = cond
		}
		group.Handlers = append(group.Handlers, Handler{Selector: selector, Body: endingBody})
	}
	return group, nil
}

func wrapEnd(body Action) Action {
	return func(m *Machine, r Resolver) error {
		if err := body(m, r); err != nil {
			return err
		}
		v, err := m.Pop()
		if err != nil {
			return err
		}
		m.End(v)
		return nil
	}
}

// buildCaches populates handlerCache (currently an identity mirror of
// Groups, reserved for future per-event compaction) and
// NoHandlerSlots, the per-event bitset of attribute slots with no
// registered handler in any state.
func (p *Prototype) buildCaches(events map[string]bool) {
	p.handlerCache = make(map[EventKey]*EventHandlerGroup, len(p.Groups))
	for k, v := range p.Groups {
		p.handlerCache[k] = v
	}

	p.NoHandlerSlots = make(map[string][]bool, len(events))
	for event := range events {
		bitset := make([]bool, len(p.AttributeNames))
		for i, name := range p.AttributeNames {
			hasHandler := false
			for key := range p.Groups {
				if key.Event == event && key.Attribute == name {
					hasHandler = true
					break
				}
			}
			bitset[i] = !hasHandler
		}
		p.NoHandlerSlots[event] = bitset
	}
}

// LookupHandlerGroup implements §4.4.4 selection: state-specific group
// first, then the state-agnostic fallback.
func (p *Prototype) LookupHandlerGroup(state, attribute, event string) (*EventHandlerGroup, bool) {
	if state != "" {
		if g, ok := p.handlerCache[EventKey{State: state, Attribute: attribute, Event: event}]; ok {
			return g, true
		}
	}
	g, ok := p.handlerCache[EventKey{State: "", Attribute: attribute, Event: event}]
	return g, ok
}

// HasNoHandler reports whether attribute has no handler at all for
// event, across every state, using the precomputed bitset.
func (p *Prototype) HasNoHandler(event, attribute string) bool {
	slot, ok := p.AttributeIndex[attribute]
	if !ok {
		return true
	}
	bitset, ok := p.NoHandlerSlots[event]
	if !ok {
		return true
	}
	return bitset[slot]
}
