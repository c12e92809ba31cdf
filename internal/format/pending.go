package format

// slot is the set of things waiting to be attached to the next value.
type slot uint8

const (
	noPending   slot = 0
	typePending slot = 1 << iota
	fieldPending
	bothPending = typePending | fieldPending
)

// pending holds the type annotation and field name that the next written
// value consumes.
type pending struct {
	state    slot
	showInfo bool

	annotation string
	required   bool

	field   string
	element bool
	// initial marks the root placeholder, which a caller may replace.
	initial bool
}

func newPending(showInfo bool) pending {
	p := pending{showInfo: showInfo}
	p.setElement()
	p.initial = true

	return p
}

func (p *pending) provide(name string) {
	if !p.showInfo || p.state&typePending != 0 {
		return
	}

	p.annotation = name
	p.required = false
	p.state |= typePending
}

func (p *pending) require(name string) {
	if p.state&typePending != 0 && p.required {
		violation("type annotation %q required while %q is still pending", name, p.annotation)
	}

	p.annotation = name
	p.required = true
	p.state |= typePending
}

func (p *pending) hasAnnotation() bool {
	return p.state&typePending != 0
}

// claim checks that no earlier field name is still waiting for its value.
func (p *pending) claim(next string) {
	if p.state&fieldPending != 0 && !p.initial {
		violation("field %q begun while %q is still waiting for a value", next, p.field)
	}

	p.initial = false
}

func (p *pending) setField(name string) {
	p.claim(name)
	p.field = name
	p.element = false
	p.state |= fieldPending
}

func (p *pending) setElement() {
	p.claim(Placeholder)
	p.field = Placeholder
	p.element = true
	p.state |= fieldPending
}

// takeAnnotation consumes the pending annotation, if any.
func (p *pending) takeAnnotation() (string, bool) {
	if p.state&typePending == 0 {
		return "", false
	}

	name := p.annotation
	p.annotation = ""
	p.required = false
	p.state &^= typePending

	return name, true
}

// takeField consumes the pending field name. Every value needs one.
func (p *pending) takeField() (name string, element bool) {
	if p.state&fieldPending == 0 {
		violation("value written without a field name")
	}

	name, element = p.field, p.element
	p.field = ""
	p.element = false
	p.initial = false
	p.state &^= fieldPending

	return name, element
}

func (s slot) String() string {
	switch s {
	case noPending:
		return "nothing"
	case typePending:
		return "a type annotation"
	case fieldPending:
		return "a field name"
	case bothPending:
		return "a type annotation and a field name"
	default:
		return "an unknown state"
	}
}
