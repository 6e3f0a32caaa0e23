package transform

// Form tags how far a circuit has been lowered. Forms are ordered: a circuit
// in a lower form satisfies any higher-form requirement, because lowering
// only ever tightens the invariants that hold on the IR.
type Form uint8

const (
	// UnknownForm places no constraint on the circuit.
	UnknownForm Form = iota
	// HighForm allows the full IR: aggregate types, conditionals, abstract
	// memories.
	HighForm
	// MidForm requires known widths everywhere.
	MidForm
	// LowForm additionally requires flat (ground-typed) components only.
	LowForm
)

// String returns the form's name.
func (f Form) String() string {
	switch f {
	case HighForm:
		return "high"
	case MidForm:
		return "mid"
	case LowForm:
		return "low"
	default:
		return "unknown"
	}
}

// Satisfies reports whether a circuit in form f meets a transform's declared
// input requirement. UnknownForm as a requirement accepts anything; an
// UnknownForm circuit satisfies only that.
func (f Form) Satisfies(required Form) bool {
	if required == UnknownForm {
		return true
	}
	return f >= required
}
