package transform

import (
	"encoding/json"

	"github.com/hwgo/fir/ir"
)

// Annotation is out-of-band metadata attached to a reference into the
// circuit. Annotations survive structural rewriting by being resolved
// through each pass's RenameMap: a renamed target moves the annotation, a
// split target fans it out, a deleted target drops it.
type Annotation interface {
	// Target returns the reference this annotation is attached to.
	Target() ir.Target
	// WithTarget returns a copy attached to a different reference.
	WithTarget(t ir.Target) Annotation
}

// GenericAnnotation carries an opaque payload for collaborators the
// middle-end does not interpret.
type GenericAnnotation struct {
	T       ir.Target
	Payload json.RawMessage
}

// Target implements Annotation.
func (a GenericAnnotation) Target() ir.Target { return a.T }

// WithTarget implements Annotation.
func (a GenericAnnotation) WithTarget(t ir.Target) Annotation {
	a.T = t
	return a
}

// PinAnnotation requests that the named signals be exposed for external
// wiring. Memory lowering answers it by attaching a SinkAnnotation per pin
// to every black box it emits; the actual wiring is done by a separate
// pin-wiring transform.
type PinAnnotation struct {
	T    ir.Target
	Pins []string
}

// Target implements Annotation.
func (a PinAnnotation) Target() ir.Target { return a.T }

// WithTarget implements Annotation.
func (a PinAnnotation) WithTarget(t ir.Target) Annotation {
	a.T = t
	return a
}

// SinkAnnotation marks a module as a connection point for the named pin.
type SinkAnnotation struct {
	T   ir.Target
	Pin string
}

// Target implements Annotation.
func (a SinkAnnotation) Target() ir.Target { return a.T }

// WithTarget implements Annotation.
func (a SinkAnnotation) WithTarget(t ir.Target) Annotation {
	a.T = t
	return a
}

// TraceAnnotation requests instrumentation data for a module: the signal
// names and widths an external waveform-dumping tool needs to probe it.
// Writing dump files is the external tool's job; the middle-end only
// produces the signal list as plain data.
type TraceAnnotation struct {
	T ir.Target
}

// Target implements Annotation.
func (a TraceAnnotation) Target() ir.Target { return a.T }

// WithTarget implements Annotation.
func (a TraceAnnotation) WithTarget(t ir.Target) Annotation {
	a.T = t
	return a
}

// ProbeSignal is one signal an external waveform tool can watch.
type ProbeSignal struct {
	Name  string `json:"name"`
	Width int    `json:"width"`
}

// ProbeAnnotation answers a TraceAnnotation with the traced module's port
// signals and the flat signals of every memory lowered inside it.
type ProbeAnnotation struct {
	T       ir.Target
	Signals []ProbeSignal
}

// Target implements Annotation.
func (a ProbeAnnotation) Target() ir.Target { return a.T }

// WithTarget implements Annotation.
func (a ProbeAnnotation) WithTarget(t ir.Target) Annotation {
	a.T = t
	return a
}

// MemorySummary describes one lowered memory for downstream tooling
// (configuration-file generation, macro replacement). It is metadata only
// and has no effect on rename or port semantics.
type MemorySummary struct {
	Name        string `json:"name"`
	Width       int    `json:"width"`
	Depth       int    `json:"depth"`
	MaskGran    int    `json:"mask_gran,omitempty"` // 0 = unmasked
	Readers     int    `json:"readers"`
	Writers     int    `json:"writers"`
	ReadWriters int    `json:"readwriters"`
}

// MemorySummaryAnnotation collects the summaries of every memory a lowering
// run replaced.
type MemorySummaryAnnotation struct {
	T         ir.Target
	Summaries []MemorySummary
}

// Target implements Annotation.
func (a MemorySummaryAnnotation) Target() ir.Target { return a.T }

// WithTarget implements Annotation.
func (a MemorySummaryAnnotation) WithTarget(t ir.Target) Annotation {
	a.T = t
	return a
}

// ResolveAnnotations maps every annotation's target through renames.
// Annotations on deleted targets are dropped; annotations on split targets
// are duplicated, one per new target. A nil or empty rename map returns the
// input unchanged.
func ResolveAnnotations(annos []Annotation, renames *RenameMap) []Annotation {
	if renames.Len() == 0 {
		return annos
	}
	out := make([]Annotation, 0, len(annos))
	for _, a := range annos {
		for _, t := range renames.Targets(a.Target()) {
			out = append(out, a.WithTarget(t))
		}
	}
	return out
}
