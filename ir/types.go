package ir

// Type represents a circuit type.
//
// Ground types (UIntType, SIntType, ClockType, ResetType) carry a bit width;
// aggregate types (VectorType, BundleType) are built recursively from other
// types. A width below zero marks the type as unknown; lowering passes reject
// unknown types at their boundary.
type Type interface {
	typeKind()
}

// UnknownWidth marks a ground type whose width has not been inferred.
const UnknownWidth = -1

// UIntType is an unsigned integer of the given bit width.
type UIntType struct {
	Width int
}

func (UIntType) typeKind() {}

// SIntType is a signed (two's complement) integer of the given bit width.
type SIntType struct {
	Width int
}

func (SIntType) typeKind() {}

// ClockType is a single-bit clock signal.
type ClockType struct{}

func (ClockType) typeKind() {}

// ResetType is a single-bit reset signal.
type ResetType struct{}

func (ResetType) typeKind() {}

// VectorType is a fixed-length sequence of elements of one type.
type VectorType struct {
	Elem Type
	Len  int
}

func (VectorType) typeKind() {}

// BundleType is an ordered collection of named, individually oriented fields.
type BundleType struct {
	Fields []Field
}

func (BundleType) typeKind() {}

// Field is a single bundle member. Flip reverses the field's orientation
// relative to the bundle, representing the backward half of a bidirectional
// aggregate (for example the read-data leg of a memory port).
type Field struct {
	Name string
	Flip bool
	Type Type
}

// Bool is the 1-bit unsigned type, used for enables, modes, and flags.
func Bool() Type {
	return UIntType{Width: 1}
}

// Known reports whether every width reachable from t has been resolved.
// A nil type is not known.
func Known(t Type) bool {
	switch typ := t.(type) {
	case UIntType:
		return typ.Width >= 0
	case SIntType:
		return typ.Width >= 0
	case ClockType, ResetType:
		return true
	case VectorType:
		return Known(typ.Elem)
	case BundleType:
		for _, f := range typ.Fields {
			if !Known(f.Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsAggregate reports whether t is a vector or bundle.
func IsAggregate(t Type) bool {
	switch t.(type) {
	case VectorType, BundleType:
		return true
	default:
		return false
	}
}
