package ir

import (
	"fmt"
)

// BitWidth returns the total number of bits occupied by a value of type t
// when flattened. It fails on nil or unknown-width types: callers that
// flatten (memory lowering, emitters) must reject unknown types at their
// boundary rather than guessing.
func BitWidth(t Type) (int, error) {
	switch typ := t.(type) {
	case UIntType:
		if typ.Width < 0 {
			return 0, fmt.Errorf("unknown UInt width")
		}
		return typ.Width, nil
	case SIntType:
		if typ.Width < 0 {
			return 0, fmt.Errorf("unknown SInt width")
		}
		return typ.Width, nil
	case ClockType, ResetType:
		return 1, nil
	case VectorType:
		elem, err := BitWidth(typ.Elem)
		if err != nil {
			return 0, err
		}
		return elem * typ.Len, nil
	case BundleType:
		total := 0
		for _, f := range typ.Fields {
			w, err := BitWidth(f.Type)
			if err != nil {
				return 0, fmt.Errorf("field %s: %w", f.Name, err)
			}
			total += w
		}
		return total, nil
	case nil:
		return 0, fmt.Errorf("nil type")
	default:
		return 0, fmt.Errorf("unhandled type %T", t)
	}
}

// AddrWidth returns the number of address bits needed to index depth
// entries, at least 1.
func AddrWidth(depth int) int {
	width := 1
	for (1 << width) < depth {
		width++
	}
	return width
}
