package sandbox

import (
	"math"
	"reflect"
)

// sanitizeValue walks a value exported from goja and applies the host
// serializer's coercion rules (spec.md §4.6): NaN and +/-Inf become nil,
// any value goja exports that isn't a plain JSON-representable type
// (functions, symbols) is coerced to nil rather than rejected outright,
// and a self-referential object or array is cut off and coerced to nil
// rather than recursed into forever.
func sanitizeValue(v any) any {
	return sanitize(v, make(map[uintptr]bool))
}

func sanitize(v any, seen map[uintptr]bool) any {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case map[string]any:
		ptr := reflect.ValueOf(val).Pointer()
		if seen[ptr] {
			return nil
		}
		seen[ptr] = true
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = sanitize(elem, seen)
		}
		delete(seen, ptr)
		return out
	case []any:
		if len(val) > 0 {
			ptr := reflect.ValueOf(val).Pointer()
			if seen[ptr] {
				return nil
			}
			seen[ptr] = true
			defer delete(seen, ptr)
		}
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = sanitize(elem, seen)
		}
		return out
	case string, bool, int, int64, nil:
		return val
	default:
		// goja can export functions, symbols, and other host-specific
		// types that have no JSON representation; coerce to null rather
		// than fail the whole call.
		return nil
	}
}
