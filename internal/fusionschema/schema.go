// Package fusionschema bridges the builder's lightweight field descriptors
// to a real JSON Schema validator. spec.md treats "a schema object
// supporting parse/optional/describe" as an external collaborator; this
// package is the concrete consumer of that collaborator
// (github.com/santhosh-tekuri/jsonschema/v6), so the rest of the compiler
// never has to know how validation actually happens.
package fusionschema

import (
	"fmt"
	"sort"
)

// FieldSpec describes one field of a tool's common or per-action schema.
// It intentionally stays far short of full JSON Schema — the builder deals
// in a small, typed shape, and this package is the only place that knows
// how to turn it into the real thing.
type FieldSpec struct {
	Type        string // "string", "number", "integer", "boolean", "array", "object"
	Description string
	Items       *FieldSpec // set when Type == "array"
	Enum        []string
	Required    bool
}

// Shape maps field names to their specs.
type Shape map[string]FieldSpec

// Clone returns a copy of the map so callers can replace entries or change
// a field's Description (e.g. to annotate "(always required)") without
// touching the original. Items pointers and Enum slices are shared with the
// original, not copied.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// StructuralEqual reports whether two field specs describe the same shape,
// ignoring Description and Required — the properties spec.md's
// cross-action conflict check cares about are the structural ones.
func StructuralEqual(a, b FieldSpec) bool {
	if a.Type != b.Type {
		return false
	}
	if !sameEnum(a.Enum, b.Enum) {
		return false
	}
	if a.Type == "array" {
		if (a.Items == nil) != (b.Items == nil) {
			return false
		}
		if a.Items != nil && !StructuralEqual(*a.Items, *b.Items) {
			return false
		}
	}
	return true
}

func sameEnum(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// RequiredForDescription returns the annotation spec.md §4.1 step 1 wants
// for a common field's description: "(always required)" when used by every
// action, or "Required for: {sorted action list}" otherwise.
func RequiredForDescription(usedBy []string, totalActions int) string {
	if len(usedBy) == totalActions {
		return "(always required)"
	}
	sorted := append([]string(nil), usedBy...)
	sort.Strings(sorted)
	return fmt.Sprintf("Required for: %v", sorted)
}
