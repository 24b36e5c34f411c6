package fusionschema

import "sort"

// JSONSchema is a plain map representation of a JSON Schema document. It is
// kept untyped (rather than a struct) because the shapes we emit are small
// and ad hoc — one object schema per action branch, assembled into a
// discriminated union.
type JSONSchema = map[string]any

// fieldToJSONSchema renders a single FieldSpec as a JSON Schema fragment.
func fieldToJSONSchema(f FieldSpec) JSONSchema {
	m := JSONSchema{"type": f.Type}
	if f.Description != "" {
		m["description"] = f.Description
	}
	if len(f.Enum) > 0 {
		enum := make([]any, len(f.Enum))
		for i, v := range f.Enum {
			enum[i] = v
		}
		m["enum"] = enum
	}
	if f.Type == "array" && f.Items != nil {
		m["items"] = fieldToJSONSchema(*f.Items)
	}
	return m
}

// BranchSchema builds the object schema for a single action branch: the
// action discriminator plus the merged (reduced common + own) field set.
func BranchSchema(actionKey string, fields Shape) JSONSchema {
	props := JSONSchema{
		"action": JSONSchema{"const": actionKey},
	}
	required := []string{"action"}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := fields[name]
		props[name] = fieldToJSONSchema(f)
		if f.Required {
			required = append(required, name)
		}
	}
	return JSONSchema{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": true,
	}
}

// UnionSchema assembles the discriminated union over all action branches,
// in branch order, for the public inputSchema surfaced to clients
// (spec.md §4.1 step 3).
func UnionSchema(branches map[string]JSONSchema, order []string) JSONSchema {
	oneOf := make([]any, 0, len(order))
	for _, key := range order {
		oneOf = append(oneOf, branches[key])
	}
	return JSONSchema{
		"oneOf": oneOf,
	}
}
