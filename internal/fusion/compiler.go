package fusion

import (
	"fmt"
	"sort"

	"github.com/vinkius-labs/mcp-fusion/internal/digest"
	"github.com/vinkius-labs/mcp-fusion/internal/fusionschema"
)

// ActionFlags snapshots an action's tri-state operational flags at compile
// time.
type ActionFlags struct {
	ReadOnly    *bool
	Destructive *bool
	Idempotent  *bool
}

// StateSyncHint is the frozen, compiled form of one state-sync rule.
type StateSyncHint struct {
	Pattern      string
	Invalidates  []string
	CacheControl string
}

// ToolDefinition is the public surface advertised to callers.
type ToolDefinition struct {
	Name        string
	Description string
	Tags        []string
	Annotations map[string]any
	InputSchema fusionschema.JSONSchema
}

// DispatchEntry is everything needed to execute one action.
type DispatchEntry struct {
	Action     string
	Schema     fusionschema.JSONSchema
	Validator  *fusionschema.Validator
	Middleware []Middleware
	Handler    HandlerFunc
	Flags      ActionFlags
	Presenter  *Presenter
}

// CompiledTool is the immutable output of Builder.Compile.
type CompiledTool struct {
	Definition     ToolDefinition
	Dispatch       map[string]*DispatchEntry
	StateSyncHints []StateSyncHint
	Fingerprint    string
	actionOrder    []string
}

// Actions returns the compiled action keys in registration order.
func (c *CompiledTool) Actions() []string {
	return append([]string(nil), c.actionOrder...)
}

// Compile validates the accumulated descriptor, freezes the builder, and
// produces a CompiledTool. Calling Compile again returns the same result
// without re-running the algorithm (idempotent per spec.md §4.1), unless a
// mutator has since recorded an error (e.g. BUILDER_FROZEN), which is then
// returned instead.
func (b *Builder) Compile() (*CompiledTool, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.compiled != nil {
		return b.compiled, nil
	}
	if b.name == "" {
		return nil, NewError(CodeValidationError, "tool name must not be empty")
	}

	effectiveOmit := make(map[string]map[string]bool, len(b.actions))
	for key, a := range b.actions {
		omit := make(map[string]bool)
		if a.group != "" {
			if scope, ok := b.groups[a.group]; ok {
				for f := range scope.omitCommon {
					omit[f] = true
				}
			}
		}
		for f := range a.omitCommon {
			omit[f] = true
		}
		effectiveOmit[key] = omit
	}

	// Step 1: compute usage sets per common field, drop unused fields,
	// annotate descriptions.
	commonDisplay := make(fusionschema.Shape, len(b.commonSchema))
	totalActions := len(b.actionOrder)
	for name, field := range b.commonSchema {
		var usedBy []string
		for _, key := range b.actionOrder {
			if !effectiveOmit[key][name] {
				usedBy = append(usedBy, key)
			}
		}
		if len(usedBy) == 0 {
			continue
		}
		annotated := field
		suffix := fusionschema.RequiredForDescription(usedBy, totalActions)
		if annotated.Description != "" {
			annotated.Description = annotated.Description + " " + suffix
		} else {
			annotated.Description = suffix
		}
		commonDisplay[name] = annotated
	}

	// Step 2: cross-action schema conflict detection.
	fieldOwner := make(map[string]fusionschema.FieldSpec)
	fieldOwnerAction := make(map[string]string)
	for _, key := range b.actionOrder {
		a := b.actions[key]
		for name, field := range a.spec.Schema {
			if prev, ok := fieldOwner[name]; ok {
				if !fusionschema.StructuralEqual(prev, field) {
					return nil, NewError(CodeSchemaConflict,
						fmt.Sprintf("field %q has conflicting types between actions %q and %q", name, fieldOwnerAction[name], key))
				}
				continue
			}
			fieldOwner[name] = field
			fieldOwnerAction[name] = key
		}
	}

	// Step 3 & 4: build branch schemas and dispatch entries.
	dispatch := make(map[string]*DispatchEntry, len(b.actionOrder))
	branches := make(map[string]fusionschema.JSONSchema, len(b.actionOrder))
	for _, key := range b.actionOrder {
		a := b.actions[key]
		merged := make(fusionschema.Shape, len(commonDisplay)+len(a.spec.Schema))
		for name, field := range commonDisplay {
			if effectiveOmit[key][name] {
				continue
			}
			merged[name] = field
		}
		for name, field := range a.spec.Schema {
			merged[name] = field
		}
		branch := fusionschema.BranchSchema(key, merged)
		branches[key] = branch

		validator, err := fusionschema.CompileCached(b.name+"#"+key, branch)
		if err != nil {
			return nil, fmt.Errorf("compiling schema for action %s.%s: %w", b.name, key, err)
		}

		var chain []Middleware
		chain = append(chain, b.globalMiddleware...)
		if a.group != "" {
			if scope, ok := b.groups[a.group]; ok {
				chain = append(chain, scope.middleware...)
			}
		}

		flags := ActionFlags{ReadOnly: a.spec.ReadOnly, Destructive: a.spec.Destructive, Idempotent: a.spec.Idempotent}
		if coAssertedCount(flags) > 2 {
			return nil, NewError(CodeSchemaConflict, "action "+key+" co-asserts all three of readOnly/destructive/idempotent")
		}

		dispatch[key] = &DispatchEntry{
			Action:     key,
			Schema:     branch,
			Validator:  validator,
			Middleware: chain,
			Handler:    a.spec.Handler,
			Flags:      flags,
			Presenter:  a.spec.Returns,
		}
	}

	inputSchema := fusionschema.UnionSchema(branches, b.actionOrder)

	def := ToolDefinition{
		Name:        b.name,
		Description: b.description,
		Tags:        append([]string(nil), b.tags...),
		Annotations: cloneAnnotations(b.annotations),
		InputSchema: inputSchema,
	}

	hints := make([]StateSyncHint, 0, len(b.syncOrder))
	for _, pattern := range b.syncOrder {
		r := b.syncRules[pattern]
		hints = append(hints, StateSyncHint{
			Pattern:      r.pattern,
			Invalidates:  append([]string(nil), r.invalidates...),
			CacheControl: r.cacheControl,
		})
	}

	fingerprint, err := digest.Sum(fingerprintView{
		Name:        def.Name,
		Description: def.Description,
		Tags:        def.Tags,
		Annotations: def.Annotations,
		InputSchema: def.InputSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("fingerprinting tool %s: %w", b.name, err)
	}

	compiled := &CompiledTool{
		Definition:     def,
		Dispatch:       dispatch,
		StateSyncHints: hints,
		Fingerprint:    fingerprint,
		actionOrder:    append([]string(nil), b.actionOrder...),
	}
	b.compiled = compiled
	b.frozen = true
	return compiled, nil
}

// fingerprintView is the subset of a definition the fingerprint is computed
// over; kept as a named struct (rather than ToolDefinition itself) so that
// future definition fields can be excluded from the digest deliberately.
type fingerprintView struct {
	Name        string
	Description string
	Tags        []string
	Annotations map[string]any
	InputSchema fusionschema.JSONSchema
}

func coAssertedCount(f ActionFlags) int {
	n := 0
	if f.ReadOnly != nil && *f.ReadOnly {
		n++
	}
	if f.Destructive != nil && *f.Destructive {
		n++
	}
	if f.Idempotent != nil && *f.Idempotent {
		n++
	}
	return n
}

func cloneAnnotations(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// sortedKeys returns the keys of a dispatch table in lexical order. No code
// in the module calls it.
func sortedKeys(m map[string]*DispatchEntry) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
