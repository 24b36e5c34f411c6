package fusion

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/vinkius-labs/mcp-fusion/internal/fusionschema"
)

// Next is the continuation a middleware calls to proceed down the chain.
// The innermost Next invokes the action handler itself.
type Next func(ctx context.Context, args json.RawMessage) (any, error)

// Middleware wraps a Next with behavior that runs before and/or after it.
// A middleware may call next (optionally after mutating ctx), return a
// short-circuit value without calling next, or return an error — there is
// no separate "throw" channel in Go, errors already carry that meaning.
type Middleware func(ctx context.Context, args json.RawMessage, next Next) (any, error)

// HandlerFunc is the leaf of a dispatch chain. Its return value need not
// already be a Response: anything else is wrapped as a single text block
// (the "implicit success wrapping" spec.md §4.1 step 5 describes).
type HandlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Presenter names an optional output-rendering strategy for an action's
// result, surfaced read-only in ToolContract.surface.actions[key].presenterName.
type Presenter struct {
	Name string
}

// ActionSpec is the declarative description of one action, as supplied to
// Builder.Action / GroupBuilder.Action.
type ActionSpec struct {
	Schema      fusionschema.Shape
	ReadOnly    *bool
	Destructive *bool
	Idempotent  *bool
	OmitCommon  []string
	Handler     HandlerFunc
	Returns     *Presenter
}

type actionEntry struct {
	key        string // compound group.action for grouped actions
	rawKey     string // the simple name within its scope
	group      string // "" for top-level actions
	spec       ActionSpec
	omitCommon map[string]bool
}

type groupScope struct {
	name       string
	middleware []Middleware
	omitCommon map[string]bool
}

type stateSyncRule struct {
	pattern      string
	invalidates  []string
	cacheControl string // "immutable" | "no-store" | ""
}

// Builder accumulates a tool's declarative description. It is mutable only
// until the first successful Compile; every mutator after that is a no-op
// that records BUILDER_FROZEN. Builder is not safe for concurrent use —
// tool assembly happens once, at startup, on a single goroutine.
type Builder struct {
	name         string
	description  string
	tags         []string
	tagSet       map[string]bool
	annotations  map[string]any
	commonSchema fusionschema.Shape

	actions     map[string]*actionEntry
	actionOrder []string

	globalMiddleware []Middleware

	groups     map[string]*groupScope
	groupOrder []string

	syncRules map[string]*stateSyncRule
	syncOrder []string

	frozen   bool
	compiled *CompiledTool
	err      error
}

// NewBuilder starts a tool descriptor named name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:        name,
		tagSet:      make(map[string]bool),
		annotations: make(map[string]any),
		actions:     make(map[string]*actionEntry),
		groups:      make(map[string]*groupScope),
		syncRules:   make(map[string]*stateSyncRule),
	}
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// locked reports whether the builder can no longer accept mutations,
// recording BUILDER_FROZEN the first time a caller tries anyway.
func (b *Builder) locked() bool {
	if b.err != nil {
		return true
	}
	if b.frozen {
		b.fail(NewError(CodeBuilderFrozen, "tool "+b.name+" is already compiled"))
		return true
	}
	return false
}

// Description sets the tool's model-facing prose.
func (b *Builder) Description(d string) *Builder {
	if b.locked() {
		return b
	}
	b.description = d
	return b
}

// Tags appends capability labels, preserving order and de-duplicating.
func (b *Builder) Tags(tags ...string) *Builder {
	if b.locked() {
		return b
	}
	for _, t := range tags {
		if b.tagSet[t] {
			continue
		}
		b.tagSet[t] = true
		b.tags = append(b.tags, t)
	}
	return b
}

// Annotation sets one opaque key/value pair passed through to clients.
func (b *Builder) Annotation(key string, value any) *Builder {
	if b.locked() {
		return b
	}
	b.annotations[key] = value
	return b
}

// CommonSchema replaces (never merges) the shared field shape.
func (b *Builder) CommonSchema(shape fusionschema.Shape) *Builder {
	if b.locked() {
		return b
	}
	b.commonSchema = shape.Clone()
	return b
}

// Middleware appends to the tool-global chain.
func (b *Builder) Middleware(mw ...Middleware) *Builder {
	if b.locked() {
		return b
	}
	b.globalMiddleware = append(b.globalMiddleware, mw...)
	return b
}

// Action registers a top-level action.
func (b *Builder) Action(key string, spec ActionSpec) *Builder {
	if b.locked() {
		return b
	}
	b.addAction(key, key, "", spec)
	return b
}

func (b *Builder) addAction(fullKey, rawKey, group string, spec ActionSpec) {
	if strings.Contains(rawKey, ".") {
		b.fail(NewError(CodeDottedActionName, "action name "+rawKey+" must not contain '.'"))
		return
	}
	if _, exists := b.actions[fullKey]; exists {
		b.fail(NewError(CodeDuplicateAction, "action "+fullKey+" already registered"))
		return
	}
	omit := make(map[string]bool, len(spec.OmitCommon))
	for _, f := range spec.OmitCommon {
		omit[f] = true
	}
	entry := &actionEntry{key: fullKey, rawKey: rawKey, group: group, spec: spec, omitCommon: omit}
	b.actions[fullKey] = entry
	b.actionOrder = append(b.actionOrder, fullKey)
}

// GroupBuilder is the scope handed to the callback passed to Builder.Group.
// It has no Group method of its own, so nested groups are a compile error
// in the calling code rather than a runtime check.
type GroupBuilder struct {
	b     *Builder
	scope *groupScope
}

// Group opens a named group scope with its own middleware chain and
// omitCommon defaults, runs fn against it, and returns to the tool scope.
// Nested groups are not supported (spec.md §4.1): fn's parameter type
// offers no way to open another group.
func (b *Builder) Group(name string, fn func(*GroupBuilder)) *Builder {
	if b.locked() {
		return b
	}
	scope, exists := b.groups[name]
	if !exists {
		scope = &groupScope{name: name, omitCommon: make(map[string]bool)}
		b.groups[name] = scope
		b.groupOrder = append(b.groupOrder, name)
	}
	fn(&GroupBuilder{b: b, scope: scope})
	return b
}

// Action registers an action within the group; its compiled key is
// "group.key".
func (g *GroupBuilder) Action(key string, spec ActionSpec) *GroupBuilder {
	if g.b.locked() {
		return g
	}
	g.b.addAction(g.scope.name+"."+key, key, g.scope.name, spec)
	return g
}

// Middleware appends to this group's chain, run after the tool-global
// chain for actions belonging to the group.
func (g *GroupBuilder) Middleware(mw ...Middleware) *GroupBuilder {
	if g.b.locked() {
		return g
	}
	g.scope.middleware = append(g.scope.middleware, mw...)
	return g
}

// OmitCommon sets the group-wide default set of common fields its actions
// do not require, merged (union) with any per-action OmitCommon.
func (g *GroupBuilder) OmitCommon(fields ...string) *GroupBuilder {
	if g.b.locked() {
		return g
	}
	for _, f := range fields {
		g.scope.omitCommon[f] = true
	}
	return g
}

func (b *Builder) syncRule(pattern string) *stateSyncRule {
	if r, ok := b.syncRules[pattern]; ok {
		return r
	}
	r := &stateSyncRule{pattern: pattern}
	b.syncRules[pattern] = r
	b.syncOrder = append(b.syncOrder, pattern)
	return r
}

// Invalidates accumulates the patterns that a successful call matching
// pattern should invalidate. Repeated calls for the same pattern append.
func (b *Builder) Invalidates(pattern string, patterns ...string) *Builder {
	if b.locked() {
		return b
	}
	r := b.syncRule(pattern)
	r.invalidates = append(r.invalidates, patterns...)
	return b
}

// Cached marks pattern as immutable (cacheControl="immutable"), last-write
// wins against a prior Stale on the same pattern.
func (b *Builder) Cached(pattern string) *Builder {
	if b.locked() {
		return b
	}
	b.syncRule(pattern).cacheControl = "immutable"
	return b
}

// Stale marks pattern as never cached (cacheControl="no-store"), last-write
// wins against a prior Cached on the same pattern.
func (b *Builder) Stale(pattern string) *Builder {
	if b.locked() {
		return b
	}
	b.syncRule(pattern).cacheControl = "no-store"
	return b
}

// Err returns the first structural error recorded by a mutator, if any.
func (b *Builder) Err() error {
	return b.err
}
