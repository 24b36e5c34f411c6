package mcp

import (
	"fmt"
	"sync"
)

// Prompt is the interface for MCP prompts.
type Prompt interface {
	// Definition returns the prompt metadata (name, description, arguments).
	Definition() PromptDefinition

	// Get returns the prompt messages, optionally customized by arguments.
	Get(arguments map[string]string) (*PromptsGetResult, error)
}

// Resource is the interface for MCP resources. Unlike tools, which route
// through a fusion.Registry, resources and prompts stay behind this
// lighter content registry — they have no actions, middleware, or
// dispatch table to compile.
type Resource interface {
	// Definition returns the resource metadata (URI, name, description, mimeType).
	Definition() ResourceDefinition

	// Read returns the resource content.
	Read() (*ResourcesReadResult, error)
}

// ContentRegistry holds registered prompts and resources. Tool calls are
// owned by fusion.Registry; this registry only serves the prompts/* and
// resources/* surfaces.
type ContentRegistry struct {
	mu            sync.RWMutex
	prompts       map[string]Prompt
	promptOrder   []string
	resources     map[string]Resource // keyed by URI
	resourceOrder []string
}

// NewContentRegistry creates an empty content registry.
func NewContentRegistry() *ContentRegistry {
	return &ContentRegistry{
		prompts:   make(map[string]Prompt),
		resources: make(map[string]Resource),
	}
}

// --- Prompts ---

// RegisterPrompt adds a prompt to the registry.
// Panics if a prompt with the same name is already registered.
func (r *ContentRegistry) RegisterPrompt(p Prompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Definition().Name
	if _, exists := r.prompts[name]; exists {
		panic(fmt.Sprintf("prompt %q already registered", name))
	}
	r.prompts[name] = p
	r.promptOrder = append(r.promptOrder, name)
}

// GetPrompt returns a prompt by name, or nil if not found.
func (r *ContentRegistry) GetPrompt(name string) Prompt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prompts[name]
}

// ListPrompts returns all registered prompt definitions in registration order.
func (r *ContentRegistry) ListPrompts() []PromptDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]PromptDefinition, 0, len(r.promptOrder))
	for _, name := range r.promptOrder {
		defs = append(defs, r.prompts[name].Definition())
	}
	return defs
}

// HasPrompts returns true if any prompts are registered.
func (r *ContentRegistry) HasPrompts() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts) > 0
}

// --- Resources ---

// RegisterResource adds a resource to the registry.
// Panics if a resource with the same URI is already registered.
func (r *ContentRegistry) RegisterResource(res Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()

	uri := res.Definition().URI
	if _, exists := r.resources[uri]; exists {
		panic(fmt.Sprintf("resource %q already registered", uri))
	}
	r.resources[uri] = res
	r.resourceOrder = append(r.resourceOrder, uri)
}

// GetResource returns a resource by URI, or nil if not found.
func (r *ContentRegistry) GetResource(uri string) Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resources[uri]
}

// ListResources returns all registered resource definitions in registration order.
func (r *ContentRegistry) ListResources() []ResourceDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ResourceDefinition, 0, len(r.resourceOrder))
	for _, uri := range r.resourceOrder {
		defs = append(defs, r.resources[uri].Definition())
	}
	return defs
}

// HasResources returns true if any resources are registered.
func (r *ContentRegistry) HasResources() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources) > 0
}
