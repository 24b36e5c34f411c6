package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrompt struct{ name string }

func (p stubPrompt) Definition() PromptDefinition { return PromptDefinition{Name: p.name} }
func (p stubPrompt) Get(arguments map[string]string) (*PromptsGetResult, error) {
	return &PromptsGetResult{Messages: []PromptMessage{{Role: "user", Content: TextContent("hi")}}}, nil
}

type stubResource struct{ uri string }

func (r stubResource) Definition() ResourceDefinition { return ResourceDefinition{URI: r.uri} }
func (r stubResource) Read() (*ResourcesReadResult, error) {
	return &ResourcesReadResult{Contents: []ResourceContent{{URI: r.uri, Text: "content"}}}, nil
}

func TestContentRegistryRegistersAndListsPromptsInOrder(t *testing.T) {
	r := NewContentRegistry()
	r.RegisterPrompt(stubPrompt{name: "b"})
	r.RegisterPrompt(stubPrompt{name: "a"})

	defs := r.ListPrompts()
	require.Len(t, defs, 2)
	assert.Equal(t, "b", defs[0].Name)
	assert.Equal(t, "a", defs[1].Name)
	assert.True(t, r.HasPrompts())
}

func TestContentRegistryDuplicatePromptPanics(t *testing.T) {
	r := NewContentRegistry()
	r.RegisterPrompt(stubPrompt{name: "dup"})

	assert.Panics(t, func() {
		r.RegisterPrompt(stubPrompt{name: "dup"})
	})
}

func TestContentRegistryGetPromptMissingReturnsNil(t *testing.T) {
	r := NewContentRegistry()
	assert.Nil(t, r.GetPrompt("missing"))
}

func TestContentRegistryRegistersAndListsResources(t *testing.T) {
	r := NewContentRegistry()
	r.RegisterResource(stubResource{uri: "fusion://a"})

	assert.True(t, r.HasResources())
	defs := r.ListResources()
	require.Len(t, defs, 1)
	assert.Equal(t, "fusion://a", defs[0].URI)
	assert.NotNil(t, r.GetResource("fusion://a"))
}

func TestContentRegistryDuplicateResourcePanics(t *testing.T) {
	r := NewContentRegistry()
	r.RegisterResource(stubResource{uri: "fusion://a"})

	assert.Panics(t, func() {
		r.RegisterResource(stubResource{uri: "fusion://a"})
	})
}

func TestContentRegistryEmptyHasNoPromptsOrResources(t *testing.T) {
	r := NewContentRegistry()
	assert.False(t, r.HasPrompts())
	assert.False(t, r.HasResources())
}
