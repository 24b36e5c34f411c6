package content

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinkius-labs/mcp-fusion/internal/fusion"
)

func TestFrameworkGuideResourceDefinitionURI(t *testing.T) {
	r := &FrameworkGuideResource{}
	def := r.Definition()

	assert.Equal(t, "fusion://framework-guide", def.URI)
	assert.Equal(t, "text/markdown", def.MimeType)
}

func TestFrameworkGuideResourceReadReturnsMarkdown(t *testing.T) {
	r := &FrameworkGuideResource{}

	result, err := r.Read()

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Contains(t, result.Contents[0].Text, "Builder")
}

func TestManifestResourceReflectsRegisteredTools(t *testing.T) {
	registry := fusion.NewRegistry(nil)
	b := fusion.NewBuilder("widgets")
	b.Action("list", fusion.ActionSpec{
		ReadOnly: func() *bool { v := true; return &v }(),
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			return []string{}, nil
		},
	})
	require.NoError(t, registry.Register(b))

	res := NewManifestResource(registry)
	def := res.Definition()
	assert.Equal(t, "fusion://manifest.json", def.URI)

	result, err := res.Read()
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)

	var body struct {
		Tools map[string]any `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &body))
	assert.Contains(t, body.Tools, "widgets")
}

func TestManifestResourceEmptyRegistryProducesEmptyManifest(t *testing.T) {
	registry := fusion.NewRegistry(nil)
	res := NewManifestResource(registry)

	result, err := res.Read()
	require.NoError(t, err)

	var body struct {
		Tools map[string]any `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &body))
	assert.Empty(t, body.Tools)
}
