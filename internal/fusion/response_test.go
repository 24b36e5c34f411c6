package fusion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextBlockStringPassthrough(t *testing.T) {
	resp := TextBlock("hello")
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "hello", resp.Content[0].Text)
	assert.False(t, resp.IsError)
}

func TestTextBlockMarshalsStructuredPayload(t *testing.T) {
	resp := TextBlock(map[string]int{"count": 3})
	require.Len(t, resp.Content, 1)
	var decoded map[string]int
	require.NoError(t, json.Unmarshal([]byte(resp.Content[0].Text), &decoded))
	assert.Equal(t, 3, decoded["count"])
}

func TestErrorResponseMarshalsStructuredError(t *testing.T) {
	err := NewError(CodeValidationError, "bad input").WithSuggestion("fix it")
	resp := ErrorResponse(err)
	assert.True(t, resp.IsError)

	var decoded Error
	require.NoError(t, json.Unmarshal([]byte(resp.Content[0].Text), &decoded))
	assert.Equal(t, CodeValidationError, decoded.Code)
	assert.Equal(t, "fix it", decoded.Suggestion)
}

func TestWithResourceAppendsBlock(t *testing.T) {
	resp := TextBlock("ok")
	resp = resp.WithResource(EmbeddedResource{URI: "fusion://stale/users.*"})
	require.Len(t, resp.Content, 2)
	assert.Equal(t, "resource", resp.Content[1].Type)
	assert.Equal(t, "fusion://stale/users.*", resp.Content[1].Resource.URI)
}
