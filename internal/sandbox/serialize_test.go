package sandbox

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeValueCoercesNaNAndInfinityToNull(t *testing.T) {
	assert.Nil(t, sanitizeValue(math.NaN()))
	assert.Nil(t, sanitizeValue(math.Inf(1)))
	assert.Nil(t, sanitizeValue(math.Inf(-1)))
}

func TestSanitizeValuePassesThroughPlainTypes(t *testing.T) {
	assert.Equal(t, "ok", sanitizeValue("ok"))
	assert.Equal(t, true, sanitizeValue(true))
	assert.Equal(t, 42.0, sanitizeValue(42.0))
	assert.Nil(t, sanitizeValue(nil))
}

func TestSanitizeValueRecursesIntoNestedStructures(t *testing.T) {
	in := map[string]any{
		"list": []any{1, "two", map[string]any{"three": 3.0}},
	}
	out := sanitizeValue(in)
	assert.Equal(t, in, out)
}

func TestSanitizeValueCutsSelfReferentialMapWithoutRecursingForever(t *testing.T) {
	cyclic := map[string]any{"name": "loop"}
	cyclic["self"] = cyclic

	done := make(chan any, 1)
	go func() { done <- sanitizeValue(cyclic) }()

	select {
	case out := <-done:
		result, ok := out.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "loop", result["name"])
		assert.Nil(t, result["self"])
	case <-time.After(time.Second):
		t.Fatal("sanitizeValue did not return; likely recursing into a cycle")
	}
}

func TestSanitizeValueCutsSelfReferentialSliceWithoutRecursingForever(t *testing.T) {
	cyclic := make([]any, 1)
	cyclic[0] = cyclic

	done := make(chan any, 1)
	go func() { done <- sanitizeValue(cyclic) }()

	select {
	case out := <-done:
		result, ok := out.([]any)
		require.True(t, ok)
		require.Len(t, result, 1)
		assert.Nil(t, result[0])
	case <-time.After(time.Second):
		t.Fatal("sanitizeValue did not return; likely recursing into a cycle")
	}
}

func TestSanitizeValueAllowsRepeatedNonCyclicReference(t *testing.T) {
	shared := map[string]any{"v": 1.0}
	in := map[string]any{"a": shared, "b": shared}

	out := sanitizeValue(in).(map[string]any)
	assert.Equal(t, map[string]any{"v": 1.0}, out["a"])
	assert.Equal(t, map[string]any{"v": 1.0}, out["b"])
}
