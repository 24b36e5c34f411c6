package entitlement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEvasionCharCodeConstruction(t *testing.T) {
	indicators := DetectEvasion(`const s = String.fromCharCode(101, 118, 97, 108);`)
	require.NotEmpty(t, indicators)
	assert.Equal(t, "char-code-construction", indicators[0].Kind)
	assert.Equal(t, ConfidenceHigh, indicators[0].Confidence)
}

func TestDetectEvasionBase64Decode(t *testing.T) {
	indicators := DetectEvasion(`const s = atob("ZXZhbCgiYWxlcnQoMSkiKQ==");`)
	require.NotEmpty(t, indicators)
	assert.Equal(t, "base64-decode", indicators[0].Kind)
}

func TestDetectEvasionBracketGlobalAccess(t *testing.T) {
	indicators := DetectEvasion(`globalThis["eval"]("1+1")`)
	require.NotEmpty(t, indicators)
	found := false
	for _, i := range indicators {
		if i.Kind == "bracket-notation-global-access" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectEvasionCleanSourceHasNoIndicators(t *testing.T) {
	indicators := DetectEvasion(`function add(a, b) { return a + b; }`)
	assert.Empty(t, indicators)
}

func TestDetectEvasionHighEntropyLiteral(t *testing.T) {
	// A long literal of unique high-entropy content should trip the
	// entropy heuristic; a literal of repeated characters should not.
	highEntropy := `"` + "k3J!9zQ#xR7mP$vL2nB&cF8wT%gH4sD^uY6oE*aZ1iM@pC5" + `tN0bVdefhjlqryAGI"`
	indicators := DetectEvasion("const x = " + highEntropy + ";")
	found := false
	for _, i := range indicators {
		if i.Kind == "high-entropy-string-literal" {
			found = true
		}
	}
	assert.True(t, found)
	lowEntropy := `"` + strings.Repeat("a", 80) + `"`
	lowIndicators := DetectEvasion("const x = " + lowEntropy + ";")
	for _, i := range lowIndicators {
		assert.NotEqual(t, "high-entropy-string-literal", i.Kind)
	}
}

func TestHasHighConfidenceDetectsHighEntries(t *testing.T) {
	indicators := []Indicator{{Confidence: ConfidenceMedium}, {Confidence: ConfidenceHigh}}
	assert.True(t, HasHighConfidence(indicators))
}

func TestHasHighConfidenceFalseWhenNoneHigh(t *testing.T) {
	indicators := []Indicator{{Confidence: ConfidenceMedium}}
	assert.False(t, HasHighConfidence(indicators))
}
