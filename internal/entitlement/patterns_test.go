package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDetectsFilesystemRequire(t *testing.T) {
	matches := Scan(`const fs = require("fs"); fs.readFileSync("/etc/passwd");`)
	require.NotEmpty(t, matches)
	var cats []Category
	for _, m := range matches {
		cats = append(cats, m.Category)
	}
	assert.Contains(t, cats, CategoryFilesystem)
}

func TestScanDetectsNetworkFetch(t *testing.T) {
	matches := Scan(`fetch("https://example.com");`)
	require.NotEmpty(t, matches)
	assert.Equal(t, CategoryNetwork, matches[0].Category)
}

func TestScanDetectsSubprocessSpawn(t *testing.T) {
	matches := Scan(`const { spawn } = require("child_process"); spawn("ls");`)
	var cats []Category
	for _, m := range matches {
		cats = append(cats, m.Category)
	}
	assert.Contains(t, cats, CategorySubprocess)
}

func TestScanDetectsCodeEvaluation(t *testing.T) {
	matches := Scan(`eval("1+1")`)
	require.NotEmpty(t, matches)
	assert.Equal(t, CategoryCodeEvaluation, matches[0].Category)
}

func TestScanOnCleanSourceReturnsNoMatches(t *testing.T) {
	matches := Scan(`function add(a, b) { return a + b; }`)
	assert.Empty(t, matches)
}

func TestScanReportsLineNumbers(t *testing.T) {
	source := "const a = 1;\nconst b = 2;\neval('danger')"
	matches := Scan(source)
	require.NotEmpty(t, matches)
	assert.Equal(t, 3, matches[0].Line)
}
