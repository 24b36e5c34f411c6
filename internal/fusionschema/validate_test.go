package fusionschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorAcceptsValidInstance(t *testing.T) {
	schema := BranchSchema("create", Shape{"amount": {Type: "number", Required: true}})
	v, err := Compile("test://validator/accepts", schema)
	require.NoError(t, err)

	instance := map[string]any{"action": "create", "amount": 10.0}
	errs := v.Validate(instance)
	assert.Empty(t, errs)
}

func TestValidatorRejectsMissingRequiredField(t *testing.T) {
	schema := BranchSchema("create", Shape{"amount": {Type: "number", Required: true}})
	v, err := Compile("test://validator/rejects-missing", schema)
	require.NoError(t, err)

	instance := map[string]any{"action": "create"}
	errs := v.Validate(instance)
	assert.NotEmpty(t, errs)
}

func TestValidatorRejectsWrongType(t *testing.T) {
	schema := BranchSchema("create", Shape{"amount": {Type: "number", Required: true}})
	v, err := Compile("test://validator/rejects-type", schema)
	require.NoError(t, err)

	instance := map[string]any{"action": "create", "amount": "not-a-number"}
	errs := v.Validate(instance)
	assert.NotEmpty(t, errs)
}

func TestCompileCachedMemoizesByURL(t *testing.T) {
	schema := BranchSchema("list", Shape{})
	v1, err := CompileCached("test://validator/cached-key", schema)
	require.NoError(t, err)
	v2, err := CompileCached("test://validator/cached-key", schema)
	require.NoError(t, err)
	assert.Same(t, v1, v2)
}
