package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorSatisfiesErrorInterface(t *testing.T) {
	err := NewError(CodeHandlerError, "boom")
	var asError error = err
	assert.Equal(t, "HANDLER_ERROR: boom", asError.Error())
}

func TestErrorBuilderMethodsChain(t *testing.T) {
	err := NewError(CodeValidationError, "bad field").
		WithSuggestion("check the schema").
		WithAvailableActions([]string{"list", "create"}).
		WithFields([]FieldPath{{Path: "/amount", Message: "must be a number"}})

	assert.Equal(t, "check the schema", err.Suggestion)
	assert.Equal(t, []string{"list", "create"}, err.AvailableActions)
	assert.Len(t, err.Fields, 1)
}
