package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"savdash/domain/core"
)

func TestGetCodeClassifiesDomainSentinels(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{core.NewInvalidInputError("raw_values", "short"), CodeInvalidInput},
		{core.NewDuplicateVariableError("age", "manual_age"), CodeDuplicateVariable},
		{fmt.Errorf("generate: %w", core.ErrNoSuitableFilters), CodeNoSuitableFilters},
		{core.ErrSessionNotFound, CodeNotFound},
		{stderrors.New("boom"), CodeInternalError},
		{ExternalServiceError("openai", stderrors.New("timeout")), CodeExternalService},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, GetCode(tt.err), tt.err.Error())
	}
}

func TestWrapKeepsCodeAndChain(t *testing.T) {
	base := core.NewDuplicateVariableError("age", "heuristic_age")
	wrapped := Wrap(base, "add manual filter")

	assert.Equal(t, CodeDuplicateVariable, GetCode(wrapped))
	assert.True(t, stderrors.Is(wrapped, core.ErrDuplicateVariable))
	assert.Contains(t, wrapped.Error(), "add manual filter")
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestWithCodeOverrides(t *testing.T) {
	err := WithCode(CodeValidationError, stderrors.New("bad"))
	assert.Equal(t, CodeValidationError, GetCode(err))
	assert.True(t, IsAppError(err))
}
