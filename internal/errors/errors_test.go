package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_PreservesCode(t *testing.T) {
	base := ValidationError("group cardinality")
	wrapped := Wrap(base, "analysis failed")

	assert.Equal(t, CodeValidationError, GetCode(wrapped))
	assert.True(t, IsValidation(wrapped))
	assert.Equal(t, "analysis failed: group cardinality", wrapped.Error())
}

func TestWrap_PlainErrorBecomesInternal(t *testing.T) {
	wrapped := Wrapf(stderrors.New("disk full"), "write %s", "report")
	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Equal(t, "write report: disk full", wrapped.Error())
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestValidation_UnwrapsToSentinel(t *testing.T) {
	sentinel := stderrors.New("expected exactly 2 distinct group labels")
	err := Validation("group cardinality", fmt.Errorf("%w, found 3", sentinel))

	require.True(t, stderrors.Is(err, sentinel))
	assert.True(t, IsValidation(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, "group cardinality: expected exactly 2 distinct group labels, found 3", err.Error())
}

func TestGetCode_Unknown(t *testing.T) {
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("boom")))
	assert.False(t, IsAppError(stderrors.New("boom")))
	assert.Equal(t, CodeDegenerateResult, GetCode(DegenerateResultWarning("skipped")))
}

func TestInternalError(t *testing.T) {
	err := InternalError("internal server error")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Nil(t, err.Unwrap())
}
