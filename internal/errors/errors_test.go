package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapf_KeepsCauseAndFormatsMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrapf(cause, "connecting to %s", "postgres")

	assert.EqualError(t, err, "connecting to postgres: connection refused")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInternalError, GetCode(err))

	assert.NoError(t, Wrapf(nil, "ignored"))
}

func TestWithCode_RetagsError(t *testing.T) {
	err := WithCode(CodeDatabaseError, errors.New("schema init failed"))

	assert.True(t, IsAppError(err))
	assert.Equal(t, CodeDatabaseError, GetCode(err))

	// Retagging an AppError keeps its message and cause.
	retagged := WithCode(CodeReadFailure, err)
	assert.Equal(t, CodeReadFailure, GetCode(retagged))
	assert.Equal(t, "schema init failed", retagged.(*AppError).Message)
}

func TestIsAppErrorAndGetCode(t *testing.T) {
	assert.False(t, IsAppError(errors.New("plain")))
	assert.Equal(t, "UNKNOWN", GetCode(errors.New("plain")))

	appErr := InvalidInput("bad body")
	assert.True(t, IsAppError(appErr))
	assert.Equal(t, CodeInvalidInput, GetCode(appErr))
}
