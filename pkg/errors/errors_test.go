package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesOriginalCode(t *testing.T) {
	err := Clone(ErrStudentNotFound, "student not found: s-1")
	assert.True(t, errors.Is(err, ErrStudentNotFound))
	assert.False(t, errors.Is(err, ErrCourseNotFound))
	assert.Equal(t, "student not found: s-1", err.Message)
	assert.Equal(t, "student not found", ErrStudentNotFound.Message)
}

func TestHideKeepsMessageGeneric(t *testing.T) {
	cause := fmt.Errorf("dial tcp 10.0.0.4:7001: connection refused")
	err := Hide(ErrUpstream, cause)

	assert.Equal(t, ErrUpstream.Message, err.Message)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	err := FromError(fmt.Errorf("boom"))
	require.NotNil(t, err)
	assert.Equal(t, ErrInternal.Code, err.Code)

	wrapped := fmt.Errorf("outer: %w", ErrInvalidInput)
	assert.Equal(t, ErrInvalidInput.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}
