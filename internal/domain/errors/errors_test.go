package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "reading leads"))

	wrapped := Wrap(ErrLeadNotFound, "reading leads")
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, ErrLeadNotFound)
	assert.Equal(t, "reading leads: lead not found", wrapped.Error())
}

func TestGetStatusCode(t *testing.T) {
	assert.Equal(t, 404, GetStatusCode(ErrLeadNotFound))
	assert.Equal(t, 409, GetStatusCode(ErrDuplicateLead))
	assert.Equal(t, 400, GetStatusCode(ErrNoContactInfo))
	// Wrapping preserves the mapped status.
	assert.Equal(t, 409, GetStatusCode(Wrap(ErrDuplicateLead, "storing lead")))
	assert.Equal(t, 500, GetStatusCode(stderrors.New("boom")))
}

func TestIsType(t *testing.T) {
	assert.True(t, IsType(ErrNoContactInfo, ErrorTypeValidation))
	assert.True(t, IsType(ErrDuplicateLead, ErrorTypeConflict))
	assert.False(t, IsType(stderrors.New("boom"), ErrorTypeValidation))
}
