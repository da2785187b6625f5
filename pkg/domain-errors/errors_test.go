package domainerrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "verdant/pkg/domain-errors"
)

func TestIs(t *testing.T) {
	err := dErrors.New(dErrors.CodeNotFound, "taxon not found")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	assert.False(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.False(t, dErrors.Is(errors.New("plain"), dErrors.CodeNotFound))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := dErrors.Wrap(dErrors.CodeInternal, "list activity", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, dErrors.Is(err, dErrors.CodeInternal))

	// A wrapped coded error keeps its code through further wrapping.
	outer := fmt.Errorf("handler: %w", err)
	assert.True(t, dErrors.Is(outer, dErrors.CodeInternal))
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, dErrors.ToHTTPStatus(dErrors.CodeBadRequest))
	assert.Equal(t, http.StatusUnauthorized, dErrors.ToHTTPStatus(dErrors.CodeUnauthorized))
	assert.Equal(t, http.StatusForbidden, dErrors.ToHTTPStatus(dErrors.CodeForbidden))
	assert.Equal(t, http.StatusNotFound, dErrors.ToHTTPStatus(dErrors.CodeNotFound))
	assert.Equal(t, http.StatusConflict, dErrors.ToHTTPStatus(dErrors.CodeConflict))
	assert.Equal(t, http.StatusInternalServerError, dErrors.ToHTTPStatus(dErrors.Code("other")))
}

func TestMessageOfHidesInternalDetail(t *testing.T) {
	assert.Equal(t, "internal server error", dErrors.MessageOf(errors.New("pq: password authentication failed")))
	assert.Equal(t, "invalid cursor", dErrors.MessageOf(dErrors.New(dErrors.CodeBadRequest, "invalid cursor")))
}
