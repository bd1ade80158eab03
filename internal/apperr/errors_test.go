package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", fmt.Errorf("%w: quantity must be positive", ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: cart", ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: duplicate coupon", ErrConflict), http.StatusConflict},
		{"infrastructure", Infrastructure(errors.New("connection reset")), http.StatusInternalServerError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestInfrastructure_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Infrastructure(cause)

	assert.ErrorIs(t, err, ErrInfrastructure)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsClientFault(err))
}

func TestInfrastructure_Nil(t *testing.T) {
	assert.NoError(t, Infrastructure(nil))
}

func TestInfrastructure_NotDoubleWrapped(t *testing.T) {
	err := Infrastructure(errors.New("timeout"))
	assert.Same(t, err, Infrastructure(err))
}

func TestIsClientFault(t *testing.T) {
	assert.True(t, IsClientFault(fmt.Errorf("wrap: %w", ErrValidation)))
	assert.True(t, IsClientFault(ErrNotFound))
	assert.True(t, IsClientFault(ErrConflict))
	assert.False(t, IsClientFault(errors.New("boom")))
}
