package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatusKeepsPlatformMessage(t *testing.T) {
	err := FromStatus(http.StatusForbidden, "Cannot delete this contribution")

	assert.Equal(t, "Cannot delete this contribution", err.Error())
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, http.StatusForbidden, MapErrorToStatus(err))
}

func TestFromStatusServerErrorsBecomeBadGateway(t *testing.T) {
	err := FromStatus(http.StatusInternalServerError, "Failed to fetch models")

	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, http.StatusBadGateway, MapErrorToStatus(err))
}

func TestMessageFallsBackWhenNoneCarried(t *testing.T) {
	assert.Equal(t, "Login failed", Message(errors.New("dial tcp: refused"), "Login failed"))
	wrapped := fmt.Errorf("login: %w", Invalid("Invalid credentials"))
	assert.Equal(t, "Invalid credentials", Message(wrapped, "Login failed"))
}

func TestMapErrorToStatusSentinels(t *testing.T) {
	cases := map[error]int{
		ErrNotFound:           http.StatusNotFound,
		ErrSessionExpired:     http.StatusUnauthorized,
		ErrDriveNotConfigured: http.StatusBadRequest,
		ErrRateLimitExceeded:  http.StatusTooManyRequests,
		errors.New("boom"):    http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, MapErrorToStatus(fmt.Errorf("wrap: %w", err)), err.Error())
	}
}
