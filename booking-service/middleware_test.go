package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	r := newTestRouter(&fakeBookings{}, nil)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "authorization_required"},
		{"not bearer", "Basic abc", "invalid_token_format"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", "user-1", "u@example.com", time.Hour), "invalid_token"},
		{"expired", "Bearer " + signToken(t, testJWTSecret, "user-1", "u@example.com", -time.Minute), "invalid_token"},
		{"no user id", "Bearer " + signToken(t, testJWTSecret, "", "u@example.com", time.Hour), "invalid_token"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.header != "" {
				headers["Authorization"] = tc.header
			}

			w := doRequest(t, r, http.MethodGet, "/api/bookings/mine", nil, headers)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w).Error)
		})
	}
}

func TestValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: "user-1"}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	_, err = NewJWTService(testJWTSecret).ValidateToken(token)
	assert.Error(t, err)
}

func TestServiceAuthMiddleware(t *testing.T) {
	r := newTestRouter(&fakeBookings{}, nil)
	path := "/api/internal/inventory/events/concert-1/disable"

	w := doRequest(t, r, http.MethodPost, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, r, http.MethodPost, path, nil, map[string]string{serviceAuthHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A user token does not open internal routes
	w = doRequest(t, r, http.MethodPost, path, nil, bearer(t))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, r, http.MethodPost, path, nil, map[string]string{serviceAuthHeader: testServiceSecret})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(&fakeBookings{}, nil)

	w := doRequest(t, r, http.MethodOptions, "/api/bookings", nil, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
