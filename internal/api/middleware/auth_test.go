package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/shared-lists/internal/domain"
	"github.com/dom/shared-lists/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{name: "valid", header: "Bearer abc.def", want: "abc.def", wantOK: true},
		{name: "case insensitive scheme", header: "bearer abc", want: "abc", wantOK: true},
		{name: "missing", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcg=="},
		{name: "no token", header: "Bearer "},
		{name: "no separator", header: "Bearerabc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, ok := BearerToken(r)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuth(t *testing.T) {
	issuer := service.NewTokenIssuer("middleware-secret", time.Minute, time.Hour)
	user := &domain.User{ID: uuid.New(), Email: "a@example.com", Username: "alice"}
	token, err := issuer.IssueAccess(user)
	require.NoError(t, err)

	var gotUserID uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserID(r.Context())
		require.True(t, ok)
		claims, ok := GetClaims(r.Context())
		require.True(t, ok)
		assert.Equal(t, "alice", claims.Username)
		gotUserID = id
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Auth(validatorFunc(issuer.ParseAccess), zap.NewNop())(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusNoContent},
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), `"message"`)
			}
		})
	}

	assert.Equal(t, user.ID, gotUserID)
}

type validatorFunc func(string) (*service.AccessClaims, error)

func (f validatorFunc) ValidateToken(token string) (*service.AccessClaims, error) {
	return f(token)
}
