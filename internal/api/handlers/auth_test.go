package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dom/shared-lists/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	ts := testutil.NewTestServer(t)

	existing := map[string]string{"email": "taken@example.com", "username": "taken", "password": "password123"}
	resp := testutil.PostJSON(t, ts.APIURL("/auth/register"), existing, "")
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		expectedField  string
	}{
		{
			name:           "successful registration",
			request:        map[string]string{"email": "new@example.com", "username": "newuser", "password": "password123"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "duplicate email",
			request:        map[string]string{"email": "taken@example.com", "username": "other", "password": "password123"},
			expectedStatus: http.StatusConflict,
			expectedField:  "email",
		},
		{
			name:           "duplicate username",
			request:        map[string]string{"email": "other@example.com", "username": "taken", "password": "password123"},
			expectedStatus: http.StatusConflict,
			expectedField:  "username",
		},
		{
			name:           "missing fields",
			request:        map[string]string{"email": "x@example.com"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid email",
			request:        map[string]string{"email": "nope", "username": "validuser", "password": "password123"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "short password",
			request:        map[string]string{"email": "pw@example.com", "username": "pwuser", "password": "123"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.PostJSON(t, ts.APIURL("/auth/register"), tt.request, "")
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			switch tt.expectedStatus {
			case http.StatusCreated:
				var body struct {
					ID       string `json:"id"`
					Email    string `json:"email"`
					Username string `json:"username"`
				}
				testutil.AssertJSONResponse(t, resp, &body)
				assert.NotEmpty(t, body.ID)
				assert.Equal(t, tt.request["email"], body.Email)
				assert.Equal(t, tt.request["username"], body.Username)
			case http.StatusConflict:
				var body struct {
					Message string `json:"message"`
					Field   string `json:"field"`
				}
				testutil.AssertJSONResponse(t, resp, &body)
				assert.Equal(t, tt.expectedField, body.Field)
				assert.NotEmpty(t, body.Message)
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)
	auth := testutil.NewUserBuilder().WithUsername("loginuser").WithEmail("login@example.com").BuildAndAuthenticate(t, ts)
	assert.Equal(t, "loginuser", auth.User.Username)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
	}{
		{name: "by username", request: map[string]string{"usernameOrEmail": "loginuser", "password": "testpassword123"}, expectedStatus: http.StatusOK},
		{name: "by email", request: map[string]string{"usernameOrEmail": "login@example.com", "password": "testpassword123"}, expectedStatus: http.StatusOK},
		{name: "wrong password", request: map[string]string{"usernameOrEmail": "loginuser", "password": "wrong"}, expectedStatus: http.StatusUnauthorized},
		{name: "unknown user", request: map[string]string{"usernameOrEmail": "ghost", "password": "testpassword123"}, expectedStatus: http.StatusUnauthorized},
		{name: "missing password", request: map[string]string{"usernameOrEmail": "loginuser"}, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.PostJSON(t, ts.APIURL("/auth/login"), tt.request, "")
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusOK {
				var body testutil.AuthResponse
				testutil.AssertJSONResponse(t, resp, &body)
				assert.NotEmpty(t, body.AccessToken)
				assert.NotEmpty(t, body.RefreshToken)
				assert.Equal(t, auth.User.ID, body.User.ID)
			}
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	ts := testutil.NewTestServer(t)
	auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	refresh := func(token string) *http.Response {
		return testutil.PostJSON(t, ts.APIURL("/auth/refresh"), map[string]string{"refreshToken": token}, "")
	}

	resp := refresh(auth.RefreshToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	testutil.AssertJSONResponse(t, resp, &pair)
	resp.Body.Close()
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, auth.RefreshToken, pair.RefreshToken)

	// Reusing the consumed token fails.
	resp = refresh(auth.RefreshToken)
	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "refresh token")
	resp.Body.Close()

	// The rotated token still works and the new access token is accepted.
	resp = refresh(pair.RefreshToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, pair.AccessToken))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = refresh("")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthHandler_MeAndLogout(t *testing.T) {
	ts := testutil.NewTestServer(t)
	auth := testutil.NewUserBuilder().WithUsername("meuser").BuildAndAuthenticate(t, ts)

	resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, ""))
	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Authorization")
	resp.Body.Close()

	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	testutil.AssertJSONResponse(t, resp, &me)
	resp.Body.Close()
	assert.Equal(t, auth.User.ID, me.ID)
	assert.Equal(t, "meuser", me.Username)

	resp = testutil.PostJSON(t, ts.APIURL("/auth/logout"), nil, auth.AccessToken)
	testutil.AssertErrorResponse(t, resp, http.StatusOK, "Logged out")
	resp.Body.Close()

	resp = testutil.PostJSON(t, ts.APIURL("/auth/refresh"), map[string]string{"refreshToken": auth.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	ts := testutil.NewTestServer(t)
	auth := testutil.NewUserBuilder().WithUsername("changer").BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		request        map[string]string
		token          string
		expectedStatus int
	}{
		{name: "unauthenticated", request: map[string]string{"currentPassword": "testpassword123", "newPassword": "newpassword"}, expectedStatus: http.StatusUnauthorized},
		{name: "wrong current password", request: map[string]string{"currentPassword": "wrong", "newPassword": "newpassword"}, token: auth.AccessToken, expectedStatus: http.StatusUnauthorized},
		{name: "too short", request: map[string]string{"currentPassword": "testpassword123", "newPassword": "123"}, token: auth.AccessToken, expectedStatus: http.StatusBadRequest},
		{name: "success", request: map[string]string{"currentPassword": "testpassword123", "newPassword": "newpassword"}, token: auth.AccessToken, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.PostJSON(t, ts.APIURL("/auth/change-password"), tt.request, tt.token)
			defer resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}

	testutil.LoginUser(t, ts, "changer", "newpassword")
}

func TestAuthHandler_Status(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.APIURL("/auth/status"))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		AuthEnabled bool   `json:"authEnabled"`
		Message     string `json:"message"`
	}
	testutil.AssertJSONResponse(t, resp, &body)
	assert.True(t, body.AuthEnabled)
}
