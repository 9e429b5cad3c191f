package main

import (
	"testing"
	"time"

	"chemtrack-backend/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestGoogleLogin(t *testing.T) {
	env := setupTestApp()

	tests := []struct {
		name            string
		credential      string
		expectedStatus  int
		expectedSuccess bool
	}{
		{
			name:            "Organization email accepted",
			credential:      signTestGoogleToken("user@encorelm.com", "Org User"),
			expectedStatus:  200,
			expectedSuccess: true,
		},
		{
			name:            "Wrong domain rejected",
			credential:      signTestGoogleToken("user@otherdomain.com", "Outside User"),
			expectedStatus:  403,
			expectedSuccess: false,
		},
		{
			name:            "Garbage token rejected",
			credential:      "not-a-jwt",
			expectedStatus:  401,
			expectedSuccess: false,
		},
		{
			name:            "Missing credential rejected",
			credential:      "",
			expectedStatus:  400,
			expectedSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest("POST", "/auth/google", map[string]string{"credential": tt.credential}, "")
			resp, err := env.app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			body := decodeBody(resp)
			assert.Equal(t, tt.expectedSuccess, body["success"])
			if tt.expectedSuccess {
				assert.NotEmpty(t, body["token"])
				user := body["user"].(map[string]interface{})
				assert.Equal(t, "user@encorelm.com", user["email"])
				assert.Equal(t, "Org User", user["name"])
			}
		})
	}
}

func TestGoogleLoginTokenGrantsAPIAccess(t *testing.T) {
	env := setupTestApp()

	req := jsonRequest("POST", "/auth/google",
		map[string]string{"credential": signTestGoogleToken("user@encorelm.com", "Org User")}, "")
	resp, err := env.app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	token := decodeBody(resp)["token"].(string)

	resp, err = env.app.Test(jsonRequest("GET", "/api/chemicals", nil, token))
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestAPIRequiresAuth(t *testing.T) {
	env := setupTestApp()

	paths := []string{"/api/chemicals", "/api/inventory/levels", "/api/history"}
	for _, path := range paths {
		resp, err := env.app.Test(jsonRequest("GET", path, nil, ""))
		assert.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode, path)
	}

	resp, err := env.app.Test(jsonRequest("GET", "/api/chemicals", nil, "bogus-token"))
	assert.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := utils.GenerateJWT("tester@encorelm.com", "Test User")
	assert.NoError(t, err)

	claims, err := utils.ValidateJWT(token)
	assert.NoError(t, err)
	assert.Equal(t, "tester@encorelm.com", claims.Email)
	assert.Equal(t, "Test User", claims.Name)
}

func TestGoogleVerifierRejectsWrongIssuer(t *testing.T) {
	verifier := utils.NewGoogleVerifier("")
	verifier.KeyFunc = func(token *jwt.Token) (interface{}, error) {
		return []byte(testGoogleSecret), nil
	}

	claims := jwt.MapClaims{
		"iss":   "evil.example.com",
		"email": "user@encorelm.com",
		"name":  "Org User",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte(testGoogleSecret))

	_, err := verifier.Verify(signed)
	assert.Error(t, err)
}

func TestGoogleVerifierRejectsExpiredToken(t *testing.T) {
	verifier := utils.NewGoogleVerifier("")
	verifier.KeyFunc = func(token *jwt.Token) (interface{}, error) {
		return []byte(testGoogleSecret), nil
	}

	claims := jwt.MapClaims{
		"iss":   "accounts.google.com",
		"email": "user@encorelm.com",
		"name":  "Org User",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte(testGoogleSecret))

	_, err := verifier.Verify(signed)
	assert.Error(t, err)
}
