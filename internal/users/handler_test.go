package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adityapw/fittrack/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func handlerSetup(t *testing.T) (*TestRepo, *TokenService, *mux.Router) {
	t.Helper()

	repo := NewTestRepo()
	tokens := NewTokenService([]byte("test-secret"), DefaultTokenTTL)
	handler := NewHandler(repo, tokens, metrics.NewTestManager())

	r := mux.NewRouter()
	r.HandleFunc("/api/auth/register", handler.HandleRegister).Methods("POST")
	r.HandleFunc("/api/auth/login", handler.HandleLogin).Methods("POST")
	r.Handle("/api/auth/me", handler.RequireAuth(http.HandlerFunc(handler.HandleMe))).Methods("GET")
	r.Handle("/api/auth/profile", handler.RequireAuth(http.HandlerFunc(handler.HandleUpdateProfile))).Methods("PUT")

	return repo, tokens, r
}

func doJSONRequest(t *testing.T, r *mux.Router, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body == "" {
		bodyReader = bytes.NewBufferString("{}")
	} else {
		bodyReader = bytes.NewBufferString(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHandler_Register(t *testing.T) {
	repo, tokens, r := handlerSetup(t)

	rr := doJSONRequest(t, r, "POST", "/api/auth/register",
		`{"name":"Aditya","email":"Aditya@Example.com","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	var authResp AuthResponse
	require.NoError(t, json.Unmarshal(resp.Data, &authResp))
	assert.Equal(t, "Aditya", authResp.User.Name)
	assert.Equal(t, "aditya@example.com", authResp.User.Email)
	require.NotEmpty(t, authResp.Token)

	// password hash must never leak through JSON
	assert.NotContains(t, rr.Body.String(), "password")

	claims, err := tokens.Verify(authResp.Token)
	require.NoError(t, err)
	assert.Equal(t, authResp.User.ID, claims.ID)

	assert.Len(t, repo.Users, 1)
}

func TestHandler_Register_StudentFields(t *testing.T) {
	repo, _, r := handlerSetup(t)

	rr := doJSONRequest(t, r, "POST", "/api/auth/register",
		`{"name":"Aditya","email":"aditya@example.com","password":"secret123","nim":"1234567890","kelompok":"A1"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	var authResp AuthResponse
	require.NoError(t, json.Unmarshal(resp.Data, &authResp))
	assert.Equal(t, "1234567890", authResp.User.Nim)
	assert.Equal(t, "A1", authResp.User.Kelompok)

	require.Len(t, repo.Users, 1)
	stored, err := repo.GetByEmail(context.Background(), "aditya@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", stored.Nim)
	assert.Equal(t, "A1", stored.Kelompok)
}

func TestHandler_Register_Invalid(t *testing.T) {
	_, _, r := handlerSetup(t)

	testCases := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"email":"a@b.c","password":"secret123"}`},
		{name: "missing email", body: `{"name":"A","password":"secret123"}`},
		{name: "missing password", body: `{"name":"A","email":"a@b.c"}`},
		{name: "short password", body: `{"name":"A","email":"a@b.c","password":"12345"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSONRequest(t, r, "POST", "/api/auth/register", tc.body, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestHandler_Register_DuplicateEmail(t *testing.T) {
	_, _, r := handlerSetup(t)

	rr := doJSONRequest(t, r, "POST", "/api/auth/register",
		`{"name":"A","email":"a@b.c","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	// same email, different casing
	rr = doJSONRequest(t, r, "POST", "/api/auth/register",
		`{"name":"B","email":"A@B.C","password":"secret123"}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "email already registered", resp.Message)
}

func TestHandler_Login(t *testing.T) {
	_, _, r := handlerSetup(t)

	rr := doJSONRequest(t, r, "POST", "/api/auth/register",
		`{"name":"A","email":"a@b.c","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSONRequest(t, r, "POST", "/api/auth/login",
		`{"email":"a@b.c","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	var authResp AuthResponse
	require.NoError(t, json.Unmarshal(resp.Data, &authResp))
	assert.NotEmpty(t, authResp.Token)
	assert.Equal(t, "a@b.c", authResp.User.Email)
}

func TestHandler_Login_WrongCredentials(t *testing.T) {
	_, _, r := handlerSetup(t)

	rr := doJSONRequest(t, r, "POST", "/api/auth/register",
		`{"name":"A","email":"a@b.c","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	// wrong password and unknown email yield the same message
	rrWrongPass := doJSONRequest(t, r, "POST", "/api/auth/login",
		`{"email":"a@b.c","password":"wrongpass"}`, "")
	rrUnknown := doJSONRequest(t, r, "POST", "/api/auth/login",
		`{"email":"nobody@b.c","password":"secret123"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rrWrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, rrUnknown.Code)
	assert.Equal(t, rrWrongPass.Body.String(), rrUnknown.Body.String())
}

func TestHandler_Me(t *testing.T) {
	_, _, r := handlerSetup(t)

	rr := doJSONRequest(t, r, "POST", "/api/auth/register",
		`{"name":"A","email":"a@b.c","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	var authResp AuthResponse
	require.NoError(t, json.Unmarshal(resp.Data, &authResp))

	rr = doJSONRequest(t, r, "GET", "/api/auth/me", "", authResp.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	var me User
	require.NoError(t, json.Unmarshal(resp.Data, &me))
	assert.Equal(t, authResp.User.ID, me.ID)
	assert.Equal(t, "a@b.c", me.Email)

	// missing token
	rr = doJSONRequest(t, r, "GET", "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// invalid token
	rr = doJSONRequest(t, r, "GET", "/api/auth/me", "", "garbage.token.here")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// expired token
	expiredTokens := NewTokenService([]byte("test-secret"), DefaultTokenTTL)
	expiredTokens.now = func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }
	expiredToken, err := expiredTokens.Generate(&authResp.User)
	require.NoError(t, err)
	rr = doJSONRequest(t, r, "GET", "/api/auth/me", "", expiredToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHandler_UpdateProfile(t *testing.T) {
	_, _, r := handlerSetup(t)

	rr := doJSONRequest(t, r, "POST", "/api/auth/register",
		`{"name":"A","email":"a@b.c","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	var authResp AuthResponse
	require.NoError(t, json.Unmarshal(resp.Data, &authResp))

	rr = doJSONRequest(t, r, "PUT", "/api/auth/profile",
		`{"name":"Aditya PW","kelompok":"K3"}`, authResp.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	var updated User
	require.NoError(t, json.Unmarshal(resp.Data, &updated))
	assert.Equal(t, "Aditya PW", updated.Name)
	assert.Equal(t, "K3", updated.Kelompok)
	// untouched fields stay
	assert.Equal(t, "a@b.c", updated.Email)
}

func TestHandler_UpdateProfile_EmailTaken(t *testing.T) {
	_, _, r := handlerSetup(t)

	rr := doJSONRequest(t, r, "POST", "/api/auth/register",
		`{"name":"A","email":"a@b.c","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSONRequest(t, r, "POST", "/api/auth/register",
		`{"name":"B","email":"b@b.c","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	var authResp AuthResponse
	require.NoError(t, json.Unmarshal(resp.Data, &authResp))

	// user B tries to take user A's email
	rr = doJSONRequest(t, r, "PUT", "/api/auth/profile",
		`{"email":"a@b.c"}`, authResp.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
