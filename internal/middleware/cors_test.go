package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCors_AllowedOrigin(t *testing.T) {
	handlerCalled := false
	handler := Cors()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req, err := http.NewRequest("GET", "/api/workouts", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:8080")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, "http://localhost:8080", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCors_NoOrigin(t *testing.T) {
	handlerCalled := false
	handler := Cors()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req, err := http.NewRequest("GET", "/index.html", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.True(t, handlerCalled)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCors_ForbiddenOrigin(t *testing.T) {
	handlerCalled := false
	handler := Cors()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req, err := http.NewRequest("GET", "/api/workouts", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example.com")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCors_PreflightStopsAtMiddleware(t *testing.T) {
	handlerCalled := false
	handler := Cors()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req, err := http.NewRequest("OPTIONS", "/api/workouts", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}
