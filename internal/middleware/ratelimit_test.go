package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitMiddlewareBurst(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := RateLimitMiddleware(next, 1, 3)

	send := func() int {
		r := httptest.NewRequest(http.MethodPost, "/api/payments/initiate", nil)
		r.RemoteAddr = "203.0.113.9:51234"
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, r)
		return w.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send(), "request %d within burst", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestRateLimitMiddlewareSeparatesClients(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := RateLimitMiddleware(next, 1, 1)

	send := func(ip string) int {
		r := httptest.NewRequest(http.MethodGet, "/api/payments/initiate", nil)
		r.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
}

func TestRequireRoleRejectsUnauthenticated(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	})
	guarded := RequireRole("admin")(next)

	r := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	w := httptest.NewRecorder()
	guarded.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
