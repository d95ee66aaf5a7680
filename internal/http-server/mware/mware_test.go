package mware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	jwtlib "github.com/magabrotheeeer/premium-access-bot/internal/lib/jwt"
)

type mockJWTMaker struct {
	ParseFunc func(tokenStr string) (*jwtlib.CustomClaims, error)
}

func (m *mockJWTMaker) GenerateToken(role string) (string, error) {
	return "", nil
}

func (m *mockJWTMaker) ParseToken(tokenStr string) (*jwtlib.CustomClaims, error) {
	return m.ParseFunc(tokenStr)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		maker := &mockJWTMaker{
			ParseFunc: func(tokenStr string) (*jwtlib.CustomClaims, error) {
				require.Equal(t, "valid-token", tokenStr)
				return &jwtlib.CustomClaims{Role: "admin"}, nil
			},
		}

		nextCalled := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()

		handler := JWTMiddleware(maker, newNoopLogger())(next)
		handler.ServeHTTP(w, req)

		assert.True(t, nextCalled, "next handler must be called")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing Authorization header", func(t *testing.T) {
		maker := &mockJWTMaker{}
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called on missing header")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		handler := JWTMiddleware(maker, newNoopLogger())(next)
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "missing or invalid authorization header")
	})

	t.Run("invalid or expired token", func(t *testing.T) {
		maker := &mockJWTMaker{
			ParseFunc: func(tokenStr string) (*jwtlib.CustomClaims, error) {
				return nil, errors.New("token expired")
			},
		}
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called on invalid token")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()

		handler := JWTMiddleware(maker, newNoopLogger())(next)
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid or expired token")
	})

	t.Run("forbidden role", func(t *testing.T) {
		maker := &mockJWTMaker{
			ParseFunc: func(tokenStr string) (*jwtlib.CustomClaims, error) {
				return &jwtlib.CustomClaims{Role: "viewer"}, nil
			},
		}
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called on forbidden role")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer viewer-token")
		w := httptest.NewRecorder()

		handler := JWTMiddleware(maker, newNoopLogger())(next)
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	logger := newNoopLogger()
	mw := RateLimitMiddleware(logger)

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	})

	t.Run("allows requests within rate limit", func(t *testing.T) {
		originalLimiter := limiter
		limiter = rate.NewLimiter(10, 10)
		defer func() { limiter = originalLimiter }()

		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		for range 10 {
			w := httptest.NewRecorder()
			mw(testHandler).ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "success", w.Body.String())
		}
	})

	t.Run("blocks requests exceeding rate limit", func(t *testing.T) {
		originalLimiter := limiter
		limiter = rate.NewLimiter(1, 1)
		defer func() { limiter = originalLimiter }()

		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		w := httptest.NewRecorder()
		mw(testHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		mw(testHandler).ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}
