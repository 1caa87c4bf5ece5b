package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func validClaims(role string) jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": "ns123",
		"email":   "a@example.com",
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
}

func TestParseToken(t *testing.T) {
	expired := validClaims("inspector")
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	noUser := validClaims("inspector")
	delete(noUser, "user_id")

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims("inspector")), false},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims("inspector")), true},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(secret), expired), true},
		{"no user", sign(t, jwt.SigningMethodHS256, []byte(secret), noUser), true},
		{"unsigned", sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims("inspector")), true},
		{"garbage", "abc.def", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseToken(secret, tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("expected ErrInvalidToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if claims.UserID != "ns123" || claims.Email != "a@example.com" || claims.Role != "inspector" {
				t.Fatalf("claims = %+v", claims)
			}
		})
	}
}

func TestAuthAndRequireRole(t *testing.T) {
	var seen UserClaims
	h := Auth(secret)(RequireRole("inspector")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r)
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims("admin")), http.StatusForbidden},
		{"ok", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims("inspector")), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
	if seen.UserID != "ns123" {
		t.Fatalf("handler saw claims %+v", seen)
	}
}
