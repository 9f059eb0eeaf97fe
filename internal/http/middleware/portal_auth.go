package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/praxisflow/praxisflow/internal/tenancy"
)

// PortalClaims are the JWT claims issued to practice portal users.
type PortalClaims struct {
	PracticeID string `json:"practice_id"`
	Email      string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// PortalAuth validates the Bearer token on portal requests and puts the
// token's practice ID on the request context. Tokens are HS256-signed with
// the shared portal secret.
func PortalAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, `{"error":"portal disabled"}`, http.StatusServiceUnavailable)
				return
			}

			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimPrefix(auth, "Bearer ")

			claims := &PortalClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			if claims.PracticeID == "" {
				http.Error(w, `{"error":"token missing practice"}`, http.StatusForbidden)
				return
			}

			ctx := tenancy.WithPracticeID(r.Context(), claims.PracticeID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IssuePortalToken signs a portal token for a practice. Used by login and
// by tests.
func IssuePortalToken(secret, practiceID, email string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = 12 * time.Hour
	}
	now := time.Now()
	claims := PortalClaims{
		PracticeID: practiceID,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "praxisflow",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
