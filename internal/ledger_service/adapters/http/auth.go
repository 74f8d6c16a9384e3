package http

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const AuthenticatedUserContextKey = ContextKey("authenticatedUser")

// BotKeyHeader carries the shared secret of the Telegram bots.
const BotKeyHeader = "X-Bot-Api-Key"

const tokenIssuer = "servis30-ledger"

var errInvalidToken = errors.New("invalid or expired token")

// AuthenticatedUser is the capability extracted from a verified access token.
type AuthenticatedUser struct {
	ID   string
	Role domain.Role
}

func (u AuthenticatedUser) IsAdmin() bool { return u.Role == domain.RoleAdmin }

// UserFromContext returns the user placed in ctx by AuthMiddleware.
func UserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	u, ok := ctx.Value(AuthenticatedUserContextKey).(AuthenticatedUser)
	return u, ok
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth issues and verifies HS256 access tokens.
type JWTAuth struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTAuth(secret string, ttl time.Duration) *JWTAuth {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTAuth{secret: []byte(secret), ttl: ttl}
}

// Issue signs an access token for acc with subject and role claims.
func (a *JWTAuth) Issue(acc *domain.Account) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Role: string(acc.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.ID,
			Issuer:    tokenIssuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}

// Verify parses tokenString and returns the authenticated user.
func (a *JWTAuth) Verify(tokenString string) (AuthenticatedUser, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid || claims.Subject == "" {
		return AuthenticatedUser{}, errInvalidToken
	}
	return AuthenticatedUser{ID: claims.Subject, Role: domain.Role(claims.Role)}, nil
}

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(auth *JWTAuth, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.WarnContext(r.Context(), "Invalid Authorization header format")
				respondWithError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			user, err := auth.Verify(parts[1])
			if err != nil {
				logger.WarnContext(r.Context(), "Token validation failed", "error", err)
				respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), AuthenticatedUserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects authenticated users without the admin role.
func RequireAdmin(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				logger.ErrorContext(r.Context(), "AuthenticatedUser not found in context. AuthMiddleware must run first.")
				respondWithError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !user.IsAdmin() {
				logger.WarnContext(r.Context(), "Admin route denied", "user_id", user.ID)
				respondWithError(w, http.StatusForbidden, "Admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BotKeyMiddleware checks the shared bot secret from the X-Bot-Api-Key header,
// the api_key query parameter or the api_key body field, in that order. An
// empty configured key disables every bot route.
func BotKeyMiddleware(apiKey string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(BotKeyHeader)
			if provided == "" {
				provided = r.URL.Query().Get("api_key")
			}
			if provided == "" && r.Body != nil && r.Method != http.MethodGet {
				body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBodySize))
				if err != nil {
					respondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				var probe struct {
					APIKey string `json:"api_key"`
				}
				_ = json.Unmarshal(body, &probe)
				provided = probe.APIKey
			}

			if apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				logger.WarnContext(r.Context(), "Bot request with invalid API key", "path", r.URL.Path)
				respondWithError(w, http.StatusForbidden, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
