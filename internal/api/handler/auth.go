// internal/api/handler/auth.go
package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"fxwallet/internal/api/types"
	"fxwallet/internal/util"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const userIDKey ctxKey = iota

// WithUserID stores the authenticated principal in ctx.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the principal set by Authenticator.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// Authenticator verifies an HS256 bearer token and puts its user id in the
// request context. Browsers cannot set headers on WebSocket upgrades, so the
// token may also come in the "token" query parameter.
func Authenticator(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(parser, key, r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeJSON(w, http.StatusUnauthorized, types.ErrorResponse{Error: "Could not validate credentials"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func authenticate(parser *jwt.Parser, key []byte, r *http.Request) (int64, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if raw == "" {
		raw = r.URL.Query().Get("token")
	}
	if raw == "" {
		return 0, util.ErrUnauthorized
	}

	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}); err != nil {
		return 0, fmt.Errorf("%w: %v", util.ErrUnauthorized, err)
	}

	for _, name := range []string{"user_id", "sub"} {
		if id, ok := claimID(claims[name]); ok {
			return id, nil
		}
	}
	return 0, util.ErrUnauthorized
}

func claimID(v interface{}) (int64, bool) {
	switch id := v.(type) {
	case float64:
		if id > 0 && id == float64(int64(id)) {
			return int64(id), true
		}
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		if err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// currentUser is used by handlers behind Authenticator.
func (h responder) currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithJSON(w, http.StatusUnauthorized, types.ErrorResponse{Error: "Could not validate credentials"})
	}
	return id, ok
}
