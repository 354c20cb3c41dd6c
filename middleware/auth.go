package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mini-planner/apperr"
	"mini-planner/auth"
)

type userIDKey struct{}

// AccessParser verifies access tokens.
type AccessParser interface {
	ParseAccess(token string) (*auth.Claims, error)
}

// UserID returns the caller id RequireAuth stored in ctx.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func bearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header || token == "" {
		return "", false
	}
	return token, true
}

// RequireAuth rejects requests without a valid access token and stores the
// token's user id in the request context.
func RequireAuth(tokens AccessParser, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearer(r)
			if !ok {
				writeError(w, apperr.New(apperr.Unauthenticated))
				return
			}

			if len(strings.Split(tokenStr, ".")) != 3 {
				log.Debug("malformed bearer token")
				writeError(w, apperr.New(apperr.Unauthenticated))
				return
			}

			claims, err := tokens.ParseAccess(tokenStr)
			if err != nil {
				log.Debug("token rejected", zap.Error(err))
				writeError(w, apperr.New(apperr.Unauthenticated))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

// RequireAnonymous refuses callers that already hold a valid access token.
func RequireAnonymous(tokens AccessParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenStr, ok := bearer(r); ok {
				if _, err := tokens.ParseAccess(tokenStr); err == nil {
					writeError(w, apperr.Newf(apperr.AccessDenied, "User Is Already Logged In"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, e *apperr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(e.Kind))
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"kind": e.Kind.String(), "message": e.Message},
	})
}
