// internal/auth/middleware.go
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const WorkspaceIDKey contextKey = "workspace_id"

// JWTAuthMiddleware accepts the token from the Authorization header or, for
// websocket upgrades where browsers cannot set headers, the access_token query.
func JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("access_token")
		if header := r.Header.Get("Authorization"); header != "" {
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}
			tokenStr = strings.TrimPrefix(header, "Bearer ")
		}
		if tokenStr == "" {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := ValidateToken(tokenStr)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Inject workspace_id into context
		ctx := context.WithValue(r.Context(), WorkspaceIDKey, claims.WorkspaceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetWorkspaceID extracts workspace_id from context
func GetWorkspaceID(r *http.Request) (uuid.UUID, bool) {
	val, ok := r.Context().Value(WorkspaceIDKey).(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
