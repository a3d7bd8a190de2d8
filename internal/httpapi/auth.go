package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"hrcore/internal/authz"
	"hrcore/internal/claims"
	"hrcore/internal/models"
	"hrcore/internal/store"
)

type authContextKey struct{}

// identity is the authenticated caller. Role comes from the session
// registry snapshot taken at registration, not from the token, so a
// role change only takes effect on the next login.
type identity struct {
	UserID   string
	Role     string
	TokenJTI string
}

// AuthMiddleware resolves the bearer token to a registered session.
// A token that parses but has no registry entry is treated as revoked.
func AuthMiddleware(st store.Store, jwtSecret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicEndpoint(r) {
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		parsed, err := claims.Parse(token, jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		session, err := st.GetSession(r.Context(), parsed.TokenJTI)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "session revoked or expired")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}
		ctx := context.WithValue(r.Context(), authContextKey{}, identity{
			UserID:   session.UserID,
			Role:     session.Role,
			TokenJTI: session.TokenJTI,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFromContext(ctx context.Context) (identity, bool) {
	value := ctx.Value(authContextKey{})
	if value == nil {
		return identity{}, false
	}
	id, ok := value.(identity)
	return id, ok
}

func currentIdentity(w http.ResponseWriter, r *http.Request) (identity, bool) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return identity{}, false
	}
	return id, true
}

func requireManagerOrAbove(w http.ResponseWriter, r *http.Request) (identity, bool) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return identity{}, false
	}
	if !authz.IsManagerOrAbove(id.Role) {
		writeError(w, http.StatusForbidden, "access_denied", "manager role required")
		return identity{}, false
	}
	return id, true
}

func requireSuperAdmin(w http.ResponseWriter, r *http.Request) (identity, bool) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return identity{}, false
	}
	if id.Role != models.RoleSuperAdmin {
		writeError(w, http.StatusForbidden, "access_denied", "super admin role required")
		return identity{}, false
	}
	return id, true
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

func isPublicEndpoint(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz":
		return true
	case "/api/sessions":
		return r.Method == http.MethodPost
	default:
		return r.Method == http.MethodOptions
	}
}
