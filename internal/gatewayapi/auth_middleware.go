package gatewayapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/toolbridge/gateway/internal/authz"
	"github.com/toolbridge/gateway/internal/jwtmanager"
	"github.com/toolbridge/gateway/internal/store"
)

// passthroughPaths are admitted without a token even when no endpoint-level
// authenticated=false applies (spec §4.5's missing-credentials branch).
var passthroughPaths = map[string]struct{}{
	"/authentication/login":    {},
	"/authentication/register": {},
}

const administrationPrefix = "/administration/"
const currentUserPath = "/administration/users/get_current_user"

// AuthMiddleware implements spec §4.5: bearer extraction, signature
// verification, the administration superuser gate, and the authorization
// engine invocation — in that order, mirroring JwtMiddleware.JWTBearer.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")

		if header == "" || header == "null" {
			s.handleMissingCredentials(w, r, next)
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			forbidden(w, r, "Invalid or expired token.")
			return
		}

		claims, err := s.JWTManager.Validate(r.Context(), token)
		if err != nil {
			if errors.Is(err, jwtmanager.ErrTokenExpired) || errors.Is(err, jwtmanager.ErrTokenInvalid) {
				forbidden(w, r, "Invalid or expired token.")
				return
			}
			forbidden(w, r, "Invalid or expired token.")
			return
		}

		email, _ := claims["email"].(string)
		user, err := s.Store.GetUserByEmail(r.Context(), email)
		if errors.Is(err, store.ErrNotFound) {
			forbidden(w, r, "Invalid or expired token.")
			return
		}
		if err != nil {
			s.writeInternalError(w, r, err)
			return
		}

		path := r.URL.Path
		if strings.HasPrefix(path, administrationPrefix) && path != currentUserPath {
			if !user.IsSuperuser {
				forbidden(w, r, "Access denied.")
				return
			}
		}

		allowed, err := s.Authz.UserAccessControl(r.Context(), user.ID, path)
		if errors.Is(err, authz.ErrEndpointNotFound) {
			notFound(w, r, "The requested endpoint was not found.")
			return
		}
		if err != nil {
			s.writeInternalError(w, r, err)
			return
		}
		if !allowed {
			forbidden(w, r, "Access denied.")
			return
		}

		ctx := withClaims(r.Context(), claims, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleMissingCredentials(w http.ResponseWriter, r *http.Request, next http.Handler) {
	path := r.URL.Path
	if _, ok := passthroughPaths[path]; ok {
		next.ServeHTTP(w, r)
		return
	}

	endpointURL := strings.TrimPrefix(path, "/gateway")
	endpoint, err := s.Store.GetEndpointByURL(r.Context(), endpointURL)
	if err == nil && !endpoint.Authenticated {
		next.ServeHTTP(w, r)
		return
	}

	forbidden(w, r, "Not authenticated.")
}
