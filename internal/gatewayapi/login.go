package gatewayapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/toolbridge/gateway/internal/apierr"
	"github.com/toolbridge/gateway/internal/passwordhash"
	"github.com/toolbridge/gateway/internal/store"
)

type loginRequest struct {
	SystemCode string `json:"system_code"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type loginResult struct {
	Type         string `json:"type"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// Login implements spec §4.8's six-step procedure.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, r, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	user, err := s.Store.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		apierr.WriteError(w, r, http.StatusNotFound, "El correo ["+req.Email+"], no existe.")
		return
	}
	if err != nil {
		s.writeInternalError(w, r, err)
		return
	}

	ok, err := passwordhash.Verify(req.Password, user.Password)
	if err != nil {
		s.writeInternalError(w, r, err)
		return
	}
	if !ok {
		apierr.WriteError(w, r, http.StatusNotFound, "Contraseña incorrecta.")
		return
	}

	userSystems, err := s.Store.UserSystemCodes(r.Context(), user.ID)
	if err != nil {
		s.writeInternalError(w, r, err)
		return
	}
	if !user.IsSuperuser && !containsString(userSystems, req.SystemCode) {
		apierr.WriteError(w, r, http.StatusForbidden, "No tiene permisos para acceder al sistema, comuníquese con el área de soporte.")
		return
	}

	manifest, err := s.Store.EndpointsManifestForSystem(r.Context(), req.SystemCode)
	if err != nil {
		s.writeInternalError(w, r, err)
		return
	}

	roles, err := s.Store.UserRoleNames(r.Context(), user.ID)
	if err != nil {
		s.writeInternalError(w, r, err)
		return
	}
	groups, err := s.Store.UserGroupNames(r.Context(), user.ID)
	if err != nil {
		s.writeInternalError(w, r, err)
		return
	}

	claims := map[string]any{
		"id":           user.ID,
		"email":        user.Email,
		"is_active":    user.IsActive,
		"is_superuser": user.IsSuperuser,
		"roles":        roles,
		"groups":       groups,
		"systems":      userSystems,
		"endpoints":    manifest,
	}

	token, err := s.JWTManager.CreateToken(r.Context(), claims)
	if err != nil {
		s.writeInternalError(w, r, err)
		return
	}
	refreshToken, err := s.JWTManager.RefreshToken(r.Context(), claims)
	if err != nil {
		s.writeInternalError(w, r, err)
		return
	}

	apierr.WriteResult(w, http.StatusOK, loginResult{
		Type:         "Bearer",
		Token:        token,
		RefreshToken: refreshToken,
	})
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
