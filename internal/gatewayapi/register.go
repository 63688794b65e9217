package gatewayapi

import (
	"encoding/json"
	"net/http"

	"github.com/toolbridge/gateway/internal/apierr"
	"github.com/toolbridge/gateway/internal/passwordhash"
)

type registerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	PasswordRepeat string `json:"password_repeat"`
}

type registerResult struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Register implements spec §4.9. Field-level validation (presence, length,
// password/password_repeat match) belongs to the input shell, out of
// scope here; this handler owns only the duplicate-email check and the
// insert.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, r, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	exists, err := s.Store.EmailExists(r.Context(), req.Email)
	if err != nil {
		s.writeInternalError(w, r, err)
		return
	}
	if exists {
		apierr.WriteError(w, r, http.StatusBadRequest, "El correo ["+req.Email+"], ya existe.")
		return
	}

	hash, err := passwordhash.Hash(req.Password)
	if err != nil {
		s.writeInternalError(w, r, err)
		return
	}

	user, err := s.Store.CreateUser(r.Context(), req.Email, hash)
	if err != nil {
		s.writeInternalError(w, r, err)
		return
	}

	apierr.WriteResult(w, http.StatusCreated, registerResult{ID: user.ID, Email: user.Email})
}
