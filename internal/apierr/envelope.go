// Package apierr implements the gateway's response envelope and error
// writer, generalizing the teacher's writeJSON/writeError helpers to the
// {status, detail, result} shape spec §6 requires for non-proxy endpoints.
package apierr

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Envelope is the standard non-proxy response shape. Null-valued keys are
// omitted via `omitempty`.
type Envelope struct {
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Result any    `json:"result,omitempty"`
}

// WriteResult writes a 2xx success envelope.
func WriteResult(w http.ResponseWriter, status int, result any) {
	write(w, status, Envelope{Status: status, Result: result})
}

// WriteError writes an error envelope and logs server-side context, the
// way the teacher's writeError attaches a correlation id to the log line.
func WriteError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	log.Ctx(r.Context()).Warn().
		Int("status", status).
		Str("path", r.URL.Path).
		Str("detail", detail).
		Msg("request failed")
	write(w, status, Envelope{Status: status, Detail: detail})
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error().Err(err).Msg("apierr: failed to encode response envelope")
	}
}
