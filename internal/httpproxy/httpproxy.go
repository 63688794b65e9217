// Package httpproxy resolves the target microservice for a proxied path
// and forwards the request, preserving method, headers, query, body, and
// content-type — including binary document payloads.
package httpproxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/toolbridge/gateway/internal/apierr"
	"github.com/toolbridge/gateway/internal/store"
)

var allowedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodDelete: {},
}

// storeReader is the slice of the persistence adapter the proxy needs.
type storeReader interface {
	GetEndpointByURL(ctx context.Context, url string) (store.Endpoint, error)
	GetMicroserviceForEndpoint(ctx context.Context, endpointID int64) (store.Microservice, error)
}

// MovementRecorder is the audit sink; RecordMovement failures are logged,
// never surfaced (see SPEC_FULL.md's Supplemented Features).
type MovementRecorder interface {
	RecordMovement(ctx context.Context, m store.HistoricalMovement) error
}

type Proxy struct {
	Store    storeReader
	Movement MovementRecorder
	Client   *http.Client
}

func New(s storeReader, movement MovementRecorder) *Proxy {
	return &Proxy{
		Store:    s,
		Movement: movement,
		Client:   &http.Client{Timeout: 600 * time.Second},
	}
}

// ServeHTTP implements spec §4.6 steps 1-9.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := allowedMethods[r.Method]; !ok {
		apierr.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := "/" + strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/gateway"), "/")

	endpoint, err := p.Store.GetEndpointByURL(r.Context(), path)
	if errors.Is(err, store.ErrNotFound) {
		apierr.WriteError(w, r, http.StatusNotFound, "The requested endpoint was not found.")
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("httpproxy: lookup endpoint")
		apierr.WriteError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	microservice, err := p.Store.GetMicroserviceForEndpoint(r.Context(), endpoint.ID)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrAmbiguousMicroservice) {
		apierr.WriteError(w, r, http.StatusBadGateway, "No microservices available for this endpoint.")
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("httpproxy: resolve microservice")
		apierr.WriteError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	target := microservice.BaseURL + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	p.recordMovement(r, path, microservice)

	p.forward(w, r, target)
}

func (p *Proxy) forward(w http.ResponseWriter, r *http.Request, target string) {
	ctx, cancel := context.WithTimeout(r.Context(), 600*time.Second)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		apierr.WriteError(w, r, http.StatusBadRequest, "failed to read request body")
		return
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, strings.NewReader(string(body)))
	if err != nil {
		apierr.WriteError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	req.Header = r.Header.Clone()

	resp, err := p.Client.Do(req)
	if err != nil {
		apierr.WriteError(w, r, http.StatusServiceUnavailable, "The service is not available, please contact the support area.")
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		apierr.WriteError(w, r, http.StatusBadGateway, "failed to read upstream response")
		return
	}

	if resp.StatusCode != http.StatusOK {
		detail := upstreamDetail(respBody)
		apierr.WriteError(w, r, resp.StatusCode, detail)
		return
	}

	contentType := resp.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "application/pdf") {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `inline; filename=documento_oficial.pdf`)
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(respBody)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(respBody)
}

func upstreamDetail(body []byte) string {
	detail, ok := extractDetail(body)
	if !ok {
		return "Unknown error"
	}
	return detail
}

func (p *Proxy) recordMovement(r *http.Request, path string, m store.Microservice) {
	if p.Movement == nil {
		return
	}
	go func() {
		err := p.Movement.RecordMovement(context.Background(), store.HistoricalMovement{
			URLRequest: path,
			Method:     r.Method,
			ClientIP:   r.RemoteAddr,
			UserAgent:  r.UserAgent(),
			Query:      r.URL.RawQuery,
		})
		if err != nil {
			log.Warn().Err(err).Msg("httpproxy: failed to record historical movement")
		}
	}()
}
