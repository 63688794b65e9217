// Package wsproxy upgrades the inbound client connection and bidirectionally
// splices binary frames to the resolved upstream microservice, terminating
// when either side closes.
package wsproxy

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/toolbridge/gateway/internal/apierr"
	"github.com/toolbridge/gateway/internal/store"
	"nhooyr.io/websocket"
)

const upstreamReadTimeout = 10 * time.Second

type storeReader interface {
	GetEndpointByURL(ctx context.Context, url string) (store.Endpoint, error)
	GetMicroserviceForEndpoint(ctx context.Context, endpointID int64) (store.Microservice, error)
}

type Proxy struct {
	Store storeReader
}

func New(s storeReader) *Proxy {
	return &Proxy{Store: s}
}

// ServeHTTP implements spec §4.7 steps 1-5.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := "/" + strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/ws"), "/")

	endpoint, err := p.Store.GetEndpointByURL(r.Context(), path)
	if errors.Is(err, store.ErrNotFound) {
		apierr.WriteError(w, r, http.StatusNotFound, "The requested endpoint was not found.")
		return
	}
	if err != nil {
		apierr.WriteError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	microservice, err := p.Store.GetMicroserviceForEndpoint(r.Context(), endpoint.ID)
	if err != nil {
		apierr.WriteError(w, r, http.StatusBadGateway, "No microservices available for this endpoint.")
		return
	}

	upstreamURL, err := convertToWS(microservice.BaseURL + path + queryOf(r))
	if err != nil {
		apierr.WriteError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	client, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("wsproxy: accept failed")
		return
	}

	upstream, _, err := websocket.Dial(r.Context(), upstreamURL, nil)
	if err != nil {
		_ = client.Close(websocket.StatusAbnormalClosure, "upstream dial failed")
		return
	}

	splice(r.Context(), client, upstream)
}

func queryOf(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return ""
	}
	return "?" + r.URL.RawQuery
}

// convertToWS translates the upstream base URL's scheme (http→ws,
// https→wss), preserving authority, path, query, and fragment exactly, the
// way WebsocketHelper.convert_url_to_ws does via urlparse/urlunparse.
func convertToWS(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String(), nil
}

// splice runs the consumer/producer pump pair concurrently and terminates
// both as soon as either completes, closing the client with an
// abnormal-closure code on any error (spec §4.7 step 5).
func splice(ctx context.Context, client, upstream *websocket.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 2)

	go consume(ctx, client, upstream, done)
	go produce(ctx, client, upstream, done)

	err := <-done
	cancel()

	code := websocket.StatusNormalClosure
	if err != nil {
		code = websocket.StatusAbnormalClosure
	}
	_ = client.Close(code, "")
	_ = upstream.Close(code, "")
}

// consume receives binary frames from the client and forwards them upstream.
func consume(ctx context.Context, client, upstream *websocket.Conn, done chan<- error) {
	for {
		typ, data, err := client.Read(ctx)
		if err != nil {
			done <- err
			return
		}
		if typ != websocket.MessageBinary {
			continue
		}
		if err := upstream.Write(ctx, websocket.MessageBinary, data); err != nil {
			done <- err
			return
		}
	}
}

// produce receives frames from the upstream, with a per-read idle timeout,
// and forwards them to the client as binary.
func produce(ctx context.Context, client, upstream *websocket.Conn, done chan<- error) {
	for {
		readCtx, cancel := context.WithTimeout(ctx, upstreamReadTimeout)
		_, data, err := upstream.Read(readCtx)
		cancel()
		if err != nil {
			done <- err
			return
		}
		if err := client.Write(ctx, websocket.MessageBinary, data); err != nil {
			done <- err
			return
		}
	}
}
