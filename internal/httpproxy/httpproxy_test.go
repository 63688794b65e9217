package httpproxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/toolbridge/gateway/internal/store"
)

type fakeStore struct {
	endpoints     map[string]store.Endpoint
	microservices map[int64]store.Microservice
}

func (f *fakeStore) GetEndpointByURL(_ context.Context, url string) (store.Endpoint, error) {
	e, ok := f.endpoints[url]
	if !ok {
		return store.Endpoint{}, store.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) GetMicroserviceForEndpoint(_ context.Context, endpointID int64) (store.Microservice, error) {
	m, ok := f.microservices[endpointID]
	if !ok {
		return store.Microservice{}, store.ErrNotFound
	}
	return m, nil
}

type noopMovement struct{}

func (noopMovement) RecordMovement(context.Context, store.HistoricalMovement) error { return nil }

func TestServeHTTP_NotFound(t *testing.T) {
	p := New(&fakeStore{endpoints: map[string]store.Endpoint{}}, noopMovement{})

	req := httptest.NewRequest(http.MethodGet, "/gateway/missing", nil)
	rr := httptest.NewRecorder()
	p.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestServeHTTP_ForwardsToUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	p := New(&fakeStore{
		endpoints: map[string]store.Endpoint{
			"/notes": {ID: 1, URL: "/notes", MicroserviceID: 10},
		},
		microservices: map[int64]store.Microservice{
			1: {ID: 10, BaseURL: upstream.URL},
		},
	}, noopMovement{})

	req := httptest.NewRequest(http.MethodGet, "/gateway/notes", nil)
	rr := httptest.NewRecorder()
	p.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	p := New(&fakeStore{}, noopMovement{})
	req := httptest.NewRequest(http.MethodPatch, "/gateway/notes", nil)
	rr := httptest.NewRecorder()
	p.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
