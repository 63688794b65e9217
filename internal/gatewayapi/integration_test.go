package gatewayapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/toolbridge/gateway/internal/authz"
	"github.com/toolbridge/gateway/internal/db"
	"github.com/toolbridge/gateway/internal/httpproxy"
	"github.com/toolbridge/gateway/internal/ratelimit"
	"github.com/toolbridge/gateway/internal/store"
	"github.com/toolbridge/gateway/internal/wsproxy"
)

// getTestDB requires a live Postgres instance, the way the teacher's own
// getTestDB helper does; skipped entirely under -short or when
// TEST_DATABASE_URL isn't set.
func getTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in -short mode")
	}
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration tests")
	}
	pool, err := db.Open(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	return pool
}

func newTestServer(t *testing.T, pool *pgxpool.Pool) *Server {
	t.Helper()
	s := store.New(pool)
	return &Server{
		Store:   s,
		Authz:   authz.New(s),
		Limiter: ratelimit.New(ratelimit.Config{Capacity: 15, Window: time.Second, Block: 60 * time.Second}),
		HTTPProxy: httpproxy.New(s, s),
		WSProxy:   wsproxy.New(s),
	}
}

func TestRegisterThenDuplicateRejected(t *testing.T) {
	pool := getTestDB(t)
	defer pool.Close()

	srv := newTestServer(t, pool)
	router := srv.Routes()

	body, _ := json.Marshal(map[string]string{
		"email":           "integration-test@example.com",
		"password":        "pw123456",
		"password_repeat": "pw123456",
	})

	req := httptest.NewRequest(http.MethodPost, "/authentication/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	req2 := httptest.NewRequest(http.MethodPost, "/authentication/register", bytes.NewReader(body))
	rr2 := httptest.NewRecorder()
	router.ServeHTTP(rr2, req2)
	if rr2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate email, got %d", rr2.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := &Server{Limiter: ratelimit.New(ratelimit.Config{Capacity: 15, Window: time.Second, Block: time.Minute})}
	router := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
