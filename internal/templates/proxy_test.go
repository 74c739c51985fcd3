package templates

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/botfront-labs/whatsapp-relay/internal/provider/whatsapp"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newProxyRouter(providerURL string) *chi.Mux {
	client := whatsapp.NewClient("system-token", "15550000000", whatsapp.WithBaseURL(providerURL))
	proxy := NewProxy(client, discard)

	r := chi.NewRouter()
	r.Get("/templates/{businessAccountId}", proxy.Handle)
	return r
}

func TestProxy_MissingAuthIs401(t *testing.T) {
	router := newProxyRouter("http://unused.example.com")

	req := httptest.NewRequest("GET", "/templates/123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestProxy_MalformedAuthIs401(t *testing.T) {
	router := newProxyRouter("http://unused.example.com")

	req := httptest.NewRequest("GET", "/templates/123", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestProxy_MirrorsProviderStatusAndBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "success", status: http.StatusOK, body: `{"data":[{"name":"welcome"}]}`},
		{name: "provider 400", status: http.StatusBadRequest, body: `{"error":{"message":"bad id"}}`},
		{name: "provider 500", status: http.StatusInternalServerError, body: `{"error":{"message":"upstream broke"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			router := newProxyRouter(srv.URL)
			req := httptest.NewRequest("GET", "/templates/9876543210", nil)
			req.Header.Set("Authorization", "Bearer caller-token")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want mirrored %d", rec.Code, tt.status)
			}
			if rec.Body.String() != tt.body {
				t.Errorf("body = %q, want mirrored %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestProxy_ProviderUnreachableIs502(t *testing.T) {
	// Point at a closed server so the transport fails.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	router := newProxyRouter(srv.URL)
	req := httptest.NewRequest("GET", "/templates/9876543210", nil)
	req.Header.Set("Authorization", "Bearer caller-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}
