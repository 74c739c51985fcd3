// Package templates proxies template listing to the provider's API on
// behalf of the main application, using the caller's own token.
package templates

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/botfront-labs/whatsapp-relay/internal/auth"
	"github.com/botfront-labs/whatsapp-relay/internal/provider/whatsapp"
)

// Proxy serves GET /templates/{businessAccountId}.
type Proxy struct {
	client *whatsapp.Client
	logger *slog.Logger
}

func NewProxy(client *whatsapp.Client, logger *slog.Logger) *Proxy {
	return &Proxy{client: client, logger: logger}
}

// Handle fetches templates with the caller-supplied bearer token and
// mirrors the provider's status code and body, success or not. Only a
// transport-level failure produces a local error status.
func (p *Proxy) Handle(w http.ResponseWriter, r *http.Request) {
	token, err := auth.ExtractBearer(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	businessAccountID := chi.URLParam(r, "businessAccountId")
	if businessAccountID == "" {
		http.Error(w, "business account id is required", http.StatusBadRequest)
		return
	}

	status, body, err := p.client.FetchTemplates(r.Context(), businessAccountID, token)
	if err != nil {
		p.logger.Error("template fetch failed",
			slog.String("business_account_id", businessAccountID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "provider unreachable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
