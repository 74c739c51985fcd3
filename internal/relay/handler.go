package relay

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/botfront-labs/whatsapp-relay/internal/auth"
	"github.com/botfront-labs/whatsapp-relay/internal/server"
	"github.com/botfront-labs/whatsapp-relay/internal/webhook"
)

// Handler serves the webhook and health endpoints.
type Handler struct {
	pipeline    *Pipeline
	verifyToken string
	version     string
	presence    map[string]bool
	logger      *slog.Logger
}

func NewHandler(pipeline *Pipeline, verifyToken, version string, presence map[string]bool, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline:    pipeline,
		verifyToken: verifyToken,
		version:     version,
		presence:    presence,
		logger:      logger,
	}
}

// HandleVerify answers the provider's subscription handshake. A request
// with no hub params at all is treated as a liveness probe and answered
// with the health body rather than a verification failure.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "" && token == "" {
		h.HandleHealth(w, r)
		return
	}

	if mode != "subscribe" || !auth.TokenMatches(h.verifyToken, token) {
		h.logger.Warn("webhook verification rejected", slog.String("mode", mode))
		w.WriteHeader(http.StatusForbidden)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// HandleWebhook ingests one envelope. The acknowledgement is sent exactly
// once regardless of how many contained events failed: 404 for foreign
// object kinds, 500 only when the body does not parse at all, 200
// otherwise.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var env webhook.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		server.AddError(r.Context(), err)
		http.Error(w, "invalid payload", http.StatusInternalServerError)
		return
	}

	res, err := h.pipeline.Dispatch(r.Context(), &env)
	if err != nil {
		if errors.Is(err, webhook.ErrUnknownObject) {
			http.Error(w, "ignored", http.StatusNotFound)
			return
		}
		// Dispatch isolates per-event failures; anything else is a bug.
		server.AddError(r.Context(), err)
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("webhook dispatched",
		slog.Int("messages", res.Messages),
		slog.Int("statuses", res.Statuses),
		slog.Int("forwarded", res.Forwarded),
		slog.Int("fell_back", res.FellBack),
		slog.Int("relayed", res.Relayed),
	)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("EVENT_RECEIVED"))
}

// HandleHealth reports liveness plus which config groups are present.
// It never fails.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": h.version,
		"config":  h.presence,
	})
}
