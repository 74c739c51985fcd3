// Package fallback implements the degraded-mode behavior when forwarding
// fails. The mode is a single injectable policy decision:
//
//   - auto-reply: send a canned, category-specific acknowledgement directly
//     to the sender via the provider's send API.
//   - log-only: only log; the downstream owns end-user communication, and a
//     direct reply could race its own eventual answer.
//
// Fallback failures are always terminal for the event. Nothing here ever
// propagates back into the inbound HTTP acknowledgement.
package fallback

import (
	"context"
	"log/slog"

	"github.com/botfront-labs/whatsapp-relay/internal/config"
	"github.com/botfront-labs/whatsapp-relay/internal/domain"
)

// MaxMessageLength is the provider's documented maximum text body length.
const MaxMessageLength = 4096

const truncationMarker = "…"

// Sender sends a text message to an end user. Implemented by the provider
// client.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// Canned acknowledgements per routing category.
var replies = map[domain.Category]string{
	domain.CategoryQuiz:            "Nous avons bien reçu votre demande de quiz. Le service est momentanément indisponible, réessayez dans quelques minutes.",
	domain.CategoryEducation:       "Nous avons bien reçu votre question. Nos contenus pédagogiques sont momentanément indisponibles, réessayez dans quelques minutes.",
	domain.CategoryCustomerService: "Nous avons bien reçu votre message. Un conseiller vous répondra dès que possible.",
}

// Responder applies the configured fallback policy.
type Responder struct {
	mode   string
	sender Sender
	logger *slog.Logger
}

func New(mode string, sender Sender, logger *slog.Logger) *Responder {
	return &Responder{mode: mode, sender: sender, logger: logger}
}

// Handle reacts to a failed forward of msg. In log-only mode the failure is
// recorded and nothing else happens. In auto-reply mode a canned reply goes
// straight to the sender; if that send fails too, the event is dropped
// after logging.
func (r *Responder) Handle(ctx context.Context, category domain.Category, tenantID string, msg *domain.Message, forwardErr error) {
	attrs := []any{
		slog.String("tenant_id", tenantID),
		slog.String("message_id", msg.ID),
		slog.String("category", string(category)),
		slog.String("forward_error", forwardErr.Error()),
	}

	if r.mode != config.FallbackAutoReply {
		r.logger.Warn("forward failed, fallback is log-only", attrs...)
		return
	}

	body := replyFor(category)
	if body == "" {
		// Never send an empty reply.
		r.logger.Error("forward failed and no canned reply available", attrs...)
		return
	}
	body = Truncate(body, MaxMessageLength)

	if err := r.sender.SendText(ctx, msg.From, body); err != nil {
		r.logger.Error("fallback reply failed",
			append(attrs, slog.String("fallback_error", err.Error()))...)
		return
	}
	r.logger.Info("sent fallback auto-reply", attrs...)
}

func replyFor(category domain.Category) string {
	if reply, ok := replies[category]; ok {
		return reply
	}
	return replies[domain.CategoryCustomerService]
}

// Truncate shortens s to at most limit characters including the truncation
// marker. Counting is by runes so a multi-byte marker never splits a
// character.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	marker := []rune(truncationMarker)
	if limit <= len(marker) {
		return string(marker[:limit])
	}
	return string(runes[:limit-len(marker)]) + truncationMarker
}
