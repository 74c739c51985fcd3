// Package relay orchestrates the ingestion pipeline: normalize the webhook
// payload, then per event either relay a status update or classify and
// forward a message, falling back when forwarding fails.
package relay

import (
	"context"
	"log/slog"

	"github.com/botfront-labs/whatsapp-relay/internal/classify"
	"github.com/botfront-labs/whatsapp-relay/internal/domain"
	"github.com/botfront-labs/whatsapp-relay/internal/fallback"
	"github.com/botfront-labs/whatsapp-relay/internal/forward"
	"github.com/botfront-labs/whatsapp-relay/internal/webhook"
)

// Pipeline wires the normalizer, classifier, forwarder, and fallback
// responder. It is stateless across requests; all fields are read-only
// after construction, so concurrent requests need no locking.
type Pipeline struct {
	normalizer *webhook.Normalizer
	classifier *classify.Classifier
	forwarder  *forward.Forwarder
	fallback   *fallback.Responder
	logger     *slog.Logger
}

func NewPipeline(normalizer *webhook.Normalizer, classifier *classify.Classifier, forwarder *forward.Forwarder, responder *fallback.Responder, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		normalizer: normalizer,
		classifier: classifier,
		forwarder:  forwarder,
		fallback:   responder,
		logger:     logger,
	}
}

// Result summarizes one webhook request's dispatch for logging and the
// acknowledgement body.
type Result struct {
	Messages  int
	Statuses  int
	Forwarded int
	FellBack  int
	Relayed   int
}

// Dispatch processes every event in the envelope sequentially, in source
// order. Per-event failures are handled (fallback or logged drop) and never
// abort the remaining events; the only error returned is the unknown-object
// rejection from normalization.
func (p *Pipeline) Dispatch(ctx context.Context, env *webhook.Envelope) (Result, error) {
	events, err := p.normalizer.Normalize(env)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, ev := range events {
		switch {
		case ev.Status != nil:
			res.Statuses++
			if p.relayStatus(ctx, ev) {
				res.Relayed++
			}
		case ev.Message != nil:
			res.Messages++
			if p.handleMessage(ctx, ev) {
				res.Forwarded++
			} else {
				res.FellBack++
			}
		}
	}
	return res, nil
}

// relayStatus forwards one status update. Failures are logged and dropped;
// status updates never reach the fallback responder because they carry no
// user-facing content.
func (p *Pipeline) relayStatus(ctx context.Context, ev domain.Event) bool {
	out := p.forwarder.RelayStatus(ctx, ev.Tenant, ev.Status)
	if out.Err != nil {
		p.logger.Error("status relay failed",
			slog.String("tenant_id", ev.Tenant),
			slog.String("message_id", ev.Status.MessageID),
			slog.String("status", string(ev.Status.Status)),
			slog.String("error", out.Err.Error()),
		)
		return false
	}
	p.logger.Debug("status relayed",
		slog.String("tenant_id", ev.Tenant),
		slog.String("message_id", ev.Status.MessageID),
		slog.String("status", string(ev.Status.Status)),
	)
	return true
}

// handleMessage classifies and forwards one message, invoking fallback on
// failure. Returns true when the forward succeeded.
func (p *Pipeline) handleMessage(ctx context.Context, ev domain.Event) bool {
	category := p.classifier.Classify(ev.Message)

	out := p.forwarder.ForwardMessage(ctx, category, ev.Tenant, ev.Message)
	if out.Success() {
		p.logger.Info("message forwarded",
			slog.String("tenant_id", ev.Tenant),
			slog.String("message_id", ev.Message.ID),
			slog.String("category", string(category)),
			slog.Int("downstream_status", out.StatusCode),
		)
		return true
	}

	p.logger.Error("message forward failed",
		slog.String("tenant_id", ev.Tenant),
		slog.String("message_id", ev.Message.ID),
		slog.String("category", string(category)),
		slog.String("url", out.URL),
		slog.String("error", out.Err.Error()),
	)
	p.fallback.Handle(ctx, category, ev.Tenant, ev.Message, out.Err)
	return false
}
