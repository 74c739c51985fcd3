package webhook

import (
	"errors"
	"log/slog"

	"github.com/botfront-labs/whatsapp-relay/internal/domain"
	"github.com/botfront-labs/whatsapp-relay/internal/tenant"
)

// expectedObject is the object marker the provider sets on business-account
// webhook deliveries. Anything else is not ours to process.
const expectedObject = "whatsapp_business_account"

// ErrUnknownObject indicates a payload whose object marker does not match
// the business-account webhook. Callers acknowledge with a not-found status
// rather than an error.
var ErrUnknownObject = errors.New("webhook: unexpected object kind")

// Normalizer flattens the nested provider payload into an ordered sequence
// of typed events.
type Normalizer struct {
	logger *slog.Logger
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize walks entries and changes in source order and emits one event
// per status and per message. A change missing its tenant id is skipped and
// logged; sibling changes are unaffected. Changes for fields other than
// "messages" are skipped silently.
func (n *Normalizer) Normalize(env *Envelope) ([]domain.Event, error) {
	if env == nil || env.Object != expectedObject {
		return nil, ErrUnknownObject
	}

	var events []domain.Event
	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			if len(change.Value.Messages) == 0 && len(change.Value.Statuses) == 0 {
				continue
			}

			tenantID, err := tenant.Resolve(change.Value.Metadata.PhoneNumberID)
			if err != nil {
				n.logger.Error("skipping change without tenant id",
					slog.String("entry_id", entry.ID),
					slog.String("error", err.Error()),
				)
				continue
			}

			names := senderNames(change.Value.Contacts)

			for _, st := range change.Value.Statuses {
				events = append(events, domain.Event{
					Tenant: tenantID,
					Status: &domain.StatusUpdate{
						MessageID:   st.ID,
						Status:      domain.DeliveryStatus(st.Status),
						Timestamp:   st.Timestamp,
						RecipientID: st.RecipientID,
					},
				})
			}

			for _, raw := range change.Value.Messages {
				msg := normalizeMessage(raw)
				msg.SenderName = names[raw.From]
				events = append(events, domain.Event{Tenant: tenantID, Message: msg})
			}
		}
	}
	return events, nil
}

// normalizeMessage maps one wire message to the domain shape. Unsupported
// types still produce a typed message with empty content so downstream can
// acknowledge receipt.
func normalizeMessage(raw RawMessage) *domain.Message {
	msg := &domain.Message{
		ID:        raw.ID,
		From:      raw.From,
		Timestamp: raw.Timestamp,
	}

	switch raw.Type {
	case "text":
		msg.Type = domain.MessageTypeText
		if raw.Text != nil {
			msg.TextBody = raw.Text.Body
		}
	case "image":
		msg.Type = domain.MessageTypeImage
		setMedia(msg, raw.Image)
	case "video":
		msg.Type = domain.MessageTypeVideo
		setMedia(msg, raw.Video)
	case "document":
		msg.Type = domain.MessageTypeDocument
		setMedia(msg, raw.Document)
	case "audio":
		msg.Type = domain.MessageTypeAudio
	default:
		msg.Type = domain.MessageTypeUnknown
	}
	return msg
}

func setMedia(msg *domain.Message, media *MediaContent) {
	if media == nil {
		return
	}
	msg.MediaID = media.ID
	msg.MimeType = media.MimeType
}

func senderNames(contacts []Contact) map[string]string {
	if len(contacts) == 0 {
		return nil
	}
	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		if c.Profile.Name != "" {
			names[c.WaID] = c.Profile.Name
		}
	}
	return names
}
