package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/botfront-labs/whatsapp-relay/internal/domain"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func textChange(phoneNumberID, from, id, body string) Change {
	return Change{
		Field: "messages",
		Value: ChangeValue{
			Metadata: Metadata{PhoneNumberID: phoneNumberID},
			Messages: []RawMessage{{
				From:      from,
				ID:        id,
				Timestamp: "1700000000",
				Type:      "text",
				Text:      &TextContent{Body: body},
			}},
		},
	}
}

func TestNormalize_RejectsUnknownObject(t *testing.T) {
	n := newTestNormalizer()

	for _, object := range []string{"", "page", "instagram"} {
		_, err := n.Normalize(&Envelope{Object: object})
		if !errors.Is(err, ErrUnknownObject) {
			t.Errorf("Normalize(object=%q) error = %v, want ErrUnknownObject", object, err)
		}
	}

	if _, err := n.Normalize(nil); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("Normalize(nil) error = %v, want ErrUnknownObject", err)
	}
}

func TestNormalize_TextMessage(t *testing.T) {
	n := newTestNormalizer()
	env := &Envelope{
		Object: "whatsapp_business_account",
		Entry: []Entry{{
			ID:      "entry-1",
			Changes: []Change{textChange("1234567890", "+221123456789", "wamid.1", "hello")},
		}},
	}

	events, err := n.Normalize(env)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Normalize() produced %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.Tenant != "1234567890" {
		t.Errorf("tenant = %q, want 1234567890", ev.Tenant)
	}
	if ev.Message == nil || ev.Status != nil {
		t.Fatalf("expected a message event, got %+v", ev)
	}
	if ev.Message.Type != domain.MessageTypeText || ev.Message.TextBody != "hello" {
		t.Errorf("message = %+v, want text %q", ev.Message, "hello")
	}
}

func TestNormalize_MissingTenantSkipsChangeOnly(t *testing.T) {
	n := newTestNormalizer()
	env := &Envelope{
		Object: "whatsapp_business_account",
		Entry: []Entry{{
			Changes: []Change{
				textChange("", "+221123456789", "wamid.orphan", "no tenant"),
				textChange("1234567890", "+221123456789", "wamid.ok", "sibling survives"),
			},
		}},
	}

	events, err := n.Normalize(env)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Normalize() produced %d events, want 1", len(events))
	}
	if events[0].Message.ID != "wamid.ok" {
		t.Errorf("surviving message id = %q, want wamid.ok", events[0].Message.ID)
	}
}

func TestNormalize_UnknownFieldsSkippedSilently(t *testing.T) {
	n := newTestNormalizer()
	env := &Envelope{
		Object: "whatsapp_business_account",
		Entry: []Entry{{
			Changes: []Change{
				{Field: "account_update"},
				textChange("1234567890", "+221123456789", "wamid.1", "hi"),
				{Field: "message_template_status_update"},
			},
		}},
	}

	events, err := n.Normalize(env)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("Normalize() produced %d events, want 1", len(events))
	}
}

func TestNormalize_StatusUpdates(t *testing.T) {
	n := newTestNormalizer()
	env := &Envelope{
		Object: "whatsapp_business_account",
		Entry: []Entry{{
			Changes: []Change{{
				Field: "messages",
				Value: ChangeValue{
					Metadata: Metadata{PhoneNumberID: "1234567890"},
					Statuses: []RawStatus{
						{ID: "wamid.a", Status: "delivered", Timestamp: "1700000000", RecipientID: "+221123456789"},
						{ID: "wamid.b", Status: "read", Timestamp: "1700000001", RecipientID: "+221123456789"},
					},
				},
			}},
		}},
	}

	events, err := n.Normalize(env)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Normalize() produced %d events, want 2", len(events))
	}
	if events[0].Status == nil || events[0].Status.Status != domain.StatusDelivered {
		t.Errorf("first event = %+v, want delivered status", events[0])
	}
	if events[1].Status == nil || events[1].Status.Status != domain.StatusRead {
		t.Errorf("second event = %+v, want read status (array order preserved)", events[1])
	}
}

func TestNormalize_MediaAndUnsupportedTypes(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name      string
		raw       RawMessage
		wantType  domain.MessageType
		wantMedia string
		wantMime  string
	}{
		{
			name:      "image",
			raw:       RawMessage{ID: "m1", From: "+221", Type: "image", Image: &MediaContent{ID: "media-1", MimeType: "image/jpeg"}},
			wantType:  domain.MessageTypeImage,
			wantMedia: "media-1",
			wantMime:  "image/jpeg",
		},
		{
			name:      "document",
			raw:       RawMessage{ID: "m2", From: "+221", Type: "document", Document: &MediaContent{ID: "media-2", MimeType: "application/pdf"}},
			wantType:  domain.MessageTypeDocument,
			wantMedia: "media-2",
			wantMime:  "application/pdf",
		},
		{
			name:     "audio has no media extraction",
			raw:      RawMessage{ID: "m3", From: "+221", Type: "audio", Audio: &MediaContent{ID: "media-3"}},
			wantType: domain.MessageTypeAudio,
		},
		{
			name:     "unknown type still normalizes",
			raw:      RawMessage{ID: "m4", From: "+221", Type: "sticker"},
			wantType: domain.MessageTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &Envelope{
				Object: "whatsapp_business_account",
				Entry: []Entry{{Changes: []Change{{
					Field: "messages",
					Value: ChangeValue{
						Metadata: Metadata{PhoneNumberID: "1234567890"},
						Messages: []RawMessage{tt.raw},
					},
				}}}},
			}

			events, err := n.Normalize(env)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if len(events) != 1 {
				t.Fatalf("Normalize() produced %d events, want 1", len(events))
			}
			msg := events[0].Message
			if msg.Type != tt.wantType {
				t.Errorf("type = %q, want %q", msg.Type, tt.wantType)
			}
			if msg.MediaID != tt.wantMedia || msg.MimeType != tt.wantMime {
				t.Errorf("media = (%q, %q), want (%q, %q)", msg.MediaID, msg.MimeType, tt.wantMedia, tt.wantMime)
			}
			if msg.TextBody != "" {
				t.Errorf("text body = %q, want empty for non-text", msg.TextBody)
			}
		})
	}
}

func TestNormalize_SenderNameFromContacts(t *testing.T) {
	n := newTestNormalizer()
	env := &Envelope{
		Object: "whatsapp_business_account",
		Entry: []Entry{{Changes: []Change{{
			Field: "messages",
			Value: ChangeValue{
				Metadata: Metadata{PhoneNumberID: "1234567890"},
				Contacts: []Contact{{WaID: "221123456789", Profile: ContactProfile{Name: "Awa"}}},
				Messages: []RawMessage{{
					From: "221123456789",
					ID:   "wamid.1",
					Type: "text",
					Text: &TextContent{Body: "salut"},
				}},
			},
		}}}},
	}

	events, err := n.Normalize(env)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got := events[0].Message.SenderName; got != "Awa" {
		t.Errorf("sender name = %q, want Awa", got)
	}
}

func TestNormalize_RealWirePayload(t *testing.T) {
	// Round-trips an actual provider payload shape through JSON decoding.
	payload := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "102290129340398",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"metadata": {"display_phone_number": "15550000000", "phone_number_id": "1234567890"},
					"contacts": [{"profile": {"name": "Moussa"}, "wa_id": "221123456789"}],
					"messages": [{
						"from": "221123456789",
						"id": "wamid.HBgL",
						"timestamp": "1700000000",
						"type": "text",
						"text": {"body": "I need help with a quiz"}
					}]
				}
			}]
		}]
	}`

	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	events, err := newTestNormalizer().Normalize(&env)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Normalize() produced %d events, want 1", len(events))
	}
	msg := events[0].Message
	if msg.TextBody != "I need help with a quiz" || msg.SenderName != "Moussa" || events[0].Tenant != "1234567890" {
		t.Errorf("unexpected normalized message: %+v (tenant %q)", msg, events[0].Tenant)
	}
}
