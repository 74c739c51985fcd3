package webhook

// Wire types for the WhatsApp Business Cloud API webhook payload.
// Entries batch changes per business account; each change value carries
// metadata identifying the tenant plus arrays of messages and statuses.

// Envelope is the top-level webhook delivery.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one business-account batch of changes.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change wraps a single change notification.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue holds the message and status data for one change.
type ChangeValue struct {
	MessagingProduct string       `json:"messaging_product"`
	Metadata         Metadata     `json:"metadata"`
	Contacts         []Contact    `json:"contacts,omitempty"`
	Messages         []RawMessage `json:"messages,omitempty"`
	Statuses         []RawStatus  `json:"statuses,omitempty"`
}

// Metadata identifies the receiving phone number. PhoneNumberID is the
// tenant key.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact carries the sender's profile.
type Contact struct {
	Profile ContactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

// ContactProfile has the sender display name.
type ContactProfile struct {
	Name string `json:"name"`
}

// RawMessage is one inbound message as delivered on the wire. Exactly one
// of the content pointers is set, keyed by Type.
type RawMessage struct {
	From      string        `json:"from"`
	ID        string        `json:"id"`
	Timestamp string        `json:"timestamp"`
	Type      string        `json:"type"`
	Text      *TextContent  `json:"text,omitempty"`
	Image     *MediaContent `json:"image,omitempty"`
	Video     *MediaContent `json:"video,omitempty"`
	Document  *MediaContent `json:"document,omitempty"`
	Audio     *MediaContent `json:"audio,omitempty"`
}

// TextContent holds a text message body.
type TextContent struct {
	Body string `json:"body"`
}

// MediaContent references an uploaded media object.
type MediaContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// RawStatus is one delivery-status update as delivered on the wire.
type RawStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}
