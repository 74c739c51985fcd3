package domain

// MessageType identifies the content kind of an inbound message.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeVideo    MessageType = "video"
	MessageTypeDocument MessageType = "document"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeUnknown  MessageType = "unknown"
)

// IsMedia reports whether the type carries a media attachment id.
func (t MessageType) IsMedia() bool {
	switch t {
	case MessageTypeImage, MessageTypeVideo, MessageTypeDocument:
		return true
	}
	return false
}

// Category is the routing label assigned by the classifier.
type Category string

const (
	CategoryQuiz            Category = "quiz"
	CategoryEducation       Category = "education"
	CategoryCustomerService Category = "customer-service"
)

// Message is a normalized inbound user message. It lives for the duration
// of a single webhook request: parsed, classified, forwarded, discarded.
type Message struct {
	ID         string      `json:"message_id"`
	From       string      `json:"from"`
	SenderName string      `json:"sender_name,omitempty"`
	Timestamp  string      `json:"timestamp"`
	Type       MessageType `json:"type"`
	TextBody   string      `json:"text,omitempty"`
	MediaID    string      `json:"media_id,omitempty"`
	MimeType   string      `json:"mime_type,omitempty"`
}

// DeliveryStatus is the lifecycle state reported for a previously sent
// outbound message.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
	StatusFailed    DeliveryStatus = "failed"
)

// StatusUpdate is a normalized delivery-status event.
type StatusUpdate struct {
	MessageID   string         `json:"message_id"`
	Status      DeliveryStatus `json:"status"`
	Timestamp   string         `json:"timestamp"`
	RecipientID string         `json:"recipient_id"`
}

// Event is one normalized webhook event scoped to a tenant. Exactly one of
// Message or Status is set.
type Event struct {
	Tenant  string
	Message *Message
	Status  *StatusUpdate
}
