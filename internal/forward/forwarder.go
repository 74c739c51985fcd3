// Package forward delivers normalized events to downstream chatbot
// endpoints. Each event gets exactly one attempt: the downstream owns its
// own durability, so a failed forward routes to the fallback responder
// instead of being retried.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/botfront-labs/whatsapp-relay/internal/domain"
)

const (
	defaultMessageTimeout = 30 * time.Second
	defaultStatusTimeout  = 10 * time.Second
)

// Error classes for failed forwards. Configuration errors are distinct
// from network errors so operators can tell "misconfigured" from
// "downstream is down".
var (
	ErrNotConfigured = errors.New("forward: downstream endpoint not configured")
	ErrDeniedHost    = errors.New("forward: destination host is denylisted")
)

// Outcome records one forward attempt for logging and fallback decisions.
// It is never persisted.
type Outcome struct {
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

// Success reports whether the attempt reached the downstream and was
// accepted. A 2xx response whose body carries {"success": false} counts as
// a failure: the downstream assessed the event and declined it.
func (o Outcome) Success() bool {
	return o.Err == nil
}

// downstreamAck is the optional response shape from chatbot endpoints.
// Only the success flag is inspected.
type downstreamAck struct {
	Success *bool `json:"success"`
}

// Option configures the forwarder.
type Option func(*Forwarder)

// WithHTTPClient sets a custom HTTP client, used by tests to record
// traffic.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Forwarder) {
		f.httpClient = client
	}
}

// WithTimeouts overrides the per-call deadlines for message forwards and
// status relays.
func WithTimeouts(message, status time.Duration) Option {
	return func(f *Forwarder) {
		if message > 0 {
			f.messageTimeout = message
		}
		if status > 0 {
			f.statusTimeout = status
		}
	}
}

// Forwarder sends normalized events to category endpoints under one
// configured base URL, and status updates to one fixed status path.
type Forwarder struct {
	baseURL        string
	authToken      string
	statusPath     string
	messageTimeout time.Duration
	statusTimeout  time.Duration
	httpClient     *http.Client
	logger         *slog.Logger
}

func New(baseURL, authToken, statusPath string, logger *slog.Logger, opts ...Option) *Forwarder {
	f := &Forwarder{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		authToken:      authToken,
		statusPath:     statusPath,
		messageTimeout: defaultMessageTimeout,
		statusTimeout:  defaultStatusTimeout,
		httpClient:     http.DefaultClient,
		logger:         logger,
	}
	if f.statusPath == "" {
		f.statusPath = "status"
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// messagePayload is the downstream contract for forwarded messages.
type messagePayload struct {
	TenantID   string `json:"tenant_id"`
	MessageID  string `json:"message_id"`
	From       string `json:"from"`
	SenderName string `json:"sender_name,omitempty"`
	Timestamp  string `json:"timestamp"`
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	MediaID    string `json:"media_id,omitempty"`
	MimeType   string `json:"mime_type,omitempty"`
	Category   string `json:"category"`
}

// statusPayload is the downstream contract for relayed status updates.
type statusPayload struct {
	TenantID    string `json:"tenant_id"`
	MessageID   string `json:"message_id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// ForwardMessage delivers one classified message to its category endpoint.
func (f *Forwarder) ForwardMessage(ctx context.Context, category domain.Category, tenantID string, msg *domain.Message) Outcome {
	payload := messagePayload{
		TenantID:   tenantID,
		MessageID:  msg.ID,
		From:       msg.From,
		SenderName: msg.SenderName,
		Timestamp:  msg.Timestamp,
		Type:       string(msg.Type),
		Text:       msg.TextBody,
		MediaID:    msg.MediaID,
		MimeType:   msg.MimeType,
		Category:   string(category),
	}
	return f.post(ctx, string(category), payload, f.messageTimeout)
}

// RelayStatus delivers one status update to the fixed status endpoint.
func (f *Forwarder) RelayStatus(ctx context.Context, tenantID string, st *domain.StatusUpdate) Outcome {
	payload := statusPayload{
		TenantID:    tenantID,
		MessageID:   st.MessageID,
		Status:      string(st.Status),
		Timestamp:   st.Timestamp,
		RecipientID: st.RecipientID,
	}
	return f.post(ctx, f.statusPath, payload, f.statusTimeout)
}

func (f *Forwarder) post(ctx context.Context, path string, payload any, timeout time.Duration) Outcome {
	if f.baseURL == "" {
		return Outcome{Err: ErrNotConfigured}
	}

	url := joinURL(f.baseURL, path)
	if HostDenied(url) {
		// Same handling as "no endpoint configured": skip the network
		// call entirely.
		f.logger.Warn("refusing to forward to denylisted host", slog.String("url", url))
		return Outcome{URL: url, Err: ErrDeniedHost}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Outcome{URL: url, Err: fmt.Errorf("marshaling payload: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Outcome{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if f.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.authToken)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Outcome{URL: url, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	out := Outcome{URL: url, StatusCode: resp.StatusCode, Body: respBody}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out.Err = fmt.Errorf("downstream returned status %d: %s", resp.StatusCode, truncateForLog(respBody))
		return out
	}

	var ack downstreamAck
	if err := json.Unmarshal(respBody, &ack); err == nil && ack.Success != nil && !*ack.Success {
		out.Err = fmt.Errorf("downstream reported success=false: %s", truncateForLog(respBody))
	}
	return out
}

// joinURL joins base and path without duplicating separators.
func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

func truncateForLog(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
