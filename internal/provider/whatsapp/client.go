// Package whatsapp is a minimal client for the WhatsApp Business Cloud
// API: sending text messages (fallback auto-replies) and listing message
// templates on behalf of a caller.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultBaseURL    = "https://graph.facebook.com"
	defaultAPIVersion = "v23.0"
)

// ErrNoCredentials indicates the send credential or sender id is missing.
// Callers treat this as a terminal configuration error, not a send failure
// worth reporting to the provider.
var ErrNoCredentials = errors.New("whatsapp: access token or phone number id not configured")

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom API host, used by tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithAPIVersion overrides the Graph API version segment.
func WithAPIVersion(version string) ClientOption {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client calls the provider's Graph API.
type Client struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	apiVersion    string
	httpClient    *http.Client
}

// NewClient creates a client sending as phoneNumberID with accessToken.
// Both may be empty; Send then returns ErrNoCredentials.
func NewClient(accessToken, phoneNumberID string, opts ...ClientOption) *Client {
	c := &Client{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		baseURL:       defaultBaseURL,
		apiVersion:    defaultAPIVersion,
		httpClient:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type textBody struct {
	Body string `json:"body"`
}

type sendMessageRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

// SendText sends a plain text message to the given recipient.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	if c.accessToken == "" || c.phoneNumberID == "" {
		return ErrNoCredentials
	}

	payload := sendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("creating send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send API returned status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// FetchTemplates lists message templates for a business account using the
// caller-supplied token, not the client's own credential. It returns the
// provider's status code and raw body so the caller can mirror both.
func (c *Client) FetchTemplates(ctx context.Context, businessAccountID, callerToken string) (int, []byte, error) {
	url := fmt.Sprintf("%s/%s/%s/message_templates", c.baseURL, c.apiVersion, businessAccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating templates request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+callerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("templates request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading templates response: %w", err)
	}
	return resp.StatusCode, body, nil
}
