package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/pkg/config"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v18.0"

// WhatsAppCloudSender delivers queued thank-you messages via the WhatsApp
// Cloud API. It only handles the whatsapp contact type; other channels
// are rejected so the worker can mark them failed with a clear reason.
type WhatsAppCloudSender struct {
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
	baseURL       string
}

// NewWhatsAppCloudSender creates a new WhatsApp sender
func NewWhatsAppCloudSender(cfg *config.WhatsAppConfig) (*WhatsAppCloudSender, error) {
	if cfg.AccessToken == "" || cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID must be set")
	}

	return &WhatsAppCloudSender{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: defaultGraphBaseURL,
	}, nil
}

// NewWhatsAppCloudSenderWithOptions allows overriding the base URL and
// HTTP client (used for tests).
func NewWhatsAppCloudSenderWithOptions(cfg *config.WhatsAppConfig, baseURL string, httpClient *http.Client) (*WhatsAppCloudSender, error) {
	sender, err := NewWhatsAppCloudSender(cfg)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		sender.baseURL = baseURL
	}
	if httpClient != nil {
		sender.httpClient = httpClient
	}
	return sender, nil
}

// whatsAppTextMessage is the Cloud API text message payload
type whatsAppTextMessage struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

// whatsAppResponse is the Cloud API response envelope
type whatsAppResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// Send implements providers.MessageSender.
func (w *WhatsAppCloudSender) Send(ctx context.Context, contactType entities.ContactType, contactInfo, body string) (string, error) {
	if contactType != entities.ContactTypeWhatsApp {
		return "", fmt.Errorf("unsupported contact type %q", contactType)
	}

	message := whatsAppTextMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               contactInfo,
		Type:             "text",
	}
	message.Text.PreviewURL = false
	message.Text.Body = body

	return w.sendMessage(ctx, message)
}

func (w *WhatsAppCloudSender) sendMessage(ctx context.Context, message interface{}) (string, error) {
	url := fmt.Sprintf("%s/%s/messages", w.baseURL, w.phoneNumberID)

	jsonData, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("WhatsApp API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed whatsAppResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(parsed.Messages) > 0 {
		return parsed.Messages[0].ID, nil
	}

	return "", fmt.Errorf("no message ID in response")
}
