package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/pkg/config"
)

func testConfig() *config.WhatsAppConfig {
	return &config.WhatsAppConfig{
		AccessToken:   "test-token",
		PhoneNumberID: "12345",
	}
}

func TestNewWhatsAppCloudSender_RequiresCredentials(t *testing.T) {
	_, err := NewWhatsAppCloudSender(&config.WhatsAppConfig{})
	assert.Error(t, err)
}

func TestSend_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "whatsapp", payload["messaging_product"])
		assert.Equal(t, "+4915112345678", payload["to"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages":[{"id":"wamid.ABC"}]}`))
	}))
	defer server.Close()

	sender, err := NewWhatsAppCloudSenderWithOptions(testConfig(), server.URL, server.Client())
	assert.NoError(t, err)

	id, err := sender.Send(context.Background(), entities.ContactTypeWhatsApp, "+4915112345678", "thanks for your review")
	assert.NoError(t, err)
	assert.Equal(t, "wamid.ABC", id)
}

func TestSend_RejectsOtherChannels(t *testing.T) {
	sender, err := NewWhatsAppCloudSender(testConfig())
	assert.NoError(t, err)

	_, err = sender.Send(context.Background(), entities.ContactTypeEmail, "a@example.com", "hi")
	assert.Error(t, err)
}

func TestSend_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid token"}}`))
	}))
	defer server.Close()

	sender, err := NewWhatsAppCloudSenderWithOptions(testConfig(), server.URL, server.Client())
	assert.NoError(t, err)

	_, err = sender.Send(context.Background(), entities.ContactTypeWhatsApp, "+100", "hi")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
