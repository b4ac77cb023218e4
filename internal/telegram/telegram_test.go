package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate/server/internal/models"
)

type sentMessage struct {
	Path      string
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func newTestServer(t *testing.T, status int) (*httptest.Server, *[]sentMessage) {
	t.Helper()
	var sent []sentMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg sentMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		msg.Path = r.URL.Path
		sent = append(sent, msg)
		w.WriteHeader(status)
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(server.Close)
	return server, &sent
}

func newTestService(url string, config *models.TelegramConfig) *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	s := NewService(logger)
	s.SetAPIURL(url)
	s.UpdateConfig(config)
	return s
}

func TestSendMessage(t *testing.T) {
	server, sent := newTestServer(t, http.StatusOK)
	s := newTestService(server.URL, &models.TelegramConfig{IsEnabled: true, BotToken: "abc", ChatID: "42"})

	require.NoError(t, s.SendMessage("hello"))
	require.Len(t, *sent, 1)
	assert.Equal(t, "/botabc/sendMessage", (*sent)[0].Path)
	assert.Equal(t, "42", (*sent)[0].ChatID)
	assert.Equal(t, "HTML", (*sent)[0].ParseMode)
}

func TestSendMessage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		config  *models.TelegramConfig
		wantErr string
	}{
		{"disabled is a no-op", http.StatusOK, &models.TelegramConfig{IsEnabled: false}, ""},
		{"no config is a no-op", http.StatusOK, nil, ""},
		{"missing token", http.StatusOK, &models.TelegramConfig{IsEnabled: true, ChatID: "1"}, "bot token"},
		{"missing chat", http.StatusOK, &models.TelegramConfig{IsEnabled: true, BotToken: "x"}, "chat ID"},
		{"unauthorized", http.StatusUnauthorized, &models.TelegramConfig{IsEnabled: true, BotToken: "x", ChatID: "1"}, "invalid bot token"},
		{"server error", http.StatusBadGateway, &models.TelegramConfig{IsEnabled: true, BotToken: "x", ChatID: "1"}, "status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, tt.status)
			s := newTestService(server.URL, tt.config)

			err := s.SendMessage("hello")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHandleEvent_Filters(t *testing.T) {
	server, sent := newTestServer(t, http.StatusOK)
	minPrice := 200000.0
	s := newTestService(server.URL, &models.TelegramConfig{
		IsEnabled: true,
		BotToken:  "abc",
		ChatID:    "42",
		Filters: &models.TelegramFilters{
			EventTypes: []models.EventType{models.EventOfferReceived},
			MinPrice:   &minPrice,
		},
	})

	offer := models.PropertyEvent{Type: models.EventOfferReceived, PropertyName: "Villa", ExpectedPrice: 300000, OfferID: 1, Price: 250000}
	require.NoError(t, s.HandleEvent(offer))

	lowOffer := offer
	lowOffer.Price = 150000
	require.NoError(t, s.HandleEvent(lowOffer))

	created := models.PropertyEvent{Type: models.EventPropertyCreated, PropertyName: "Villa", ExpectedPrice: 300000}
	require.NoError(t, s.HandleEvent(created))

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].Text, "New offer received")
}

func TestFormatEvent(t *testing.T) {
	msg := FormatEvent(models.PropertyEvent{
		Type:          models.EventOfferAccepted,
		PropertyName:  "Villa <Sea>",
		City:          "Ostend",
		ExpectedPrice: 300000,
		State:         models.StateOfferAccepted,
		OfferID:       7,
		Price:         290000,
		PartnerName:   "Alice",
	})

	assert.Contains(t, msg, "<b>✅ Offer accepted</b>")
	assert.Contains(t, msg, "Villa &lt;Sea&gt;")
	assert.Contains(t, msg, "📍 Ostend")
	assert.Contains(t, msg, "🤝 Offer €290000 by Alice")
	assert.Contains(t, msg, "State: offer_accepted")
}

func TestTestConfig(t *testing.T) {
	server, sent := newTestServer(t, http.StatusOK)
	s := newTestService(server.URL, nil)

	candidate := &models.TelegramConfig{IsEnabled: true, BotToken: "xyz", ChatID: "7"}
	require.NoError(t, s.TestConfig(candidate))
	require.Len(t, *sent, 1)
	assert.Equal(t, "/botxyz/sendMessage", (*sent)[0].Path)
	assert.Contains(t, (*sent)[0].Text, "Test notification")

	// the candidate is not activated
	require.NoError(t, s.SendMessage("ignored"))
	assert.Len(t, *sent, 1)
}
