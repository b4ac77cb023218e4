package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"estate/server/internal/models"
)

const defaultAPIURL = "https://api.telegram.org"

type Service struct {
	logger *logrus.Logger
	client *http.Client
	apiURL string

	mu     sync.RWMutex
	config *models.TelegramConfig
}

func NewService(logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Service{
		logger: logger,
		apiURL: defaultAPIURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetAPIURL points the service at another Bot API endpoint
func (s *Service) SetAPIURL(url string) {
	s.apiURL = strings.TrimRight(url, "/")
}

func (s *Service) UpdateConfig(config *models.TelegramConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
}

func (s *Service) currentConfig() *models.TelegramConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SendMessage sends a message to the configured Telegram chat
func (s *Service) SendMessage(message string) error {
	config := s.currentConfig()
	if config == nil || !config.IsEnabled {
		return nil
	}
	return s.send(config, message)
}

// TestConfig sends a test message with a configuration that is not active yet
func (s *Service) TestConfig(config *models.TelegramConfig) error {
	return s.send(config, "🔔 Test notification from Estate\n\nIf you see this message, your Telegram configuration is working correctly!")
}

func (s *Service) send(config *models.TelegramConfig, message string) error {
	if config.BotToken == "" {
		return errors.New("Telegram bot token is not configured")
	}

	if config.ChatID == "" {
		return errors.New("Telegram chat ID is not configured")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, config.BotToken)
	payload := map[string]interface{}{
		"chat_id":    config.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %v", err)
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found - please check your token from @BotFather")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// HandleEvent notifies the chat about a property event when it passes the configured filters
func (s *Service) HandleEvent(event models.PropertyEvent) error {
	config := s.currentConfig()
	if config == nil || !config.IsEnabled {
		return nil
	}

	if !config.Filters.IsEventAllowed(&event) {
		s.logger.WithFields(logrus.Fields{
			"event":       event.Type,
			"property_id": event.PropertyID,
		}).Debug("Event filtered out of Telegram notifications")
		return nil
	}

	return s.SendMessage(FormatEvent(event))
}

var eventTitles = map[models.EventType]string{
	models.EventPropertyCreated:  "🏠 New property listed",
	models.EventOfferReceived:    "💬 New offer received",
	models.EventOfferAccepted:    "✅ Offer accepted",
	models.EventOfferRefused:     "❌ Offer refused",
	models.EventOfferExpired:     "⌛ Offer expired",
	models.EventPropertySold:     "🎉 Property sold",
	models.EventPropertyCanceled: "🚫 Property canceled",
	models.EventPropertyRented:   "🔑 Property rented",
}

// FormatEvent renders an event as a Telegram HTML message
func FormatEvent(event models.PropertyEvent) string {
	title, ok := eventTitles[event.Type]
	if !ok {
		title = string(event.Type)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(title))
	fmt.Fprintf(&b, "🏠 %s\n", html.EscapeString(event.PropertyName))
	if event.City != "" {
		fmt.Fprintf(&b, "📍 %s\n", html.EscapeString(event.City))
	}
	fmt.Fprintf(&b, "💰 Asking €%.0f\n", event.ExpectedPrice)
	if event.OfferID != 0 {
		fmt.Fprintf(&b, "🤝 Offer €%.0f", event.Price)
		if event.PartnerName != "" {
			fmt.Fprintf(&b, " by %s", html.EscapeString(event.PartnerName))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "📊 State: %s", event.State)
	return b.String()
}
