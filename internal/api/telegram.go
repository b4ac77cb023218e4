package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"estate/server/internal/models"
)

// GetTelegramConfig returns the current Telegram configuration
func (h *Handler) GetTelegramConfig(c *gin.Context) {
	config, err := h.db.GetTelegramConfig()
	if err != nil {
		h.respondError(c, err, "get Telegram config")
		return
	}

	if config == nil {
		c.JSON(http.StatusOK, gin.H{
			"is_enabled": false,
			"chat_id":    "",
			"bot_token":  "",
		})
		return
	}

	// Don't send the full bot token back to the client
	config.BotToken = maskToken(config.BotToken)
	c.JSON(http.StatusOK, config)
}

func maskToken(token string) string {
	if len(token) <= 4 {
		return "••••"
	}
	return "••••" + token[len(token)-4:]
}

// UpdateTelegramConfig checks the new configuration with a test message, then stores and activates it
func (h *Handler) UpdateTelegramConfig(c *gin.Context) {
	var request models.TelegramConfigRequest
	if !h.bindJSON(c, &request) {
		return
	}

	if len(request.BotToken) < 20 || !strings.Contains(request.BotToken, ":") {
		badRequest(c, "Invalid bot token format. Please check your bot token from @BotFather")
		return
	}
	if request.ChatID == "" {
		badRequest(c, "Chat ID is required")
		return
	}

	if request.IsEnabled {
		candidate := &models.TelegramConfig{BotToken: request.BotToken, ChatID: request.ChatID, IsEnabled: true}
		if err := h.telegram.TestConfig(candidate); err != nil {
			h.logger.WithError(err).Warn("Failed to send test message")
			badRequest(c, err.Error())
			return
		}
	}

	if err := h.db.UpdateTelegramConfig(&request); err != nil {
		h.respondError(c, err, "save Telegram config")
		return
	}

	if config, err := h.db.GetTelegramConfig(); err == nil && config != nil {
		h.telegram.UpdateConfig(config)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Telegram configuration updated successfully"})
}
