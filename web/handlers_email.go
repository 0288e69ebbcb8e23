package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/infigaming-com/events-handler/email"
)

type emailWebhookResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Challenge string `json:"challenge,omitempty"`
}

// handleEmailWebhook accepts email callback webhooks. Unlike the Slack
// surface there is no delivery deadline to beat, so accepted events
// are published before responding.
func (s *Server) handleEmailWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid JSON payload", "INVALID_JSON", nil))
		return
	}

	payloadType, _ := payload["type"].(string)
	switch payloadType {
	case email.TypeURLVerification:
		challenge, _ := payload["challenge"].(string)
		if challenge == "" {
			c.JSON(http.StatusBadRequest, errorBody("Missing challenge", "MISSING_CHALLENGE", nil))
			return
		}
		c.JSON(http.StatusOK, emailWebhookResponse{Status: "ok", Message: "URL verification challenge", Challenge: challenge})

	case email.TypeEmailCallback:
		var cb email.EventCallback
		if err := json.Unmarshal(body, &cb); err != nil {
			c.JSON(http.StatusBadRequest, errorBody("Invalid event format", "INVALID_EVENT", map[string]any{"error": err.Error()}))
			return
		}

		if reason := email.SkipReason(&cb); reason != "" {
			s.lg.Info("skipping email event",
				zap.String("event_id", cb.EventID),
				zap.String("reason", reason),
			)
			c.JSON(http.StatusOK, emailWebhookResponse{Status: "ok", Message: reason})
			return
		}

		if _, _, err := s.emailPub.Publish(c.Request.Context(), &cb); err != nil {
			s.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, emailWebhookResponse{Status: "ok", Message: "Email event published to pub/sub"})

	default:
		s.lg.Warn("unknown email webhook type", zap.String("type", payloadType))
		c.JSON(http.StatusOK, emailWebhookResponse{Status: "ok", Message: "Unknown event type"})
	}
}

func (s *Server) handleEmailHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "email-webhook"})
}
