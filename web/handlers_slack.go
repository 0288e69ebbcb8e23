package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/infigaming-com/events-handler/slack"
)

type slackWebhookResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Challenge string `json:"challenge,omitempty"`
}

// handleSlackWebhook accepts Slack Events API callbacks. Accepted
// events are published in the background so Slack gets its response
// inside the delivery deadline.
func (s *Server) handleSlackWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.respondError(c, err)
		return
	}

	if s.cfg.SlackSigningSecret != "" {
		ok := slack.VerifySignature(
			s.cfg.SlackSigningSecret,
			c.GetHeader("X-Slack-Request-Timestamp"),
			c.GetHeader("X-Slack-Signature"),
			body,
			time.Now(),
		)
		if !ok {
			s.lg.Warn("invalid Slack signature")
			c.JSON(http.StatusUnauthorized, errorBody("Invalid signature", "INVALID_SIGNATURE", nil))
			return
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid JSON payload", "INVALID_JSON", nil))
		return
	}

	payloadType, _ := payload["type"].(string)
	switch payloadType {
	case slack.TypeURLVerification:
		challenge, _ := payload["challenge"].(string)
		if challenge == "" {
			c.JSON(http.StatusBadRequest, errorBody("Missing challenge", "MISSING_CHALLENGE", nil))
			return
		}
		c.JSON(http.StatusOK, slackWebhookResponse{Status: "ok", Message: "URL verification challenge", Challenge: challenge})

	case slack.TypeEventCallback:
		var cb slack.EventCallback
		if err := json.Unmarshal(body, &cb); err != nil {
			c.JSON(http.StatusBadRequest, errorBody("Invalid event format", "INVALID_EVENT", map[string]any{"error": err.Error()}))
			return
		}

		if reason := slack.SkipReason(&cb); reason != "" {
			s.lg.Info("skipping Slack event",
				zap.String("event_id", cb.EventID),
				zap.String("reason", reason),
			)
			c.JSON(http.StatusOK, slackWebhookResponse{Status: "ok", Message: reason})
			return
		}

		bg := context.WithoutCancel(c.Request.Context())
		go func() {
			ctx, cancel := context.WithTimeout(bg, s.cfg.PubsubTimeout)
			defer cancel()
			if _, _, err := s.slackPub.Publish(ctx, &cb); err != nil {
				s.lg.Error("background Slack publish failed",
					zap.String("event_id", cb.EventID),
					zap.Error(err),
				)
			}
		}()

		c.JSON(http.StatusOK, slackWebhookResponse{Status: "ok", Message: "Slack event received and queued for processing"})

	default:
		s.lg.Warn("unknown Slack webhook type", zap.String("type", payloadType))
		c.JSON(http.StatusOK, slackWebhookResponse{Status: "ok", Message: "Unknown event type"})
	}
}

func (s *Server) handleSlackHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "slack-webhook"})
}
