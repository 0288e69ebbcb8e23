package email

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/infigaming-com/events-handler/config"
	"github.com/infigaming-com/events-handler/errors"
	"github.com/infigaming-com/events-handler/events"
)

// Publisher forwards accepted email events to the reply topic.
type Publisher struct {
	dispatcher *events.Dispatcher
	topicID    string
	lg         *zap.Logger
	now        func() time.Time
}

func NewPublisher(dispatcher *events.Dispatcher, topicID string, lg *zap.Logger) *Publisher {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Publisher{
		dispatcher: dispatcher,
		topicID:    topicID,
		lg:         lg,
		now:        time.Now,
	}
}

// Publish wraps the callback in the reply-event payload and publishes
// it, creating the reply topic if needed.
func (p *Publisher) Publish(ctx context.Context, cb *EventCallback) (messageID, topicPath string, err error) {
	payload := map[string]any{
		"email_event":     cb,
		"source_service":  config.AppName,
		"event_timestamp": p.now().Unix(),
		"event_type":      "email_reply",
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", "", errors.NewError(errors.CodeInternalError, "failed to encode email event", err)
	}

	attrs := map[string]string{
		"source_service": config.AppName,
		"event_type":     "email_reply",
		"project_id":     cb.ProjectID,
		"from_email":     cb.Event.FromEmail,
		"to_email":       cb.Event.ToEmail,
		"message_type":   cb.Event.Type,
	}

	messageID, topicPath, err = p.dispatcher.EnsurePublish(ctx, p.topicID, data, attrs)
	if err != nil {
		p.lg.Error("failed to publish email event",
			zap.String("event_id", cb.EventID),
			zap.Error(err),
		)
		return "", "", err
	}

	p.lg.Info("published email event",
		zap.String("event_id", cb.EventID),
		zap.String("topic_path", topicPath),
		zap.String("message_id", messageID),
	)
	return messageID, topicPath, nil
}
