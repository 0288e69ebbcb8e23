package events

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/infigaming-com/events-handler/config"
	"github.com/infigaming-com/events-handler/errors"
	"github.com/infigaming-com/events-handler/pubsub"
)

// Dispatcher runs the validate, ensure-topic, publish flow against a
// broker. It keeps no state between calls; the provider is the sole
// source of truth for topics and messages.
type Dispatcher struct {
	broker pubsub.Broker
	lg     *zap.Logger
	now    func() time.Time
}

func NewDispatcher(broker pubsub.Broker, lg *zap.Logger) *Dispatcher {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Dispatcher{
		broker: broker,
		lg:     lg,
		now:    time.Now,
	}
}

// Dispatch validates the request, ensures the destination topic exists
// and publishes the event data. Topic creation is not rolled back when
// the publish fails; creation is idempotent and side-effect-tolerant.
func (d *Dispatcher) Dispatch(ctx context.Context, req *TriggerRequest) (*TriggerResult, error) {
	if err := ValidateTrigger(req); err != nil {
		return nil, err
	}

	topic, created, err := d.broker.CreateTopic(ctx, req.EventName)
	if err != nil {
		return nil, d.typed(err, fmt.Sprintf("failed to create topic '%s'", req.EventName))
	}

	data, err := json.Marshal(req.EventData)
	if err != nil {
		return nil, errors.NewError(errors.CodeValidationError, "event_data is not JSON-serializable", err).
			WithDetails(map[string]any{"field": "event_data"})
	}

	messageID, err := d.broker.Publish(ctx, req.EventName, data, d.attributes(req))
	if err != nil {
		return nil, d.typed(err, fmt.Sprintf("failed to publish message to topic '%s'", req.EventName))
	}

	d.lg.Info("event triggered",
		zap.String("event_name", req.EventName),
		zap.String("message_id", messageID),
		zap.Bool("topic_created", created),
	)

	return &TriggerResult{
		Success:      true,
		Message:      "Event triggered successfully",
		EventName:    req.EventName,
		TopicPath:    topic.Path,
		MessageID:    messageID,
		TopicCreated: created,
		Timestamp:    d.now().UTC(),
	}, nil
}

// EnsurePublish publishes an already serialized payload to a topic,
// creating the topic first when needed. Used by ingestion surfaces that
// target a fixed topic rather than a caller-chosen event name.
func (d *Dispatcher) EnsurePublish(ctx context.Context, topicID string, data []byte, attributes map[string]string) (messageID, topicPath string, err error) {
	topicID, err = NormalizeTopicID(topicID)
	if err != nil {
		return "", "", err
	}
	topic, _, err := d.broker.CreateTopic(ctx, topicID)
	if err != nil {
		return "", "", d.typed(err, fmt.Sprintf("failed to create topic '%s'", topicID))
	}
	messageID, err = d.broker.Publish(ctx, topicID, data, attributes)
	if err != nil {
		return "", "", d.typed(err, fmt.Sprintf("failed to publish message to topic '%s'", topicID))
	}
	return messageID, topic.Path, nil
}

// attributes merges the request attributes with the baseline metadata
// every published message carries.
func (d *Dispatcher) attributes(req *TriggerRequest) map[string]string {
	attrs := make(map[string]string, len(req.Attributes)+3)
	for k, v := range req.Attributes {
		attrs[k] = v
	}
	if req.SourceService != "" {
		attrs["source_service"] = req.SourceService
	}
	attrs["source"] = config.AppName
	attrs["version"] = config.AppVersion
	return attrs
}

// typed guarantees the dispatcher never surfaces an untyped failure.
func (d *Dispatcher) typed(err error, message string) error {
	var apiErr *errors.Error
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return errors.NewError(errors.CodeInternalError, message, err)
}
