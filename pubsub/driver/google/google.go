package google

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/infigaming-com/events-handler/errors"
	"github.com/infigaming-com/events-handler/pubsub"
)

type Config struct {
	ProjectID string
	Endpoint  string
	UserAgent string
	Client    *gcppubsub.Client
	Timeout   time.Duration
	Logger    *zap.Logger
}

type broker struct {
	client     *gcppubsub.Client
	projectID  string
	ownsClient bool
	timeout    time.Duration
	lg         *zap.Logger
}

// New builds a pubsub.Broker over Google Cloud Pub/Sub. Credentials are
// resolved by the client library from the ambient environment; nothing
// here reads credential files.
func New(ctx context.Context, cfg Config) (pubsub.Broker, error) {
	if cfg.ProjectID == "" {
		return nil, stderrors.New("googlepubsub: project id required")
	}

	var (
		client *gcppubsub.Client
		err    error
		owns   bool
	)

	if cfg.Client != nil {
		client = cfg.Client
	} else {
		opts := make([]option.ClientOption, 0, 2)
		if cfg.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(cfg.Endpoint))
		}
		if cfg.UserAgent != "" {
			opts = append(opts, option.WithUserAgent(cfg.UserAgent))
		}
		client, err = gcppubsub.NewClient(ctx, cfg.ProjectID, opts...)
		if err != nil {
			return nil, fmt.Errorf("googlepubsub: create client: %w", err)
		}
		owns = true
	}

	b := &broker{
		client:     client,
		projectID:  cfg.ProjectID,
		ownsClient: owns,
		timeout:    cfg.Timeout,
		lg:         cfg.Logger,
	}
	if b.timeout <= 0 {
		b.timeout = 60 * time.Second
	}
	if b.lg == nil {
		b.lg = zap.NewNop()
	}
	return b, nil
}

func (b *broker) TopicExists(ctx context.Context, topicID string) (bool, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()

	exists, err := b.client.Topic(topicID).Exists(ctx)
	if err != nil {
		return false, b.mapError(err, fmt.Sprintf("failed to check topic '%s'", topicID), topicID)
	}
	return exists, nil
}

func (b *broker) CreateTopic(ctx context.Context, topicID string) (pubsub.Topic, bool, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()

	ref := pubsub.Topic{
		ID:   topicID,
		Path: pubsub.TopicPath(b.projectID, topicID),
		Name: pubsub.TopicPath(b.projectID, topicID),
	}

	_, err := b.client.CreateTopic(ctx, topicID)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return ref, false, nil
		}
		return pubsub.Topic{}, false, b.mapError(err, fmt.Sprintf("failed to create topic '%s'", topicID), topicID)
	}

	b.lg.Info("created topic", zap.String("topic_path", ref.Path))
	return ref, true, nil
}

func (b *broker) Publish(ctx context.Context, topicID string, data []byte, attributes map[string]string) (string, error) {
	if len(data) > gcppubsub.MaxPublishRequestBytes {
		return "", errors.NewError(errors.CodePayloadTooLarge,
			fmt.Sprintf("event data exceeds the %d byte message limit", int(gcppubsub.MaxPublishRequestBytes)), nil).
			WithDetails(map[string]any{"topic_id": topicID, "size": len(data)})
	}

	ctx, cancel := b.bound(ctx)
	defer cancel()

	topic := b.client.Topic(topicID)
	defer topic.Stop()

	res := topic.Publish(ctx, &gcppubsub.Message{
		Data:       append([]byte(nil), data...),
		Attributes: cloneMap(attributes),
	})
	id, err := res.Get(ctx)
	if err != nil {
		return "", b.mapError(err, fmt.Sprintf("failed to publish message to topic '%s'", topicID), topicID)
	}
	return id, nil
}

func (b *broker) ListTopics(ctx context.Context) ([]pubsub.Topic, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()

	var topics []pubsub.Topic
	it := b.client.Topics(ctx)
	for {
		t, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, b.mapError(err, "failed to list topics", "")
		}
		topics = append(topics, pubsub.Topic{
			ID:   t.ID(),
			Path: t.String(),
			Name: t.String(),
		})
	}
	return topics, nil
}

func (b *broker) DeleteTopic(ctx context.Context, topicID string) error {
	ctx, cancel := b.bound(ctx)
	defer cancel()

	err := b.client.Topic(topicID).Delete(ctx)
	if err != nil {
		// Idempotent delete: an absent topic is not an error.
		if status.Code(err) == codes.NotFound {
			b.lg.Warn("topic not found for deletion", zap.String("topic_id", topicID))
			return nil
		}
		return b.mapError(err, fmt.Sprintf("failed to delete topic '%s'", topicID), topicID)
	}
	b.lg.Info("deleted topic", zap.String("topic_id", topicID))
	return nil
}

func (b *broker) Close(context.Context) error {
	if b.ownsClient {
		return b.client.Close()
	}
	return nil
}

func (b *broker) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// mapError translates provider failures into the local error taxonomy.
// No gRPC status or client-library error type leaks past this point.
func (b *broker) mapError(err error, message string, topicID string) *errors.Error {
	details := map[string]any{}
	if topicID != "" {
		details["topic_id"] = topicID
	}

	code := errors.CodeInternalError
	switch {
	case stderrors.Is(err, context.DeadlineExceeded) || status.Code(err) == codes.DeadlineExceeded:
		code = errors.CodeProviderTimeout
	case stderrors.Is(err, context.Canceled) || status.Code(err) == codes.Canceled:
		code = errors.CodeProviderTimeout
	case status.Code(err) == codes.NotFound:
		code = errors.CodeTopicNotFound
	case status.Code(err) == codes.PermissionDenied || status.Code(err) == codes.Unauthenticated:
		code = errors.CodePermissionDenied
	case status.Code(err) == codes.Unavailable || status.Code(err) == codes.ResourceExhausted:
		code = errors.CodeProviderUnavailable
	}

	if code == errors.CodePermissionDenied {
		// Full context for operator remediation; the envelope stays generic.
		b.lg.Error("pubsub permission denied",
			zap.String("project_id", b.projectID),
			zap.String("topic_id", topicID),
			zap.Error(err),
		)
	}

	return errors.NewError(code, message, err).WithDetails(details)
}

func cloneMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
