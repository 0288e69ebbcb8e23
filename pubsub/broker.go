package pubsub

import (
	"context"
	"fmt"
)

// Topic identifies a provider-managed topic.
type Topic struct {
	ID   string `json:"topic_id"`
	Path string `json:"topic_path"`
	Name string `json:"name"`
}

// Broker represents a concrete messaging provider.
// Implementations must be safe for concurrent use and must map every
// provider error to a typed *errors.Error at this boundary.
type Broker interface {
	// TopicExists reports whether the topic is known to the provider.
	TopicExists(ctx context.Context, topicID string) (bool, error)

	// CreateTopic creates the topic if it does not exist. The returned
	// bool reports whether this call created it; an existing topic is
	// not an error.
	CreateTopic(ctx context.Context, topicID string) (Topic, bool, error)

	// Publish sends one message and returns the provider-assigned
	// message id.
	Publish(ctx context.Context, topicID string, data []byte, attributes map[string]string) (string, error)

	// ListTopics returns all topics in the project.
	ListTopics(ctx context.Context) ([]Topic, error)

	// DeleteTopic removes the topic. Deleting an absent topic is a
	// no-op success.
	DeleteTopic(ctx context.Context, topicID string) error

	Close(ctx context.Context) error
}

// TopicPath renders the fully qualified provider path for a topic id.
func TopicPath(projectID, topicID string) string {
	return fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
}
