// Package inmem provides an in-memory pubsub.Broker for tests and
// local runs. It records per-operation call counts and supports
// injected failures so callers can assert on provider interaction.
package inmem

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/infigaming-com/events-handler/errors"
	"github.com/infigaming-com/events-handler/pubsub"
)

const (
	OpTopicExists = "TopicExists"
	OpCreateTopic = "CreateTopic"
	OpPublish     = "Publish"
	OpListTopics  = "ListTopics"
	OpDeleteTopic = "DeleteTopic"
)

// Message is a published message as the broker stored it.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

type Broker struct {
	projectID string

	mu       sync.RWMutex
	topics   map[string]struct{}
	messages map[string][]Message
	seq      int64
	calls    map[string]int
	failures map[string]error
}

func New(projectID string) *Broker {
	return &Broker{
		projectID: projectID,
		topics:    map[string]struct{}{},
		messages:  map[string][]Message{},
		calls:     map[string]int{},
		failures:  map[string]error{},
	}
}

// FailWith makes the named operation return err until cleared with a
// nil err.
func (b *Broker) FailWith(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, op)
		return
	}
	b.failures[op] = err
}

// Calls reports how many times the named operation was invoked.
func (b *Broker) Calls(op string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.calls[op]
}

// Messages returns the messages published to a topic, oldest first.
func (b *Broker) Messages(topicID string) []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Message, len(b.messages[topicID]))
	copy(out, b.messages[topicID])
	return out
}

func (b *Broker) TopicExists(ctx context.Context, topicID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[OpTopicExists]++
	if err := b.failures[OpTopicExists]; err != nil {
		return false, err
	}
	_, ok := b.topics[topicID]
	return ok, nil
}

func (b *Broker) CreateTopic(ctx context.Context, topicID string) (pubsub.Topic, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[OpCreateTopic]++
	if err := b.failures[OpCreateTopic]; err != nil {
		return pubsub.Topic{}, false, err
	}
	ref := b.topicRef(topicID)
	if _, ok := b.topics[topicID]; ok {
		return ref, false, nil
	}
	b.topics[topicID] = struct{}{}
	return ref, true, nil
}

func (b *Broker) Publish(ctx context.Context, topicID string, data []byte, attributes map[string]string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[OpPublish]++
	if err := b.failures[OpPublish]; err != nil {
		return "", err
	}
	if _, ok := b.topics[topicID]; !ok {
		return "", errors.NewError(errors.CodeTopicNotFound,
			fmt.Sprintf("failed to publish message to topic '%s'", topicID), nil).
			WithDetails(map[string]any{"topic_id": topicID})
	}
	b.seq++
	msg := Message{
		ID:         fmt.Sprintf("msg-%d", b.seq),
		Data:       append([]byte(nil), data...),
		Attributes: cloneMap(attributes),
	}
	b.messages[topicID] = append(b.messages[topicID], msg)
	return msg.ID, nil
}

func (b *Broker) ListTopics(ctx context.Context) ([]pubsub.Topic, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[OpListTopics]++
	if err := b.failures[OpListTopics]; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(b.topics))
	for id := range b.topics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	topics := make([]pubsub.Topic, 0, len(ids))
	for _, id := range ids {
		topics = append(topics, b.topicRef(id))
	}
	return topics, nil
}

func (b *Broker) DeleteTopic(ctx context.Context, topicID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[OpDeleteTopic]++
	if err := b.failures[OpDeleteTopic]; err != nil {
		return err
	}
	delete(b.topics, topicID)
	delete(b.messages, topicID)
	return nil
}

func (b *Broker) Close(context.Context) error {
	return nil
}

func (b *Broker) topicRef(topicID string) pubsub.Topic {
	path := pubsub.TopicPath(b.projectID, topicID)
	return pubsub.Topic{ID: topicID, Path: path, Name: path}
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
