package inmem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infigaming-com/events-handler/errors"
	"github.com/infigaming-com/events-handler/pubsub/driver/inmem"
)

func TestCreatePublishDelete(t *testing.T) {
	ctx := context.Background()
	broker := inmem.New("test-project")

	topic, created, err := broker.CreateTopic(ctx, "user-signup")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "projects/test-project/topics/user-signup", topic.Path)

	_, created, err = broker.CreateTopic(ctx, "user-signup")
	require.NoError(t, err)
	assert.False(t, created)

	id, err := broker.Publish(ctx, "user-signup", []byte(`{"a":1}`), map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs := broker.Messages("user-signup")
	require.Len(t, msgs, 1)
	assert.Equal(t, "v", msgs[0].Attributes["k"])

	require.NoError(t, broker.DeleteTopic(ctx, "user-signup"))
	require.NoError(t, broker.DeleteTopic(ctx, "user-signup"))

	exists, err := broker.TopicExists(ctx, "user-signup")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPublishMissingTopicTyped(t *testing.T) {
	broker := inmem.New("test-project")

	_, err := broker.Publish(context.Background(), "missing", []byte(`{}`), nil)
	require.Error(t, err)

	var apiErr *errors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.CodeTopicNotFound, apiErr.GetCode())
}

func TestCallCountsAndFailures(t *testing.T) {
	ctx := context.Background()
	broker := inmem.New("test-project")

	_, _ = broker.TopicExists(ctx, "a")
	_, _, _ = broker.CreateTopic(ctx, "a")
	assert.Equal(t, 1, broker.Calls(inmem.OpTopicExists))
	assert.Equal(t, 1, broker.Calls(inmem.OpCreateTopic))

	injected := errors.NewError(errors.CodeProviderUnavailable, "down", nil)
	broker.FailWith(inmem.OpListTopics, injected)
	_, err := broker.ListTopics(ctx)
	assert.ErrorIs(t, err, injected)

	broker.FailWith(inmem.OpListTopics, nil)
	_, err = broker.ListTopics(ctx)
	assert.NoError(t, err)
}
