package web_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/infigaming-com/events-handler/config"
	"github.com/infigaming-com/events-handler/email"
	"github.com/infigaming-com/events-handler/errors"
	"github.com/infigaming-com/events-handler/events"
	"github.com/infigaming-com/events-handler/pubsub/driver/inmem"
	"github.com/infigaming-com/events-handler/slack"
	"github.com/infigaming-com/events-handler/util"
	"github.com/infigaming-com/events-handler/web"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*web.Server, *inmem.Broker) {
	t.Helper()
	cfg := config.Config{
		Port:                 8080,
		GoogleCloudProject:   "test-project",
		PubsubTimeout:        5 * time.Second,
		APIPrefix:            "/api/v1",
		AllowedOrigins:       []string{"*"},
		SlackReplyEventTopic: "slack-reply-event",
		EmailReplyEventTopic: "app-email-reply-event",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	broker := inmem.New("test-project")
	dispatcher := events.NewDispatcher(broker, zap.NewNop())
	slackPub := slack.NewPublisher(dispatcher, cfg.SlackReplyEventTopic, zap.NewNop())
	emailPub := email.NewPublisher(dispatcher, cfg.EmailReplyEventTopic, zap.NewNop())
	return web.NewServer(cfg, zap.NewNop(), broker, dispatcher, slackPub, emailPub, nil), broker
}

func doJSON(t *testing.T, s *web.Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), "response is not JSON: %s", rec.Body.String())
	return rec, decoded
}

func TestTriggerEventCreatesTopic(t *testing.T) {
	s, broker := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/events/trigger", map[string]any{
		"event_name": "user_signup",
		"event_data": map[string]any{"user_id": "123"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["topic_created"])
	assert.Equal(t, "user_signup", resp["event_name"])
	assert.Equal(t, "projects/test-project/topics/user_signup", resp["topic_path"])
	assert.NotEmpty(t, resp["message_id"])

	require.Len(t, broker.Messages("user_signup"), 1)
}

func TestTriggerEventSecondCall(t *testing.T) {
	s, _ := newTestServer(t, nil)

	body := map[string]any{
		"event_name": "user_signup",
		"event_data": map[string]any{"user_id": "123"},
	}
	_, first := doJSON(t, s, http.MethodPost, "/api/v1/events/trigger", body)
	rec, second := doJSON(t, s, http.MethodPost, "/api/v1/events/trigger", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, second["topic_created"])
	assert.NotEqual(t, first["message_id"], second["message_id"])
}

func TestTriggerEventValidationError(t *testing.T) {
	s, broker := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/events/trigger", map[string]any{
		"event_name": "",
		"event_data": map[string]any{},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "VALIDATION_ERROR", resp["error_code"])
	assert.Zero(t, broker.Calls(inmem.OpCreateTopic))
	assert.Zero(t, broker.Calls(inmem.OpPublish))
}

func TestTriggerEventProviderTimeout(t *testing.T) {
	s, broker := newTestServer(t, nil)
	broker.FailWith(inmem.OpCreateTopic,
		errors.NewError(errors.CodeProviderTimeout, "topic check timed out", context.DeadlineExceeded))

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/events/trigger", map[string]any{
		"event_name": "user_signup",
		"event_data": map[string]any{},
	})

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "PROVIDER_TIMEOUT", resp["error_code"])
}

func TestListTopics(t *testing.T) {
	s, broker := newTestServer(t, nil)
	_, _, err := broker.CreateTopic(context.Background(), "user-signup")
	require.NoError(t, err)
	_, _, err = broker.CreateTopic(context.Background(), "deep-research-called")
	require.NoError(t, err)

	rec, resp := doJSON(t, s, http.MethodGet, "/api/v1/events/topics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	assert.EqualValues(t, 2, resp["count"])
	topics, ok := resp["topics"].([]any)
	require.True(t, ok)
	assert.Len(t, topics, 2)
}

func TestCreateTopicIdempotent(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/events/topics", map[string]any{"topic_id": "user-signup"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, resp["created"])

	rec, resp = doJSON(t, s, http.MethodPost, "/api/v1/events/topics", map[string]any{"topic_id": "user-signup"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["created"])
	assert.Equal(t, true, resp["success"])
}

func TestCreateTopicInvalidID(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/events/topics", map[string]any{"topic_id": "not a topic!"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp["error_code"])
}

func TestDeleteTopicIdempotent(t *testing.T) {
	s, broker := newTestServer(t, nil)
	_, _, err := broker.CreateTopic(context.Background(), "old-topic")
	require.NoError(t, err)

	rec, resp := doJSON(t, s, http.MethodDelete, "/api/v1/events/topics/old-topic", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])

	// Absent topic still deletes successfully.
	rec, resp = doJSON(t, s, http.MethodDelete, "/api/v1/events/topics/old-topic", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)

	for _, path := range []string{"/health", "/api/v1/health", "/api/v1/health/live"} {
		rec, resp := doJSON(t, s, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, resp["status"], path)
	}
}

func TestPubsubHealthDegraded(t *testing.T) {
	s, broker := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodGet, "/api/v1/health/pubsub", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", resp["status"])

	broker.FailWith(inmem.OpListTopics,
		errors.NewError(errors.CodeProviderUnavailable, "provider unreachable", nil))

	rec, resp = doJSON(t, s, http.MethodGet, "/api/v1/health/pubsub", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "PUBSUB_UNHEALTHY", resp["error_code"])
}

func TestReadinessEndpoint(t *testing.T) {
	s, broker := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodGet, "/api/v1/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", resp["status"])

	broker.FailWith(inmem.OpListTopics,
		errors.NewError(errors.CodeProviderUnavailable, "provider unreachable", nil))

	rec, resp = doJSON(t, s, http.MethodGet, "/api/v1/health/ready", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", resp["status"])
}

func TestRootServiceCard(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "events-handler", resp["service"])
}

func TestSlackURLVerification(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/slack/webhook", map[string]any{
		"type":      "url_verification",
		"token":     "tok",
		"challenge": "challenge-123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "challenge-123", resp["challenge"])
}

func TestSlackEventCallbackPublishes(t *testing.T) {
	s, broker := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/slack/webhook", map[string]any{
		"type":       "event_callback",
		"team_id":    "T1",
		"api_app_id": "A1",
		"event_id":   "Ev1",
		"event_time": 1700000000,
		"event": map[string]any{
			"type":    "message",
			"text":    "hello",
			"channel": "C1",
			"user":    "U1",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp["status"])

	// Publish happens in the background after the response.
	require.Eventually(t, func() bool {
		return len(broker.Messages("slack-reply-event")) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSlackBotEventSkipped(t *testing.T) {
	s, broker := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/slack/webhook", map[string]any{
		"type":       "event_callback",
		"team_id":    "T1",
		"api_app_id": "A1",
		"event_id":   "Ev2",
		"event": map[string]any{
			"type":   "message",
			"text":   "automated reply",
			"bot_id": "B1",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bot event skipped", resp["message"])
	assert.Zero(t, broker.Calls(inmem.OpPublish))
}

func TestSlackSignatureRequired(t *testing.T) {
	secret := "signing-secret"
	s, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.SlackSigningSecret = secret
	})

	body := []byte(`{"type":"url_verification","challenge":"c1"}`)

	t.Run("missing signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/slack/webhook", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		s.Engine().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid signature", func(t *testing.T) {
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		base := fmt.Sprintf("v0:%s:%s", ts, body)
		sig := "v0=" + hex.EncodeToString(util.HmacSha256Hash([]byte(base), []byte(secret)))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/slack/webhook", bytes.NewReader(body))
		req.Header.Set("X-Slack-Request-Timestamp", ts)
		req.Header.Set("X-Slack-Signature", sig)
		rec := httptest.NewRecorder()
		s.Engine().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSlackInvalidJSON(t *testing.T) {
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/slack/webhook", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_JSON", resp["error_code"])
}

func TestEmailURLVerification(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/email/webhook", map[string]any{
		"type":      "url_verification",
		"token":     "tok",
		"challenge": "challenge-456",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "challenge-456", resp["challenge"])
}

func TestEmailCallbackPublishes(t *testing.T) {
	s, broker := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/email/webhook", map[string]any{
		"type":       "email_callback",
		"project_id": "test-project",
		"event_id":   "Em1",
		"event_time": 1700000000,
		"event": map[string]any{
			"type":       "email_reply",
			"from_email": "user@example.com",
			"to_email":   "support@example.com",
			"subject":    "Re: Support Request",
			"body":       "Thanks for your help!",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "Email event published to pub/sub", resp["message"])

	msgs := broker.Messages("app-email-reply-event")
	require.Len(t, msgs, 1)
	assert.Equal(t, "user@example.com", msgs[0].Attributes["from_email"])
	assert.Equal(t, "email_reply", msgs[0].Attributes["event_type"])
}

func TestEmailUnsupportedEventSkipped(t *testing.T) {
	s, broker := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/email/webhook", map[string]any{
		"type":       "email_callback",
		"project_id": "test-project",
		"event_id":   "Em2",
		"event": map[string]any{
			"type": "email_bounce",
			"body": "delivery failed",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Unsupported event skipped", resp["message"])
	assert.Zero(t, broker.Calls(inmem.OpPublish))
}

func TestEmailPublishFailure(t *testing.T) {
	s, broker := newTestServer(t, nil)
	broker.FailWith(inmem.OpPublish,
		errors.NewError(errors.CodeProviderUnavailable, "provider unreachable", nil))

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v1/email/webhook", map[string]any{
		"type":       "email_callback",
		"project_id": "test-project",
		"event_id":   "Em3",
		"event": map[string]any{
			"type": "email_reply",
			"body": "hello",
		},
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "PROVIDER_UNAVAILABLE", resp["error_code"])
}

func TestEmailHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec, resp := doJSON(t, s, http.MethodGet, "/api/v1/email/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "email-webhook", resp["service"])
}

func TestCorsPreflights(t *testing.T) {
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/events/trigger", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
