// Package email accepts inbound email callback webhooks and
// republishes them onto the email reply topic.
package email

import "strings"

const (
	TypeURLVerification = "url_verification"
	TypeEmailCallback   = "email_callback"
)

// Event is the inner email event of a callback.
type Event struct {
	Type       string         `json:"type"`
	EventTS    string         `json:"event_ts,omitempty"`
	FromEmail  string         `json:"from_email,omitempty"`
	ToEmail    string         `json:"to_email,omitempty"`
	Subject    string         `json:"subject,omitempty"`
	Body       string         `json:"body,omitempty"`
	ThreadID   string         `json:"thread_id,omitempty"`
	MessageID  string         `json:"message_id,omitempty"`
	InReplyTo  string         `json:"in_reply_to,omitempty"`
	References string         `json:"references,omitempty"`
	OrgID      string         `json:"org_id,omitempty"`
	Headers    map[string]any `json:"headers,omitempty"`
}

// EventCallback is the envelope an email provider posts to the webhook.
type EventCallback struct {
	Token     string `json:"token,omitempty"`
	ProjectID string `json:"project_id"`
	Event     Event  `json:"event"`
	Type      string `json:"type"`
	EventID   string `json:"event_id"`
	EventTime int64  `json:"event_time"`
	Challenge string `json:"challenge,omitempty"`
}

// Only reply events are forwarded; everything else is acknowledged
// and dropped.
var supportedEventTypes = map[string]struct{}{
	"email_reply": {},
}

// SkipReason reports why a callback should be acknowledged without
// publishing, or "" when it should be published.
func SkipReason(cb *EventCallback) string {
	switch {
	case !isSupported(cb.Event.Type):
		return "Unsupported event skipped"
	case strings.TrimSpace(cb.Event.Body) == "":
		return "Empty email message skipped"
	default:
		return ""
	}
}

func isSupported(eventType string) bool {
	_, ok := supportedEventTypes[eventType]
	return ok
}
