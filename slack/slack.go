// Package slack accepts Slack Events API callbacks and republishes
// them onto the reply topic.
package slack

import (
	"crypto/hmac"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/infigaming-com/events-handler/util"
)

const (
	TypeURLVerification = "url_verification"
	TypeEventCallback   = "event_callback"

	// signatureVersion prefixes every Slack request signature.
	signatureVersion = "v0"

	// replayWindow bounds how old a signed request may be.
	replayWindow = 5 * time.Minute
)

// Event is the inner event of an Events API callback.
type Event struct {
	Type     string `json:"type"`
	EventTS  string `json:"event_ts,omitempty"`
	User     string `json:"user,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Text     string `json:"text,omitempty"`
	TS       string `json:"ts,omitempty"`
	ThreadTS string `json:"thread_ts,omitempty"`
	Subtype  string `json:"subtype,omitempty"`
	BotID    string `json:"bot_id,omitempty"`
	AppID    string `json:"app_id,omitempty"`
}

// EventCallback is the Events API envelope Slack posts to the webhook.
type EventCallback struct {
	Token       string   `json:"token,omitempty"`
	TeamID      string   `json:"team_id"`
	APIAppID    string   `json:"api_app_id"`
	Event       Event    `json:"event"`
	Type        string   `json:"type"`
	EventID     string   `json:"event_id"`
	EventTime   int64    `json:"event_time"`
	AuthedUsers []string `json:"authed_users,omitempty"`
	Challenge   string   `json:"challenge,omitempty"`
}

// VerifySignature checks the Slack v0 request signature and rejects
// requests outside the replay window.
func VerifySignature(signingSecret, timestamp, signature string, body []byte, now time.Time) bool {
	if timestamp == "" || signature == "" {
		return false
	}
	ts, err := strconv.ParseFloat(timestamp, 64)
	if err != nil {
		return false
	}
	if math.Abs(float64(now.Unix())-ts) > replayWindow.Seconds() {
		return false
	}
	base := fmt.Sprintf("%s:%s:%s", signatureVersion, timestamp, body)
	expected := signatureVersion + "=" + hex.EncodeToString(util.HmacSha256Hash([]byte(base), []byte(signingSecret)))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// supported Events API event types; everything else is acknowledged
// and dropped.
var supportedEventTypes = map[string]struct{}{
	"message":     {},
	"app_mention": {},
}

// SkipReason reports why a callback should be acknowledged without
// publishing, or "" when it should be published.
func SkipReason(cb *EventCallback) string {
	switch {
	case cb.Event.BotID != "" || cb.Event.AppID != "":
		// Bot traffic is dropped to prevent reply loops.
		return "Bot event skipped"
	case !isSupported(cb.Event.Type):
		return "Unsupported event skipped"
	case cb.Event.Subtype != "":
		return "Message subtype skipped"
	case isBlank(cb.Event.Text):
		return "Empty message skipped"
	default:
		return ""
	}
}

func isSupported(eventType string) bool {
	_, ok := supportedEventTypes[eventType]
	return ok
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
