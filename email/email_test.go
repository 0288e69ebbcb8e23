package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkipReason(t *testing.T) {
	base := func() *EventCallback {
		return &EventCallback{
			ProjectID: "test-project",
			EventID:   "Em1",
			Event: Event{
				Type:      "email_reply",
				FromEmail: "user@example.com",
				ToEmail:   "support@example.com",
				Body:      "Thanks for your help!",
			},
		}
	}

	t.Run("publishable", func(t *testing.T) {
		assert.Empty(t, SkipReason(base()))
	})

	t.Run("unsupported type", func(t *testing.T) {
		cb := base()
		cb.Event.Type = "email_bounce"
		assert.Equal(t, "Unsupported event skipped", SkipReason(cb))
	})

	t.Run("empty body", func(t *testing.T) {
		cb := base()
		cb.Event.Body = "  \n\t"
		assert.Equal(t, "Empty email message skipped", SkipReason(cb))
	})
}
