// Package events implements the trigger flow: validate an inbound
// event, ensure its topic exists, and publish the payload.
package events

import "time"

// TriggerRequest is an inbound event. The event name doubles as the
// destination topic id.
type TriggerRequest struct {
	EventName     string            `json:"event_name"`
	EventData     map[string]any    `json:"event_data"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	SourceService string            `json:"source_service,omitempty"`
}

// TriggerResult reports a successful dispatch.
type TriggerResult struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	EventName    string    `json:"event_name"`
	TopicPath    string    `json:"topic_path"`
	MessageID    string    `json:"message_id"`
	TopicCreated bool      `json:"topic_created"`
	Timestamp    time.Time `json:"timestamp"`
}
