package events

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/infigaming-com/events-handler/errors"
)

const maxTopicIDLength = 255

// Topic ids must start with a letter and may contain letters, digits,
// hyphens and underscores. Matched after lowercase normalization.
var topicIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidateTrigger checks a trigger request and normalizes the event
// name to lowercase. It fails fast on the first violation and performs
// no provider calls.
func ValidateTrigger(req *TriggerRequest) error {
	if req == nil {
		return validationError("request body is required", nil)
	}
	name, err := NormalizeTopicID(req.EventName)
	if err != nil {
		return err
	}
	req.EventName = name
	if req.EventData == nil {
		return validationError("event_data is required", map[string]any{"field": "event_data"})
	}
	return nil
}

// NormalizeTopicID lowercases a topic id and validates it against the
// provider naming rules.
func NormalizeTopicID(id string) (string, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return "", validationError("event_name must not be empty", map[string]any{"field": "event_name"})
	}
	if len(id) > maxTopicIDLength {
		return "", validationError(
			fmt.Sprintf("event_name must be at most %d characters", maxTopicIDLength),
			map[string]any{"field": "event_name"},
		)
	}
	if !topicIDPattern.MatchString(id) {
		return "", validationError(
			"event_name can only contain letters, numbers, hyphens, and underscores, and must start with a letter",
			map[string]any{"field": "event_name", "value": id},
		)
	}
	return id, nil
}

func validationError(message string, details map[string]any) *errors.Error {
	err := errors.NewError(errors.CodeValidationError, message, nil)
	if details != nil {
		err = err.WithDetails(details)
	}
	return err
}
