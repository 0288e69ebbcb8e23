package web

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/infigaming-com/events-handler/errors"
	"github.com/infigaming-com/events-handler/pubsub"
)

type TopicCreateRequest struct {
	TopicID string `json:"topic_id"`
}

type TopicCreateResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Topic     pubsub.Topic `json:"topic"`
	Created   bool         `json:"created"`
	Timestamp time.Time    `json:"timestamp"`
}

type TopicsListResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Topics    []pubsub.Topic `json:"topics"`
	Count     int            `json:"count"`
	Timestamp time.Time      `json:"timestamp"`
}

type TopicDeleteResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	TopicID   string    `json:"topic_id"`
	TopicPath string    `json:"topic_path"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the uniform error envelope. Every failure path in
// the API produces this shape.
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	ErrorCode string    `json:"error_code,omitempty"`
	Details   any       `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func errorBody(message, code string, details any) ErrorResponse {
	return ErrorResponse{
		Success:   false,
		Error:     message,
		ErrorCode: code,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// respondError maps a typed error onto its status code and envelope.
// Untyped errors become a generic 500 with no internal detail leaked.
func (s *Server) respondError(c *gin.Context, err error) {
	var apiErr *errors.Error
	if stderrors.As(err, &apiErr) {
		s.lg.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("error_code", apiErr.GetCode()),
			zap.Error(apiErr),
		)
		c.JSON(apiErr.GetStatusCode(), errorBody(apiErr.GetMessage(), apiErr.GetCode(), apiErr.GetDetails()))
		return
	}
	s.lg.Error("unhandled error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, errorBody("An unexpected error occurred", errors.CodeInternalError, nil))
}
