package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/infigaming-com/events-handler/errors"
	"github.com/infigaming-com/events-handler/events"
	"github.com/infigaming-com/events-handler/pubsub"
)

func (s *Server) handleTriggerEvent(c *gin.Context) {
	var req events.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewError(errors.CodeValidationError, "invalid request body", err).
			WithDetails(map[string]any{"error": err.Error()}))
		return
	}

	result, err := s.dispatcher.Dispatch(c.Request.Context(), &req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.recorder.EventTriggered(c.Request.Context(), result.EventName, result.TopicCreated)
	s.recorder.MessagePublished(c.Request.Context(), result.EventName)

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListTopics(c *gin.Context) {
	topics, err := s.broker.ListTopics(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TopicsListResponse{
		Success:   true,
		Message:   "Topics retrieved successfully",
		Topics:    topics,
		Count:     len(topics),
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleCreateTopic(c *gin.Context) {
	var req TopicCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.NewError(errors.CodeValidationError, "invalid request body", err).
			WithDetails(map[string]any{"error": err.Error()}))
		return
	}

	topicID, err := events.NormalizeTopicID(req.TopicID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	topic, created, err := s.broker.CreateTopic(c.Request.Context(), topicID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	statusCode := http.StatusOK
	message := "Topic already exists"
	if created {
		statusCode = http.StatusCreated
		message = "Topic created successfully"
	}
	s.lg.Info("topic ensured", zap.String("topic_id", topicID), zap.Bool("created", created))

	c.JSON(statusCode, TopicCreateResponse{
		Success:   true,
		Message:   message,
		Topic:     topic,
		Created:   created,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleDeleteTopic(c *gin.Context) {
	topicID, err := events.NormalizeTopicID(c.Param("topic_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	if err := s.broker.DeleteTopic(c.Request.Context(), topicID); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TopicDeleteResponse{
		Success:   true,
		Message:   "Topic deleted successfully",
		TopicID:   topicID,
		TopicPath: pubsub.TopicPath(s.cfg.GoogleCloudProject, topicID),
		Timestamp: time.Now().UTC(),
	})
}
