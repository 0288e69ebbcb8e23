package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/infigaming-com/events-handler/config"
)

// healthProbeTimeout bounds provider connectivity checks so health
// endpoints cannot hang on a stuck provider call.
const healthProbeTimeout = 10 * time.Second

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     config.AppName,
		"version":     config.AppVersion,
		"description": "Centralized event handling microservice using Google Cloud Pub/Sub",
		"health":      "/health",
		"api": gin.H{
			"v1": gin.H{
				"events": s.cfg.APIPrefix + "/events",
				"health": s.cfg.APIPrefix + "/health",
				"slack":  s.cfg.APIPrefix + "/slack",
				"email":  s.cfg.APIPrefix + "/email",
			},
		},
	})
}

func (s *Server) handleBasicHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   config.AppName,
		"version":   config.AppVersion,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   config.AppName,
		"version":   config.AppVersion,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handlePubsubHealth(c *gin.Context) {
	if err := s.probeProvider(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, errorBody(
			"Pub/Sub service is unhealthy",
			"PUBSUB_UNHEALTHY",
			map[string]any{"project_id": s.cfg.GoogleCloudProject, "error": err.Error()},
		))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"project_id": s.cfg.GoogleCloudProject,
		"publisher":  "connected",
		"timestamp":  time.Now().UTC(),
	})
}

func (s *Server) handleReadiness(c *gin.Context) {
	if err := s.probeProvider(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not ready",
			"service":   config.AppName,
			"version":   config.AppVersion,
			"pubsub":    "disconnected",
			"error":     err.Error(),
			"timestamp": time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"service":    config.AppName,
		"version":    config.AppVersion,
		"pubsub":     "connected",
		"project_id": s.cfg.GoogleCloudProject,
		"timestamp":  time.Now().UTC(),
	})
}

// probeProvider verifies provider connectivity by listing topics with
// a short deadline.
func (s *Server) probeProvider(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()
	_, err := s.broker.ListTopics(ctx)
	return err
}
