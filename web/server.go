package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/infigaming-com/events-handler/config"
	"github.com/infigaming-com/events-handler/email"
	"github.com/infigaming-com/events-handler/events"
	"github.com/infigaming-com/events-handler/observability/metrics"
	"github.com/infigaming-com/events-handler/pubsub"
	"github.com/infigaming-com/events-handler/slack"
	"github.com/infigaming-com/events-handler/web/middleware"
)

// Server is the HTTP surface. Handlers hold no state of their own;
// everything durable lives behind the broker.
type Server struct {
	cfg        config.Config
	engine     *gin.Engine
	lg         *zap.Logger
	broker     pubsub.Broker
	dispatcher *events.Dispatcher
	slackPub   *slack.Publisher
	emailPub   *email.Publisher
	recorder   *metrics.Recorder
}

func NewServer(
	cfg config.Config,
	lg *zap.Logger,
	broker pubsub.Broker,
	dispatcher *events.Dispatcher,
	slackPub *slack.Publisher,
	emailPub *email.Publisher,
	recorder *metrics.Recorder,
) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:        cfg,
		lg:         lg,
		broker:     broker,
		dispatcher: dispatcher,
		slackPub:   slackPub,
		emailPub:   emailPub,
		recorder:   recorder,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorsMiddleware(cfg.AllowedOrigins))
	engine.Use(middleware.CorrelationIdMiddleware())
	engine.Use(middleware.LoggingMiddleware(
		middleware.WithLogger(lg),
		middleware.WithDebugEnabled(cfg.Debug),
		middleware.WithExcludePaths([]string{"/health", cfg.APIPrefix + "/health/live"}),
	))
	engine.Use(middleware.MetricsMiddleware(recorder))

	s.engine = engine
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/health", s.handleBasicHealth)

	api := s.engine.Group(s.cfg.APIPrefix)

	eventsGroup := api.Group("/events")
	eventsGroup.POST("/trigger", s.handleTriggerEvent)
	eventsGroup.GET("/topics", s.handleListTopics)
	eventsGroup.POST("/topics", s.handleCreateTopic)
	eventsGroup.DELETE("/topics/:topic_id", s.handleDeleteTopic)

	health := api.Group("/health")
	health.GET("", s.handleBasicHealth)
	health.GET("/pubsub", s.handlePubsubHealth)
	health.GET("/ready", s.handleReadiness)
	health.GET("/live", s.handleLiveness)

	slackGroup := api.Group("/slack")
	slackGroup.POST("/webhook", s.handleSlackWebhook)
	slackGroup.GET("/health", s.handleSlackHealth)

	emailGroup := api.Group("/email")
	emailGroup.POST("/webhook", s.handleEmailWebhook)
	emailGroup.GET("/health", s.handleEmailHealth)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Run() {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.engine,
	}

	go func() {
		s.lg.Info("starting web server ...", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.lg.Fatal("fail to listenAndServe", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.lg.Info("shutdown web server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		s.lg.Fatal("fail to shutdown web server", zap.Error(err))
	}

	if err := s.broker.Close(ctx); err != nil {
		s.lg.Warn("fail to close broker", zap.Error(err))
	}
	s.lg.Info("web server exiting")
}
