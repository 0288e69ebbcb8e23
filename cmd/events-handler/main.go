package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/infigaming-com/events-handler/config"
	"github.com/infigaming-com/events-handler/email"
	"github.com/infigaming-com/events-handler/events"
	"github.com/infigaming-com/events-handler/observability/metrics"
	"github.com/infigaming-com/events-handler/pubsub/driver/google"
	"github.com/infigaming-com/events-handler/slack"
	"github.com/infigaming-com/events-handler/util"
	"github.com/infigaming-com/events-handler/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("fail to load config, error: %v", err)
	}

	lg, cleanup := util.NewLogger()
	defer cleanup()

	ctx := context.Background()

	recorder, stopMetrics, err := metrics.NewRecorder(ctx,
		metrics.WithServiceName(config.AppName),
		metrics.WithServiceVersion(config.AppVersion),
		metrics.WithOTLPEndpoint(cfg.OTLPEndpoint),
	)
	if err != nil {
		lg.Fatal("fail to init metrics", zap.Error(err))
	}
	defer stopMetrics()

	broker, err := google.New(ctx, google.Config{
		ProjectID: cfg.GoogleCloudProject,
		Endpoint:  cfg.PubsubEndpoint,
		UserAgent: config.AppName + "/" + config.AppVersion,
		Timeout:   cfg.PubsubTimeout,
		Logger:    lg,
	})
	if err != nil {
		lg.Fatal("fail to init pubsub broker", zap.Error(err))
	}

	dispatcher := events.NewDispatcher(broker, lg)
	slackPub := slack.NewPublisher(dispatcher, cfg.SlackReplyEventTopic, lg)
	emailPub := email.NewPublisher(dispatcher, cfg.EmailReplyEventTopic, lg)

	lg.Info("starting events handler",
		zap.String("version", config.AppVersion),
		zap.String("project_id", cfg.GoogleCloudProject),
	)

	server := web.NewServer(cfg, lg, broker, dispatcher, slackPub, emailPub, recorder)
	server.Run()
}
