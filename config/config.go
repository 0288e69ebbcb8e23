package config

import (
	"reflect"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/infigaming-com/events-handler/errors"
)

const (
	AppName    = "events-handler"
	AppVersion = "1.0.0"
)

// Config is the full service configuration, populated from the environment.
type Config struct {
	Port  int64 `mapstructure:"port"`
	Debug bool  `mapstructure:"debug"`

	GoogleCloudProject string `mapstructure:"google_cloud_project"`
	PubsubEndpoint     string `mapstructure:"pubsub_endpoint"`

	PubsubTimeout      time.Duration `mapstructure:"pubsub_timeout"`
	MaxMessagesPerPull int           `mapstructure:"max_messages_per_pull"`

	APIPrefix      string   `mapstructure:"api_prefix"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	SlackSigningSecret   string `mapstructure:"slack_signing_secret"`
	SlackReplyEventTopic string `mapstructure:"slack_reply_event_topic"`
	EmailReplyEventTopic string `mapstructure:"email_reply_event_topic"`

	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Load reads configuration from the environment. The project id is the
// only required setting; everything else has a default.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("port", 8080)
	v.SetDefault("debug", false)
	v.SetDefault("pubsub_timeout", 60*time.Second)
	v.SetDefault("max_messages_per_pull", 100)
	v.SetDefault("api_prefix", "/api/v1")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("slack_reply_event_topic", "slack-reply-event")
	v.SetDefault("email_reply_event_topic", "app-email-reply-event")

	v.AutomaticEnv()

	v.BindEnv("port", "PORT")
	v.BindEnv("debug", "DEBUG")
	v.BindEnv("google_cloud_project", "GOOGLE_CLOUD_PROJECT")
	v.BindEnv("pubsub_endpoint", "PUBSUB_ENDPOINT")
	v.BindEnv("pubsub_timeout", "PUBSUB_TIMEOUT")
	v.BindEnv("max_messages_per_pull", "MAX_MESSAGES_PER_PULL")
	v.BindEnv("api_prefix", "API_V1_PREFIX")
	v.BindEnv("allowed_origins", "ALLOWED_ORIGINS")
	v.BindEnv("slack_signing_secret", "SLACK_SIGNING_SECRET")
	v.BindEnv("slack_reply_event_topic", "SLACK_REPLY_EVENT_TOPIC")
	v.BindEnv("email_reply_event_topic", "EMAIL_REPLY_EVENT_TOPIC")
	v.BindEnv("otlp_endpoint", "OTLP_ENDPOINT")

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDuration,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return cfg, errors.NewError(errors.CodeInternalError, "failed to parse configuration", err)
	}
	if cfg.GoogleCloudProject == "" {
		return cfg, errors.NewError(errors.CodeInternalError, "GOOGLE_CLOUD_PROJECT is required", nil)
	}
	return cfg, nil
}

// secondsToDuration decodes bare numbers as seconds, so duration
// settings accept both "60" and "60s".
func secondsToDuration(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) || from.Kind() != reflect.String {
		return data, nil
	}
	secs, err := strconv.ParseFloat(data.(string), 64)
	if err != nil {
		return data, nil
	}
	return time.Duration(secs * float64(time.Second)), nil
}
