package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries everything the worker and API need. It is built once at
// startup and passed into constructors; nothing reads the environment after
// InitConfig returns.
type Config struct {
	LogLevel string `mapstructure:"log-level"`

	// Inventory endpoint credentials and hardening.
	TMEndpoint     string        `mapstructure:"tm-endpoint"`
	TMAPIKey       string        `mapstructure:"tm-api-key"`
	TMAuthCookie   string        `mapstructure:"tm-auth-cookie"`
	TMQueueToken   string        `mapstructure:"tm-queue-token"`
	ProxyURL       string        `mapstructure:"proxy-url"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`

	// Job store.
	AWSRegion      string `mapstructure:"aws-region"`
	DynamoTable    string `mapstructure:"dynamo-table"`
	DynamoEndpoint string `mapstructure:"dynamo-endpoint"`

	// Notification transports. Empty values leave the channel unconfigured.
	SESFromEmail     string `mapstructure:"ses-from-email"`
	TwilioAccountSID string `mapstructure:"twilio-account-sid"`
	TwilioAuthToken  string `mapstructure:"twilio-auth-token"`
	TwilioFromNumber string `mapstructure:"twilio-from-number"`
	FCMCredentials   string `mapstructure:"fcm-credentials"`

	// Alert audit feed. Empty topic disables publishing.
	KafkaBrokers    string `mapstructure:"kafka-brokers"`
	KafkaAlertTopic string `mapstructure:"kafka-alert-topic"`

	// API surface.
	ListenAddr string `mapstructure:"listen-addr"`
}

// field: default value
var defaults = map[string]interface{}{
	"log-level":       "INFO",
	"tm-endpoint":     "https://app.ticketmaster.com/inventory-status/v1/availability",
	"request-timeout": 15 * time.Second,
	"aws-region":      "us-east-2",
	"dynamo-table":    "ticketscout-jobs",
	"kafka-brokers":   "localhost:9092",
	"listen-addr":     ":8080",
}

// InitConfig reads configuration from environment variables, falling back to
// the defaults above. Keys map to env vars with dashes replaced by
// underscores (e.g. tm-api-key -> TM_API_KEY).
func InitConfig() (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	for field, defaultValue := range defaults {
		v.SetDefault(field, defaultValue)
	}

	for _, field := range []string{
		"tm-api-key", "tm-auth-cookie", "tm-queue-token", "proxy-url",
		"dynamo-table", "dynamo-endpoint",
		"ses-from-email",
		"twilio-account-sid", "twilio-auth-token", "twilio-from-number",
		"fcm-credentials",
		"kafka-brokers", "kafka-alert-topic",
	} {
		if err := v.BindEnv(field); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Simulated reports whether the worker should run against the deterministic
// inventory stand-in instead of the real endpoint.
func (c *Config) Simulated() bool {
	return c.TMAPIKey == ""
}
