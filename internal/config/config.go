/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables,
 * providing a centralized and straightforward way to manage application
 * settings for both the transfer API and the notification worker.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the transfer-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	GRPCPort   string `mapstructure:"GRPC_PORT"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	KafkaBrokers                string `mapstructure:"KAFKA_BROKERS"`
	NotificationTopic           string `mapstructure:"NOTIFICATION_TOPIC"`
	NotificationRetryTopics     string `mapstructure:"NOTIFICATION_RETRY_TOPICS"`
	NotificationRetryDelaysSec  string `mapstructure:"NOTIFICATION_RETRY_DELAYS_SEC"`
	NotificationDeadLetterTopic string `mapstructure:"NOTIFICATION_DEAD_LETTER_TOPIC"`
	NotificationRecoveryTopic   string `mapstructure:"NOTIFICATION_RECOVERY_TOPIC"`
	NotificationConsumerGroup   string `mapstructure:"NOTIFICATION_CONSUMER_GROUP"`
	DeadLetterConsumerGroup     string `mapstructure:"DEAD_LETTER_CONSUMER_GROUP"`
	NotificationDedupTTLMin     int    `mapstructure:"NOTIFICATION_DEDUP_TTL_MINUTES"`
	NotificationDedupPrefix     string `mapstructure:"NOTIFICATION_DEDUP_PREFIX"`

	AccountServiceAddr      string `mapstructure:"ACCOUNT_SERVICE_ADDR"`
	AccountResolveTimeoutMS int    `mapstructure:"ACCOUNT_RESOLVE_TIMEOUT_MS"`

	OpenBankingBaseURL   string `mapstructure:"OPENBANKING_BASE_URL"`
	OpenBankingAPIKey    string `mapstructure:"OPENBANKING_API_KEY"`
	OpenBankingTimeoutMS int    `mapstructure:"OPENBANKING_TIMEOUT_MS"`

	PushGatewayURL    string `mapstructure:"PUSH_GATEWAY_URL"`
	PushGatewayAPIKey string `mapstructure:"PUSH_GATEWAY_API_KEY"`

	JWTSecret      string `mapstructure:"JWT_SECRET"`
	InternalAPIKey string `mapstructure:"INTERNAL_API_KEY"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GRPC_PORT", "9090")
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("NOTIFICATION_TOPIC", "ssok.notification")
	viper.SetDefault("NOTIFICATION_RETRY_TOPICS", "ssok.notification.retry.1,ssok.notification.retry.2,ssok.notification.retry.3")
	viper.SetDefault("NOTIFICATION_RETRY_DELAYS_SEC", "10,60,300")
	viper.SetDefault("NOTIFICATION_DEAD_LETTER_TOPIC", "ssok.notification.dlt")
	viper.SetDefault("NOTIFICATION_RECOVERY_TOPIC", "ssok.notification.recovery")
	viper.SetDefault("NOTIFICATION_CONSUMER_GROUP", "notification-worker")
	viper.SetDefault("DEAD_LETTER_CONSUMER_GROUP", "notification-worker.dlt")
	viper.SetDefault("NOTIFICATION_DEDUP_TTL_MINUTES", 1440)
	viper.SetDefault("NOTIFICATION_DEDUP_PREFIX", "ssok:notification:seen")
	viper.SetDefault("ACCOUNT_SERVICE_ADDR", "localhost:9091")
	viper.SetDefault("ACCOUNT_RESOLVE_TIMEOUT_MS", 3000)
	viper.SetDefault("OPENBANKING_TIMEOUT_MS", 10000)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("GRPC_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("KAFKA_BROKERS")
	_ = viper.BindEnv("NOTIFICATION_TOPIC")
	_ = viper.BindEnv("NOTIFICATION_RETRY_TOPICS")
	_ = viper.BindEnv("NOTIFICATION_RETRY_DELAYS_SEC")
	_ = viper.BindEnv("NOTIFICATION_DEAD_LETTER_TOPIC")
	_ = viper.BindEnv("NOTIFICATION_RECOVERY_TOPIC")
	_ = viper.BindEnv("NOTIFICATION_CONSUMER_GROUP")
	_ = viper.BindEnv("DEAD_LETTER_CONSUMER_GROUP")
	_ = viper.BindEnv("NOTIFICATION_DEDUP_TTL_MINUTES")
	_ = viper.BindEnv("NOTIFICATION_DEDUP_PREFIX")
	_ = viper.BindEnv("ACCOUNT_SERVICE_ADDR")
	_ = viper.BindEnv("ACCOUNT_RESOLVE_TIMEOUT_MS")
	_ = viper.BindEnv("OPENBANKING_BASE_URL")
	_ = viper.BindEnv("OPENBANKING_API_KEY")
	_ = viper.BindEnv("OPENBANKING_TIMEOUT_MS")
	_ = viper.BindEnv("PUSH_GATEWAY_URL")
	_ = viper.BindEnv("PUSH_GATEWAY_API_KEY")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("INTERNAL_API_KEY")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if config.AccountResolveTimeoutMS <= 0 {
		config.AccountResolveTimeoutMS = 3000
	}
	if config.OpenBankingTimeoutMS <= 0 {
		config.OpenBankingTimeoutMS = 10000
	}
	if config.NotificationDedupTTLMin <= 0 {
		config.NotificationDedupTTLMin = 1440
	}

	return config, nil
}

// Brokers parses the comma-separated broker list.
func (c Config) Brokers() []string {
	return splitTrimmed(c.KafkaBrokers)
}

// RetryTopics parses the comma-separated retry topic chain.
func (c Config) RetryTopics() []string {
	return splitTrimmed(c.NotificationRetryTopics)
}

// RetryDelays parses the comma-separated per-topic backoff seconds. A
// malformed entry is coerced to the previous valid delay so the chain
// length always matches the topic chain.
func (c Config) RetryDelays() []time.Duration {
	parts := splitTrimmed(c.NotificationRetryDelaysSec)
	delays := make([]time.Duration, 0, len(parts))
	last := 10 * time.Second
	for _, part := range parts {
		secs, err := strconv.Atoi(part)
		if err != nil || secs <= 0 {
			log.Printf("level=warn component=config msg=\"invalid retry delay; reusing previous\" value=%q", part)
			delays = append(delays, last)
			continue
		}
		last = time.Duration(secs) * time.Second
		delays = append(delays, last)
	}
	return delays
}

func splitTrimmed(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
