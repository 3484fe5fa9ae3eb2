package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfig_DefaultsFormACompleteRetryChain(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "NOTIFICATION_RETRY_TOPICS")
	unsetEnvWithCleanup(t, "NOTIFICATION_RETRY_DELAYS_SEC")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	topics := cfg.RetryTopics()
	delays := cfg.RetryDelays()
	if len(topics) != 3 || len(delays) != 3 {
		t.Fatalf("expected 3 retry topics and delays, got %d topics and %d delays", len(topics), len(delays))
	}
	if topics[0] != "ssok.notification.retry.1" {
		t.Fatalf("unexpected first retry topic %q", topics[0])
	}
	if delays[2] != 5*time.Minute {
		t.Fatalf("expected final backoff of 5m, got %v", delays[2])
	}
	if cfg.NotificationTopic != "ssok.notification" {
		t.Fatalf("unexpected default topic %q", cfg.NotificationTopic)
	}
	if cfg.NotificationDeadLetterTopic != "ssok.notification.dlt" {
		t.Fatalf("unexpected default dead-letter topic %q", cfg.NotificationDeadLetterTopic)
	}
}

func TestLoadConfig_BrokersParsesCommaSeparatedList(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "KAFKA_BROKERS", "broker-1:9092, broker-2:9092 ,broker-3:9092")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	brokers := cfg.Brokers()
	if len(brokers) != 3 {
		t.Fatalf("expected 3 brokers, got %v", brokers)
	}
	if brokers[1] != "broker-2:9092" {
		t.Fatalf("expected whitespace trimmed, got %q", brokers[1])
	}
}

func TestRetryDelays_MalformedEntryReusesPreviousDelay(t *testing.T) {
	cfg := Config{NotificationRetryDelaysSec: "10,bogus,300"}

	delays := cfg.RetryDelays()
	if len(delays) != 3 {
		t.Fatalf("expected 3 delays, got %d", len(delays))
	}
	if delays[1] != 10*time.Second {
		t.Fatalf("expected malformed entry to reuse previous delay, got %v", delays[1])
	}
	if delays[2] != 300*time.Second {
		t.Fatalf("expected 300s, got %v", delays[2])
	}
}

func TestLoadConfig_TimeoutsNeverZero(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "ACCOUNT_RESOLVE_TIMEOUT_MS", "0")
	setEnvWithCleanup(t, "OPENBANKING_TIMEOUT_MS", "-5")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.AccountResolveTimeoutMS != 3000 {
		t.Fatalf("expected resolve timeout fallback, got %d", cfg.AccountResolveTimeoutMS)
	}
	if cfg.OpenBankingTimeoutMS != 10000 {
		t.Fatalf("expected rail timeout fallback, got %d", cfg.OpenBankingTimeoutMS)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unsetenv %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			os.Setenv(key, prev)
		}
	})
}
