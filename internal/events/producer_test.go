package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/ssokpay/transfer-service/internal/domain"
)

func TestClassifyPublishError(t *testing.T) {
	permanent := &PublishError{Class: FailurePermanent, Err: errors.New("unserializable payload")}
	if got := ClassifyPublishError(permanent); got != FailurePermanent {
		t.Fatalf("expected permanent, got %s", got)
	}

	transient := &PublishError{Class: FailureTransient, Err: errors.New("broker unreachable")}
	if got := ClassifyPublishError(transient); got != FailureTransient {
		t.Fatalf("expected transient, got %s", got)
	}
}

func TestClassifyPublishErrorUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("publish event: %w", &PublishError{Class: FailurePermanent, Err: errors.New("bad payload")})
	if got := ClassifyPublishError(wrapped); got != FailurePermanent {
		t.Fatalf("expected permanent through the wrap, got %s", got)
	}
}

func TestClassifyPublishErrorDefaultsToTransient(t *testing.T) {
	if got := ClassifyPublishError(errors.New("who knows")); got != FailureTransient {
		t.Fatalf("expected unknown errors to stay retryable, got %s", got)
	}
}

func TestPublishErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &PublishError{Class: FailureTransient, Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("expected the underlying cause to be reachable via errors.Is")
	}
}

func TestPublishNotificationWritesEventKeyedByRecipient(t *testing.T) {
	writer := &stubWriter{}
	p := &KafkaProducer{writer: writer, topic: "ssok.notification", deadLetterTopic: "ssok.notification.dlt"}
	event := domain.NotificationEvent{
		UserID:       9,
		AccountID:    77,
		SenderName:   "Sender",
		BankCode:     4,
		Amount:       10000,
		TransferType: domain.TransferTypeCredit,
	}

	if err := p.PublishNotification(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := writer.written[0]
	if out.Topic != "ssok.notification" {
		t.Fatalf("unexpected topic %q", out.Topic)
	}
	if string(out.Key) != "9" {
		t.Fatalf("expected recipient user id as key, got %q", out.Key)
	}
	var got domain.NotificationEvent
	if err := json.Unmarshal(out.Value, &got); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if got != event {
		t.Fatalf("expected event round-trip, got %+v", got)
	}
}

func TestPublishNotificationBrokerFailureIsTransient(t *testing.T) {
	writer := &stubWriter{failures: 1 << 30}
	p := &KafkaProducer{writer: writer, topic: "ssok.notification", deadLetterTopic: "ssok.notification.dlt"}

	err := p.PublishNotification(context.Background(), domain.NotificationEvent{UserID: 9})
	if ClassifyPublishError(err) != FailureTransient {
		t.Fatalf("expected transient classification, got %v", err)
	}
}

func TestDeadLetterParksPayloadWithReason(t *testing.T) {
	writer := &stubWriter{}
	p := &KafkaProducer{writer: writer, topic: "ssok.notification", deadLetterTopic: "ssok.notification.dlt"}

	p.deadLetter(context.Background(), "event marshal failed", []byte("{UserID:9}"))

	out := writer.written[0]
	if out.Topic != "ssok.notification.dlt" {
		t.Fatalf("expected dead-letter topic, got %q", out.Topic)
	}
	if string(out.Value) != "{UserID:9}" {
		t.Fatalf("expected payload preserved, got %q", out.Value)
	}
	if messageHeader(out, HeaderReason) != "event marshal failed" {
		t.Fatalf("expected reason header, got %q", messageHeader(out, HeaderReason))
	}
	if messageHeader(out, HeaderOriginTopic) != "ssok.notification" {
		t.Fatalf("expected origin topic header, got %q", messageHeader(out, HeaderOriginTopic))
	}
}

func TestFallbackProducerNeverFails(t *testing.T) {
	producer := FallbackProducer{}
	err := producer.PublishNotification(context.Background(), domain.NotificationEvent{
		UserID: 9,
		Amount: 10000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := producer.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}
