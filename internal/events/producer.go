/**
 * @description
 * This package provides the notification event producer and the pipeline
 * machinery around the notification topics. The producer serializes an
 * event and hands it to the broker; every failure it raises is classified
 * as transient (broker unreachable, may succeed on retry) or permanent
 * (unserializable payload, retrying cannot help). That binary
 * classification is the seam the retry policy keys on; permanent payloads
 * are parked on the dead-letter topic instead of retried.
 *
 * @dependencies
 * - github.com/segmentio/kafka-go: The Kafka client library.
 * - internal/domain: The notification event model.
 */

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ssokpay/transfer-service/internal/domain"
)

// FailureClass classifies a publish failure.
type FailureClass int

const (
	// FailureTransient failures may succeed on retry.
	FailureTransient FailureClass = iota + 1
	// FailurePermanent failures will not be fixed by retrying.
	FailurePermanent
)

func (c FailureClass) String() string {
	if c == FailurePermanent {
		return "permanent"
	}
	return "transient"
}

// PublishError is a classified publish failure.
type PublishError struct {
	Class FailureClass
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("notification publish failed (%s): %v", e.Class, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// ClassifyPublishError extracts the failure class; unclassified errors are
// treated as transient so they stay eligible for retry.
func ClassifyPublishError(err error) FailureClass {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe.Class
	}
	return FailureTransient
}

// Producer is the interface the orchestrator publishes through.
type Producer interface {
	PublishNotification(ctx context.Context, event domain.NotificationEvent) error
	Close() error
}

// messageWriter is the slice of kafka.Writer the producer and the pipeline
// write through; tests substitute it.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer publishes notification events onto the primary topic,
// keyed by recipient user id so one recipient's events stay in order
// within a partition.
type KafkaProducer struct {
	writer          messageWriter
	topic           string
	deadLetterTopic string
}

// NewKafkaProducer creates a producer over the given brokers.
func NewKafkaProducer(brokers []string, topic, deadLetterTopic string) (*KafkaProducer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka producer requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka producer requires a topic")
	}
	if deadLetterTopic == "" {
		return nil, fmt.Errorf("kafka producer requires a dead-letter topic")
	}
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topic:           topic,
		deadLetterTopic: deadLetterTopic,
	}, nil
}

// PublishNotification serializes and enqueues one event. Serialization
// failures are permanent: retrying cannot fix the payload, so its string
// form goes straight to the dead-letter topic for operator inspection.
func (p *KafkaProducer) PublishNotification(ctx context.Context, event domain.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("level=error component=notification_producer msg=\"event marshal failed\" user_id=%d err=%v", event.UserID, err)
		p.deadLetter(ctx, err.Error(), []byte(fmt.Sprintf("%+v", event)))
		return &PublishError{Class: FailurePermanent, Err: err}
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(strconv.FormatInt(event.UserID, 10)),
		Value: payload,
		Time:  time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("level=warn component=notification_producer msg=\"broker hand-off failed\" topic=%s user_id=%d err=%v", p.topic, event.UserID, err)
		return &PublishError{Class: FailureTransient, Err: err}
	}
	return nil
}

// deadLetter parks an unpublishable payload on the dead-letter topic. Best
// effort: the caller already returns a permanent error either way.
func (p *KafkaProducer) deadLetter(ctx context.Context, reason string, payload []byte) {
	out := kafka.Message{
		Topic: p.deadLetterTopic,
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: HeaderReason, Value: []byte(reason)},
			{Key: HeaderOriginTopic, Value: []byte(p.topic)},
		},
	}
	if err := p.writer.WriteMessages(ctx, out); err != nil {
		log.Printf("level=error component=notification_producer msg=\"dead-letter hand-off failed; payload only in logs\" payload=%s err=%v", payload, err)
	}
}

// Close flushes and closes the underlying writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// FallbackProducer is a minimal no-op producer used when the broker is
// unavailable at startup. Notification is best-effort relative to the
// financial record, so the transfer API still boots.
type FallbackProducer struct{}

func (FallbackProducer) PublishNotification(ctx context.Context, event domain.NotificationEvent) error {
	log.Printf("level=warn component=notification_producer mode=fallback msg=\"publish skipped\" user_id=%d", event.UserID)
	return nil
}

func (FallbackProducer) Close() error { return nil }
