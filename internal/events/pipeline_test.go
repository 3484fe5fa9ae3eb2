package events

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type stubWriter struct {
	failures int
	calls    int
	written  []kafka.Message
}

func (s *stubWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("broker unreachable")
	}
	s.written = append(s.written, msgs...)
	return nil
}

func (s *stubWriter) Close() error { return nil }

func fastBackoff(t *testing.T) {
	t.Helper()
	prev := republishBackoff
	republishBackoff = time.Millisecond
	t.Cleanup(func() { republishBackoff = prev })
}

func messageHeader(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func testPipeline(writer *stubWriter) *Pipeline {
	return &Pipeline{
		groupID:  "notification-worker",
		schedule: testSchedule(),
		writer:   writer,
	}
}

func TestRerouteMovesFailedMessageToNextRetryTopic(t *testing.T) {
	writer := &stubWriter{}
	p := testPipeline(writer)
	payload := []byte(`{"userId":9,"amount":10000}`)
	msg := kafka.Message{Topic: p.schedule.PrimaryTopic, Key: []byte("9"), Value: payload}

	if err := p.reroute(context.Background(), msg, 1, errors.New("gateway timeout")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(writer.written) != 1 {
		t.Fatalf("expected one republish, got %d", len(writer.written))
	}
	out := writer.written[0]
	if out.Topic != "ssok.notification.retry.1" {
		t.Fatalf("expected first retry topic, got %q", out.Topic)
	}
	if !bytes.Equal(out.Value, payload) {
		t.Fatalf("expected payload unmodified, got %q", out.Value)
	}
	if messageHeader(out, HeaderAttempt) != "1" {
		t.Fatalf("expected attempt header 1, got %q", messageHeader(out, HeaderAttempt))
	}
	if messageHeader(out, HeaderOriginTopic) != p.schedule.PrimaryTopic {
		t.Fatalf("unexpected origin topic %q", messageHeader(out, HeaderOriginTopic))
	}
	if messageHeader(out, HeaderGroup) != "notification-worker" {
		t.Fatalf("unexpected group header %q", messageHeader(out, HeaderGroup))
	}
}

func TestRerouteExhaustedBudgetDeadLetters(t *testing.T) {
	writer := &stubWriter{}
	p := testPipeline(writer)
	payload := []byte(`{"userId":9}`)
	attempt := p.schedule.MaxAttempts()
	msg := kafka.Message{Topic: p.schedule.RetryTopics[2], Value: payload}

	if err := p.reroute(context.Background(), msg, attempt, errors.New("still failing")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := writer.written[0]
	if out.Topic != p.schedule.DeadLetterTopic {
		t.Fatalf("expected dead-letter topic after attempt %d, got %q", attempt, out.Topic)
	}
	if !bytes.Equal(out.Value, payload) {
		t.Fatalf("expected payload unmodified, got %q", out.Value)
	}
}

func TestReroutePermanentFailureBypassesRetryBudget(t *testing.T) {
	writer := &stubWriter{}
	p := testPipeline(writer)
	msg := kafka.Message{Topic: p.schedule.PrimaryTopic, Value: []byte("{bad")}
	cause := fmt.Errorf("%w: decode notification event", ErrPermanentMessage)

	if err := p.reroute(context.Background(), msg, 1, cause); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := writer.written[0].Topic; got != p.schedule.DeadLetterTopic {
		t.Fatalf("expected permanent failure on the dead-letter topic, got %q", got)
	}
}

func TestRerouteRetriesWriteUntilItLands(t *testing.T) {
	fastBackoff(t)
	writer := &stubWriter{failures: 3}
	p := testPipeline(writer)
	msg := kafka.Message{Topic: p.schedule.PrimaryTopic, Value: []byte("{}")}

	if err := p.reroute(context.Background(), msg, 1, errors.New("gateway timeout")); err != nil {
		t.Fatalf("expected the write to eventually land, got %v", err)
	}
	if writer.calls != 4 {
		t.Fatalf("expected 4 write attempts, got %d", writer.calls)
	}
	if len(writer.written) != 1 {
		t.Fatalf("expected exactly one republished message, got %d", len(writer.written))
	}
}

func TestRerouteOnlyGivesUpOnShutdown(t *testing.T) {
	fastBackoff(t)
	writer := &stubWriter{failures: 1 << 30}
	p := testPipeline(writer)
	msg := kafka.Message{Topic: p.schedule.PrimaryTopic, Value: []byte("{}")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.reroute(ctx, msg, 1, errors.New("gateway timeout"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if len(writer.written) != 0 {
		t.Fatalf("expected no message written after shutdown, got %d", len(writer.written))
	}
}

func TestDeadLetterRepublishCarriesPayloadByteForByte(t *testing.T) {
	writer := &stubWriter{}
	h := &DeadLetterHandler{
		groupID:  "notification-worker.dlt",
		schedule: testSchedule(),
		writer:   writer,
	}
	payload := []byte{0x00, 0x7b, 0xff, 0x22, 0x00}
	msg := kafka.Message{
		Topic: h.schedule.DeadLetterTopic,
		Key:   []byte("9"),
		Value: payload,
		Headers: []kafka.Header{
			{Key: HeaderReason, Value: []byte("retry budget exhausted")},
		},
	}

	if err := h.republish(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := writer.written[0]
	if out.Topic != h.schedule.RecoveryTopic {
		t.Fatalf("expected recovery topic, got %q", out.Topic)
	}
	if !bytes.Equal(out.Value, payload) {
		t.Fatalf("expected payload byte-for-byte, got %v", out.Value)
	}
	if !bytes.Equal(out.Key, msg.Key) {
		t.Fatalf("expected key preserved, got %q", out.Key)
	}
}

func TestDeadLetterRepublishRetriesUntilItLands(t *testing.T) {
	fastBackoff(t)
	writer := &stubWriter{failures: 2}
	h := &DeadLetterHandler{
		groupID:  "notification-worker.dlt",
		schedule: testSchedule(),
		writer:   writer,
	}

	msg := kafka.Message{Topic: h.schedule.DeadLetterTopic, Value: []byte("{}")}
	if err := h.republish(context.Background(), msg); err != nil {
		t.Fatalf("expected the write to eventually land, got %v", err)
	}
	if writer.calls != 3 {
		t.Fatalf("expected 3 write attempts, got %d", writer.calls)
	}
}
