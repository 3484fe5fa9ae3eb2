/**
 * @description
 * This file runs the consumer side of the notification pipeline. One
 * consumer loop is started per topic (primary plus each retry topic), all
 * under the same consumer group. A loop fetches a message, waits out the
 * topic's visibility delay when it has one, hands the payload to the
 * handler, and on failure republishes the unmodified payload to the next
 * topic in the schedule. Permanent handler failures skip the remaining
 * retry budget and go straight to the dead-letter topic.
 *
 * Delivery is at-least-once: the offset is only committed after the
 * message was either handled or successfully re-routed. A failed re-route
 * write is retried with backoff rather than skipped, because fetching past
 * an unrouted message and committing a later offset would mark it consumed
 * and lose the payload.
 */

package events

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrPermanentMessage marks a processing failure that retrying cannot fix;
// handlers wrap it to route a message directly to the dead-letter topic.
var ErrPermanentMessage = errors.New("permanent message failure")

// Handler processes one message payload. Returning an error re-routes the
// message through the retry schedule.
type Handler func(ctx context.Context, payload []byte) error

// Pipeline consumes the notification topics and applies the retry schedule.
type Pipeline struct {
	brokers  []string
	groupID  string
	schedule Schedule
	handler  Handler
	writer   messageWriter
}

// NewPipeline wires a pipeline; Run starts it.
func NewPipeline(brokers []string, groupID string, schedule Schedule, handler Handler) (*Pipeline, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one broker")
	}
	if groupID == "" {
		return nil, fmt.Errorf("pipeline requires a consumer group id")
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, fmt.Errorf("pipeline requires a handler")
	}
	return &Pipeline{
		brokers:  brokers,
		groupID:  groupID,
		schedule: schedule,
		handler:  handler,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
	}, nil
}

// Run blocks until ctx is cancelled, consuming the primary topic and every
// retry topic. Each topic gets its own sequential loop; ordering within a
// partition is preserved, ordering across topics is not.
func (p *Pipeline) Run(ctx context.Context) {
	topics := append([]string{p.schedule.PrimaryTopic}, p.schedule.RetryTopics...)

	var wg sync.WaitGroup
	for _, topic := range topics {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			p.consumeTopic(ctx, topic)
		}(topic)
	}
	wg.Wait()

	if err := p.writer.Close(); err != nil {
		log.Printf("level=warn component=notification_pipeline msg=\"writer close failed\" err=%v", err)
	}
}

func (p *Pipeline) consumeTopic(ctx context.Context, topic string) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  p.brokers,
		GroupID:  p.groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	defer reader.Close()

	attempt := p.schedule.AttemptFor(topic)
	delay := p.schedule.DelayFor(topic)
	log.Printf("level=info component=notification_pipeline msg=\"consuming\" topic=%s group=%s attempt=%d delay=%s", topic, p.groupID, attempt, delay)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("level=warn component=notification_pipeline msg=\"fetch failed\" topic=%s err=%v", topic, err)
			continue
		}

		// Retry topics delay visibility relative to when the message was
		// republished, so backoff happens between topics, not in the
		// handler.
		if delay > 0 {
			if wait := time.Until(msg.Time.Add(delay)); wait > 0 {
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return
				}
			}
		}

		if handleErr := p.handler(ctx, msg.Value); handleErr != nil {
			// reroute blocks until the write lands; it only errors on
			// shutdown. Returning without committing makes the group
			// refetch this message, never skip it.
			if rerouteErr := p.reroute(ctx, msg, attempt, handleErr); rerouteErr != nil {
				log.Printf("level=warn component=notification_pipeline msg=\"re-route interrupted by shutdown; offset uncommitted\" topic=%s partition=%d offset=%d err=%v", msg.Topic, msg.Partition, msg.Offset, rerouteErr)
				return
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Printf("level=warn component=notification_pipeline msg=\"offset commit failed\" topic=%s partition=%d offset=%d err=%v", msg.Topic, msg.Partition, msg.Offset, err)
		}
	}
}

// reroute republishes the unmodified payload to the next topic in the
// schedule. Permanent failures bypass the remaining retry budget. The
// write is retried until it lands or ctx is cancelled.
func (p *Pipeline) reroute(ctx context.Context, msg kafka.Message, attempt int, cause error) error {
	next := p.schedule.NextTopic(attempt)
	if errors.Is(cause, ErrPermanentMessage) {
		next = p.schedule.DeadLetterTopic
	}

	log.Printf("level=warn component=notification_pipeline msg=\"processing failed; re-routing\" topic=%s partition=%d offset=%d attempt=%d next=%s err=%v",
		msg.Topic, msg.Partition, msg.Offset, attempt, next, cause)

	out := kafka.Message{
		Topic: next,
		Key:   msg.Key,
		Value: msg.Value,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: HeaderAttempt, Value: []byte(fmt.Sprintf("%d", attempt))},
			{Key: HeaderReason, Value: []byte(cause.Error())},
			{Key: HeaderOriginTopic, Value: []byte(msg.Topic)},
			{Key: HeaderGroup, Value: []byte(p.groupID)},
		},
	}
	return writeWithRetry(ctx, p.writer, "notification_pipeline", out)
}

// republishBackoff seeds the retry backoff; it doubles up to 30s.
var republishBackoff = time.Second

// writeWithRetry republishes with exponential backoff until the write
// lands or ctx is cancelled. Giving up would drop the payload, so the
// only exit without a successful write is shutdown.
func writeWithRetry(ctx context.Context, w messageWriter, component string, out kafka.Message) error {
	backoff := republishBackoff
	for {
		err := w.WriteMessages(ctx, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("level=warn component=%s msg=\"republish failed; backing off\" topic=%s backoff=%s err=%v", component, out.Topic, backoff, err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}
