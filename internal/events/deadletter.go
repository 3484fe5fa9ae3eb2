/**
 * @description
 * The dead-letter handler drains the dead-letter topic and republishes each
 * payload, byte for byte, to the recovery topic. It never attempts
 * reprocessing itself; replay from the recovery topic is an operational,
 * out-of-band concern. Every dead-lettered message is logged at error level
 * with its origin topic, partition, offset, consumer group, and failure
 * reason so operators can trace what exhausted its retry budget.
 */

package events

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// DeadLetterHandler moves dead-lettered payloads to the recovery topic.
type DeadLetterHandler struct {
	brokers  []string
	groupID  string
	schedule Schedule
	writer   messageWriter
}

// NewDeadLetterHandler wires a handler; Run starts it.
func NewDeadLetterHandler(brokers []string, groupID string, schedule Schedule) (*DeadLetterHandler, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("dead-letter handler requires at least one broker")
	}
	if groupID == "" {
		return nil, fmt.Errorf("dead-letter handler requires a consumer group id")
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return &DeadLetterHandler{
		brokers:  brokers,
		groupID:  groupID,
		schedule: schedule,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
	}, nil
}

// Run blocks until ctx is cancelled, draining the dead-letter topic.
func (h *DeadLetterHandler) Run(ctx context.Context) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  h.brokers,
		GroupID:  h.groupID,
		Topic:    h.schedule.DeadLetterTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	defer reader.Close()
	defer func() {
		if err := h.writer.Close(); err != nil {
			log.Printf("level=warn component=dead_letter_handler msg=\"writer close failed\" err=%v", err)
		}
	}()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("level=warn component=dead_letter_handler msg=\"fetch failed\" err=%v", err)
			continue
		}

		log.Printf("level=error component=dead_letter_handler msg=\"message dead-lettered\" origin_topic=%s partition=%d offset=%d group=%s reason=%q payload=%s",
			headerValue(msg, HeaderOriginTopic), msg.Partition, msg.Offset, headerValue(msg, HeaderGroup), headerValue(msg, HeaderReason), string(msg.Value))

		// republish blocks until the write lands; it only errors on
		// shutdown. Returning without committing makes the group refetch
		// this message, never skip it.
		if err := h.republish(ctx, msg); err != nil {
			log.Printf("level=warn component=dead_letter_handler msg=\"recovery republish interrupted by shutdown; offset uncommitted\" partition=%d offset=%d err=%v", msg.Partition, msg.Offset, err)
			return
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Printf("level=warn component=dead_letter_handler msg=\"offset commit failed\" partition=%d offset=%d err=%v", msg.Partition, msg.Offset, err)
		}
	}
}

// republish hands the payload to the recovery topic byte for byte,
// retrying until the write lands or ctx is cancelled.
func (h *DeadLetterHandler) republish(ctx context.Context, msg kafka.Message) error {
	out := kafka.Message{
		Topic: h.schedule.RecoveryTopic,
		Key:   msg.Key,
		Value: msg.Value,
		Time:  time.Now().UTC(),
	}
	return writeWithRetry(ctx, h.writer, "dead_letter_handler", out)
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
