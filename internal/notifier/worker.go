/**
 * @description
 * The worker is the handler the notification pipeline runs per message:
 * deserialize the event, resolve the bank display name, format a title and
 * body, and dispatch to the push gateway. Failures that retrying cannot fix
 * (malformed payload, bank code outside the enumeration, unknown transfer
 * type) are marked permanent so they dead-letter without burning retry
 * budget; gateway failures stay retryable.
 *
 * Delivery upstream is at-least-once, so a redelivered message could cause
 * a duplicate push. A best-effort Redis guard keyed on the event's natural
 * fields suppresses re-dispatch when Redis is available; when it is not,
 * the duplicate push is the accepted trade-off.
 */

package notifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ssokpay/transfer-service/internal/domain"
	"github.com/ssokpay/transfer-service/internal/events"
)

// Worker turns notification events into push dispatches.
type Worker struct {
	push        PushSender
	dedup       *redis.Client
	dedupPrefix string
	dedupTTL    time.Duration
}

// NewWorker creates a worker. dedup may be nil; the guard is then skipped.
func NewWorker(push PushSender, dedup *redis.Client, dedupPrefix string, dedupTTL time.Duration) *Worker {
	if dedupPrefix == "" {
		dedupPrefix = "ssok:notification:seen"
	}
	if dedupTTL <= 0 {
		dedupTTL = 24 * time.Hour
	}
	return &Worker{push: push, dedup: dedup, dedupPrefix: dedupPrefix, dedupTTL: dedupTTL}
}

// Handle processes one message payload from the pipeline.
func (w *Worker) Handle(ctx context.Context, payload []byte) error {
	var event domain.NotificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: decode notification event: %v", events.ErrPermanentMessage, err)
	}

	bankName, err := domain.BankName(event.BankCode)
	if err != nil {
		return fmt.Errorf("%w: bank code %d: %v", events.ErrPermanentMessage, event.BankCode, err)
	}

	title, body, err := formatMessage(event, bankName)
	if err != nil {
		return fmt.Errorf("%w: %v", events.ErrPermanentMessage, err)
	}

	if w.alreadyDispatched(ctx, payload) {
		log.Printf("level=info component=notification_worker msg=\"duplicate event; push suppressed\" user_id=%d", event.UserID)
		return nil
	}

	if err := w.push.Send(ctx, event.UserID, title, body); err != nil {
		return fmt.Errorf("push dispatch for user %d: %w", event.UserID, err)
	}

	log.Printf("level=info component=notification_worker msg=\"push dispatched\" user_id=%d transfer_type=%s amount=%d", event.UserID, event.TransferType, event.Amount)
	return nil
}

// formatMessage builds the push title and body for the transfer kind.
func formatMessage(event domain.NotificationEvent, bankName string) (title, body string, err error) {
	switch event.TransferType {
	case domain.TransferTypeCredit, domain.TransferTypeProximityCredit:
		return "Transfer received", fmt.Sprintf("%s sent you %d KRW (%s)", event.SenderName, event.Amount, bankName), nil
	case domain.TransferTypeDebit, domain.TransferTypeProximityDebit:
		return "Transfer sent", fmt.Sprintf("You sent %d KRW to %s (%s)", event.Amount, event.SenderName, bankName), nil
	default:
		return "", "", fmt.Errorf("unknown transfer type %q", event.TransferType)
	}
}

// alreadyDispatched reports whether the exact payload was pushed recently.
// Redis errors degrade to dispatching; the guard is best-effort only.
func (w *Worker) alreadyDispatched(ctx context.Context, payload []byte) bool {
	if w.dedup == nil {
		return false
	}

	sum := sha256.Sum256(payload)
	key := fmt.Sprintf("%s:%s", w.dedupPrefix, hex.EncodeToString(sum[:]))

	set, err := w.dedup.SetNX(ctx, key, 1, w.dedupTTL).Result()
	if err != nil {
		log.Printf("level=warn component=notification_worker msg=\"dedup check failed; dispatching anyway\" err=%v", err)
		return false
	}
	return !set
}
