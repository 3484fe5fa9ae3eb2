package events

import (
	"fmt"
	"time"
)

// Message headers the pipeline attaches when re-routing a payload. The
// payload itself is always carried unmodified.
const (
	HeaderAttempt     = "x-retry-attempt"
	HeaderReason      = "x-failure-reason"
	HeaderOriginTopic = "x-origin-topic"
	HeaderGroup       = "x-consumer-group"
)

// Schedule is the bounded retry chain for the notification pipeline. A
// message that fails on the primary topic is republished to RetryTopics[0],
// then [1], and so on; each retry topic has a visibility delay so the
// republish is a hand-off, not a tight loop. Exhaustion moves the payload
// to the dead-letter topic, from which the dead-letter handler republishes
// it to the recovery topic for out-of-band reprocessing.
type Schedule struct {
	PrimaryTopic    string
	RetryTopics     []string
	RetryDelays     []time.Duration
	DeadLetterTopic string
	RecoveryTopic   string
}

// Validate checks the schedule is internally consistent.
func (s Schedule) Validate() error {
	if s.PrimaryTopic == "" {
		return fmt.Errorf("schedule requires a primary topic")
	}
	if len(s.RetryTopics) != len(s.RetryDelays) {
		return fmt.Errorf("schedule has %d retry topics but %d delays", len(s.RetryTopics), len(s.RetryDelays))
	}
	if s.DeadLetterTopic == "" {
		return fmt.Errorf("schedule requires a dead-letter topic")
	}
	if s.RecoveryTopic == "" {
		return fmt.Errorf("schedule requires a recovery topic")
	}
	return nil
}

// MaxAttempts is the total number of processing attempts a message gets
// before dead-lettering: one on the primary topic plus one per retry topic.
func (s Schedule) MaxAttempts() int {
	return 1 + len(s.RetryTopics)
}

// NextTopic returns where a message that failed its n-th attempt (1-based)
// is republished: the next retry topic, or the dead-letter topic once the
// budget is exhausted.
func (s Schedule) NextTopic(attempt int) string {
	if attempt >= s.MaxAttempts() {
		return s.DeadLetterTopic
	}
	return s.RetryTopics[attempt-1]
}

// DelayFor returns the visibility delay of a retry topic; the primary
// topic and unknown topics have none.
func (s Schedule) DelayFor(topic string) time.Duration {
	for i, t := range s.RetryTopics {
		if t == topic {
			return s.RetryDelays[i]
		}
	}
	return 0
}

// AttemptFor returns which processing attempt a topic represents: 1 for
// the primary topic, i+1 for retry topic i.
func (s Schedule) AttemptFor(topic string) int {
	for i, t := range s.RetryTopics {
		if t == topic {
			return i + 2
		}
	}
	return 1
}
