package engraving

import (
	"context"
	"fmt"
	"time"
)

// retryTask is one pending persistence call. itemIndex -1 marks an
// order-engraved task.
type retryTask struct {
	itemIndex     int
	orderNumber   string
	totalPausedMs int64
	attempts      int
}

func (t retryTask) String() string {
	if t.itemIndex < 0 {
		return "order " + t.orderNumber
	}
	return fmt.Sprintf("item %d", t.itemIndex)
}

func sameTask(a, b retryTask) bool {
	return a.itemIndex == b.itemIndex && a.orderNumber == b.orderNumber
}

// PendingRetries returns the number of saves still waiting to reach the
// store, surfaced to the engraver as a "saving, retrying" indicator
func (s *Session) PendingRetries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.retries)
}

func (s *Session) enqueue(task retryTask) {
	s.mu.Lock()
	s.retries = append(s.retries, task)
	pending := len(s.retries)
	s.mu.Unlock()

	s.notifyGauge(pending)
	select {
	case s.retryWake <- struct{}{}:
	default:
	}
}

func (s *Session) notifyGauge(pending int) {
	if s.queueGauge != nil {
		s.queueGauge(pending)
	}
}

// backoff returns the delay before a task's next attempt: exponential from
// the base, capped. Retrying never stops on its own; engraving is physical
// and the save must eventually land.
func (s *Session) backoff(attempts int) time.Duration {
	delay := s.retryBase
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= s.retryCap {
			return s.retryCap
		}
	}
	if delay > s.retryCap {
		delay = s.retryCap
	}
	return delay
}

// retryLoop drains the retry queue one task at a time. A task is removed
// exactly once, on its first successful attempt; failures rotate it to the
// tail with an increased attempt count.
func (s *Session) retryLoop() {
	defer s.done.Done()
	for {
		s.mu.Lock()
		var (
			head    retryTask
			waiting bool
		)
		if len(s.retries) > 0 {
			head = s.retries[0]
			waiting = true
		}
		s.mu.Unlock()

		if !waiting {
			select {
			case <-s.stop:
				return
			case <-s.retryWake:
				continue
			}
		}

		select {
		case <-s.stop:
			return
		case <-time.After(s.backoff(head.attempts)):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.attempt(ctx, head)
		cancel()

		s.mu.Lock()
		if len(s.retries) > 0 && sameTask(s.retries[0], head) {
			if err == nil {
				s.retries = s.retries[1:]
			} else {
				rotated := s.retries[0]
				rotated.attempts++
				s.retries = append(s.retries[1:], rotated)
			}
		}
		pending := len(s.retries)
		s.mu.Unlock()

		s.notifyGauge(pending)
		if err != nil {
			s.logger.WithError(err).Warn(fmt.Sprintf("engraving save retry failed for %s, %d still pending", head.String(), pending))
		} else {
			s.logger.Info(fmt.Sprintf("engraving save retry succeeded for %s, %d still pending", head.String(), pending))
		}
	}
}

func (s *Session) attempt(ctx context.Context, task retryTask) error {
	if task.itemIndex < 0 {
		return s.store.MarkOrderEngraved(ctx, s.chunkID, task.orderNumber)
	}
	return s.store.MarkItem(ctx, s.chunkID, task.itemIndex, task.totalPausedMs)
}

// flush synchronously attempts every pending task once. Tasks that still
// fail stay queued and ErrRetriesPending is returned.
func (s *Session) flush(ctx context.Context) error {
	s.mu.Lock()
	pending := s.retries
	s.retries = nil
	s.mu.Unlock()

	var failed []retryTask
	for _, task := range pending {
		if err := s.attempt(ctx, task); err != nil {
			task.attempts++
			failed = append(failed, task)
		}
	}

	s.mu.Lock()
	s.retries = append(failed, s.retries...)
	remaining := len(s.retries)
	s.mu.Unlock()

	s.notifyGauge(remaining)
	if remaining > 0 {
		return ErrRetriesPending
	}
	return nil
}
