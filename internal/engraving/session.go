package engraving

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

// Errors
var (
	ErrAlreadyRunning = errors.New("engraving session already running")
	ErrNotRunning     = errors.New("engraving session not running")
	ErrNotPaused      = errors.New("engraving session not paused")
	ErrAlreadyPaused  = errors.New("engraving session already paused")
	ErrItemOutOfRange = errors.New("engraving item index out of range")
	ErrItemsRemaining = errors.New("engraving items remaining")
	ErrProgressExists = errors.New("cannot cancel after items were engraved")
	ErrRetriesPending = errors.New("engraving saves still pending")
)

// Metrics is the final timing report of a completed session
type Metrics struct {
	ActiveSeconds int64 `json:"activeSeconds"`
	PausedSeconds int64 `json:"pausedSeconds"`
	ItemCount     int   `json:"itemCount"`
}

// ProgressStore persists engraving progress. Engraving is physically
// irreversible, so MarkItem failures are queued and retried rather than
// blocking the engraver.
type ProgressStore interface {
	MarkItem(ctx context.Context, chunkID string, itemIndex int, totalPausedMs int64) error
	MarkOrderEngraved(ctx context.Context, chunkID string, orderNumber string) error
	Complete(ctx context.Context, chunkID string, metrics Metrics) error
	Cancel(ctx context.Context, chunkID string) error
}

const (
	defaultTickInterval = time.Second
	defaultRetryBase    = 5 * time.Second
	defaultRetryCap     = 60 * time.Second
)

// Option configures a session
type Option func(*Session)

// WithTickInterval overrides the active-timer tick interval
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) { s.tickInterval = d }
}

// WithRetryBackoff overrides the retry queue's base delay and cap
func WithRetryBackoff(base, max time.Duration) Option {
	return func(s *Session) {
		s.retryBase = base
		s.retryCap = max
	}
}

// WithQueueGauge registers a callback invoked with the pending retry count
// whenever it changes, for the station indicator and metrics
func WithQueueGauge(fn func(pending int)) Option {
	return func(s *Session) { s.queueGauge = fn }
}

// Session is one engraver's pass over a cart's personalized items. The
// active timer ticks once per interval only while running and not paused;
// paused wall-clock time accumulates into totalPausedMs independently.
type Session struct {
	chunkID string
	items   []Item
	store   ProgressStore
	logger  *logging.Logger
	resumed bool

	tickInterval time.Duration
	retryBase    time.Duration
	retryCap     time.Duration
	queueGauge   func(int)

	mu            sync.Mutex
	completed     map[int]bool
	currentIndex  int
	totalPausedMs int64
	activeSeconds int64
	running       bool
	paused        bool
	pausedAt      time.Time
	retries       []retryTask
	stop          chan struct{}
	done          sync.WaitGroup
	retryWake     chan struct{}
}

// NewSession builds a session for a checked-out chunk. If the chunk carries
// persisted progress and an engraver name, the session resumes: completed
// items and paused time are restored, the cursor is clamped into range, and
// the active timer restarts at zero for this sitting.
func NewSession(chunk *domain.Chunk, store ProgressStore, logger *logging.Logger, opts ...Option) *Session {
	s := &Session{
		chunkID:      chunk.ChunkID,
		items:        FlattenItems(chunk),
		store:        store,
		logger:       logger.WithComponent("engraving"),
		tickInterval: defaultTickInterval,
		retryBase:    defaultRetryBase,
		retryCap:     defaultRetryCap,
		completed:    make(map[int]bool),
		retryWake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	if chunk.EngravingProgress != nil && chunk.EngraverName != "" {
		s.resumed = true
		for _, idx := range chunk.EngravingProgress.CompletedItems {
			if idx >= 0 && idx < len(s.items) {
				s.completed[idx] = true
			}
		}
		upper := len(s.items) - 1
		if upper < 0 {
			upper = 0
		}
		s.currentIndex = clamp(chunk.EngravingProgress.CurrentIndex, 0, upper)
		s.totalPausedMs = chunk.EngravingProgress.TotalPausedMs
	}

	return s
}

// Resumed reports whether the session restored persisted progress
func (s *Session) Resumed() bool {
	return s.resumed
}

// Items returns the engraving sequence
func (s *Session) Items() []Item {
	return s.items
}

// Start begins the active timer and the retry worker
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	s.stop = make(chan struct{})

	s.done.Add(2)
	go s.tickLoop()
	go s.retryLoop()
	return nil
}

func (s *Session) tickLoop() {
	defer s.done.Done()
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.paused {
				s.activeSeconds++
			}
			s.mu.Unlock()
		}
	}
}

// Pause suspends the active timer
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	if s.paused {
		return ErrAlreadyPaused
	}
	s.paused = true
	s.pausedAt = time.Now()
	return nil
}

// Resume restarts the active timer, folding the paused interval into
// totalPausedMs
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return ErrNotPaused
	}
	s.totalPausedMs += time.Since(s.pausedAt).Milliseconds()
	s.paused = false
	return nil
}

// MarkDone marks one item engraved, advances the cursor past completed
// items, and persists. A failed persist is queued for retry with backoff
// instead of surfacing an error, because the engraving already happened.
// Completing an order's last item also reports the order engraved.
func (s *Session) MarkDone(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.items) {
		s.mu.Unlock()
		return ErrItemOutOfRange
	}
	if s.completed[index] {
		s.mu.Unlock()
		return nil
	}

	s.completed[index] = true
	s.advanceLocked()
	pausedMs := s.totalPausedMs
	orderDone := s.orderCompleteLocked(s.items[index].OrderNumber)
	orderNumber := s.items[index].OrderNumber
	s.mu.Unlock()

	if err := s.store.MarkItem(ctx, s.chunkID, index, pausedMs); err != nil {
		s.logger.WithError(err).Warn(fmt.Sprintf("failed to save engraved item %d, queued for retry", index))
		s.enqueue(retryTask{itemIndex: index, totalPausedMs: pausedMs})
	}

	if orderDone {
		if err := s.store.MarkOrderEngraved(ctx, s.chunkID, orderNumber); err != nil {
			s.logger.WithError(err).Warn(fmt.Sprintf("failed to mark order %s engraved, queued for retry", orderNumber))
			s.enqueue(retryTask{itemIndex: -1, orderNumber: orderNumber})
		}
	}
	return nil
}

// advanceLocked moves currentIndex to the next not-yet-completed item
func (s *Session) advanceLocked() {
	next := s.currentIndex
	for next < len(s.items) && s.completed[next] {
		next++
	}
	if next >= len(s.items) {
		next = len(s.items)
	}
	s.currentIndex = next
}

// orderCompleteLocked reports whether every item of an order is completed
func (s *Session) orderCompleteLocked(orderNumber string) bool {
	for _, item := range s.items {
		if item.OrderNumber == orderNumber && !s.completed[item.Index] {
			return false
		}
	}
	return true
}

// CurrentIndex returns the cursor position in the item sequence
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

// Paused reports whether the timer is paused
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// CompletedCount returns how many items are marked done
func (s *Session) CompletedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completed)
}

// AllDone reports whether every item is marked done
func (s *Session) AllDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completed) == len(s.items)
}

// ActiveSeconds returns elapsed unpaused time this sitting
func (s *Session) ActiveSeconds() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSeconds
}

// TotalPausedMs returns accumulated paused wall-clock time, including time
// restored from a resumed session
func (s *Session) TotalPausedMs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return s.totalPausedMs + time.Since(s.pausedAt).Milliseconds()
	}
	return s.totalPausedMs
}

// Complete finishes the session once every item is done. Pending retry
// tasks are flushed synchronously first; if any still fail the session
// stays open and the operator re-invokes complete.
func (s *Session) Complete(ctx context.Context) (Metrics, error) {
	s.mu.Lock()
	if len(s.completed) != len(s.items) {
		s.mu.Unlock()
		return Metrics{}, ErrItemsRemaining
	}
	s.mu.Unlock()

	// stop the retry worker before flushing so no task is persisted twice
	wasRunning := s.stopWorkers()
	if err := s.flush(ctx); err != nil {
		if wasRunning {
			_ = s.Start()
		}
		return Metrics{}, err
	}

	s.mu.Lock()
	metrics := Metrics{
		ActiveSeconds: s.activeSeconds,
		PausedSeconds: s.totalPausedMs / 1000,
		ItemCount:     len(s.items),
	}
	s.mu.Unlock()

	if err := s.store.Complete(ctx, s.chunkID, metrics); err != nil {
		return Metrics{}, fmt.Errorf("failed to complete engraving: %w", err)
	}
	return metrics, nil
}

// Cancel releases the cart. Only permitted before any item is engraved.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	if len(s.completed) > 0 {
		s.mu.Unlock()
		return ErrProgressExists
	}
	s.mu.Unlock()

	s.stopWorkers()
	if err := s.store.Cancel(ctx, s.chunkID); err != nil {
		return fmt.Errorf("failed to cancel engraving: %w", err)
	}
	return nil
}

// Stop tears the session down without completing or cancelling, leaving
// persisted progress for a later resume
func (s *Session) Stop() {
	s.stopWorkers()
}

func (s *Session) stopWorkers() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()
	s.done.Wait()
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

