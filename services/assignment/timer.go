package assignment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExpireFunc is invoked when an acceptance deadline passes.
type ExpireFunc func(ctx context.Context, bookingID string, attempt int) (*Result, error)

// LocalTimer keeps acceptance deadlines in process memory. Deadlines do not
// survive a restart; use the queue-backed scheduler when that matters.
type LocalTimer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	fire   ExpireFunc
	logger *zap.Logger
}

func NewLocalTimer(logger *zap.Logger) *LocalTimer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalTimer{timers: make(map[string]*time.Timer), logger: logger}
}

// Bind sets the callback run on expiry. It must be called before the first
// deadline is scheduled.
func (t *LocalTimer) Bind(fn ExpireFunc) {
	t.mu.Lock()
	t.fire = fn
	t.mu.Unlock()
}

func (t *LocalTimer) Schedule(_ context.Context, bookingID string, attempt int, at time.Time) error {
	key := timerKey(bookingID, attempt)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fire == nil {
		return fmt.Errorf("local timer has no expiry callback")
	}
	if old, ok := t.timers[key]; ok {
		old.Stop()
	}
	fire := t.fire
	t.timers[key] = time.AfterFunc(time.Until(at), func() {
		t.mu.Lock()
		delete(t.timers, key)
		t.mu.Unlock()

		if _, err := fire(context.Background(), bookingID, attempt); err != nil {
			t.logger.Error("acceptance deadline handler failed",
				zap.String("bookingId", bookingID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
	})
	return nil
}

func (t *LocalTimer) Cancel(_ context.Context, bookingID string, attempt int) error {
	key := timerKey(bookingID, attempt)
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
	return nil
}

// Pending reports how many deadlines are armed.
func (t *LocalTimer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

// Stop disarms every deadline.
func (t *LocalTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}

func timerKey(bookingID string, attempt int) string {
	return fmt.Sprintf("%s#%d", bookingID, attempt)
}
