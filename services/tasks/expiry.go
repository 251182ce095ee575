package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TypeAcceptanceExpiry = "booking:acceptance_expiry"

const expiryQueue = "default"

// AcceptanceExpiryPayload identifies the offer whose deadline passed.
type AcceptanceExpiryPayload struct {
	BookingID string `json:"booking_id"`
	Attempt   int    `json:"attempt"`
}

// ExpiryTaskID is unique per offer so re-scheduling the same offer is a no-op
// and cancellation can address the task directly.
func ExpiryTaskID(bookingID string, attempt int) string {
	return fmt.Sprintf("expiry:%s:%d", bookingID, attempt)
}

func NewAcceptanceExpiryTask(bookingID string, attempt int, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(AcceptanceExpiryPayload{BookingID: bookingID, Attempt: attempt})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeAcceptanceExpiry, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(ExpiryTaskID(bookingID, attempt)),
		asynq.Queue(expiryQueue),
		asynq.MaxRetry(5),
		asynq.Retention(time.Hour),
	}
	return task, opts, nil
}

// ParseAcceptanceExpiry decodes a task payload.
func ParseAcceptanceExpiry(task *asynq.Task) (AcceptanceExpiryPayload, error) {
	var p AcceptanceExpiryPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", TypeAcceptanceExpiry, err)
	}
	if p.BookingID == "" || p.Attempt <= 0 {
		return p, fmt.Errorf("invalid %s payload: booking_id and attempt are required", TypeAcceptanceExpiry)
	}
	return p, nil
}

// Enqueuer is the part of asynq.Client used for scheduling.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskDeleter is the part of asynq.Inspector used for cancellation.
type TaskDeleter interface {
	DeleteTask(queue, id string) error
}

// ExpiryScheduler arms acceptance deadlines as delayed asynq tasks so they
// survive restarts and fire on whichever worker picks them up.
type ExpiryScheduler struct {
	client    Enqueuer
	inspector TaskDeleter
}

func NewExpiryScheduler(client Enqueuer, inspector TaskDeleter) (*ExpiryScheduler, error) {
	if client == nil || inspector == nil {
		return nil, fmt.Errorf("expiry scheduler initialization error: asynq client or inspector is nil")
	}
	return &ExpiryScheduler{client: client, inspector: inspector}, nil
}

func (s *ExpiryScheduler) Schedule(ctx context.Context, bookingID string, attempt int, at time.Time) error {
	task, opts, err := NewAcceptanceExpiryTask(bookingID, attempt, at)
	if err != nil {
		return err
	}
	if _, err := s.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue acceptance expiry for %s: %w", bookingID, err)
	}
	return nil
}

func (s *ExpiryScheduler) Cancel(_ context.Context, bookingID string, attempt int) error {
	err := s.inspector.DeleteTask(expiryQueue, ExpiryTaskID(bookingID, attempt))
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return fmt.Errorf("delete acceptance expiry for %s: %w", bookingID, err)
}
