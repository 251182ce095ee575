package cron

import (
	"context"
	"errors"
	"time"

	"voctnow/services/assignment"
	"voctnow/services/tasks"
	"voctnow/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ExpiryHandler is what the worker calls when an acceptance deadline fires.
type ExpiryHandler func(ctx context.Context, bookingID string, attempt int) (*assignment.Result, error)

// InitExpiryWorker runs the acceptance-deadline worker in the background and
// returns the server so the caller can shut it down.
func InitExpiryWorker(expire ExpiryHandler, logger *zap.Logger) *asynq.Server {
	redisOpts := utils.QueueRedisOpt()

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAcceptanceExpiry, HandleAcceptanceExpiry(expire, logger))

	go monitorRedisConnection(redisOpts, logger)

	// Start async worker with retry logic
	go func() {
		logger.Info("[ExpiryWorker] starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil || errors.Is(err, asynq.ErrServerClosed) {
				return
			}
			logger.Warn("[ExpiryWorker] failed to start worker",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err),
			)
			if attempts == maxAttempts {
				logger.Fatal("[ExpiryWorker] max retry attempts reached, exiting")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()

	return srv
}

// HandleAcceptanceExpiry decodes the task and hands it to expire. Unknown
// bookings are dropped; other failures are returned so asynq retries.
func HandleAcceptanceExpiry(expire ExpiryHandler, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseAcceptanceExpiry(task)
		if err != nil {
			logger.Warn("[ExpiryHandler] invalid payload", zap.Error(err))
			return errors.Join(err, asynq.SkipRetry)
		}

		res, err := expire(ctx, p.BookingID, p.Attempt)
		if err != nil {
			if errors.Is(err, assignment.ErrNotFound) {
				logger.Debug("[ExpiryHandler] booking gone", zap.String("bookingId", p.BookingID))
				return nil
			}
			logger.Error("[ExpiryHandler] expiry failed",
				zap.String("bookingId", p.BookingID),
				zap.Int("attempt", p.Attempt),
				zap.Error(err),
			)
			return err
		}

		logger.Info("[ExpiryHandler] acceptance deadline handled",
			zap.String("bookingId", p.BookingID),
			zap.Int("attempt", p.Attempt),
			zap.String("outcome", string(res.Outcome)),
		)
		return nil
	}
}

// monitorRedisConnection pings the queue database periodically to surface
// failures at runtime.
func monitorRedisConnection(opts asynq.RedisClientOpt, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx := context.Background()
	for {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("[ExpiryWorker] redis connection lost", zap.Error(err))
		}
		time.Sleep(10 * time.Second)
	}
}
