package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arunvm123/concertbooking/notification-service/email"
	"github.com/arunvm123/concertbooking/notification-service/model"
	"github.com/arunvm123/concertbooking/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafka.Reader the processor needs
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type NotificationProcessor struct {
	consumer MessageReader
	sender   email.Sender
	logger   *zap.Logger

	// Worker pool for managing goroutines
	workerPool chan chan kafka.Message
	workers    []*notificationWorker
	wg         sync.WaitGroup

	processedCount int64
	skippedCount   int64
}

type notificationWorker struct {
	id         int
	processor  *NotificationProcessor
	jobChannel chan kafka.Message
	workerPool chan chan kafka.Message
}

func NewNotificationProcessor(consumer MessageReader, sender email.Sender, maxWorkers int, logger *zap.Logger) *NotificationProcessor {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	p := &NotificationProcessor{
		consumer:   consumer,
		sender:     sender,
		logger:     logger,
		workerPool: make(chan chan kafka.Message, maxWorkers),
		workers:    make([]*notificationWorker, maxWorkers),
	}

	for i := 0; i < maxWorkers; i++ {
		p.workers[i] = &notificationWorker{
			id:         i,
			processor:  p,
			jobChannel: make(chan kafka.Message),
			workerPool: p.workerPool,
		}
	}

	return p
}

// Start consumes notifications until ctx is cancelled. Messages are committed
// after handling, so a crash redelivers rather than drops them.
func (p *NotificationProcessor) Start(ctx context.Context) error {
	logger.Info(ctx, p.logger, "Starting notification processor", zap.Int("workers", len(p.workers)))

	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer func() {
		stopWorkers()
		p.wg.Wait()
	}()

	for _, w := range p.workers {
		p.wg.Add(1)
		go w.start(workerCtx)
	}

	for {
		msg, err := p.consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, p.logger, "Notification processor shutting down")
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Warn(ctx, p.logger, "Error reading message", zap.Error(err))
			continue
		}

		// Dispatch to worker pool (blocks if all workers busy)
		select {
		case jobChannel := <-p.workerPool:
			jobChannel <- msg
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *notificationWorker) start(ctx context.Context) {
	defer w.processor.wg.Done()

	for {
		// Register this worker in the pool
		select {
		case w.workerPool <- w.jobChannel:
		case <-ctx.Done():
			return
		}

		select {
		case job := <-w.jobChannel:
			w.processor.handle(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

func (p *NotificationProcessor) handle(ctx context.Context, msg kafka.Message) {
	if err := p.processNotification(ctx, msg); err != nil {
		atomic.AddInt64(&p.skippedCount, 1)
		logger.Warn(ctx, p.logger, "Notification skipped",
			zap.String("key", string(msg.Key)),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
	} else {
		atomic.AddInt64(&p.processedCount, 1)
	}

	if err := p.consumer.CommitMessages(ctx, msg); err != nil {
		logger.Error(ctx, p.logger, "Failed to commit message",
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
	}
}

// processNotification delivers one message. Undecodable or invalid messages
// are reported and skipped; they would fail the same way on redelivery.
func (p *NotificationProcessor) processNotification(ctx context.Context, msg kafka.Message) error {
	var req model.NotificationRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return fmt.Errorf("failed to unmarshal notification request: %w", err)
	}

	if err := req.Validate(); err != nil {
		return fmt.Errorf("booking %s type %q: %w", req.BookingID, req.Type, err)
	}

	if err := p.sender.Send(ctx, req.ToEmail()); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info(ctx, p.logger, "Notification delivered",
		zap.String("type", req.Type),
		zap.String("booking_id", req.BookingID),
	)

	return nil
}

// Processed returns how many notifications were delivered
func (p *NotificationProcessor) Processed() int64 {
	return atomic.LoadInt64(&p.processedCount)
}

// Skipped returns how many messages were dropped as undeliverable
func (p *NotificationProcessor) Skipped() int64 {
	return atomic.LoadInt64(&p.skippedCount)
}
