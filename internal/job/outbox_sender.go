package job

import (
	"context"
	"time"

	"bizledger/internal/config"
	"bizledger/internal/infrastructure/logging"
	"bizledger/internal/model"
	"bizledger/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Publisher delivers one outbox message to the broker.
type Publisher interface {
	Publish(ctx context.Context, topic, key, value string) error
}

// Locker keeps batches to one process at a time. A nil Locker means this is
// the only sender.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// OutboxSender publishes ledger events written by committed mutations.
// Delivery is at least once: a message is marked sent only after Publish
// returns, and one that keeps failing is parked as FAILED.
type OutboxSender struct {
	outboxRepo *repository.OutboxRepository
	publisher  Publisher
	locker     Locker
	log        *logrus.Logger
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
	maxRetry   int
}

func NewOutboxSender(db *gorm.DB, publisher Publisher, locker Locker, cfg *config.BusinessConfig, log *logrus.Logger) *OutboxSender {
	s := &OutboxSender{
		outboxRepo: repository.NewOutboxRepository(db),
		publisher:  publisher,
		locker:     locker,
		log:        log,
		stopCh:     make(chan struct{}),
		interval:   cfg.OutboxPoll,
		batchSize:  cfg.OutboxBatch,
		maxRetry:   cfg.MaxRetryCount,
	}
	if s.interval <= 0 {
		s.interval = time.Second
	}
	if s.batchSize <= 0 {
		s.batchSize = 100
	}
	if s.maxRetry <= 0 {
		s.maxRetry = 5
	}
	return s
}

func (s *OutboxSender) Start(ctx context.Context) {
	s.log.Info("outbox sender started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("outbox sender stopped by context")
			return
		case <-s.stopCh:
			s.log.Info("outbox sender stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

// RunOnce publishes one batch of pending messages and reports how many were
// sent.
func (s *OutboxSender) RunOnce(ctx context.Context) int {
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx)
		if err != nil {
			logging.LogError(s.log, "job", "RunOnce", "take outbox lock", nil, err)
			return 0
		}
		if !ok {
			return 0
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx)); err != nil {
				logging.LogError(s.log, "job", "RunOnce", "release outbox lock", nil, err)
			}
		}()
	}

	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		logging.LogError(s.log, "job", "RunOnce", "load pending messages", nil, err)
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if s.sendMessage(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) bool {
	err := s.publisher.Publish(ctx, msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if updateErr := s.outboxRepo.MarkAsSent(ctx, msg.ID); updateErr != nil {
			logging.LogError(s.log, "job", "sendMessage", "mark message sent", msg.ID, updateErr)
			return false
		}
		s.log.WithFields(logrus.Fields{"id": msg.ID, "topic": msg.Topic, "key": msg.MessageKey}).Debug("outbox message sent")
		return true
	}

	logging.LogError(s.log, "job", "sendMessage", "publish message", msg.ID, err)

	if msg.RetryCount+1 >= s.maxRetry {
		if err := s.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			logging.LogError(s.log, "job", "sendMessage", "mark message failed", msg.ID, err)
		} else {
			s.log.WithFields(logrus.Fields{"id": msg.ID, "retries": msg.RetryCount + 1}).Warn("outbox message parked after max retries")
		}
		return false
	}
	if err := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		logging.LogError(s.log, "job", "sendMessage", "increment retry count", msg.ID, err)
	}
	return false
}
