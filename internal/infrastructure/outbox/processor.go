package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var errCancelled = errors.New("processor cancelled")

// Config tunes the polling loop
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	return c
}

// permanent is implemented by publisher errors that retrying cannot fix
type permanent interface {
	Permanent() bool
}

// Processor implements domain.OutboxProcessor
type Processor struct {
	store     domain.Store
	publisher domain.EventPublisher
	cfg       Config
	logger    *logger.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewProcessor creates a new outbox processor
func NewProcessor(store domain.Store, publisher domain.EventPublisher, cfg Config, logger *logger.Logger) *Processor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		store:     store,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		logger:    logger.Named("Outbox"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// ProcessEvents publishes one batch of pending events in commit order. A
// failed event keeps its place until it exhausts its retries, so later
// events of the batch are still attempted. No store unit is open while the
// publisher runs; each outcome is recorded in its own short unit.
func (p *Processor) ProcessEvents() error {
	if err := p.checkCancellation(); err != nil {
		return err
	}

	var events []*domain.OutboxEvent
	err := p.store.Atomic(p.ctx, func(tx domain.Tx) error {
		var err error
		events, err = tx.Outbox().GetPendingEvents(p.cfg.BatchSize)
		return err
	})
	if err != nil {
		p.logger.Error("Failed to get pending events", zap.Error(err))
		return domain.NewDatabaseError("get pending events", err)
	}

	for _, event := range events {
		if err := p.checkCancellation(); err != nil {
			return err
		}

		cause := p.ProcessEvent(event)
		if cause != nil {
			p.logger.Error("Failed to process event",
				zap.String("eventID", event.ID),
				zap.String("eventType", event.Type),
				zap.Int("retryCount", event.RetryCount),
				zap.Error(cause))
		}

		err := p.store.Atomic(p.ctx, func(tx domain.Tx) error {
			if cause != nil {
				return p.recordFailure(tx.Outbox(), event, cause)
			}
			if err := tx.Outbox().MarkAsProcessed(event.ID); err != nil {
				return domain.NewDatabaseError("mark event processed", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ProcessEvent hands a single event to the publisher
func (p *Processor) ProcessEvent(event *domain.OutboxEvent) error {
	p.logger.Debug("Publishing outbox event",
		zap.String("eventID", event.ID),
		zap.String("eventType", event.Type))

	if err := p.publisher.Publish(p.ctx, event); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *Processor) recordFailure(repo domain.OutboxRepository, event *domain.OutboxEvent, cause error) error {
	var perm permanent
	giveUp := event.RetryCount+1 >= p.cfg.MaxRetries || (errors.As(cause, &perm) && perm.Permanent())

	if giveUp {
		if err := repo.MarkAsFailed(event.ID, cause.Error()); err != nil {
			return domain.NewDatabaseError("mark event failed", err)
		}
		p.logger.Warn("Outbox event given up", zap.String("eventID", event.ID), zap.String("eventType", event.Type))
		return nil
	}
	if err := repo.IncrementRetryCount(event.ID); err != nil {
		return domain.NewDatabaseError("increment retry count", err)
	}
	return nil
}

// checkCancellation checks if the processor has been cancelled
func (p *Processor) checkCancellation() error {
	select {
	case <-p.ctx.Done():
		return errCancelled
	default:
		return nil
	}
}

// StartBackgroundProcessing starts the background processing loop
func (p *Processor) StartBackgroundProcessing() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		p.logger.Warn("Outbox processor is already running")
		return
	}

	p.isRunning = true
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()

		p.logger.Info("Outbox background processing started", zap.Duration("interval", p.cfg.Interval))

		for {
			select {
			case <-p.ctx.Done():
				return
			case <-ticker.C:
				if err := p.ProcessEvents(); err != nil && !errors.Is(err, errCancelled) {
					p.logger.Error("Background processing failed", zap.Error(err))
				}
			}
		}
	}()
}

// StopBackgroundProcessing stops the background processing loop
func (p *Processor) StopBackgroundProcessing() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		p.logger.Warn("Outbox processor is not running")
		return
	}

	p.logger.Info("Stopping outbox background processing...")
	p.cancel()
	p.wg.Wait()
	p.isRunning = false
	p.logger.Info("Outbox background processing stopped")
}
