package app

import (
	"context"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/external/webhook"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/perlasbingo/settlement/internal/infrastructure/outbox"
	"github.com/perlasbingo/settlement/internal/infrastructure/realtime"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func (a *application) InitHub(lc fx.Lifecycle, log *logger.Logger) *realtime.Hub {
	hub := realtime.NewHub(log.Named("hub"))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			hub.Close()
			return nil
		},
	})
	return hub
}

// InitEventPublisher fans committed events out to websocket clients and,
// when configured, to the webhook endpoint
func (a *application) InitEventPublisher(hub *realtime.Hub, log *logger.Logger) domain.EventPublisher {
	publishers := outbox.Fanout{hub}
	rt := a.config.Realtime
	if rt.WebhookURL != "" {
		publishers = append(publishers, webhook.NewPublisher(webhook.Config{
			URL:      rt.WebhookURL,
			APIKey:   rt.WebhookAPIKey,
			Timeout:  rt.WebhookTimeout,
			RetryMax: rt.WebhookRetries,
		}, log.Named("webhook")))
		log.Info("Webhook delivery enabled", zap.String("url", rt.WebhookURL))
	}
	return publishers
}

func (a *application) InitOutboxProcessor(
	store domain.Store,
	publisher domain.EventPublisher,
	log *logger.Logger,
) domain.OutboxProcessor {
	return outbox.NewProcessor(store, publisher, outbox.Config{
		Interval:   a.config.Outbox.Interval,
		BatchSize:  a.config.Outbox.BatchSize,
		MaxRetries: a.config.Outbox.MaxRetries,
	}, log.Named("outbox"))
}

// RunOutboxProcessor ties the delivery loop to the application lifecycle
func (a *application) RunOutboxProcessor(lc fx.Lifecycle, p domain.OutboxProcessor) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.StartBackgroundProcessing()
			return nil
		},
		OnStop: func(context.Context) error {
			p.StopBackgroundProcessing()
			return nil
		},
	})
}
