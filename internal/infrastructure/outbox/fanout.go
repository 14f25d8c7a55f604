package outbox

import (
	"context"
	"errors"

	"github.com/perlasbingo/settlement/internal/domain"
)

// Fanout publishes every event to all its publishers and joins their errors.
// Realtime delivery is best effort, so only a failing webhook makes the
// outbox retry.
type Fanout []domain.EventPublisher

// Publish implements domain.EventPublisher
func (f Fanout) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
