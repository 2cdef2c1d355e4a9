package notifications

import (
	"context"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
)

// Notifier delivers domain events to an external hook sink. Implementations
// must not block the caller and must swallow delivery failures; an emitted
// event that cannot be delivered is logged and dropped, never propagated.
type Notifier interface {
	Emit(ctx context.Context, event domain.Event)
}
