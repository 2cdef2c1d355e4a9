package notifications

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portsnotif "github.com/SscSPs/payment_ledger_app/internal/core/ports/notifications"
)

// LogNotifier writes events to the structured log. It is the sink used when
// no Redis queue is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that only logs. A nil logger uses the
// process default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

var _ portsnotif.Notifier = (*LogNotifier)(nil)

// Emit implements portsnotif.Notifier
func (n *LogNotifier) Emit(ctx context.Context, event domain.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("Failed to marshal event", slog.String("event", event.EventName()), slog.String("error", err.Error()))
		return
	}
	n.logger.InfoContext(ctx, "Domain event", slog.String("event", event.EventName()), slog.String("payload", string(payload)))
}
