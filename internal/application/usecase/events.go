package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/imagerisk/imagerisk/internal/domain/port"
	"github.com/imagerisk/imagerisk/pkg/events"
)

var tracer = otel.Tracer("github.com/imagerisk/imagerisk/internal/application/usecase")

// publishEvents hands evts to the publisher. Failures are logged and swallowed:
// the state change they describe has already been persisted.
func publishEvents(ctx context.Context, publisher port.EventPublisher, logger *slog.Logger, evts []events.DomainEvent) {
	if len(evts) == 0 {
		return
	}
	if err := publisher.Publish(ctx, evts...); err != nil {
		logger.WarnContext(ctx, "failed to publish domain events",
			"count", len(evts),
			"first_type", evts[0].EventType(),
			"error", err,
		)
	}
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
