package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/domain/port"
)

// GetSettings returns the settings document with live object counts.
type GetSettings struct {
	settings port.SettingsRepository
	images   port.ImageRepository
	logger   *slog.Logger
}

// NewGetSettings creates a new GetSettings use case.
func NewGetSettings(settings port.SettingsRepository, images port.ImageRepository, logger *slog.Logger) *GetSettings {
	return &GetSettings{settings: settings, images: images, logger: loggerOrDefault(logger)}
}

// Execute loads settings. A failed object-count aggregation is logged and the
// settings are returned without counts.
func (uc *GetSettings) Execute(ctx context.Context) (dto.SettingsResponse, error) {
	settings, err := uc.settings.Get(ctx)
	if err != nil {
		return dto.SettingsResponse{}, fmt.Errorf("failed to load settings: %w", err)
	}

	resp := dto.SettingsResponse{Settings: settings}

	counts, err := uc.images.CountObjects(ctx)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to aggregate object counts", "error", err)
		return resp, nil
	}
	if counts == nil {
		counts = map[string]int{}
	}
	resp.ObjectCounts = counts

	return resp, nil
}
