package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/domain/port"
)

// UpdateSettings merges the supplied keys into the stored settings.
type UpdateSettings struct {
	settings port.SettingsRepository
	logger   *slog.Logger
}

// NewUpdateSettings creates a new UpdateSettings use case.
func NewUpdateSettings(settings port.SettingsRepository, logger *slog.Logger) *UpdateSettings {
	return &UpdateSettings{settings: settings, logger: loggerOrDefault(logger)}
}

// Execute applies the patch and returns the merged settings. Validation
// failures wrap model.ErrInvalidSettings.
func (uc *UpdateSettings) Execute(ctx context.Context, req dto.UpdateSettingsRequest) (dto.SettingsResponse, error) {
	merged, err := uc.settings.Update(ctx, req.Patch)
	if err != nil {
		return dto.SettingsResponse{}, fmt.Errorf("failed to update settings: %w", err)
	}

	uc.logger.InfoContext(ctx, "settings updated",
		"detection_threshold", merged.DetectionThreshold,
		"max_objects", merged.MaxObjects,
	)

	return dto.SettingsResponse{Settings: merged}, nil
}
