package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/domain/port"
)

// UpdateDetections replaces the detections stored on an image.
type UpdateDetections struct {
	repo      port.ImageRepository
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewUpdateDetections creates a new UpdateDetections use case.
func NewUpdateDetections(repo port.ImageRepository, publisher port.EventPublisher, logger *slog.Logger) *UpdateDetections {
	return &UpdateDetections{repo: repo, publisher: publisher, logger: loggerOrDefault(logger)}
}

// Execute normalises and stores the detections and recomputes the average confidence.
func (uc *UpdateDetections) Execute(ctx context.Context, req dto.UpdateDetectionsRequest) (dto.ImageResponse, error) {
	img, err := uc.repo.FindByID(ctx, req.ImageID)
	if err != nil {
		return dto.ImageResponse{}, fmt.Errorf("failed to find image: %w", err)
	}

	img.ReplaceDetections(req.Detections, time.Now())

	if err := uc.repo.Save(ctx, img); err != nil {
		return dto.ImageResponse{}, fmt.Errorf("failed to save image: %w", err)
	}

	publishEvents(ctx, uc.publisher, uc.logger, img.DomainEvents())

	return dto.FromModel(img), nil
}
