package port

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/imagerisk/imagerisk/internal/domain/model"
)

// ErrImageNotFound is returned by ImageRepository when no image has the given ID.
var ErrImageNotFound = errors.New("image not found")

// ImageRepository defines the persistence port for images.
type ImageRepository interface {
	// Save inserts a new image or updates an existing one.
	Save(ctx context.Context, image *model.Image) error

	// FindByID retrieves an image by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Image, error)

	// ListRecent returns up to limit images, newest first.
	ListRecent(ctx context.Context, limit int) ([]*model.Image, error)

	// Stats returns the image count and the mean of per-image average confidence.
	Stats(ctx context.Context) (ImageStats, error)

	// CountObjects counts stored detections per object label.
	CountObjects(ctx context.Context) (map[string]int, error)
}

// ImageStats aggregates over all stored images.
type ImageStats struct {
	TotalImages   int
	AvgConfidence float64
}

// SettingsRepository persists the single settings document.
type SettingsRepository interface {
	// Get returns the stored settings, or model.DefaultSettings when none are stored.
	Get(ctx context.Context) (model.Settings, error)

	// Update merges patch into the stored settings atomically and returns the result.
	Update(ctx context.Context, patch model.SettingsPatch) (model.Settings, error)
}
