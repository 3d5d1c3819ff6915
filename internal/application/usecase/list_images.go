package usecase

import (
	"context"
	"fmt"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/domain/port"
)

// MaxListLimit caps how many images a single listing returns.
const MaxListLimit = 100

// ListImages is the use case for listing stored images, newest first.
type ListImages struct {
	repo port.ImageRepository
}

// NewListImages creates a new ListImages use case.
func NewListImages(repo port.ImageRepository) *ListImages {
	return &ListImages{repo: repo}
}

// Execute returns up to req.Limit images; a non-positive or oversized limit means MaxListLimit.
func (uc *ListImages) Execute(ctx context.Context, req dto.ListImagesRequest) ([]dto.ImageResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	images, err := uc.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	return dto.FromModels(images), nil
}
