package usecase

import (
	"context"
	"fmt"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/domain/port"
)

// GetImage is the use case for retrieving a single image.
type GetImage struct {
	repo port.ImageRepository
}

// NewGetImage creates a new GetImage use case.
func NewGetImage(repo port.ImageRepository) *GetImage {
	return &GetImage{repo: repo}
}

// Execute retrieves an image by ID. A missing image yields port.ErrImageNotFound.
func (uc *GetImage) Execute(ctx context.Context, req dto.GetImageRequest) (dto.ImageResponse, error) {
	img, err := uc.repo.FindByID(ctx, req.ImageID)
	if err != nil {
		return dto.ImageResponse{}, fmt.Errorf("failed to find image: %w", err)
	}

	return dto.FromModel(img), nil
}
