package usecase

import (
	"context"
	"fmt"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/domain/port"
)

// RecentImagesOnDashboard is how many of the newest images the dashboard shows.
const RecentImagesOnDashboard = 10

// GetDashboard aggregates image statistics for the dashboard.
type GetDashboard struct {
	repo    port.ImageRepository
	metrics port.UploadMetrics
}

// NewGetDashboard creates a new GetDashboard use case.
func NewGetDashboard(repo port.ImageRepository, metrics port.UploadMetrics) *GetDashboard {
	return &GetDashboard{repo: repo, metrics: metrics}
}

// Execute returns totals, the newest images and the last upload response time.
func (uc *GetDashboard) Execute(ctx context.Context) (dto.DashboardResponse, error) {
	stats, err := uc.repo.Stats(ctx)
	if err != nil {
		return dto.DashboardResponse{}, fmt.Errorf("failed to load image stats: %w", err)
	}

	recent, err := uc.repo.ListRecent(ctx, RecentImagesOnDashboard)
	if err != nil {
		return dto.DashboardResponse{}, fmt.Errorf("failed to list recent images: %w", err)
	}

	resp := dto.DashboardResponse{
		TotalImages:   stats.TotalImages,
		Recent:        dto.FromModels(recent),
		AvgConfidence: stats.AvgConfidence,
	}
	if ms, _, ok := uc.metrics.LastResponseTime(); ok {
		resp.ResponseTime = &ms
	}

	return resp, nil
}
