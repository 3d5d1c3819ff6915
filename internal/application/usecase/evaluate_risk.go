package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/domain/port"
	"github.com/imagerisk/imagerisk/internal/domain/service"
)

// EvaluateRisk scores the stored detections of an image and persists the result.
type EvaluateRisk struct {
	repo      port.ImageRepository
	publisher port.EventPublisher
	scorer    service.Scorer
	metrics   port.RiskMetrics
	logger    *slog.Logger
}

// NewEvaluateRisk creates a new EvaluateRisk use case.
func NewEvaluateRisk(
	repo port.ImageRepository,
	publisher port.EventPublisher,
	scorer service.Scorer,
	metrics port.RiskMetrics,
	logger *slog.Logger,
) *EvaluateRisk {
	return &EvaluateRisk{
		repo:      repo,
		publisher: publisher,
		scorer:    scorer,
		metrics:   metrics,
		logger:    loggerOrDefault(logger),
	}
}

// Execute runs the scorer, stamps evaluatedAt, saves the image and publishes
// risk.evaluated (and risk.high_risk_detected for Critical results).
func (uc *EvaluateRisk) Execute(ctx context.Context, req dto.EvaluateRiskRequest) (dto.EvaluateRiskResponse, error) {
	ctx, span := tracer.Start(ctx, "EvaluateRisk", trace.WithAttributes(
		attribute.String("image.id", req.ImageID.String()),
	))
	defer span.End()

	img, err := uc.repo.FindByID(ctx, req.ImageID)
	if err != nil {
		return dto.EvaluateRiskResponse{}, fmt.Errorf("failed to find image: %w", err)
	}

	result := uc.scorer.Evaluate(img.Detections())

	if err := img.ApplyRisk(result, time.Now()); err != nil {
		return dto.EvaluateRiskResponse{}, fmt.Errorf("failed to apply risk: %w", err)
	}

	if err := uc.repo.Save(ctx, img); err != nil {
		span.RecordError(err)
		return dto.EvaluateRiskResponse{}, fmt.Errorf("failed to save image: %w", err)
	}

	stored := *img.Risk()
	uc.metrics.RecordRiskEvaluation(ctx, stored.Category.String())
	publishEvents(ctx, uc.publisher, uc.logger, img.DomainEvents())

	span.SetAttributes(
		attribute.Int("risk.score", stored.Score),
		attribute.String("risk.category", stored.Category.String()),
	)
	uc.logger.InfoContext(ctx, "risk evaluated",
		"image_id", img.ID(),
		"score", stored.Score,
		"category", stored.Category.String(),
		"detections", len(img.Detections()),
	)

	return dto.EvaluateRiskResponse{Result: stored}, nil
}
