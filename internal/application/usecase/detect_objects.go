package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/internal/domain/port"
)

// DetectObjects sends an image to the remote detector and filters the result
// using the current settings.
type DetectObjects struct {
	detector  port.ObjectDetector
	settings  port.SettingsRepository
	repo      port.ImageRepository
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewDetectObjects creates a new DetectObjects use case.
func NewDetectObjects(
	detector port.ObjectDetector,
	settings port.SettingsRepository,
	repo port.ImageRepository,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *DetectObjects {
	return &DetectObjects{
		detector:  detector,
		settings:  settings,
		repo:      repo,
		publisher: publisher,
		logger:    loggerOrDefault(logger),
	}
}

// Execute runs detection. When req.ImageID is set the kept detections replace
// those stored on that image.
func (uc *DetectObjects) Execute(ctx context.Context, req dto.DetectObjectsRequest) (dto.DetectObjectsResponse, error) {
	ctx, span := tracer.Start(ctx, "DetectObjects")
	defer span.End()

	settings, err := uc.settings.Get(ctx)
	if err != nil {
		uc.logger.WarnContext(ctx, "failed to load settings, using defaults", "error", err)
		settings = model.DefaultSettings()
	}

	// Resolve the target image before calling the detector so a bad ID fails fast.
	var target *model.Image
	if req.ImageID != nil {
		target, err = uc.repo.FindByID(ctx, *req.ImageID)
		if err != nil {
			return dto.DetectObjectsResponse{}, fmt.Errorf("failed to find image: %w", err)
		}
	}

	raw, err := uc.detector.Detect(ctx, port.DetectionImage{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Data:        req.Data,
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, context.Canceled) {
			return dto.DetectObjectsResponse{}, err
		}
		return dto.DetectObjectsResponse{}, fmt.Errorf("%w: %w", ErrDetectorUnavailable, err)
	}

	now := time.Now().UTC()
	kept := FilterDetections(raw, settings)
	for i := range kept {
		if kept[i].Detector == "" {
			kept[i].Detector = uc.detector.Name()
		}
	}
	kept = model.NormalizeDetections(kept, now)

	span.SetAttributes(
		attribute.Int("detections.raw", len(raw)),
		attribute.Int("detections.kept", len(kept)),
	)

	if target != nil {
		target.ReplaceDetections(kept, now)
		if err := uc.repo.Save(ctx, target); err != nil {
			return dto.DetectObjectsResponse{}, fmt.Errorf("failed to save image: %w", err)
		}
		publishEvents(ctx, uc.publisher, uc.logger, target.DomainEvents())
	}

	return dto.DetectObjectsResponse{Detections: kept, Count: len(kept)}, nil
}

// FilterDetections keeps detections at or above the detection threshold whose
// object is in the allow list (when one is set), ordered by confidence
// descending and capped at MaxObjects (0 means no cap). The input is not modified.
func FilterDetections(ds []model.Detection, settings model.Settings) []model.Detection {
	var allowed map[string]struct{}
	if len(settings.Objects) > 0 {
		allowed = make(map[string]struct{}, len(settings.Objects))
		for _, o := range settings.Objects {
			allowed[o] = struct{}{}
		}
	}

	kept := make([]model.Detection, 0, len(ds))
	for _, d := range ds {
		if d.Confidence.Float64() < settings.DetectionThreshold {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[d.Object]; !ok {
				continue
			}
		}
		kept = append(kept, d)
	}

	slices.SortStableFunc(kept, func(a, b model.Detection) int {
		ca, cb := a.Confidence.Float64(), b.Confidence.Float64()
		switch {
		case ca > cb:
			return -1
		case ca < cb:
			return 1
		default:
			return 0
		}
	})

	if settings.MaxObjects > 0 && len(kept) > settings.MaxObjects {
		kept = kept[:settings.MaxObjects]
	}
	return kept
}
