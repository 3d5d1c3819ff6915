package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/imagerisk/imagerisk/internal/application/dto"
	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/internal/domain/port"
)

// UploadImage stores an uploaded file and, for images, creates the Image record.
type UploadImage struct {
	store     port.FileStore
	repo      port.ImageRepository
	publisher port.EventPublisher
	metrics   port.UploadMetrics
	logger    *slog.Logger
}

// NewUploadImage creates a new UploadImage use case.
func NewUploadImage(
	store port.FileStore,
	repo port.ImageRepository,
	publisher port.EventPublisher,
	metrics port.UploadMetrics,
	logger *slog.Logger,
) *UploadImage {
	return &UploadImage{
		store:     store,
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    loggerOrDefault(logger),
	}
}

// Execute saves the file under a generated name. Non-image uploads are stored
// but only their URL is returned.
func (uc *UploadImage) Execute(ctx context.Context, req dto.UploadImageRequest) (dto.UploadImageResponse, error) {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "UploadImage", trace.WithAttributes(
		attribute.String("upload.content_type", req.ContentType),
	))
	defer span.End()

	filename := generateFilename(start, req.OriginalName)
	size, err := uc.store.Save(ctx, filename, req.Data)
	if err != nil {
		span.RecordError(err)
		return dto.UploadImageResponse{}, fmt.Errorf("failed to store upload: %w", err)
	}
	url := strings.TrimRight(req.BaseURL, "/") + "/uploads/" + filename

	resp := dto.UploadImageResponse{URL: url}

	if model.IsImageMimeType(req.ContentType) {
		img, err := model.NewImage(filename, req.OriginalName, req.ContentType, size, url, req.Detections, req.Metadata, start)
		if err != nil {
			uc.discard(ctx, filename)
			return dto.UploadImageResponse{}, fmt.Errorf("failed to create image: %w", err)
		}

		if err := uc.repo.Save(ctx, img); err != nil {
			span.RecordError(err)
			uc.discard(ctx, filename)
			return dto.UploadImageResponse{}, fmt.Errorf("failed to save image: %w", err)
		}

		publishEvents(ctx, uc.publisher, uc.logger, img.DomainEvents())

		out := dto.FromModel(img)
		resp.Image = &out
		span.SetAttributes(attribute.String("image.id", img.ID().String()))
	}

	uc.metrics.RecordUpload(ctx, time.Since(start))

	uc.logger.InfoContext(ctx, "upload stored",
		"filename", filename,
		"content_type", req.ContentType,
		"size", size,
		"persisted", resp.Image != nil,
	)

	return resp, nil
}

func (uc *UploadImage) discard(ctx context.Context, filename string) {
	if err := uc.store.Delete(ctx, filename); err != nil {
		uc.logger.WarnContext(ctx, "failed to remove orphaned upload", "filename", filename, "error", err)
	}
}

// generateFilename builds "{unixMillis}-{random}{ext}" keeping the extension
// of the client's file name.
func generateFilename(at time.Time, originalName string) string {
	ext := filepath.Ext(filepath.Base(strings.ReplaceAll(originalName, "\\", "/")))
	if strings.ContainsAny(ext, "/\x00") {
		ext = ""
	}
	return fmt.Sprintf("%d-%d%s", at.UnixMilli(), rand.Int64N(1_000_000_001), ext)
}
