package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imagerisk/imagerisk/internal/domain/event"
	"github.com/imagerisk/imagerisk/pkg/events"
)

// IsImageMimeType reports whether a MIME type describes an image. Only image
// uploads become Image records.
func IsImageMimeType(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/")
}

// Image is the aggregate root for an uploaded image, its detections and the
// most recent risk evaluation.
type Image struct {
	createdAt     time.Time
	updatedAt     time.Time
	risk          *RiskResult
	metadata      map[string]string
	detections    []Detection
	domainEvents  []events.DomainEvent
	filename      string
	originalName  string
	mimeType      string
	url           string
	avgConfidence float64
	size          int64
	id            uuid.UUID
}

// NewImage creates an Image for a stored upload and records ImageUploaded.
func NewImage(
	filename, originalName, mimeType string,
	size int64,
	url string,
	detections []Detection,
	metadata map[string]string,
	now time.Time,
) (*Image, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	if !IsImageMimeType(mimeType) {
		return nil, fmt.Errorf("mime type %q is not an image", mimeType)
	}
	if size < 0 {
		return nil, fmt.Errorf("size must not be negative")
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	now = now.UTC()
	normalized := NormalizeDetections(detections, now)

	img := &Image{
		id:            uuid.New(),
		filename:      filename,
		originalName:  originalName,
		mimeType:      mimeType,
		size:          size,
		url:           url,
		detections:    normalized,
		avgConfidence: AverageConfidence(normalized),
		metadata:      metadata,
		createdAt:     now,
		updatedAt:     now,
	}

	img.domainEvents = append(img.domainEvents, event.NewImageUploaded(
		img.id, img.filename, img.mimeType, img.size, len(img.detections), now,
	))

	return img, nil
}

// ReplaceDetections swaps in a new detection set, normalising each entry and
// recomputing the average confidence. The previous risk result is kept.
func (i *Image) ReplaceDetections(detections []Detection, now time.Time) {
	now = now.UTC()
	i.detections = NormalizeDetections(detections, now)
	i.avgConfidence = AverageConfidence(i.detections)
	i.updatedAt = now

	i.domainEvents = append(i.domainEvents, event.NewDetectionsUpdated(
		i.id, len(i.detections), i.avgConfidence, now,
	))
}

// ApplyRisk attaches a freshly computed result, stamped with evaluatedAt = now.
// HighRiskDetected is recorded in addition to RiskEvaluated for Critical results.
func (i *Image) ApplyRisk(result RiskResult, now time.Time) error {
	if result.Score < 0 || result.Score > 100 {
		return fmt.Errorf("risk score must be between 0 and 100, got %d", result.Score)
	}
	if result.Category.IsZero() {
		return fmt.Errorf("risk category is required")
	}

	now = now.UTC()
	stamped := result.WithEvaluatedAt(now)
	i.risk = &stamped
	i.updatedAt = now

	i.domainEvents = append(i.domainEvents, event.NewRiskEvaluated(
		i.id, stamped.Score, stamped.Category.String(), now,
	))
	if stamped.Category.IsCritical() {
		i.domainEvents = append(i.domainEvents, event.NewHighRiskDetected(i.id, stamped.Score, now))
	}

	return nil
}

// Reconstruct rebuilds an Image from persisted data (no validation, no events).
func Reconstruct(
	id uuid.UUID,
	filename, originalName, mimeType string,
	size int64,
	url string,
	detections []Detection,
	avgConfidence float64,
	risk *RiskResult,
	metadata map[string]string,
	createdAt, updatedAt time.Time,
) *Image {
	if detections == nil {
		detections = []Detection{}
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &Image{
		id:            id,
		filename:      filename,
		originalName:  originalName,
		mimeType:      mimeType,
		size:          size,
		url:           url,
		detections:    detections,
		avgConfidence: avgConfidence,
		risk:          risk,
		metadata:      metadata,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		domainEvents:  make([]events.DomainEvent, 0),
	}
}

// --- Accessors ---

func (i *Image) ID() uuid.UUID               { return i.id }
func (i *Image) Filename() string            { return i.filename }
func (i *Image) OriginalName() string        { return i.originalName }
func (i *Image) MimeType() string            { return i.mimeType }
func (i *Image) Size() int64                 { return i.size }
func (i *Image) URL() string                 { return i.url }
func (i *Image) Detections() []Detection     { return i.detections }
func (i *Image) AvgConfidence() float64      { return i.avgConfidence }
func (i *Image) Risk() *RiskResult           { return i.risk }
func (i *Image) Metadata() map[string]string { return i.metadata }
func (i *Image) CreatedAt() time.Time        { return i.createdAt }
func (i *Image) UpdatedAt() time.Time        { return i.updatedAt }

// DomainEvents returns all accumulated domain events and clears them.
func (i *Image) DomainEvents() []events.DomainEvent {
	evts := i.domainEvents
	i.domainEvents = make([]events.DomainEvent, 0)
	return evts
}
