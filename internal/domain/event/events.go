package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/imagerisk/imagerisk/pkg/events"
)

// AggregateTypeImage is the aggregate type carried by every image event.
const AggregateTypeImage = "Image"

const (
	EventTypeImageUploaded     = "image.uploaded"
	EventTypeDetectionsUpdated = "image.detections_updated"
	EventTypeRiskEvaluated     = "risk.evaluated"
	EventTypeHighRiskDetected  = "risk.high_risk_detected"
)

// ImageUploaded is emitted when an uploaded image has been stored.
type ImageUploaded struct {
	events.BaseEvent
	ImageID        uuid.UUID `json:"imageId"`
	Filename       string    `json:"filename"`
	MimeType       string    `json:"mimeType"`
	Size           int64     `json:"size"`
	DetectionCount int       `json:"detectionCount"`
}

// NewImageUploaded creates an ImageUploaded domain event.
func NewImageUploaded(imageID uuid.UUID, filename, mimeType string, size int64, detectionCount int, at time.Time) ImageUploaded {
	payload, _ := json.Marshal(struct {
		ImageID        uuid.UUID `json:"imageId"`
		Filename       string    `json:"filename"`
		MimeType       string    `json:"mimeType"`
		Size           int64     `json:"size"`
		DetectionCount int       `json:"detectionCount"`
	}{imageID, filename, mimeType, size, detectionCount})

	return ImageUploaded{
		BaseEvent:      events.NewBaseEventAt(EventTypeImageUploaded, imageID, AggregateTypeImage, payload, at),
		ImageID:        imageID,
		Filename:       filename,
		MimeType:       mimeType,
		Size:           size,
		DetectionCount: detectionCount,
	}
}

// DetectionsUpdated is emitted when an image's detections are replaced.
type DetectionsUpdated struct {
	events.BaseEvent
	ImageID        uuid.UUID `json:"imageId"`
	DetectionCount int       `json:"detectionCount"`
	AvgConfidence  float64   `json:"avgConfidence"`
}

// NewDetectionsUpdated creates a DetectionsUpdated domain event.
func NewDetectionsUpdated(imageID uuid.UUID, detectionCount int, avgConfidence float64, at time.Time) DetectionsUpdated {
	payload, _ := json.Marshal(struct {
		ImageID        uuid.UUID `json:"imageId"`
		DetectionCount int       `json:"detectionCount"`
		AvgConfidence  float64   `json:"avgConfidence"`
	}{imageID, detectionCount, avgConfidence})

	return DetectionsUpdated{
		BaseEvent:      events.NewBaseEventAt(EventTypeDetectionsUpdated, imageID, AggregateTypeImage, payload, at),
		ImageID:        imageID,
		DetectionCount: detectionCount,
		AvgConfidence:  avgConfidence,
	}
}

// RiskEvaluated is emitted every time a risk result is attached to an image.
type RiskEvaluated struct {
	events.BaseEvent
	ImageID     uuid.UUID `json:"imageId"`
	Score       int       `json:"score"`
	Category    string    `json:"category"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// NewRiskEvaluated creates a RiskEvaluated domain event.
func NewRiskEvaluated(imageID uuid.UUID, score int, category string, evaluatedAt time.Time) RiskEvaluated {
	payload, _ := json.Marshal(struct {
		ImageID     uuid.UUID `json:"imageId"`
		Score       int       `json:"score"`
		Category    string    `json:"category"`
		EvaluatedAt time.Time `json:"evaluatedAt"`
	}{imageID, score, category, evaluatedAt})

	return RiskEvaluated{
		BaseEvent:   events.NewBaseEventAt(EventTypeRiskEvaluated, imageID, AggregateTypeImage, payload, evaluatedAt),
		ImageID:     imageID,
		Score:       score,
		Category:    category,
		EvaluatedAt: evaluatedAt,
	}
}

// HighRiskDetected is emitted alongside RiskEvaluated when the category is Critical.
type HighRiskDetected struct {
	events.BaseEvent
	ImageID    uuid.UUID `json:"imageId"`
	Score      int       `json:"score"`
	DetectedAt time.Time `json:"detectedAt"`
}

// NewHighRiskDetected creates a HighRiskDetected domain event.
func NewHighRiskDetected(imageID uuid.UUID, score int, detectedAt time.Time) HighRiskDetected {
	payload, _ := json.Marshal(struct {
		ImageID    uuid.UUID `json:"imageId"`
		Score      int       `json:"score"`
		DetectedAt time.Time `json:"detectedAt"`
	}{imageID, score, detectedAt})

	return HighRiskDetected{
		BaseEvent:  events.NewBaseEventAt(EventTypeHighRiskDetected, imageID, AggregateTypeImage, payload, detectedAt),
		ImageID:    imageID,
		Score:      score,
		DetectedAt: detectedAt,
	}
}
