package port

import (
	"context"
	"io"
	"time"

	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/pkg/events"
)

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}

// FileStore stores uploaded files and resolves their public URLs.
type FileStore interface {
	// Save writes r under filename and returns the number of bytes written.
	Save(ctx context.Context, filename string, r io.Reader) (int64, error)

	// Delete removes a stored file. Deleting a missing file is not an error.
	Delete(ctx context.Context, filename string) error
}

// DetectionImage is an image handed to the remote detector.
type DetectionImage struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// ObjectDetector runs remote object detection on an image.
type ObjectDetector interface {
	// Detect returns the raw detections reported by the model.
	Detect(ctx context.Context, img DetectionImage) ([]model.Detection, error)

	// Name identifies the model, stamped on detections as their detector.
	Name() string
}

// DetectorKeyStore exposes the runtime-settable detector API key.
type DetectorKeyStore interface {
	APIKey() string
	SetAPIKey(key string)
}

// UploadMetrics records upload timings and exposes the last one.
type UploadMetrics interface {
	RecordUpload(ctx context.Context, d time.Duration)
	LastResponseTime() (ms int64, at time.Time, ok bool)
}

// RiskMetrics counts completed risk evaluations.
type RiskMetrics interface {
	RecordRiskEvaluation(ctx context.Context, category string)
}
