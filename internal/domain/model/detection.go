package model

import (
	"time"

	"github.com/imagerisk/imagerisk/internal/domain/valueobject"
)

// DefaultDetector is stamped on detections that do not name their producer.
const DefaultDetector = "yolo"

// BoundingBox locates a detected object in image pixel coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is a single object-detection result.
type Detection struct {
	Object     string                 `json:"object"`
	Confidence valueobject.Confidence `json:"confidence"`
	BBox       BoundingBox            `json:"bbox"`
	DetectedAt time.Time              `json:"detectedAt,omitzero"`
	Detector   string                 `json:"detector,omitempty"`
}

// NormalizeDetections returns a copy of ds in which every detection has a
// detectedAt (defaulting to now) and a detector (defaulting to DefaultDetector).
func NormalizeDetections(ds []Detection, now time.Time) []Detection {
	out := make([]Detection, len(ds))
	for i, d := range ds {
		if d.DetectedAt.IsZero() {
			d.DetectedAt = now.UTC()
		}
		if d.Detector == "" {
			d.Detector = DefaultDetector
		}
		out[i] = d
	}
	return out
}

// AverageConfidence is the mean scoring confidence of ds, or 0 when ds is empty.
func AverageConfidence(ds []Detection) float64 {
	if len(ds) == 0 {
		return 0
	}
	var sum float64
	for _, d := range ds {
		sum += d.Confidence.Float64()
	}
	return sum / float64(len(ds))
}
