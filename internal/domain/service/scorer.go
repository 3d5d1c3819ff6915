package service

import "github.com/imagerisk/imagerisk/internal/domain/model"

// Scorer turns a set of detections into a risk result.
type Scorer interface {
	Evaluate(detections []model.Detection) model.RiskResult
}
