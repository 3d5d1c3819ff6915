package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/internal/domain/valueobject"
)

const (
	noDetectionsExplanation = "No objects were detected to analyze."

	// lowConfidenceThreshold marks detections that add lowConfidencePenalty points.
	lowConfidenceThreshold = 0.6
	lowConfidencePenalty   = 10
	maxScore               = 100
)

var (
	hundred       = decimal.NewFromInt(100)
	one           = decimal.NewFromInt(1)
	lowConfidence = decimal.NewFromFloat(lowConfidenceThreshold)
	scoreCap      = decimal.NewFromInt(maxScore)
	reviewAction  = model.Action{
		Title:       "Review Detections",
		Description: "Manually verify the detected objects, especially those with low confidence scores.",
	}
)

// RiskScorer is a domain service that scores how unreliable a set of detections
// is. It holds no state and is safe for concurrent use.
type RiskScorer struct{}

// NewRiskScorer creates a new RiskScorer instance.
func NewRiskScorer() *RiskScorer {
	return &RiskScorer{}
}

// Evaluate scores detections. The base score is the complement of the mean
// confidence as a percentage; every detection under 0.6 adds 10 points, the
// total is capped at 100 and rounded half away from zero. EvaluatedAt is left
// for the caller to set.
func (s *RiskScorer) Evaluate(detections []model.Detection) model.RiskResult {
	if len(detections) == 0 {
		return model.RiskResult{
			Score:       0,
			Category:    valueobject.RiskCategoryVeryLow,
			Explanation: noDetectionsExplanation,
			Actions:     []model.Action{},
		}
	}

	sum := decimal.Zero
	lowCount := int64(0)
	for _, d := range detections {
		c := decimal.NewFromFloat(d.Confidence.Float64())
		sum = sum.Add(c)
		if c.LessThan(lowConfidence) {
			lowCount++
		}
	}

	count := decimal.NewFromInt(int64(len(detections)))
	avg := sum.Div(count)

	raw := one.Sub(avg).Mul(hundred).Add(decimal.NewFromInt(lowCount * lowConfidencePenalty))
	if raw.GreaterThan(scoreCap) {
		raw = scoreCap
	}
	score := int(raw.Round(0).IntPart())

	avgPercent := avg.Mul(hundred).Round(0).IntPart()

	return model.RiskResult{
		Score:    score,
		Category: valueobject.RiskCategoryFromScore(score),
		Explanation: fmt.Sprintf(
			"Calculated risk score of %d based on %d detections with an average confidence of %d%%.",
			score, len(detections), avgPercent,
		),
		Actions: []model.Action{reviewAction},
	}
}
