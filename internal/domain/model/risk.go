package model

import (
	"time"

	"github.com/imagerisk/imagerisk/internal/domain/valueobject"
)

// Action is a recommended follow-up attached to a risk result.
type Action struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// RiskResult is the outcome of scoring a set of detections. EvaluatedAt is zero
// until the result is attached to an image.
type RiskResult struct {
	Score       int                      `json:"score"`
	Category    valueobject.RiskCategory `json:"category"`
	Explanation string                   `json:"explanation"`
	Actions     []Action                 `json:"actions"`
	EvaluatedAt time.Time                `json:"evaluatedAt,omitzero"`
}

// WithEvaluatedAt returns a copy of r stamped with the evaluation time.
func (r RiskResult) WithEvaluatedAt(at time.Time) RiskResult {
	r.Actions = append([]Action(nil), r.Actions...)
	if r.Actions == nil {
		r.Actions = []Action{}
	}
	r.EvaluatedAt = at.UTC()
	return r
}
