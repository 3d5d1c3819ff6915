package service_test

import (
	"encoding/json"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagerisk/imagerisk/internal/domain/model"
	"github.com/imagerisk/imagerisk/internal/domain/service"
	"github.com/imagerisk/imagerisk/internal/domain/valueobject"
)

func withConfidences(cs ...float64) []model.Detection {
	ds := make([]model.Detection, len(cs))
	for i, c := range cs {
		ds[i] = model.Detection{Object: "obj", Confidence: valueobject.NewConfidence(c)}
	}
	return ds
}

var reviewAction = model.Action{
	Title:       "Review Detections",
	Description: "Manually verify the detected objects, especially those with low confidence scores.",
}

func TestRiskScorer_ImplementsScorer(t *testing.T) {
	var _ service.Scorer = service.NewRiskScorer()
}

func TestRiskScorer_Empty(t *testing.T) {
	scorer := service.NewRiskScorer()

	for name, input := range map[string][]model.Detection{"nil": nil, "empty": {}} {
		t.Run(name, func(t *testing.T) {
			result := scorer.Evaluate(input)

			assert.Equal(t, 0, result.Score)
			assert.True(t, result.Category.Equal(valueobject.RiskCategoryVeryLow))
			assert.Equal(t, "No objects were detected to analyze.", result.Explanation)
			assert.NotNil(t, result.Actions)
			assert.Empty(t, result.Actions)
			assert.True(t, result.EvaluatedAt.IsZero())
		})
	}
}

func TestRiskScorer_AllFullConfidence(t *testing.T) {
	result := service.NewRiskScorer().Evaluate(withConfidences(1, 1, 1))

	assert.Equal(t, 0, result.Score)
	assert.True(t, result.Category.Equal(valueobject.RiskCategoryLow))
	assert.Equal(t, "Calculated risk score of 0 based on 3 detections with an average confidence of 100%.", result.Explanation)
	assert.Equal(t, []model.Action{reviewAction}, result.Actions)
}

func TestRiskScorer_AllZeroConfidence(t *testing.T) {
	result := service.NewRiskScorer().Evaluate(withConfidences(0, 0))

	// base 100 + penalty 20, capped
	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Category.Equal(valueobject.RiskCategoryCritical))
	assert.Equal(t, "Calculated risk score of 100 based on 2 detections with an average confidence of 0%.", result.Explanation)
}

func TestRiskScorer_MixedRoundsHalfAwayFromZero(t *testing.T) {
	result := service.NewRiskScorer().Evaluate(withConfidences(0.9, 0.9, 0.9, 0.4))

	// avg 0.775, base 22.5, one low-confidence penalty: 32.5
	assert.Equal(t, 33, result.Score)
	assert.True(t, result.Category.Equal(valueobject.RiskCategoryMedium))
	assert.Equal(t, "Calculated risk score of 33 based on 4 detections with an average confidence of 78%.", result.Explanation)
}

func TestRiskScorer_Table(t *testing.T) {
	tests := []struct {
		name        string
		confidences []float64
		score       int
		category    valueobject.RiskCategory
	}{
		{name: "single high", confidences: []float64{0.95}, score: 5, category: valueobject.RiskCategoryLow},
		{name: "exactly at threshold is not penalised", confidences: []float64{0.6}, score: 40, category: valueobject.RiskCategoryMedium},
		{name: "just under threshold", confidences: []float64{0.59}, score: 51, category: valueobject.RiskCategoryHigh},
		{name: "two lows", confidences: []float64{0.5, 0.5}, score: 70, category: valueobject.RiskCategoryHigh},
		{name: "boundary 75", confidences: []float64{0.35}, score: 75, category: valueobject.RiskCategoryCritical},
		{name: "boundary 25", confidences: []float64{0.75}, score: 25, category: valueobject.RiskCategoryMedium},
		{name: "one low of two", confidences: []float64{0.9, 0.5}, score: 40, category: valueobject.RiskCategoryMedium},
		{name: "thirds", confidences: []float64{1, 1, 0.7}, score: 10, category: valueobject.RiskCategoryLow},
	}

	scorer := service.NewRiskScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Evaluate(withConfidences(tt.confidences...))
			assert.Equal(t, tt.score, result.Score)
			assert.True(t, tt.category.Equal(result.Category), "expected %s, got %s", tt.category, result.Category)
		})
	}
}

func TestRiskScorer_MissingConfidenceDefaultsToZero(t *testing.T) {
	scorer := service.NewRiskScorer()

	missing := scorer.Evaluate([]model.Detection{
		{Object: "a", Confidence: valueobject.NewConfidence(1)},
		{Object: "b"},
	})
	zero := scorer.Evaluate(withConfidences(1, 0))

	// avg 0.5, base 50, one penalty: 60
	assert.Equal(t, 60, missing.Score)
	assert.Equal(t, zero, missing)
}

func TestRiskScorer_MalformedConfidenceFromJSON(t *testing.T) {
	var ds []model.Detection
	require.NoError(t, json.Unmarshal([]byte(`[
		{"object":"a","confidence":"0.9"},
		{"object":"b","confidence":null},
		{"object":"c"}
	]`), &ds))

	result := service.NewRiskScorer().Evaluate(ds)

	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Category.Equal(valueobject.RiskCategoryCritical))
}

func TestRiskScorer_OutOfRangeConfidenceScoresAsZero(t *testing.T) {
	scorer := service.NewRiskScorer()

	assert.Equal(t, scorer.Evaluate(withConfidences(0, 1)), scorer.Evaluate(withConfidences(-0.5, 1)))
	assert.Equal(t, scorer.Evaluate(withConfidences(0, 1)), scorer.Evaluate(withConfidences(1.5, 1)))
}

func TestRiskScorer_DoesNotMutateInput(t *testing.T) {
	input := withConfidences(0.2, 0.8)
	snapshot := append([]model.Detection(nil), input...)

	service.NewRiskScorer().Evaluate(input)

	assert.Equal(t, snapshot, input)
}

func TestRiskScorer_Idempotent(t *testing.T) {
	scorer := service.NewRiskScorer()
	input := withConfidences(0.3, 0.65, 0.99)

	assert.Equal(t, scorer.Evaluate(input), scorer.Evaluate(input))
}

func TestRiskScorer_ScoreAlwaysInRange(t *testing.T) {
	scorer := service.NewRiskScorer()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(20)
		cs := make([]float64, n)
		for j := range cs {
			cs[j] = rng.Float64()*1.4 - 0.2
		}

		result := scorer.Evaluate(withConfidences(cs...))

		require.GreaterOrEqual(t, result.Score, 0)
		require.LessOrEqual(t, result.Score, 100)
		require.True(t, valueobject.RiskCategoryFromScore(result.Score).Equal(result.Category))
		require.Len(t, result.Actions, 1)
	}
}

func TestRiskScorer_ConcurrentUse(t *testing.T) {
	scorer := service.NewRiskScorer()
	input := withConfidences(0.9, 0.9, 0.9, 0.4)
	want := scorer.Evaluate(input)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, scorer.Evaluate(input))
		}()
	}
	wg.Wait()
}
