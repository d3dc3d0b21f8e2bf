package scoring

import (
	"math"

	"github.com/abhisek/englevel/internal/cefr"
)

// Inference is the recommended level for a finished assessment.
type Inference struct {
	Level      cefr.Level `json:"level"`
	Confidence float64    `json:"confidence"`

	// FoundationPenalty is set when weak A1 performance overrode the scan.
	FoundationPenalty bool `json:"foundationPenalty,omitempty"`
}

// threshold is the qualifying rule for one level during the top-down scan.
type threshold struct {
	Level          cefr.Level
	MinAccuracy    float64
	RequirePoints  bool
	BaseConfidence float64
	MaxConfidence  float64
}

// Scanned highest first. A1 is never selected by the scan; it is the
// fallback and the target of the foundation penalty.
var thresholds = []threshold{
	{cefr.C2, 0.60, true, 70, 95},
	{cefr.C1, 0.70, true, 65, 90},
	{cefr.B2, 0.75, true, 60, 85},
	{cefr.B1, 0.70, true, 55, 80},
	{cefr.A2, 0.60, false, 50, 75},
}

const (
	foundationAccuracy = 0.5
	foundationPenalty  = 30
	foundationMinimum  = 20
	confidenceScale    = 25
)

// Infer converts a level breakdown into a recommended level and confidence.
// The highest-first scan runs before the A1 override; reordering the two
// changes results for the same input.
func Infer(b Breakdown) Inference {
	result := Inference{Level: cefr.A1, Confidence: 0}

	for _, th := range thresholds {
		s, ok := b[th.Level]
		if !ok || s.Total == 0 {
			continue
		}
		acc := s.Accuracy()
		if acc < th.MinAccuracy {
			continue
		}
		if th.RequirePoints && s.Points <= 0 {
			continue
		}
		result.Level = th.Level
		result.Confidence = math.Min(th.MaxConfidence, th.BaseConfidence+acc*confidenceScale)
		break
	}

	if a1, ok := b[cefr.A1]; ok && a1.Total > 0 && a1.Accuracy() < foundationAccuracy {
		result.Level = cefr.A1
		result.Confidence = math.Max(foundationMinimum, result.Confidence-foundationPenalty)
		result.FoundationPenalty = true
	}

	return result
}
