/*
scorer.go - Hybrid suitability scoring

PURPOSE:
  Combines the classifier's (label, confidence) with deterministic rule
  adjustments into a 0-100 suitability score plus an ordered list of
  human-readable reasons.

BASE MAPPING:
  positive label:  50 + 50 * confidence
  negative label:  50 - 50 * confidence
  Monotonic in confidence and continuous at the label boundary (a
  zero-confidence verdict of either label lands on 50).

RULE ADJUSTMENTS (fixed order, applied after the base mapping):
  1. Capacity shortfall            -40
  2. Missing required facilities   -30 * (missing / required)
  3. Preferred floor match          +5
  4. Preferred type match           +5
  5. Privacy/collaboration fit     -10 / +5 / -5 (see needFit)
  Final score clamped to [0, 100]. The fixed order makes the reasoning
  list reproducible for a given input.

  The magnitudes are tunable constants; their direction and ordering
  are load-bearing, the exact values are not.

DEGRADED MODE:
  If the classifier errors or times out, scoring proceeds rule-only
  from a neutral base of 50 with confidence 0 and a reason noting the
  degradation. The failure never reaches the caller.

SEE ALSO:
  - encoder.go:    Produces the classifier input
  - classifier.go: The injected collaborator
  - ranker.go:     Runs the scorer across all candidates
*/
package allocation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TUNABLE CONSTANTS
// =============================================================================

var (
	scoreNeutral    = decimal.NewFromInt(50)
	scoreSpan       = decimal.NewFromInt(50)
	scoreMin        = decimal.Zero
	scoreMax        = decimal.NewFromInt(100)
	penaltyCapacity = decimal.NewFromInt(40)
	penaltyFacility = decimal.NewFromInt(30) // scaled by fraction missing
	bonusFloor      = decimal.NewFromInt(5)
	bonusType       = decimal.NewFromInt(5)
	penaltyNeedFit  = decimal.NewFromInt(10)
	bonusNeedFit    = decimal.NewFromInt(5)
)

// DefaultClassifierTimeout bounds a single classifier call.
const DefaultClassifierTimeout = 3 * time.Second

// =============================================================================
// SCORER
// =============================================================================

// Scored is the output of one scoring pass over one candidate.
type Scored struct {
	Suitability float64
	Confidence  float64
	Reasons     []string
}

// Scorer computes hybrid suitability scores.
type Scorer struct {
	Classifier Classifier

	// ClassifierTimeout bounds each Classify call. Zero means
	// DefaultClassifierTimeout.
	ClassifierTimeout time.Duration
}

// Score evaluates one candidate workspace for one request.
// It never returns an error: classifier failures degrade to rule-only
// scoring per the contract above.
func (s *Scorer) Score(ctx context.Context, user User, ws Workspace, req AllocationRequest) Scored {
	features := EncodeFeatures(user, ws, req)

	base := scoreNeutral
	confidence := 0.0
	var reasons []string

	pred, err := s.classify(ctx, features.Text())
	if err != nil {
		log.Printf("[Scorer] classifier unavailable for workspace %s: %v", ws.ID, err)
		reasons = append(reasons, "Suitability model unavailable; score based on rules only.")
	} else {
		confidence = clampFloat(pred.Confidence, 0, 1)
		conf := decimal.NewFromFloat(confidence)
		if pred.Label == LabelPositive {
			base = scoreNeutral.Add(scoreSpan.Mul(conf))
		} else {
			base = scoreNeutral.Sub(scoreSpan.Mul(conf))
		}
	}

	score := base

	// 1. Capacity shortfall.
	if ws.Capacity < req.TeamSize {
		score = score.Sub(penaltyCapacity)
		reasons = append(reasons, fmt.Sprintf(
			"Insufficient capacity (%d) for team size (%d).", ws.Capacity, req.TeamSize))
	} else {
		reasons = append(reasons, fmt.Sprintf(
			"Capacity (%d) sufficient for team size (%d).", ws.Capacity, req.TeamSize))
	}

	// 2. Missing required facilities, penalty proportional to the
	// fraction missing.
	if len(req.RequiredFacilities) > 0 {
		var missing []string
		for _, f := range req.RequiredFacilities {
			if !ws.HasFacility(f) {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			fraction := decimal.NewFromInt(int64(len(missing))).
				Div(decimal.NewFromInt(int64(len(req.RequiredFacilities))))
			score = score.Sub(penaltyFacility.Mul(fraction))
			reasons = append(reasons, fmt.Sprintf(
				"Missing required facilities: %s.", joinFacilities(missing)))
		} else {
			reasons = append(reasons, "All required facilities are available.")
		}
	}

	// 3. Preferred floor.
	if req.PreferredFloor != nil && ws.Floor == *req.PreferredFloor {
		score = score.Add(bonusFloor)
		reasons = append(reasons, fmt.Sprintf("Matches preferred floor (%d).", ws.Floor))
	}

	// 4. Preferred type.
	if req.PreferredType != "" && ws.Type == req.PreferredType {
		score = score.Add(bonusType)
		reasons = append(reasons, fmt.Sprintf("Matches preferred type (%s).", ws.Type))
	}

	// 5. Privacy/collaboration fit against workspace type.
	score, reasons = applyNeedFit(score, reasons, ws, req)

	// Clamp after all adjustments.
	if score.LessThan(scoreMin) {
		score = scoreMin
	}
	if score.GreaterThan(scoreMax) {
		score = scoreMax
	}

	suitability, _ := score.Round(2).Float64()
	return Scored{Suitability: suitability, Confidence: confidence, Reasons: reasons}
}

func (s *Scorer) classify(ctx context.Context, text string) (Prediction, error) {
	timeout := s.ClassifierTimeout
	if timeout == 0 {
		timeout = DefaultClassifierTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Classifier.Classify(ctx, text)
}

// =============================================================================
// NEED FIT HEURISTICS
// =============================================================================

// openTypes are workspace types with no acoustic or visual separation.
var openTypes = map[WorkspaceType]bool{
	TypeHotDesk:     true,
	TypeOpenSpace:   true,
	TypeCollabSpace: true,
}

// enclosedTypes are workspace types suited to confidential work.
var enclosedTypes = map[WorkspaceType]bool{
	TypeMeetingRoom:   true,
	TypePrivateOffice: true,
	TypePhoneBooth:    true,
}

// applyNeedFit adjusts the score for privacy/collaboration alignment
// with the workspace type. Unknown types are neutral.
func applyNeedFit(score decimal.Decimal, reasons []string, ws Workspace, req AllocationRequest) (decimal.Decimal, []string) {
	if req.PrivacyNeed == NeedHigh {
		switch {
		case openTypes[ws.Type]:
			score = score.Sub(penaltyNeedFit)
			reasons = append(reasons, fmt.Sprintf(
				"High privacy need conflicts with open workspace type (%s).", ws.Type))
		case enclosedTypes[ws.Type]:
			score = score.Add(bonusNeedFit)
			reasons = append(reasons, fmt.Sprintf(
				"Enclosed workspace type (%s) suits high privacy need.", ws.Type))
		}
	}

	if req.CollaborationNeed == NeedHigh {
		switch {
		case openTypes[ws.Type] || ws.Type == TypeMeetingRoom:
			score = score.Add(bonusNeedFit)
			reasons = append(reasons, fmt.Sprintf(
				"Workspace type (%s) supports high collaboration need.", ws.Type))
		case ws.Type == TypePrivateOffice || ws.Type == TypePhoneBooth:
			score = score.Sub(bonusNeedFit)
			reasons = append(reasons, fmt.Sprintf(
				"Workspace type (%s) limits high collaboration need.", ws.Type))
		}
	}

	return score, reasons
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
