package trust

import (
	"math"
	"time"

	"github.com/jmhodges/clock"

	trusterrors "github.com/agentrust/trustcore/errors"
)

// ScoringProfile names the per-article weights and default confidence
// the scorer applies. Weights must be non-negative and sum to 1 (spec
// §4.9); Confidence is the policy-defined constant a caller may
// override per call.
type ScoringProfile struct {
	InspectionMandate    float64
	ConsentArchitecture  float64
	EthicalOverride      float64
	ContinuousValidation float64
	RightToDisconnect    float64
	MoralRecognition     float64
	Confidence           float64
}

const weightSumEpsilon = 1e-9

func (p ScoringProfile) validate() error {
	weights := []float64{
		p.InspectionMandate, p.ConsentArchitecture, p.EthicalOverride,
		p.ContinuousValidation, p.RightToDisconnect, p.MoralRecognition,
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return trusterrors.MalformedInputError("scoring profile weights must be non-negative")
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumEpsilon {
		return trusterrors.MalformedInputError("scoring profile weights must sum to 1, got %v", sum)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return trusterrors.MalformedInputError("scoring profile confidence must be in [0,1], got %v", p.Confidence)
	}
	return nil
}

// DefaultProfile weighs all six articles equally, per spec.md's
// explicit instruction not to guess a non-equal default (DESIGN.md
// Open Question 1).
func DefaultProfile() ScoringProfile {
	sixth := 1.0 / 6.0
	return ScoringProfile{
		InspectionMandate:    sixth,
		ConsentArchitecture:  sixth,
		EthicalOverride:      sixth,
		ContinuousValidation: sixth,
		RightToDisconnect:    sixth,
		MoralRecognition:     sixth,
		Confidence:           1.0,
	}
}

// BalancedProfile weighs the two articles most directly bearing on
// operator safety (consent and ethical override) somewhat higher than
// the rest, still summing to 1 (SPEC_FULL.md §6 item 1).
func BalancedProfile() ScoringProfile {
	return ScoringProfile{
		InspectionMandate:    0.15,
		ConsentArchitecture:  0.20,
		EthicalOverride:      0.20,
		ContinuousValidation: 0.15,
		RightToDisconnect:    0.15,
		MoralRecognition:     0.15,
		Confidence:           1.0,
	}
}

// StrictProfile concentrates weight on ethical override and the right
// to disconnect, treating the rest as secondary (SPEC_FULL.md §6 item 1).
func StrictProfile() ScoringProfile {
	return ScoringProfile{
		InspectionMandate:    0.10,
		ConsentArchitecture:  0.15,
		EthicalOverride:      0.30,
		ContinuousValidation: 0.10,
		RightToDisconnect:    0.25,
		MoralRecognition:     0.10,
		Confidence:           1.0,
	}
}

// LenientProfile weighs articles equally like DefaultProfile but
// reports a lower default confidence, reflecting that a lenient
// deployment trusts attestations less strongly (SPEC_FULL.md §6 item 1).
func LenientProfile() ScoringProfile {
	sixth := 1.0 / 6.0
	return ScoringProfile{
		InspectionMandate:    sixth,
		ConsentArchitecture:  sixth,
		EthicalOverride:      sixth,
		ContinuousValidation: sixth,
		RightToDisconnect:    sixth,
		MoralRecognition:     sixth,
		Confidence:           0.75,
	}
}

// Score is the output of scoring a Declaration (spec §3 Trust Score).
type Score struct {
	ComplianceScore float64   `json:"compliance_score"`
	GuiltScore      float64   `json:"guilt_score"`
	Confidence      float64   `json:"confidence"`
	ComputedAt      time.Time `json:"computed_at"`
}

// ScoreDeclaration computes compliance_score = Σ weight_i · 1[article_i]
// and guilt_score = 1 - compliance_score (spec §4.9). confidenceOverride,
// if non-nil, replaces profile.Confidence and must be in [0,1].
func ScoreDeclaration(clk clock.Clock, decl Declaration, profile ScoringProfile, confidenceOverride *float64) (Score, error) {
	if clk == nil {
		clk = clock.New()
	}
	if decl.effectiveSchemaVersion() != currentSchemaVersion {
		return Score{}, trusterrors.MalformedInputError(
			"trust declaration schema version %d is not supported (only version %d)",
			decl.effectiveSchemaVersion(), currentSchemaVersion)
	}
	if err := profile.validate(); err != nil {
		return Score{}, err
	}

	confidence := profile.Confidence
	if confidenceOverride != nil {
		if *confidenceOverride < 0 || *confidenceOverride > 1 {
			return Score{}, trusterrors.MalformedInputError("confidence override must be in [0,1], got %v", *confidenceOverride)
		}
		confidence = *confidenceOverride
	}

	a := decl.Articles
	compliance := 0.0
	if a.InspectionMandate {
		compliance += profile.InspectionMandate
	}
	if a.ConsentArchitecture {
		compliance += profile.ConsentArchitecture
	}
	if a.EthicalOverride {
		compliance += profile.EthicalOverride
	}
	if a.ContinuousValidation {
		compliance += profile.ContinuousValidation
	}
	if a.RightToDisconnect {
		compliance += profile.RightToDisconnect
	}
	if a.MoralRecognition {
		compliance += profile.MoralRecognition
	}

	return Score{
		ComplianceScore: compliance,
		GuiltScore:      1 - compliance,
		Confidence:      confidence,
		ComputedAt:      clk.Now().UTC(),
	}, nil
}
