// Package scoring turns a financial projection into a 0-100 margin score,
// an Accept/Defer/Decline recommendation, and an itemized factor
// explanation. Scoring is advisory and never fails: degenerate inputs
// produce an extreme but mathematically consistent score.
package scoring

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/snfadmit/snfadmit/internal/pdpm"
)

// Recommendation is the advisory outcome of a scored evaluation.
type Recommendation string

const (
	Accept  Recommendation = "accept"
	Defer   Recommendation = "defer"
	Decline Recommendation = "decline"
)

// Weights are the facility-tunable business weights. Margin scales how
// strongly the normalized margin pulls the score away from neutral; the
// remaining weights scale their named adjustment.
type Weights struct {
	Margin      float64 `json:"margin"`
	Census      float64 `json:"census"`
	DenialRisk  float64 `json:"denial_risk"`
	Complexity  float64 `json:"complexity"`
	ReadmitRisk float64 `json:"readmit_risk"`
}

// DefaultWeights returns the standard business weights.
func DefaultWeights() Weights {
	return Weights{
		Margin:      0.6,
		Census:      0.2,
		DenialRisk:  0.3,
		Complexity:  0.2,
		ReadmitRisk: 0.1,
	}
}

// referenceMarginWeight is the margin weight at which the normalization
// curve applies unscaled.
const referenceMarginWeight = 0.6

// Thresholds partition [0,100] into recommendations: score >= Accept is
// accept, score >= Defer is defer, anything lower is decline.
type Thresholds struct {
	Accept float64 `json:"accept"`
	Defer  float64 `json:"defer"`
}

// DefaultThresholds returns the standard recommendation cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{Accept: 70, Defer: 50}
}

// Validate checks that the cutoffs partition [0,100].
func (t Thresholds) Validate() error {
	if t.Defer < 0 || t.Accept > 100 || t.Defer >= t.Accept {
		return fmt.Errorf("thresholds must satisfy 0 <= defer < accept <= 100")
	}
	return nil
}

// Recommend maps a clamped score to its recommendation.
func (t Thresholds) Recommend(score float64) Recommendation {
	switch {
	case score >= t.Accept:
		return Accept
	case score >= t.Defer:
		return Defer
	default:
		return Decline
	}
}

// Inputs carries the projection figures and clinical context the score is
// built from.
type Inputs struct {
	Revenue decimal.Decimal
	Cost    decimal.Decimal
	LOS     int

	Class    pdpm.Classification
	Features pdpm.ClinicalFeatures
	Notes    string

	// DenialProbability is the capped probability from the cost estimate.
	DenialProbability decimal.Decimal

	// CensusPriority is 0-1: how urgently the facility wants to fill beds.
	CensusPriority float64

	Weights    Weights
	Thresholds Thresholds
}

// Factor is one named, signed contribution to the final score.
type Factor struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
	Rationale    string  `json:"rationale"`
}

// Result is a complete scored evaluation. Margin figures are carried so
// the caller can persist and render them without recomputing.
type Result struct {
	Score          float64        `json:"score"`
	Recommendation Recommendation `json:"recommendation"`
	Factors        []Factor       `json:"factors"`
	Summary        string         `json:"summary"`

	MarginTotal   decimal.Decimal `json:"margin_total"`
	MarginPerDiem decimal.Decimal `json:"margin_per_diem"`
	MarginPct     decimal.Decimal `json:"margin_pct"`
}

// normalizeMargin maps a per-diem margin onto [0,100]. Zero margin scores
// 50; positive margins saturate toward 100; negative margins fall off
// linearly and floor at 0.
func normalizeMargin(perDiem float64) float64 {
	var n float64
	if perDiem >= 0 {
		n = 50 + perDiem/(perDiem+200)*50
	} else {
		n = 50 + perDiem/100*50
	}
	return clamp(n, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// readmitRiskTerms are note phrases that each add two penalty points.
var readmitRiskTerms = []string{
	"falls risk",
	"multiple readmissions",
	"poor compliance",
	"unstable",
	"acute exacerbation",
}

func complexityPenalty(class pdpm.Classification, f pdpm.ClinicalFeatures) float64 {
	var p float64
	if class.NursingGroup == pdpm.GroupES1 || class.NursingGroup == pdpm.GroupES2 {
		p += 5
	}
	if f.Dialysis {
		p += 8
	}
	if f.Tracheostomy {
		p += 6
	}
	if f.WoundVac {
		p += 4
	}
	if f.IVAntibiotics {
		p += 3
	}
	return clamp(p, 0, 20)
}

func readmitPenalty(notes string, recentReadmission bool) float64 {
	var p float64
	lower := strings.ToLower(notes)
	for _, term := range readmitRiskTerms {
		if strings.Contains(lower, term) {
			p += 2
		}
	}
	if recentReadmission {
		p += 5
	}
	return clamp(p, 0, 10)
}

// Score computes the margin score. It always returns a Result.
func Score(in Inputs) Result {
	los := in.LOS
	if los < 1 {
		los = 1
	}

	marginTotal := in.Revenue.Sub(in.Cost)
	marginPerDiem := marginTotal.Div(decimal.NewFromInt(int64(los))).Round(2)
	marginPct := decimal.Zero
	if in.Revenue.IsPositive() {
		marginPct = marginTotal.Div(in.Revenue).Mul(decimal.NewFromInt(100)).Round(1)
	}

	perDiemF, _ := marginPerDiem.Float64()
	base := normalizeMargin(perDiemF)

	// The margin weight scales how far the curve pulls the score from
	// neutral; the reference weight reproduces the curve unscaled.
	marginScale := in.Weights.Margin / referenceMarginWeight
	baseContribution := 50 + (base-50)*marginScale

	censusBonus := clamp(in.CensusPriority, 0, 1) * 10 * in.Weights.Census

	denialProbF, _ := in.DenialProbability.Float64()
	denialPenalty := denialProbF * 100 * 0.15 * in.Weights.DenialRisk

	complexity := complexityPenalty(in.Class, in.Features) * in.Weights.Complexity
	readmit := readmitPenalty(in.Notes, in.Features.RecentReadmission) * in.Weights.ReadmitRisk

	score := clamp(baseContribution+censusBonus-denialPenalty-complexity-readmit, 0, 100)

	factors := []Factor{
		{
			Name:         "margin",
			Contribution: baseContribution - 50,
			Rationale:    fmt.Sprintf("Per-diem margin $%s (%s%% of revenue)", marginPerDiem, marginPct),
		},
		{
			Name:         "census_priority",
			Contribution: censusBonus,
			Rationale:    fmt.Sprintf("Census priority %.2f", in.CensusPriority),
		},
		{
			Name:         "denial_risk",
			Contribution: -denialPenalty,
			Rationale:    fmt.Sprintf("Denial probability %.1f%%", denialProbF*100),
		},
		{
			Name:         "complexity",
			Contribution: -complexity,
			Rationale:    fmt.Sprintf("Care complexity penalty %.1f points", complexityPenalty(in.Class, in.Features)),
		},
		{
			Name:         "readmit_risk",
			Contribution: -readmit,
			Rationale:    fmt.Sprintf("Readmission risk penalty %.1f points", readmitPenalty(in.Notes, in.Features.RecentReadmission)),
		},
	}

	thresholds := in.Thresholds
	if thresholds.Accept == 0 && thresholds.Defer == 0 {
		thresholds = DefaultThresholds()
	}
	rec := thresholds.Recommend(score)

	return Result{
		Score:          score,
		Recommendation: rec,
		Factors:        factors,
		Summary:        summary(rec, marginTotal, marginPerDiem, marginPct, los),
		MarginTotal:    marginTotal,
		MarginPerDiem:  marginPerDiem,
		MarginPct:      marginPct,
	}
}

func summary(rec Recommendation, total, perDiem, pct decimal.Decimal, los int) string {
	switch rec {
	case Accept:
		return fmt.Sprintf(
			"Strong financial margin of $%s/day (%s%% margin rate). Projected net of $%s over %d days.",
			perDiem, pct, total, los)
	case Defer:
		return fmt.Sprintf(
			"Moderate margin of $%s/day (%s%% margin rate). Consider confirming authorization or negotiating rates before accepting. Projected net of $%s over %d days.",
			perDiem, pct, total, los)
	default:
		if total.IsNegative() {
			return fmt.Sprintf(
				"Negative margin of $%s/day (%s%% margin rate). Projected loss of $%s over %d days. Not viable without rate renegotiation.",
				perDiem, pct, total.Abs(), los)
		}
		return fmt.Sprintf(
			"Low margin of $%s/day (%s%% margin rate). Complexity or denial risk reduces the score; consider only if census priority is critical.",
			perDiem, pct)
	}
}
