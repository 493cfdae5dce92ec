package scoring

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/snfadmit/snfadmit/internal/pdpm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func baseInputs() Inputs {
	return Inputs{
		Revenue:           dec("8500"),
		Cost:              dec("6200"),
		LOS:               15,
		Class:             pdpm.Classification{NursingGroup: pdpm.GroupHBS1},
		DenialProbability: dec("0.05"),
		CensusPriority:    0.5,
		Weights:           DefaultWeights(),
		Thresholds:        DefaultThresholds(),
	}
}

func TestScore_Bounds(t *testing.T) {
	cases := []Inputs{
		baseInputs(),
		{Revenue: dec("0"), Cost: dec("50000"), LOS: 10, Weights: DefaultWeights()},
		{Revenue: dec("1000000"), Cost: dec("0"), LOS: 1, CensusPriority: 1, Weights: DefaultWeights()},
		{Revenue: dec("-500"), Cost: dec("-900"), LOS: 3, Weights: DefaultWeights()},
		{},
	}
	for i, in := range cases {
		r := Score(in)
		if r.Score < 0 || r.Score > 100 {
			t.Errorf("case %d: score %f out of [0,100]", i, r.Score)
		}
		if r.Recommendation == "" {
			t.Errorf("case %d: empty recommendation", i)
		}
	}
}

func TestScore_MonotonicInRevenue(t *testing.T) {
	in := baseInputs()
	prev := -1.0
	for _, revenue := range []string{"4000", "6200", "8000", "12000", "30000"} {
		in.Revenue = dec(revenue)
		r := Score(in)
		if r.Score < prev {
			t.Fatalf("score decreased to %f at revenue %s", r.Score, revenue)
		}
		prev = r.Score
	}
}

func TestScore_MonotonicInCost(t *testing.T) {
	in := baseInputs()
	prev := 101.0
	for _, cost := range []string{"1000", "5000", "8500", "15000"} {
		in.Cost = dec(cost)
		r := Score(in)
		if r.Score > prev {
			t.Fatalf("score increased to %f at cost %s", r.Score, cost)
		}
		prev = r.Score
	}
}

func TestThresholds_Partition(t *testing.T) {
	th := DefaultThresholds()
	if err := th.Validate(); err != nil {
		t.Fatalf("default thresholds invalid: %v", err)
	}

	for score := 0.0; score <= 100.0; score += 0.5 {
		rec := th.Recommend(score)
		switch {
		case score >= th.Accept && rec != Accept:
			t.Fatalf("score %f: got %s, want accept", score, rec)
		case score >= th.Defer && score < th.Accept && rec != Defer:
			t.Fatalf("score %f: got %s, want defer", score, rec)
		case score < th.Defer && rec != Decline:
			t.Fatalf("score %f: got %s, want decline", score, rec)
		}
	}

	bad := Thresholds{Accept: 40, Defer: 70}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for inverted thresholds")
	}
}

func TestScore_NegativeMarginDeclines(t *testing.T) {
	// Medicaid-style case: low per-diem revenue against heavy nursing cost
	// over a long dementia stay.
	in := Inputs{
		Revenue:           dec("10530"),
		Cost:              dec("19400"),
		LOS:               45,
		Class:             pdpm.Classification{NursingGroup: pdpm.GroupES2},
		Features:          pdpm.ClinicalFeatures{FeedingTube: true},
		DenialProbability: dec("0.10"),
		Weights:           DefaultWeights(),
		Thresholds:        DefaultThresholds(),
	}
	r := Score(in)

	if !r.MarginTotal.IsNegative() {
		t.Fatalf("margin total %s, want negative", r.MarginTotal)
	}
	if r.Score >= 50 {
		t.Fatalf("score %f, want < 50", r.Score)
	}
	if r.Recommendation != Decline {
		t.Fatalf("recommendation %s, want decline", r.Recommendation)
	}
}

func TestScore_StrongMarginAccepts(t *testing.T) {
	in := baseInputs()
	in.Revenue = dec("20000")
	in.Cost = dec("9000")
	in.DenialProbability = dec("0.02")

	r := Score(in)
	if r.Score < 70 {
		t.Fatalf("score %f, want >= 70", r.Score)
	}
	if r.Recommendation != Accept {
		t.Fatalf("recommendation %s, want accept", r.Recommendation)
	}
}

func TestScore_FactorContributionsExplainScore(t *testing.T) {
	in := baseInputs()
	in.Features = pdpm.ClinicalFeatures{IVAntibiotics: true, RecentReadmission: true}
	in.Notes = "unstable, falls risk"

	r := Score(in)
	if len(r.Factors) != 5 {
		t.Fatalf("expected 5 factors, got %d", len(r.Factors))
	}

	sum := 50.0
	for _, f := range r.Factors {
		sum += f.Contribution
		if f.Rationale == "" {
			t.Errorf("factor %s has no rationale", f.Name)
		}
	}
	if diff := sum - r.Score; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("factor contributions sum to %f, score is %f", sum, r.Score)
	}
}

func TestComplexityPenaltyCaps(t *testing.T) {
	class := pdpm.Classification{NursingGroup: pdpm.GroupES1}
	features := pdpm.ClinicalFeatures{
		Dialysis:      true,
		Tracheostomy:  true,
		WoundVac:      true,
		IVAntibiotics: true,
	}
	// 5 + 8 + 6 + 4 + 3 = 26, capped at 20.
	if got := complexityPenalty(class, features); got != 20 {
		t.Fatalf("penalty %f, want 20", got)
	}
}

func TestReadmitPenaltyCaps(t *testing.T) {
	notes := "unstable, falls risk, poor compliance, multiple readmissions"
	if got := readmitPenalty(notes, true); got != 10 {
		t.Fatalf("penalty %f, want 10", got)
	}
	if got := readmitPenalty("", false); got != 0 {
		t.Fatalf("penalty %f, want 0", got)
	}
}
