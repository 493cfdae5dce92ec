package costing

import (
	"github.com/shopspring/decimal"

	"github.com/snfadmit/snfadmit/internal/pdpm"
	"github.com/snfadmit/snfadmit/internal/reimburse"
)

var (
	// fallbackDenialProbability applies when a payer or status is missing
	// from the configured table.
	fallbackDenialProbability = decimal.RequireFromString("0.25")

	// denialProbabilityCap bounds the uplifted probability.
	denialProbabilityCap = decimal.RequireFromString("0.95")

	// lossGivenDenial is the average revenue fraction lost when a claim is
	// denied; partial denials are the common case.
	lossGivenDenial = decimal.RequireFromString("0.30")

	acuityUpliftHigh    = decimal.RequireFromString("0.02")
	acuityUpliftComplex = decimal.RequireFromString("0.05")
)

// Inputs carries everything a cost projection needs besides the model.
type Inputs struct {
	Class    pdpm.Classification
	Features pdpm.ClinicalFeatures
	LOS      int

	PayerType  reimburse.PayerType
	AuthStatus AuthStatus

	// ProjectedRevenue is the revenue total the denial-risk expected loss
	// is computed against.
	ProjectedRevenue decimal.Decimal

	DenialTable DenialTable
}

// Line is one itemized cost component, rounded to cents.
type Line struct {
	Component string          `json:"component"`
	PerDiem   decimal.Decimal `json:"per_diem"`
	Amount    decimal.Decimal `json:"amount"`
}

// Breakdown is an itemized cost projection. DirectTotal is the sum of line
// amounts; Total adds overhead and the expected denial loss.
type Breakdown struct {
	AcuityBand AcuityBand `json:"acuity_band"`
	Lines      []Line     `json:"lines"`

	DirectTotal  decimal.Decimal `json:"direct_total"`
	OverheadRate decimal.Decimal `json:"overhead_rate"`
	Overhead     decimal.Decimal `json:"overhead"`

	DenialProbability  decimal.Decimal `json:"denial_probability"`
	ExpectedDenialLoss decimal.Decimal `json:"expected_denial_loss"`

	Total   decimal.Decimal `json:"total"`
	PerDiem decimal.Decimal `json:"per_diem"`
}

// DenialProbability looks up the base probability for a payer and auth
// status and uplifts it for clinical complexity. The result is capped.
func DenialProbability(table DenialTable, payer reimburse.PayerType, status AuthStatus, band AcuityBand) decimal.Decimal {
	p := fallbackDenialProbability
	if byStatus, ok := table[payer]; ok {
		if v, ok := byStatus[status]; ok {
			p = v
		}
	}
	switch band {
	case BandHigh:
		p = p.Add(acuityUpliftHigh)
	case BandComplex:
		p = p.Add(acuityUpliftComplex)
	}
	if p.GreaterThan(denialProbabilityCap) {
		p = denialProbabilityCap
	}
	return p
}

// Estimate projects total cost for an admission. It never fails: the LOS is
// validated upstream and missing configuration degrades to zero-amount
// lines rather than aborting.
func Estimate(m Model, in Inputs) Breakdown {
	los := decimal.NewFromInt(int64(in.LOS))

	b := Breakdown{AcuityBand: m.AcuityBand, OverheadRate: m.OverheadRate}

	addLine := func(component string, perDay decimal.Decimal) {
		b.Lines = append(b.Lines, Line{
			Component: component,
			PerDiem:   perDay.Round(2),
			Amount:    perDay.Mul(los).Round(2),
		})
	}
	addOneTime := func(component string, amount decimal.Decimal) {
		b.Lines = append(b.Lines, Line{Component: component, Amount: amount.Round(2)})
	}

	addLine("nursing", m.NursingHoursPerDay.Mul(m.HourlyRate))
	addLine("base_supplies", m.BaseSupplyPerDay)

	flags := map[string]bool{
		"wound_vac":    in.Features.WoundVac,
		"oxygen":       in.Features.Oxygen,
		"feeding_tube": in.Features.FeedingTube,
	}
	for _, key := range []string{"wound_vac", "oxygen", "feeding_tube"} {
		if rate, ok := m.SupplySurcharges[key]; ok && flags[key] {
			addLine("supply_"+key, rate)
		}
	}

	addLine("base_medications", m.BaseMedsPerDay)
	pharmacyFlags := map[string]bool{
		"iv_antibiotics": in.Features.IVAntibiotics,
		"wound_vac":      in.Features.WoundVac,
	}
	for _, key := range []string{"iv_antibiotics", "wound_vac"} {
		if rate, ok := m.PharmacySurcharges[key]; ok && pharmacyFlags[key] {
			addLine("pharmacy_"+key, rate)
		}
	}

	if in.Features.TransportNeed != "" {
		if rate, ok := m.TransportRates[in.Features.TransportNeed]; ok {
			addOneTime("transport_"+in.Features.TransportNeed, rate)
		}
	}

	for _, l := range b.Lines {
		b.DirectTotal = b.DirectTotal.Add(l.Amount)
	}
	b.Overhead = b.DirectTotal.Mul(m.OverheadRate).Round(2)

	b.DenialProbability = DenialProbability(in.DenialTable, in.PayerType, in.AuthStatus, m.AcuityBand)
	b.ExpectedDenialLoss = in.ProjectedRevenue.Mul(b.DenialProbability).Mul(lossGivenDenial).Round(2)

	b.Total = b.DirectTotal.Add(b.Overhead).Add(b.ExpectedDenialLoss)
	if in.LOS > 0 {
		b.PerDiem = b.Total.Div(los).Round(2)
	}
	return b
}
