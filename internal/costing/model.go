// Package costing projects the cost side of an admission: acuity-banded
// nursing labor, supplies, pharmacy, transport, overhead, and an expected
// loss for denial risk. Output is itemized the same way revenue is.
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/snfadmit/snfadmit/internal/pdpm"
	"github.com/snfadmit/snfadmit/internal/reimburse"
)

// AcuityBand is the coarse complexity tier a cost model is keyed by.
type AcuityBand string

const (
	BandLow     AcuityBand = "low"
	BandMedium  AcuityBand = "medium"
	BandHigh    AcuityBand = "high"
	BandComplex AcuityBand = "complex"
)

// ValidAcuityBand reports whether s names a known band.
func ValidAcuityBand(s string) bool {
	switch AcuityBand(s) {
	case BandLow, BandMedium, BandHigh, BandComplex:
		return true
	}
	return false
}

// BandForClassification maps a case-mix classification to the acuity band
// used for cost-model selection. Extensive-services nursing groups are
// complex, high behavioral/special-care groups are high.
func BandForClassification(c pdpm.Classification) AcuityBand {
	switch c.NursingGroup {
	case pdpm.GroupES1, pdpm.GroupES2:
		return BandComplex
	case pdpm.GroupHBS1, pdpm.GroupHBS2:
		return BandHigh
	case pdpm.GroupLBS1:
		return BandMedium
	default:
		return BandLow
	}
}

// AuthStatus is the payer authorization state at evaluation time.
type AuthStatus string

const (
	AuthApproved AuthStatus = "approved"
	AuthPending  AuthStatus = "pending"
	AuthDenied   AuthStatus = "denied"
	AuthUnknown  AuthStatus = "unknown"
)

// ValidAuthStatus reports whether s names a known authorization state.
func ValidAuthStatus(s string) bool {
	switch AuthStatus(s) {
	case AuthApproved, AuthPending, AuthDenied, AuthUnknown:
		return true
	}
	return false
}

// Model is an acuity-banded cost model: daily nursing staffing, supply and
// pharmacy schedules, transport rates, and the overhead fraction. Models
// are facility configuration; DefaultModel seeds typical values.
type Model struct {
	AcuityBand         AcuityBand      `json:"acuity_band"`
	NursingHoursPerDay decimal.Decimal `json:"nursing_hours_per_day"`
	HourlyRate         decimal.Decimal `json:"hourly_rate"`
	BaseSupplyPerDay   decimal.Decimal `json:"base_supply_per_day"`
	BaseMedsPerDay     decimal.Decimal `json:"base_meds_per_day"`

	// Per-day surcharges triggered by clinical flags.
	SupplySurcharges   map[string]decimal.Decimal `json:"supply_surcharges,omitempty"`
	PharmacySurcharges map[string]decimal.Decimal `json:"pharmacy_surcharges,omitempty"`

	// One-time transport rates keyed by transport type.
	TransportRates map[string]decimal.Decimal `json:"transport_rates,omitempty"`

	OverheadRate decimal.Decimal `json:"overhead_rate"`
}

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// DefaultModel returns the standard cost model for a band.
func DefaultModel(band AcuityBand) Model {
	m := Model{
		AcuityBand:     band,
		BaseMedsPerDay: d(30),
		SupplySurcharges: map[string]decimal.Decimal{
			"wound_vac":    d(75),
			"oxygen":       d(25),
			"feeding_tube": d(40),
		},
		PharmacySurcharges: map[string]decimal.Decimal{
			"iv_antibiotics": d(150),
			"wound_vac":      d(50),
		},
		TransportRates: map[string]decimal.Decimal{
			"ambulance":      d(500),
			"wheelchair_van": d(150),
		},
		OverheadRate: d(0.22),
	}
	switch band {
	case BandComplex:
		m.NursingHoursPerDay, m.HourlyRate, m.BaseSupplyPerDay = d(7.0), d(42), d(85)
	case BandHigh:
		m.NursingHoursPerDay, m.HourlyRate, m.BaseSupplyPerDay = d(5.5), d(38), d(60)
	case BandMedium:
		m.NursingHoursPerDay, m.HourlyRate, m.BaseSupplyPerDay = d(4.0), d(35), d(50)
	default:
		m.NursingHoursPerDay, m.HourlyRate, m.BaseSupplyPerDay = d(3.2), d(34), d(40)
	}
	return m
}

// DenialTable holds denial probabilities by payer family and authorization
// status.
type DenialTable map[reimburse.PayerType]map[AuthStatus]decimal.Decimal

// DefaultDenialTable returns the standard denial probabilities.
func DefaultDenialTable() DenialTable {
	return DenialTable{
		reimburse.PayerMedicareFFS: {
			AuthApproved: d(0.02), AuthPending: d(0.15), AuthUnknown: d(0.25), AuthDenied: d(0.60),
		},
		reimburse.PayerMedicareAdvantage: {
			AuthApproved: d(0.05), AuthPending: d(0.20), AuthUnknown: d(0.35), AuthDenied: d(0.70),
		},
		reimburse.PayerMedicaid: {
			AuthApproved: d(0.03), AuthPending: d(0.10), AuthUnknown: d(0.15), AuthDenied: d(0.50),
		},
		reimburse.PayerMCO: {
			AuthApproved: d(0.03), AuthPending: d(0.12), AuthUnknown: d(0.18), AuthDenied: d(0.55),
		},
	}
}
