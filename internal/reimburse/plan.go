package reimburse

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/snfadmit/snfadmit/internal/pdpm"
)

// PayerType identifies the reimbursement family a rate plan belongs to.
type PayerType string

const (
	PayerMedicareFFS       PayerType = "medicare_ffs"
	PayerMedicareAdvantage PayerType = "medicare_advantage"
	PayerMedicaid          PayerType = "medicaid"
	PayerMCO               PayerType = "mco"
)

// ValidPayerType reports whether s names a known payer family.
func ValidPayerType(s string) bool {
	switch PayerType(s) {
	case PayerMedicareFFS, PayerMedicareAdvantage, PayerMedicaid, PayerMCO:
		return true
	}
	return false
}

// VPDStep is one step of a variable per-diem schedule: Factor applies
// through ThroughDay inclusive. ThroughDay 0 marks the open-ended tail.
type VPDStep struct {
	ThroughDay int             `json:"through_day"`
	Factor     decimal.Decimal `json:"factor"`
}

// VPDSchedule is a declining day-indexed payment schedule. Steps must be
// ordered by ThroughDay with a single open-ended tail step.
type VPDSchedule []VPDStep

// FactorFor returns the multiplier for a 1-based day of stay.
func (s VPDSchedule) FactorFor(day int) decimal.Decimal {
	for _, step := range s {
		if step.ThroughDay == 0 || day <= step.ThroughDay {
			return step.Factor
		}
	}
	return decimal.NewFromInt(1)
}

// Validate checks step ordering and that the schedule terminates with an
// open-ended step.
func (s VPDSchedule) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("schedule is empty")
	}
	prev := 0
	for i, step := range s {
		last := i == len(s)-1
		if last {
			if step.ThroughDay != 0 {
				return fmt.Errorf("final step must be open-ended (through_day 0)")
			}
			continue
		}
		if step.ThroughDay <= prev {
			return fmt.Errorf("step %d: through_day %d not increasing", i, step.ThroughDay)
		}
		prev = step.ThroughDay
	}
	return nil
}

// DefaultTherapyVPD returns the standard PT/OT declining schedule.
func DefaultTherapyVPD() VPDSchedule {
	return VPDSchedule{
		{ThroughDay: 3, Factor: decimal.NewFromFloat(1.00)},
		{ThroughDay: 6, Factor: decimal.NewFromFloat(0.98)},
		{ThroughDay: 10, Factor: decimal.NewFromFloat(0.95)},
		{ThroughDay: 14, Factor: decimal.NewFromFloat(0.92)},
		{ThroughDay: 18, Factor: decimal.NewFromFloat(0.88)},
		{ThroughDay: 0, Factor: decimal.NewFromFloat(0.85)},
	}
}

// FFSPlan carries Medicare fee-for-service component tables. Component rates
// are base per-diems keyed by case-mix group. The NTA component pays its
// full band rate through NTAFullThroughDay and NTAStepDownFactor of it
// thereafter; the factor is contract data with no engine default.
type FFSPlan struct {
	PTRates      map[pdpm.TherapyGroup]decimal.Decimal `json:"pt_rates"`
	OTRates      map[pdpm.TherapyGroup]decimal.Decimal `json:"ot_rates"`
	SLPRates     map[pdpm.SLPGroup]decimal.Decimal     `json:"slp_rates"`
	NursingRates map[pdpm.NursingGroup]decimal.Decimal `json:"nursing_rates"`
	NTARates     map[pdpm.NTABand]decimal.Decimal      `json:"nta_rates"`
	NonCaseMix   decimal.Decimal                       `json:"non_case_mix"`

	// LaborShare is the wage-index-adjusted fraction of the PT, OT, SLP,
	// and nursing components. NTA and non-case-mix are not wage adjusted.
	LaborShare decimal.Decimal `json:"labor_share"`

	TherapyVPD        VPDSchedule     `json:"therapy_vpd"`
	NTAFullThroughDay int             `json:"nta_full_through_day"`
	NTAStepDownFactor decimal.Decimal `json:"nta_step_down_factor"`
}

// MAContractMode selects how a Medicare Advantage contract pays.
type MAContractMode string

const (
	MAFlat       MAContractMode = "flat"
	MATiered     MAContractMode = "tiered"
	MAPDPMMapped MAContractMode = "pdpm_mapped"
)

// DayTier is one per-diem tier of a tiered MA contract. ThroughDay 0 marks
// the open-ended tail tier.
type DayTier struct {
	ThroughDay int             `json:"through_day"`
	Rate       decimal.Decimal `json:"rate"`
}

// MAPlan carries a Medicare Advantage / commercial contract.
type MAPlan struct {
	Mode        MAContractMode  `json:"mode"`
	FlatPerDiem decimal.Decimal `json:"flat_per_diem,omitempty"`
	Tiers       []DayTier       `json:"tiers,omitempty"`

	// PDPM-mapped contracts pay a multiplier of FFS tables with wage
	// index and VBP neutralized.
	FFS        *FFSPlan        `json:"ffs,omitempty"`
	Multiplier decimal.Decimal `json:"multiplier,omitempty"`
}

// MedicaidPlan carries a state Medicaid per-diem with named high-acuity
// add-ons keyed by clinical flag.
type MedicaidPlan struct {
	BasePerDiem decimal.Decimal            `json:"base_per_diem"`
	AddOns      map[string]decimal.Decimal `json:"add_ons,omitempty"`
}

// MCOPlan carries a managed-care (Family Care style) nursing x NTA-band
// rate matrix.
type MCOPlan struct {
	NursingRates map[pdpm.NursingGroup]decimal.Decimal `json:"nursing_rates"`
	NTABandRates map[pdpm.NTABand]decimal.Decimal      `json:"nta_band_rates"`
}

// Plan is the tagged union of payer-specific rate payloads. Exactly one
// payload must be set, matching Payer.
type Plan struct {
	Payer    PayerType     `json:"payer"`
	FFS      *FFSPlan      `json:"ffs,omitempty"`
	MA       *MAPlan       `json:"ma,omitempty"`
	Medicaid *MedicaidPlan `json:"medicaid,omitempty"`
	MCO      *MCOPlan      `json:"mco,omitempty"`
}

// Validate checks the union discipline and payload completeness. It is run
// when rate records are written, so the calculator can assume well-formed
// plans.
func (p *Plan) Validate() error {
	set := 0
	if p.FFS != nil {
		set++
	}
	if p.MA != nil {
		set++
	}
	if p.Medicaid != nil {
		set++
	}
	if p.MCO != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("exactly one payer payload required, got %d", set)
	}

	switch p.Payer {
	case PayerMedicareFFS:
		if p.FFS == nil {
			return fmt.Errorf("payer %s requires ffs payload", p.Payer)
		}
		return p.FFS.validate()
	case PayerMedicareAdvantage:
		if p.MA == nil {
			return fmt.Errorf("payer %s requires ma payload", p.Payer)
		}
		return p.MA.validate()
	case PayerMedicaid:
		if p.Medicaid == nil {
			return fmt.Errorf("payer %s requires medicaid payload", p.Payer)
		}
		if !p.Medicaid.BasePerDiem.IsPositive() {
			return fmt.Errorf("medicaid base per-diem must be positive")
		}
		return nil
	case PayerMCO:
		if p.MCO == nil {
			return fmt.Errorf("payer %s requires mco payload", p.Payer)
		}
		if len(p.MCO.NursingRates) == 0 || len(p.MCO.NTABandRates) == 0 {
			return fmt.Errorf("mco plan requires nursing and nta band rate matrices")
		}
		return nil
	default:
		return fmt.Errorf("unknown payer type %q", p.Payer)
	}
}

func (f *FFSPlan) validate() error {
	if len(f.PTRates) == 0 || len(f.OTRates) == 0 || len(f.NursingRates) == 0 || len(f.NTARates) == 0 {
		return fmt.Errorf("ffs plan requires pt, ot, nursing, and nta rate tables")
	}
	if f.LaborShare.IsNegative() || f.LaborShare.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("labor share must be within [0,1]")
	}
	if err := f.TherapyVPD.Validate(); err != nil {
		return fmt.Errorf("therapy vpd: %w", err)
	}
	if f.NTAFullThroughDay < 1 {
		return fmt.Errorf("nta full-rate window must cover at least day 1")
	}
	if !f.NTAStepDownFactor.IsPositive() || f.NTAStepDownFactor.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("nta step-down factor must be within (0,1]")
	}
	return nil
}

func (m *MAPlan) validate() error {
	switch m.Mode {
	case MAFlat:
		if !m.FlatPerDiem.IsPositive() {
			return fmt.Errorf("flat contract requires a positive per-diem")
		}
	case MATiered:
		if len(m.Tiers) == 0 {
			return fmt.Errorf("tiered contract requires day tiers")
		}
		if m.Tiers[len(m.Tiers)-1].ThroughDay != 0 {
			return fmt.Errorf("final day tier must be open-ended (through_day 0)")
		}
		prev := 0
		for i, t := range m.Tiers[:len(m.Tiers)-1] {
			if t.ThroughDay <= prev {
				return fmt.Errorf("tier %d: through_day %d not increasing", i, t.ThroughDay)
			}
			prev = t.ThroughDay
		}
	case MAPDPMMapped:
		if m.FFS == nil {
			return fmt.Errorf("pdpm-mapped contract requires ffs tables")
		}
		if !m.Multiplier.IsPositive() {
			return fmt.Errorf("pdpm-mapped contract requires a positive multiplier")
		}
		return m.FFS.validate()
	default:
		return fmt.Errorf("unknown ma contract mode %q", m.Mode)
	}
	return nil
}
