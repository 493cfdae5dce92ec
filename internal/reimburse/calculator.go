// Package reimburse computes itemized expected revenue for an admission
// under a resolved payer rate plan. Every revenue line is rounded to cents
// and the projection total is the exact sum of its rounded lines.
package reimburse

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/snfadmit/snfadmit/internal/pdpm"
)

// MaxLOS is the default ceiling for a projected length of stay, in days.
const MaxLOS = 100

// ErrInvalidLOS is returned when the projected length of stay is outside
// the supported range.
var ErrInvalidLOS = errors.New("length of stay out of range")

// Inputs carries everything a payer calculation needs besides the plan.
type Inputs struct {
	Class    pdpm.Classification
	Features pdpm.ClinicalFeatures
	LOS      int

	// WageIndex and VBPMultiplier default to 1 when zero. Only the
	// Medicare FFS calculation uses them.
	WageIndex     decimal.Decimal
	VBPMultiplier decimal.Decimal

	// MaxLOS overrides the default ceiling when positive.
	MaxLOS int
}

// Line is one itemized revenue component. PerDiem is the day-one rate for
// the component; Amount is the component total over the stay, rounded to
// cents.
type Line struct {
	Component string          `json:"component"`
	PerDiem   decimal.Decimal `json:"per_diem"`
	Amount    decimal.Decimal `json:"amount"`
}

// Revenue is an itemized projection. Total equals the sum of line amounts.
type Revenue struct {
	Payer   PayerType       `json:"payer"`
	Lines   []Line          `json:"lines"`
	Total   decimal.Decimal `json:"total"`
	PerDiem decimal.Decimal `json:"per_diem"`
}

var one = decimal.NewFromInt(1)

// Calculate prices an admission under plan. The plan must have passed
// Validate; malformed plans produce errors, never panics.
func Calculate(plan Plan, in Inputs) (Revenue, error) {
	ceiling := MaxLOS
	if in.MaxLOS > 0 {
		ceiling = in.MaxLOS
	}
	if in.LOS < 1 || in.LOS > ceiling {
		return Revenue{}, fmt.Errorf("%w: %d days (supported 1..%d)", ErrInvalidLOS, in.LOS, ceiling)
	}

	var (
		lines []Line
		err   error
	)
	switch plan.Payer {
	case PayerMedicareFFS:
		if plan.FFS == nil {
			return Revenue{}, fmt.Errorf("payer %s: missing ffs payload", plan.Payer)
		}
		lines, err = ffsLines(plan.FFS, in, orOne(in.WageIndex), orOne(in.VBPMultiplier))
	case PayerMedicareAdvantage:
		if plan.MA == nil {
			return Revenue{}, fmt.Errorf("payer %s: missing ma payload", plan.Payer)
		}
		lines, err = maLines(plan.MA, in)
	case PayerMedicaid:
		if plan.Medicaid == nil {
			return Revenue{}, fmt.Errorf("payer %s: missing medicaid payload", plan.Payer)
		}
		lines = medicaidLines(plan.Medicaid, in)
	case PayerMCO:
		if plan.MCO == nil {
			return Revenue{}, fmt.Errorf("payer %s: missing mco payload", plan.Payer)
		}
		lines, err = mcoLines(plan.MCO, in)
	default:
		return Revenue{}, fmt.Errorf("unknown payer type %q", plan.Payer)
	}
	if err != nil {
		return Revenue{}, err
	}

	rev := Revenue{Payer: plan.Payer, Lines: lines}
	for _, l := range rev.Lines {
		rev.Total = rev.Total.Add(l.Amount)
	}
	rev.PerDiem = rev.Total.Div(decimal.NewFromInt(int64(in.LOS))).Round(2)
	return rev, nil
}

func orOne(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return one
	}
	return d
}

// wageAdjust applies the labor-share wage index adjustment:
// rate x (share x index + (1 - share)).
func wageAdjust(rate, share, index decimal.Decimal) decimal.Decimal {
	return rate.Mul(share.Mul(index).Add(one.Sub(share)))
}

func ffsLines(f *FFSPlan, in Inputs, wageIndex, vbp decimal.Decimal) ([]Line, error) {
	los := decimal.NewFromInt(int64(in.LOS))

	ptRate, ok := f.PTRates[in.Class.PTGroup]
	if !ok {
		return nil, fmt.Errorf("ffs plan has no pt rate for group %s", in.Class.PTGroup)
	}
	otRate, ok := f.OTRates[in.Class.OTGroup]
	if !ok {
		return nil, fmt.Errorf("ffs plan has no ot rate for group %s", in.Class.OTGroup)
	}
	nursingRate, ok := f.NursingRates[in.Class.NursingGroup]
	if !ok {
		return nil, fmt.Errorf("ffs plan has no nursing rate for group %s", in.Class.NursingGroup)
	}
	ntaRate, ok := f.NTARates[in.Class.NTABand]
	if !ok {
		return nil, fmt.Errorf("ffs plan has no nta rate for band %s", in.Class.NTABand)
	}

	// PT and OT decline over the stay per the variable per-diem schedule.
	vpdDays := decimal.Zero
	for day := 1; day <= in.LOS; day++ {
		vpdDays = vpdDays.Add(f.TherapyVPD.FactorFor(day))
	}

	ptAdj := wageAdjust(ptRate, f.LaborShare, wageIndex)
	otAdj := wageAdjust(otRate, f.LaborShare, wageIndex)
	nursingAdj := wageAdjust(nursingRate, f.LaborShare, wageIndex).Mul(vbp)

	lines := []Line{
		{Component: "pt", PerDiem: ptAdj.Round(2), Amount: ptAdj.Mul(vpdDays).Round(2)},
		{Component: "ot", PerDiem: otAdj.Round(2), Amount: otAdj.Mul(vpdDays).Round(2)},
	}

	if in.Class.SLPGroup != pdpm.GroupSLPNone {
		slpRate, ok := f.SLPRates[in.Class.SLPGroup]
		if !ok {
			return nil, fmt.Errorf("ffs plan has no slp rate for group %s", in.Class.SLPGroup)
		}
		slpAdj := wageAdjust(slpRate, f.LaborShare, wageIndex)
		lines = append(lines, Line{Component: "slp", PerDiem: slpAdj.Round(2), Amount: slpAdj.Mul(los).Round(2)})
	}

	lines = append(lines, Line{Component: "nursing", PerDiem: nursingAdj.Round(2), Amount: nursingAdj.Mul(los).Round(2)})

	// NTA pays the full band rate through the configured window, then the
	// contract step-down factor of it for the remainder of the stay.
	fullDays := in.LOS
	if fullDays > f.NTAFullThroughDay {
		fullDays = f.NTAFullThroughDay
	}
	ntaDays := decimal.NewFromInt(int64(fullDays))
	if rest := in.LOS - fullDays; rest > 0 {
		ntaDays = ntaDays.Add(f.NTAStepDownFactor.Mul(decimal.NewFromInt(int64(rest))))
	}
	lines = append(lines,
		Line{Component: "nta", PerDiem: ntaRate.Round(2), Amount: ntaRate.Mul(ntaDays).Round(2)},
		Line{Component: "non_case_mix", PerDiem: f.NonCaseMix.Round(2), Amount: f.NonCaseMix.Mul(los).Round(2)},
	)
	return lines, nil
}

func maLines(m *MAPlan, in Inputs) ([]Line, error) {
	los := decimal.NewFromInt(int64(in.LOS))

	switch m.Mode {
	case MAFlat:
		return []Line{{
			Component: "contract_per_diem",
			PerDiem:   m.FlatPerDiem.Round(2),
			Amount:    m.FlatPerDiem.Mul(los).Round(2),
		}}, nil

	case MATiered:
		var lines []Line
		prev := 0
		for i, tier := range m.Tiers {
			if prev >= in.LOS {
				break
			}
			upper := in.LOS
			if tier.ThroughDay != 0 && tier.ThroughDay < upper {
				upper = tier.ThroughDay
			}
			days := upper - prev
			lines = append(lines, Line{
				Component: fmt.Sprintf("tier_%d", i+1),
				PerDiem:   tier.Rate.Round(2),
				Amount:    tier.Rate.Mul(decimal.NewFromInt(int64(days))).Round(2),
			})
			prev = upper
		}
		return lines, nil

	case MAPDPMMapped:
		// Contract pays a fraction of the FFS tables with wage index and
		// VBP neutralized.
		base, err := ffsLines(m.FFS, in, one, one)
		if err != nil {
			return nil, err
		}
		for i := range base {
			base[i].PerDiem = base[i].PerDiem.Mul(m.Multiplier).Round(2)
			base[i].Amount = base[i].Amount.Mul(m.Multiplier).Round(2)
		}
		return base, nil

	default:
		return nil, fmt.Errorf("unknown ma contract mode %q", m.Mode)
	}
}

// medicaidAddOnFlags maps add-on keys to the clinical flag that triggers
// them.
func medicaidAddOnFlags(f pdpm.ClinicalFeatures) map[string]bool {
	return map[string]bool{
		"ventilator":     f.Ventilator,
		"tracheostomy":   f.Tracheostomy,
		"bariatric":      f.Bariatric,
		"iv_antibiotics": f.IVAntibiotics,
		"wound_vac":      f.WoundVac,
		"dialysis":       f.Dialysis,
		"feeding_tube":   f.FeedingTube,
	}
}

func medicaidLines(m *MedicaidPlan, in Inputs) []Line {
	los := decimal.NewFromInt(int64(in.LOS))
	lines := []Line{{
		Component: "base_per_diem",
		PerDiem:   m.BasePerDiem.Round(2),
		Amount:    m.BasePerDiem.Mul(los).Round(2),
	}}

	flags := medicaidAddOnFlags(in.Features)
	for _, key := range []string{"ventilator", "tracheostomy", "bariatric", "iv_antibiotics", "wound_vac", "dialysis", "feeding_tube"} {
		rate, ok := m.AddOns[key]
		if !ok || !flags[key] {
			continue
		}
		lines = append(lines, Line{
			Component: "addon_" + key,
			PerDiem:   rate.Round(2),
			Amount:    rate.Mul(los).Round(2),
		})
	}
	return lines
}

func mcoLines(m *MCOPlan, in Inputs) ([]Line, error) {
	los := decimal.NewFromInt(int64(in.LOS))

	nursingRate, ok := m.NursingRates[in.Class.NursingGroup]
	if !ok {
		return nil, fmt.Errorf("mco plan has no nursing rate for group %s", in.Class.NursingGroup)
	}
	ntaRate, ok := m.NTABandRates[in.Class.NTABand]
	if !ok {
		return nil, fmt.Errorf("mco plan has no nta rate for band %s", in.Class.NTABand)
	}
	return []Line{
		{Component: "nursing", PerDiem: nursingRate.Round(2), Amount: nursingRate.Mul(los).Round(2)},
		{Component: "nta", PerDiem: ntaRate.Round(2), Amount: ntaRate.Mul(los).Round(2)},
	}, nil
}
