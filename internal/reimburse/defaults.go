package reimburse

import (
	"github.com/shopspring/decimal"

	"github.com/snfadmit/snfadmit/internal/pdpm"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// uniformTherapyRates fills every therapy group with the same base rate.
// Contracts that negotiate per-group rates override individual entries.
func uniformTherapyRates(rate decimal.Decimal) map[pdpm.TherapyGroup]decimal.Decimal {
	groups := []pdpm.TherapyGroup{
		pdpm.GroupTA, pdpm.GroupTB, pdpm.GroupTC, pdpm.GroupTD,
		pdpm.GroupTE, pdpm.GroupTF, pdpm.GroupTG, pdpm.GroupTH,
		pdpm.GroupTI, pdpm.GroupTJ, pdpm.GroupTK, pdpm.GroupTL,
		pdpm.GroupTM, pdpm.GroupTN, pdpm.GroupTO, pdpm.GroupTP,
	}
	m := make(map[pdpm.TherapyGroup]decimal.Decimal, len(groups))
	for _, g := range groups {
		m[g] = rate
	}
	return m
}

func uniformNursingRates(rate decimal.Decimal) map[pdpm.NursingGroup]decimal.Decimal {
	return map[pdpm.NursingGroup]decimal.Decimal{
		pdpm.GroupES1: rate, pdpm.GroupES2: rate,
		pdpm.GroupHBS1: rate, pdpm.GroupHBS2: rate,
		pdpm.GroupLBS1: rate, pdpm.GroupLBS2: rate,
	}
}

func uniformSLPRates(rate decimal.Decimal) map[pdpm.SLPGroup]decimal.Decimal {
	return map[pdpm.SLPGroup]decimal.Decimal{
		pdpm.GroupSA: rate, pdpm.GroupSB: rate, pdpm.GroupSC: rate,
	}
}

// DefaultFFSPlan returns a Medicare FFS plan seeded with the published
// urban base rates. Real deployments replace these with the facility's
// filed rates.
func DefaultFFSPlan() *FFSPlan {
	return &FFSPlan{
		PTRates:      uniformTherapyRates(d(64.89)),
		OTRates:      uniformTherapyRates(d(64.38)),
		SLPRates:     uniformSLPRates(d(26.43)),
		NursingRates: uniformNursingRates(d(105.81)),
		NTARates: map[pdpm.NTABand]decimal.Decimal{
			pdpm.NTABandLow:    d(86.72),
			pdpm.NTABandMedium: d(86.72),
			pdpm.NTABandHigh:   d(86.72),
		},
		NonCaseMix:        d(98.13),
		LaborShare:        d(0.713),
		TherapyVPD:        DefaultTherapyVPD(),
		NTAFullThroughDay: 3,
		NTAStepDownFactor: d(1.0),
	}
}

// DefaultMATieredPlan returns a tiered Medicare Advantage contract with
// step-down per-diems at days 30 and 60.
func DefaultMATieredPlan() *MAPlan {
	return &MAPlan{
		Mode: MATiered,
		Tiers: []DayTier{
			{ThroughDay: 30, Rate: d(450)},
			{ThroughDay: 60, Rate: d(400)},
			{ThroughDay: 0, Rate: d(375)},
		},
	}
}

// DefaultMedicaidPlan returns a state Medicaid per-diem with the common
// high-acuity add-ons.
func DefaultMedicaidPlan() *MedicaidPlan {
	return &MedicaidPlan{
		BasePerDiem: d(325),
		AddOns: map[string]decimal.Decimal{
			"ventilator":     d(175),
			"tracheostomy":   d(125),
			"bariatric":      d(60),
			"iv_antibiotics": d(45),
		},
	}
}

// DefaultMCOPlan returns a managed-care rate matrix keyed by nursing group
// and ancillary band.
func DefaultMCOPlan() *MCOPlan {
	return &MCOPlan{
		NursingRates: map[pdpm.NursingGroup]decimal.Decimal{
			pdpm.GroupES1:  d(340),
			pdpm.GroupES2:  d(320),
			pdpm.GroupHBS1: d(300),
			pdpm.GroupHBS2: d(290),
			pdpm.GroupLBS1: d(280),
			pdpm.GroupLBS2: d(275),
		},
		NTABandRates: map[pdpm.NTABand]decimal.Decimal{
			pdpm.NTABandLow:    d(70),
			pdpm.NTABandMedium: d(85),
			pdpm.NTABandHigh:   d(100),
		},
	}
}
