package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/snfadmit/snfadmit/internal/costing"
	"github.com/snfadmit/snfadmit/internal/domain/facility"
	"github.com/snfadmit/snfadmit/internal/domain/rates"
	"github.com/snfadmit/snfadmit/internal/reimburse"
	"github.com/snfadmit/snfadmit/internal/scoring"
)

// seedFacility creates one facility with a contract per payer type and a cost
// model per acuity band, all built from the published default tables.
func seedFacility(ctx context.Context, facilitySvc *facility.Service, ratesSvc *rates.Service, name, code string) error {
	fac := &facility.Facility{
		Name:            name,
		Code:            code,
		WageIndex:       decimal.NewFromInt(1),
		VBPMultiplier:   decimal.NewFromInt(1),
		CensusPriority:  0.5,
		BusinessWeights: scoring.DefaultWeights(),
		Thresholds:      scoring.DefaultThresholds(),
		Active:          true,
	}
	if err := facilitySvc.Create(ctx, fac); err != nil {
		return fmt.Errorf("create facility: %w", err)
	}

	effectiveFrom := time.Now().UTC().Truncate(24 * time.Hour)

	plans := []struct {
		name string
		plan reimburse.Plan
	}{
		{"Medicare Part A", reimburse.Plan{Payer: reimburse.PayerMedicareFFS, FFS: reimburse.DefaultFFSPlan()}},
		{"Medicare Advantage", reimburse.Plan{Payer: reimburse.PayerMedicareAdvantage, MA: reimburse.DefaultMATieredPlan()}},
		{"State Medicaid", reimburse.Plan{Payer: reimburse.PayerMedicaid, Medicaid: reimburse.DefaultMedicaidPlan()}},
		{"Managed Care", reimburse.Plan{Payer: reimburse.PayerMCO, MCO: reimburse.DefaultMCOPlan()}},
	}

	for _, p := range plans {
		payer := &rates.Payer{
			Name:   p.name,
			Type:   p.plan.Payer,
			Active: true,
		}
		if err := ratesSvc.CreatePayer(ctx, payer); err != nil {
			return fmt.Errorf("create payer %q: %w", p.name, err)
		}

		rec := &rates.RateRecord{
			FacilityID:    fac.ID,
			PayerID:       payer.ID,
			PayerType:     p.plan.Payer,
			EffectiveFrom: effectiveFrom,
			Plan:          p.plan,
		}
		if err := ratesSvc.CreateRate(ctx, rec); err != nil {
			return fmt.Errorf("create rate for %q: %w", p.name, err)
		}
	}

	bands := []costing.AcuityBand{costing.BandLow, costing.BandMedium, costing.BandHigh, costing.BandComplex}
	for _, band := range bands {
		model := &rates.CostModelRecord{
			FacilityID: fac.ID,
			AcuityBand: band,
			Model:      costing.DefaultModel(band),
		}
		if err := ratesSvc.CreateCostModel(ctx, model); err != nil {
			return fmt.Errorf("create cost model for band %s: %w", band, err)
		}
	}

	return nil
}
