package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/snfadmit/snfadmit/internal/costing"
	"github.com/snfadmit/snfadmit/internal/domain/admission"
	"github.com/snfadmit/snfadmit/internal/domain/facility"
	"github.com/snfadmit/snfadmit/internal/domain/rates"
	"github.com/snfadmit/snfadmit/internal/pdpm"
	"github.com/snfadmit/snfadmit/internal/platform/audit"
	"github.com/snfadmit/snfadmit/internal/platform/middleware"
	"github.com/snfadmit/snfadmit/internal/reimburse"
)

func intPtr(v int) *int { return &v }

func TestFacilityCRUD(t *testing.T) {
	ctx := context.Background()
	pool := globalDB.Pool

	fac := createTestFacility(t, ctx, pool, "Crud Test SNF", uniqueCode("CRUD"))
	if fac.ID == uuid.Nil {
		t.Fatal("expected facility ID to be assigned")
	}

	err := withConn(ctx, pool, func(ctx context.Context) error {
		svc := facility.NewService(facility.NewRepoPG(pool))

		got, err := svc.Get(ctx, fac.ID)
		if err != nil {
			return err
		}
		if got.Name != "Crud Test SNF" {
			t.Errorf("Name = %q, want %q", got.Name, "Crud Test SNF")
		}
		if !got.WageIndex.Equal(decimal.NewFromInt(1)) {
			t.Errorf("WageIndex = %s, want 1", got.WageIndex)
		}

		got.Name = "Crud Test SNF Renamed"
		got.CensusPriority = 0.9
		if err := svc.Update(ctx, got); err != nil {
			return err
		}

		updated, err := svc.Get(ctx, fac.ID)
		if err != nil {
			return err
		}
		if updated.Name != "Crud Test SNF Renamed" {
			t.Errorf("updated Name = %q", updated.Name)
		}
		if updated.CensusPriority != 0.9 {
			t.Errorf("updated CensusPriority = %v, want 0.9", updated.CensusPriority)
		}

		list, total, err := svc.List(ctx, 100, 0)
		if err != nil {
			return err
		}
		if total < 1 || len(list) < 1 {
			t.Errorf("List returned %d items (total %d), want at least 1", len(list), total)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("facility CRUD: %v", err)
	}
}

func TestRateResolution(t *testing.T) {
	ctx := context.Background()
	pool := globalDB.Pool

	fac := createTestFacility(t, ctx, pool, "Rate Test SNF", uniqueCode("RATE"))
	payer := createTestPayer(t, ctx, pool, "Rate Test Medicare", reimburse.PayerMedicareFFS)

	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jul1 := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	// Two contracts: the older one closed at the newer one's start.
	var old *rates.RateRecord
	err := withConn(ctx, pool, func(ctx context.Context) error {
		svc := newRatesService(pool)
		old = &rates.RateRecord{
			FacilityID:    fac.ID,
			PayerID:       payer.ID,
			PayerType:     payer.Type,
			EffectiveFrom: jan1,
			EffectiveTo:   &jul1,
			Plan:          planFor(payer.Type),
		}
		return svc.CreateRate(ctx, old)
	})
	if err != nil {
		t.Fatalf("create first rate: %v", err)
	}
	createTestRate(t, ctx, pool, fac, payer, jul1)

	err = withConn(ctx, pool, func(ctx context.Context) error {
		svc := newRatesService(pool)

		// March falls inside the first contract.
		got, err := svc.ResolveActive(ctx, fac.ID, payer.Type, jan1.AddDate(0, 2, 0))
		if err != nil {
			return err
		}
		if got.ID != old.ID {
			t.Errorf("resolved %s for March, want first contract %s", got.ID, old.ID)
		}

		// September falls inside the second contract.
		got, err = svc.ResolveActive(ctx, fac.ID, payer.Type, jul1.AddDate(0, 2, 0))
		if err != nil {
			return err
		}
		if got.ID == old.ID {
			t.Error("September resolved to the superseded contract")
		}

		// Before any contract starts there is no active rate.
		_, err = svc.ResolveActive(ctx, fac.ID, payer.Type, jan1.AddDate(0, -1, 0))
		if !errors.Is(err, rates.ErrNoActiveRate) {
			t.Errorf("pre-contract resolve err = %v, want ErrNoActiveRate", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("rate resolution: %v", err)
	}
}

func TestCostModelRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := globalDB.Pool

	fac := createTestFacility(t, ctx, pool, "Cost Test SNF", uniqueCode("COST"))

	err := withConn(ctx, pool, func(ctx context.Context) error {
		svc := newRatesService(pool)

		custom := costing.DefaultModel(costing.BandHigh)
		custom.HourlyRate = decimal.NewFromInt(60)
		rec := &rates.CostModelRecord{
			FacilityID: fac.ID,
			AcuityBand: costing.BandHigh,
			Model:      custom,
		}
		if err := svc.CreateCostModel(ctx, rec); err != nil {
			return err
		}

		got, err := svc.CostModelFor(ctx, fac.ID, costing.BandHigh)
		if err != nil {
			return err
		}
		if !got.HourlyRate.Equal(decimal.NewFromInt(60)) {
			t.Errorf("HourlyRate = %s, want 60", got.HourlyRate)
		}

		// Bands without a stored model fall back to defaults.
		fallback, err := svc.CostModelFor(ctx, fac.ID, costing.BandLow)
		if err != nil {
			return err
		}
		def := costing.DefaultModel(costing.BandLow)
		if !fallback.HourlyRate.Equal(def.HourlyRate) {
			t.Errorf("fallback HourlyRate = %s, want default %s",
				fallback.HourlyRate, def.HourlyRate)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("cost model round trip: %v", err)
	}
}

func TestAdmissionPipeline(t *testing.T) {
	ctx := context.Background()
	pool := globalDB.Pool

	fac := createTestFacility(t, ctx, pool, "Pipeline Test SNF", uniqueCode("PIPE"))
	payer := createTestPayer(t, ctx, pool, "Pipeline Medicare", reimburse.PayerMedicareFFS)
	rate := createTestRate(t, ctx, pool, fac, payer,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	facilitySvc := facility.NewService(facility.NewRepoPG(pool))
	ratesSvc := newRatesService(pool)
	admitSvc := admission.NewService(admission.NewRepoPG(pool), facilitySvc, ratesSvc)

	var admitted *admission.Admission
	err := withConn(ctx, pool, func(ctx context.Context) error {
		req := &admission.EvaluateRequest{
			FacilityID:      fac.ID,
			PatientInitials: "JD",
			ReferralSource:  "Mercy General",
			PayerType:       string(reimburse.PayerMedicareFFS),
			AuthStatus:      string(costing.AuthApproved),
			AsOf:            time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			Features: pdpm.ClinicalFeatures{
				PrimaryDiagnosis:      "M17.11",
				FunctionScore:         intPtr(14),
				CognitiveScore:        intPtr(13),
				TherapyMinutesPerWeek: 500,
			},
		}
		a, err := admitSvc.Evaluate(ctx, req)
		if err != nil {
			return err
		}
		admitted = a
		return nil
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if admitted.Status != admission.StatusEvaluated {
		t.Errorf("Status = %s, want evaluated", admitted.Status)
	}
	if admitted.RateRecordID != rate.ID {
		t.Errorf("RateRecordID = %s, want %s", admitted.RateRecordID, rate.ID)
	}
	if admitted.LOS <= 0 {
		t.Errorf("LOS = %d, want a positive classifier estimate", admitted.LOS)
	}
	if admitted.Classification.PTGroup == "" || admitted.Classification.NursingGroup == "" {
		t.Errorf("incomplete classification: %+v", admitted.Classification)
	}
	if !admitted.Revenue.Total.IsPositive() {
		t.Errorf("Revenue.Total = %s, want positive", admitted.Revenue.Total)
	}
	if !admitted.Cost.Total.IsPositive() {
		t.Errorf("Cost.Total = %s, want positive", admitted.Cost.Total)
	}
	if admitted.Score.Recommendation == "" {
		t.Error("missing recommendation")
	}

	err = withConn(ctx, pool, func(ctx context.Context) error {
		// A what-if run with a longer stay appends to history without
		// touching the stored result.
		eval, err := admitSvc.Recalculate(ctx, admitted.ID, &admission.RecalculateRequest{
			ProjectedLOS: intPtr(admitted.LOS + 10),
		})
		if err != nil {
			return err
		}
		if eval.LOS != admitted.LOS+10 {
			t.Errorf("recalculated LOS = %d, want %d", eval.LOS, admitted.LOS+10)
		}

		stored, err := admitSvc.Get(ctx, admitted.ID)
		if err != nil {
			return err
		}
		if stored.LOS != admitted.LOS {
			t.Errorf("stored LOS changed to %d after recalculation", stored.LOS)
		}

		history, err := admitSvc.History(ctx, admitted.ID)
		if err != nil {
			return err
		}
		if len(history) != 2 {
			t.Fatalf("history has %d entries, want 2", len(history))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	err = withConn(ctx, pool, func(ctx context.Context) error {
		decided, err := admitSvc.Decide(ctx, admitted.ID, admission.StatusAccepted, "intake-nurse", "bed available")
		if err != nil {
			return err
		}
		if decided.Status != admission.StatusAccepted {
			t.Errorf("Status = %s, want accepted", decided.Status)
		}
		if decided.DecidedBy == nil || *decided.DecidedBy != "intake-nurse" {
			t.Errorf("DecidedBy = %v, want intake-nurse", decided.DecidedBy)
		}

		// A second decision must be rejected.
		_, err = admitSvc.Decide(ctx, admitted.ID, admission.StatusDeclined, "intake-nurse", "")
		if !errors.Is(err, admission.ErrAlreadyDecided) {
			t.Errorf("second decision err = %v, want ErrAlreadyDecided", err)
		}

		// A stale writer that read the row before the decision landed must
		// lose at the database: the update is guarded on the evaluated
		// status, not just the service's pre-check.
		now := time.Now().UTC()
		staleBy := "night-shift"
		stale := *decided
		stale.Status = admission.StatusDeclined
		stale.DecidedBy = &staleBy
		stale.DecidedAt = &now
		repo := admission.NewRepoPG(pool)
		if err := repo.UpdateDecision(ctx, &stale); !errors.Is(err, admission.ErrAlreadyDecided) {
			t.Errorf("stale UpdateDecision err = %v, want ErrAlreadyDecided", err)
		}
		persisted, err := admitSvc.Get(ctx, admitted.ID)
		if err != nil {
			return err
		}
		if persisted.Status != admission.StatusAccepted {
			t.Errorf("status = %s after stale write, want accepted", persisted.Status)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
}

func TestAdmissionEvaluate_NoRateConfigured(t *testing.T) {
	ctx := context.Background()
	pool := globalDB.Pool

	fac := createTestFacility(t, ctx, pool, "No Rate SNF", uniqueCode("NORATE"))

	facilitySvc := facility.NewService(facility.NewRepoPG(pool))
	ratesSvc := newRatesService(pool)
	admitSvc := admission.NewService(admission.NewRepoPG(pool), facilitySvc, ratesSvc)

	err := withConn(ctx, pool, func(ctx context.Context) error {
		_, err := admitSvc.Evaluate(ctx, &admission.EvaluateRequest{
			FacilityID:      fac.ID,
			PatientInitials: "NR",
			PayerType:       string(reimburse.PayerMedicaid),
			Features:        pdpm.ClinicalFeatures{PrimaryDiagnosis: "I63.9"},
		})
		if !errors.Is(err, rates.ErrNoActiveRate) {
			t.Errorf("err = %v, want ErrNoActiveRate", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("evaluate without rate: %v", err)
	}
}

func TestAuditStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := globalDB.Pool

	store := audit.NewStore(pool)
	userID := "audit-rt-" + uuid.New().String()[:8]

	entries := []middleware.AuditEntry{
		{
			UserID:       userID,
			UserRoles:    []string{"intake"},
			ResourceType: "Admission",
			ResourceID:   uuid.New().String(),
			Action:       "create",
			IPAddress:    "10.0.0.1",
			Path:         "/api/v1/admissions/evaluate",
			Method:       "POST",
			Timestamp:    time.Now().UTC(),
			RequestID:    uuid.New().String(),
			StatusCode:   201,
		},
		{
			UserID:       userID,
			UserRoles:    []string{"intake"},
			ResourceType: "Admission",
			ResourceID:   uuid.New().String(),
			Action:       "read",
			IPAddress:    "10.0.0.1",
			Path:         "/api/v1/admissions",
			Method:       "GET",
			Timestamp:    time.Now().UTC(),
			RequestID:    uuid.New().String(),
			StatusCode:   200,
		},
	}
	for i, e := range entries {
		if err := store.RecordAccess(e); err != nil {
			t.Fatalf("record entry %d: %v", i, err)
		}
	}

	got, total, err := store.List(ctx, audit.ListParams{UserID: userID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("List returned %d entries (total %d), want 2", len(got), total)
	}
	// Newest first.
	if got[0].Action != "read" || got[1].Action != "create" {
		t.Errorf("order = [%s %s], want [read create]", got[0].Action, got[1].Action)
	}
	if got[0].StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", got[0].StatusCode)
	}
	if len(got[1].UserRoles) != 1 || got[1].UserRoles[0] != "intake" {
		t.Errorf("UserRoles = %v, want [intake]", got[1].UserRoles)
	}

	filtered, total, err := store.List(ctx, audit.ListParams{UserID: userID, Action: "create"})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if total != 1 || len(filtered) != 1 {
		t.Fatalf("filtered List returned %d entries (total %d), want 1", len(filtered), total)
	}
}
