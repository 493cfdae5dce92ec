package admission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snfadmit/snfadmit/internal/costing"
	"github.com/snfadmit/snfadmit/internal/domain/facility"
	"github.com/snfadmit/snfadmit/internal/domain/rates"
	"github.com/snfadmit/snfadmit/internal/pdpm"
	"github.com/snfadmit/snfadmit/internal/reimburse"
	"github.com/snfadmit/snfadmit/internal/scoring"
)

// ErrAlreadyDecided is returned when recording a decision on an admission
// that has one.
var ErrAlreadyDecided = errors.New("admission already has a decision")

// FacilityStore is the slice of the facility service the pipeline needs.
type FacilityStore interface {
	Get(ctx context.Context, id uuid.UUID) (*facility.Facility, error)
}

// RateStore is the slice of the rates service the pipeline needs.
type RateStore interface {
	ResolveActive(ctx context.Context, facilityID uuid.UUID, payerType reimburse.PayerType, asOf time.Time) (*rates.RateRecord, error)
	CostModelFor(ctx context.Context, facilityID uuid.UUID, band costing.AcuityBand) (costing.Model, error)
}

// Service runs the evaluation pipeline and owns the decision workflow.
type Service struct {
	repo       Repository
	facilities FacilityStore
	rates      RateStore

	tables  pdpm.Tables
	denials costing.DenialTable
}

func NewService(repo Repository, facilities FacilityStore, rateStore RateStore) *Service {
	return &Service{
		repo:       repo,
		facilities: facilities,
		rates:      rateStore,
		tables:     pdpm.DefaultTables(),
		denials:    costing.DefaultDenialTable(),
	}
}

// EvaluateRequest is the intake payload for a new referral evaluation.
type EvaluateRequest struct {
	FacilityID      uuid.UUID `json:"facility_id"`
	PatientInitials string    `json:"patient_initials"`
	ReferralSource  string    `json:"referral_source"`
	Notes           string    `json:"notes"`

	PayerType  string `json:"payer_type"`
	AuthStatus string `json:"auth_status"`

	// ProjectedLOS absent falls back to the classifier's estimate. An
	// explicit value is priced as given; out-of-range values fail the
	// calculator rather than being corrected.
	ProjectedLOS *int `json:"projected_los,omitempty"`

	// CensusPriority overrides the facility's current value for this
	// evaluation. BusinessWeights likewise overrides the facility's
	// scoring weights. Both default to the facility configuration.
	CensusPriority  *float64         `json:"census_priority,omitempty"`
	BusinessWeights *scoring.Weights `json:"business_weights,omitempty"`

	// AsOf selects the rate record; zero means today.
	AsOf time.Time `json:"as_of"`

	Features pdpm.ClinicalFeatures `json:"features"`
}

func (r *EvaluateRequest) validate() error {
	if r.FacilityID == uuid.Nil {
		return fmt.Errorf("facility_id is required")
	}
	initials := strings.TrimSpace(r.PatientInitials)
	if initials == "" {
		return fmt.Errorf("patient_initials is required")
	}
	if len(initials) > 3 {
		return fmt.Errorf("patient_initials must be at most 3 characters")
	}
	if !reimburse.ValidPayerType(r.PayerType) {
		return fmt.Errorf("unknown payer_type %q", r.PayerType)
	}
	if r.AuthStatus != "" && !costing.ValidAuthStatus(r.AuthStatus) {
		return fmt.Errorf("unknown auth_status %q", r.AuthStatus)
	}
	if r.CensusPriority != nil && (*r.CensusPriority < 0 || *r.CensusPriority > 1) {
		return fmt.Errorf("census_priority must be within [0,1]")
	}
	return nil
}

// pipelineResult is one full run of classify, resolve, price, cost, score.
type pipelineResult struct {
	rateRecordID   uuid.UUID
	los            int
	classification pdpm.Classification
	revenue        reimburse.Revenue
	cost           costing.Breakdown
	score          scoring.Result
}

func (s *Service) runPipeline(ctx context.Context, fac *facility.Facility, payerType reimburse.PayerType,
	authStatus costing.AuthStatus, features pdpm.ClinicalFeatures, projectedLOS *int, asOf time.Time,
	censusPriority float64, weights scoring.Weights, notes string) (*pipelineResult, error) {

	class := pdpm.Classify(s.tables, features)
	los := class.EstimatedLOS
	if projectedLOS != nil {
		los = *projectedLOS
	}

	rate, err := s.rates.ResolveActive(ctx, fac.ID, payerType, asOf)
	if err != nil {
		return nil, err
	}

	revenue, err := reimburse.Calculate(rate.Plan, reimburse.Inputs{
		Class:         class,
		Features:      features,
		LOS:           los,
		WageIndex:     fac.WageIndex,
		VBPMultiplier: fac.VBPMultiplier,
	})
	if err != nil {
		return nil, err
	}

	band := costing.BandForClassification(class)
	model, err := s.rates.CostModelFor(ctx, fac.ID, band)
	if err != nil {
		return nil, err
	}
	cost := costing.Estimate(model, costing.Inputs{
		Class:            class,
		Features:         features,
		LOS:              los,
		PayerType:        payerType,
		AuthStatus:       authStatus,
		ProjectedRevenue: revenue.Total,
		DenialTable:      s.denials,
	})

	score := scoring.Score(scoring.Inputs{
		Revenue:           revenue.Total,
		Cost:              cost.Total,
		LOS:               los,
		Class:             class,
		Features:          features,
		Notes:             notes,
		DenialProbability: cost.DenialProbability,
		CensusPriority:    censusPriority,
		Weights:           weights,
		Thresholds:        fac.Thresholds,
	})

	return &pipelineResult{
		rateRecordID:   rate.ID,
		los:            los,
		classification: class,
		revenue:        revenue,
		cost:           cost,
		score:          score,
	}, nil
}

// Evaluate runs the full pipeline for a new referral and persists the
// admission with its initial evaluation.
func (s *Service) Evaluate(ctx context.Context, req *EvaluateRequest) (*Admission, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	fac, err := s.facilities.Get(ctx, req.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("facility %s not found", req.FacilityID)
	}

	authStatus := costing.AuthStatus(req.AuthStatus)
	if authStatus == "" {
		authStatus = costing.AuthUnknown
	}
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	censusPriority := fac.CensusPriority
	if req.CensusPriority != nil {
		censusPriority = *req.CensusPriority
	}
	weights := fac.BusinessWeights
	if req.BusinessWeights != nil {
		weights = *req.BusinessWeights
	}

	res, err := s.runPipeline(ctx, fac, reimburse.PayerType(req.PayerType), authStatus,
		req.Features, req.ProjectedLOS, asOf, censusPriority, weights, req.Notes)
	if err != nil {
		return nil, err
	}

	a := &Admission{
		FacilityID:      fac.ID,
		PatientInitials: strings.ToUpper(strings.TrimSpace(req.PatientInitials)),
		ReferralSource:  req.ReferralSource,
		Notes:           req.Notes,
		PayerType:       reimburse.PayerType(req.PayerType),
		AuthStatus:      authStatus,
		LOS:             res.los,
		AsOf:            asOf,
		Features:        req.Features,
		RateRecordID:    res.rateRecordID,
		Classification:  res.classification,
		Revenue:         res.revenue,
		Cost:            res.cost,
		Score:           res.score,
		Status:          StatusEvaluated,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	if err := s.repo.AddEvaluation(ctx, s.evaluationFrom(a, censusPriority, res)); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) evaluationFrom(a *Admission, censusPriority float64, res *pipelineResult) *Evaluation {
	return &Evaluation{
		AdmissionID:    a.ID,
		LOS:            res.los,
		AuthStatus:     a.AuthStatus,
		CensusPriority: censusPriority,
		AsOf:           a.AsOf,
		Classification: res.classification,
		Revenue:        res.revenue,
		Cost:           res.cost,
		Score:          res.score,
	}
}

// RecalculateRequest adjusts what-if assumptions. Nil fields keep the
// admission's stored values.
type RecalculateRequest struct {
	ProjectedLOS   *int       `json:"projected_los,omitempty"`
	AuthStatus     *string    `json:"auth_status,omitempty"`
	CensusPriority *float64   `json:"census_priority,omitempty"`
	AsOf           *time.Time `json:"as_of,omitempty"`
}

// Recalculate reruns the pipeline with adjusted assumptions and appends
// the run to the admission's evaluation history. The admission's stored
// result is left untouched.
func (s *Service) Recalculate(ctx context.Context, id uuid.UUID, req *RecalculateRequest) (*Evaluation, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fac, err := s.facilities.Get(ctx, a.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("facility %s not found", a.FacilityID)
	}

	los := a.LOS
	if req.ProjectedLOS != nil {
		los = *req.ProjectedLOS
	}
	authStatus := a.AuthStatus
	if req.AuthStatus != nil {
		if !costing.ValidAuthStatus(*req.AuthStatus) {
			return nil, fmt.Errorf("unknown auth_status %q", *req.AuthStatus)
		}
		authStatus = costing.AuthStatus(*req.AuthStatus)
	}
	censusPriority := fac.CensusPriority
	if req.CensusPriority != nil {
		if *req.CensusPriority < 0 || *req.CensusPriority > 1 {
			return nil, fmt.Errorf("census_priority must be within [0,1]")
		}
		censusPriority = *req.CensusPriority
	}
	asOf := a.AsOf
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	res, err := s.runPipeline(ctx, fac, a.PayerType, authStatus, a.Features, &los, asOf, censusPriority, fac.BusinessWeights, a.Notes)
	if err != nil {
		return nil, err
	}

	e := s.evaluationFrom(a, censusPriority, res)
	e.AuthStatus = authStatus
	e.AsOf = asOf
	if err := s.repo.AddEvaluation(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Decide records the final intake decision. Only evaluated admissions can
// be decided, and only once.
func (s *Service) Decide(ctx context.Context, id uuid.UUID, decision Status, decidedBy, note string) (*Admission, error) {
	switch decision {
	case StatusAccepted, StatusDeferred, StatusDeclined:
	default:
		return nil, fmt.Errorf("decision must be accepted, deferred, or declined")
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusEvaluated {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyDecided, a.Status)
	}

	now := time.Now().UTC()
	a.Status = decision
	a.DecidedBy = &decidedBy
	a.DecidedAt = &now
	a.DecisionNote = note
	if err := s.repo.UpdateDecision(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, facilityID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	if facilityID != uuid.Nil {
		return s.repo.ListByFacility(ctx, facilityID, limit, offset)
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) History(ctx context.Context, id uuid.UUID) ([]*Evaluation, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListEvaluations(ctx, id)
}
