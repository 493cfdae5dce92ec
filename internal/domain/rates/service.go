package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/snfadmit/snfadmit/internal/costing"
	"github.com/snfadmit/snfadmit/internal/reimburse"
)

// ErrOverlappingRates is returned when writing a rate record whose
// effective interval collides with an existing record for the same
// facility and payer type.
var ErrOverlappingRates = errors.New("rate record interval overlaps an existing record")

// Service owns payer, rate, and cost-model configuration rules.
type Service struct {
	payers     PayerRepository
	rates      RateRepository
	costModels CostModelRepository
}

func NewService(payers PayerRepository, rates RateRepository, costModels CostModelRepository) *Service {
	return &Service{payers: payers, rates: rates, costModels: costModels}
}

// -- Payers --

func (s *Service) CreatePayer(ctx context.Context, p *Payer) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !reimburse.ValidPayerType(string(p.Type)) {
		return fmt.Errorf("unknown payer_type %q", p.Type)
	}
	p.Active = true
	return s.payers.Create(ctx, p)
}

func (s *Service) GetPayer(ctx context.Context, id uuid.UUID) (*Payer, error) {
	return s.payers.GetByID(ctx, id)
}

func (s *Service) UpdatePayer(ctx context.Context, p *Payer) error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !reimburse.ValidPayerType(string(p.Type)) {
		return fmt.Errorf("unknown payer_type %q", p.Type)
	}
	return s.payers.Update(ctx, p)
}

func (s *Service) DeletePayer(ctx context.Context, id uuid.UUID) error {
	return s.payers.Delete(ctx, id)
}

func (s *Service) ListPayers(ctx context.Context, limit, offset int) ([]*Payer, int, error) {
	return s.payers.List(ctx, limit, offset)
}

// -- Rate records --

func (s *Service) validateRate(rec *RateRecord) error {
	if rec.FacilityID == uuid.Nil {
		return fmt.Errorf("facility_id is required")
	}
	if rec.PayerID == uuid.Nil {
		return fmt.Errorf("payer_id is required")
	}
	if rec.EffectiveFrom.IsZero() {
		return fmt.Errorf("effective_from is required")
	}
	if rec.EffectiveTo != nil && !rec.EffectiveFrom.Before(*rec.EffectiveTo) {
		return fmt.Errorf("effective_from must precede effective_to")
	}
	if rec.PayerType != rec.Plan.Payer {
		return fmt.Errorf("payer_type %q does not match plan payer %q", rec.PayerType, rec.Plan.Payer)
	}
	if err := rec.Plan.Validate(); err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	return nil
}

// checkOverlap enforces the non-overlap invariant against the stored
// records, ignoring the record itself on update.
func (s *Service) checkOverlap(ctx context.Context, rec *RateRecord) error {
	existing, err := s.rates.ListByFacilityPayer(ctx, rec.FacilityID, rec.PayerType)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == rec.ID {
			continue
		}
		if rec.Overlaps(other) {
			return fmt.Errorf("%w: %s", ErrOverlappingRates, other.ID)
		}
	}
	return nil
}

func (s *Service) CreateRate(ctx context.Context, rec *RateRecord) error {
	if err := s.validateRate(rec); err != nil {
		return err
	}
	if err := s.checkOverlap(ctx, rec); err != nil {
		return err
	}
	return s.rates.Create(ctx, rec)
}

func (s *Service) GetRate(ctx context.Context, id uuid.UUID) (*RateRecord, error) {
	return s.rates.GetByID(ctx, id)
}

func (s *Service) UpdateRate(ctx context.Context, rec *RateRecord) error {
	if rec.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	if err := s.validateRate(rec); err != nil {
		return err
	}
	if err := s.checkOverlap(ctx, rec); err != nil {
		return err
	}
	return s.rates.Update(ctx, rec)
}

func (s *Service) DeleteRate(ctx context.Context, id uuid.UUID) error {
	return s.rates.Delete(ctx, id)
}

func (s *Service) ListRatesByFacility(ctx context.Context, facilityID uuid.UUID, limit, offset int) ([]*RateRecord, int, error) {
	return s.rates.ListByFacility(ctx, facilityID, limit, offset)
}

// ResolveActive fetches the configured records for a facility and payer
// type and picks the one covering asOf.
func (s *Service) ResolveActive(ctx context.Context, facilityID uuid.UUID, payerType reimburse.PayerType, asOf time.Time) (*RateRecord, error) {
	records, err := s.rates.ListByFacilityPayer(ctx, facilityID, payerType)
	if err != nil {
		return nil, err
	}
	return Resolve(records, asOf)
}

// -- Cost models --

func (s *Service) CreateCostModel(ctx context.Context, m *CostModelRecord) error {
	if m.FacilityID == uuid.Nil {
		return fmt.Errorf("facility_id is required")
	}
	if !costing.ValidAcuityBand(string(m.AcuityBand)) {
		return fmt.Errorf("unknown acuity_band %q", m.AcuityBand)
	}
	if existing, err := s.costModels.GetByFacilityBand(ctx, m.FacilityID, m.AcuityBand); err == nil && existing != nil {
		return fmt.Errorf("cost model for band %s already exists", m.AcuityBand)
	}
	m.Model.AcuityBand = m.AcuityBand
	return s.costModels.Create(ctx, m)
}

func (s *Service) GetCostModel(ctx context.Context, id uuid.UUID) (*CostModelRecord, error) {
	return s.costModels.GetByID(ctx, id)
}

func (s *Service) UpdateCostModel(ctx context.Context, m *CostModelRecord) error {
	if m.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	m.Model.AcuityBand = m.AcuityBand
	return s.costModels.Update(ctx, m)
}

func (s *Service) DeleteCostModel(ctx context.Context, id uuid.UUID) error {
	return s.costModels.Delete(ctx, id)
}

func (s *Service) ListCostModelsByFacility(ctx context.Context, facilityID uuid.UUID, limit, offset int) ([]*CostModelRecord, int, error) {
	return s.costModels.ListByFacility(ctx, facilityID, limit, offset)
}

// CostModelFor returns the facility's configured model for a band, falling
// back to the standard model when none is configured.
func (s *Service) CostModelFor(ctx context.Context, facilityID uuid.UUID, band costing.AcuityBand) (costing.Model, error) {
	rec, err := s.costModels.GetByFacilityBand(ctx, facilityID, band)
	if errors.Is(err, pgx.ErrNoRows) {
		return costing.DefaultModel(band), nil
	}
	if err != nil {
		return costing.Model{}, err
	}
	return rec.Model, nil
}
