package facility

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/snfadmit/snfadmit/internal/scoring"
)

// Service owns facility configuration rules.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(f *Facility) error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if f.Code == "" {
		return fmt.Errorf("code is required")
	}
	if !f.WageIndex.IsPositive() {
		return fmt.Errorf("wage_index must be positive")
	}
	if !f.VBPMultiplier.IsPositive() {
		return fmt.Errorf("vbp_multiplier must be positive")
	}
	if f.CensusPriority < 0 || f.CensusPriority > 1 {
		return fmt.Errorf("census_priority must be within [0,1]")
	}
	if err := f.Thresholds.Validate(); err != nil {
		return fmt.Errorf("score_thresholds: %w", err)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, f *Facility) error {
	if f.WageIndex.IsZero() {
		f.WageIndex = decimal.NewFromInt(1)
	}
	if f.VBPMultiplier.IsZero() {
		f.VBPMultiplier = decimal.NewFromInt(1)
	}
	if f.BusinessWeights == (scoring.Weights{}) {
		f.BusinessWeights = scoring.DefaultWeights()
	}
	if f.Thresholds == (scoring.Thresholds{}) {
		f.Thresholds = scoring.DefaultThresholds()
	}
	f.Active = true
	if err := s.validate(f); err != nil {
		return err
	}
	return s.repo.Create(ctx, f)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Facility, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Facility, error) {
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) Update(ctx context.Context, f *Facility) error {
	if f.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	if err := s.validate(f); err != nil {
		return err
	}
	return s.repo.Update(ctx, f)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Facility, int, error) {
	return s.repo.List(ctx, limit, offset)
}
