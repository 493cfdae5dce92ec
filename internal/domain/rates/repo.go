package rates

import (
	"context"

	"github.com/google/uuid"

	"github.com/snfadmit/snfadmit/internal/costing"
	"github.com/snfadmit/snfadmit/internal/reimburse"
)

// PayerRepository is the persistence interface for payers.
type PayerRepository interface {
	Create(ctx context.Context, p *Payer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payer, error)
	Update(ctx context.Context, p *Payer) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Payer, int, error)
}

// RateRepository is the persistence interface for rate records.
type RateRepository interface {
	Create(ctx context.Context, r *RateRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*RateRecord, error)
	Update(ctx context.Context, r *RateRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByFacility(ctx context.Context, facilityID uuid.UUID, limit, offset int) ([]*RateRecord, int, error)
	ListByFacilityPayer(ctx context.Context, facilityID uuid.UUID, payerType reimburse.PayerType) ([]*RateRecord, error)
}

// CostModelRepository is the persistence interface for cost model records.
type CostModelRepository interface {
	Create(ctx context.Context, m *CostModelRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*CostModelRecord, error)
	GetByFacilityBand(ctx context.Context, facilityID uuid.UUID, band costing.AcuityBand) (*CostModelRecord, error)
	Update(ctx context.Context, m *CostModelRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByFacility(ctx context.Context, facilityID uuid.UUID, limit, offset int) ([]*CostModelRecord, int, error)
}
