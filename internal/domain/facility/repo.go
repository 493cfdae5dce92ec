package facility

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence interface for facilities.
type Repository interface {
	Create(ctx context.Context, f *Facility) error
	GetByID(ctx context.Context, id uuid.UUID) (*Facility, error)
	GetByCode(ctx context.Context, code string) (*Facility, error)
	Update(ctx context.Context, f *Facility) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Facility, int, error)
}
