package admission

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence interface for admissions and their
// evaluation history.
type Repository interface {
	Create(ctx context.Context, a *Admission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)
	UpdateDecision(ctx context.Context, a *Admission) error
	ListByFacility(ctx context.Context, facilityID uuid.UUID, limit, offset int) ([]*Admission, int, error)
	List(ctx context.Context, limit, offset int) ([]*Admission, int, error)

	AddEvaluation(ctx context.Context, e *Evaluation) error
	ListEvaluations(ctx context.Context, admissionID uuid.UUID) ([]*Evaluation, error)
}
