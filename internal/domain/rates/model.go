package rates

import (
	"time"

	"github.com/google/uuid"

	"github.com/snfadmit/snfadmit/internal/costing"
	"github.com/snfadmit/snfadmit/internal/reimburse"
)

// Payer is a payment source a facility contracts with.
type Payer struct {
	ID        uuid.UUID           `db:"id" json:"id"`
	Name      string              `db:"name" json:"name"`
	Type      reimburse.PayerType `db:"payer_type" json:"payer_type"`
	Active    bool                `db:"active" json:"active"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt time.Time           `db:"updated_at" json:"updated_at"`
}

// RateRecord is one dated rate contract for a (facility, payer type) pair.
// The effective interval is half-open: [EffectiveFrom, EffectiveTo), with a
// nil EffectiveTo meaning open-ended. Intervals for the same facility and
// payer type must not overlap.
type RateRecord struct {
	ID         uuid.UUID           `db:"id" json:"id"`
	FacilityID uuid.UUID           `db:"facility_id" json:"facility_id"`
	PayerID    uuid.UUID           `db:"payer_id" json:"payer_id"`
	PayerType  reimburse.PayerType `db:"payer_type" json:"payer_type"`

	EffectiveFrom time.Time  `db:"effective_from" json:"effective_from"`
	EffectiveTo   *time.Time `db:"effective_to" json:"effective_to,omitempty"`

	Plan reimburse.Plan `db:"plan" json:"plan"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Covers reports whether asOf falls inside the record's effective interval.
func (r *RateRecord) Covers(asOf time.Time) bool {
	if asOf.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || asOf.Before(*r.EffectiveTo)
}

// Overlaps reports whether two effective intervals intersect.
func (r *RateRecord) Overlaps(other *RateRecord) bool {
	if r.EffectiveTo != nil && !other.EffectiveFrom.Before(*r.EffectiveTo) {
		return false
	}
	if other.EffectiveTo != nil && !r.EffectiveFrom.Before(*other.EffectiveTo) {
		return false
	}
	return true
}

// CostModelRecord is an acuity-banded cost model configured for a facility.
// One record per (facility, band).
type CostModelRecord struct {
	ID         uuid.UUID          `db:"id" json:"id"`
	FacilityID uuid.UUID          `db:"facility_id" json:"facility_id"`
	AcuityBand costing.AcuityBand `db:"acuity_band" json:"acuity_band"`

	Model costing.Model `db:"model" json:"model"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
