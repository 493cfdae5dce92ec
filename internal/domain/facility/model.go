package facility

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/snfadmit/snfadmit/internal/scoring"
)

// Facility is a skilled nursing facility with its payment geography and
// scoring configuration. WageIndex and VBPMultiplier feed the Medicare FFS
// calculation; weights and thresholds drive the margin scorer.
type Facility struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
	Code string    `db:"code" json:"code"`

	WageIndex     decimal.Decimal `db:"wage_index" json:"wage_index"`
	VBPMultiplier decimal.Decimal `db:"vbp_multiplier" json:"vbp_multiplier"`

	// CensusPriority is 0-1: how aggressively the facility currently wants
	// to fill beds. Updated by admissions staff as census moves.
	CensusPriority float64 `db:"census_priority" json:"census_priority"`

	BusinessWeights scoring.Weights    `db:"business_weights" json:"business_weights"`
	Thresholds      scoring.Thresholds `db:"score_thresholds" json:"score_thresholds"`

	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
