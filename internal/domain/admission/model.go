package admission

import (
	"time"

	"github.com/google/uuid"

	"github.com/snfadmit/snfadmit/internal/costing"
	"github.com/snfadmit/snfadmit/internal/pdpm"
	"github.com/snfadmit/snfadmit/internal/reimburse"
	"github.com/snfadmit/snfadmit/internal/scoring"
)

// Status tracks an admission through its decision workflow. An admission is
// evaluated first; intake staff then record the final decision.
type Status string

const (
	StatusEvaluated Status = "evaluated"
	StatusAccepted  Status = "accepted"
	StatusDeferred  Status = "deferred"
	StatusDeclined  Status = "declined"
)

// Admission is one referral evaluation. Patient identity is limited to
// initials; no further identifiers are stored. The evaluation result
// fields are written once and never mutated; what-if recalculations append
// Evaluation rows instead.
type Admission struct {
	ID         uuid.UUID `db:"id" json:"id"`
	FacilityID uuid.UUID `db:"facility_id" json:"facility_id"`

	PatientInitials string `db:"patient_initials" json:"patient_initials"`
	ReferralSource  string `db:"referral_source" json:"referral_source,omitempty"`
	Notes           string `db:"notes" json:"notes,omitempty"`

	PayerType  reimburse.PayerType `db:"payer_type" json:"payer_type"`
	AuthStatus costing.AuthStatus  `db:"auth_status" json:"auth_status"`
	LOS        int                 `db:"los" json:"los"`
	AsOf       time.Time           `db:"as_of" json:"as_of"`

	Features pdpm.ClinicalFeatures `db:"features" json:"features"`

	RateRecordID uuid.UUID `db:"rate_record_id" json:"rate_record_id"`

	Classification pdpm.Classification `db:"classification" json:"classification"`
	Revenue        reimburse.Revenue   `db:"revenue" json:"revenue"`
	Cost           costing.Breakdown   `db:"cost" json:"cost"`
	Score          scoring.Result      `db:"score" json:"score"`

	Status       Status     `db:"status" json:"status"`
	DecidedBy    *string    `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt    *time.Time `db:"decided_at" json:"decided_at,omitempty"`
	DecisionNote string     `db:"decision_note" json:"decision_note,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Evaluation is one pipeline run for an admission: the initial evaluation
// or a later what-if recalculation with adjusted assumptions.
type Evaluation struct {
	ID          uuid.UUID `db:"id" json:"id"`
	AdmissionID uuid.UUID `db:"admission_id" json:"admission_id"`

	LOS            int                `db:"los" json:"los"`
	AuthStatus     costing.AuthStatus `db:"auth_status" json:"auth_status"`
	CensusPriority float64            `db:"census_priority" json:"census_priority"`
	AsOf           time.Time          `db:"as_of" json:"as_of"`

	Classification pdpm.Classification `db:"classification" json:"classification"`
	Revenue        reimburse.Revenue   `db:"revenue" json:"revenue"`
	Cost           costing.Breakdown   `db:"cost" json:"cost"`
	Score          scoring.Result      `db:"score" json:"score"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
