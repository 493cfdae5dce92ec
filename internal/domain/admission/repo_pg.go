package admission

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snfadmit/snfadmit/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const admissionCols = `id, facility_id, patient_initials, referral_source, notes,
	payer_type, auth_status, los, as_of, features, rate_record_id,
	classification, revenue, cost, score,
	status, decided_by, decided_at, decision_note, created_at, updated_at`

func (r *repoPG) scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(&a.ID, &a.FacilityID, &a.PatientInitials, &a.ReferralSource, &a.Notes,
		&a.PayerType, &a.AuthStatus, &a.LOS, &a.AsOf, &a.Features, &a.RateRecordID,
		&a.Classification, &a.Revenue, &a.Cost, &a.Score,
		&a.Status, &a.DecidedBy, &a.DecidedAt, &a.DecisionNote, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Admission) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admission (id, facility_id, patient_initials, referral_source, notes,
			payer_type, auth_status, los, as_of, features, rate_record_id,
			classification, revenue, cost, score, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		a.ID, a.FacilityID, a.PatientInitials, a.ReferralSource, a.Notes,
		a.PayerType, a.AuthStatus, a.LOS, a.AsOf, a.Features, a.RateRecordID,
		a.Classification, a.Revenue, a.Cost, a.Score, a.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return r.scanAdmission(r.conn(ctx).QueryRow(ctx, `SELECT `+admissionCols+` FROM admission WHERE id = $1`, id))
}

// UpdateDecision persists a decision only while the row is still in the
// evaluated state. Zero affected rows means another decision won the race.
func (r *repoPG) UpdateDecision(ctx context.Context, a *Admission) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE admission SET status=$2, decided_by=$3, decided_at=$4, decision_note=$5, updated_at=NOW()
		WHERE id = $1 AND status = $6`,
		a.ID, a.Status, a.DecidedBy, a.DecidedAt, a.DecisionNote, StatusEvaluated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyDecided
	}
	return nil
}

func (r *repoPG) ListByFacility(ctx context.Context, facilityID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM admission WHERE facility_id = $1`, facilityID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+admissionCols+` FROM admission WHERE facility_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, facilityID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Admission
	for rows.Next() {
		a, err := r.scanAdmission(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Admission, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM admission`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+admissionCols+` FROM admission ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Admission
	for rows.Next() {
		a, err := r.scanAdmission(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}

const evalCols = `id, admission_id, los, auth_status, census_priority, as_of,
	classification, revenue, cost, score, created_at`

func (r *repoPG) AddEvaluation(ctx context.Context, e *Evaluation) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admission_evaluation (id, admission_id, los, auth_status, census_priority, as_of,
			classification, revenue, cost, score)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, e.AdmissionID, e.LOS, e.AuthStatus, e.CensusPriority, e.AsOf,
		e.Classification, e.Revenue, e.Cost, e.Score)
	return err
}

func (r *repoPG) ListEvaluations(ctx context.Context, admissionID uuid.UUID) ([]*Evaluation, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+evalCols+` FROM admission_evaluation WHERE admission_id = $1 ORDER BY created_at`, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Evaluation
	for rows.Next() {
		var e Evaluation
		if err := rows.Scan(&e.ID, &e.AdmissionID, &e.LOS, &e.AuthStatus, &e.CensusPriority, &e.AsOf,
			&e.Classification, &e.Revenue, &e.Cost, &e.Score, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, nil
}
