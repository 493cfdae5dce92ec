package rates

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snfadmit/snfadmit/internal/costing"
	"github.com/snfadmit/snfadmit/internal/platform/db"
	"github.com/snfadmit/snfadmit/internal/reimburse"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Payer Repository ===========

type payerRepoPG struct{ pool *pgxpool.Pool }

func NewPayerRepoPG(pool *pgxpool.Pool) PayerRepository { return &payerRepoPG{pool: pool} }

func (r *payerRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const payerCols = `id, name, payer_type, active, created_at, updated_at`

func (r *payerRepoPG) scanPayer(row pgx.Row) (*Payer, error) {
	var p Payer
	err := row.Scan(&p.ID, &p.Name, &p.Type, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *payerRepoPG) Create(ctx context.Context, p *Payer) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payer (id, name, payer_type, active)
		VALUES ($1,$2,$3,$4)`,
		p.ID, p.Name, p.Type, p.Active)
	return err
}

func (r *payerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Payer, error) {
	return r.scanPayer(r.conn(ctx).QueryRow(ctx, `SELECT `+payerCols+` FROM payer WHERE id = $1`, id))
}

func (r *payerRepoPG) Update(ctx context.Context, p *Payer) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE payer SET name=$2, payer_type=$3, active=$4, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Type, p.Active)
	return err
}

func (r *payerRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM payer WHERE id = $1`, id)
	return err
}

func (r *payerRepoPG) List(ctx context.Context, limit, offset int) ([]*Payer, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM payer`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+payerCols+` FROM payer ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Payer
	for rows.Next() {
		p, err := r.scanPayer(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

// =========== RateRecord Repository ===========

type rateRepoPG struct{ pool *pgxpool.Pool }

func NewRateRepoPG(pool *pgxpool.Pool) RateRepository { return &rateRepoPG{pool: pool} }

func (r *rateRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const rateCols = `id, facility_id, payer_id, payer_type,
	effective_from, effective_to, plan, created_at, updated_at`

func (r *rateRepoPG) scanRate(row pgx.Row) (*RateRecord, error) {
	var rec RateRecord
	err := row.Scan(&rec.ID, &rec.FacilityID, &rec.PayerID, &rec.PayerType,
		&rec.EffectiveFrom, &rec.EffectiveTo, &rec.Plan, &rec.CreatedAt, &rec.UpdatedAt)
	return &rec, err
}

func (r *rateRepoPG) Create(ctx context.Context, rec *RateRecord) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO rate_record (id, facility_id, payer_id, payer_type,
			effective_from, effective_to, plan)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rec.ID, rec.FacilityID, rec.PayerID, rec.PayerType,
		rec.EffectiveFrom, rec.EffectiveTo, rec.Plan)
	return err
}

func (r *rateRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*RateRecord, error) {
	return r.scanRate(r.conn(ctx).QueryRow(ctx, `SELECT `+rateCols+` FROM rate_record WHERE id = $1`, id))
}

func (r *rateRepoPG) Update(ctx context.Context, rec *RateRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE rate_record SET effective_from=$2, effective_to=$3, plan=$4, updated_at=NOW()
		WHERE id = $1`,
		rec.ID, rec.EffectiveFrom, rec.EffectiveTo, rec.Plan)
	return err
}

func (r *rateRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM rate_record WHERE id = $1`, id)
	return err
}

func (r *rateRepoPG) ListByFacility(ctx context.Context, facilityID uuid.UUID, limit, offset int) ([]*RateRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM rate_record WHERE facility_id = $1`, facilityID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+rateCols+` FROM rate_record WHERE facility_id = $1 ORDER BY effective_from DESC LIMIT $2 OFFSET $3`, facilityID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*RateRecord
	for rows.Next() {
		rec, err := r.scanRate(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, nil
}

func (r *rateRepoPG) ListByFacilityPayer(ctx context.Context, facilityID uuid.UUID, payerType reimburse.PayerType) ([]*RateRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+rateCols+` FROM rate_record WHERE facility_id = $1 AND payer_type = $2 ORDER BY effective_from`, facilityID, payerType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*RateRecord
	for rows.Next() {
		rec, err := r.scanRate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, nil
}

// =========== CostModelRecord Repository ===========

type costModelRepoPG struct{ pool *pgxpool.Pool }

func NewCostModelRepoPG(pool *pgxpool.Pool) CostModelRepository { return &costModelRepoPG{pool: pool} }

func (r *costModelRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const costModelCols = `id, facility_id, acuity_band, model, created_at, updated_at`

func (r *costModelRepoPG) scanCostModel(row pgx.Row) (*CostModelRecord, error) {
	var m CostModelRecord
	err := row.Scan(&m.ID, &m.FacilityID, &m.AcuityBand, &m.Model, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *costModelRepoPG) Create(ctx context.Context, m *CostModelRecord) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO cost_model (id, facility_id, acuity_band, model)
		VALUES ($1,$2,$3,$4)`,
		m.ID, m.FacilityID, m.AcuityBand, m.Model)
	return err
}

func (r *costModelRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*CostModelRecord, error) {
	return r.scanCostModel(r.conn(ctx).QueryRow(ctx, `SELECT `+costModelCols+` FROM cost_model WHERE id = $1`, id))
}

func (r *costModelRepoPG) GetByFacilityBand(ctx context.Context, facilityID uuid.UUID, band costing.AcuityBand) (*CostModelRecord, error) {
	return r.scanCostModel(r.conn(ctx).QueryRow(ctx, `SELECT `+costModelCols+` FROM cost_model WHERE facility_id = $1 AND acuity_band = $2`, facilityID, band))
}

func (r *costModelRepoPG) Update(ctx context.Context, m *CostModelRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE cost_model SET model=$2, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Model)
	return err
}

func (r *costModelRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM cost_model WHERE id = $1`, id)
	return err
}

func (r *costModelRepoPG) ListByFacility(ctx context.Context, facilityID uuid.UUID, limit, offset int) ([]*CostModelRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM cost_model WHERE facility_id = $1`, facilityID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+costModelCols+` FROM cost_model WHERE facility_id = $1 ORDER BY acuity_band LIMIT $2 OFFSET $3`, facilityID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*CostModelRecord
	for rows.Next() {
		m, err := r.scanCostModel(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}
