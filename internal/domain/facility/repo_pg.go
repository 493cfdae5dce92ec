package facility

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

const facilityCols = `id, name, code, wage_index, vbp_multiplier, census_priority,
	business_weights, score_thresholds, active, created_at, updated_at`

func (r *repoPG) scanFacility(row pgx.Row) (*Facility, error) {
	var f Facility
	err := row.Scan(&f.ID, &f.Name, &f.Code, &f.WageIndex, &f.VBPMultiplier, &f.CensusPriority,
		&f.BusinessWeights, &f.Thresholds, &f.Active, &f.CreatedAt, &f.UpdatedAt)
	return &f, err
}

func (r *repoPG) Create(ctx context.Context, f *Facility) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO facility (id, name, code, wage_index, vbp_multiplier, census_priority,
			business_weights, score_thresholds, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		f.ID, f.Name, f.Code, f.WageIndex, f.VBPMultiplier, f.CensusPriority,
		f.BusinessWeights, f.Thresholds, f.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Facility, error) {
	return r.scanFacility(r.conn(ctx).QueryRow(ctx, `SELECT `+facilityCols+` FROM facility WHERE id = $1`, id))
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*Facility, error) {
	return r.scanFacility(r.conn(ctx).QueryRow(ctx, `SELECT `+facilityCols+` FROM facility WHERE code = $1`, code))
}

func (r *repoPG) Update(ctx context.Context, f *Facility) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE facility SET name=$2, wage_index=$3, vbp_multiplier=$4, census_priority=$5,
			business_weights=$6, score_thresholds=$7, active=$8, updated_at=NOW()
		WHERE id = $1`,
		f.ID, f.Name, f.WageIndex, f.VBPMultiplier, f.CensusPriority,
		f.BusinessWeights, f.Thresholds, f.Active)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM facility WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Facility, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM facility`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+facilityCols+` FROM facility ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Facility
	for rows.Next() {
		f, err := r.scanFacility(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	return items, total, nil
}
