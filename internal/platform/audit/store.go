package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snfadmit/snfadmit/internal/platform/db"
	"github.com/snfadmit/snfadmit/internal/platform/middleware"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Entry is a persisted access-audit record from the audit_log table.
type Entry struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	UserRoles    []string  `json:"user_roles"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Action       string    `json:"action"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	Path         string    `json:"path"`
	Method       string    `json:"method"`
	RequestID    string    `json:"request_id"`
	StatusCode   int       `json:"status_code"`
	OccurredAt   time.Time `json:"occurred_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListParams filters audit log queries.
type ListParams struct {
	UserID       string
	ResourceType string
	Action       string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// Store persists access-audit entries in Postgres. It satisfies
// middleware.AuditRecorder so the audit middleware can write through it.
type Store struct {
	pool *pgxpool.Pool
	// recordTimeout bounds the insert issued from the middleware path, which
	// carries no request context of its own.
	recordTimeout time.Duration
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, recordTimeout: 5 * time.Second}
}

const auditCols = `id, user_id, user_roles, resource_type, resource_id, action,
	ip_address, user_agent, path, method, request_id, status_code, occurred_at, created_at`

// RecordAccess inserts one audit entry. Failures are returned to the caller;
// the audit middleware logs them without failing the request.
func (s *Store) RecordAccess(entry middleware.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.recordTimeout)
	defer cancel()

	const query = `
		INSERT INTO audit_log (
			user_id, user_roles, resource_type, resource_id, action,
			ip_address, user_agent, path, method, request_id, status_code, occurred_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	args := []any{
		entry.UserID, entry.UserRoles, entry.ResourceType, entry.ResourceID, entry.Action,
		entry.IPAddress, entry.UserAgent, entry.Path, entry.Method, entry.RequestID,
		entry.StatusCode, entry.Timestamp,
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("audit: acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("audit: insert entry: %w", err)
	}
	return nil
}

// List returns audit entries matching the filters, newest first, plus the
// total match count for pagination.
func (s *Store) List(ctx context.Context, params ListParams) ([]*Entry, int, error) {
	where, args := buildFilters(params)

	var conn queryable = s.pool
	if c := db.ConnFromContext(ctx); c != nil {
		conn = c
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM audit_log" + where
	if err := conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("audit: count entries: %w", err)
	}

	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query := fmt.Sprintf(
		"SELECT %s FROM audit_log%s ORDER BY occurred_at DESC LIMIT $%d OFFSET $%d",
		auditCols, where, len(args)+1, len(args)+2)
	args = append(args, limit, params.Offset)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.UserRoles, &e.ResourceType, &e.ResourceID, &e.Action,
			&e.IPAddress, &e.UserAgent, &e.Path, &e.Method, &e.RequestID,
			&e.StatusCode, &e.OccurredAt, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("audit: scan entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, total, rows.Err()
}

// buildFilters assembles the WHERE clause and positional args for List.
func buildFilters(params ListParams) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if params.UserID != "" {
		add("user_id = $%d", params.UserID)
	}
	if params.ResourceType != "" {
		add("resource_type = $%d", params.ResourceType)
	}
	if params.Action != "" {
		add("action = $%d", params.Action)
	}
	if params.From != nil {
		add("occurred_at >= $%d", *params.From)
	}
	if params.To != nil {
		add("occurred_at < $%d", *params.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
