package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const table = "shipments"

var columns = []string{
	"id", "company_id", "order_id", "provider", "tracking_id", "merchant_order_id", "city",
	"outcome", "status_updated", "error", "created_at", "reconciled_at",
}

type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgJournal is a Journal backed by Postgres.
type PgJournal struct {
	db      executor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewPgJournal creates a journal over a connection pool.
func NewPgJournal(pool *pgxpool.Pool) *PgJournal {
	return newPgJournal(pool)
}

func newPgJournal(db executor) *PgJournal {
	return &PgJournal{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Open connects to Postgres.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

func (j *PgJournal) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}

	query, args, err := j.builder.Insert(table).
		Columns(columns[:len(columns)-1]...).
		Values(e.ID, e.CompanyID, e.OrderID, e.Provider, e.TrackingID, e.MerchantOrderID, e.City,
			string(e.Outcome), e.StatusUpdated, e.Error, e.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := j.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

func (j *PgJournal) ListUnreconciled(ctx context.Context, companyID string) ([]Entry, error) {
	query, args, err := j.builder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"outcome": []string{string(OutcomePartial), string(OutcomeUntracked)}}).
		Where("reconciled_at IS NULL").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	rows, err := j.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query shipments: %w", err)
	}
	defer rows.Close()

	return parseEntries(rows)
}

func (j *PgJournal) MarkReconciled(ctx context.Context, id string) error {
	query, args, err := j.builder.Update(table).
		Set("reconciled_at", j.now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	tag, err := j.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update shipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func parseEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var outcome string
		err := rows.Scan(&e.ID, &e.CompanyID, &e.OrderID, &e.Provider, &e.TrackingID, &e.MerchantOrderID, &e.City,
			&outcome, &e.StatusUpdated, &e.Error, &e.CreatedAt, &e.ReconciledAt)
		if err != nil {
			return nil, fmt.Errorf("scan shipment row: %w", err)
		}
		e.Outcome = Outcome(outcome)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipment rows: %w", err)
	}
	return entries, nil
}
