package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/harvest/internal/domain"
)

// DefaultTable is the table pages are stored in when none is configured.
const DefaultTable = "pages"

// PageRepository handles database operations for harvested pages. The table
// name is configurable and identifier-quoted in every statement.
type PageRepository struct {
	db    *sqlx.DB
	table string
}

// NewPageRepository creates a page repository on the given table. An empty
// table name selects DefaultTable.
func NewPageRepository(db *sqlx.DB, table string) *PageRepository {
	if table == "" {
		table = DefaultTable
	}
	return &PageRepository{db: db, table: table}
}

func (r *PageRepository) ident() string {
	return pq.QuoteIdentifier(r.table)
}

// EnsureSchema creates the pages table and its unique url index if they do
// not exist. The url key is what makes upserts replace in place.
func (r *PageRepository) EnsureSchema(ctx context.Context) error {
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			url        TEXT NOT NULL,
			raw_html   TEXT NOT NULL DEFAULT '',
			source     TEXT NOT NULL DEFAULT '',
			fetched_at TIMESTAMPTZ
		)
	`, r.ident())

	if _, err := r.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create pages table: %w", err)
	}

	createIndex := fmt.Sprintf(
		`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (url)`,
		pq.QuoteIdentifier(r.table+"_url_key"), r.ident(),
	)

	if _, err := r.db.ExecContext(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create url index: %w", err)
	}

	return nil
}

// Count returns the number of stored pages.
func (r *PageRepository) Count(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.ident())

	var n int64
	if err := r.db.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}

	return n, nil
}

// GetByURL returns the stored page for a URL, or domain.ErrPageNotFound.
func (r *PageRepository) GetByURL(ctx context.Context, url string) (*domain.Page, error) {
	query := fmt.Sprintf(
		`SELECT url, raw_html, source, fetched_at FROM %s WHERE url = $1`,
		r.ident(),
	)

	var row pageRow
	if err := r.db.GetContext(ctx, &row, query, url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPageNotFound
		}
		return nil, fmt.Errorf("failed to select page: %w", err)
	}

	page := row.toDomain()
	return &page, nil
}

// Upsert inserts or replaces the page keyed by its URL and reports whether a
// new row was created. xmax = 0 distinguishes a fresh insert from a conflict
// update.
func (r *PageRepository) Upsert(ctx context.Context, page *domain.Page) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (url, raw_html, source, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url) DO UPDATE
		SET raw_html = EXCLUDED.raw_html,
			source = EXCLUDED.source,
			fetched_at = EXCLUDED.fetched_at
		RETURNING (xmax = 0) AS inserted
	`, r.ident())

	var inserted bool
	err := r.db.GetContext(ctx, &inserted, query,
		page.URL, page.RawHTML, page.Source, nullableTime(page.FetchedAt))
	if err != nil {
		return false, fmt.Errorf("failed to upsert page: %w", err)
	}

	return inserted, nil
}

// Each streams every stored page to fn in url order. Iteration stops on the
// first error fn returns.
func (r *PageRepository) Each(ctx context.Context, fn func(*domain.Page) error) error {
	query := fmt.Sprintf(
		`SELECT url, raw_html, source, fetched_at FROM %s ORDER BY url`,
		r.ident(),
	)

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to iterate pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row pageRow
		if scanErr := rows.StructScan(&row); scanErr != nil {
			return fmt.Errorf("failed to scan page: %w", scanErr)
		}
		page := row.toDomain()
		if fnErr := fn(&page); fnErr != nil {
			return fnErr
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return fmt.Errorf("failed during page iteration: %w", rowsErr)
	}

	return nil
}

// pageRow is the scan target; fetched_at is nullable for rows that predate
// timestamp tracking.
type pageRow struct {
	URL       string       `db:"url"`
	RawHTML   string       `db:"raw_html"`
	Source    string       `db:"source"`
	FetchedAt sql.NullTime `db:"fetched_at"`
}

func (row *pageRow) toDomain() domain.Page {
	page := domain.Page{
		URL:     row.URL,
		RawHTML: row.RawHTML,
		Source:  row.Source,
	}
	if row.FetchedAt.Valid {
		page.FetchedAt = row.FetchedAt.Time
	}
	return page
}

// nullableTime maps a zero time to NULL so the missing-timestamp state
// round-trips.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
