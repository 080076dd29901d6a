package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/harvest/internal/database"
	"github.com/jonesrussell/harvest/internal/domain"
)

// pageColumns lists the columns returned by pages SELECT queries.
var pageColumns = []string{"url", "raw_html", "source", "fetched_at"}

func newPageRepo(t *testing.T, table string) (*database.PageRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewPageRepository(db, table)

	return repo, mock, func() { mockDB.Close() }
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestPageRepository_Upsert_NewRow(t *testing.T) {
	repo, mock, cleanup := newPageRepo(t, "")
	defer cleanup()

	fetchedAt := time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)
	page := &domain.Page{
		URL:       "https://example.com/news/1",
		RawHTML:   "<html><body>hello</body></html>",
		Source:    "example.com",
		FetchedAt: fetchedAt,
	}

	mock.ExpectQuery(`INSERT INTO "pages"`).
		WithArgs(page.URL, page.RawHTML, page.Source, fetchedAt).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))

	created, err := repo.Upsert(context.Background(), page)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !created {
		t.Error("expected created=true for a new url")
	}

	expectationsMet(t, mock)
}

func TestPageRepository_Upsert_ReplacesExisting(t *testing.T) {
	repo, mock, cleanup := newPageRepo(t, "")
	defer cleanup()

	page := &domain.Page{
		URL:       "https://example.com/news/1",
		RawHTML:   "<html>updated</html>",
		Source:    "example.com",
		FetchedAt: time.Now(),
	}

	mock.ExpectQuery(`INSERT INTO "pages"`).
		WithArgs(page.URL, page.RawHTML, page.Source, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(false))

	created, err := repo.Upsert(context.Background(), page)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if created {
		t.Error("expected created=false when the url already existed")
	}

	expectationsMet(t, mock)
}

func TestPageRepository_Upsert_ZeroTimeIsNull(t *testing.T) {
	repo, mock, cleanup := newPageRepo(t, "")
	defer cleanup()

	page := &domain.Page{URL: "https://example.com/x", Source: "example.com"}

	mock.ExpectQuery(`INSERT INTO "pages"`).
		WithArgs(page.URL, "", page.Source, nil).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))

	if _, err := repo.Upsert(context.Background(), page); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestPageRepository_GetByURL(t *testing.T) {
	repo, mock, cleanup := newPageRepo(t, "")
	defer cleanup()

	fetchedAt := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT url, raw_html, source, fetched_at FROM "pages" WHERE url`).
		WithArgs("https://example.com/news/1").
		WillReturnRows(sqlmock.NewRows(pageColumns).AddRow(
			"https://example.com/news/1", "<html></html>", "example.com", fetchedAt,
		))

	page, err := repo.GetByURL(context.Background(), "https://example.com/news/1")
	if err != nil {
		t.Fatalf("GetByURL() error = %v", err)
	}
	if page.Source != "example.com" {
		t.Errorf("expected source example.com, got %s", page.Source)
	}
	if !page.FetchedAt.Equal(fetchedAt) {
		t.Errorf("expected fetched_at %v, got %v", fetchedAt, page.FetchedAt)
	}

	expectationsMet(t, mock)
}

func TestPageRepository_GetByURL_NotFound(t *testing.T) {
	repo, mock, cleanup := newPageRepo(t, "")
	defer cleanup()

	mock.ExpectQuery(`SELECT url, raw_html, source, fetched_at FROM "pages" WHERE url`).
		WithArgs("https://example.com/missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByURL(context.Background(), "https://example.com/missing")
	if !errors.Is(err, domain.ErrPageNotFound) {
		t.Fatalf("expected domain.ErrPageNotFound, got %v", err)
	}

	expectationsMet(t, mock)
}

func TestPageRepository_GetByURL_NullTimestamp(t *testing.T) {
	repo, mock, cleanup := newPageRepo(t, "")
	defer cleanup()

	mock.ExpectQuery(`SELECT url, raw_html, source, fetched_at FROM "pages" WHERE url`).
		WithArgs("https://example.com/legacy").
		WillReturnRows(sqlmock.NewRows(pageColumns).AddRow(
			"https://example.com/legacy", "<html></html>", "example.com", nil,
		))

	page, err := repo.GetByURL(context.Background(), "https://example.com/legacy")
	if err != nil {
		t.Fatalf("GetByURL() error = %v", err)
	}
	if !page.FetchedAt.IsZero() {
		t.Errorf("expected zero fetched_at for NULL column, got %v", page.FetchedAt)
	}

	expectationsMet(t, mock)
}

func TestPageRepository_Count(t *testing.T) {
	repo, mock, cleanup := newPageRepo(t, "")
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "pages"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 42 {
		t.Errorf("expected count 42, got %d", n)
	}

	expectationsMet(t, mock)
}

func TestPageRepository_Each(t *testing.T) {
	repo, mock, cleanup := newPageRepo(t, "")
	defer cleanup()

	mock.ExpectQuery(`SELECT url, raw_html, source, fetched_at FROM "pages" ORDER BY url`).
		WillReturnRows(sqlmock.NewRows(pageColumns).
			AddRow("https://example.com/a", "<html>a</html>", "example.com", time.Now()).
			AddRow("https://example.com/b", "<html>b</html>", "example.com", nil))

	var urls []string
	err := repo.Each(context.Background(), func(p *domain.Page) error {
		urls = append(urls, p.URL)
		return nil
	})
	if err != nil {
		t.Fatalf("Each() error = %v", err)
	}
	if len(urls) != 2 || urls[0] != "https://example.com/a" || urls[1] != "https://example.com/b" {
		t.Errorf("unexpected iteration order: %v", urls)
	}

	expectationsMet(t, mock)
}

func TestPageRepository_Each_StopsOnCallbackError(t *testing.T) {
	repo, mock, cleanup := newPageRepo(t, "")
	defer cleanup()

	mock.ExpectQuery(`SELECT url, raw_html, source, fetched_at FROM "pages" ORDER BY url`).
		WillReturnRows(sqlmock.NewRows(pageColumns).
			AddRow("https://example.com/a", "", "example.com", nil).
			AddRow("https://example.com/b", "", "example.com", nil))

	sentinel := errors.New("stop here")
	calls := 0
	err := repo.Each(context.Background(), func(*domain.Page) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected callback error to propagate, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected iteration to stop after first callback, got %d calls", calls)
	}
}

func TestPageRepository_EnsureSchema(t *testing.T) {
	repo, mock, cleanup := newPageRepo(t, "")
	defer cleanup()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "pages"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE UNIQUE INDEX IF NOT EXISTS "pages_url_key" ON "pages"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestPageRepository_CustomTableName(t *testing.T) {
	repo, mock, cleanup := newPageRepo(t, "corpus")
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "corpus"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	if _, err := repo.Count(context.Background()); err != nil {
		t.Fatalf("Count() error = %v", err)
	}

	expectationsMet(t, mock)
}
