package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"treasury-engine/internal/domain"
)

const schemaVersion = 1

func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin migrate")
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return eris.Wrap(err, "store: read user_version")
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	stmts := []string{`
CREATE TABLE IF NOT EXISTS jobs (
  key TEXT PRIMARY KEY,
  date_scraped TEXT NOT NULL,
  source TEXT NOT NULL,
  company TEXT NOT NULL,
  title TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT 'Unknown',
  url TEXT NOT NULL DEFAULT '',
  technologies TEXT NOT NULL DEFAULT ''
);`, `
CREATE TABLE IF NOT EXISTS prospects (
  company TEXT PRIMARY KEY,
  score INTEGER NOT NULL,
  tier TEXT NOT NULL,
  action TEXT NOT NULL,
  total_jobs INTEGER NOT NULL,
  jobs_last_30_days INTEGER NOT NULL,
  locations INTEGER NOT NULL,
  signal_count INTEGER NOT NULL,
  primary_signal TEXT NOT NULL,
  all_signals TEXT NOT NULL DEFAULT '',
  first_seen TEXT NOT NULL DEFAULT '',
  last_activity TEXT NOT NULL DEFAULT '',
  project_value TEXT NOT NULL DEFAULT ''
);`, `
CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs(company);`, `
CREATE INDEX IF NOT EXISTS idx_jobs_date ON jobs(date_scraped);`, `
CREATE VIEW IF NOT EXISTS jobs_table AS
SELECT
  j.date_scraped,
  j.source,
  j.company,
  j.title,
  j.location,
  j.country,
  j.url,
  j.technologies,
  COALESCE(p.score, 0) AS company_score,
  COALESCE(p.tier, '') AS company_tier,
  COALESCE(p.primary_signal, '') AS primary_signal
FROM jobs j
LEFT JOIN prospects p ON p.company = j.company;`,
		fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion),
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return eris.Wrapf(err, "store: migrate: %s", firstLine(s))
		}
	}
	return tx.Commit()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// ListJobsOpts filters the jobs_table view.
type ListJobsOpts struct {
	Company string
	Country string
	Sort    string // date | company | title | score
	Limit   int
}

// JobRow is one row of the jobs_table view.
type JobRow struct {
	domain.JobRecord
	CompanyScore  int    `json:"companyScore"`
	CompanyTier   string `json:"companyTier"`
	PrimarySignal string `json:"primarySignal"`
}

func (d *DB) ListJobs(ctx context.Context, opts ListJobsOpts) ([]JobRow, error) {
	// whitelist sort columns (prevents SQL injection)
	order := map[string]string{
		"date":    "date_scraped DESC, company ASC",
		"company": "company ASC, date_scraped DESC",
		"title":   "title ASC",
		"score":   "company_score DESC, date_scraped DESC",
	}[opts.Sort]
	if order == "" {
		order = "date_scraped DESC, company ASC"
	}
	if opts.Limit <= 0 || opts.Limit > 5000 {
		opts.Limit = 500
	}

	var (
		where []string
		args  []any
	)
	if opts.Company != "" {
		where = append(where, "company = ?")
		args = append(args, opts.Company)
	}
	if opts.Country != "" {
		where = append(where, "country = ?")
		args = append(args, opts.Country)
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, opts.Limit)

	query := fmt.Sprintf(`
SELECT date_scraped, source, company, title, location, country, url, technologies,
       company_score, company_tier, primary_signal
FROM jobs_table
%s
ORDER BY %s
LIMIT ?;`, clause, order)

	rows, err := d.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list jobs")
	}
	defer rows.Close()

	var out []JobRow
	for rows.Next() {
		var (
			r          JobRow
			date, tags string
		)
		if err := rows.Scan(&date, &r.Source, &r.Company, &r.Title, &r.Location, &r.Country, &r.URL, &tags,
			&r.CompanyScore, &r.CompanyTier, &r.PrimarySignal); err != nil {
			return nil, eris.Wrap(err, "store: scan job")
		}
		if err := r.DateScraped.UnmarshalText([]byte(date)); err != nil {
			return nil, err
		}
		_ = r.Technologies.UnmarshalText([]byte(tags))
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate jobs")
	}
	return out, nil
}
