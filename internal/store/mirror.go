package store

import (
	"context"

	"github.com/rotisserie/eris"

	"treasury-engine/internal/domain"
)

// ReplaceJobs rewrites the jobs table from the canonical store. key is the
// dedupe identity, so the table holds the same rows as the CSV.
func (d *DB) ReplaceJobs(ctx context.Context, jobs []domain.JobRecord, key func(domain.JobRecord) string) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin replace jobs")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs;`); err != nil {
		return eris.Wrap(err, "store: clear jobs")
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO jobs (key, date_scraped, source, company, title, location, country, url, technologies)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return eris.Wrap(err, "store: prepare insert job")
	}
	defer stmt.Close()

	for _, j := range jobs {
		tags, _ := j.Technologies.MarshalText()
		if _, err := stmt.ExecContext(ctx, key(j), j.DateScraped.String(), j.Source, j.Company, j.Title,
			j.Location, j.Country, j.URL, string(tags)); err != nil {
			return eris.Wrapf(err, "store: insert job %q", j.Title)
		}
	}
	return eris.Wrap(tx.Commit(), "store: commit jobs")
}

// ReplaceProspects rewrites the prospects table; the previous run's rows
// are dropped, matching the CSV semantics.
func (d *DB) ReplaceProspects(ctx context.Context, ps []domain.Prospect) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin replace prospects")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prospects;`); err != nil {
		return eris.Wrap(err, "store: clear prospects")
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO prospects (company, score, tier, action, total_jobs, jobs_last_30_days, locations,
  signal_count, primary_signal, all_signals, first_seen, last_activity, project_value)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return eris.Wrap(err, "store: prepare insert prospect")
	}
	defer stmt.Close()

	for _, p := range ps {
		if _, err := stmt.ExecContext(ctx, p.Company, p.Score, p.Tier, p.Action, p.TotalJobs, p.JobsLast30Days,
			p.Locations, p.SignalCount, p.PrimarySignal, p.AllSignals, p.FirstSeen.String(),
			p.LastActivity.String(), p.ProjectValue); err != nil {
			return eris.Wrapf(err, "store: insert prospect %q", p.Company)
		}
	}
	return eris.Wrap(tx.Commit(), "store: commit prospects")
}
