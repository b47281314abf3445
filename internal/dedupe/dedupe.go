// Package dedupe merges job batches into the canonical store by identity key.
package dedupe

import (
	"strings"

	"treasury-engine/internal/domain"
)

// Key returns the identity of a record: its canonical URL when it has one,
// otherwise source, company, title and location. It never depends on the
// scrape date.
func (c URLCanon) Key(j domain.JobRecord) string {
	if u := c.Canonical(j.URL); u != "" {
		return "url:" + u
	}
	parts := []string{j.Source, j.Company, j.Title, j.Location}
	for i, p := range parts {
		parts[i] = strings.ToLower(domain.CleanText(p))
	}
	return "job:" + strings.Join(parts, "|")
}

// Stats describes one merge.
type Stats struct {
	Existing  int
	Incoming  int
	Added     int
	Replaced  int
	Unchanged int
	Dropped   int // records with an empty title
	Total     int
}

// Merge combines the stored records with a new batch. A later record
// with the same key replaces the earlier one in place; new keys append in
// first-seen order. URLs are stored in canonical form.
func (c URLCanon) Merge(existing, batch []domain.JobRecord) ([]domain.JobRecord, Stats) {
	st := Stats{Existing: len(existing), Incoming: len(batch)}

	out := make([]domain.JobRecord, 0, len(existing)+len(batch))
	index := make(map[string]int, len(existing)+len(batch))

	put := func(j domain.JobRecord, incoming bool) {
		if j.Validate() != nil {
			st.Dropped++
			return
		}
		j.URL = c.Canonical(j.URL)
		k := c.Key(j)
		if i, ok := index[k]; ok {
			if incoming {
				if sameRecord(out[i], j) {
					st.Unchanged++
				} else {
					st.Replaced++
				}
			}
			out[i] = j
			return
		}
		index[k] = len(out)
		out = append(out, j)
		if incoming {
			st.Added++
		}
	}

	for _, j := range existing {
		put(j, false)
	}
	for _, j := range batch {
		put(j, true)
	}

	st.Total = len(out)
	return out, st
}

func sameRecord(a, b domain.JobRecord) bool {
	if !a.DateScraped.Equal(b.DateScraped.Time) || a.Source != b.Source || a.Company != b.Company ||
		a.Title != b.Title || a.Location != b.Location || a.Country != b.Country || a.URL != b.URL {
		return false
	}
	if len(a.Technologies) != len(b.Technologies) {
		return false
	}
	for i := range a.Technologies {
		if a.Technologies[i] != b.Technologies[i] {
			return false
		}
	}
	return true
}
