package domain

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Unknown is the sentinel stored for a company or country that could not be resolved.
const Unknown = "Unknown"

var ErrEmptyTitle = eris.New("domain: job title is empty")

// JobRecord is one canonical job posting. Field order is the CSV column order.
type JobRecord struct {
	DateScraped  Date   `csv:"date_scraped" json:"dateScraped"`
	Source       string `csv:"source" json:"source"`
	Company      string `csv:"company" json:"company"`
	Title        string `csv:"title" json:"title"`
	Location     string `csv:"location" json:"location"`
	Country      string `csv:"country" json:"country"`
	URL          string `csv:"url" json:"url"`
	Technologies Tags   `csv:"technologies" json:"technologies"`
}

// JobParams carries the raw values for NewJobRecord.
type JobParams struct {
	DateScraped  time.Time
	Source       string
	Company      string
	Title        string
	Location     string
	Country      string
	URL          string
	Technologies []string
}

// NewJobRecord builds a record, applying the Unknown sentinels.
// An empty title is rejected with ErrEmptyTitle.
func NewJobRecord(p JobParams) (JobRecord, error) {
	title := CleanText(p.Title)
	if title == "" {
		return JobRecord{}, ErrEmptyTitle
	}

	company := CleanText(p.Company)
	if company == "" {
		company = Unknown
	}
	country := CleanText(p.Country)
	if country == "" {
		country = Unknown
	}

	return JobRecord{
		DateScraped:  NewDate(p.DateScraped),
		Source:       CleanText(p.Source),
		Company:      company,
		Title:        title,
		Location:     CleanText(p.Location),
		Country:      country,
		URL:          strings.TrimSpace(p.URL),
		Technologies: Tags(p.Technologies),
	}, nil
}

// Validate rejects records that must not be stored.
func (j JobRecord) Validate() error {
	if strings.TrimSpace(j.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Tags is an ordered set of technology tags, stored as "A, B" in CSV.
type Tags []string

func (t Tags) MarshalText() ([]byte, error) {
	return []byte(strings.Join(t, ", ")), nil
}

func (t *Tags) UnmarshalText(b []byte) error {
	*t = nil
	for _, part := range strings.Split(string(b), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		*t = append(*t, part)
	}
	return nil
}

// Has reports whether tag is in the set (exact match).
func (t Tags) Has(tag string) bool {
	for _, x := range t {
		if x == tag {
			return true
		}
	}
	return false
}

// CleanText collapses whitespace (including NBSP) and trims.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
