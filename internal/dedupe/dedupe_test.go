package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasury-engine/internal/config"
	"treasury-engine/internal/domain"
)

func canon() URLCanon {
	return NewURLCanon(config.DefaultRules().Extract.TrackingParams)
}

func job(title, company, url string, day int) domain.JobRecord {
	return domain.JobRecord{
		DateScraped: domain.NewDate(time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)),
		Source:      "LinkedIn",
		Company:     company,
		Title:       title,
		Location:    "Zürich",
		Country:     "Switzerland",
		URL:         url,
	}
}

func TestCanonical(t *testing.T) {
	c := canon()

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"https://www.linkedin.com/comm/jobs/view/3812345678/?trackingId=abc&refId=x", "https://www.linkedin.com/jobs/view/3812345678/"},
		{"https://de.linkedin.com/jobs/view/treasury-manager-at-acme-3812345678?trk=public", "https://www.linkedin.com/jobs/view/3812345678/"},
		{"HTTPS://WWW.Jobs.CH/en/vacancies/detail/abc/?utm_source=x&b=2&a=1#top", "https://www.jobs.ch/en/vacancies/detail/abc/?a=1&b=2"},
		{"https://www.stepstone.de/stellenangebote--Treasury-123.html?gclid=1", "https://www.stepstone.de/stellenangebote--Treasury-123.html"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Canonical(tt.in), tt.in)
	}
}

func TestKey(t *testing.T) {
	c := canon()

	a := job("Treasury Manager", "Acme", "https://www.linkedin.com/comm/jobs/view/1/?trk=a", 1)
	b := job("Treasury Manager (m/w/d)", "Acme", "https://www.linkedin.com/jobs/view/1/", 2)
	assert.Equal(t, c.Key(a), c.Key(b), "url wins over fields and date")

	x := job("Treasury Manager", "Acme", "", 1)
	y := job("treasury  manager", "ACME", "", 9)
	assert.Equal(t, c.Key(x), c.Key(y))
	assert.Contains(t, c.Key(x), "job:")

	z := job("Treasury Manager", "Other", "", 1)
	assert.NotEqual(t, c.Key(x), c.Key(z))
}

func TestMerge_LastWriteWins(t *testing.T) {
	c := canon()

	existing := []domain.JobRecord{
		job("Treasury Manager", "Acme", "https://www.linkedin.com/jobs/view/1/", 1),
		job("Cash Manager", "Beta", "", 1),
	}
	batch := []domain.JobRecord{
		job("Treasury Manager II", "Acme", "https://www.linkedin.com/comm/jobs/view/1/?refId=q", 5),
		job("Head of Treasury", "Gamma", "", 5),
		{Title: "  ", Company: "Broken"},
	}

	out, st := c.Merge(existing, batch)
	require.Len(t, out, 3)
	assert.Equal(t, "Treasury Manager II", out[0].Title)
	assert.Equal(t, "https://www.linkedin.com/jobs/view/1/", out[0].URL)
	assert.Equal(t, "Cash Manager", out[1].Title)
	assert.Equal(t, "Head of Treasury", out[2].Title)

	assert.Equal(t, 1, st.Added)
	assert.Equal(t, 1, st.Replaced)
	assert.Equal(t, 1, st.Dropped)
	assert.Equal(t, 3, st.Total)

	for _, j := range out {
		assert.NotEmpty(t, j.Title)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	c := canon()

	batch := []domain.JobRecord{
		job("Treasury Manager", "Acme", "https://www.linkedin.com/comm/jobs/view/7/?trk=x", 3),
		job("Cash Manager", "Beta", "", 3),
		job("Cash Manager", "Beta", "", 4),
	}

	once, _ := c.Merge(nil, batch)
	twice, st := c.Merge(once, batch)

	assert.Equal(t, once, twice)
	assert.Equal(t, 0, st.Added)
	assert.Equal(t, 2, st.Total)
}
