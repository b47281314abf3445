package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobRecord(t *testing.T) {
	scraped := time.Date(2026, 10, 12, 23, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	rec, err := NewJobRecord(JobParams{
		DateScraped:  scraped,
		Source:       " LinkedIn ",
		Company:      "  ",
		Title:        "Treasury Manager   (m/w/d)",
		Location:     "Frankfurt  am Main",
		URL:          " https://example.com/1 ",
		Technologies: []string{"SAP", "Kyriba"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Treasury Manager (m/w/d)", rec.Title)
	assert.Equal(t, Unknown, rec.Company)
	assert.Equal(t, Unknown, rec.Country)
	assert.Equal(t, "Frankfurt am Main", rec.Location)
	assert.Equal(t, "https://example.com/1", rec.URL)
	assert.Equal(t, "2026-10-12", rec.DateScraped.String())
	assert.NoError(t, rec.Validate())

	_, err = NewJobRecord(JobParams{Title: " \t "})
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.ErrorIs(t, JobRecord{}.Validate(), ErrEmptyTitle)
}

func TestTags(t *testing.T) {
	b, err := Tags{"SAP", "Kyriba"}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "SAP, Kyriba", string(b))

	var tags Tags
	require.NoError(t, tags.UnmarshalText([]byte(" SAP ,, Kyriba,")))
	assert.Equal(t, Tags{"SAP", "Kyriba"}, tags)
	assert.True(t, tags.Has("SAP"))
	assert.False(t, tags.Has("sap"))

	require.NoError(t, tags.UnmarshalText(nil))
	assert.Empty(t, tags)
}

func TestDate(t *testing.T) {
	for _, s := range []string{"2026-10-12", "2026-10-12T08:00:00Z", "2026-10-12 08:00:00"} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, "2026-10-12", d.String())
	}

	d, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())
	assert.Equal(t, "", d.String())

	_, err = ParseDate("12.10.2026")
	assert.Error(t, err)

	var got struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2026-10-12"}`), &got))
	assert.Equal(t, NewDate(time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC)), got.D)

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2026-10-12"}`, string(out))
}

func TestFirstResolved(t *testing.T) {
	calls := 0
	miss := func(reason string) func() Field[string] {
		return func() Field[string] { calls++; return Unresolved[string](reason) }
	}

	f := FirstResolved(miss("no selector"), func() Field[string] { return Resolved("Acme") }, miss("never"))
	v, ok := f.Get()
	assert.True(t, ok)
	assert.Equal(t, "Acme", v)
	assert.Equal(t, 1, calls, "later strategies are not run")
	assert.Empty(t, f.Reason())

	f = FirstResolved(miss("no selector"), miss("no class"))
	assert.False(t, f.OK())
	assert.Equal(t, "no selector; no class", f.Reason())
	assert.Equal(t, "fallback", f.Or("fallback"))

	assert.Equal(t, "no strategy matched", FirstResolved[string]().Reason())
}

func TestBlockKindStructured(t *testing.T) {
	assert.True(t, KindWebCard.Structured())
	assert.True(t, KindWebDetail.Structured())
	assert.False(t, KindEmailPlain.Structured())
	assert.False(t, KindEmailHTML.Structured())
}
