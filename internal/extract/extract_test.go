package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasury-engine/internal/config"
	"treasury-engine/internal/domain"
)

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New(config.DefaultRules())
	require.NoError(t, err)
	return e
}

func value(t *testing.T, f domain.Field[string]) string {
	t.Helper()
	v, ok := f.Get()
	require.True(t, ok, "unresolved: %s", f.Reason())
	return v
}

const plainAlert = `Your job alert for treasury in Germany
--------------------------------------

Senior Treasury Manager
Acme Treasury GmbH
Frankfurt am Main
View job: https://www.linkedin.com/comm/jobs/view/3811111111/?trackingId=abc

Interim Cash Manager (Kyriba)
Beta AG
Apply now
Munich
View job: https://www.linkedin.com/comm/jobs/view/3822222222/

Zeta GmbH
Hamburg
View job: https://www.linkedin.com/comm/jobs/view/3833333333/
---------
Unsubscribe | Help
`

func TestExtract_EmailPlain(t *testing.T) {
	e := newExtractor(t)

	cands, err := e.Extract(domain.RawBlock{Kind: domain.KindEmailPlain, Body: plainAlert, Source: "LinkedIn", Context: "treasury in Germany"})
	require.NoError(t, err)
	require.Len(t, cands, 3)

	c := cands[0]
	assert.Equal(t, "Senior Treasury Manager", value(t, c.Title))
	assert.Equal(t, "Acme Treasury GmbH", value(t, c.Company))
	assert.Equal(t, "Frankfurt am Main", value(t, c.Location))
	assert.Equal(t, "https://www.linkedin.com/jobs/view/3811111111/", c.URL)
	assert.Equal(t, "treasury in Germany", c.Context)

	c = cands[1]
	assert.Equal(t, "Interim Cash Manager (Kyriba)", value(t, c.Title))
	assert.Equal(t, "Beta AG", value(t, c.Company))
	assert.Equal(t, "Munich", value(t, c.Location), "noise lines are skipped")

	// the walk stops at the previous marker, so only two lines are found
	c = cands[2]
	assert.False(t, c.Title.OK())
	assert.NotEmpty(t, c.Title.Reason())
	assert.Equal(t, "Zeta GmbH", value(t, c.Company))
}

const htmlAlert = `<html><head><style>p{margin:0}</style></head><body>
<table><tr><td>Your job alert for treasury</td></tr></table>
<table>
  <tr><td>
    <table><tr>
      <td><a href="https://www.linkedin.com/comm/jobs/view/111/?trk=eml"><img alt="Acme logo" src="x.png"></a></td>
      <td><a href="https://www.linkedin.com/comm/jobs/view/111/?refId=zz">Treasury Manager</a>
        <p>Acme Treasury GmbH · Zürich, Switzerland</p>
        <p>Actively recruiting</p></td>
    </tr></table>
  </td></tr>
  <tr><td>
    <table><tr><td>
      <a href="https://www.google.com/url?q=https://www.linkedin.com/comm/jobs/view/222/">Head of Cash Management</a>
      <p>Beta AG</p>
      <p>Wien, Austria</p>
    </td></tr></table>
  </td></tr>
</table>
<p><a href="https://www.linkedin.com/comm/jobs/alerts">Manage job alerts</a></p>
</body></html>`

func TestExtract_EmailHTML(t *testing.T) {
	e := newExtractor(t)

	cands, err := e.Extract(domain.RawBlock{Kind: domain.KindEmailHTML, Body: htmlAlert, Source: "LinkedIn"})
	require.NoError(t, err)
	require.Len(t, cands, 2, "anchors are grouped by canonical url")

	c := cands[0]
	assert.Equal(t, "https://www.linkedin.com/jobs/view/111/", c.URL)
	assert.Equal(t, "Treasury Manager", value(t, c.Title))
	assert.Equal(t, "Acme Treasury GmbH", value(t, c.Company))
	assert.Equal(t, "Zürich", value(t, c.Location))
	assert.Equal(t, "Switzerland", value(t, c.Country))

	c = cands[1]
	assert.Equal(t, "https://www.linkedin.com/jobs/view/222/", c.URL)
	assert.Equal(t, "Head of Cash Management", value(t, c.Title))
	assert.Equal(t, "Beta AG", value(t, c.Company))
	assert.Equal(t, "Wien", value(t, c.Location))
	assert.Equal(t, "Austria", value(t, c.Country))
}

func TestExtract_EmailHTMLWithoutAnchors(t *testing.T) {
	e := newExtractor(t)

	body := `<div><p><strong>Treasury Analyst</strong></p><p>Gamma SE</p><p>Basel</p>
<p>View job: https://www.linkedin.com/jobs/view/333/</p></div>`

	cands, err := e.Extract(domain.RawBlock{Kind: domain.KindEmailHTML, Body: body, Source: "LinkedIn"})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "Treasury Analyst", value(t, cands[0].Title))
	assert.Equal(t, "Gamma SE", value(t, cands[0].Company))
	assert.Equal(t, "Basel", value(t, cands[0].Location))
	assert.Equal(t, "https://www.linkedin.com/jobs/view/333/", cands[0].URL)
}

func TestExtract_EmailShortTitles(t *testing.T) {
	e := newExtractor(t)

	html := `<table><tr><td>Jobs you may be interested in</td></tr>
<tr><td><a href="https://www.linkedin.com/comm/jobs/view/222/">CFO</a><br>Beta AG · Zurich, Switzerland</td></tr></table>`
	cands, err := e.Extract(domain.RawBlock{Kind: domain.KindEmailHTML, Body: html, Source: "LinkedIn"})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "CFO", value(t, cands[0].Title))
	assert.Equal(t, "Beta AG", value(t, cands[0].Company))
	assert.Equal(t, "Zurich", value(t, cands[0].Location))
	assert.Equal(t, "Switzerland", value(t, cands[0].Country))

	plain := "CTO\nGamma SE\nBasel\nView job: https://www.linkedin.com/jobs/view/444/\n"
	cands, err = e.Extract(domain.RawBlock{Kind: domain.KindEmailPlain, Body: plain, Source: "LinkedIn"})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "CTO", value(t, cands[0].Title))
	assert.Equal(t, "Gamma SE", value(t, cands[0].Company))
}

func TestExtract_StepStoneCard(t *testing.T) {
	e := newExtractor(t)

	card := `<article data-at="job-item">
  <a data-at="job-item-title" href="/stellenangebote--Treasury-Manager-Frankfurt-Acme--123.html?utm_source=x"><h2>Treasury Manager (m/w/d)</h2></a>
  <span data-at="job-item-company-name">Acme Treasury GmbH</span>
  <span data-at="job-item-location">Frankfurt am Main</span>
</article>`

	cands, err := e.Extract(domain.RawBlock{Kind: domain.KindWebCard, Body: card, Source: "StepStone.de", Context: "Treasury in Deutschland"})
	require.NoError(t, err)
	require.Len(t, cands, 1)

	c := cands[0]
	assert.Equal(t, "Treasury Manager (m/w/d)", value(t, c.Title))
	assert.Equal(t, "Acme Treasury GmbH", value(t, c.Company))
	assert.Equal(t, "Frankfurt am Main", value(t, c.Location))
	assert.Equal(t, "https://www.stepstone.de/stellenangebote--Treasury-Manager-Frankfurt-Acme--123.html", c.URL)
}

func TestExtract_CardWithoutCompanyIsDropped(t *testing.T) {
	e := newExtractor(t)

	_, err := e.Extract(domain.RawBlock{
		Kind:   domain.KindWebCard,
		Body:   `<article data-at="job-item"><h2>Treasury Manager</h2></article>`,
		Source: "StepStone.de",
	})
	assert.ErrorIs(t, err, ErrIncompleteCard)

	_, err = e.Extract(domain.RawBlock{
		Kind:   domain.KindWebCard,
		Body:   `<article><span class="company-name">Acme</span><span>Apply</span></article>`,
		Source: "StepStone.de",
	})
	assert.ErrorIs(t, err, ErrIncompleteCard)
}

const jobsChPage = `<html><body>
<a href="/en/vacancies/?term=Treasury">12 Treasury job offers</a>
<ul>
  <li><a href="/en/vacancies/detail/aaa/"><h3>Treasury Specialist</h3></a><p>80 – 100%</p><p>Zug Holding AG</p><p>Place of work: Zug</p></li>
  <li><a href="/en/vacancies/detail/bbb/"><h3>Cash Manager</h3></a><p>Delta Bank</p><p>Zürich</p></li>
  <li><a href="/en/vacancies/detail/bbb/"><h3>Cash Manager</h3></a></li>
</ul>
</body></html>`

func TestSplitCardsAndExtract_JobsCh(t *testing.T) {
	e := newExtractor(t)

	cards, err := e.SplitCards("Jobs.ch", jobsChPage, 0)
	require.NoError(t, err)
	require.Len(t, cards, 2)

	limited, err := e.SplitCards("Jobs.ch", jobsChPage, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	cands, err := e.Extract(domain.RawBlock{Kind: domain.KindWebCard, Body: cards[0], Source: "Jobs.ch"})
	require.NoError(t, err)
	c := cands[0]
	assert.Equal(t, "Treasury Specialist", value(t, c.Title))
	assert.Equal(t, "Zug Holding AG", value(t, c.Company), "workload line is skipped")
	assert.Equal(t, "Zug", value(t, c.Location))
	assert.Equal(t, "https://www.jobs.ch/en/vacancies/detail/aaa/", c.URL)

	cands, err = e.Extract(domain.RawBlock{Kind: domain.KindWebCard, Body: cards[1], Source: "Jobs.ch"})
	require.NoError(t, err)
	assert.Equal(t, "Delta Bank", value(t, cands[0].Company))
}

func TestSplitCards_StepStoneSelectors(t *testing.T) {
	e := newExtractor(t)

	page := `<main>
<article data-at="job-item"><h2>A Treasury Role</h2></article>
<article data-at="job-item"><h2>B Treasury Role</h2></article>
<article class="job-teaser"><h2>ignored once the first selector matches</h2></article>
</main>`
	cards, err := e.SplitCards("StepStone.de", page, 0)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Contains(t, cards[1], "B Treasury Role")

	cards, err = e.SplitCards("Unknown Board", page, 0)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestExtract_DetailJSONLD(t *testing.T) {
	e := newExtractor(t)

	page := `<html><head><script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
 {"@type":"Organization","name":"Jobs Portal"},
 {"@type":"JobPosting","title":"Head of Treasury","hiringOrganization":{"@type":"Organization","name":"Omega AG"},
  "jobLocation":[{"@type":"Place","address":{"addressLocality":"Basel","addressCountry":"CH"}}],
  "url":"https://www.jobs.ch/en/vacancies/detail/ccc/?utm_medium=x",}
]}
</script></head><body><h1>Something else</h1></body></html>`

	cands, err := e.Extract(domain.RawBlock{Kind: domain.KindWebDetail, Body: page, Source: "Jobs.ch"})
	require.NoError(t, err)
	require.Len(t, cands, 1)

	c := cands[0]
	assert.Equal(t, "Head of Treasury", value(t, c.Title))
	assert.Equal(t, "Omega AG", value(t, c.Company))
	assert.Equal(t, "Basel", value(t, c.Location))
	assert.Equal(t, "CH", value(t, c.Country))
	assert.Equal(t, "https://www.jobs.ch/en/vacancies/detail/ccc/", c.URL)
}

func TestExtract_DetailFallsBackToCard(t *testing.T) {
	e := newExtractor(t)

	page := `<html><body><h1>Treasury Analyst</h1><div class="employer">Sigma GmbH</div><span class="job-location">Bern</span></body></html>`
	cands, err := e.Extract(domain.RawBlock{Kind: domain.KindWebDetail, Body: page, Source: "Jobs.ch", Origin: "https://www.jobs.ch/en/vacancies/detail/ddd/"})
	require.NoError(t, err)
	assert.Equal(t, "Treasury Analyst", value(t, cands[0].Title))
	assert.Equal(t, "Sigma GmbH", value(t, cands[0].Company))
	assert.Equal(t, "Bern", value(t, cands[0].Location))
}

func TestExtract_DetailLabelledLocation(t *testing.T) {
	e := newExtractor(t)

	page := `<html><head><script type="application/ld+json">
{"@type":"JobPosting","title":"Treasury Manager","hiringOrganization":"Kappa AG"}
</script></head><body><h1>Treasury Manager</h1><p>Location: Zug</p></body></html>`
	cands, err := e.Extract(domain.RawBlock{Kind: domain.KindWebDetail, Body: page, Source: "Jobs.ch"})
	require.NoError(t, err)
	assert.Equal(t, "Kappa AG", value(t, cands[0].Company))
	assert.Equal(t, "Zug", value(t, cands[0].Location))
}

func TestExtract_DetailWithoutJSONLDUsesOGTitle(t *testing.T) {
	e := newExtractor(t)

	page := `<html><head><meta property="og:title" content="Group Treasurer"></head>
<body><h2>Similar jobs</h2><div class="employer">Lambda SE</div><p>Arbeitsort: Luzern</p></body></html>`
	cands, err := e.Extract(domain.RawBlock{Kind: domain.KindWebDetail, Body: page, Source: "Jobs.ch", Origin: "https://www.jobs.ch/en/vacancies/detail/eee/"})
	require.NoError(t, err)
	assert.Equal(t, "Group Treasurer", value(t, cands[0].Title))
	assert.Equal(t, "Lambda SE", value(t, cands[0].Company))
	assert.Equal(t, "Luzern", value(t, cands[0].Location))
	assert.Equal(t, "https://www.jobs.ch/en/vacancies/detail/eee/", cands[0].URL)
}

func TestExtract_UnsupportedKind(t *testing.T) {
	e := newExtractor(t)
	_, err := e.Extract(domain.RawBlock{Kind: "pdf"})
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestIsNoise(t *testing.T) {
	e := newExtractor(t)

	for _, l := range []string{"", "Apply now", "Easy Apply", "-----", "• • •", "Place of work:", "63 Cash Manager job offers",
		"12 jobs found", "Unsubscribe from this alert", "https://www.linkedin.com/jobs/view/1/", "3 connections work here"} {
		assert.True(t, e.isNoise(l), l)
	}
	for _, l := range []string{"Treasury Manager", "Acme AG", "Zürich", "Head of Cash Management"} {
		assert.False(t, e.isNoise(l), l)
	}
}
