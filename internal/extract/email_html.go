package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/rotisserie/eris"

	"treasury-engine/internal/domain"
)

const maxContainerDepth = 8

type jobGroup struct {
	url     string
	anchors []string
	blocks  [][]string
}

// extractEmailHTML groups job-link anchors by canonical URL, takes the
// richest surrounding container per URL and reads the fields from its
// lines. A body without job anchors falls back to the plain-text scan of
// its markdown rendering.
func (e *Extractor) extractEmailHTML(b domain.RawBlock) ([]domain.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.Body))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse email html")
	}

	var (
		groups []*jobGroup
		byURL  = map[string]*jobGroup{}
	)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !e.isJobURL(href) {
			return
		}
		key := e.canon.Canonical(unwrapRedirect(href))
		g, ok := byURL[key]
		if !ok {
			g = &jobGroup{url: key}
			byURL[key] = g
			groups = append(groups, g)
		}
		if t := domain.CleanText(a.Text()); t != "" && !e.isNoise(t) {
			g.anchors = append(g.anchors, t)
		}
		g.blocks = append(g.blocks, htmlLines(e.container(a, key).Nodes...))
	})

	if len(groups) == 0 {
		md, err := htmltomarkdown.ConvertString(b.Body)
		if err != nil {
			return nil, eris.Wrap(err, "extract: html to markdown")
		}
		return e.extractPlain(b, e.stripMarkdown(md)), nil
	}

	out := make([]domain.Candidate, 0, len(groups))
	for _, g := range groups {
		out = append(out, e.fromLines(b, g.url, g.anchors, richest(g.blocks)))
	}
	return out, nil
}

// container climbs from the anchor while the ancestor holds no other job
// link, so the result is the largest element that belongs to this job.
func (e *Extractor) container(a *goquery.Selection, key string) *goquery.Selection {
	best := a
	cur := a
	for depth := 0; depth < maxContainerDepth; depth++ {
		parent := cur.Parent()
		if parent.Length() == 0 || parent.Is("body, html") {
			break
		}
		if e.holdsOtherJob(parent, key) {
			break
		}
		cur = parent
		best = parent
	}
	return best
}

func (e *Extractor) holdsOtherJob(s *goquery.Selection, key string) bool {
	other := false
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if e.isJobURL(href) && e.canon.Canonical(unwrapRedirect(href)) != key {
			other = true
			return false
		}
		return true
	})
	return other
}

// richest picks the block with the most lines, then the most text.
func richest(blocks [][]string) []string {
	var best []string
	bestLen := -1
	for _, b := range blocks {
		n := 0
		for _, l := range b {
			n += len(l)
		}
		if len(b) > len(best) || (len(b) == len(best) && n > bestLen) {
			best, bestLen = b, n
		}
	}
	return best
}

// anchorLine returns the index of the first line equal to an anchor text.
func anchorLine(lines, anchors []string) int {
	for i, l := range lines {
		for _, a := range anchors {
			if l == a {
				return i
			}
		}
	}
	return -1
}

// fromLines reads title, company and location from a job container. The
// line carrying a job link's text is the title when the container holds
// one, otherwise the first non-noise line is. The next one either splits
// on a field separator into company and "location, country", or the
// following lines are company and location in turn.
func (e *Extractor) fromLines(b domain.RawBlock, link string, anchors, raw []string) domain.Candidate {
	c := domain.Candidate{URL: link, Source: b.Source, Context: b.Context}

	var lines []string
	for _, l := range raw {
		if !e.isNoise(l) {
			lines = append(lines, domain.CleanText(l))
		}
	}

	c.Title = domain.Unresolved[string]("first line: container has only noise")
	c.Company = domain.Unresolved[string]("no line after title")
	c.Location = domain.Unresolved[string]("no line after title")
	c.Country = domain.Unresolved[string]("no country token")
	if len(lines) == 0 {
		return c
	}

	at, strategy := anchorLine(lines, anchors), "job link text"
	if at < 0 {
		at, strategy = 0, "first line"
	}
	c.Title = e.lineTitle(lines[at], strategy)
	rest := lines[at+1:]
	if len(rest) == 0 {
		return c
	}

	if company, place, ok := e.splitFields(rest[0]); ok {
		c.Company = e.valueField(company, "separator split")
		loc, country := splitCountry(place)
		c.Location = e.valueField(loc, "separator split")
		if country != "" {
			c.Country = e.valueField(country, "last comma token")
		}
		return c
	}

	c.Company = e.valueField(rest[0], "line after title")
	if len(rest) > 1 {
		loc, country := splitCountry(rest[1])
		c.Location = e.valueField(loc, "second line after title")
		if country != "" {
			c.Country = e.valueField(country, "last comma token")
		}
	}
	return c
}
