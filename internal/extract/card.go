package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"treasury-engine/internal/domain"
)

// ErrIncompleteCard marks a structured block whose title or company could
// not be located. Structured sources never yield partial records.
var ErrIncompleteCard = eris.New("extract: card lacks title or company")

var (
	titleClassRE    = regexp.MustCompile(`(?i)title`)
	companyClassRE  = regexp.MustCompile(`(?i)company|employer`)
	locationClassRE = regexp.MustCompile(`(?i)location|place`)
	placeOfWorkRE   = regexp.MustCompile(`(?im)(?:place of work|arbeitsort|location)[ \t]*:[ \t]*([\p{L}][\p{L} .\-]*)`)
	metaLineRE      = regexp.MustCompile(`(?i)\b\d+\s*%|\b\d+\s+(?:days?|tage?n?)\s+(?:ago|her)\b|^vor\s+\d+|^\d{1,2}\.\d{1,2}\.\d{2,4}$`)
)

// SplitCards cuts a result page into card fragments for a source: by the
// site's card selectors when one matches, else by job-detail links. At most
// max cards are returned when max > 0.
func (e *Extractor) SplitCards(source, page string, max int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse result page")
	}
	s, _ := e.site(source)

	var cards []string
	add := func(sel *goquery.Selection) bool {
		h, err := goquery.OuterHtml(sel)
		if err == nil && strings.TrimSpace(h) != "" {
			cards = append(cards, h)
		}
		return max <= 0 || len(cards) < max
	}

	for _, cs := range s.CardSelectors {
		found := doc.Find(cs)
		if found.Length() == 0 {
			continue
		}
		found.EachWithBreak(func(_ int, c *goquery.Selection) bool { return add(c) })
		return cards, nil
	}

	if s.linkRE == nil {
		return cards, nil
	}
	seen := map[string]bool{}
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !s.linkRE.MatchString(href) || seen[href] {
			return true
		}
		if s.exclude != "" && strings.Contains(href, s.exclude) {
			return true
		}
		seen[href] = true
		return add(cardContainer(a))
	})
	return cards, nil
}

func cardContainer(a *goquery.Selection) *goquery.Selection {
	for _, sel := range []string{"article", "li", "div"} {
		if c := a.Closest(sel); c.Length() > 0 {
			return c
		}
	}
	if p := a.Parent(); p.Length() > 0 {
		return p
	}
	return a
}

func (e *Extractor) extractCard(b domain.RawBlock) (domain.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.Body))
	if err != nil {
		return domain.Candidate{}, eris.Wrap(err, "extract: parse card")
	}
	root := doc.Selection
	s, _ := e.site(b.Source)
	link := e.cardLink(root, s)

	title := e.cardTitle(root, s, link)
	location := e.cardLocation(root, s)
	company := e.cardCompany(root, s, title, location)

	if !title.OK() || !company.OK() {
		return domain.Candidate{}, eris.Wrapf(ErrIncompleteCard, "title: %s; company: %s",
			orReason(title), orReason(company))
	}

	return domain.Candidate{
		Title:    title,
		Company:  company,
		Location: location,
		Country:  domain.Unresolved[string]("cards carry no country field"),
		URL:      e.canon.Canonical(absURL(s.BaseURL, attr(link, "href"))),
		Source:   b.Source,
		Context:  b.Context,
	}, nil
}

func (e *Extractor) cardTitle(root *goquery.Selection, s site, link *goquery.Selection) domain.Field[string] {
	return domain.FirstResolved(
		func() domain.Field[string] {
			return e.titleField(firstText(root, s.TitleSelectors), "site title selector")
		},
		func() domain.Field[string] {
			return e.titleField(classText(root, titleClassRE), "title class")
		},
		func() domain.Field[string] {
			return e.titleField(root.Find("h1, h2, h3, h4").First().Text(), "heading")
		},
		func() domain.Field[string] {
			return e.titleField(link.Text(), "link text")
		},
	)
}

func (e *Extractor) cardLocation(root *goquery.Selection, s site) domain.Field[string] {
	return domain.FirstResolved(
		func() domain.Field[string] {
			return e.valueField(firstText(root, s.LocationSelectors), "site location selector")
		},
		func() domain.Field[string] {
			return e.valueField(classText(root, locationClassRE), "location class")
		},
		func() domain.Field[string] { return e.labelledLocation(root) },
	)
}

func (e *Extractor) cardCompany(root *goquery.Selection, s site, title, location domain.Field[string]) domain.Field[string] {
	return domain.FirstResolved(
		func() domain.Field[string] {
			return e.valueField(firstText(root, s.CompanySelectors), "site company selector")
		},
		func() domain.Field[string] {
			return e.valueField(classText(root, companyClassRE), "company class")
		},
		func() domain.Field[string] {
			return e.lineAfterTitle(root, title, location)
		},
	)
}

// labelledLocation reads "Place of work:" or "Location:" text.
func (e *Extractor) labelledLocation(root *goquery.Selection) domain.Field[string] {
	if m := placeOfWorkRE.FindStringSubmatch(strings.Join(htmlLines(root.Nodes...), "\n")); m != nil {
		return e.valueField(m[1], "place of work label")
	}
	return domain.Unresolved[string]("place of work label: absent")
}

// cardLink picks the job link: the site's link selector, a link matching
// the site's detail pattern, then the first link.
func (e *Extractor) cardLink(root *goquery.Selection, s site) *goquery.Selection {
	if s.LinkSelector != "" {
		if a := root.Find(s.LinkSelector).First(); a.Length() > 0 {
			return a
		}
	}
	if s.linkRE != nil {
		var hit *goquery.Selection
		root.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if s.linkRE.MatchString(attr(a, "href")) {
				hit = a
				return false
			}
			return true
		})
		if hit != nil {
			return hit
		}
	}
	return root.Find("a[href]").First()
}

// lineAfterTitle takes the first plausible line below the title, skipping
// workload, age and location lines.
func (e *Extractor) lineAfterTitle(root *goquery.Selection, title, location domain.Field[string]) domain.Field[string] {
	t, ok := title.Get()
	if !ok {
		return domain.Unresolved[string]("line after title: no title")
	}
	loc := location.Or("")

	lines := htmlLines(root.Nodes...)
	idx := -1
	for i, l := range lines {
		if strings.EqualFold(l, t) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Unresolved[string]("line after title: title line not found")
	}
	end := min(idx+5, len(lines))
	for _, l := range lines[idx+1 : end] {
		switch {
		case e.isNoise(l), metaLineRE.MatchString(l), loc != "" && strings.EqualFold(l, loc):
			continue
		case len([]rune(l)) < 2:
			continue
		}
		return e.valueField(l, "line after title")
	}
	return domain.Unresolved[string]("line after title: nothing plausible")
}

func firstText(root *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := domain.CleanText(root.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// classText returns the text of the first element whose class matches re.
func classText(root *goquery.Selection, re *regexp.Regexp) string {
	var out string
	root.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !re.MatchString(attr(s, "class")) {
			return true
		}
		if t := domain.CleanText(s.Text()); t != "" {
			out = t
			return false
		}
		return true
	})
	return out
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

func orReason(f domain.Field[string]) string {
	if v, ok := f.Get(); ok {
		return v
	}
	return f.Reason()
}
