package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kaptinlin/jsonrepair"
	"github.com/rotisserie/eris"

	"treasury-engine/internal/domain"
)

// jobPosting is the subset of schema.org/JobPosting the pipeline reads.
type jobPosting struct {
	Title              string
	HiringOrganization string
	Locality           string
	Country            string
	URL                string
}

// extractDetail reads a job detail page. Each field tries JSON-LD
// JobPosting data first and then the page itself: og:title and h1 for the
// title, the labelled "Location:" text for the location, then the card
// strategies. A page without JSON-LD runs the same chain.
func (e *Extractor) extractDetail(b domain.RawBlock) (domain.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.Body))
	if err != nil {
		return domain.Candidate{}, eris.Wrap(err, "extract: parse detail page")
	}
	root := doc.Selection
	s, _ := e.site(b.Source)
	jp, _ := e.findJobPosting(doc)
	cardLink := e.cardLink(root, s)

	title := domain.FirstResolved(
		func() domain.Field[string] { return e.titleField(jp.Title, "json-ld title") },
		func() domain.Field[string] {
			return e.titleField(attr(doc.Find(`meta[property="og:title"]`).First(), "content"), "og:title")
		},
		func() domain.Field[string] { return e.titleField(doc.Find("h1").First().Text(), "h1") },
		func() domain.Field[string] { return e.cardTitle(root, s, cardLink) },
	)
	location := domain.FirstResolved(
		func() domain.Field[string] { return e.valueField(jp.Locality, "json-ld addressLocality") },
		func() domain.Field[string] { return e.labelledLocation(root) },
		func() domain.Field[string] { return e.cardLocation(root, s) },
	)
	company := domain.FirstResolved(
		func() domain.Field[string] { return e.valueField(jp.HiringOrganization, "json-ld hiringOrganization") },
		func() domain.Field[string] { return e.cardCompany(root, s, title, location) },
	)
	if !title.OK() || !company.OK() {
		return domain.Candidate{}, eris.Wrapf(ErrIncompleteCard, "title: %s; company: %s",
			orReason(title), orReason(company))
	}

	link := jp.URL
	if link == "" {
		link = attr(doc.Find(`link[rel="canonical"]`).First(), "href")
	}
	if link == "" {
		link = b.Origin
	}
	if link == "" {
		link = attr(cardLink, "href")
	}

	country := e.valueField(jp.Country, "json-ld addressCountry")
	return domain.Candidate{
		Title:    title,
		Company:  company,
		Location: location,
		Country:  country,
		URL:      e.canon.Canonical(absURL(s.BaseURL, link)),
		Source:   b.Source,
		Context:  b.Context,
	}, nil
}

// findJobPosting scans ld+json scripts, repairing malformed JSON before
// giving up on a script.
func (e *Extractor) findJobPosting(doc *goquery.Document) (jobPosting, bool) {
	var (
		found jobPosting
		ok    bool
	)
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			repaired, rerr := jsonrepair.JSONRepair(raw)
			if rerr != nil {
				return true
			}
			if err := json.Unmarshal([]byte(repaired), &v); err != nil {
				return true
			}
		}
		if obj := findTyped(v, "JobPosting"); obj != nil {
			found, ok = toJobPosting(obj), true
			return false
		}
		return true
	})
	return found, ok
}

// findTyped walks arrays and @graph containers for an object of @type t.
func findTyped(v any, t string) map[string]any {
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			if o := findTyped(item, t); o != nil {
				return o
			}
		}
	case map[string]any:
		if hasType(x["@type"], t) {
			return x
		}
		if g, ok := x["@graph"]; ok {
			return findTyped(g, t)
		}
	}
	return nil
}

func hasType(v any, t string) bool {
	switch x := v.(type) {
	case string:
		return strings.EqualFold(x, t)
	case []any:
		for _, item := range x {
			if hasType(item, t) {
				return true
			}
		}
	}
	return false
}

func toJobPosting(o map[string]any) jobPosting {
	jp := jobPosting{
		Title:              str(o["title"]),
		HiringOrganization: nameOf(o["hiringOrganization"]),
		URL:                str(o["url"]),
	}
	loc := o["jobLocation"]
	if arr, ok := loc.([]any); ok && len(arr) > 0 {
		loc = arr[0]
	}
	if m, ok := loc.(map[string]any); ok {
		if addr, ok := m["address"].(map[string]any); ok {
			jp.Locality = str(addr["addressLocality"])
			jp.Country = nameOf(addr["addressCountry"])
		}
	}
	return jp
}

// nameOf reads either a plain string or an object's "name".
func nameOf(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case map[string]any:
		return str(x["name"])
	}
	return ""
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
