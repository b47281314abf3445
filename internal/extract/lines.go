package extract

import (
	"strings"

	"golang.org/x/net/html"

	"treasury-engine/internal/domain"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "tr": true, "td": true, "th": true,
	"li": true, "ul": true, "ol": true, "table": true, "tbody": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"article": true, "section": true, "header": true, "footer": true,
	"dd": true, "dt": true, "hr": true, "center": true,
}

// htmlLines renders the text of nodes as lines, breaking at block
// elements the way a mail client would. Script and style are skipped.
func htmlLines(nodes ...*html.Node) []string {
	var (
		lines []string
		cur   strings.Builder
	)
	flush := func() {
		if t := domain.CleanText(cur.String()); t != "" {
			lines = append(lines, t)
		}
		cur.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			cur.WriteByte(' ')
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head", "title", "noscript":
				return
			}
		}
		block := n.Type == html.ElementNode && blockTags[n.Data]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	flush()
	return lines
}

// textLines splits a plain-text body into cleaned lines, keeping empty
// ones so positions stay stable.
func textLines(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	raw := strings.Split(body, "\n")
	out := make([]string, len(raw))
	for i, l := range raw {
		out[i] = domain.CleanText(l)
	}
	return out
}
