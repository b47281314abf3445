package domain

import "time"

// BlockKind tells the extractor which strategy chain applies.
type BlockKind string

const (
	KindWebCard    BlockKind = "web_card"
	KindWebDetail  BlockKind = "web_detail"
	KindEmailPlain BlockKind = "email_plain"
	KindEmailHTML  BlockKind = "email_html"
)

// Structured kinds come from page markup: both title and company must
// resolve or the block is dropped.
func (k BlockKind) Structured() bool {
	return k == KindWebCard || k == KindWebDetail
}

// RawBlock is one unit of already-fetched text handed to the core by a
// source adapter.
type RawBlock struct {
	Kind       BlockKind
	Body       string
	Source     string // e.g. StepStone.de, Jobs.ch, LinkedIn
	Context    string // search context or email subject
	ReceivedAt time.Time
	Origin     string // message id / page url, for logs only
}

// Candidate is an extractor result before normalization.
type Candidate struct {
	Title    Field[string]
	Company  Field[string]
	Location Field[string]
	Country  Field[string]
	URL      string
	Source   string
	Context  string
}
