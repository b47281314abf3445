// Package email reads job alert messages from an IMAP mailbox and turns
// them into raw blocks.
package email

import (
	"io"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/rotisserie/eris"

	"treasury-engine/internal/domain"
)

const maxPartBytes = 20 << 20

// Message is a decoded alert email.
type Message struct {
	ID      string
	From    string
	Subject string
	Date    time.Time
	HTML    string
	Plain   string
}

// ParseMessage decodes an RFC 822 message, keeping the largest text/html
// and text/plain parts. Transfer encodings and charsets are undone.
func ParseMessage(r io.Reader) (Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && mr == nil {
		return Message{}, eris.Wrap(err, "email: read message")
	}
	defer mr.Close()

	var m Message
	m.Subject, _ = mr.Header.Subject()
	m.Date, _ = mr.Header.Date()
	m.ID, _ = mr.Header.MessageID()
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		m.From = from[0].Address
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// a broken trailing part still leaves the earlier ones usable
			if m.HTML != "" || m.Plain != "" {
				break
			}
			return m, eris.Wrap(err, "email: read part")
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		b, err := io.ReadAll(io.LimitReader(p.Body, maxPartBytes))
		if err != nil {
			continue
		}
		switch strings.ToLower(ct) {
		case "text/html":
			if len(b) > len(m.HTML) {
				m.HTML = string(b)
			}
		case "text/plain", "":
			if len(b) > len(m.Plain) {
				m.Plain = string(b)
			}
		}
	}
	return m, nil
}

// Block turns the message into a raw block. The HTML part wins when both
// exist; the subject becomes the block context.
func (m Message) Block(source string) (domain.RawBlock, bool) {
	blk := domain.RawBlock{
		Source:     source,
		Context:    strings.TrimSpace(m.Subject),
		ReceivedAt: m.Date,
		Origin:     m.ID,
	}
	switch {
	case strings.TrimSpace(m.HTML) != "":
		blk.Kind, blk.Body = domain.KindEmailHTML, m.HTML
	case strings.TrimSpace(m.Plain) != "":
		blk.Kind, blk.Body = domain.KindEmailPlain, m.Plain
	default:
		return domain.RawBlock{}, false
	}
	return blk, true
}

// Matches reports whether the sender and subject pass the configured
// filters. An empty filter list accepts everything.
func (m Message) Matches(fromAny, subjectAny []string) bool {
	return containsAnyCI(m.From, fromAny) && containsAnyCI(m.Subject, subjectAny)
}

func containsAnyCI(s string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	s = strings.ToLower(s)
	for _, n := range needles {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}
