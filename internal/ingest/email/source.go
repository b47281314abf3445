package email

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"treasury-engine/internal/config"
	"treasury-engine/internal/domain"
	"treasury-engine/internal/secrets"
)

// Source reads alert mails from the configured mailbox.
type Source struct {
	Cfg config.EmailConfig
	Now func() time.Time
}

func (s Source) Name() string { return "email" }

func (s Source) Fetch(ctx context.Context) ([]domain.RawBlock, error) {
	cfg := s.Cfg
	if !cfg.Enabled {
		return nil, nil
	}
	addr := IMAPAddr(cfg)
	pw, err := secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(cfg.Username, addr))
	if err != nil {
		return nil, eris.Wrap(err, "email: imap password")
	}

	c, err := DialAndLogin(ctx, addr, cfg.Username, pw)
	if err != nil {
		return nil, err
	}
	defer LogoutAndClose(c)

	if _, err := c.Select(cfg.Mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, eris.Wrapf(err, "email: select %q", cfg.Mailbox)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	since := now().AddDate(0, 0, -cfg.DaysBack)

	var from string
	if len(cfg.FromAny) == 1 {
		from = cfg.FromAny[0]
	}
	msgs, err := FetchSince(ctx, c, since, from, cfg.MaxMessages)
	if err != nil {
		return nil, err
	}
	return Blocks(msgs, cfg), nil
}

// Blocks keeps the messages that pass the sender and subject filters.
func Blocks(msgs []Message, cfg config.EmailConfig) []domain.RawBlock {
	out := make([]domain.RawBlock, 0, len(msgs))
	for _, m := range msgs {
		if !m.Matches(cfg.FromAny, cfg.SubjectAny) {
			continue
		}
		blk, ok := m.Block(cfg.Source)
		if !ok {
			zap.L().Debug("message without text body", zap.String("id", m.ID))
			continue
		}
		out = append(out, blk)
	}
	return out
}

// IMAPAddr is host:port for the mailbox; the port defaults to 993.
func IMAPAddr(cfg config.EmailConfig) string {
	if _, _, err := net.SplitHostPort(cfg.IMAPHost); err == nil {
		return cfg.IMAPHost
	}
	port := cfg.IMAPPort
	if port == 0 {
		port = 993
	}
	return net.JoinHostPort(cfg.IMAPHost, strconv.Itoa(port))
}

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }
