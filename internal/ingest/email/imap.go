package email

import (
	"context"
	"crypto/tls"
	"net"
	"slices"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DialAndLogin connects over TLS and logs in.
func DialAndLogin(ctx context.Context, addr, username, password string) (*imapclient.Client, error) {
	if addr == "" {
		return nil, eris.New("email: imap addr is required")
	}
	if username == "" || password == "" {
		return nil, eris.New("email: imap username/password is required")
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, eris.Wrapf(err, "email: bad imap addr %q", addr)
	}

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host},
	})
	if err != nil {
		return nil, eris.Wrap(err, "email: imap dial tls")
	}

	// close on cancel so blocked commands return
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })

	if err := c.Login(username, password).Wait(); err != nil {
		stop()
		_ = c.Close()
		return nil, eris.Wrap(err, "email: imap login")
	}
	return c, nil
}

// FetchSince returns up to max messages received after since, newest
// first, without setting \Seen. When from is non-empty the server filters
// on the From header.
func FetchSince(ctx context.Context, c *imapclient.Client, since time.Time, from string, max int) ([]Message, error) {
	if c == nil {
		return nil, eris.New("email: imap client is nil")
	}
	if max <= 0 {
		max = 50
	}

	criteria := &imap.SearchCriteria{Since: since}
	if from != "" {
		criteria.Header = []imap.SearchCriteriaHeaderField{{Key: "From", Value: from}}
	}
	data, err := c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, eris.Wrap(err, "email: imap uid search")
	}

	uids := data.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	slices.Reverse(uids)
	if len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	cmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = cmd.Close() }()

	out := make([]Message, 0, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		md := cmd.Next()
		if md == nil {
			break
		}
		buf, err := md.Collect()
		if err != nil {
			return out, eris.Wrap(err, "email: imap fetch collect")
		}
		raw := buf.FindBodySection(bodyAll)
		if len(raw) == 0 {
			continue
		}

		m, err := ParseMessage(bytesReader(raw))
		if err != nil {
			zap.L().Warn("unreadable message", zap.Uint32("uid", uint32(buf.UID)), zap.Error(err))
			continue
		}
		if buf.Envelope != nil {
			if m.Subject == "" {
				m.Subject = buf.Envelope.Subject
			}
			if m.Date.IsZero() {
				m.Date = buf.Envelope.Date
			}
			if m.From == "" && len(buf.Envelope.From) > 0 {
				m.From = buf.Envelope.From[0].Addr()
			}
		}
		out = append(out, m)
	}

	if err := cmd.Close(); err != nil {
		return out, eris.Wrap(err, "email: imap fetch close")
	}
	return out, nil
}

// LogoutAndClose logs out then closes the connection.
func LogoutAndClose(c *imapclient.Client) {
	if c == nil {
		return
	}
	if err := c.Logout().Wait(); err != nil {
		zap.L().Debug("imap logout", zap.Error(err))
	}
	_ = c.Close()
}
