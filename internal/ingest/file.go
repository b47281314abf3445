package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"treasury-engine/internal/domain"
	"treasury-engine/internal/ingest/email"
)

// FileSource replays saved alert emails (.eml), result pages and detail
// pages (.html) and plain bodies (.txt) from disk. A page whose name
// contains "detail" is read as a detail page.
type FileSource struct {
	Paths   []string // files or directories
	Source  string   // source name stamped on every block
	Context string
	Cards   CardSplitter
}

// CardSplitter cuts a result page into card fragments.
type CardSplitter interface {
	SplitCards(source, page string, max int) ([]string, error)
}

func (f FileSource) Name() string { return "file" }

func (f FileSource) Fetch(ctx context.Context) ([]domain.RawBlock, error) {
	files, err := expand(f.Paths)
	if err != nil {
		return nil, err
	}

	var out []domain.RawBlock
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return out, eris.Wrapf(err, "ingest: read %s", path)
		}
		st, _ := os.Stat(path)
		received := time.Now()
		if st != nil {
			received = st.ModTime()
		}

		blocks, err := f.blocksFor(path, b, received)
		if err != nil {
			zap.L().Warn("skipping file", zap.String("path", path), zap.Error(err))
			continue
		}
		out = append(out, blocks...)
	}
	return out, nil
}

func (f FileSource) blocksFor(path string, b []byte, received time.Time) ([]domain.RawBlock, error) {
	base := domain.RawBlock{Source: f.Source, Context: f.Context, ReceivedAt: received, Origin: path}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".eml":
		msg, err := email.ParseMessage(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		blk, ok := msg.Block(f.Source)
		if !ok {
			return nil, eris.Errorf("ingest: %s has no text body", path)
		}
		if f.Context != "" {
			blk.Context = f.Context
		}
		blk.Origin = path
		return []domain.RawBlock{blk}, nil

	case ".html", ".htm":
		if strings.Contains(strings.ToLower(filepath.Base(path)), "detail") {
			base.Kind, base.Body = domain.KindWebDetail, string(b)
			return []domain.RawBlock{base}, nil
		}
		if f.Cards == nil {
			return nil, eris.Errorf("ingest: no card splitter for %s", path)
		}
		cards, err := f.Cards.SplitCards(f.Source, string(b), 0)
		if err != nil {
			return nil, err
		}
		out := make([]domain.RawBlock, 0, len(cards))
		for _, c := range cards {
			blk := base
			blk.Kind, blk.Body = domain.KindWebCard, c
			out = append(out, blk)
		}
		return out, nil

	case ".txt":
		base.Kind, base.Body = domain.KindEmailPlain, string(b)
		return []domain.RawBlock{base}, nil
	}
	return nil, eris.Errorf("ingest: unsupported file type %s", path)
}

// expand walks directories; the result is sorted so runs are repeatable.
func expand(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: stat %s", p)
		}
		if !st.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: walk %s", p)
		}
	}
	sort.Strings(out)
	return out, nil
}
