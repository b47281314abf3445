package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"treasury-engine/internal/domain"
)

// JobStore is the canonical job CSV: date_scraped, source, company,
// title, location, country, url, technologies.
type JobStore struct {
	Path string
}

// Load reads every record. A missing or empty file is an empty store.
func (s JobStore) Load() ([]domain.JobRecord, error) {
	return readCSV[domain.JobRecord](s.Path)
}

// Save replaces the file atomically.
func (s JobStore) Save(jobs []domain.JobRecord) error {
	return writeCSV(s.Path, jobs)
}

// ProspectStore is the prospect CSV. Each scoring run replaces it.
type ProspectStore struct {
	Path string
}

func (s ProspectStore) Load() ([]domain.Prospect, error) {
	return readCSV[domain.Prospect](s.Path)
}

func (s ProspectStore) Save(ps []domain.Prospect) error {
	return writeCSV(s.Path, ps)
}

func readCSV[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	dec, err := csvutil.NewDecoder(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: read header %s", path)
	}

	var out []T
	for {
		var v T
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrapf(err, "store: decode %s line %d", path, len(out)+2)
		}
		out = append(out, v)
	}
	return out, nil
}

func writeCSV[T any](path string, rows []T) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(w)

	var zero T
	if err := enc.EncodeHeader(zero); err != nil {
		return eris.Wrap(err, "store: encode header")
	}
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return eris.Wrap(err, "store: encode row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "store: flush csv")
	}
	return WriteFileAtomic(path, buf.Bytes())
}
