package store

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// WriteFileAtomic writes to a temp file in the same directory, keeps the
// previous version as path.bak and renames the temp file into place. A
// crash leaves either the old or the new file, never a partial one.
func WriteFileAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "store: mkdir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "store: create temp for %s", path)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "store: write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "store: sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "store: close %s", tmpName)
	}

	if _, err := os.Stat(path); err == nil {
		bak := path + ".bak"
		_ = os.Remove(bak)
		if err := os.Link(path, bak); err != nil {
			// hard links are not available everywhere
			if b, rerr := os.ReadFile(path); rerr == nil {
				_ = os.WriteFile(bak, b, 0o644)
			}
		}
	}

	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "store: rename %s", tmpName)
	}
	return nil
}
