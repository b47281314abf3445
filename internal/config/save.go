package config

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SaveRules validates and writes rules atomically, keeping a .bak of the
// previous file.
func SaveRules(path string, r Rules) error {
	if _, v := NormalizeAndValidate(r); !v.OK() {
		return v.Err()
	}

	b, err := yaml.Marshal(&r)
	if err != nil {
		return eris.Wrap(err, "config: marshal rules")
	}
	return writeAtomic(path, b)
}

func writeAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "config: mkdir %s", dir)
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return eris.Wrapf(err, "config: write %s", tmp)
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "config: rename %s", tmp)
	}
	return nil
}
