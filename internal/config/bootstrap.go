package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

const RulesFileName = "rules.yml"

// EnsureUserRules writes the embedded defaults (with their comments) to
// dataDir/rules.yml unless the file exists, and returns its path.
func EnsureUserRules(dataDir string) (string, error) {
	userPath := filepath.Join(dataDir, RulesFileName)

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", eris.Wrapf(err, "config: stat %s", userPath)
	}

	if err := writeAtomic(userPath, DefaultRulesYAML()); err != nil {
		return "", err
	}
	return userPath, nil
}
