// Package sqlitepath resolves where the lens command line keeps its ledger.
package sqlitepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvVar overrides the default ledger location.
const EnvVar = "LENS_DB"

// ResolveSQLitePath returns flagValue when set, then $LENS_DB, then
// ~/.lens/lens.db. The parent directory of the default path is created.
func ResolveSQLitePath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(EnvVar); env != "" {
		return env, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find home directory: %w", err)
	}
	dir := filepath.Join(home, ".lens")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "lens.db"), nil
}
