// Package database manages the on-disk kraken2 database: locating and
// validating an installed copy, and fetching a prebuilt one over HTTP.
package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// requiredFiles are the files every usable kraken2 database carries.
var requiredFiles = []string{"hash.k2d", "opts.k2d", "taxo.k2d"}

// ErrNotFound indicates the database directory does not exist.
var ErrNotFound = errors.New("database: directory not found")

// InvalidError reports a directory that exists but is not a complete
// database.
type InvalidError struct {
	Dir     string
	Missing []string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("database: %s is missing %v", e.Dir, e.Missing)
}

// Resolve validates dir as a kraken2 database and returns the directory
// actually holding the index files. Archives often unpack into a "db"
// subdirectory, so that is accepted as a fallback.
func Resolve(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return "", fmt.Errorf("database: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("database: %s is not a directory", dir)
	}

	if missing := missingFiles(dir); len(missing) == 0 {
		return dir, nil
	}

	sub := filepath.Join(dir, "db")
	if info, err := os.Stat(sub); err == nil && info.IsDir() {
		if missing := missingFiles(sub); len(missing) == 0 {
			return sub, nil
		}
	}

	return "", &InvalidError{Dir: dir, Missing: missingFiles(dir)}
}

func missingFiles(dir string) []string {
	var missing []string
	for _, name := range requiredFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}
