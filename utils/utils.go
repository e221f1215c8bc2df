package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotDirectory is returned when a gallery argument is not a folder
var ErrNotDirectory = errors.New("not a directory")

// ValidateFolder checks that path exists and is a directory
func ValidateFolder(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("folder does not exist: %s: %w", path, err)
		}
		return fmt.Errorf("cannot access folder: %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	return nil
}

// GetDefaultDatabasePath returns the default path for the database file
func GetDefaultDatabasePath() string {
	return besideExecutable("gallerydiff.db")
}

// GetDefaultLogPath returns the log file used when debug mode is on and no log file is given
func GetDefaultLogPath() string {
	return "gallerydiff.log"
}

func besideExecutable(name string) string {
	// Get the executable path
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return name
	}
	return filepath.Join(filepath.Dir(exePath), name)
}

// UsageExamples returns example invocations for the help text
func UsageExamples(program string) string {
	return fmt.Sprintf(`  %[1]s "samples/001 - gin/original" "samples/001 - gin/edited"
  %[1]s --format table --config thresholds.toml ref/ target/
  %[1]s --database %[2]s ref/ target/
  %[1]s history --database %[2]s
  %[1]s show RUN_ID --database %[2]s --format text`, program, GetDefaultDatabasePath())
}
