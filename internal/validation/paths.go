package validation

import (
	"os"
	"path/filepath"
)

// PathHandler resolves the paths the harness reads and writes.
type PathHandler struct {
	validator *FilePathValidator
}

// NewSecurePathHandler creates a path handler with secure validation
func NewSecurePathHandler() *PathHandler {
	return &PathHandler{
		validator: NewFilePathValidator(),
	}
}

// NewPermissivePathHandler creates a path handler without directory restrictions
func NewPermissivePathHandler() *PathHandler {
	return &PathHandler{
		validator: NewPermissiveFilePathValidator(),
	}
}

// DataFile validates a CSV file that is about to be scanned.
func (ph *PathHandler) DataFile(path string) (string, error) {
	return ph.validator.ValidateExistingFile(path)
}

// OutputFile validates a file that is about to be written, creating its
// parent directory.
func (ph *PathHandler) OutputFile(path string) (string, error) {
	validated, err := ph.validator.ValidateFile(path)
	if err != nil {
		return "", err
	}
	if _, err := ph.validator.ValidateDirectory(filepath.Dir(validated), true); err != nil {
		return "", err
	}
	return validated, nil
}

// HistoryDB returns a validated history database path, defaulting to
// ~/.csvscan/history.db, with its directory created.
func (ph *PathHandler) HistoryDB(userPath string) (string, error) {
	if userPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		userPath = filepath.Join(homeDir, ".csvscan", "history.db")
	}
	return ph.OutputFile(userPath)
}
