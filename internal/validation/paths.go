package validation

import (
	"os"
	"path/filepath"
)

// PathHandler resolves the application's on-disk locations.
type PathHandler struct {
	validator *FilePathValidator
}

// NewSecurePathHandler creates a path handler with secure validation
func NewSecurePathHandler() *PathHandler {
	return &PathHandler{validator: NewFilePathValidator()}
}

// NewPermissivePathHandler creates a path handler for development/testing
func NewPermissivePathHandler() *PathHandler {
	return &PathHandler{validator: NewPermissiveFilePathValidator()}
}

func defaultUnderHome(parts ...string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{homeDir}, parts...)...), nil
}

// GetSecureDBPath returns a validated database path
func (ph *PathHandler) GetSecureDBPath(userPath string) (string, error) {
	if userPath == "" {
		var err error
		if userPath, err = defaultUnderHome(".pixa.db"); err != nil {
			return "", err
		}
	}
	return ph.validator.ValidateFile(userPath)
}

// GetSecureIndexPath returns a validated search index path. Bleve indexes are
// directories and are created by the index itself.
func (ph *PathHandler) GetSecureIndexPath(userPath string) (string, error) {
	if userPath == "" {
		var err error
		if userPath, err = defaultUnderHome(".pixa", "index.bleve"); err != nil {
			return "", err
		}
	}
	return ph.validator.ValidateDirectory(userPath, false)
}

// GetDownloadDir returns the validated download directory, creating it.
func (ph *PathHandler) GetDownloadDir(userPath string) (string, error) {
	if userPath == "" {
		var err error
		if userPath, err = defaultUnderHome("Pictures", "Pixabay"); err != nil {
			return "", err
		}
	}
	return ph.validator.ValidateDirectory(userPath, true)
}

// LockPath is the instance lock file that sits next to the database.
func LockPath(dbPath string) string {
	return dbPath + ".lock"
}
