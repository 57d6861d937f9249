package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const maxFileNameLength = 200

// FilePathValidator provides secure file path validation and sanitization
type FilePathValidator struct {
	// AllowedBaseDirs restricts file operations to specific base directories.
	// Empty means any directory.
	AllowedBaseDirs []string
	// MaxPathLength is the maximum allowed path length
	MaxPathLength int
}

// NewFilePathValidator restricts paths to the home and temp directories.
func NewFilePathValidator() *FilePathValidator {
	homeDir, _ := os.UserHomeDir()
	dirs := []string{os.TempDir()}
	if homeDir != "" {
		dirs = append(dirs, homeDir)
	}
	return &FilePathValidator{
		AllowedBaseDirs: dirs,
		MaxPathLength:   4096,
	}
}

// NewPermissiveFilePathValidator creates a validator for development/testing
func NewPermissiveFilePathValidator() *FilePathValidator {
	return &FilePathValidator{MaxPathLength: 4096}
}

// ValidateAndSanitize expands ~, makes the path absolute and checks it
// against the allowed base directories.
func (v *FilePathValidator) ValidateAndSanitize(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > v.MaxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains null bytes")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("directory traversal not allowed")
		}
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
	} else if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("invalid tilde usage")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}

	if err := v.validateBaseDirs(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func (v *FilePathValidator) validateBaseDirs(path string) error {
	if len(v.AllowedBaseDirs) == 0 {
		return nil
	}
	for _, baseDir := range v.AllowedBaseDirs {
		if within(baseDir, path) {
			return nil
		}
	}
	return fmt.Errorf("path not within allowed directories: %v", v.AllowedBaseDirs)
}

func within(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ValidateDirectory ensures a directory path is safe and creates it if asked.
func (v *FilePathValidator) ValidateDirectory(path string, create bool) (string, error) {
	validated, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(validated)
	switch {
	case os.IsNotExist(err):
		if create {
			if mkErr := os.MkdirAll(validated, 0o755); mkErr != nil {
				return "", fmt.Errorf("failed to create directory: %w", mkErr)
			}
		}
	case err != nil:
		return "", fmt.Errorf("checking directory: %w", err)
	case !info.IsDir():
		return "", fmt.Errorf("path exists but is not a directory: %s", validated)
	}
	return validated, nil
}

// ValidateFile ensures a file path is safe for read/write operations
func (v *FilePathValidator) ValidateFile(path string) (string, error) {
	validated, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}
	if info, statErr := os.Stat(validated); statErr == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", validated)
	}
	return validated, nil
}

// SanitizeFileName reduces name to a single safe path element. It returns ""
// when nothing usable is left.
func SanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == 0:
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.TrimLeft(name, ".")
	if len(name) > maxFileNameLength {
		ext := filepath.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:maxFileNameLength-len(ext)] + ext
	}
	return name
}

// JoinWithin joins dir and a sanitized name and checks the result stays in dir.
func JoinWithin(dir, name string) (string, error) {
	clean := SanitizeFileName(name)
	if clean == "" {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	p := filepath.Join(absDir, clean)
	if filepath.Dir(p) != absDir {
		return "", fmt.Errorf("file name %q escapes %s", name, dir)
	}
	return p, nil
}
