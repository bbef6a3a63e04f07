package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/interview-matrix/constants"
)

// AllowedExt checks if a file extension is in constants.AllowedExtensions.
func AllowedExt(ext string) bool {
	return constants.IsAllowedExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && strings.HasPrefix(base, ".")
}
