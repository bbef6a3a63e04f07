package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/interview-matrix/constants"
	"github.com/joseph-ayodele/interview-matrix/internal/document"
)

// DirStats summarizes a directory load.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// LoadDirectory reads every file under root with an allowed extension, sorted by relative path,
// so that the upload order is reproducible. Unreadable files become warnings.
func LoadDirectory(root string, skipHidden bool) ([]document.SourceDocument, []Warning, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}

	var (
		paths    []string
		warnings []Warning
		stats    DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			warnings = append(warnings, Warning{Name: path, Message: walkErr.Error(), Skipped: true})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(constants.NormalizeExt(filepath.Ext(path))) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, warnings, stats, fmt.Errorf("walk: %w", err)
	}
	sort.Strings(paths)

	docs := make([]document.SourceDocument, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			warnings = append(warnings, Warning{Name: filepath.Base(p), Message: err.Error(), Skipped: true})
			stats.Failed++
			continue
		}
		docs = append(docs, document.NewSourceDocument(filepath.Base(p), data))
	}
	return docs, warnings, stats, nil
}
