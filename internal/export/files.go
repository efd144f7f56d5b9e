package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/takak2166/notion2text/internal/logger"
)

// WriteFiles writes each page to <dir>/<pageID><ext>, creating dir when
// needed. It returns the written paths sorted by name.
func WriteFiles(dir string, pages map[string]string, ext string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ids := make([]string, 0, len(pages))
	for id := range pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	paths := make([]string, 0, len(ids))
	for _, id := range ids {
		name := fileName(id)
		if name == "" {
			return nil, fmt.Errorf("invalid page id %q", id)
		}
		path := filepath.Join(dir, name+ext)
		if err := os.WriteFile(path, []byte(pages[id]), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Debug("Wrote page", map[string]interface{}{
			"page_id": id,
			"path":    path,
		})
		paths = append(paths, path)
	}
	return paths, nil
}

// fileName keeps the id usable as a single path element.
func fileName(id string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(id))
	if name == "." || name == ".." {
		return ""
	}
	return name
}
