package analyze

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// LoadMaterials concatenates every markdown file under dir (recursively),
// each section headed by its filename. Unreadable files are skipped with a
// warning; a missing directory is an error.
func LoadMaterials(dir string, logger zerolog.Logger) (string, error) {
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("materials directory %s: %w", dir, err)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan materials %s: %w", dir, err)
	}
	sort.Strings(files)

	var sections []string
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("skipping unreadable material")
			continue
		}
		sections = append(sections, fmt.Sprintf("## %s\n\n%s", filepath.Base(path), content))
	}

	logger.Info().Int("files", len(sections)).Str("dir", dir).Msg("course materials loaded")
	return strings.Join(sections, "\n\n---\n\n"), nil
}
