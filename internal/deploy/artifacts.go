package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hooloovoodoo/ai-course-test-platform/internal/pool"
)

// ListArtifacts returns rendered .gs variants under outputDir, sorted by
// name. Filters are optional: empty language matches both, empty testName
// matches any test.
func ListArtifacts(outputDir string, language pool.Language, testName string) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("list artifacts in %s: %w", outputDir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".gs") || !strings.Contains(name, " | ") {
			continue
		}
		if language != "" && !strings.Contains(name, fmt.Sprintf("[%s]", language)) {
			continue
		}
		if testName != "" && !strings.HasPrefix(name, testName+" | ") {
			continue
		}
		paths = append(paths, filepath.Join(outputDir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// LanguageOf extracts the language tag from an artifact filename, or "" when
// the name does not follow the convention.
func LanguageOf(path string) pool.Language {
	name := filepath.Base(path)
	for _, lang := range []pool.Language{pool.LanguageEN, pool.LanguageRS} {
		if strings.Contains(name, fmt.Sprintf("[%s]", lang)) {
			return lang
		}
	}
	return ""
}

// WriteURLList saves one published URL per line, the format the notifier
// consumes.
func WriteURLList(path string, urls []string) error {
	content := strings.Join(urls, "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write url list %s: %w", path, err)
	}
	return nil
}
