package deploy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hooloovoodoo/ai-course-test-platform/internal/pool"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("// script"), 0o644))
}

func TestListArtifactsFiltersByLanguage(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "AI Citizen | 2025-12-24 | [en] | Variant 1.gs")
	touch(t, dir, "AI Citizen | 2025-12-24 | [en] | Variant 2.gs")
	touch(t, dir, "AI Citizen | 2025-12-24 | [rs] | Variant 1.gs")
	touch(t, dir, "notes.txt")
	touch(t, dir, "unrelated.gs")

	all, err := ListArtifacts(dir, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3, "only names following the convention count")

	en, err := ListArtifacts(dir, pool.LanguageEN, "")
	require.NoError(t, err)
	assert.Len(t, en, 2)

	rs, err := ListArtifacts(dir, pool.LanguageRS, "")
	require.NoError(t, err)
	assert.Len(t, rs, 1)
}

func TestListArtifactsFiltersByTestName(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "AI Citizen | 2025-12-24 | [en] | Variant 1.gs")
	touch(t, dir, "AI Coder | 2025-12-24 | [en] | Variant 1.gs")

	citizen, err := ListArtifacts(dir, "", "AI Citizen")
	require.NoError(t, err)
	require.Len(t, citizen, 1)
	assert.Contains(t, citizen[0], "AI Citizen")
}

func TestListArtifactsMissingDir(t *testing.T) {
	_, err := ListArtifacts(filepath.Join(t.TempDir(), "nope"), "", "")
	require.Error(t, err)
}

func TestLanguageOf(t *testing.T) {
	assert.Equal(t, pool.LanguageEN, LanguageOf("/tmp/T | 2025-12-24 | [en] | Variant 1.gs"))
	assert.Equal(t, pool.LanguageRS, LanguageOf("/tmp/T | 2025-12-24 | [rs] | Variant 2.gs"))
	assert.Equal(t, pool.Language(""), LanguageOf("/tmp/random.gs"))
}

func TestWriteURLList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en_urls.txt")
	require.NoError(t, WriteURLList(path, []string{"https://a/exec", "https://b/exec"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://a/exec\nhttps://b/exec\n", string(content))
}
