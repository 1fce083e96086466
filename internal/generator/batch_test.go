package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hooloovoodoo/ai-course-test-platform/internal/config"
	"github.com/hooloovoodoo/ai-course-test-platform/internal/pool"
)

// writePool drops a valid pool file at <root>/<lang>/<path>.
func writePool(t *testing.T, root string, lang pool.Language, modulePath string, size int) {
	t.Helper()
	questions := make([]pool.Question, 0, size)
	for i := 0; i < size; i++ {
		questions = append(questions, pool.Question{
			Text:    fmt.Sprintf("%s %s q%d", lang, modulePath, i),
			Answers: []string{"a", "b", "c", "d"},
			Correct: "b",
		})
	}
	data, err := json.Marshal(questions)
	require.NoError(t, err)

	full := filepath.Join(root, string(lang)+modulePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, data, 0o644))
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestGenerateBothLanguagesInOrder(t *testing.T) {
	root := t.TempDir()
	for _, lang := range []pool.Language{pool.LanguageEN, pool.LanguageRS} {
		writePool(t, root, lang, "/l0/m1.json", 80)
		writePool(t, root, lang, "/l0/m2.json", 120)
		writePool(t, root, lang, "/l0/m3.json", 80)
	}

	cfg := &config.TestConfig{
		Name:         "AI Citizen",
		Language:     config.LanguageBoth,
		ResultsSheet: "sheet-id",
		Content: []config.ContentEntry{
			{Path: "/l0/m1.json", Count: 7},
			{Path: "/l0/m2.json", Count: 11},
			{Path: "/l0/m3.json", Count: 7},
		},
		Variants:  10,
		OutputDir: t.TempDir(),
	}

	batch := NewBatch(cfg, pool.NewLoader(root, testLogger()), 1, testLogger())
	variants, err := batch.Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, variants, 20, "10 EN + 10 RS")
	for i, v := range variants {
		if i < 10 {
			assert.Equal(t, pool.LanguageEN, v.Language, "EN block comes first")
			assert.Equal(t, i+1, v.Ordinal)
		} else {
			assert.Equal(t, pool.LanguageRS, v.Language)
			assert.Equal(t, i-9, v.Ordinal)
		}
		require.Len(t, v.Questions, 25)

		// Module order must follow the config declaration: m1, m2, m3.
		assert.Contains(t, v.Questions[0].Text, "m1.json")
		assert.Contains(t, v.Questions[7].Text, "m2.json")
		assert.Contains(t, v.Questions[18].Text, "m3.json")
	}
}

func TestGenerateZeroVariants(t *testing.T) {
	cfg := &config.TestConfig{
		Name:         "Empty",
		Language:     "en",
		ResultsSheet: "sheet-id",
		Content:      []config.ContentEntry{{Path: "/l0/m1.json", Count: 5}},
		Variants:     0,
	}

	batch := NewBatch(cfg, pool.NewLoader(t.TempDir(), testLogger()), 1, testLogger())
	variants, err := batch.Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestGenerateMissingPoolAbortsBatch(t *testing.T) {
	root := t.TempDir()
	writePool(t, root, pool.LanguageEN, "/l0/m1.json", 10)

	cfg := &config.TestConfig{
		Name:         "Broken",
		Language:     "en",
		ResultsSheet: "sheet-id",
		Content: []config.ContentEntry{
			{Path: "/l0/m1.json", Count: 5},
			{Path: "/l0/missing.json", Count: 5},
		},
		Variants: 3,
	}

	batch := NewBatch(cfg, pool.NewLoader(root, testLogger()), 1, testLogger())
	variants, err := batch.Generate(context.Background())
	require.ErrorIs(t, err, pool.ErrPoolNotFound)
	assert.Contains(t, err.Error(), "variant 1 [en]")
	assert.Empty(t, variants, "no partially-filled variant is ever returned")
}

func TestGenerateInsufficientPoolReportsShortfall(t *testing.T) {
	root := t.TempDir()
	writePool(t, root, pool.LanguageEN, "/l0/m1.json", 3)

	cfg := &config.TestConfig{
		Name:         "TooSmall",
		Language:     "en",
		ResultsSheet: "sheet-id",
		Content:      []config.ContentEntry{{Path: "/l0/m1.json", Count: 8}},
		Variants:     1,
	}

	batch := NewBatch(cfg, pool.NewLoader(root, testLogger()), 1, testLogger())
	_, err := batch.Generate(context.Background())
	require.ErrorIs(t, err, ErrInsufficientPool)
	assert.Contains(t, err.Error(), "short by 5")
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	root := t.TempDir()
	writePool(t, root, pool.LanguageEN, "/l0/m1.json", 30)

	cfg := &config.TestConfig{
		Name:         "Seeded",
		Language:     "en",
		ResultsSheet: "sheet-id",
		Content:      []config.ContentEntry{{Path: "/l0/m1.json", Count: 10}},
		Variants:     3,
	}

	run := func() []Variant {
		batch := NewBatch(cfg, pool.NewLoader(root, testLogger()), 99, testLogger())
		variants, err := batch.Generate(context.Background())
		require.NoError(t, err)
		return variants
	}

	assert.Equal(t, run(), run(), "a fixed seed reproduces the whole batch")
}

func TestGenerateIndependentTrackersPerLanguage(t *testing.T) {
	root := t.TempDir()
	// Pools only big enough for exactly one repeat-free variant per language.
	writePool(t, root, pool.LanguageEN, "/l0/m1.json", 5)
	writePool(t, root, pool.LanguageRS, "/l0/m1.json", 5)

	cfg := &config.TestConfig{
		Name:         "PerLang",
		Language:     config.LanguageBoth,
		ResultsSheet: "sheet-id",
		Content:      []config.ContentEntry{{Path: "/l0/m1.json", Count: 5}},
		Variants:     1,
	}

	batch := NewBatch(cfg, pool.NewLoader(root, testLogger()), 4, testLogger())
	variants, err := batch.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, variants, 2)

	for _, v := range variants {
		texts := map[string]bool{}
		for _, q := range v.Questions {
			assert.Contains(t, q.Text, string(v.Language), "questions come from the variant's own language pool")
			texts[q.Text] = true
		}
		assert.Len(t, texts, 5)
	}
}

func TestGenerateCanceledBetweenVariants(t *testing.T) {
	root := t.TempDir()
	writePool(t, root, pool.LanguageEN, "/l0/m1.json", 10)

	cfg := &config.TestConfig{
		Name:         "Canceled",
		Language:     "en",
		ResultsSheet: "sheet-id",
		Content:      []config.ContentEntry{{Path: "/l0/m1.json", Count: 5}},
		Variants:     5,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := NewBatch(cfg, pool.NewLoader(root, testLogger()), 2, testLogger())
	variants, err := batch.Generate(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, variants)
}
