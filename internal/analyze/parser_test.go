package analyze

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hooloovoodoo/ai-course-test-platform/internal/generator"
	"github.com/hooloovoodoo/ai-course-test-platform/internal/pool"
	"github.com/hooloovoodoo/ai-course-test-platform/internal/render"
)

func renderArtifact(t *testing.T, lang pool.Language, questions []pool.Question) string {
	t.Helper()
	renderer := render.New(render.Options{
		Name:         "Round Trip",
		ResultsSheet: "sheet",
	}, zerolog.New(io.Discard))

	content, err := renderer.Render(generator.Variant{
		Ordinal:   1,
		Language:  lang,
		Questions: questions,
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "artifact.gs")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseScriptRoundTrip(t *testing.T) {
	original := []pool.Question{
		{Text: "What is AI?", Answers: []string{"b", "a", "d", "c"}, Correct: "d"},
		{Text: `He said "go"`, Answers: []string{"x", "y", "z", "w"}, Correct: "w"},
	}

	questions, err := ParseScript(renderArtifact(t, pool.LanguageEN, original))
	require.NoError(t, err)
	require.Len(t, questions, 2)

	// The opt-out choice is stripped and the correct text restored.
	assert.Equal(t, original, questions)
}

func TestParseScriptStripsSerbianOptOut(t *testing.T) {
	original := []pool.Question{
		{Text: "Šta je AI?", Answers: []string{"a", "b", "c", "d"}, Correct: "b"},
	}

	questions, err := ParseScript(renderArtifact(t, pool.LanguageRS, original))
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, []string{"a", "b", "c", "d"}, questions[0].Answers)
	assert.Equal(t, "b", questions[0].Correct)
}

func TestParseScriptMissingPool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gs")
	require.NoError(t, os.WriteFile(path, []byte("function nothing() {}"), 0o644))

	_, err := ParseScript(path)
	require.ErrorIs(t, err, ErrParse)
}

func TestParseScriptMissingFile(t *testing.T) {
	_, err := ParseScript(filepath.Join(t.TempDir(), "gone.gs"))
	require.ErrorIs(t, err, ErrParse)
}

func TestFormatQuestionsMarksCorrectChoice(t *testing.T) {
	out := FormatQuestions([]pool.Question{
		{Text: "Pick", Answers: []string{"no", "yes"}, Correct: "yes"},
	})
	assert.Contains(t, out, "Q1: Pick")
	assert.Contains(t, out, "A. [ ] no")
	assert.Contains(t, out, "B. [✓] yes")
}
