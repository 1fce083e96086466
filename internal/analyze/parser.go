package analyze

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/hooloovoodoo/ai-course-test-platform/internal/pool"
	"github.com/hooloovoodoo/ai-course-test-platform/internal/render"
)

// ErrParse reports a rendered artifact the analyzer could not read back.
var ErrParse = errors.New("could not parse test file")

var (
	poolRe = regexp.MustCompile(`(?s)const questionsPool = (\[.*?\]);`)
	keyRe  = regexp.MustCompile(`(\s)(question|choices|correct):`)
)

type renderedQuestion struct {
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Correct  int      `json:"correct"`
}

// ParseScript extracts the embedded question pool from a rendered .gs
// artifact and converts it back to the loader's question shape: the opt-out
// choice is stripped and the correct index becomes the correct answer text.
func ParseScript(path string) ([]pool.Question, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}

	match := poolRe.FindSubmatch(content)
	if match == nil {
		return nil, fmt.Errorf("%w: %s: no questionsPool found", ErrParse, path)
	}

	// The artifact embeds a JS object literal; quoting the bare keys turns
	// it into valid JSON.
	jsonArray := keyRe.ReplaceAll(match[1], []byte(`$1"$2":`))

	var rendered []renderedQuestion
	if err := json.Unmarshal(jsonArray, &rendered); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}

	questions := make([]pool.Question, 0, len(rendered))
	for i, rq := range rendered {
		if rq.Correct < 0 || rq.Correct >= len(rq.Choices) {
			return nil, fmt.Errorf("%w: %s: question %d: correct index %d out of range", ErrParse, path, i, rq.Correct)
		}
		correct := rq.Choices[rq.Correct]

		var answers []string
		for _, choice := range rq.Choices {
			if choice == render.DontKnowChoice(pool.LanguageEN) || choice == render.DontKnowChoice(pool.LanguageRS) {
				continue
			}
			answers = append(answers, choice)
		}

		questions = append(questions, pool.Question{
			Text:    rq.Question,
			Answers: answers,
			Correct: correct,
		})
	}
	return questions, nil
}
