package generator

import (
	"math/rand"

	"github.com/hooloovoodoo/ai-course-test-platform/internal/pool"
)

// shuffleAnswers returns a copy of q whose answers are uniformly permuted.
// The correct answer keeps its text; only its position moves. The input is
// never mutated.
func shuffleAnswers(q pool.Question, rng *rand.Rand) pool.Question {
	answers := make([]string, len(q.Answers))
	copy(answers, q.Answers)
	rng.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
	return pool.Question{
		Text:    q.Text,
		Answers: answers,
		Correct: q.Correct,
	}
}
