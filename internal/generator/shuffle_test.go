package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hooloovoodoo/ai-course-test-platform/internal/pool"
)

func TestShuffleAnswersPreservesCorrectText(t *testing.T) {
	q := pool.Question{
		Text:    "pick one",
		Answers: []string{"w", "x", "y", "z"},
		Correct: "y",
	}
	rng := newRand(5)

	for i := 0; i < 50; i++ {
		shuffled := shuffleAnswers(q, rng)
		assert.Equal(t, "y", shuffled.Correct)
		assert.GreaterOrEqual(t, shuffled.CorrectIndex(), 0, "correct answer must stay among the choices")
		assert.ElementsMatch(t, q.Answers, shuffled.Answers)
		assert.Len(t, shuffled.Answers, len(q.Answers))
	}
}

func TestShuffleAnswersDoesNotMutateInput(t *testing.T) {
	q := pool.Question{
		Text:    "pick one",
		Answers: []string{"w", "x", "y", "z"},
		Correct: "w",
	}
	rng := newRand(6)

	for i := 0; i < 20; i++ {
		_ = shuffleAnswers(q, rng)
	}
	assert.Equal(t, []string{"w", "x", "y", "z"}, q.Answers)
}

func TestShuffleAnswersProducesDifferentOrders(t *testing.T) {
	q := pool.Question{
		Text:    "pick one",
		Answers: []string{"w", "x", "y", "z"},
		Correct: "x",
	}
	rng := newRand(7)

	orders := map[string]bool{}
	for i := 0; i < 100; i++ {
		shuffled := shuffleAnswers(q, rng)
		key := ""
		for _, a := range shuffled.Answers {
			key += a
		}
		orders[key] = true
	}
	assert.Greater(t, len(orders), 1, "a uniform shuffle cannot always return one order")
}
