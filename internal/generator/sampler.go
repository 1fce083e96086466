package generator

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/hooloovoodoo/ai-course-test-platform/internal/pool"
)

// ErrInsufficientPool reports a module whose pool cannot satisfy its quota
// even with cross-variant repeats.
var ErrInsufficientPool = errors.New("insufficient question pool")

// sampleModule draws exactly quota questions from one module pool.
//
// Questions the tracker has not seen this pass ("unused") are preferred;
// the draw spills into already-used questions only once the unused set is
// exhausted. Both draws are uniform and without replacement, so a question
// never appears twice within one returned sequence. Every selection is
// recorded, and once the full pool has been consumed the tracker is reset
// for this module so the next variant starts a fresh rotation pass.
func sampleModule(p *pool.ModulePool, quota int, tracker *UsageTracker, rng *rand.Rand) ([]pool.Question, error) {
	if quota > len(p.Questions) {
		return nil, fmt.Errorf("%w: module %s requires %d questions but pool holds %d (short by %d)",
			ErrInsufficientPool, p.ID, quota, len(p.Questions), quota-len(p.Questions))
	}

	var unused, used []pool.Question
	for _, q := range p.Questions {
		if tracker.isUsed(p.ID, q.Text) {
			used = append(used, q)
		} else {
			unused = append(unused, q)
		}
	}

	selected := drawWithoutReplacement(unused, quota, rng)
	if len(selected) < quota {
		selected = append(selected, drawWithoutReplacement(used, quota-len(selected), rng)...)
	}

	for _, q := range selected {
		tracker.markUsed(p.ID, q.Text)
	}
	if tracker.usedCount(p.ID) == len(p.Questions) {
		tracker.reset(p.ID)
	}

	return selected, nil
}

// drawWithoutReplacement returns up to n elements of candidates, uniformly
// at random, never mutating the input slice.
func drawWithoutReplacement(candidates []pool.Question, n int, rng *rand.Rand) []pool.Question {
	if n > len(candidates) {
		n = len(candidates)
	}
	if n == 0 {
		return nil
	}
	shuffled := make([]pool.Question, len(candidates))
	copy(shuffled, candidates)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}
