package generator

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hooloovoodoo/ai-course-test-platform/internal/config"
	"github.com/hooloovoodoo/ai-course-test-platform/internal/pool"
)

// Variant is one fully assembled test: all module quotas met, answers
// shuffled, questions in the module order the config declares. A variant is
// either complete or not returned at all.
type Variant struct {
	Ordinal   int
	Language  pool.Language
	Questions []pool.Question
}

// Batch generates every variant one test configuration asks for. It owns
// the randomness source for the run; a fixed seed reproduces the batch
// exactly.
type Batch struct {
	cfg    *config.TestConfig
	loader *pool.Loader
	rng    *rand.Rand
	runID  string
	logger zerolog.Logger
}

func NewBatch(cfg *config.TestConfig, loader *pool.Loader, seed int64, logger zerolog.Logger) *Batch {
	runID := uuid.NewString()
	return &Batch{
		cfg:    cfg,
		loader: loader,
		rng:    newRand(seed),
		runID:  runID,
		logger: logger.With().Str("component", "batch").Str("run_id", runID).Logger(),
	}
}

// RunID identifies this batch in logs and deployment descriptions.
func (b *Batch) RunID() string { return b.runID }

// Generate produces variants in (language, ordinal) order: the full English
// block precedes the Serbian one when the config says "both". Each language
// gets its own fresh usage tracker, since pools are language-specific.
//
// On failure the variants assembled so far are returned alongside the error,
// so already-complete output need not be discarded even though the batch as
// a whole failed. Cancellation is checked between variants, never mid-variant.
func (b *Batch) Generate(ctx context.Context) ([]Variant, error) {
	variants := make([]Variant, 0, b.cfg.Variants*len(b.cfg.Languages()))

	for _, lang := range b.cfg.Languages() {
		tracker := NewUsageTracker()
		b.logger.Info().
			Str("language", string(lang)).
			Int("variants", b.cfg.Variants).
			Msg("generating variants")

		for ordinal := 1; ordinal <= b.cfg.Variants; ordinal++ {
			if err := ctx.Err(); err != nil {
				return variants, fmt.Errorf("batch canceled before variant %d [%s]: %w", ordinal, lang, err)
			}
			v, err := b.assemble(lang, ordinal, tracker)
			if err != nil {
				return variants, err
			}
			variants = append(variants, v)
			b.logger.Debug().
				Str("language", string(lang)).
				Int("ordinal", ordinal).
				Int("questions", len(v.Questions)).
				Msg("variant assembled")
		}
	}
	return variants, nil
}

// assemble builds a single variant by sampling each configured module in
// declared order and shuffling every sampled question's answers. Loader and
// sampler errors propagate annotated with language and ordinal.
func (b *Batch) assemble(lang pool.Language, ordinal int, tracker *UsageTracker) (Variant, error) {
	questions := make([]pool.Question, 0, b.cfg.TotalQuestions())

	for _, entry := range b.cfg.Content {
		p, err := b.loader.Load(lang, entry.Path)
		if err != nil {
			return Variant{}, fmt.Errorf("variant %d [%s]: %w", ordinal, lang, err)
		}
		sampled, err := sampleModule(p, entry.Count, tracker, b.rng)
		if err != nil {
			return Variant{}, fmt.Errorf("variant %d [%s]: %w", ordinal, lang, err)
		}
		for _, q := range sampled {
			questions = append(questions, shuffleAnswers(q, b.rng))
		}
	}

	return Variant{
		Ordinal:   ordinal,
		Language:  lang,
		Questions: questions,
	}, nil
}
