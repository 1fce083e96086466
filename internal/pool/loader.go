package pool

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrPoolNotFound reports a module id with no backing pool file.
	ErrPoolNotFound = errors.New("question pool not found")
	// ErrPoolFormat reports a pool file that exists but fails validation.
	ErrPoolFormat = errors.New("malformed question pool")
)

// Loader reads module pools from a QAPool-style directory tree laid out as
// <root>/<language><module-id>, e.g. QAPool/en/l0-ai-citizen/m1.json.
// Loads are idempotent and cached for the lifetime of the Loader, which is
// expected to match one batch run.
type Loader struct {
	root   string
	logger zerolog.Logger
	cache  map[string]*ModulePool
}

func NewLoader(root string, logger zerolog.Logger) *Loader {
	return &Loader{
		root:   root,
		logger: logger.With().Str("component", "pool_loader").Logger(),
		cache:  map[string]*ModulePool{},
	}
}

// Load reads and validates the pool backing moduleID for one language.
func (l *Loader) Load(language Language, moduleID string) (*ModulePool, error) {
	cacheKey := string(language) + ":" + moduleID
	if cached, ok := l.cache[cacheKey]; ok {
		return cached, nil
	}

	path := filepath.Join(l.root, string(language)+ensureLeadingSlash(moduleID))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: module %s (%s)", ErrPoolNotFound, moduleID, path)
		}
		return nil, fmt.Errorf("read pool %s: %w", path, err)
	}

	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("%w: module %s: %v", ErrPoolFormat, moduleID, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: module %s: pool contains no questions", ErrPoolFormat, moduleID)
	}
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("%w: module %s: question %d: %v", ErrPoolFormat, moduleID, i, err)
		}
	}

	p := &ModulePool{
		ID:        moduleID,
		Language:  language,
		Questions: questions,
	}
	l.cache[cacheKey] = p

	l.logger.Debug().
		Str("module", moduleID).
		Str("language", string(language)).
		Int("questions", len(questions)).
		Msg("pool loaded")
	return p, nil
}

func validateQuestion(q Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("missing question text")
	}
	if len(q.Answers) < 2 {
		return fmt.Errorf("need at least 2 answers, got %d", len(q.Answers))
	}
	if q.CorrectIndex() < 0 {
		return fmt.Errorf("correct answer %q not found among answers", q.Correct)
	}
	return nil
}

func ensureLeadingSlash(moduleID string) string {
	if strings.HasPrefix(moduleID, "/") {
		return moduleID
	}
	return "/" + moduleID
}
