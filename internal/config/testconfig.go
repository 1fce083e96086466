package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hooloovoodoo/ai-course-test-platform/internal/pool"
)

// ErrTestConfig reports a missing, malformed or invalid test configuration.
// It is always raised before any generation starts.
var ErrTestConfig = errors.New("invalid test config")

// LanguageBoth selects generation for both supported languages.
const LanguageBoth = "both"

// defaultVariants mirrors the historical default when a config omits the
// variants field.
const defaultVariants = 10

// ContentEntry is one module quota, in the order declared by the config file.
type ContentEntry struct {
	Path  string
	Count int
}

// TestConfig is the strongly-typed form of a test configuration file.
// It is built once by LoadTestConfig and never mutated.
type TestConfig struct {
	Name         string
	Language     string // "en", "rs" or "both"
	ResultsSheet string
	Content      []ContentEntry
	Variants     int
	OutputDir    string
}

// Languages expands the configured language into the concrete generation
// list. English precedes Serbian when both are requested.
func (c *TestConfig) Languages() []pool.Language {
	if c.Language == LanguageBoth {
		return []pool.Language{pool.LanguageEN, pool.LanguageRS}
	}
	return []pool.Language{pool.Language(c.Language)}
}

// TotalQuestions is the question count every generated variant must carry.
func (c *TestConfig) TotalQuestions() int {
	total := 0
	for _, entry := range c.Content {
		total += entry.Count
	}
	return total
}

// LoadTestConfig reads and validates a test configuration file. The content
// mapping is decoded token by token so module iteration order is exactly the
// order declared in the file, and unknown fields are rejected.
func LoadTestConfig(path string) (*TestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrTestConfig, path, err)
	}
	cfg, err := parseTestConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTestConfig, path, err)
	}
	return cfg, nil
}

func parseTestConfig(data []byte) (*TestConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	cfg := &TestConfig{Variants: -1}
	seen := map[string]bool{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key := tok.(string)
		if seen[key] {
			return nil, fmt.Errorf("duplicate field %q", key)
		}
		seen[key] = true

		switch key {
		case "name":
			err = dec.Decode(&cfg.Name)
		case "language":
			err = dec.Decode(&cfg.Language)
			cfg.Language = strings.ToLower(cfg.Language)
		case "results_sheet":
			err = dec.Decode(&cfg.ResultsSheet)
		case "variants":
			err = dec.Decode(&cfg.Variants)
		case "output-dir":
			err = dec.Decode(&cfg.OutputDir)
		case "content":
			cfg.Content, err = parseContent(dec)
		default:
			return nil, fmt.Errorf("unknown field %q", key)
		}
		if err != nil {
			return nil, fmt.Errorf("field %q: %v", key, err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseContent(dec *json.Decoder) ([]ContentEntry, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var entries []ContentEntry
	paths := map[string]bool{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		path := tok.(string)
		if paths[path] {
			return nil, fmt.Errorf("module %q listed twice", path)
		}
		paths[path] = true

		var count int
		if err := dec.Decode(&count); err != nil {
			return nil, fmt.Errorf("module %q: %v", path, err)
		}
		entries = append(entries, ContentEntry{Path: path, Count: count})
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return nil, err
	}
	return entries, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func validate(cfg *TestConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return errors.New("missing test name")
	}
	switch cfg.Language {
	case string(pool.LanguageEN), string(pool.LanguageRS), LanguageBoth:
	case "":
		return errors.New("missing language")
	default:
		return fmt.Errorf("unsupported language %q (use en, rs or both)", cfg.Language)
	}
	if strings.TrimSpace(cfg.ResultsSheet) == "" {
		return errors.New("missing results_sheet")
	}
	if cfg.Variants == -1 {
		cfg.Variants = defaultVariants
	}
	if cfg.Variants < 0 {
		return fmt.Errorf("variants must not be negative, got %d", cfg.Variants)
	}
	if len(cfg.Content) == 0 {
		return errors.New("content must name at least one module")
	}
	for _, entry := range cfg.Content {
		if strings.TrimSpace(entry.Path) == "" {
			return errors.New("content contains an empty module path")
		}
		if entry.Count < 1 {
			return fmt.Errorf("module %q: quota must be at least 1, got %d", entry.Path, entry.Count)
		}
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "/tmp"
	}
	return nil
}
