package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hooloovoodoo/ai-course-test-platform/internal/pool"
)

// ErrAnalyze reports a failed redundancy analysis call. The analysis is
// advisory and never mutates already-generated variants.
var ErrAnalyze = errors.New("analysis failed")

// Config holds connection details for the chat-completions endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client asks an OpenAI-compatible model to flag topic redundancy in a
// generated test and suggest replacements from the course materials.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
	chatURL    string
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		logger:     logger.With().Str("component", "analyzer").Logger(),
		chatURL:    base + "/chat/completions",
	}
}

// Analyze sends the parsed questions plus course materials to the model and
// returns its free-text findings.
func (c *Client) Analyze(ctx context.Context, systemPrompt string, questions []pool.Question, materials string) (string, error) {
	if c.config.APIKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY not configured", ErrAnalyze)
	}
	if len(questions) == 0 {
		return "", fmt.Errorf("%w: no questions to analyze", ErrAnalyze)
	}

	payload := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserMessage(questions, materials)},
		},
		Temperature: 0.3,
		MaxTokens:   4000,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAnalyze, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAnalyze, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	c.logger.Info().Int("questions", len(questions)).Str("model", c.config.Model).Msg("requesting analysis")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAnalyze, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: api status %d", ErrAnalyze, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrAnalyze, err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrAnalyze)
	}
	return chatResp.Choices[0].Message.Content, nil
}

// FormatQuestions renders questions the way the analysis prompt expects:
// lettered choices with the correct one ticked.
func FormatQuestions(questions []pool.Question) string {
	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "Q%d: %s\n", i+1, q.Text)
		for j, answer := range q.Answers {
			marker := " "
			if answer == q.Correct {
				marker = "✓"
			}
			fmt.Fprintf(&b, "  %c. [%s] %s\n", 'A'+j, marker, answer)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func buildUserMessage(questions []pool.Question, materials string) string {
	return fmt.Sprintf(`## Course Materials

%s

---

## Test Questions (from generated test file)

%s

---

## Task

1. Analyze these questions for topic redundancy (3+ questions on the same narrow concept)
2. If redundancy is found, suggest replacement questions based on the course materials above
3. Replacement questions should cover underrepresented topics from the materials
`, materials, FormatQuestions(questions))
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
