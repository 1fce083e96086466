package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrDeploy reports a failed Apps Script deployment. Deployment errors never
// reach the generator core; they surface per artifact.
var ErrDeploy = errors.New("deployment failed")

const (
	scopeProjects    = "https://www.googleapis.com/auth/script.projects"
	scopeDeployments = "https://www.googleapis.com/auth/script.deployments"

	defaultTimeout = 30 * time.Second
	maxRetries     = 3
)

// Config holds connection details for the Apps Script API.
type Config struct {
	CredentialsFile string
	BaseURL         string
	Timeout         time.Duration
}

// Client pushes rendered quiz scripts to the Apps Script API and publishes
// a deployment per artifact.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

// Deployment is the published result for one artifact.
type Deployment struct {
	ScriptID     string
	DeploymentID string
	URL          string
}

func NewClient(ctx context.Context, cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("%w: GOOGLE_APPLICATION_CREDENTIALS not configured", ErrDeploy)
	}
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read credentials: %v", ErrDeploy, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, scopeProjects, scopeDeployments)
	if err != nil {
		return nil, fmt.Errorf("%w: parse credentials: %v", ErrDeploy, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := oauth2.NewClient(ctx, creds.TokenSource)
	httpClient.Timeout = timeout

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://script.googleapis.com"
	}

	return NewClientWithHTTP(httpClient, baseURL, logger), nil
}

// NewClientWithHTTP builds a client around a pre-authorized http.Client.
func NewClientWithHTTP(httpClient *http.Client, baseURL string, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     logger.With().Str("component", "gas_deployer").Logger(),
	}
}

// Deploy publishes one rendered artifact: create project, push source,
// create version, create deployment. Returns the published exec URL.
func (c *Client) Deploy(ctx context.Context, scriptPath string) (*Deployment, error) {
	source, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrDeploy, scriptPath, err)
	}
	title := strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))

	scriptID, err := c.createProject(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: create project: %v", ErrDeploy, title, err)
	}
	if err := c.updateContent(ctx, scriptID, string(source)); err != nil {
		return nil, fmt.Errorf("%w: %s: push content: %v", ErrDeploy, title, err)
	}
	version, err := c.createVersion(ctx, scriptID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: create version: %v", ErrDeploy, title, err)
	}
	deploymentID, err := c.createDeployment(ctx, scriptID, version, title)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: create deployment: %v", ErrDeploy, title, err)
	}

	d := &Deployment{
		ScriptID:     scriptID,
		DeploymentID: deploymentID,
		URL:          fmt.Sprintf("https://script.google.com/macros/s/%s/exec", deploymentID),
	}
	c.logger.Info().
		Str("title", title).
		Str("script_id", scriptID).
		Str("url", d.URL).
		Msg("artifact deployed")
	return d, nil
}

func (c *Client) createProject(ctx context.Context, title string) (string, error) {
	var resp struct {
		ScriptID string `json:"scriptId"`
	}
	err := c.call(ctx, http.MethodPost, "/v1/projects", map[string]string{"title": title}, &resp)
	if err != nil {
		return "", err
	}
	if resp.ScriptID == "" {
		return "", errors.New("api returned no scriptId")
	}
	return resp.ScriptID, nil
}

func (c *Client) updateContent(ctx context.Context, scriptID, source string) error {
	payload := map[string]any{
		"files": []map[string]string{
			{"name": "Code", "type": "SERVER_JS", "source": source},
			{"name": "appsscript", "type": "JSON", "source": manifestJSON},
		},
	}
	return c.call(ctx, http.MethodPut, "/v1/projects/"+scriptID+"/content", payload, nil)
}

func (c *Client) createVersion(ctx context.Context, scriptID string) (int, error) {
	var resp struct {
		VersionNumber int `json:"versionNumber"`
	}
	err := c.call(ctx, http.MethodPost, "/v1/projects/"+scriptID+"/versions",
		map[string]string{"description": "testctl deploy"}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.VersionNumber, nil
}

func (c *Client) createDeployment(ctx context.Context, scriptID string, version int, title string) (string, error) {
	payload := map[string]any{
		"versionNumber":    version,
		"manifestFileName": "appsscript",
		"description":      fmt.Sprintf("%s (%s)", title, uuid.NewString()),
	}
	var resp struct {
		DeploymentID string `json:"deploymentId"`
	}
	err := c.call(ctx, http.MethodPost, "/v1/projects/"+scriptID+"/deployments", payload, &resp)
	if err != nil {
		return "", err
	}
	if resp.DeploymentID == "" {
		return "", errors.New("api returned no deploymentId")
	}
	return resp.DeploymentID, nil
}

// call issues one API request with capped exponential backoff on 429/5xx.
func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("retryable api error")
			return retry.RetryableError(fmt.Errorf("apps script api status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return fmt.Errorf("apps script api status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		}
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

const manifestJSON = `{
  "timeZone": "Europe/Belgrade",
  "exceptionLogging": "STACKDRIVER",
  "runtimeVersion": "V8",
  "oauthScopes": [
    "https://www.googleapis.com/auth/forms",
    "https://www.googleapis.com/auth/spreadsheets",
    "https://www.googleapis.com/auth/script.scriptapp",
    "https://www.googleapis.com/auth/script.send_mail",
    "https://www.googleapis.com/auth/script.external_request",
    "https://www.googleapis.com/auth/userinfo.email"
  ]
}`
