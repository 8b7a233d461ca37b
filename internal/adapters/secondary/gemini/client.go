package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/ports"
	"github.com/kyzylorda-dev/incident-map-backend/internal/observability"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1"

// Client implements ports.TextGenerator against the Gemini generateContent
// REST API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

var _ ports.TextGenerator = (*Client)(nil)

// NewClient creates a Gemini client. An empty apiKey is allowed here; the
// missing credential surfaces as an error on the first Generate call, not
// at startup.
func NewClient(apiKey, model string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger.With("component", "gemini"),
	}
}

// Generate sends the prompt and returns the model's text reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("generation API key is not configured (set GEMINI_API_KEY)")
	}

	payload := request{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 512,
			CandidateCount:  1,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GenerationRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.GenerationRequests.WithLabelValues("error").Inc()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("gemini API error: status %d: %s", resp.StatusCode, errBody)
	}

	var genResp response
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		c.metrics.GenerationRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("decode response: %w", err)
	}

	text, ok := genResp.firstText()
	if !ok {
		c.metrics.GenerationRequests.WithLabelValues("error").Inc()
		return "", errors.New("gemini response contains no text content")
	}

	c.metrics.GenerationRequests.WithLabelValues("success").Inc()
	c.logger.Debug("generation succeeded", "model", c.model, "reply_bytes", len(text))
	return text, nil
}

// Gemini API request/response types.

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	CandidateCount  int     `json:"candidateCount"`
}

type response struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

func (r response) firstText() (string, bool) {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	text := r.Candidates[0].Content.Parts[0].Text
	return text, text != ""
}
