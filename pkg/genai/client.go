package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/am-report-server/internal/domain"
)

// Client handles interactions with the Gemini generateContent API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// ClientConfig represents configuration for the generation backend client
type ClientConfig struct {
	BaseURL   string        `json:"base_url"`
	APIKey    string        `json:"api_key"`
	Timeout   time.Duration `json:"timeout"`
	RateLimit int           `json:"rate_limit"` // requests per second
}

// generateContentRequest is the wire format of a generateContent call
type generateContentRequest struct {
	Contents         []wireContent        `json:"contents"`
	GenerationConfig wireGenerationConfig `json:"generationConfig"`
}

type wireContent struct {
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *wireInlineData `json:"inline_data,omitempty"`
}

type wireInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"` // base64-encoded by encoding/json
}

type wireGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// generateContentResponse is the wire format of a generateContent result
type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewClient creates a new generation backend client
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 180 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}

	return &Client{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimit),
	}
}

// Generate sends the assembled request to the backend and returns the
// generated text. Failures are classified into domain.BackendError kinds;
// the client never retries.
func (c *Client) Generate(ctx context.Context, req *Request) (string, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(buildWireRequest(req))
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.NewBackendError(domain.BackendOther, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewBackendError(domain.BackendOther, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPFailure(resp.StatusCode, respBody)
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", domain.NewBackendError(domain.BackendOther, fmt.Errorf("decoding response: %w", err))
	}

	if parsed.Error != nil {
		return "", classifyHTTPFailure(parsed.Error.Code, respBody)
	}

	if len(parsed.Candidates) == 0 {
		return "", domain.NewBackendError(domain.BackendOther, fmt.Errorf("backend returned no candidates"))
	}

	var text bytes.Buffer
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return text.String(), nil
}

// buildWireRequest maps the ordered parts onto the backend wire format,
// preserving part order exactly.
func buildWireRequest(req *Request) generateContentRequest {
	parts := make([]wirePart, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.Artifact != nil {
			parts = append(parts, wirePart{
				InlineData: &wireInlineData{
					MIMEType: p.Artifact.MIMEType,
					Data:     p.Artifact.Data,
				},
			})
			continue
		}
		parts = append(parts, wirePart{Text: p.Text})
	}

	return generateContentRequest{
		Contents: []wireContent{{Parts: parts}},
		GenerationConfig: wireGenerationConfig{
			Temperature:     req.Options.Temperature,
			TopP:            req.Options.TopP,
			TopK:            req.Options.TopK,
			MaxOutputTokens: req.Options.MaxOutputTokens,
		},
	}
}

// classifyHTTPFailure maps backend status codes onto the error taxonomy.
// Quota exhaustion and credential problems are distinguished because callers
// present them differently; everything else passes through as-is.
func classifyHTTPFailure(status int, body []byte) error {
	cause := fmt.Errorf("HTTP %d: %s", status, truncate(string(body), 512))

	switch status {
	case http.StatusTooManyRequests:
		return domain.NewBackendError(domain.BackendQuota, cause)
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.NewBackendError(domain.BackendAuth, cause)
	default:
		return domain.NewBackendError(domain.BackendOther, cause)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
