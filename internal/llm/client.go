// Package llm calls a hosted large language model over its HTTP
// messages API and returns the generated text with token usage.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hvirtan/reportpipe/internal/settings"
)

const (
	messagesPath = "/v1/messages"
	apiVersion   = "2023-06-01"
	maxTokens    = 4096
)

type Request struct {
	Model        string
	SystemPrompt string
	Input        string
}

type Response struct {
	OutputText   string
	InputTokens  int64
	OutputTokens int64
}

// APIError reports a non-2xx response from the model API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm api returned %d: %s", e.Status, e.Body)
}

// Completer is the surface the step executor depends on.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

type Client struct {
	http         *http.Client
	baseURL      string
	apiKey       string
	defaultModel string
}

func NewClient(s settings.AppSettings) *Client {
	return &Client{
		http:         &http.Client{Timeout: 5 * time.Minute},
		baseURL:      strings.TrimRight(s.LLMBaseURL, "/"),
		apiKey:       s.LLMAPIKey,
		defaultModel: s.LLMModel,
	}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []contentBlock `json:"content"`
	Usage   usage          `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	body, err := json.Marshal(messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    req.SystemPrompt,
		Messages:  []message{{Role: "user", Content: req.Input}},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body),
	)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	res, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &APIError{Status: res.StatusCode, Body: string(resBody)}
	}

	var mr messageResponse
	if err := json.Unmarshal(resBody, &mr); err != nil {
		return nil, fmt.Errorf("llm response decode failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range mr.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return &Response{
		OutputText:   sb.String(),
		InputTokens:  mr.Usage.InputTokens,
		OutputTokens: mr.Usage.OutputTokens,
	}, nil
}
