// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"

	"github.com/pdiddy/guideline-engine/internal/httputil"
	"github.com/pdiddy/guideline-engine/pkg/types"
)

// extractionPromptTmpl is the prompt sent to the Claude API for each
// chunk of line-numbered guideline text. It instructs the model to
// extract cited facts without inventing clinical logic. Per
// prd002-extraction R5.2.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`You are a clinical guideline fact extraction system. Analyze the following chunk of a line-numbered clinical guideline and extract factual statements.

For each fact, identify:
- kind: one of "population-criterion", "exclusion", "contraindication", "red-flag", "action-directive", "threshold"
  - population-criterion: who the guideline applies to
  - exclusion: who or what the guideline excludes
  - contraindication: situations where an intervention must not be applied
  - red-flag: findings that require urgent escalation
  - action-directive: an instruction the guideline gives
  - threshold: a numeric decision bound (e.g. a blood pressure cutoff)
- statement: the guideline's own wording, lightly normalized (do not invent or paraphrase clinical content)
- condition: for thresholds, the comparison as written (e.g. "SBP >= 140"); omit otherwise
- strength: "must", "should", "may", "consider", or "unclear", from the guideline's own modal language
- citations: one or more objects with "line_start" and "line_end" giving the exact source lines inside this chunk, and an optional short "quote"

Every fact must cite at least one line range you were actually shown. Do not cite lines outside this chunk.

Respond with a JSON object containing a "facts" array. Do not include any text outside the JSON object.

Example response:
{"facts": [{"kind": "threshold", "statement": "Start therapy when SBP is 140 mmHg or higher.", "condition": "SBP >= 140", "strength": "should", "citations": [{"line_start": 12, "line_end": 12, "quote": "SBP >= 140 mmHg"}]}]}

Guideline chunk (lines {{.LineStart}}-{{.LineEnd}}):
{{.Text}}
`))

// claudeAPIURL is the default Claude API endpoint. Package-level var
// for test substitution; overridden by AIConfig.Endpoint when set.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend calls the Claude API to extract facts from a guideline
// chunk. Per prd002-extraction R5.2.
type ClaudeBackend struct {
	APIKey     string
	Model      string
	Endpoint   string
	MaxRetries int
	Client     *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Extract calls the Claude API with the extraction prompt for one chunk.
func (c *ClaudeBackend) Extract(ctx context.Context, chunk types.Chunk) (AIResponse, error) {
	prompt, err := renderPrompt(chunk)
	if err != nil {
		return AIResponse{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: 4096,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return AIResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.Endpoint
	if url == "" {
		url = claudeAPIURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return AIResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return AIResponse{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return AIResponse{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return AIResponse{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		var aiResp AIResponse
		if err := json.Unmarshal([]byte(block.Text), &aiResp); err != nil {
			return AIResponse{}, fmt.Errorf("parsing AI response JSON: %w", err)
		}
		return aiResp, nil
	}

	return AIResponse{}, fmt.Errorf("no text content in Claude API response")
}

// renderPrompt executes the extraction prompt template for one chunk.
func renderPrompt(chunk types.Chunk) (string, error) {
	var buf bytes.Buffer
	err := extractionPromptTmpl.Execute(&buf, struct {
		LineStart int
		LineEnd   int
		Text      string
	}{chunk.LineStart, chunk.LineEnd, chunk.Text})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
