package keyword

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1webtutor/social-content-aggregator/pkg/record"
)

const verifyPrompt = `You are a content curator. Decide whether the following social media post is genuinely about the topic "%s" and suitable for republication.

Post (platform: %s):
%s

Answer with exactly one word: YES or NO. No other text.`

// LLMVerifier asks a hosted model whether a fetched post is genuinely on
// topic. It is optional; wire it in as the runner's Verifier.
type LLMVerifier struct {
	client   *http.Client
	provider string // "openai" or "anthropic"
	model    string
	apiKey   string
	baseURL  string
	log      *logrus.Entry
}

// NewLLMVerifier creates a verifier for the given provider.
func NewLLMVerifier(provider, model, apiKey, baseURL string, log *logrus.Entry) *LLMVerifier {
	if model == "" {
		switch provider {
		case "anthropic":
			model = "claude-sonnet-4-20250514"
		default:
			model = "gpt-4o-mini"
		}
	}
	return &LLMVerifier{
		client:   &http.Client{Timeout: 30 * time.Second},
		provider: provider,
		model:    model,
		apiKey:   apiKey,
		baseURL:  baseURL,
		log:      log,
	}
}

// Verify returns true when the model approves the post. Transport or parse
// failures approve by default so an outage never stalls the pipeline.
func (v *LLMVerifier) Verify(ctx context.Context, rec record.Record, keyword string) bool {
	caption := rec.Caption
	if len(caption) > 800 {
		caption = caption[:800] + "..."
	}
	prompt := fmt.Sprintf(verifyPrompt, keyword, rec.Platform, caption)

	var raw string
	var err error
	switch v.provider {
	case "anthropic":
		raw, err = v.callAnthropic(ctx, prompt)
	default:
		raw, err = v.callOpenAI(ctx, prompt)
	}
	if err != nil {
		v.log.WithError(err).Warn("verification call failed, accepting item")
		return true
	}

	answer := strings.ToUpper(strings.TrimSpace(raw))
	return !strings.HasPrefix(answer, "NO")
}

func (v *LLMVerifier) callOpenAI(ctx context.Context, prompt string) (string, error) {
	baseURL := v.baseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	payload := map[string]any{
		"model": v.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0,
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai status %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}

func (v *LLMVerifier) callAnthropic(ctx context.Context, prompt string) (string, error) {
	baseURL := v.baseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	payload := map[string]any{
		"model":      v.model,
		"max_tokens": 16,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", v.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic status %d", resp.StatusCode)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("anthropic: no content returned")
	}
	return result.Content[0].Text, nil
}
