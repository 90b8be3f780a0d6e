package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"deploybot/internal/domain/entity"
	"deploybot/internal/domain/repository"
	"deploybot/internal/infrastructure/metrics"
)

// ChatEnhancer talks to an OpenAI-compatible chat completion endpoint. Both
// operations return an error on transport or parse failure; the orchestrator
// falls back to the pre-enhancement state, so nothing here retries.
type ChatEnhancer struct {
	apiKey      string
	baseURL     string
	model       string
	client      *http.Client
	maxTokens   int
	temperature float64
}

func NewChatEnhancer(apiKey, baseURL, model string, timeout time.Duration) repository.Enhancer {
	return &ChatEnhancer{
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		client:      &http.Client{Timeout: timeout},
		maxTokens:   1024,
		temperature: 0.1,
	}
}

func (e *ChatEnhancer) Enhance(ctx context.Context, originalText string, params entity.ParameterSet) (entity.ParameterSet, error) {
	metrics.IncLLMRequest(e.model, "enhance")

	draft, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		metrics.IncError("llm", "marshal_draft")
		return params, fmt.Errorf("marshal draft params: %w", err)
	}

	userPrompt := fmt.Sprintf("Deployment request:\n%s\n\nDraft extractor output:\n%s", originalText, string(draft))

	content, err := e.chat(ctx, entity.EnhancePrompt.Text, userPrompt)
	if err != nil {
		metrics.IncError("llm", "enhance_request")
		return params, fmt.Errorf("enhance request: %w", err)
	}

	enhanced, err := parseParams(content)
	if err != nil {
		metrics.IncError("llm", "enhance_parse")
		return params, fmt.Errorf("enhance parse: %w", err)
	}

	// The model regularly omits the computed price; backfill from the
	// pre-enhancement value so amount stays the one field that is never
	// missing.
	if enhanced.Amount <= 0 {
		enhanced.Amount = params.Amount
		if enhanced.Amount <= 0 {
			enhanced.Amount = entity.RatePerHour * 2
		}
	}

	return enhanced, nil
}

func (e *ChatEnhancer) FollowUpQuestion(ctx context.Context, missingLabels []string, originalText string) (string, error) {
	metrics.IncLLMRequest(e.model, "follow_up")

	userPrompt := fmt.Sprintf("Original request:\n%s\n\nMissing fields: %s", originalText, strings.Join(missingLabels, ", "))

	content, err := e.chat(ctx, entity.FollowUpPrompt.Text, userPrompt)
	if err != nil {
		metrics.IncError("llm", "follow_up_request")
		return "", fmt.Errorf("follow-up request: %w", err)
	}

	question := strings.TrimSpace(content)
	if question == "" {
		metrics.IncError("llm", "follow_up_empty")
		return "", fmt.Errorf("empty follow-up question")
	}
	return question, nil
}

func (e *ChatEnhancer) chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	request := map[string]interface{}{
		"model": e.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature": e.temperature,
		"max_tokens":  e.maxTokens,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("close body err: %s", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("llm api error: %d - %s", resp.StatusCode, string(body))
	}

	var response map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return messageContent(response)
}

func messageContent(response map[string]interface{}) (string, error) {
	choices, ok := response["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return "", fmt.Errorf("invalid response format: no choices")
	}
	choice, ok := choices[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid response format: invalid choice")
	}
	message, ok := choice["message"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid response format: no message")
	}
	content, ok := message["content"].(string)
	if !ok {
		return "", fmt.Errorf("invalid response format: no content")
	}
	return content, nil
}

// parseParams pulls the first well-formed JSON object out of the model reply.
// The model may wrap its answer in prose or markdown fences; everything
// outside the outermost braces is ignored.
func parseParams(content string) (entity.ParameterSet, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return entity.ParameterSet{}, fmt.Errorf("no JSON object found in response")
	}

	var params entity.ParameterSet
	if err := json.Unmarshal([]byte(content[start:end+1]), &params); err != nil {
		return entity.ParameterSet{}, fmt.Errorf("parse JSON: %w", err)
	}
	return params, nil
}
