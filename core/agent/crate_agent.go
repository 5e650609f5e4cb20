package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"CrateFM/logger"
	"CrateFM/model"
)

// CrateAgentConfig contains configuration for the crate-planning agent.
type CrateAgentConfig struct {
	APIBaseURL  string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// CrateAgent talks to an OpenAI-compatible chat-completions endpoint on
// behalf of the planner. Each call is single-shot: no retry or backoff here,
// failures surface to the caller.
type CrateAgent struct {
	config     *CrateAgentConfig
	httpClient *http.Client
}

// System prompt for the crate-planning agent.
const CrateAgentSystemPrompt = `You are the crate-planning assistant for CrateFM, a DJ set planner.

You help plan ordered sequences of tracks ("crates") that mix well together:
compatible tempos, harmonically adjacent Camelot keys, and a coherent energy
progression.

Rules for every reply:
1. When the request asks for structured output, reply with EXACTLY ONE JSON
   object. You may add a short explanation around it, but there must be one
   and only one JSON object in the reply.
2. Track identifiers must be copied verbatim from the request. Never invent
   identifiers.
3. Tempo ranges are in BPM with min <= max. Durations are in seconds and
   never negative.
4. Keys use Camelot notation, "1A" through "12B".
5. When the request asks for free-text commentary, answer in plain prose
   without any JSON.`

// NewCrateAgent creates a new crate-planning agent.
func NewCrateAgent(config *CrateAgentConfig) *CrateAgent {
	return &CrateAgent{
		config: config,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Generate sends a prompt and returns the complete model response.
func (a *CrateAgent) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := model.OpenAIChatRequest{
		Model: a.config.Model,
		Messages: []model.OpenAIChatMessage{
			{Role: "system", Content: CrateAgentSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
		Stream:      false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.config.APIBaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	logger.Debug("Sending generation request",
		logger.String("model", a.config.Model),
		logger.Int("promptLength", len(prompt)))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp model.OpenAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	logger.Debug("Generation request completed",
		logger.Int("promptTokens", chatResp.Usage.PromptTokens),
		logger.Int("completionTokens", chatResp.Usage.CompletionTokens))

	return chatResp.Choices[0].Message.Content, nil
}
