package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-5-haiku-latest"
const defaultOpenAIModel = "gpt-4o-mini"

const classifyPrompt = `You are classifying the user's current activity from a screenshot.
Return JSON ONLY as:
{
  "tag": "stable kebab-case tag focusing on app/site and activity (e.g. 'vscode-coding', 'chrome-docs', 'terminal-build', 'figma-design')",
  "detail": "one short sentence"
}
Keep the tag stable across very similar screenshots.`

type LLMUsage struct {
	InputTokens  int64
	OutputTokens int64
}

func (u LLMUsage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// ClassifyScreen labels one screen sample with the configured LLM provider.
func ClassifyScreen(ctx context.Context, cfg Config, sample *Sample) (ContextSummary, error) {
	var raw string
	var err error

	switch cfg.LLMProvider {
	case "openai":
		model := cfg.LLMModel
		if model == "" {
			model = defaultOpenAIModel
		}
		log.Printf("classify provider=openai model=%s bytes=%d", model, len(sample.Raw))
		raw, err = classifyOpenAI(ctx, cfg.OpenAIAPIKey, model, sample)
	default:
		model := cfg.LLMModel
		if model == "" {
			model = defaultAnthropicModel
		}
		log.Printf("classify provider=anthropic model=%s bytes=%d", model, len(sample.Raw))
		raw, err = classifyAnthropic(ctx, cfg.AnthropicAPIKey, model, sample)
	}
	if err != nil {
		return ContextSummary{}, err
	}

	summary, err := parseContextSummary(raw)
	if err != nil {
		return ContextSummary{}, err
	}
	summary.App = sample.App
	return summary, nil
}

// --- Anthropic ---

func classifyAnthropic(ctx context.Context, apiKey, model string, sample *Sample) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 1000,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(classifyPrompt),
				anthropic.NewImageBlockBase64(sample.Media, base64.StdEncoding.EncodeToString(sample.Raw)),
			),
		},
	})
	if err != nil {
		log.Printf("classify anthropic error: %v", err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}
	usage := LLMUsage{
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("classify anthropic response size=%d tokens_in=%d tokens_out=%d",
				len(block.Text), usage.InputTokens, usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}

// --- OpenAI ---

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string          `json:"role"`
	Content []openAIContent `json:"content"`
}

type openAIContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func classifyOpenAI(ctx context.Context, apiKey, model string, sample *Sample) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", sample.Media, base64.StdEncoding.EncodeToString(sample.Raw))
	reqBody := openAIRequest{
		Model:     model,
		MaxTokens: 1000,
		Messages: []openAIMessage{
			{
				Role: "user",
				Content: []openAIContent{
					{Type: "text", Text: classifyPrompt},
					{Type: "image_url", ImageURL: &openAIImageURL{URL: dataURL}},
				},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := externalHTTPClient.Do(req)
	if err != nil {
		log.Printf("classify openai error: %v", err)
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return "", fmt.Errorf("parsing OpenAI response: %w", err)
	}
	if openAIResp.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}
	if openAIResp.Usage != nil {
		log.Printf("classify openai response size=%d tokens_in=%d tokens_out=%d",
			len(openAIResp.Choices[0].Message.Content), openAIResp.Usage.PromptTokens, openAIResp.Usage.CompletionTokens)
	}
	return openAIResp.Choices[0].Message.Content, nil
}

// --- Response parsing ---

type rawContextSummary struct {
	Tag     json.RawMessage `json:"tag"`
	Detail  json.RawMessage `json:"detail"`
	Details json.RawMessage `json:"details"`
}

// parseContextSummary extracts the {tag, detail} object from a model
// response, tolerating fenced code blocks, surrounding prose, and loosely
// typed fields.
func parseContextSummary(responseText string) (ContextSummary, error) {
	block := extractJSONBlock(responseText)
	if block == "" {
		return ContextSummary{}, fmt.Errorf("no JSON object in classifier response: %s", truncateForError(responseText))
	}

	var raw rawContextSummary
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return ContextSummary{}, fmt.Errorf("parsing classifier response: %w (response: %s)", err, truncateForError(block))
	}

	tag := strings.TrimSpace(coerceString(raw.Tag))
	if tag == "" {
		return ContextSummary{}, fmt.Errorf("classifier response missing tag: %s", truncateForError(block))
	}
	detail := strings.TrimSpace(coerceString(raw.Detail))
	if detail == "" {
		detail = strings.TrimSpace(coerceString(raw.Details))
	}
	return ContextSummary{Tag: tag, Detail: detail}, nil
}

// extractJSONBlock returns the outermost {...} object in s, stripping an
// optional ```json fence first. Empty string when none is found.
func extractJSONBlock(s string) string {
	trimmed := strings.TrimSpace(s)
	if start := strings.Index(trimmed, "```"); start >= 0 {
		if end := strings.LastIndex(trimmed, "```"); end > start {
			inner := trimmed[start+3 : end]
			inner = strings.TrimPrefix(strings.TrimSpace(inner), "json")
			trimmed = strings.TrimSpace(inner)
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return ""
	}
	return trimmed[start : end+1]
}

// coerceString accepts the field shapes models actually produce: a string,
// an array of strings (joined), or a number.
func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var asSlice []string
	if err := json.Unmarshal(raw, &asSlice); err == nil {
		return strings.Join(asSlice, ", ")
	}

	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return fmt.Sprintf("%g", asNumber)
	}

	return ""
}

func truncateForError(s string) string {
	if len(s) > 512 {
		return s[:512] + fmt.Sprintf("... [truncated, total_length=%d]", len(s))
	}
	return s
}
