package data

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"friday/internal/biz/domain"
	"friday/internal/biz/repo"
)

// llmRepo implements the LLM repository over an OpenAI-compatible API
type llmRepo struct {
	client *openai.Client
	model  string
}

// NewLLMRepo creates an LLM repository
func NewLLMRepo(apiKey, baseURL, model string) repo.LLMRepo {
	if model == "" {
		model = "gpt-4o-mini"
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &llmRepo{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Complete sends the context document to the completion API and parses the
// structured result. Transport and auth failures come back as errors; a
// malformed model reply degrades to a result with the raw text as summary.
func (r *llmRepo) Complete(ctx context.Context, doc *domain.ContextDocument) (*domain.ProcessResult, error) {
	prompt, err := serializeContext(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize context: %w", err)
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.model,
		MaxTokens: 2048,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices")
	}

	return ParseProcessResult(resp.Choices[0].Message.Content), nil
}

// serializeContext turns the context document into a single instruction
func serializeContext(doc *domain.ContextDocument) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("You are an assistant monitoring the chat room ")
	sb.WriteString(fmt.Sprintf("%q on behalf of its owner.\n\n", doc.Room.Name))
	sb.WriteString("Below is the conversation context as a JSON document. ")
	sb.WriteString("Use sender_mapping to refer to people: always use the mapped display name, never the raw identifier. ")
	sb.WriteString("The sender mapped to \"yourself\" is the owner you work for.\n\n")
	sb.Write(data)
	sb.WriteString("\n\nFollow the goals and response_rules above. ")
	sb.WriteString("Existing pending tasks may be updated through todo_updates using their listed id. ")
	sb.WriteString("Respond with ONLY a JSON object matching output_format, no other text.")
	return sb.String(), nil
}

// ParseProcessResult extracts the first balanced {...} span from the model
// output and parses it. If no object is found or parsing fails, the whole
// text becomes the summary and everything else is empty, so a malformed
// reply never crashes a run.
func ParseProcessResult(text string) *domain.ProcessResult {
	if span := extractJSONObject(text); span != "" {
		var result domain.ProcessResult
		if err := json.Unmarshal([]byte(span), &result); err == nil {
			return &result
		}
	}
	return &domain.ProcessResult{Summary: strings.TrimSpace(text)}
}

// extractJSONObject returns the first balanced top-level {...} span,
// respecting string literals and escapes. Returns "" if none exists.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
