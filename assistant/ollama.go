package assistant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"chatinput/model"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama answers through a local Ollama server.
type Ollama struct {
	client  *api.Client
	baseURL string
}

func NewOllama(baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &Ollama{
		client:  api.NewClient(parsedURL, http.DefaultClient),
		baseURL: baseURL,
	}, nil
}

func (o *Ollama) Name() string {
	return "ollama"
}

// Respond streams the reply and returns it once the server is done.
func (o *Ollama) Respond(ctx context.Context, req Request) (Response, error) {
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: toOllamaMessages(req),
		Stream:   func(b bool) *bool { return &b }(true),
	}

	var content strings.Builder
	var tokens int
	respFunc := func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			tokens = resp.EvalCount
		}
		return nil
	}

	if err := o.client.Chat(ctx, chatReq, respFunc); err != nil {
		return Response{}, fmt.Errorf("ollama chat failed: %w", err)
	}

	if tokens == 0 {
		tokens = countTokens(content.String())
	}
	return Response{
		Content:    content.String(),
		Model:      req.Model,
		TokenCount: tokens,
	}, nil
}

func toOllamaMessages(req Request) []api.Message {
	var messages []api.Message
	if system := systemPrompt(req); system != "" {
		messages = append(messages, api.Message{Role: "system", Content: system})
	}
	for _, t := range conversation(req) {
		role := "user"
		if t.Sender == model.SenderAssistant {
			role = "assistant"
		}
		messages = append(messages, api.Message{Role: role, Content: t.Content})
	}
	return messages
}
