package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"chatinput/model"
)

const defaultAnthropicURL = "https://api.anthropic.com"

// Anthropic answers through the Claude messages API.
type Anthropic struct {
	client  *anthropic.Client
	baseURL string
}

func NewAnthropic(baseURL, apiKey string) (*Anthropic, error) {
	if baseURL == "" {
		baseURL = defaultAnthropicURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrMissingAPIKey)
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &Anthropic{
		client:  &client, // Convert value to pointer
		baseURL: baseURL,
	}, nil
}

func (a *Anthropic) Name() string {
	return "anthropic"
}

func (a *Anthropic) Respond(ctx context.Context, req Request) (Response, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelName),
		Messages:  toAnthropicMessages(req),
		MaxTokens: 4096, // Required by Anthropic API
	}
	if system := systemPrompt(req); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	stream := a.client.Messages.NewStreaming(ctx, params)
	msg := anthropic.Message{}
	for stream.Next() {
		if err := msg.Accumulate(stream.Current()); err != nil {
			return Response{}, fmt.Errorf("error accumulating message: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return Response{}, fmt.Errorf("Anthropic streaming error: %w", err)
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(text.Text)
		}
	}

	if msg.Model != "" {
		modelName = string(msg.Model)
	}
	tokens := int(msg.Usage.OutputTokens)
	if tokens == 0 {
		tokens = countTokens(content.String())
	}
	return Response{
		Content:    content.String(),
		Model:      modelName,
		TokenCount: tokens,
	}, nil
}

func toAnthropicMessages(req Request) []anthropic.MessageParam {
	turns := conversation(req)
	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		switch t.Sender {
		case model.SenderAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		}
	}
	return messages
}
