package assistant

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"chatinput/model"
)

const defaultOpenAIURL = "https://api.openai.com/v1"

// OpenAI answers through the OpenAI chat completions API or any compatible
// server.
type OpenAI struct {
	client  openai.Client
	baseURL string
}

func NewOpenAI(baseURL, apiKey string) (*OpenAI, error) {
	if baseURL == "" {
		baseURL = defaultOpenAIURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAI{
		client:  client,
		baseURL: baseURL,
	}, nil
}

func (o *OpenAI) Name() string {
	return "openai"
}

func (o *OpenAI) Respond(ctx context.Context, req Request) (Response, error) {
	params := openai.ChatCompletionNewParams{
		Messages: toOpenAIMessages(req),
		Model:    openai.ChatModel(req.Model),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}

	stream := o.client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		acc.AddChunk(stream.Current())
	}
	if err := stream.Err(); err != nil {
		return Response{}, fmt.Errorf("OpenAI streaming error: %w", err)
	}
	if len(acc.Choices) == 0 {
		return Response{}, fmt.Errorf("OpenAI returned no choices")
	}

	content := acc.Choices[0].Message.Content
	tokens := int(acc.Usage.CompletionTokens)
	if tokens == 0 {
		tokens = countTokens(content)
	}

	modelName := acc.Model
	if modelName == "" {
		modelName = req.Model
	}
	return Response{
		Content:    content,
		Model:      modelName,
		TokenCount: tokens,
	}, nil
}

func toOpenAIMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if system := systemPrompt(req); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, t := range conversation(req) {
		switch t.Sender {
		case model.SenderAssistant:
			messages = append(messages, openai.AssistantMessage(t.Content))
		default:
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}
	return messages
}
