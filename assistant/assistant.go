// Package assistant implements the backends that answer chat messages.
//
// Every backend satisfies model.Responder. The Simulated backend needs no
// network and is the default; Ollama, OpenAI and Anthropic talk to real
// models through their official SDKs.
package assistant

import (
	"errors"
	"strings"

	"chatinput/model"
)

// The types live in model so the Controller can use them without importing
// this package.
type (
	Responder = model.Responder
	Request   = model.Request
	Response  = model.Response
	Turn      = model.Turn
)

// ErrMissingAPIKey is returned when a hosted backend has no credentials.
var ErrMissingAPIKey = errors.New("API key is required")

const (
	searchInstruction = "When you rely on outside knowledge, cite it inline with numbered markers like [1]."
	thinkInstruction  = "Before answering, reason step by step inside <think></think> tags, then give the final answer after the closing tag."
)

// systemPrompt returns the instructions implied by the request tools, or ""
func systemPrompt(req Request) string {
	var parts []string
	if req.Search {
		parts = append(parts, searchInstruction)
	}
	if req.Think {
		parts = append(parts, thinkInstruction)
	}
	return strings.Join(parts, "\n")
}

// conversation returns history followed by the prompt as a user turn.
func conversation(req Request) []Turn {
	turns := make([]Turn, 0, len(req.History)+1)
	turns = append(turns, req.History...)
	turns = append(turns, Turn{Sender: model.SenderUser, Content: req.Prompt})
	return turns
}

func countTokens(s string) int {
	return len(strings.Fields(s))
}
