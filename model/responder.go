package model

import "context"

// Responder produces the assistant reply for a request.
//
// This interface is defined in the model package (not assistant package) to
// avoid import cycles: backends import model for Source and Message, and the
// Controller uses the interface without importing the backends.
type Responder interface {
	// Respond blocks until the reply is ready or ctx is cancelled.
	Respond(ctx context.Context, req Request) (Response, error)

	// Name identifies the backend in logs and the header.
	Name() string
}

// Turn is one prior exchange entry sent as conversation context.
type Turn struct {
	Sender  Sender
	Content string
}

// ToolSelection is the footer tool state attached to a send.
type ToolSelection struct {
	Search bool
	Think  bool
	Model  string
}

type Request struct {
	History []Turn // messages before Prompt, oldest first
	Prompt  string
	Model   string
	Search  bool
	Think   bool
}

type Response struct {
	Content    string
	Model      string
	TokenCount int
	Sources    []Source
}

// HistoryTurns converts messages to request context, dropping stop markers
// and error replies.
func HistoryTurns(messages []Message) []Turn {
	turns := make([]Turn, 0, len(messages))
	for _, m := range messages {
		if m.Metadata != nil && (m.Metadata.Stopped || m.Metadata.Failed) {
			continue
		}
		turns = append(turns, Turn{Sender: m.Sender, Content: m.Content})
	}
	return turns
}
