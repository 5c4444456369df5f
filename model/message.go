package model

import (
	"time"

	"github.com/google/uuid"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

type Reaction string

const (
	ReactionNone    Reaction = ""
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// Toggle returns the reaction after choosing choice. Choosing the active
// reaction clears it.
func (r Reaction) Toggle(choice Reaction) Reaction {
	if r == choice {
		return ReactionNone
	}
	return choice
}

// Source is a citation target referenced as [Index] in assistant content.
type Source struct {
	Index int
	Title string
	URL   string
}

// Metadata describes how an assistant message was produced
type Metadata struct {
	Model        string
	ResponseTime time.Duration
	TokenCount   int
	Sources      []Source
	Stopped      bool // generation was stopped by the user
	Failed       bool // content is an error report
}

// Message represents a chat message in the conversation
type Message struct {
	ID        string
	Content   string
	Sender    Sender
	Metadata  *Metadata // nil for user messages
	Reaction  Reaction
	Timestamp time.Time
}

// NewMessage creates a message with a fresh id.
func NewMessage(sender Sender, content string, meta *Metadata) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    sender,
		Metadata:  meta,
		Timestamp: time.Now(),
	}
}

func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

func (m Message) IsAssistant() bool {
	return m.Sender == SenderAssistant
}

// Sources returns the citation targets, if any.
func (m Message) Sources() []Source {
	if m.Metadata == nil {
		return nil
	}
	return m.Metadata.Sources
}
