package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"chatinput/config"
)

// StoppedContent is appended when the user stops a generation.
const StoppedContent = "Generation stopped by user"

// Timing holds the delays of the timed stages.
type Timing struct {
	Thinking  time.Duration
	Searching time.Duration
}

// Controller owns the message sequence and the generation state machine.
//
// All methods must be called from the bubbletea Update loop. Commands it
// returns only produce messages; their results come back through
// HandleStageTick and HandleResponse.
type Controller struct {
	responder Responder
	timing    Timing

	messages []Message
	stage    GenerationStage

	// attempt identifies the live generation. Ticks and responses carrying
	// an older attempt are dropped.
	attempt int
	cancel  context.CancelFunc
	started time.Time
	request Request

	lastTools ToolSelection
	dirty     bool
}

func NewController(responder Responder, timing Timing) *Controller {
	return &Controller{
		responder: responder,
		timing:    timing,
	}
}

// SetResponder swaps the backend. Takes effect on the next generation.
func (c *Controller) SetResponder(r Responder) {
	c.responder = r
}

func (c *Controller) Responder() Responder {
	return c.responder
}

// Messages returns a copy of the message sequence.
func (c *Controller) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Controller) Stage() GenerationStage {
	return c.stage
}

func (c *Controller) Loading() bool {
	return c.stage != StageIdle
}

// LastTools returns the tool selection of the latest send.
func (c *Controller) LastTools() ToolSelection {
	return c.lastTools
}

// Find returns the message with id and its position, or -1.
func (c *Controller) Find(id string) (Message, int) {
	for i, m := range c.messages {
		if m.ID == id {
			return m, i
		}
	}
	return Message{}, -1
}

// Send appends a user message and starts generating a reply.
func (c *Controller) Send(content string, tools ToolSelection) (tea.Cmd, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if c.stage != StageIdle {
		return nil, ErrGenerationInProgress
	}

	history := HistoryTurns(c.messages)
	c.append(NewMessage(SenderUser, content, nil))
	c.lastTools = tools

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Controller] Send: %d chars, search=%v think=%v model=%s", len(content), tools.Search, tools.Think, tools.Model)
	}

	return c.start(content, history, tools), nil
}

// Regenerate replaces assistant message id with a new reply to the nearest
// preceding user message. Without such a message nothing changes and
// ErrNothingToRegenerate is returned.
func (c *Controller) Regenerate(id string) (tea.Cmd, error) {
	if c.stage != StageIdle {
		return nil, ErrGenerationInProgress
	}

	target, idx := c.Find(id)
	if idx < 0 || !target.IsAssistant() {
		return nil, ErrNothingToRegenerate
	}

	userIdx := -1
	for i := idx - 1; i >= 0; i-- {
		if c.messages[i].IsUser() {
			userIdx = i
			break
		}
	}
	if userIdx < 0 {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Controller] Regenerate %s: no preceding user message", id)
		}
		return nil, ErrNothingToRegenerate
	}

	prompt := c.messages[userIdx].Content
	history := HistoryTurns(c.messages[:userIdx])

	c.messages = append(c.messages[:idx], c.messages[idx+1:]...)
	c.dirty = true

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Controller] Regenerate %s from user message %s", id, c.messages[userIdx].ID)
	}

	return c.start(prompt, history, c.lastTools), nil
}

func (c *Controller) start(prompt string, history []Turn, tools ToolSelection) tea.Cmd {
	c.attempt++
	c.stage = StageThinking
	c.started = time.Now()
	c.request = Request{
		History: history,
		Prompt:  prompt,
		Model:   tools.Model,
		Search:  tools.Search,
		Think:   tools.Think,
	}
	return stageTick(c.attempt, c.timing.Thinking, StageSearching)
}

func stageTick(attempt int, d time.Duration, next GenerationStage) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return StageTickMsg{Attempt: attempt, Next: next}
	})
}

// HandleStageTick advances the live generation. Ticks from stopped or
// finished attempts are ignored.
func (c *Controller) HandleStageTick(msg StageTickMsg) tea.Cmd {
	if msg.Attempt != c.attempt || c.stage == StageIdle {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Controller] Dropping stale tick for attempt %d (current %d, stage %s)", msg.Attempt, c.attempt, c.stage)
		}
		return nil
	}
	if msg.Next != c.stage.Next() {
		return nil
	}

	c.stage = msg.Next

	switch c.stage {
	case StageSearching:
		return stageTick(c.attempt, c.timing.Searching, StageResponding)
	case StageResponding:
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		return respond(ctx, c.responder, c.attempt, c.request, c.started)
	default:
		return nil
	}
}

func respond(ctx context.Context, r Responder, attempt int, req Request, started time.Time) tea.Cmd {
	return func() tea.Msg {
		if r == nil {
			return ResponseReadyMsg{Attempt: attempt, Err: errors.New("no assistant backend configured")}
		}
		resp, err := r.Respond(ctx, req)
		return ResponseReadyMsg{
			Attempt:  attempt,
			Response: resp,
			Err:      err,
			Elapsed:  time.Since(started),
		}
	}
}

// HandleResponse completes the live generation. It reports whether msg
// belonged to it; stale responses leave everything untouched.
func (c *Controller) HandleResponse(msg ResponseReadyMsg) bool {
	if msg.Attempt != c.attempt || c.stage == StageIdle {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Controller] Dropping stale response for attempt %d (current %d)", msg.Attempt, c.attempt)
		}
		return false
	}

	c.finish()

	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			return true
		}
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Controller] Response failed: %v", msg.Err)
		}
		c.append(NewMessage(SenderAssistant, fmt.Sprintf("Error: %v", msg.Err), &Metadata{
			Model:        c.request.Model,
			ResponseTime: msg.Elapsed,
			Failed:       true,
		}))
		return true
	}

	modelName := msg.Response.Model
	if modelName == "" {
		modelName = c.request.Model
	}
	c.append(NewMessage(SenderAssistant, msg.Response.Content, &Metadata{
		Model:        modelName,
		ResponseTime: msg.Elapsed,
		TokenCount:   msg.Response.TokenCount,
		Sources:      msg.Response.Sources,
	}))

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Controller] Response complete: model=%s tokens=%d elapsed=%v", modelName, msg.Response.TokenCount, msg.Elapsed)
	}
	return true
}

// Stop cancels the live generation and records that it was stopped.
// It reports false, and does nothing, when idle.
func (c *Controller) Stop() bool {
	if c.stage == StageIdle {
		return false
	}

	elapsed := time.Since(c.started)
	c.attempt++
	c.finish()

	c.append(NewMessage(SenderAssistant, StoppedContent, &Metadata{
		Model:        c.request.Model,
		ResponseTime: elapsed,
		Stopped:      true,
	}))

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Controller] Generation stopped after %v", elapsed)
	}
	return true
}

func (c *Controller) finish() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.stage = StageIdle
}

// Edit replaces the content of user message id.
func (c *Controller) Edit(id, content string) bool {
	_, idx := c.Find(id)
	if idx < 0 || !c.messages[idx].IsUser() || c.messages[idx].Content == content {
		return false
	}
	c.messages[idx].Content = content
	c.dirty = true
	return true
}

func (c *Controller) Delete(id string) bool {
	_, idx := c.Find(id)
	if idx < 0 {
		return false
	}
	c.messages = append(c.messages[:idx], c.messages[idx+1:]...)
	c.dirty = true
	return true
}

// React toggles reaction r on message id. Choosing the active reaction
// clears it.
func (c *Controller) React(id string, r Reaction) bool {
	_, idx := c.Find(id)
	if idx < 0 {
		return false
	}
	c.messages[idx].Reaction = c.messages[idx].Reaction.Toggle(r)
	c.dirty = true
	return true
}

// Clear drops all messages, stopping any generation without a stop marker.
func (c *Controller) Clear() {
	if c.stage != StageIdle {
		c.attempt++
		c.finish()
	}
	c.messages = nil
	c.dirty = true
}

// Load replaces the sequence with previously saved messages.
func (c *Controller) Load(messages []Message) {
	c.Clear()
	c.messages = append([]Message(nil), messages...)
	c.dirty = false
}

// Dirty reports whether messages changed since the last MarkSaved.
func (c *Controller) Dirty() bool {
	return c.dirty
}

func (c *Controller) MarkSaved() {
	c.dirty = false
}

func (c *Controller) append(m Message) {
	c.messages = append(c.messages, m)
	c.dirty = true
}
