package model

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResponder struct {
	resp     Response
	err      error
	requests []Request
	block    bool
}

func (f *fakeResponder) Respond(ctx context.Context, req Request) (Response, error) {
	f.requests = append(f.requests, req)
	if f.block {
		<-ctx.Done()
		return Response{}, ctx.Err()
	}
	return f.resp, f.err
}

func (f *fakeResponder) Name() string { return "fake" }

func newTestController(r Responder) *Controller {
	return NewController(r, Timing{Thinking: time.Millisecond, Searching: time.Millisecond})
}

// drive runs cmd and feeds its message back until the generation settles.
func drive(t *testing.T, c *Controller, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 10; i++ {
		switch msg := cmd().(type) {
		case StageTickMsg:
			cmd = c.HandleStageTick(msg)
		case ResponseReadyMsg:
			c.HandleResponse(msg)
			cmd = nil
		default:
			t.Fatalf("unexpected message %T", msg)
		}
	}
}

func TestSendRunsThroughStages(t *testing.T) {
	r := &fakeResponder{resp: Response{
		Content:    "answer [1]",
		TokenCount: 3,
		Sources:    []Source{{Index: 1, Title: "Doc"}},
	}}
	c := newTestController(r)

	cmd, err := c.Send("  hello  ", ToolSelection{Search: true, Model: "gpt-4"})
	require.NoError(t, err)
	assert.Equal(t, StageThinking, c.Stage())
	assert.True(t, c.Loading())

	msg := cmd().(StageTickMsg)
	assert.Equal(t, StageSearching, msg.Next)
	cmd = c.HandleStageTick(msg)
	assert.Equal(t, StageSearching, c.Stage())

	msg = cmd().(StageTickMsg)
	cmd = c.HandleStageTick(msg)
	assert.Equal(t, StageResponding, c.Stage())

	assert.True(t, c.HandleResponse(cmd().(ResponseReadyMsg)))
	assert.Equal(t, StageIdle, c.Stage())

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, SenderUser, msgs[0].Sender)
	assert.Nil(t, msgs[0].Metadata)

	reply := msgs[1]
	assert.Equal(t, SenderAssistant, reply.Sender)
	assert.Equal(t, "answer [1]", reply.Content)
	require.NotNil(t, reply.Metadata)
	assert.Equal(t, "gpt-4", reply.Metadata.Model)
	assert.Equal(t, 3, reply.Metadata.TokenCount)
	assert.Len(t, reply.Metadata.Sources, 1)
	assert.Greater(t, reply.Metadata.ResponseTime, time.Duration(0))

	require.Len(t, r.requests, 1)
	assert.Equal(t, "hello", r.requests[0].Prompt)
	assert.True(t, r.requests[0].Search)
	assert.Empty(t, r.requests[0].History)
}

func TestSendRejectsEmptyAndBusy(t *testing.T) {
	c := newTestController(&fakeResponder{})

	_, err := c.Send("   \n", ToolSelection{})
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, c.Messages())

	_, err = c.Send("first", ToolSelection{})
	require.NoError(t, err)

	_, err = c.Send("second", ToolSelection{})
	assert.ErrorIs(t, err, ErrGenerationInProgress)
	assert.Len(t, c.Messages(), 1)
}

func TestStopAppendsSingleMarker(t *testing.T) {
	c := newTestController(&fakeResponder{})
	_, err := c.Send("hello", ToolSelection{Model: "claude-3"})
	require.NoError(t, err)

	assert.True(t, c.Stop())
	assert.Equal(t, StageIdle, c.Stage())

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, StoppedContent, msgs[1].Content)
	assert.Equal(t, SenderAssistant, msgs[1].Sender)
	require.NotNil(t, msgs[1].Metadata)
	assert.True(t, msgs[1].Metadata.Stopped)

	assert.False(t, c.Stop(), "second stop is a no-op")
	assert.Len(t, c.Messages(), 2)
}

func TestStaleTickAfterStopIgnored(t *testing.T) {
	c := newTestController(&fakeResponder{resp: Response{Content: "late"}})
	cmd, err := c.Send("hello", ToolSelection{})
	require.NoError(t, err)

	tick := cmd().(StageTickMsg)
	require.True(t, c.Stop())

	assert.Nil(t, c.HandleStageTick(tick))
	assert.Equal(t, StageIdle, c.Stage())

	// a new send must not be advanced by the old tick either
	_, err = c.Send("again", ToolSelection{})
	require.NoError(t, err)
	assert.Nil(t, c.HandleStageTick(tick))
	assert.Equal(t, StageThinking, c.Stage())
}

func TestStopCancelsInFlightResponse(t *testing.T) {
	r := &fakeResponder{block: true}
	c := newTestController(r)

	cmd, err := c.Send("hello", ToolSelection{})
	require.NoError(t, err)
	cmd = c.HandleStageTick(cmd().(StageTickMsg))
	cmd = c.HandleStageTick(cmd().(StageTickMsg))
	require.Equal(t, StageResponding, c.Stage())

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	require.True(t, c.Stop())

	select {
	case msg := <-done:
		ready := msg.(ResponseReadyMsg)
		assert.ErrorIs(t, ready.Err, context.Canceled)
		assert.False(t, c.HandleResponse(ready), "response of a stopped attempt is stale")
	case <-time.After(time.Second):
		t.Fatal("responder was not cancelled")
	}

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, StoppedContent, msgs[1].Content)
}

func TestResponseErrorBecomesMessage(t *testing.T) {
	c := newTestController(&fakeResponder{err: errors.New("backend down")})
	cmd, err := c.Send("hello", ToolSelection{Model: "llama-3"})
	require.NoError(t, err)
	drive(t, c, cmd)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Error: backend down", msgs[1].Content)
	assert.True(t, msgs[1].Metadata.Failed)
	assert.Equal(t, StageIdle, c.Stage())
}

func TestRegenerate(t *testing.T) {
	r := &fakeResponder{resp: Response{Content: "reply"}}
	c := newTestController(r)

	cmd, err := c.Send("question", ToolSelection{Think: true, Model: "gpt-4"})
	require.NoError(t, err)
	drive(t, c, cmd)
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	oldReply := msgs[1].ID

	r.resp = Response{Content: "better reply"}
	cmd, err = c.Regenerate(oldReply)
	require.NoError(t, err)
	assert.Equal(t, StageThinking, c.Stage())
	assert.Len(t, c.Messages(), 1, "target is removed while regenerating")
	drive(t, c, cmd)

	msgs = c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "better reply", msgs[1].Content)
	assert.NotEqual(t, oldReply, msgs[1].ID)

	last := r.requests[len(r.requests)-1]
	assert.Equal(t, "question", last.Prompt)
	assert.True(t, last.Think, "tools of the latest send are reused")
}

func TestRegenerateNoOps(t *testing.T) {
	c := newTestController(&fakeResponder{resp: Response{Content: "reply"}})

	// assistant message with no user message before it
	c.Load([]Message{NewMessage(SenderAssistant, "welcome", nil)})
	first := c.Messages()[0].ID

	cmd, err := c.Regenerate(first)
	assert.Nil(t, cmd)
	assert.ErrorIs(t, err, ErrNothingToRegenerate)
	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, StageIdle, c.Stage())

	_, err = c.Regenerate("missing")
	assert.ErrorIs(t, err, ErrNothingToRegenerate)

	cmd, err = c.Send("hi", ToolSelection{})
	require.NoError(t, err)
	user := c.Messages()[1].ID

	_, err = c.Regenerate(first)
	assert.ErrorIs(t, err, ErrGenerationInProgress)

	drive(t, c, cmd)
	_, err = c.Regenerate(user)
	assert.ErrorIs(t, err, ErrNothingToRegenerate, "user messages are not regenerated")
}

func TestEditDeleteReact(t *testing.T) {
	c := newTestController(&fakeResponder{resp: Response{Content: "reply"}})
	cmd, err := c.Send("hi", ToolSelection{})
	require.NoError(t, err)
	drive(t, c, cmd)
	c.MarkSaved()

	msgs := c.Messages()
	user, reply := msgs[0].ID, msgs[1].ID

	assert.False(t, c.Edit(user, "hi"), "unchanged content is not an edit")
	assert.False(t, c.Dirty())
	assert.True(t, c.Edit(user, "hello"))
	assert.False(t, c.Edit(reply, "rewritten"), "assistant messages are not editable")
	assert.True(t, c.Dirty())

	assert.True(t, c.React(reply, ReactionLike))
	m, _ := c.Find(reply)
	assert.Equal(t, ReactionLike, m.Reaction)
	assert.True(t, c.React(reply, ReactionLike))
	m, _ = c.Find(reply)
	assert.Equal(t, ReactionNone, m.Reaction)

	assert.True(t, c.Delete(user))
	assert.False(t, c.Delete(user))
	_, idx := c.Find(user)
	assert.Equal(t, -1, idx)
	assert.Len(t, c.Messages(), 1)
}

func TestHistoryTurnsSkipsMarkers(t *testing.T) {
	msgs := []Message{
		NewMessage(SenderUser, "a", nil),
		NewMessage(SenderAssistant, StoppedContent, &Metadata{Stopped: true}),
		NewMessage(SenderAssistant, "Error: x", &Metadata{Failed: true}),
		NewMessage(SenderAssistant, "b", &Metadata{}),
	}
	turns := HistoryTurns(msgs)
	assert.Equal(t, []Turn{{Sender: SenderUser, Content: "a"}, {Sender: SenderAssistant, Content: "b"}}, turns)
}

func TestStageString(t *testing.T) {
	tests := []struct {
		stage GenerationStage
		want  string
		next  GenerationStage
	}{
		{StageIdle, "Idle", StageIdle},
		{StageThinking, "Thinking...", StageSearching},
		{StageSearching, "Searching...", StageResponding},
		{StageResponding, "Responding...", StageIdle},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stage.String())
			assert.Equal(t, tt.next, tt.stage.Next())
		})
	}
}
