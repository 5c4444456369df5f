package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatinput/storage"
)

func TestStorageConversion(t *testing.T) {
	user := NewMessage(SenderUser, "hi", nil)
	reply := NewMessage(SenderAssistant, "hello [1]", &Metadata{
		Model:        "gpt-4",
		ResponseTime: 2 * time.Second,
		TokenCount:   2,
		Sources:      []Source{{Index: 1, Title: "Doc", URL: "https://example.com"}},
	})
	reply.Reaction = ReactionDislike

	back := FromStorage(ToStorage([]Message{user, reply}))
	require.Len(t, back, 2)
	assert.Equal(t, user.ID, back[0].ID)
	assert.Nil(t, back[0].Metadata)
	assert.Equal(t, reply.Metadata, back[1].Metadata)
	assert.Equal(t, ReactionDislike, back[1].Reaction)
}

func TestSaveAndLoadLatestHistory(t *testing.T) {
	store, err := storage.NewHistory(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	msg := LoadLatestHistory(store)().(HistoryLoadedMsg)
	require.NoError(t, msg.Err)
	assert.Empty(t, msg.ConversationID)

	id := NewConversationID()
	messages := []Message{
		NewMessage(SenderUser, "question", nil),
		NewMessage(SenderAssistant, StoppedContent, &Metadata{Stopped: true}),
	}
	saved := SaveHistory(store, id, messages)().(HistorySavedMsg)
	require.NoError(t, saved.Err)

	msg = LoadLatestHistory(store)().(HistoryLoadedMsg)
	require.NoError(t, msg.Err)
	assert.Equal(t, id, msg.ConversationID)
	require.Len(t, msg.Messages, 2)
	assert.Equal(t, messages[0].ID, msg.Messages[0].ID)
	assert.True(t, msg.Messages[1].Metadata.Stopped)

	deleted := DeleteHistory(store, id)().(HistoryDeletedMsg)
	require.NoError(t, deleted.Err)

	assert.Nil(t, SaveHistory(nil, id, messages))
	assert.Nil(t, LoadLatestHistory(nil))
}
