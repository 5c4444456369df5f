package model

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"chatinput/config"
	"chatinput/storage"
)

// NewConversationID returns a fresh conversation id.
func NewConversationID() string {
	return uuid.NewString()
}

// SaveHistory persists messages under conversation id.
func SaveHistory(store *storage.History, id string, messages []Message) tea.Cmd {
	if store == nil || id == "" {
		return nil
	}

	records := ToStorage(messages)
	return func() tea.Msg {
		err := store.Save(id, records)
		if config.DebugLog != nil {
			if err != nil {
				config.DebugLog.Printf("[History] Save %s failed: %v", id, err)
			} else {
				config.DebugLog.Printf("[History] Saved %d messages to %s", len(records), id)
			}
		}
		return HistorySavedMsg{Err: err}
	}
}

// LoadLatestHistory loads the most recent conversation. An empty store
// yields a HistoryLoadedMsg with no id.
func LoadLatestHistory(store *storage.History) tea.Cmd {
	if store == nil {
		return nil
	}

	return func() tea.Msg {
		id, err := store.Latest()
		if err != nil || id == "" {
			return HistoryLoadedMsg{Err: err}
		}

		records, err := store.Load(id)
		if err != nil {
			return HistoryLoadedMsg{ConversationID: id, Err: err}
		}
		return HistoryLoadedMsg{ConversationID: id, Messages: FromStorage(records)}
	}
}

// DeleteHistory removes conversation id from the store.
func DeleteHistory(store *storage.History, id string) tea.Cmd {
	if store == nil || id == "" {
		return nil
	}

	return func() tea.Msg {
		err := store.Delete(id)
		if errors.Is(err, storage.ErrConversationNotFound) {
			err = nil
		}
		return HistoryDeletedMsg{ConversationID: id, Err: err}
	}
}

// ToStorage converts messages to storage records.
func ToStorage(messages []Message) []storage.Message {
	out := make([]storage.Message, 0, len(messages))
	for _, m := range messages {
		rec := storage.Message{
			ID:        m.ID,
			Sender:    string(m.Sender),
			Content:   m.Content,
			Reaction:  string(m.Reaction),
			Timestamp: m.Timestamp,
		}
		if m.Metadata != nil {
			rec.HasMetadata = true
			rec.Model = m.Metadata.Model
			rec.ResponseTime = m.Metadata.ResponseTime
			rec.TokenCount = m.Metadata.TokenCount
			rec.Stopped = m.Metadata.Stopped
			rec.Failed = m.Metadata.Failed
			for _, s := range m.Metadata.Sources {
				rec.Sources = append(rec.Sources, storage.Source{Index: s.Index, Title: s.Title, URL: s.URL})
			}
		}
		out = append(out, rec)
	}
	return out
}

// FromStorage converts storage records back to messages.
func FromStorage(records []storage.Message) []Message {
	out := make([]Message, 0, len(records))
	for _, r := range records {
		m := Message{
			ID:        r.ID,
			Sender:    Sender(r.Sender),
			Content:   r.Content,
			Reaction:  Reaction(r.Reaction),
			Timestamp: r.Timestamp,
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if r.HasMetadata {
			meta := &Metadata{
				Model:        r.Model,
				ResponseTime: r.ResponseTime,
				TokenCount:   r.TokenCount,
				Stopped:      r.Stopped,
				Failed:       r.Failed,
			}
			for _, s := range r.Sources {
				meta.Sources = append(meta.Sources, Source{Index: s.Index, Title: s.Title, URL: s.URL})
			}
			m.Metadata = meta
		}
		out = append(out, m)
	}
	return out
}
