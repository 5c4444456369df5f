package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrConversationNotFound is returned by Load for an unknown id.
var ErrConversationNotFound = errors.New("conversation not found")

// Source is a stored citation target
type Source struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// Message represents a stored chat message
type Message struct {
	ID           string
	Sender       string
	Content      string
	Reaction     string
	Model        string
	ResponseTime time.Duration
	TokenCount   int
	Sources      []Source
	HasMetadata  bool
	Stopped      bool
	Failed       bool
	Timestamp    time.Time
}

// ConversationMeta is a lightweight conversation record for listing
type ConversationMeta struct {
	ID           string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// History persists conversations in <dataDir>/history.db
type History struct {
	db *sql.DB
}

func NewHistory(dataDir string) (*History, error) {
	return OpenHistory(filepath.Join(dataDir, "history.db"))
}

// OpenHistory opens (creating if needed) the history database at dbPath.
func OpenHistory(dbPath string) (*History, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// a single connection keeps writes serialized
	db.SetMaxOpenConns(1)

	h := &History{db: db}
	if err := h.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return h, nil
}

func (h *History) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		id TEXT NOT NULL,
		sender TEXT NOT NULL,
		content TEXT NOT NULL,
		reaction TEXT NOT NULL DEFAULT '',
		has_metadata INTEGER NOT NULL DEFAULT 0,
		model TEXT NOT NULL DEFAULT '',
		response_time_ms INTEGER NOT NULL DEFAULT 0,
		token_count INTEGER NOT NULL DEFAULT 0,
		sources TEXT NOT NULL DEFAULT '',
		stopped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (conversation_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at);
	`

	_, err := h.db.Exec(schema)
	return err
}

// Save replaces the stored messages of conversation id in one transaction.
func (h *History) Save(id string, messages []Message) error {
	if id == "" {
		return errors.New("conversation id is empty")
	}

	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.Exec(`
	INSERT INTO conversations (id, title, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at
	`, id, ConversationTitle(messages), now, now)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO messages (conversation_id, position, id, sender, content, reaction, has_metadata, model, response_time_ms, token_count, sources, stopped, failed, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range messages {
		sources := ""
		if len(m.Sources) > 0 {
			data, err := json.Marshal(m.Sources)
			if err != nil {
				return fmt.Errorf("failed to marshal sources: %w", err)
			}
			sources = string(data)
		}

		_, err := stmt.Exec(
			id,
			i,
			m.ID,
			m.Sender,
			m.Content,
			m.Reaction,
			m.HasMetadata,
			m.Model,
			m.ResponseTime.Milliseconds(),
			m.TokenCount,
			sources,
			m.Stopped,
			m.Failed,
			m.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Load returns the messages of conversation id in order.
func (h *History) Load(id string) ([]Message, error) {
	var exists int
	err := h.db.QueryRow(`SELECT COUNT(*) FROM conversations WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	if exists == 0 {
		return nil, ErrConversationNotFound
	}

	rows, err := h.db.Query(`
	SELECT id, sender, content, reaction, has_metadata, model, response_time_ms, token_count, sources, stopped, failed, created_at
	FROM messages
	WHERE conversation_id = ?
	ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var responseMS int64
		var sources string
		err := rows.Scan(
			&m.ID,
			&m.Sender,
			&m.Content,
			&m.Reaction,
			&m.HasMetadata,
			&m.Model,
			&responseMS,
			&m.TokenCount,
			&sources,
			&m.Stopped,
			&m.Failed,
			&m.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.ResponseTime = time.Duration(responseMS) * time.Millisecond
		if sources != "" {
			if err := json.Unmarshal([]byte(sources), &m.Sources); err != nil {
				return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
			}
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// Latest returns the id of the most recently updated conversation, or ""
// when nothing is stored.
func (h *History) Latest() (string, error) {
	var id string
	err := h.db.QueryRow(`SELECT id FROM conversations ORDER BY updated_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest conversation: %w", err)
	}
	return id, nil
}

// List returns all conversations, newest first.
func (h *History) List() ([]ConversationMeta, error) {
	rows, err := h.db.Query(`
	SELECT c.id, c.title, c.created_at, c.updated_at, COUNT(m.id)
	FROM conversations c
	LEFT JOIN messages m ON m.conversation_id = c.id
	GROUP BY c.id
	ORDER BY c.updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var out []ConversationMeta
	for rows.Next() {
		var c ConversationMeta
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes conversation id and its messages.
func (h *History) Delete(id string) error {
	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return tx.Commit()
}

func (h *History) Close() error {
	return h.db.Close()
}

// ConversationTitle derives a title from the first user message
func ConversationTitle(messages []Message) string {
	for _, m := range messages {
		if m.Sender != "user" {
			continue
		}
		name := strings.Join(strings.Fields(m.Content), " ")
		runes := []rune(name)
		if len(runes) > 30 {
			name = string(runes[:30]) + "..."
		}
		if name != "" {
			return name
		}
	}
	return fmt.Sprintf("Conversation %s", time.Now().Format("Jan 2, 3:04 PM"))
}
