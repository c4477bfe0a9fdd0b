package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation is a named chat session, optionally tied to a project.
type Conversation struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	UserName    string    `json:"user_name"`
	Description string    `json:"description,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a conversation.
type Message struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	Role           string         `json:"role"`
	Content        string         `json:"content"`
	Type           string         `json:"message_type,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

const conversationColumns = `id, name, user_name, description, COALESCE(project_id, ''), created_at, updated_at`

// CreateConversation starts a conversation.
func (s *Store) CreateConversation(ctx context.Context, c Conversation) (Conversation, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Conversation{}, errors.New("conversation name is required")
	}
	now := s.stamp()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = fromStamp(now), fromStamp(now)

	var project any
	if c.ProjectID != "" {
		project = c.ProjectID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, name, user_name, description, project_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.UserName, c.Description, project, now, now)
	if err != nil {
		return Conversation{}, fmt.Errorf("creating conversation: %w", err)
	}
	return c, nil
}

// Conversations lists conversations, most recently active first.
func (s *Store) Conversations(ctx context.Context, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryConversations(ctx,
		`SELECT `+conversationColumns+` FROM conversations ORDER BY updated_at DESC, rowid DESC LIMIT ?`, limit)
}

// SearchConversations matches query case-insensitively against conversation
// and user names.
func (s *Store) SearchConversations(ctx context.Context, query string, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + strings.ToLower(query) + "%"
	return s.queryConversations(ctx,
		`SELECT `+conversationColumns+` FROM conversations
		 WHERE lower(name) LIKE ? OR lower(user_name) LIKE ?
		 ORDER BY updated_at DESC, rowid DESC LIMIT ?`, like, like, limit)
}

func (s *Store) queryConversations(ctx context.Context, query string, args ...any) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanConversation(sc scanner) (Conversation, error) {
	var (
		c                Conversation
		created, updated int64
	)
	if err := sc.Scan(&c.ID, &c.Name, &c.UserName, &c.Description, &c.ProjectID, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("scanning conversation: %w", err)
	}
	c.CreatedAt, c.UpdatedAt = fromStamp(created), fromStamp(updated)
	return c, nil
}

// Conversation returns one conversation.
func (s *Store) Conversation(ctx context.Context, id string) (Conversation, error) {
	c, err := scanConversation(s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return c, err
}

// UpdateConversation renames or redescribes a conversation. Empty arguments
// leave the field unchanged.
func (s *Store) UpdateConversation(ctx context.Context, id, name, description string) (Conversation, error) {
	if name == "" && description == "" {
		return s.Conversation(ctx, id)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET
			name = CASE WHEN ? = '' THEN name ELSE ? END,
			description = CASE WHEN ? = '' THEN description ELSE ? END,
			updated_at = ?
		 WHERE id = ?`,
		name, name, description, description, s.stamp(), id)
	if err != nil {
		return Conversation{}, fmt.Errorf("updating conversation %s: %w", id, err)
	}
	if err := affected(res, "conversation", id); err != nil {
		return Conversation{}, err
	}
	return s.Conversation(ctx, id)
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	return affected(res, "conversation", id)
}

// AddMessage appends m to its conversation and touches the conversation.
func (s *Store) AddMessage(ctx context.Context, m Message) (Message, error) {
	var meta sql.NullString
	if m.Metadata != nil {
		enc, err := json.Marshal(m.Metadata)
		if err != nil {
			return Message{}, fmt.Errorf("encoding message metadata: %w", err)
		}
		meta = sql.NullString{String: string(enc), Valid: true}
	}
	now := s.stamp()
	m.ID = uuid.NewString()
	m.CreatedAt = fromStamp(now)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE conversations SET updated_at = ? WHERE id = ?`, now, m.ConversationID)
		if err != nil {
			return fmt.Errorf("touching conversation: %w", err)
		}
		if err := affected(res, "conversation", m.ConversationID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO conversation_messages (id, conversation_id, role, content, message_type, metadata, created_at, seq)
			 VALUES (?, ?, ?, ?, ?, ?, ?,
			   (SELECT COALESCE(MAX(seq), 0) + 1 FROM conversation_messages WHERE conversation_id = ?))`,
			m.ID, m.ConversationID, m.Role, m.Content, m.Type, meta, now, m.ConversationID)
		if err != nil {
			return fmt.Errorf("adding message: %w", err)
		}
		return nil
	})
	if err != nil {
		return Message{}, err
	}
	return m, nil
}

// Messages returns up to limit messages of a conversation, oldest first.
func (s *Store) Messages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryMessages(ctx,
		`SELECT id, conversation_id, role, content, message_type, metadata, created_at
		 FROM conversation_messages WHERE conversation_id = ? ORDER BY seq ASC LIMIT ?`, conversationID, limit)
}

// RecentMessages returns the last n messages of a conversation, oldest
// first.
func (s *Store) RecentMessages(ctx context.Context, conversationID string, n int) ([]Message, error) {
	if n <= 0 {
		n = 10
	}
	return s.queryMessages(ctx,
		`SELECT * FROM (
			SELECT id, conversation_id, role, content, message_type, metadata, created_at, seq
			FROM conversation_messages WHERE conversation_id = ? ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`, conversationID, n)
}

func (s *Store) queryMessages(ctx context.Context, query string, args ...any) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	var out []Message
	for rows.Next() {
		var (
			m    Message
			meta sql.NullString
			at   int64
			seq  int64
		)
		dest := []any{&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Type, &meta, &at}
		if len(cols) > len(dest) {
			dest = append(dest, &seq)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if meta.Valid {
			if err := json.Unmarshal([]byte(meta.String), &m.Metadata); err != nil {
				return nil, fmt.Errorf("decoding message metadata: %w", err)
			}
		}
		m.CreatedAt = fromStamp(at)
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMessage removes one message.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversation_messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting message %s: %w", id, err)
	}
	return affected(res, "message", id)
}
