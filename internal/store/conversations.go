package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/shoot/pkg/types"
)

func (s *SQLStore) GetConversation(id string) (*types.Conversation, error) {
	var c types.Conversation
	err := s.queryRow(`SELECT conversation_id,current_spec_id,current_app_id,last_action,created_at,updated_at FROM conversations WHERE conversation_id=?`, id).
		Scan(&c.ConversationID, &c.CurrentSpecID, &c.CurrentAppID, &c.LastAction, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "conversation", id)
	}
	return &c, nil
}

// SaveConversation inserts or overwrites the conversation row.
func (s *SQLStore) SaveConversation(conv *types.Conversation) error {
	if conv == nil || conv.ConversationID == "" {
		return errors.New("conversation id is required")
	}
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now
	_, err := s.exec(`INSERT INTO conversations(conversation_id,current_spec_id,current_app_id,last_action,created_at,updated_at)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			current_spec_id=excluded.current_spec_id,
			current_app_id=excluded.current_app_id,
			last_action=excluded.last_action,
			updated_at=excluded.updated_at`,
		conv.ConversationID, conv.CurrentSpecID, conv.CurrentAppID, conv.LastAction, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (s *SQLStore) SaveMessage(msg *types.Message) (*types.Message, error) {
	if msg == nil {
		return nil, errors.New("message is nil")
	}
	out := *msg
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	// seq orders messages that share a timestamp.
	_, err := s.exec(`INSERT INTO messages(id,conversation_id,seq,role,content,created_at) VALUES(?,?,(SELECT COALESCE(MAX(seq),0)+1 FROM messages WHERE conversation_id=?),?,?,?)`,
		out.ID, out.ConversationID, out.ConversationID, out.Role, out.Content, out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &out, nil
}

// ListMessages returns messages oldest first. A positive limit keeps only
// the most recent limit entries.
func (s *SQLStore) ListMessages(conversationID string, limit int) ([]types.Message, error) {
	rows, err := s.query(`SELECT id,conversation_id,role,content,created_at FROM messages WHERE conversation_id=? ORDER BY created_at ASC, seq ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]types.Message, 0)
	for rows.Next() {
		var m types.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// ClearConversation deletes the messages and then the conversation itself.
func (s *SQLStore) ClearConversation(conversationID string) error {
	if _, err := s.exec(`DELETE FROM messages WHERE conversation_id=?`, conversationID); err != nil {
		return err
	}
	_, err := s.exec(`DELETE FROM conversations WHERE conversation_id=?`, conversationID)
	return err
}
