package message

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// SQLStore implements Store using a database/sql connection.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	if msg.UpdatedAt.IsZero() {
		msg.UpdatedAt = now
	}

	query := `
		INSERT INTO messages (id, sender_id, receiver_id, conversation_id, content, edited, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.ConversationID,
		msg.Content, msg.Edited, msg.CreatedAt, msg.UpdatedAt)
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, conversation_id, content, edited, created_at, updated_at
		FROM messages
		WHERE id = $1
	`

	row := s.db.QueryRowContext(ctx, query, id)
	return scanMessage(row)
}

func (s *SQLStore) UpdateContent(ctx context.Context, id, content string) (*Message, error) {
	query := `
		UPDATE messages
		SET content = $2, edited = TRUE, updated_at = $3
		WHERE id = $1
		RETURNING id, sender_id, receiver_id, conversation_id, content, edited, created_at, updated_at
	`

	row := s.db.QueryRowContext(ctx, query, id, content, time.Now())
	return scanMessage(row)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (s *SQLStore) ListByConversation(ctx context.Context, conversationID string) ([]*Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, conversation_id, content, edited, created_at, updated_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var msgs []*Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.ConversationID,
			&msg.Content, &msg.Edited, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return msgs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*Message, error) {
	var msg Message
	if err := row.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.ConversationID,
		&msg.Content, &msg.Edited, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}
