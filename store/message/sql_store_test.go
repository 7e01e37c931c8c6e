package message

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const messageColumns = "id, sender_id, receiver_id, conversation_id, content, edited, created_at, updated_at"

func messageRows(msgs ...*Message) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "sender_id", "receiver_id", "conversation_id", "content", "edited", "created_at", "updated_at"})
	for _, m := range msgs {
		rows.AddRow(m.ID, m.SenderID, m.ReceiverID, m.ConversationID, m.Content, m.Edited, m.CreatedAt, m.UpdatedAt)
	}
	return rows
}

func TestCreateGeneratesIDAndTimestamps(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO messages").
		WithArgs(sqlmock.AnyArg(), "u1", "u2", "u1_u2", "hi", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewSQLStore(db)
	msg := &Message{
		SenderID:       "u1",
		ReceiverID:     "u2",
		ConversationID: ConversationID("u1", "u2"),
		Content:        "hi",
	}

	if err := store.Create(context.Background(), msg); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if msg.ID == "" {
		t.Error("expected generated id")
	}
	if msg.CreatedAt.IsZero() || msg.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT " + messageColumns).
		WithArgs("missing").
		WillReturnRows(messageRows())

	store := NewSQLStore(db)
	if _, err := store.Get(context.Background(), "missing"); err != ErrMessageNotFound {
		t.Errorf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestUpdateContentReturnsUpdatedRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	now := time.Now()
	updated := &Message{
		ID: "m1", SenderID: "u1", ReceiverID: "u2", ConversationID: "u1_u2",
		Content: "fixed", Edited: true, CreatedAt: now.Add(-time.Hour), UpdatedAt: now,
	}

	mock.ExpectQuery("UPDATE messages").
		WithArgs("m1", "fixed", sqlmock.AnyArg()).
		WillReturnRows(messageRows(updated))

	store := NewSQLStore(db)
	got, err := store.UpdateContent(context.Background(), "m1", "fixed")
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if !got.Edited || got.Content != "fixed" {
		t.Errorf("expected edited record, got %+v", got)
	}
}

func TestUpdateContentNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("UPDATE messages").
		WithArgs("missing", "x", sqlmock.AnyArg()).
		WillReturnRows(messageRows())

	store := NewSQLStore(db)
	if _, err := store.UpdateContent(context.Background(), "missing", "x"); err != ErrMessageNotFound {
		t.Errorf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec("DELETE FROM messages").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewSQLStore(db)
	if err := store.Delete(context.Background(), "missing"); err != ErrMessageNotFound {
		t.Errorf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec("DELETE FROM messages").
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewSQLStore(db)
	if err := store.Delete(context.Background(), "m1"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestListByConversation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	now := time.Now()
	first := &Message{ID: "m1", SenderID: "u1", ReceiverID: "u2", ConversationID: "u1_u2",
		Content: "hello", CreatedAt: now.Add(-time.Minute), UpdatedAt: now.Add(-time.Minute)}
	second := &Message{ID: "m2", SenderID: "u2", ReceiverID: "u1", ConversationID: "u1_u2",
		Content: "hey", CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery("SELECT " + messageColumns).
		WithArgs("u1_u2").
		WillReturnRows(messageRows(first, second))

	store := NewSQLStore(db)
	msgs, err := store.ListByConversation(context.Background(), "u1_u2")
	if err != nil {
		t.Fatalf("ListByConversation: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("unexpected order: %s, %s", msgs[0].ID, msgs[1].ID)
	}
}
