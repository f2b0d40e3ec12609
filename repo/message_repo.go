package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/B-Mitchell/JobRecruit/db"
	"github.com/B-Mitchell/JobRecruit/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// MessageRepository interface
// ─────────────────────────────────────────────────────────────────────────────

// MessageRepository persists the append-only "messages" table. There is no
// update or delete.
type MessageRepository interface {
	// Insert appends a message. ErrProfileRequired when the sender has no
	// profile.
	Insert(ctx context.Context, params models.SendMessageParams) (*models.Message, error)
	// Conversation returns every message exchanged between a and b in either
	// direction, oldest first.
	Conversation(ctx context.Context, a, b string) ([]*models.Message, error)
	// Received returns every message addressed to recipientID, newest first.
	Received(ctx context.Context, recipientID string) ([]*models.Message, error)
}

type messageRepo struct {
	q db.Querier
}

// NewMessageRepo returns a MessageRepository backed by q.
func NewMessageRepo(q db.Querier) MessageRepository {
	return &messageRepo{q: q}
}

// ─────────────────────────────────────────────────────────────────────────────
// SQL
// ─────────────────────────────────────────────────────────────────────────────

const messageColumns = `id, sender_id, recipient_id, job_id, content, created_at`

const (
	sqlInsertMessage = `
		INSERT INTO messages (` + messageColumns + `)
		SELECT $1, external_id, $2, $3, $4, $5
		FROM   users
		WHERE  external_id = $6`

	sqlConversation = `
		SELECT ` + messageColumns + `
		FROM   messages
		WHERE  (sender_id = $1 AND recipient_id = $2)
		   OR  (sender_id = $2 AND recipient_id = $1)
		ORDER  BY created_at, id`

	sqlReceived = `
		SELECT ` + messageColumns + `
		FROM   messages
		WHERE  recipient_id = $1
		ORDER  BY created_at DESC, id DESC`
)

// ─────────────────────────────────────────────────────────────────────────────
// Insert
// ─────────────────────────────────────────────────────────────────────────────

// Insert stamps the message with a time-ordered id and the server clock.
func (r *messageRepo) Insert(ctx context.Context, p models.SendMessageParams) (*models.Message, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("repo/message: id: %w", err)
	}
	m := &models.Message{
		ID:          id.String(),
		SenderID:    p.SenderID,
		RecipientID: p.RecipientID,
		JobID:       p.JobID,
		Content:     p.Content,
		CreatedAt:   time.Now().UTC(),
	}

	res, err := r.q.Exec(ctx, sqlInsertMessage,
		m.ID, m.RecipientID, NullString(m.JobID), m.Content, m.CreatedAt, m.SenderID,
	)
	if err != nil {
		return nil, fmt.Errorf("repo/message: insert: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("repo/message: sender %s: %w", m.SenderID, ErrProfileRequired)
	}
	return m, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

func (r *messageRepo) Conversation(ctx context.Context, a, b string) ([]*models.Message, error) {
	return r.list(ctx, sqlConversation, a, b)
}

func (r *messageRepo) Received(ctx context.Context, recipientID string) ([]*models.Message, error) {
	return r.list(ctx, sqlReceived, recipientID)
}

func (r *messageRepo) list(ctx context.Context, query string, args ...any) ([]*models.Message, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repo/message: list: %w", err)
	}
	defer rows.Close()

	msgs := make([]*models.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func scanMessage(s scanner) (*models.Message, error) {
	var (
		m     models.Message
		jobID sql.NullString
	)
	if err := s.Scan(&m.ID, &m.SenderID, &m.RecipientID, &jobID, &m.Content, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("repo/message: %w", err)
	}
	m.JobID = stringPtr(jobID)
	return &m, nil
}

var _ MessageRepository = (*messageRepo)(nil)
