package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/B-Mitchell/JobRecruit/models"
)

// Messages sends messages and builds conversation and inbox views.
type Messages struct{ *deps }

// Send appends a message from the caller. Content is trimmed and must not
// be empty; the recipient must differ from the sender but need not have a
// profile yet.
func (s *Messages) Send(ctx context.Context, callerID string, p models.SendMessageParams) (*models.Message, error) {
	p.SenderID = callerID
	p.RecipientID = strings.TrimSpace(p.RecipientID)
	p.Content = strings.TrimSpace(p.Content)
	if p.JobID != nil && strings.TrimSpace(*p.JobID) == "" {
		p.JobID = nil
	}
	if err := check(s.validate, p); err != nil {
		return nil, err
	}

	m, err := s.repos.Messages.Insert(ctx, p)
	if err != nil {
		return nil, translate(err)
	}
	return m, nil
}

// Conversation returns every message between the caller and counterpart,
// oldest first.
func (s *Messages) Conversation(ctx context.Context, callerID, counterpart string) ([]*models.Message, error) {
	counterpart = strings.TrimSpace(counterpart)
	if counterpart == "" {
		return nil, invalid("counterpart is required")
	}
	return s.repos.Messages.Conversation(ctx, callerID, counterpart)
}

// Inbox returns one entry per sender who has written to the caller, carrying
// that sender's latest message, newest entry first. Sender names are resolved
// in one batch; a sender without a profile is shown by raw identity id.
func (s *Messages) Inbox(ctx context.Context, callerID string) ([]models.InboxEntry, error) {
	received, err := s.repos.Messages.Received(ctx, callerID)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*models.Message)
	for _, m := range received {
		if cur, ok := latest[m.SenderID]; !ok || m.Later(cur) {
			latest[m.SenderID] = m
		}
	}
	senders := make([]string, 0, len(latest))
	for id := range latest {
		senders = append(senders, id)
	}

	names, err := s.repos.Profiles.DisplayNames(ctx, senders)
	if err != nil {
		return nil, fmt.Errorf("service: inbox names: %w", err)
	}

	entries := make([]models.InboxEntry, 0, len(latest))
	for _, id := range senders {
		name, ok := names[id]
		if !ok || name == "" {
			name = id
		}
		m := latest[id]
		entries = append(entries, models.InboxEntry{
			SenderID:    id,
			SenderName:  name,
			LastMessage: m,
			UpdatedAt:   m.CreatedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastMessage.Later(entries[j].LastMessage)
	})
	return entries, nil
}
