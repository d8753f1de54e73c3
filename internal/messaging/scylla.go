package messaging

import (
	"context"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"

	"rise_local_back_end/internal/models"
)

// ScyllaStore keeps each conversation denormalized in three tables: by id,
// by user and by vendor. Messages are clustered newest first.
type ScyllaStore struct {
	session *gocql.Session
}

func NewScyllaStore(session *gocql.Session) *ScyllaStore {
	return &ScyllaStore{session: session}
}

func (s *ScyllaStore) CreateConversation(ctx context.Context, c *models.Conversation) error {
	b := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query(`INSERT INTO conversations (conversation_id, user_id, vendor_id, created_at, last_message_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.VendorID, c.CreatedAt, c.LastMessageAt)
	b.Query(`INSERT INTO conversations_by_user (user_id, conversation_id, vendor_id, created_at, last_message_at) VALUES (?, ?, ?, ?, ?)`,
		c.UserID, c.ID, c.VendorID, c.CreatedAt, c.LastMessageAt)
	b.Query(`INSERT INTO conversations_by_vendor (vendor_id, conversation_id, user_id, created_at, last_message_at) VALUES (?, ?, ?, ?, ?)`,
		c.VendorID, c.ID, c.UserID, c.CreatedAt, c.LastMessageAt)
	return errors.Wrap(s.session.ExecuteBatch(b), "create conversation")
}

func (s *ScyllaStore) FindConversation(ctx context.Context, userID, vendorID string) (*models.Conversation, error) {
	convs, err := s.ConversationsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if convs[i].VendorID == vendorID {
			return &convs[i], nil
		}
	}
	return nil, ErrConversationNotFound
}

func (s *ScyllaStore) GetConversation(ctx context.Context, id gocql.UUID) (*models.Conversation, error) {
	c := models.Conversation{ID: id}
	err := s.session.Query(`SELECT user_id, vendor_id, created_at, last_message_at FROM conversations WHERE conversation_id = ?`, id).
		WithContext(ctx).
		Scan(&c.UserID, &c.VendorID, &c.CreatedAt, &c.LastMessageAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load conversation")
	}
	return &c, nil
}

func (s *ScyllaStore) ConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	iter := s.session.Query(`SELECT conversation_id, vendor_id, created_at, last_message_at FROM conversations_by_user WHERE user_id = ?`, userID).
		WithContext(ctx).Iter()

	var (
		out []models.Conversation
		c   = models.Conversation{UserID: userID}
	)
	for iter.Scan(&c.ID, &c.VendorID, &c.CreatedAt, &c.LastMessageAt) {
		out = append(out, c)
	}
	return out, errors.Wrap(iter.Close(), "list user conversations")
}

func (s *ScyllaStore) ConversationsForVendor(ctx context.Context, vendorID string) ([]models.Conversation, error) {
	iter := s.session.Query(`SELECT conversation_id, user_id, created_at, last_message_at FROM conversations_by_vendor WHERE vendor_id = ?`, vendorID).
		WithContext(ctx).Iter()

	var (
		out []models.Conversation
		c   = models.Conversation{VendorID: vendorID}
	)
	for iter.Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.LastMessageAt) {
		out = append(out, c)
	}
	return out, errors.Wrap(iter.Close(), "list vendor conversations")
}

// AppendMessage writes the message and bumps last_message_at in all three
// conversation tables.
func (s *ScyllaStore) AppendMessage(ctx context.Context, c *models.Conversation, m *models.Message) error {
	b := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	b.Query(`INSERT INTO messages_by_conversation (conversation_id, message_id, sender_id, sender_role, body, sent_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ConversationID, m.ID, m.SenderID, m.SenderRole, m.Body, m.SentAt)
	b.Query(`UPDATE conversations SET last_message_at = ? WHERE conversation_id = ?`, m.SentAt, c.ID)
	b.Query(`UPDATE conversations_by_user SET last_message_at = ? WHERE user_id = ? AND conversation_id = ?`, m.SentAt, c.UserID, c.ID)
	b.Query(`UPDATE conversations_by_vendor SET last_message_at = ? WHERE vendor_id = ? AND conversation_id = ?`, m.SentAt, c.VendorID, c.ID)
	if err := s.session.ExecuteBatch(b); err != nil {
		return errors.Wrap(err, "append message")
	}
	c.LastMessageAt = m.SentAt
	return nil
}

func (s *ScyllaStore) Messages(ctx context.Context, conversationID gocql.UUID, limit int) ([]models.Message, error) {
	iter := s.session.Query(`SELECT message_id, sender_id, sender_role, body, sent_at FROM messages_by_conversation WHERE conversation_id = ? LIMIT ?`, conversationID, limit).
		WithContext(ctx).Iter()

	var (
		out []models.Message
		m   = models.Message{ConversationID: conversationID}
	)
	for iter.Scan(&m.ID, &m.SenderID, &m.SenderRole, &m.Body, &m.SentAt) {
		out = append(out, m)
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	// Stored newest first; callers read oldest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
