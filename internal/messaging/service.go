// Package messaging carries consumer-to-vendor conversations. History
// lives in Scylla; live delivery goes through Redis pub/sub.
package messaging

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"rise_local_back_end/internal/models"
)

const (
	MaxBodyLength   = 2000
	DefaultPageSize = 50
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("not a participant of this conversation")
	ErrEmptyBody            = errors.New("message body is required")
	ErrBodyTooLong          = errors.New("message body is too long")
	ErrUnavailable          = errors.New("messaging is not available")
)

type Store interface {
	CreateConversation(ctx context.Context, c *models.Conversation) error
	FindConversation(ctx context.Context, userID, vendorID string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id gocql.UUID) (*models.Conversation, error)
	ConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error)
	ConversationsForVendor(ctx context.Context, vendorID string) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, c *models.Conversation, m *models.Message) error
	Messages(ctx context.Context, conversationID gocql.UUID, limit int) ([]models.Message, error)
}

type Publisher interface {
	Publish(ctx context.Context, channel string, m *models.Message) error
}

// Participant is the caller as seen by messaging: a consumer, or vendor
// staff speaking for VendorID.
type Participant struct {
	UserID   string
	VendorID string
}

func (p Participant) Role() string {
	if p.VendorID != "" {
		return models.RoleVendor
	}
	return models.RoleConsumer
}

func (p Participant) canAccess(c *models.Conversation) bool {
	if p.VendorID != "" && c.VendorID == p.VendorID {
		return true
	}
	return c.UserID == p.UserID
}

type Service struct {
	store Store
	pub   Publisher
	now   func() time.Time
}

func NewService(store Store, pub Publisher) *Service {
	return &Service{store: store, pub: pub, now: time.Now}
}

// Start returns the conversation between userID and vendorID, creating it
// on first contact.
func (s *Service) Start(ctx context.Context, userID, vendorID string) (*models.Conversation, error) {
	if s.store == nil {
		return nil, ErrUnavailable
	}
	existing, err := s.store.FindConversation(ctx, userID, vendorID)
	if err != nil && !errors.Is(err, ErrConversationNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := s.now().UTC()
	c := &models.Conversation{
		ID:            gocql.TimeUUID(),
		UserID:        userID,
		VendorID:      vendorID,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	if err := s.store.CreateConversation(ctx, c); err != nil {
		return nil, err
	}
	log.Info().Str("conversation_id", c.ID.String()).Str("vendor_id", vendorID).Msg("💬 Conversation started")
	return c, nil
}

func (s *Service) Conversations(ctx context.Context, p Participant) ([]models.Conversation, error) {
	if s.store == nil {
		return nil, ErrUnavailable
	}
	var (
		out []models.Conversation
		err error
	)
	if p.VendorID != "" {
		out, err = s.store.ConversationsForVendor(ctx, p.VendorID)
	} else {
		out, err = s.store.ConversationsForUser(ctx, p.UserID)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (s *Service) Messages(ctx context.Context, p Participant, conversationID string, limit int) ([]models.Message, error) {
	c, err := s.authorize(ctx, p, conversationID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = DefaultPageSize
	}
	return s.store.Messages(ctx, c.ID, limit)
}

// Send stores a message and pushes it to the other side's live channel.
func (s *Service) Send(ctx context.Context, p Participant, conversationID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if len([]rune(body)) > MaxBodyLength {
		return nil, ErrBodyTooLong
	}

	c, err := s.authorize(ctx, p, conversationID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	m := &models.Message{
		ID:             gocql.UUIDFromTime(now),
		ConversationID: c.ID,
		SenderID:       p.UserID,
		SenderRole:     p.Role(),
		Body:           body,
		SentAt:         now,
	}
	if err := s.store.AppendMessage(ctx, c, m); err != nil {
		return nil, err
	}

	if s.pub != nil {
		recipient := VendorChannel(c.VendorID)
		if p.Role() == models.RoleVendor {
			recipient = UserChannel(c.UserID)
		}
		if err := s.pub.Publish(ctx, recipient, m); err != nil {
			log.Warn().Err(err).Str("conversation_id", c.ID.String()).Msg("⚠️ Live delivery failed")
		}
	}
	return m, nil
}

func (s *Service) authorize(ctx context.Context, p Participant, conversationID string) (*models.Conversation, error) {
	if s.store == nil {
		return nil, ErrUnavailable
	}
	id, err := gocql.ParseUUID(conversationID)
	if err != nil {
		return nil, ErrConversationNotFound
	}
	c, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.canAccess(c) {
		return nil, ErrNotParticipant
	}
	return c, nil
}
