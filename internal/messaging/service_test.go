package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rise_local_back_end/internal/models"
)

type memStore struct {
	mu       sync.Mutex
	convs    map[gocql.UUID]*models.Conversation
	messages map[gocql.UUID][]models.Message
}

func newMemStore() *memStore {
	return &memStore{
		convs:    map[gocql.UUID]*models.Conversation{},
		messages: map[gocql.UUID][]models.Message{},
	}
}

func (s *memStore) CreateConversation(_ context.Context, c *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.convs[c.ID] = &cp
	return nil
}

func (s *memStore) FindConversation(_ context.Context, userID, vendorID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.convs {
		if c.UserID == userID && c.VendorID == vendorID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrConversationNotFound
}

func (s *memStore) GetConversation(_ context.Context, id gocql.UUID) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) list(match func(*models.Conversation) bool) []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Conversation
	for _, c := range s.convs {
		if match(c) {
			out = append(out, *c)
		}
	}
	return out
}

func (s *memStore) ConversationsForUser(_ context.Context, userID string) ([]models.Conversation, error) {
	return s.list(func(c *models.Conversation) bool { return c.UserID == userID }), nil
}

func (s *memStore) ConversationsForVendor(_ context.Context, vendorID string) ([]models.Conversation, error) {
	return s.list(func(c *models.Conversation) bool { return c.VendorID == vendorID }), nil
}

func (s *memStore) AppendMessage(_ context.Context, c *models.Conversation, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[c.ID] = append(s.messages[c.ID], *m)
	s.convs[c.ID].LastMessageAt = m.SentAt
	return nil
}

func (s *memStore) Messages(_ context.Context, id gocql.UUID, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[id]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]models.Message(nil), msgs...), nil
}

type recordingPublisher struct {
	channels []string
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, _ *models.Message) error {
	p.channels = append(p.channels, channel)
	return nil
}

func newTestService() (*Service, *recordingPublisher) {
	pub := &recordingPublisher{}
	svc := NewService(newMemStore(), pub)
	t0 := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		t0 = t0.Add(time.Second)
		return t0
	}
	return svc, pub
}

func TestStartIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Start(ctx, "u1", "v1")
	require.NoError(t, err)
	b, err := svc.Start(ctx, "u1", "v1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
}

func TestSendDeliversToOtherSide(t *testing.T) {
	svc, pub := newTestService()
	ctx := context.Background()
	conv, err := svc.Start(ctx, "u1", "v1")
	require.NoError(t, err)

	consumer := Participant{UserID: "u1"}
	staff := Participant{UserID: "s1", VendorID: "v1"}

	m, err := svc.Send(ctx, consumer, conv.ID.String(), "  Is the patio open?  ")
	require.NoError(t, err)
	assert.Equal(t, "Is the patio open?", m.Body)
	assert.Equal(t, models.RoleConsumer, m.SenderRole)

	_, err = svc.Send(ctx, staff, conv.ID.String(), "Yes, until 9pm")
	require.NoError(t, err)
	assert.Equal(t, []string{VendorChannel("v1"), UserChannel("u1")}, pub.channels)

	msgs, err := svc.Messages(ctx, staff, conv.ID.String(), 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleVendor, msgs[1].SenderRole)
}

func TestOnlyParticipantsMayAccess(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	conv, err := svc.Start(ctx, "u1", "v1")
	require.NoError(t, err)

	_, err = svc.Send(ctx, Participant{UserID: "u2"}, conv.ID.String(), "hi")
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = svc.Messages(ctx, Participant{UserID: "s2", VendorID: "v2"}, conv.ID.String(), 10)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = svc.Messages(ctx, Participant{UserID: "u1"}, "not-a-uuid", 10)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestSendValidatesBody(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	conv, err := svc.Start(ctx, "u1", "v1")
	require.NoError(t, err)

	_, err = svc.Send(ctx, Participant{UserID: "u1"}, conv.ID.String(), "   ")
	assert.ErrorIs(t, err, ErrEmptyBody)

	long := make([]rune, MaxBodyLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Send(ctx, Participant{UserID: "u1"}, conv.ID.String(), string(long))
	assert.ErrorIs(t, err, ErrBodyTooLong)
}

func TestConversationsNewestFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	first, err := svc.Start(ctx, "u1", "v1")
	require.NoError(t, err)
	second, err := svc.Start(ctx, "u1", "v2")
	require.NoError(t, err)

	_, err = svc.Send(ctx, Participant{UserID: "u1"}, first.ID.String(), "bump")
	require.NoError(t, err)

	got, err := svc.Conversations(ctx, Participant{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
}

func TestUnavailableWithoutStore(t *testing.T) {
	svc := NewService(nil, nil)
	_, err := svc.Start(context.Background(), "u1", "v1")
	assert.ErrorIs(t, err, ErrUnavailable)
}
