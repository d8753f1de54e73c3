package message

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rise_local_back_end/internal/messaging"
	"rise_local_back_end/internal/models"
	"rise_local_back_end/internal/testsuit"
)

// fakeStore keeps conversations in memory in place of Scylla.
type fakeStore struct {
	mu       sync.Mutex
	convs    []models.Conversation
	messages map[gocql.UUID][]models.Message
}

func (s *fakeStore) CreateConversation(_ context.Context, c *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs = append(s.convs, *c)
	return nil
}

func (s *fakeStore) FindConversation(_ context.Context, userID, vendorID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.convs {
		if c.UserID == userID && c.VendorID == vendorID {
			return &c, nil
		}
	}
	return nil, messaging.ErrConversationNotFound
}

func (s *fakeStore) GetConversation(_ context.Context, id gocql.UUID) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.convs {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, messaging.ErrConversationNotFound
}

func (s *fakeStore) filter(keep func(models.Conversation) bool) []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Conversation
	for _, c := range s.convs {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *fakeStore) ConversationsForUser(_ context.Context, userID string) ([]models.Conversation, error) {
	return s.filter(func(c models.Conversation) bool { return c.UserID == userID }), nil
}

func (s *fakeStore) ConversationsForVendor(_ context.Context, vendorID string) ([]models.Conversation, error) {
	return s.filter(func(c models.Conversation) bool { return c.VendorID == vendorID }), nil
}

func (s *fakeStore) AppendMessage(_ context.Context, c *models.Conversation, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[c.ID] = append(s.messages[c.ID], *m)
	return nil
}

func (s *fakeStore) Messages(_ context.Context, id gocql.UUID, _ int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages[id]...), nil
}

func TestConversationFlow(t *testing.T) {
	db := testsuit.InitSQLite()
	store := &fakeStore{messages: map[gocql.UUID][]models.Message{}}
	h := NewHandler(db, messaging.NewService(store, nil))

	r := testsuit.Router(db)
	r.GET("/api/conversations", h.Conversations)
	r.POST("/api/conversations", h.Start)
	r.GET("/api/conversations/:id/messages", h.Messages)
	r.POST("/api/conversations/:id/messages", h.Send)

	vendor := testsuit.CreateVendor(db)
	staff := testsuit.CreateStaff(db, vendor.ID)
	consumer := testsuit.CreateUser(db)
	stranger := testsuit.CreateUser(db)

	w := testsuit.Do(r, http.MethodPost, "/api/conversations", consumer.ID, map[string]string{
		"vendorId": vendor.ID,
		"body":     "Do you take reservations?",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	conv := testsuit.Decode(w)["conversation"].(map[string]interface{})
	convID := conv["id"].(string)

	w = testsuit.Do(r, http.MethodPost, "/api/conversations/"+convID+"/messages", staff.ID, map[string]string{"body": "Yes, call us"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = testsuit.Do(r, http.MethodGet, "/api/conversations/"+convID+"/messages", consumer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := testsuit.Decode(w)
	assert.EqualValues(t, 2, body["count"])
	msgs := body["messages"].([]interface{})
	assert.Equal(t, models.RoleVendor, msgs[1].(map[string]interface{})["senderRole"])

	w = testsuit.Do(r, http.MethodGet, "/api/conversations", staff.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, testsuit.Decode(w)["conversations"], 1)

	w = testsuit.Do(r, http.MethodGet, "/api/conversations/"+convID+"/messages", stranger.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testsuit.Do(r, http.MethodGet, "/api/conversations", stranger.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, testsuit.Decode(w)["conversations"], 0)
}

func TestStartValidation(t *testing.T) {
	db := testsuit.InitSQLite()
	h := NewHandler(db, messaging.NewService(&fakeStore{messages: map[gocql.UUID][]models.Message{}}, nil))
	r := testsuit.Router(db)
	r.POST("/api/conversations", h.Start)

	vendor := testsuit.CreateVendor(db)
	staff := testsuit.CreateStaff(db, vendor.ID)
	consumer := testsuit.CreateUser(db)

	w := testsuit.Do(r, http.MethodPost, "/api/conversations", consumer.ID, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testsuit.Do(r, http.MethodPost, "/api/conversations", consumer.ID, map[string]string{"vendorId": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testsuit.Do(r, http.MethodPost, "/api/conversations", staff.ID, map[string]string{"vendorId": vendor.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessagingUnavailable(t *testing.T) {
	db := testsuit.InitSQLite()
	h := NewHandler(db, messaging.NewService(nil, nil))
	r := testsuit.Router(db)
	r.GET("/api/conversations", h.Conversations)

	w := testsuit.Do(r, http.MethodGet, "/api/conversations", testsuit.CreateUser(db).ID, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
