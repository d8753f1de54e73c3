package cart

import (
	"context"
	"sync"
)

type Repository interface {
	Load(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, userID string) error
}

// MemoryRepository keeps carts in process; used when Redis is not
// configured and in tests.
type MemoryRepository struct {
	mu    sync.Mutex
	carts map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string][]byte)}
}

func (r *MemoryRepository) Load(_ context.Context, userID string) (*Cart, error) {
	r.mu.Lock()
	data, ok := r.carts[userID]
	r.mu.Unlock()
	if !ok {
		return New(userID), nil
	}
	return decode(userID, data)
}

func (r *MemoryRepository) Save(_ context.Context, c *Cart) error {
	data, err := encode(c)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.carts[c.UserID] = data
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	delete(r.carts, userID)
	r.mu.Unlock()
	return nil
}
