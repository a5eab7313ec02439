// Package properties lists the rental properties owned by an account.
package properties

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
)

type Repository interface {
	// Add stores p under p.OwnerID.
	Add(ctx context.Context, p models.Property) error
	// ListByOwner returns the owner's properties ordered by name. An owner
	// with no properties gets an empty, non-nil slice.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Property, error)
}

type MemoryRepository struct {
	mu      sync.RWMutex
	byOwner map[string][]models.Property
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byOwner: make(map[string][]models.Property)}
}

func (r *MemoryRepository) Add(ctx context.Context, p models.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOwner[p.OwnerID] = append(r.byOwner[p.OwnerID], p)
	return nil
}

func (r *MemoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	r.mu.RLock()
	out := append([]models.Property{}, r.byOwner[ownerID]...)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
