// Package otps keeps pending password-reset codes.
package otps

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
)

// Repository holds at most one pending code per email.
type Repository interface {
	// Put stores otp, replacing any code previously issued for the email.
	Put(ctx context.Context, otp *models.OTP) error
	// Get returns common.ErrNotFound when no code is pending.
	Get(ctx context.Context, email string) (*models.OTP, error)
	// MarkVerified flags the pending code as confirmed.
	MarkVerified(ctx context.Context, email string) error
	// Delete drops the pending code, if any.
	Delete(ctx context.Context, email string) error
}

type MemoryRepository struct {
	mu    sync.Mutex
	codes map[string]models.OTP
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{codes: make(map[string]models.OTP)}
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *MemoryRepository) Put(ctx context.Context, otp *models.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[key(otp.Email)] = *otp
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, email string) (*models.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	otp, ok := r.codes[key(email)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &otp, nil
}

func (r *MemoryRepository) MarkVerified(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	otp, ok := r.codes[key(email)]
	if !ok {
		return common.ErrNotFound
	}
	otp.Verified = true
	r.codes[key(email)] = otp
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, key(email))
	return nil
}
