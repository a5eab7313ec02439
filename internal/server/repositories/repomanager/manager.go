// Package repomanager assembles the repositories used by the development
// API. Accounts, codes and properties always live in memory; refresh tokens
// move to PostgreSQL when a DSN is configured.
package repomanager

import (
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/otps"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/properties"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/leasekeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	OTPs() otps.Repository
	Properties() properties.Repository
	Close() error
}

type baseManager struct {
	users         users.Repository
	refreshTokens refreshtokens.Repository
	otps          otps.Repository
	properties    properties.Repository
}

func (m *baseManager) Users() users.Repository                 { return m.users }
func (m *baseManager) RefreshTokens() refreshtokens.Repository { return m.refreshTokens }
func (m *baseManager) OTPs() otps.Repository                   { return m.otps }
func (m *baseManager) Properties() properties.Repository       { return m.properties }

func newBase() baseManager {
	return baseManager{
		users:         users.NewMemoryRepository(),
		refreshTokens: refreshtokens.NewMemoryRepository(),
		otps:          otps.NewMemoryRepository(),
		properties:    properties.NewMemoryRepository(),
	}
}

// InMemoryRepositoryManager keeps every repository in process memory.
type InMemoryRepositoryManager struct {
	baseManager
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{baseManager: newBase()}
}

func (m *InMemoryRepositoryManager) Close() error { return nil }
