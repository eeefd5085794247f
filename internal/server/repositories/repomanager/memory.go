package repomanager

import (
	"context"

	"github.com/fudbi/fudbi/internal/server/repositories/entities"
)

// MemoryRepositoryManager keeps everything in process. Nothing survives a
// restart.
type MemoryRepositoryManager struct {
	store *entities.MemoryStore
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: entities.NewMemoryStore()}
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }

func (m *MemoryRepositoryManager) Repositories() *Repositories {
	return NewRepositories(m.store)
}

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r *Repositories) error) error {
	return m.store.Transact(ctx, func(ctx context.Context, s entities.Store) error {
		return fn(ctx, NewRepositories(s))
	})
}

func (m *MemoryRepositoryManager) Ping(ctx context.Context) error { return m.store.Ping(ctx) }

func (m *MemoryRepositoryManager) Close() error { return nil }
