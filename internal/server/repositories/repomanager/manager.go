package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fudbi/fudbi/internal/server/repositories/entities"
	"github.com/fudbi/fudbi/internal/server/repositories/identities"
	"github.com/fudbi/fudbi/internal/server/repositories/outbox"
	"github.com/fudbi/fudbi/internal/server/repositories/pickups"
	"github.com/fudbi/fudbi/internal/server/repositories/posts"
	"github.com/fudbi/fudbi/internal/server/repositories/pushtokens"
	"github.com/fudbi/fudbi/internal/server/repositories/sessions"
	"github.com/fudbi/fudbi/internal/server/repositories/users"
)

// MemoryDSN selects the in-process store.
const MemoryDSN = "memory://"

// Repositories is one consistent set of repositories over a single store
// handle, transactional or not.
type Repositories struct {
	Users      users.Repository
	Posts      posts.Repository
	Pickups    pickups.Repository
	PushTokens pushtokens.Repository
	Identities identities.Repository
	Sessions   sessions.Repository
	Outbox     outbox.Repository
}

func NewRepositories(store entities.Store) *Repositories {
	return &Repositories{
		Users:      users.NewRepository(store),
		Posts:      posts.NewRepository(store),
		Pickups:    pickups.NewRepository(store),
		PushTokens: pushtokens.NewRepository(store),
		Identities: identities.NewRepository(store),
		Sessions:   sessions.NewRepository(store),
		Outbox:     outbox.NewRepository(store),
	}
}

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Repositories() *Repositories
	// WithTx runs fn against repositories bound to one transaction. Any error
	// returned by fn undoes every write made through them.
	WithTx(ctx context.Context, fn func(ctx context.Context, r *Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}

var sqlOpen = sql.Open

// Open returns the manager for dsn: the in-memory store for MemoryDSN,
// PostgreSQL otherwise.
func Open(ctx context.Context, dsn string) (RepositoryManager, error) {
	if dsn == "" || strings.HasPrefix(dsn, MemoryDSN) {
		return NewMemoryRepositoryManager(), nil
	}

	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return NewPostgresRepositoryManager(db)
}
