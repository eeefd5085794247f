package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fudbi/fudbi/internal/server/models"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp), sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m, err := NewPostgresRepositoryManager(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var _ RepositoryManager = m
}

func TestRepositories_AllBound(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &PostgresRepositoryManager{db: db}
	r := m.Repositories()

	assert.NotNil(t, r.Users)
	assert.NotNil(t, r.Posts)
	assert.NotNil(t, r.Pickups)
	assert.NotNil(t, r.PushTokens)
	assert.NotNil(t, r.Identities)
	assert.NotNil(t, r.Sessions)
	assert.NotNil(t, r.Outbox)
}

func TestWithTx_CommitsThroughTransaction(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+entities.*ON\s+CONFLICT\s+\(pk,\s*sk\)\s+DO\s+UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := &PostgresRepositoryManager{db: db}
	err := m.WithTx(context.Background(), func(ctx context.Context, r *Repositories) error {
		return r.Outbox.Enqueue(ctx, &models.NotificationIntent{ID: "i1", Type: models.NotifyNewPost, CreatedAt: time.Now()})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	m := &PostgresRepositoryManager{db: db}
	boom := errors.New("boom")
	err := m.WithTx(context.Background(), func(ctx context.Context, r *Repositories) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPingAndClose(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectPing()
	mock.ExpectClose()

	m := &PostgresRepositoryManager{db: db}
	require.NoError(t, m.Ping(context.Background()))
	require.NoError(t, m.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{db: db}
	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{db: db}
	if err := m.RunMigrations(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestOpen_Memory(t *testing.T) {
	m, err := Open(context.Background(), MemoryDSN)
	require.NoError(t, err)
	_, ok := m.(*MemoryRepositoryManager)
	assert.True(t, ok)
}

func TestOpen_PostgresPingFails(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()

	orig := sqlOpen
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" {
			return nil, errors.New("unexpected driver")
		}
		return db, nil
	}
	defer func() { sqlOpen = orig }()

	_, err := Open(context.Background(), "postgres://localhost/fudbi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db ping error")
}
