package entities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/dbx"
)

const entityColumns = `pk, sk, entity_type, gsi1pk, gsi1sk, gsi2pk, gsi2sk, owner_id, data`

// PostgresStore keeps entities in the "entities" table. It works on either a
// *sql.DB or a *sql.Tx.
type PostgresStore struct {
	db dbx.DBTX
}

func NewPostgresStore(db dbx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Put(ctx context.Context, e *Entity) error {
	query :=
		`INSERT INTO entities (pk, sk, entity_type, gsi1pk, gsi1sk, gsi2pk, gsi2sk, owner_id, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (pk, sk) DO UPDATE SET
		   entity_type = EXCLUDED.entity_type,
		   gsi1pk = EXCLUDED.gsi1pk, gsi1sk = EXCLUDED.gsi1sk,
		   gsi2pk = EXCLUDED.gsi2pk, gsi2sk = EXCLUDED.gsi2sk,
		   owner_id = EXCLUDED.owner_id, data = EXCLUDED.data,
		   updated_at = now()
		 `
	_, err := s.db.ExecContext(ctx, query, e.PK, e.SK, e.EntityType,
		e.GSI1PK, e.GSI1SK, e.GSI2PK, e.GSI2SK, e.OwnerID, []byte(e.Data))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) PutIfAbsent(ctx context.Context, e *Entity) error {
	query :=
		`INSERT INTO entities (pk, sk, entity_type, gsi1pk, gsi1sk, gsi2pk, gsi2sk, owner_id, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (pk, sk) DO NOTHING
		 `
	res, err := s.db.ExecContext(ctx, query, e.PK, e.SK, e.EntityType,
		e.GSI1PK, e.GSI1SK, e.GSI2PK, e.GSI2SK, e.OwnerID, []byte(e.Data))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, pk, sk string) (*Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE pk = $1 AND sk = $2`

	e, err := scanEntity(s.db.QueryRowContext(ctx, query, pk, sk))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) Update(ctx context.Context, pk, sk string, changes map[string]any, cond *Condition) error {
	patch, err := Encode(changes)
	if err != nil {
		return err
	}

	query := `UPDATE entities SET data = data || $3::jsonb, updated_at = now() WHERE pk = $1 AND sk = $2`
	args := []any{pk, sk, []byte(patch)}
	if cond != nil {
		query += ` AND COALESCE(data->>$4, '') = $5`
		args = append(args, cond.Attr, cond.Equals)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if cond == nil {
		return common.ErrorNotFound
	}

	// Zero rows under a condition: tell a missing key from a failed guard.
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM entities WHERE pk = $1 AND sk = $2`, pk, sk).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return common.ErrConditionFailed
}

func (s *PostgresStore) Delete(ctx context.Context, pk, sk string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE pk = $1 AND sk = $2`, pk, sk)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, q Query) ([]*Entity, error) {
	pkCol, skCol := indexColumns(q.Index)

	var sb strings.Builder
	sb.WriteString(`SELECT ` + entityColumns + ` FROM entities WHERE ` + pkCol + ` = $1 AND starts_with(` + skCol + `, $2)`)
	args := []any{q.PK, q.SKPrefix}
	if q.Filter != nil {
		fmt.Fprintf(&sb, ` AND COALESCE(data->>$%d, '') = $%d`, len(args)+1, len(args)+2)
		args = append(args, q.Filter.Attr, q.Filter.Equals)
	}
	sb.WriteString(` ORDER BY ` + skCol)
	if q.Descending {
		sb.WriteString(` DESC`)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args)+1)
		args = append(args, q.Limit)
	}

	return s.queryEntities(ctx, sb.String(), args...)
}

func (s *PostgresStore) ScanByOwner(ctx context.Context, ownerID, entityType string) ([]*Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE owner_id = $1 AND entity_type = $2 ORDER BY pk, sk`
	return s.queryEntities(ctx, query, ownerID, entityType)
}

func (s *PostgresStore) Scan(ctx context.Context, entityTypes ...string) ([]*Entity, error) {
	if len(entityTypes) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(entityTypes))
	args := make([]any, len(entityTypes))
	for i, t := range entityTypes {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = t
	}
	query := `SELECT ` + entityColumns + ` FROM entities WHERE entity_type IN (` +
		strings.Join(placeholders, ", ") + `) ORDER BY pk, sk`
	return s.queryEntities(ctx, query, args...)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) queryEntities(ctx context.Context, query string, args ...any) ([]*Entity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(r rowScanner) (*Entity, error) {
	e := &Entity{}
	var data []byte
	if err := r.Scan(&e.PK, &e.SK, &e.EntityType, &e.GSI1PK, &e.GSI1SK,
		&e.GSI2PK, &e.GSI2SK, &e.OwnerID, &data); err != nil {
		return nil, err
	}
	e.Data = data
	return e, nil
}

func indexColumns(idx Index) (string, string) {
	switch idx {
	case IndexGSI1:
		return "gsi1pk", "gsi1sk"
	case IndexGSI2:
		return "gsi2pk", "gsi2sk"
	default:
		return "pk", "sk"
	}
}
