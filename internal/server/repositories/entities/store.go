// Package entities is the single-table store every repository writes to.
// Records are addressed by a (pk, sk) composite key, carry up to two
// secondary index key pairs, an owner id and a JSON attribute document.
package entities

import (
	"context"
	"encoding/json"
	"fmt"
)

type Index int

const (
	IndexPrimary Index = iota
	IndexGSI1
	IndexGSI2
)

type Entity struct {
	PK         string
	SK         string
	EntityType string
	GSI1PK     string
	GSI1SK     string
	GSI2PK     string
	GSI2SK     string
	OwnerID    string
	Data       json.RawMessage
}

// Condition guards an Update: the attribute's string form must equal Equals.
// A missing attribute compares as "".
type Condition struct {
	Attr   string
	Equals string
}

// Query selects records from one partition of an index whose sort key starts
// with SKPrefix.
type Query struct {
	Index      Index
	PK         string
	SKPrefix   string
	Filter     *Condition
	Descending bool
	Limit      int
}

type Store interface {
	Put(ctx context.Context, e *Entity) error
	// PutIfAbsent fails with common.ErrorAlreadyExists if the key is taken.
	PutIfAbsent(ctx context.Context, e *Entity) error
	Get(ctx context.Context, pk, sk string) (*Entity, error)
	// Update merges changes into the attribute document. A nil value stores
	// JSON null. Fails with common.ErrorNotFound for a missing key and
	// common.ErrConditionFailed when cond does not hold.
	Update(ctx context.Context, pk, sk string, changes map[string]any, cond *Condition) error
	Delete(ctx context.Context, pk, sk string) error
	Query(ctx context.Context, q Query) ([]*Entity, error)
	// ScanByOwner walks the whole table; it does not scale.
	ScanByOwner(ctx context.Context, ownerID, entityType string) ([]*Entity, error)
	Scan(ctx context.Context, entityTypes ...string) ([]*Entity, error)
	Ping(ctx context.Context) error
}

// Encode builds an entity around v's JSON form.
func Encode(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	return b, nil
}

func (e *Entity) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s %s/%s: %w", e.EntityType, e.PK, e.SK, err)
	}
	return nil
}

func (e *Entity) indexKeys(idx Index) (string, string) {
	switch idx {
	case IndexGSI1:
		return e.GSI1PK, e.GSI1SK
	case IndexGSI2:
		return e.GSI2PK, e.GSI2SK
	default:
		return e.PK, e.SK
	}
}

// DecodeAll decodes every entity's document into a fresh T.
func DecodeAll[T any](es []*Entity) ([]*T, error) {
	out := make([]*T, 0, len(es))
	for _, e := range es {
		v := new(T)
		if err := e.Decode(v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
