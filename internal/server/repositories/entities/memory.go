package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fudbi/fudbi/internal/common"
)

type entityKey struct{ pk, sk string }

// MemoryStore is an in-process Store used for local runs and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[entityKey]*Entity
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[entityKey]*Entity)}
}

// Transact runs fn against a view of the store that holds the write lock for
// the whole call. If fn returns an error or panics every change is undone.
func (m *MemoryStore) Transact(ctx context.Context, fn func(ctx context.Context, s Store) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := maps.Clone(m.data)
	defer func() {
		if p := recover(); p != nil {
			m.data = snapshot
			panic(p)
		}
		if err != nil {
			m.data = snapshot
		}
	}()

	return fn(ctx, &memoryTx{m: m})
}

func (m *MemoryStore) Put(ctx context.Context, e *Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(e)
}

func (m *MemoryStore) PutIfAbsent(ctx context.Context, e *Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putIfAbsent(e)
}

func (m *MemoryStore) Get(ctx context.Context, pk, sk string) (*Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(pk, sk)
}

func (m *MemoryStore) Update(ctx context.Context, pk, sk string, changes map[string]any, cond *Condition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.update(pk, sk, changes, cond)
}

func (m *MemoryStore) Delete(ctx context.Context, pk, sk string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, entityKey{pk, sk})
	return nil
}

func (m *MemoryStore) Query(ctx context.Context, q Query) ([]*Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.query(q)
}

func (m *MemoryStore) ScanByOwner(ctx context.Context, ownerID, entityType string) ([]*Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scan(func(e *Entity) bool {
		return e.OwnerID == ownerID && e.EntityType == entityType
	}), nil
}

func (m *MemoryStore) Scan(ctx context.Context, entityTypes ...string) ([]*Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scan(func(e *Entity) bool {
		return slices.Contains(entityTypes, e.EntityType)
	}), nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) put(e *Entity) error {
	m.data[entityKey{e.PK, e.SK}] = clone(e)
	return nil
}

func (m *MemoryStore) putIfAbsent(e *Entity) error {
	if _, ok := m.data[entityKey{e.PK, e.SK}]; ok {
		return common.ErrorAlreadyExists
	}
	return m.put(e)
}

func (m *MemoryStore) get(pk, sk string) (*Entity, error) {
	e, ok := m.data[entityKey{pk, sk}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(e), nil
}

func (m *MemoryStore) update(pk, sk string, changes map[string]any, cond *Condition) error {
	e, ok := m.data[entityKey{pk, sk}]
	if !ok {
		return common.ErrorNotFound
	}
	doc, err := attributes(e)
	if err != nil {
		return err
	}
	if cond != nil && attrString(doc[cond.Attr]) != cond.Equals {
		return common.ErrConditionFailed
	}
	patch, err := Encode(changes)
	if err != nil {
		return err
	}
	var decoded map[string]any
	if err := json.Unmarshal(patch, &decoded); err != nil {
		return fmt.Errorf("decode patch: %w", err)
	}
	maps.Copy(doc, decoded)
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	updated := clone(e)
	updated.Data = data
	m.data[entityKey{pk, sk}] = updated
	return nil
}

func (m *MemoryStore) query(q Query) ([]*Entity, error) {
	var out []*Entity
	for _, e := range m.data {
		pk, sk := e.indexKeys(q.Index)
		if pk == "" || pk != q.PK || !strings.HasPrefix(sk, q.SKPrefix) {
			continue
		}
		if q.Filter != nil {
			doc, err := attributes(e)
			if err != nil {
				return nil, err
			}
			if attrString(doc[q.Filter.Attr]) != q.Filter.Equals {
				continue
			}
		}
		out = append(out, clone(e))
	}
	sort.Slice(out, func(i, j int) bool {
		_, a := out[i].indexKeys(q.Index)
		_, b := out[j].indexKeys(q.Index)
		if q.Descending {
			return a > b
		}
		return a < b
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) scan(match func(*Entity) bool) []*Entity {
	var out []*Entity
	for _, e := range m.data {
		if match(e) {
			out = append(out, clone(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PK != out[j].PK {
			return out[i].PK < out[j].PK
		}
		return out[i].SK < out[j].SK
	})
	return out
}

// memoryTx is the Store handed to a Transact callback; the lock is already held.
type memoryTx struct {
	m *MemoryStore
}

func (t *memoryTx) Put(ctx context.Context, e *Entity) error         { return t.m.put(e) }
func (t *memoryTx) PutIfAbsent(ctx context.Context, e *Entity) error { return t.m.putIfAbsent(e) }
func (t *memoryTx) Get(ctx context.Context, pk, sk string) (*Entity, error) {
	return t.m.get(pk, sk)
}
func (t *memoryTx) Update(ctx context.Context, pk, sk string, changes map[string]any, cond *Condition) error {
	return t.m.update(pk, sk, changes, cond)
}
func (t *memoryTx) Delete(ctx context.Context, pk, sk string) error {
	delete(t.m.data, entityKey{pk, sk})
	return nil
}
func (t *memoryTx) Query(ctx context.Context, q Query) ([]*Entity, error) { return t.m.query(q) }
func (t *memoryTx) ScanByOwner(ctx context.Context, ownerID, entityType string) ([]*Entity, error) {
	return t.m.scan(func(e *Entity) bool {
		return e.OwnerID == ownerID && e.EntityType == entityType
	}), nil
}
func (t *memoryTx) Scan(ctx context.Context, entityTypes ...string) ([]*Entity, error) {
	return t.m.scan(func(e *Entity) bool {
		return slices.Contains(entityTypes, e.EntityType)
	}), nil
}
func (t *memoryTx) Ping(ctx context.Context) error { return nil }

func clone(e *Entity) *Entity {
	c := *e
	c.Data = slices.Clone(e.Data)
	return &c
}

func attributes(e *Entity) (map[string]any, error) {
	doc := map[string]any{}
	if len(e.Data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(e.Data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", e.PK, e.SK, err)
	}
	return doc, nil
}

// attrString mirrors Postgres' ->> text rendering of a JSON value.
func attrString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
