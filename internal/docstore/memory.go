package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is a map-backed Store for dev and testing.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]map[string]any)}
}

// Create inserts a document with a generated id.
func (m *Memory) Create(ctx context.Context, collection string, fields map[string]any) (Document, error) {
	if collection == "" {
		return Document{}, &ValidationError{Field: "collection", Reason: "required"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.collections[collection]
	if !ok {
		col = make(map[string]map[string]any)
		m.collections[collection] = col
	}
	id := uuid.NewString()
	col[id] = cloneFields(fields)
	return Document{ID: id, Fields: cloneFields(fields)}, nil
}

// Get returns a document by id.
func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fields, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Fields: cloneFields(fields)}, nil
}

// List returns documents matching the query in a deterministic order.
func (m *Memory) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Document
	for id, fields := range m.collections[collection] {
		if matches(fields, q.Filters) {
			out = append(out, Document{ID: id, Fields: cloneFields(fields)})
		}
	}
	sortDocs(out, q.Sort)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Update applies a partial update in place.
func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	for k, v := range fields {
		existing[k] = v
	}
	return Document{ID: id, Fields: cloneFields(existing)}, nil
}

// Delete removes a document.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.collections[collection], id)
	return nil
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func matches(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok {
			return false
		}
		text := fieldText(v)
		switch f.Op {
		case OpEq:
			if text != f.Value {
				return false
			}
		case OpGte:
			if text < f.Value {
				return false
			}
		case OpLte:
			if text > f.Value {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func sortDocs(docs []Document, specs []Sort) {
	sort.Slice(docs, func(i, j int) bool {
		for _, s := range specs {
			a := fieldText(docs[i].Fields[s.Field])
			b := fieldText(docs[j].Fields[s.Field])
			if a == b {
				continue
			}
			if s.Desc {
				return a > b
			}
			return a < b
		}
		return docs[i].ID < docs[j].ID
	})
}

func fieldText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
