package database

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryStore is an in-process Store used for tests and local development.
// Documents go through a bson round trip on the way in and out, so callers see
// the same value types a MongoDB backend would return.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string][]bson.M
	unique   map[string][]string
	failures map[string]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]bson.M),
		unique:   make(map[string][]string),
		failures: make(map[string]error),
	}
}

// FailCollection makes every subsequent operation on collection return err.
// Passing a nil error clears the failure.
func (m *MemoryStore) FailCollection(collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, collection)
		return
	}
	m.failures[collection] = err
}

// Count returns the number of documents stored in collection.
func (m *MemoryStore) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data[collection])
}

func (m *MemoryStore) SelectByKey(_ context.Context, collection, field, value string) (bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures[collection]; err != nil {
		return nil, err
	}
	i := m.indexOf(collection, field, value)
	if i < 0 {
		return nil, ErrNotFound
	}
	return cloneDoc(m.data[collection][i])
}

func (m *MemoryStore) Insert(_ context.Context, collection string, doc bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures[collection]; err != nil {
		return err
	}
	stored, err := cloneDoc(doc)
	if err != nil {
		return err
	}
	for _, field := range m.unique[collection] {
		value, ok := stored[field].(string)
		if ok && m.indexOf(collection, field, value) >= 0 {
			return fmt.Errorf("%w: %s.%s=%q", ErrDuplicate, collection, field, value)
		}
	}
	m.data[collection] = append(m.data[collection], stored)
	return nil
}

func (m *MemoryStore) UpdateByKey(_ context.Context, collection, field, value string, set bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures[collection]; err != nil {
		return err
	}
	i := m.indexOf(collection, field, value)
	if i < 0 {
		return ErrNotFound
	}
	patch, err := cloneDoc(set)
	if err != nil {
		return err
	}
	for k, v := range patch {
		m.data[collection][i][k] = v
	}
	return nil
}

func (m *MemoryStore) CompareAndSet(_ context.Context, collection, field, value string, expect, set bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures[collection]; err != nil {
		return err
	}
	i := m.indexOf(collection, field, value)
	if i < 0 {
		return ErrNotFound
	}
	want, err := cloneDoc(expect)
	if err != nil {
		return err
	}
	doc := m.data[collection][i]
	for k, v := range want {
		if !cmp.Equal(doc[k], v) {
			return ErrNotFound
		}
	}
	patch, err := cloneDoc(set)
	if err != nil {
		return err
	}
	for k, v := range patch {
		doc[k] = v
	}
	return nil
}

func (m *MemoryStore) FindMany(_ context.Context, collection, field, value string, opts FindOptions) ([]bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failures[collection]; err != nil {
		return nil, err
	}
	var out []bson.M
	for _, doc := range m.data[collection] {
		if v, ok := doc[field].(string); ok && v == value {
			c, err := cloneDoc(doc)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}
	return applyFindOptions(out, opts), nil
}

func (m *MemoryStore) EnsureIndex(_ context.Context, collection, field string, unique bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if unique && !slices.Contains(m.unique[collection], field) {
		m.unique[collection] = append(m.unique[collection], field)
	}
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close(context.Context) error { return nil }

func (m *MemoryStore) indexOf(collection, field, value string) int {
	for i, doc := range m.data[collection] {
		if v, ok := doc[field].(string); ok && v == value {
			return i
		}
	}
	return -1
}

func cloneDoc(doc bson.M) (bson.M, error) {
	out, err := Fields(doc)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = bson.M{}
	}
	return out, nil
}

// applyFindOptions sorts and truncates documents in memory. The sort is
// stable so equal keys keep insertion order.
func applyFindOptions(docs []bson.M, opts FindOptions) []bson.M {
	if opts.SortField != "" {
		slices.SortStableFunc(docs, func(a, b bson.M) int {
			c := compareValues(a[opts.SortField], b[opts.SortField])
			if opts.SortDesc {
				return -c
			}
			return c
		})
	}
	if opts.Limit > 0 && len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}
	return docs
}
