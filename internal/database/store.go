package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"haven-backend/internal/config"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when no record matches a key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the record store every repository talks to. Documents are plain
// bson.M values; each collection is addressed by a key field such as user_id.
type Store interface {
	// SelectByKey returns the single document whose field equals value, or ErrNotFound.
	SelectByKey(ctx context.Context, collection, field, value string) (bson.M, error)
	// Insert stores a new document, returning ErrDuplicate on a unique index violation.
	Insert(ctx context.Context, collection string, doc bson.M) error
	// UpdateByKey sets the given fields on the matching document, or returns ErrNotFound.
	UpdateByKey(ctx context.Context, collection, field, value string, set bson.M) error
	// CompareAndSet is UpdateByKey that applies only while every field in
	// expect still holds its value. The check and write are one atomic step;
	// ErrNotFound covers both a missing document and a failed comparison.
	CompareAndSet(ctx context.Context, collection, field, value string, expect, set bson.M) error
	// FindMany lists documents whose field equals value.
	FindMany(ctx context.Context, collection, field, value string, opts FindOptions) ([]bson.M, error)
	// EnsureIndex creates an index on field for collection.
	EnsureIndex(ctx context.Context, collection, field string, unique bool) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// FindOptions controls ordering and size of FindMany results.
type FindOptions struct {
	SortField string
	SortDesc  bool
	Limit     int
}

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return ConnectMongo(ctx, cfg.MongoURI, cfg.DBName, logger)
	case config.DriverPostgres:
		return ConnectPostgres(ctx, cfg.PostgresDSN, cfg.MaxConns, logger)
	case config.DriverMemory:
		logger.Warn("using in-memory record store, data will not survive a restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Decode converts a stored document into a typed value using its bson tags.
func Decode(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// Fields converts a tagged struct into the document fields it sets. Fields
// tagged omitempty that are nil or empty are left out.
func Fields(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return out, nil
}

// compareValues orders the scalar types documents are sorted by.
func compareValues(a, b any) int {
	switch av := a.(type) {
	case bson.DateTime:
		if bv, ok := b.(bson.DateTime); ok {
			return cmpOrdered(int64(av), int64(bv))
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return cmpOrdered(av, bv)
		}
	case int32, int64:
		if bv, ok := asInt64(b); ok {
			ai, _ := asInt64(av)
			return cmpOrdered(ai, bv)
		}
	}
	// missing or mismatched values sort first
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	default:
		return 1
	}
}

// asInt64 widens the integer types bson decodes to.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func cmpOrdered[T int64 | int32 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
