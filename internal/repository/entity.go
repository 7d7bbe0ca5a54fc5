package repository

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"haven-backend/internal/database"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// userKey is the field every per-user collection is keyed by.
const userKey = "user_id"

// schema describes one per-user record collection and the values a new
// record starts with.
type schema struct {
	collection string
	defaults   bson.M
}

// entity provides get and upsert for a per-user record of type T.
type entity[T any] struct {
	store  database.Store
	schema schema
}

func newEntity[T any](store database.Store, collection string, defaults bson.M) entity[T] {
	return entity[T]{store: store, schema: schema{collection: collection, defaults: defaults}}
}

// get returns (nil, nil) when the user has no record yet.
func (e entity[T]) get(ctx context.Context, userID string) (*T, error) {
	doc, err := e.store.SelectByKey(ctx, e.schema.collection, userKey, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("select %s: %w", e.schema.collection, err)
	}
	var out T
	if err := database.Decode(doc, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", e.schema.collection, err)
	}
	return &out, nil
}

// nullable is implemented by inputs that embed models.Nulls.
type nullable interface {
	NullFields() []string
}

// save upserts the fields set on input, a struct whose unset fields are
// tagged omitempty. Fields the input names as nulls are written as null
// unless input also sets them.
func (e entity[T]) save(ctx context.Context, userID string, input any) error {
	fields, err := database.Fields(input)
	if err != nil {
		return err
	}
	if n, ok := input.(nullable); ok {
		for _, f := range n.NullFields() {
			if fields == nil {
				fields = bson.M{}
			}
			if _, set := fields[f]; !set {
				fields[f] = nil
			}
		}
	}
	return upsertByKey(ctx, e.store, e.schema, userID, fields)
}

func (e entity[T]) ensureIndexes(ctx context.Context) error {
	return e.store.EnsureIndex(ctx, e.schema.collection, userKey, true)
}

// upsertByKey inserts a record for userID with the schema defaults and fields,
// or, when one exists, sets only fields on it. Repeating the same call leaves
// the record unchanged apart from updated_at.
func upsertByKey(ctx context.Context, store database.Store, s schema, userID string, fields bson.M) error {
	now := time.Now().UTC()

	_, err := store.SelectByKey(ctx, s.collection, userKey, userID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		doc := maps.Clone(s.defaults)
		if doc == nil {
			doc = bson.M{}
		}
		maps.Copy(doc, fields)
		doc[userKey] = userID
		doc["created_at"] = now
		doc["updated_at"] = now

		err = store.Insert(ctx, s.collection, doc)
		if !errors.Is(err, database.ErrDuplicate) {
			if err != nil {
				return fmt.Errorf("insert %s: %w", s.collection, err)
			}
			return nil
		}
		// a concurrent first write won the insert; apply ours as an update
	case err != nil:
		return fmt.Errorf("select %s: %w", s.collection, err)
	}

	set := bson.M{"updated_at": now}
	maps.Copy(set, fields)
	if err := store.UpdateByKey(ctx, s.collection, userKey, userID, set); err != nil {
		return fmt.Errorf("update %s: %w", s.collection, err)
	}
	return nil
}
