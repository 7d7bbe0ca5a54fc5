package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// MongoStore keeps one MongoDB collection per record collection.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func ConnectMongo(ctx context.Context, uri, dbName string, logger *zap.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("connected to MongoDB", zap.String("database", dbName))
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

func (s *MongoStore) SelectByKey(ctx context.Context, collection, field, value string) (bson.M, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{field: value}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	delete(doc, "_id")
	return doc, nil
}

func (s *MongoStore) Insert(ctx context.Context, collection string, doc bson.M) error {
	_, err := s.db.Collection(collection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (s *MongoStore) UpdateByKey(ctx context.Context, collection, field, value string, set bson.M) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{field: value}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CompareAndSet(ctx context.Context, collection, field, value string, expect, set bson.M) error {
	filter := bson.M{field: value}
	for k, v := range expect {
		filter[k] = v
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) FindMany(ctx context.Context, collection, field, value string, opts FindOptions) ([]bson.M, error) {
	findOpts := options.Find().SetProjection(bson.M{"_id": 0})
	if opts.SortField != "" {
		dir := 1
		if opts.SortDesc {
			dir = -1
		}
		findOpts.SetSort(bson.D{{Key: opts.SortField, Value: dir}})
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{field: value}, findOpts)
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *MongoStore) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	model := mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}}
	if unique {
		// sparse so documents that lack the field do not collide on null
		model.Options = options.Index().SetUnique(true).SetSparse(true)
	}
	_, err := s.db.Collection(collection).Indexes().CreateOne(ctx, model)
	return err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
