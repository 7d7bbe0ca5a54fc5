package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

// identifiers are interpolated into DDL, so only plain names are accepted
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresStore keeps every collection in a single records table with one
// JSONB document per row. Documents are stored as canonical extended JSON so
// dates and integer widths survive the round trip.
type PostgresStore struct {
	db *pgxpool.Pool
}

func ConnectPostgres(ctx context.Context, dsn string, maxConns int32, logger *zap.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("connected to PostgreSQL")
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			id BIGSERIAL PRIMARY KEY,
			collection TEXT NOT NULL,
			doc JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `CREATE INDEX IF NOT EXISTS records_collection_idx ON records (collection)`)
	return err
}

func (s *PostgresStore) SelectByKey(ctx context.Context, collection, field, value string) (bson.M, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `
		SELECT doc
		FROM records
		WHERE collection = $1 AND doc->>$2 = $3
		ORDER BY id
		LIMIT 1
	`, collection, field, value).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return fromExtJSON(raw)
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, doc bson.M) error {
	raw, err := bson.MarshalExtJSON(doc, true, false)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.db.Exec(ctx, `INSERT INTO records (collection, doc) VALUES ($1, $2::jsonb)`, collection, raw)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.Detail)
	}
	return err
}

func (s *PostgresStore) UpdateByKey(ctx context.Context, collection, field, value string, set bson.M) error {
	raw, err := bson.MarshalExtJSON(set, true, false)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	// jsonb || merges top-level keys, which is a partial $set
	tag, err := s.db.Exec(ctx, `
		UPDATE records
		SET doc = doc || $4::jsonb
		WHERE collection = $1 AND doc->>$2 = $3
	`, collection, field, value, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CompareAndSet(ctx context.Context, collection, field, value string, expect, set bson.M) error {
	want, err := bson.MarshalExtJSON(expect, true, false)
	if err != nil {
		return fmt.Errorf("encode expected fields: %w", err)
	}
	raw, err := bson.MarshalExtJSON(set, true, false)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	// the row lock taken by UPDATE re-checks the containment after a
	// concurrent writer commits, so only one caller can win
	tag, err := s.db.Exec(ctx, `
		UPDATE records
		SET doc = doc || $5::jsonb
		WHERE collection = $1 AND doc->>$2 = $3 AND doc @> $4::jsonb
	`, collection, field, value, want, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindMany(ctx context.Context, collection, field, value string, opts FindOptions) ([]bson.M, error) {
	query, args := findManyQuery(collection, field, value, opts)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []bson.M
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		doc, err := fromExtJSON(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// findManyQuery orders rows the way MemoryStore does: missing values first
// when ascending, ties in insertion order. Extended JSON keeps dates and
// integers inside objects such as {"$date":{"$numberLong":"..."}}, so those
// sort on their numeric payload and everything else on its text.
func findManyQuery(collection, field, value string, opts FindOptions) (string, []any) {
	query := `
		SELECT doc
		FROM records
		WHERE collection = $1 AND doc->>$2 = $3`
	args := []any{collection, field, value}

	order := "id"
	if opts.SortField != "" {
		args = append(args, opts.SortField)
		dir, nulls := "ASC", "FIRST"
		if opts.SortDesc {
			dir, nulls = "DESC", "LAST"
		}
		key := fmt.Sprintf("$%d", len(args))
		order = fmt.Sprintf(
			`COALESCE(doc->%[1]s->'$date'->>'$numberLong', doc->%[1]s->>'$numberLong', doc->%[1]s->>'$numberInt')::numeric %[2]s NULLS %[3]s,
			doc->>%[1]s %[2]s NULLS %[3]s,
			id`,
			key, dir, nulls)
	}
	query += "\n\t\tORDER BY " + order
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf("\n\t\tLIMIT $%d", len(args))
	}
	return query, args
}

func (s *PostgresStore) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	if !identPattern.MatchString(collection) || !identPattern.MatchString(field) {
		return fmt.Errorf("invalid index name %s.%s", collection, field)
	}
	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	stmt := fmt.Sprintf(
		`CREATE %s IF NOT EXISTS records_%s_%s_idx ON records ((doc->>'%s')) WHERE collection = '%s'`,
		kind, collection, field, field, collection,
	)
	_, err := s.db.Exec(ctx, stmt)
	return err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	s.db.Close()
	return nil
}

func fromExtJSON(raw []byte) (bson.M, error) {
	var doc bson.M
	if err := bson.UnmarshalExtJSON(raw, true, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
