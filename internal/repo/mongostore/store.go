// Package mongostore persists accounts and site content in MongoDB.
// Collection names and indexes are all declared in ensureIndexes.
package mongostore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/sitehub/internal/observability"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	ColUsers        = "users"
	ColEntries      = "entries"
	ColHeaders      = "headers"
	ColFooters      = "footers"
	ColAppointments = "appointments"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	prom   *observability.Prom
}

// NewStore connects, pings and ensures indexes. A unique index that cannot
// be built is fatal, since email and per-owner uniqueness rest on it; other
// index failures are logged and the store still serves.
func NewStore(ctx context.Context, uri, dbName string, prom *observability.Prom) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName), prom: prom}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) observe(op string, fn func() error, ignore ...error) error {
	if s.prom == nil {
		return fn()
	}
	return s.prom.ObserveStore(op, fn, ignore...)
}

type indexSpec struct {
	col    string
	keys   bson.D
	unique bool
}

var indexes = []indexSpec{
	// users
	{ColUsers, bson.D{{Key: "email", Value: 1}}, true},
	{ColUsers, bson.D{{Key: "reset_token_hash", Value: 1}}, false},
	{ColUsers, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}, false},

	// entries
	{ColEntries, bson.D{{Key: "kind", Value: 1}, {Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}, false},

	// headers, footers: one per owner
	{ColHeaders, bson.D{{Key: "owner_id", Value: 1}}, true},
	{ColFooters, bson.D{{Key: "owner_id", Value: 1}}, true},

	// appointments
	{ColAppointments, bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}, false},
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	return applyIndexes(ctx, indexes, func(ctx context.Context, col string, model mongo.IndexModel) error {
		_, err := s.col(col).Indexes().CreateOne(ctx, model)
		return err
	})
}

type createIndexFunc func(ctx context.Context, col string, model mongo.IndexModel) error

// applyIndexes builds every index. It stops at the first unique index that
// fails and only logs failures of the others.
func applyIndexes(ctx context.Context, specs []indexSpec, create createIndexFunc) error {
	for _, spec := range specs {
		model := mongo.IndexModel{Keys: spec.keys}
		if spec.unique {
			model.Options = options.Index().SetUnique(true)
		}

		err := create(ctx, spec.col, model)
		if err == nil {
			continue
		}
		if spec.unique {
			return fmt.Errorf("mongostore: create unique index on %s: %w", spec.col, err)
		}
		slog.Default().WarnContext(ctx, "mongostore: create index failed", "collection", spec.col, "err", err)
	}

	return nil
}
