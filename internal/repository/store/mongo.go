package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/mamadbah2/harvestledger/internal/domain/models"
)

const settingsDocID = "harvest_settings"

// MongoStore implements Store on MongoDB.
type MongoStore struct {
	client       *mongo.Client
	dbName       string
	entriesColl  string
	settingsColl string
	durable      atomic.Bool
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, uri string, dbName string) (*MongoStore, error) {
	clientOptions := options.Client().ApplyURI(uri).SetWriteConcern(writeconcern.Majority())
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{
		client:       client,
		dbName:       dbName,
		entriesColl:  "entries",
		settingsColl: "settings",
	}, nil
}

func (s *MongoStore) entries() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(s.entriesColl)
}

func (s *MongoStore) settings() *mongo.Collection {
	return s.client.Database(s.dbName).Collection(s.settingsColl)
}

// Put inserts or replaces one entry by id.
func (s *MongoStore) Put(ctx context.Context, entry models.HarvestEntry) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.entries().ReplaceOne(ctx, bson.M{"_id": entry.ID}, entry, opts); err != nil {
		return fmt.Errorf("failed to upsert entry %s: %w", entry.ID, err)
	}
	return nil
}

// PutMany upserts the batch as a single ordered bulk write.
func (s *MongoStore) PutMany(ctx context.Context, entries []models.HarvestEntry) error {
	if len(entries) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(entries))
	for _, entry := range entries {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": entry.ID}).
			SetReplacement(entry).
			SetUpsert(true))
	}

	if _, err := s.entries().BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to upsert %d entries: %w", len(entries), err)
	}
	return nil
}

// Delete removes one entry by id.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.entries().DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	return nil
}

// DeleteMany removes a set of entries by id in one write.
func (s *MongoStore) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.entries().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("failed to delete %d entries: %w", len(ids), err)
	}
	return nil
}

// All returns every entry in unspecified order.
func (s *MongoStore) All(ctx context.Context) ([]models.HarvestEntry, error) {
	cursor, err := s.entries().Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.HarvestEntry
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}
	return out, nil
}

// Count returns the number of stored entries.
func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.entries().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// Settings returns the settings document, or ErrNotFound before the first save.
func (s *MongoStore) Settings(ctx context.Context) (models.HarvestSettings, error) {
	var doc struct {
		ID       string                 `bson:"_id"`
		Settings models.HarvestSettings `bson:"settings"`
	}
	err := s.settings().FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.HarvestSettings{}, ErrNotFound
	}
	if err != nil {
		return models.HarvestSettings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	return doc.Settings, nil
}

// SaveSettings replaces the settings document.
func (s *MongoStore) SaveSettings(ctx context.Context, settings models.HarvestSettings) error {
	doc := bson.M{"_id": settingsDocID, "settings": settings}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.settings().ReplaceOne(ctx, bson.M{"_id": settingsDocID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Reset empties both tables. Entries are cleared first; if the settings wipe
// fails afterwards the error wraps ErrResetFailed so callers can tell a
// partial reset from an untouched store.
func (s *MongoStore) Reset(ctx context.Context) error {
	if _, err := s.entries().DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("%w: clearing entries: %v", ErrResetFailed, err)
	}
	if _, err := s.settings().DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("%w: clearing settings: %v", ErrResetFailed, err)
	}
	return nil
}

// RequestDurability verifies the primary is reachable under the majority
// write concern the client was built with. Advisory; refusal is not an error.
func (s *MongoStore) RequestDurability(ctx context.Context) (bool, error) {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		s.durable.Store(false)
		return false, nil
	}
	s.durable.Store(true)
	return true, nil
}

// Durable reports the last known persistence grant state.
func (s *MongoStore) Durable() bool {
	return s.durable.Load()
}

// Close closes the MongoDB connection.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
