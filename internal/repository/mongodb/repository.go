package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/medimart-cart/internal/domain/models"
	"github.com/mamadbah2/medimart-cart/internal/repository"
)

// DefaultCollection holds one document per cart record key.
const DefaultCollection = "cart_records"

// MongoDBRepository owns the client connection and hands out slots.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
	logger   *zap.Logger
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri, dbName, collName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collName == "" {
		collName = DefaultCollection
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: collName,
		logger:   logger,
	}, nil
}

// Slot returns the record stored under key, as seen from origin.
func (r *MongoDBRepository) Slot(key, origin string) *Slot {
	return &Slot{
		coll:   r.client.Database(r.dbName).Collection(r.collName),
		key:    key,
		origin: origin,
		logger: r.logger,
	}
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// Slot is a single cart record document.
type Slot struct {
	coll   *mongo.Collection
	key    string
	origin string
	logger *zap.Logger
}

// Key returns the record key.
func (s *Slot) Key() string { return s.key }

// Read loads the record payload.
func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	var record models.CartRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": s.key}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart record: %w", err)
	}
	return []byte(record.Payload), nil
}

// Write replaces the whole document. A single-document replace is atomic.
func (s *Slot) Write(ctx context.Context, payload []byte) error {
	record := models.CartRecord{
		Key:       s.key,
		Payload:   string(payload),
		Origin:    s.origin,
		UpdatedAt: time.Now().UTC(),
	}

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": s.key}, record, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to replace cart record: %w", err)
	}
	return nil
}

// changeEvent is the subset of a change stream event the slot reads.
type changeEvent struct {
	FullDocument *models.CartRecord `bson:"fullDocument"`
}

// Watch follows a change stream on the record. Change streams need a replica
// set; on a standalone server this returns an error straight away.
func (s *Slot) Watch(ctx context.Context, onChange func()) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: s.key}}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := s.coll.Watch(ctx, pipeline, opts)
	if err != nil {
		return fmt.Errorf("failed to open change stream: %w", err)
	}
	defer stream.Close(context.Background())

	s.logger.Info("watching cart record", zap.String("key", s.key))

	for stream.Next(ctx) {
		foreign, err := s.foreign(stream.Current)
		if err != nil {
			s.logger.Warn("skipping undecodable change event", zap.Error(err))
			continue
		}
		if foreign {
			onChange()
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return stream.Err()
}

// foreign reports whether a change event was written by another context.
// Deletes carry no document and always count as foreign.
func (s *Slot) foreign(raw bson.Raw) (bool, error) {
	var event changeEvent
	if err := bson.Unmarshal(raw, &event); err != nil {
		return false, err
	}
	return event.FullDocument == nil || event.FullDocument.Origin != s.origin, nil
}

var (
	_ repository.Slot    = (*Slot)(nil)
	_ repository.Watcher = (*Slot)(nil)
)
