// Package mongostore keeps the sheet-config registry in a MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"finsheet/internal/log"
	"finsheet/internal/sheetconfig"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const SheetConfigsCollection = "sheet_configs"

// Collection is the subset of *mongo.Collection the store uses.
type Collection interface {
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

var _ Collection = (*mongo.Collection)(nil)

type Store struct {
	coll   Collection
	logger *log.Logger
}

var _ sheetconfig.Store = (*Store)(nil)

func New(coll Collection, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{coll: coll, logger: logger.WithComponent(log.ComponentStorage)}
}

// Connect dials uri and pings the server.
func Connect(ctx context.Context, uri string, logger *log.Logger) (*mongo.Client, error) {
	logger.DebugContext(ctx, "Connecting to MongoDB")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	logger.InfoContext(ctx, "Connected to MongoDB")
	return client, nil
}

// EnsureIndexes creates the unique spreadsheet index and the per-user period
// index the list query sorts on.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "spreadsheetId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_spreadsheet_id"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "year", Value: -1}, {Key: "month", Value: -1}},
			Options: options.Index().SetName("user_period"),
		},
	})
	if err != nil {
		return fmt.Errorf("create sheet config indexes: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, c sheetconfig.SheetConfig) (sheetconfig.SheetConfig, error) {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return sheetconfig.SheetConfig{}, sheetconfig.ErrDuplicateSpreadsheet
		}
		return sheetconfig.SheetConfig{}, fmt.Errorf("save sheet config: %w", err)
	}
	s.logger.InfoContext(ctx, "Sheet config saved",
		log.FieldConfigID, c.ID,
		log.FieldSpreadsheetID, c.SpreadsheetID)
	return c, nil
}

func (s *Store) Get(ctx context.Context, id string) (sheetconfig.SheetConfig, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) FindBySpreadsheetID(ctx context.Context, spreadsheetID string) (sheetconfig.SheetConfig, error) {
	return s.findOne(ctx, bson.M{"spreadsheetId": spreadsheetID})
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]sheetconfig.SheetConfig, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "year", Value: -1},
		{Key: "month", Value: -1},
		{Key: "createdAt", Value: -1},
	})
	cur, err := s.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list sheet configs: %w", err)
	}
	defer cur.Close(ctx)

	out := []sheetconfig.SheetConfig{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode sheet configs: %w", err)
	}
	return out, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (sheetconfig.SheetConfig, error) {
	var c sheetconfig.SheetConfig
	err := s.coll.FindOne(ctx, filter).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sheetconfig.SheetConfig{}, sheetconfig.ErrNotFound
	}
	if err != nil {
		return sheetconfig.SheetConfig{}, fmt.Errorf("find sheet config: %w", err)
	}
	return c, nil
}
