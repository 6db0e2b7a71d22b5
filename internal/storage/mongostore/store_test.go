package mongostore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"finsheet/internal/sheetconfig"
	"finsheet/internal/storage/mongostore"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mock for the Collection interface.
type mockCollection struct {
	replaceOneFunc func(ctx context.Context, filter, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	findOneFunc    func(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	findFunc       func(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

func (m *mockCollection) ReplaceOne(ctx context.Context, filter, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	if m.replaceOneFunc != nil {
		return m.replaceOneFunc(ctx, filter, replacement, opts...)
	}
	return &mongo.UpdateResult{}, nil
}

func (m *mockCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	if m.findOneFunc != nil {
		return m.findOneFunc(ctx, filter, opts...)
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (m *mockCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, filter, opts...)
	}
	return mongo.NewCursorFromDocuments(nil, nil, nil)
}

func sample() sheetconfig.SheetConfig {
	created := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	return sheetconfig.SheetConfig{
		ID:              "c1",
		UserID:          "darian",
		SpreadsheetID:   "sheet-1",
		SpreadsheetName: "Chi tiêu 9/2025",
		SheetName:       "Transactions",
		Range:           "A:H",
		Month:           9,
		Year:            2025,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func TestSave_UpsertsByID(t *testing.T) {
	var gotFilter interface{}
	var upsert bool
	coll := &mockCollection{
		replaceOneFunc: func(_ context.Context, filter, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
			gotFilter = filter
			if len(opts) == 1 && opts[0].Upsert != nil {
				upsert = *opts[0].Upsert
			}
			if _, ok := replacement.(sheetconfig.SheetConfig); !ok {
				t.Errorf("replacement type = %T", replacement)
			}
			return &mongo.UpdateResult{UpsertedCount: 1}, nil
		},
	}

	saved, err := mongostore.New(coll, nil).Save(context.Background(), sample())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID != "c1" || !upsert {
		t.Fatalf("saved = %+v, upsert = %v", saved, upsert)
	}
	if f, ok := gotFilter.(bson.M); !ok || f["_id"] != "c1" {
		t.Fatalf("filter = %#v", gotFilter)
	}
}

func TestSave_DuplicateSpreadsheet(t *testing.T) {
	coll := &mockCollection{
		replaceOneFunc: func(context.Context, interface{}, interface{}, ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
			return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
		},
	}
	_, err := mongostore.New(coll, nil).Save(context.Background(), sample())
	if !errors.Is(err, sheetconfig.ErrDuplicateSpreadsheet) {
		t.Fatalf("err = %v, want ErrDuplicateSpreadsheet", err)
	}
}

func TestSave_OtherError(t *testing.T) {
	coll := &mockCollection{
		replaceOneFunc: func(context.Context, interface{}, interface{}, ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
			return nil, errors.New("connection reset")
		},
	}
	_, err := mongostore.New(coll, nil).Save(context.Background(), sample())
	if err == nil || errors.Is(err, sheetconfig.ErrDuplicateSpreadsheet) {
		t.Fatalf("err = %v", err)
	}
}

func TestGet(t *testing.T) {
	want := sample()
	coll := &mockCollection{
		findOneFunc: func(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
			if f := filter.(bson.M); f["_id"] == "c1" {
				return mongo.NewSingleResultFromDocument(want, nil, nil)
			}
			return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
		},
	}
	store := mongostore.New(coll, nil)

	got, err := store.Get(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SpreadsheetID != want.SpreadsheetID || got.Month != 9 || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("got = %+v", got)
	}

	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, sheetconfig.ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestFindBySpreadsheetID(t *testing.T) {
	var gotFilter bson.M
	coll := &mockCollection{
		findOneFunc: func(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
			gotFilter = filter.(bson.M)
			return mongo.NewSingleResultFromDocument(sample(), nil, nil)
		},
	}
	got, err := mongostore.New(coll, nil).FindBySpreadsheetID(context.Background(), "sheet-1")
	if err != nil || got.ID != "c1" {
		t.Fatalf("FindBySpreadsheetID = %+v, %v", got, err)
	}
	if gotFilter["spreadsheetId"] != "sheet-1" {
		t.Fatalf("filter = %#v", gotFilter)
	}
}

func TestListByUser(t *testing.T) {
	newer := sample()
	older := sample()
	older.ID, older.SpreadsheetID, older.Month = "c0", "sheet-0", 8

	var sort interface{}
	coll := &mockCollection{
		findFunc: func(_ context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
			if f := filter.(bson.M); f["userId"] != "darian" {
				t.Errorf("filter = %#v", f)
			}
			if len(opts) == 1 {
				sort = opts[0].Sort
			}
			return mongo.NewCursorFromDocuments([]interface{}{newer, older}, nil, nil)
		},
	}

	list, err := mongostore.New(coll, nil).ListByUser(context.Background(), "darian")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != "c1" || list[1].ID != "c0" {
		t.Fatalf("list = %+v", list)
	}
	d, ok := sort.(bson.D)
	if !ok || len(d) != 3 || d[0].Key != "year" || d[1].Key != "month" {
		t.Fatalf("sort = %#v", sort)
	}
}

func TestListByUser_Empty(t *testing.T) {
	list, err := mongostore.New(&mockCollection{}, nil).ListByUser(context.Background(), "darian")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("list = %#v, want empty slice", list)
	}
}
