package backend

import (
	"context"
	"fmt"

	"finsheet/internal/amqp"
	"finsheet/internal/log"
	"finsheet/internal/sheetconfig"
	gsheet "finsheet/internal/sheets/google"
	"finsheet/internal/sheets/memory"
	"finsheet/internal/storage"
	"finsheet/internal/storage/mongostore"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

var _ Factory = (*DefaultFactory)(nil)

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create builds every adapter the API needs. On error, whatever was already
// opened is closed.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	if err := f.createRows(ctx, config, res); err != nil {
		return nil, err
	}
	if err := f.createConfigStore(ctx, config, res); err != nil {
		_ = res.Close()
		return nil, err
	}
	f.createPublisher(ctx, config, res)
	return res, nil
}

func (f *DefaultFactory) createRows(ctx context.Context, config Config, res *Result) error {
	creds := gsheet.Credentials{
		JSON:    config.GoogleServiceAccountJSON,
		File:    config.GoogleServiceAccountFile,
		ADCPath: config.GoogleCredentialsPath,
	}
	res.ServiceAccount = config.ServiceAccountEmail
	if res.ServiceAccount == "" {
		res.ServiceAccount = gsheet.ServiceAccountEmail(creds)
	}

	switch config.Rows {
	case SheetsRows:
		cli, err := gsheet.New(ctx, creds, config.ApplicationName)
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		res.Rows = cli
		f.logger.InfoContext(ctx, "Initialized Google Sheets row backend", "service_account", res.ServiceAccount)
	default:
		res.Rows = memory.New()
		f.logger.InfoContext(ctx, "Initialized memory row backend")
	}
	return nil
}

func (f *DefaultFactory) createConfigStore(ctx context.Context, config Config, res *Result) error {
	switch config.Store {
	case SQLiteStore:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.Configs = repo
		res.onClose(repo.Close)
		f.logger.InfoContext(ctx, "Initialized SQLite config store", "db_path", config.SQLiteDBPath)

	case MongoStore:
		client, err := mongostore.Connect(ctx, config.MongoURI, f.logger)
		if err != nil {
			return err
		}
		res.onClose(func() error { return client.Disconnect(context.Background()) })

		coll := client.Database(config.MongoDatabase).Collection(mongostore.SheetConfigsCollection)
		if err := mongostore.EnsureIndexes(ctx, coll); err != nil {
			return err
		}
		res.Configs = mongostore.New(coll, f.logger)
		f.logger.InfoContext(ctx, "Initialized MongoDB config store", "database", config.MongoDatabase)

	default:
		res.Configs = sheetconfig.NewMemoryStore()
		f.logger.InfoContext(ctx, "Initialized memory config store")
	}
	return nil
}

// createPublisher connects to AMQP when configured. A broker that is down
// only disables activity events.
func (f *DefaultFactory) createPublisher(ctx context.Context, config Config, res *Result) {
	if config.AMQPURL == "" {
		return
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without activity events", log.FieldError, err)
		return
	}
	res.Events = client
	res.onClose(client.Close)
	f.logger.InfoContext(ctx, "Initialized AMQP publisher",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
}
