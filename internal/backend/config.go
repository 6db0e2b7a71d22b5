package backend

import (
	"fmt"

	"finsheet/internal/config"
)

// RowBackend selects where transaction rows live.
type RowBackend string

const (
	MemoryRows RowBackend = "memory"
	SheetsRows RowBackend = "sheets"
)

// StoreType selects where sheet configs live.
type StoreType string

const (
	MemoryStore StoreType = "memory"
	SQLiteStore StoreType = "sqlite"
	MongoStore  StoreType = "mongo"
)

func (b RowBackend) IsValid() bool {
	switch b {
	case MemoryRows, SheetsRows:
		return true
	}
	return false
}

func (s StoreType) IsValid() bool {
	switch s {
	case MemoryStore, SQLiteStore, MongoStore:
		return true
	}
	return false
}

// Config holds configuration for backend creation
type Config struct {
	Rows  RowBackend
	Store StoreType

	SQLiteDBPath  string
	MongoURI      string
	MongoDatabase string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleCredentialsPath    string
	ServiceAccountEmail      string
	ApplicationName          string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	c := Config{
		Rows:  RowBackend(appConfig.DataBackend),
		Store: StoreType(appConfig.ConfigStore),

		SQLiteDBPath:  appConfig.SQLiteDBPath,
		MongoURI:      appConfig.MongoURI,
		MongoDatabase: appConfig.MongoDatabase,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleCredentialsPath:    appConfig.GoogleCredentialsPath,
		ServiceAccountEmail:      appConfig.ServiceAccountEmail,
		ApplicationName:          appConfig.ApplicationName,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Rows.IsValid() {
		return fmt.Errorf("invalid row backend: %s", c.Rows)
	}
	if !c.Store.IsValid() {
		return fmt.Errorf("invalid config store: %s", c.Store)
	}

	switch c.Store {
	case SQLiteStore:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite config store")
		}
	case MongoStore:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("Mongo URI and database are required for mongo config store")
		}
	}

	if c.Rows == SheetsRows && c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && c.GoogleCredentialsPath == "" {
		return fmt.Errorf("service account credentials are required for sheets backend")
	}
	return nil
}
