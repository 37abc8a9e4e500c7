package backend

import (
	"context"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// Backend bundles the long-lived dependencies of the API server.
type Backend struct {
	Repository   *storage.SQLiteRepository
	Cache        cache.Store
	Events       *amqp.Client // nil when AMQP is not configured
	Transactions *services.TransactionService
	Reports      *services.ReportService
}

// CleanupFunc releases everything a factory opened.
type CleanupFunc func() error

// BackendResult contains the backend instance and its cleanup function
type BackendResult struct {
	Backend *Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the store, cache and event bus and builds the services.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateMirror returns the Google Sheets mirror, or an in-memory one when
	// no spreadsheet is configured.
	CreateMirror(ctx context.Context, config Config) (sheets.LedgerMirror, error)
}

// Config holds configuration for backend creation
type Config struct {
	SQLiteDBPath string
	OwnerID      string

	// Cache
	CacheType       CacheType
	CacheTTL        time.Duration
	CacheMaxEntries int
	RedisURL        string

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// CacheType selects the cache store implementation.
type CacheType string

const (
	MemoryCache CacheType = "memory"
	RedisCache  CacheType = "redis"
)

// String implements fmt.Stringer
func (ct CacheType) String() string {
	return string(ct)
}

// IsValid returns true if the cache type is known
func (ct CacheType) IsValid() bool {
	switch ct {
	case MemoryCache, RedisCache:
		return true
	default:
		return false
	}
}
