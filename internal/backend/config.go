package backend

import (
	"fmt"

	"fintrack/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cacheType := CacheType(appConfig.CacheBackend)
	if !cacheType.IsValid() {
		return Config{}, fmt.Errorf("invalid cache backend in config: %s", appConfig.CacheBackend)
	}

	return Config{
		SQLiteDBPath: appConfig.SQLiteDBPath,
		OwnerID:      appConfig.DefaultOwnerID,

		CacheType:       cacheType,
		CacheTTL:        appConfig.CacheTTL,
		CacheMaxEntries: appConfig.CacheMaxEntries,
		RedisURL:        appConfig.RedisURL,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required")
	}
	if !c.CacheType.IsValid() {
		return fmt.Errorf("invalid cache type: %s", c.CacheType)
	}
	if c.CacheType == RedisCache && c.RedisURL == "" {
		return fmt.Errorf("Redis URL is required for the redis cache")
	}
	// AMQP and the mirror are optional, so we don't validate them
	return nil
}

// GetCacheTypes returns all valid cache types
func GetCacheTypes() []CacheType {
	return []CacheType{MemoryCache, RedisCache}
}
