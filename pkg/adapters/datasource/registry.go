package datasource

import (
	"context"
	"fmt"
	"sync"
)

// ExecutorFactory opens an executor for a connection string. For sqlite the
// connection string is the database file path.
type ExecutorFactory func(ctx context.Context, dsn string) (SQLExecutor, error)

// SchemaSourceFactory opens a schema source for a connection string.
type SchemaSourceFactory func(ctx context.Context, dsn string) (SchemaSource, error)

// Registration contains the factories for one adapter type.
type Registration struct {
	Type         string // "postgres", "sqlite", "mssql"
	Executor     ExecutorFactory
	SchemaSource SchemaSourceFactory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Registration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Type] = reg
}

// RegisteredTypes returns the adapter types currently registered, in no
// particular order.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(dsType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dsType]
	return ok
}

// Open creates an executor for the given adapter type.
func Open(ctx context.Context, dsType, dsn string) (SQLExecutor, error) {
	registryMu.RLock()
	reg, ok := registry[dsType]
	registryMu.RUnlock()

	if !ok || reg.Executor == nil {
		return nil, fmt.Errorf("unsupported datasource type: %s", dsType)
	}
	return reg.Executor(ctx, dsn)
}

// OpenSchemaSource creates a schema source for the given adapter type.
func OpenSchemaSource(ctx context.Context, dsType, dsn string) (SchemaSource, error) {
	registryMu.RLock()
	reg, ok := registry[dsType]
	registryMu.RUnlock()

	if !ok || reg.SchemaSource == nil {
		return nil, fmt.Errorf("unsupported datasource type: %s", dsType)
	}
	return reg.SchemaSource(ctx, dsn)
}
