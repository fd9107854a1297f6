// Package staging provides access to the staged (bronze) layer: named
// source implementations that expose loosely-typed relations per entity
// type. Sources guarantee nothing about field typing; every value they
// return is a candidate for coercion failure downstream.
package staging

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/gibbonslabs/medallion/pkg/relation"
)

// Entities are the staged relations the pipeline consumes, in load
// order. Sources expose each as a bronze_<entity> relation.
var Entities = []string{"customers", "products", "orders", "sales", "countries"}

// Config holds the configuration for connecting to a staging source.
type Config struct {
	// Type selects the registered source ("duckdb", "postgres").
	Type string

	// Path is the file path for file-based sources.
	Path string

	// Host, Port, Database, Username, Password configure network
	// sources.
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// Options carries driver-specific settings.
	Options map[string]string
}

// Source is a staging-layer backend.
type Source interface {
	// Connect establishes the connection described by cfg.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the connection.
	Close() error

	// Load returns the staged rows for one entity, as-is.
	Load(ctx context.Context, entity string) (relation.Staged, error)

	// Name returns the source type name.
	Name() string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Source)
)

// Register adds a source factory to the registry. Called by source
// implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Source) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New creates a source instance for the config's type. A nil logger
// uses a discard logger.
func New(cfg Config, logger *slog.Logger) (Source, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("staging source type not specified")
	}

	registryMu.RLock()
	factory, ok := registry[cfg.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownSourceError{Type: cfg.Type, Available: ListSources()}
	}
	return factory(logger), nil
}

// ListSources returns all registered source names (sorted).
func ListSources() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks whether a source type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownSourceError is returned when an unknown source type is requested.
type UnknownSourceError struct {
	Type      string
	Available []string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown staging source type %q (available: %v)", e.Type, e.Available)
}

// validEntity guards table-name interpolation in SQL sources.
func validEntity(entity string) bool {
	for _, e := range Entities {
		if e == entity {
			return true
		}
	}
	return false
}

// rowsToStaged materializes sql.Rows into staged map rows, preserving
// driver-native value types.
func rowsToStaged(rows *sql.Rows) (relation.Staged, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var staged relation.Staged
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		staged = append(staged, row)
	}
	return staged, rows.Err()
}
