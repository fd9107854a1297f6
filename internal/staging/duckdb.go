package staging

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"
	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/gibbonslabs/medallion/pkg/relation"
)

func init() {
	Register("duckdb", func(logger *slog.Logger) Source { return NewDuckDBSource(logger) })
}

// duckdbOptions are the driver-specific settings for the DuckDB source.
type duckdbOptions struct {
	// TablePrefix overrides the default "bronze_" relation prefix.
	TablePrefix string `mapstructure:"table_prefix"`
}

// DuckDBSource reads staged relations from bronze_* tables in a DuckDB
// database file, the staging layout the original loader produces.
type DuckDBSource struct {
	db     *sql.DB
	opts   duckdbOptions
	logger *slog.Logger
}

// NewDuckDBSource creates a new DuckDB staging source.
func NewDuckDBSource(logger *slog.Logger) *DuckDBSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DuckDBSource{logger: logger}
}

// Name returns the source type name.
func (s *DuckDBSource) Name() string { return "duckdb" }

// Connect opens the DuckDB database. Use ":memory:" as the path for an
// in-memory database.
func (s *DuckDBSource) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	opts := duckdbOptions{TablePrefix: "bronze_"}
	if cfg.Options != nil {
		if err := mapstructure.Decode(cfg.Options, &opts); err != nil {
			return fmt.Errorf("invalid duckdb options: %w", err)
		}
		if opts.TablePrefix == "" {
			opts.TablePrefix = "bronze_"
		}
	}

	s.logger.Debug("connecting to duckdb staging source", "path", path)

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	s.db = db
	s.opts = opts
	return nil
}

// Close closes the DuckDB connection.
func (s *DuckDBSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads all rows of bronze_<entity>.
func (s *DuckDBSource) Load(ctx context.Context, entity string) (relation.Staged, error) {
	if s.db == nil {
		return nil, fmt.Errorf("duckdb source not connected")
	}
	if !validEntity(entity) {
		return nil, fmt.Errorf("unknown staged entity %q", entity)
	}

	table := s.opts.TablePrefix + entity
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	defer rows.Close()

	out, err := rowsToStaged(rows)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}

	s.logger.Debug("loaded staged relation", "table", table, "rows", len(out))
	return out, nil
}
