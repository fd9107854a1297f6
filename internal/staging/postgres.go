package staging

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/gibbonslabs/medallion/pkg/relation"
)

func init() {
	Register("postgres", func(logger *slog.Logger) Source { return NewPostgresSource(logger) })
}

// postgresOptions are the driver-specific settings for the Postgres
// source.
type postgresOptions struct {
	SSLMode     string `mapstructure:"sslmode"`
	Schema      string `mapstructure:"schema"`
	TablePrefix string `mapstructure:"table_prefix"`
}

// PostgresSource reads staged relations from bronze_* tables in a
// PostgreSQL database.
type PostgresSource struct {
	db     *sql.DB
	opts   postgresOptions
	logger *slog.Logger
}

// NewPostgresSource creates a new Postgres staging source.
func NewPostgresSource(logger *slog.Logger) *PostgresSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PostgresSource{logger: logger}
}

// Name returns the source type name.
func (s *PostgresSource) Name() string { return "postgres" }

// Connect establishes a connection to PostgreSQL.
func (s *PostgresSource) Connect(ctx context.Context, cfg Config) error {
	opts := postgresOptions{SSLMode: "disable", Schema: "public", TablePrefix: "bronze_"}
	if cfg.Options != nil {
		if err := mapstructure.Decode(cfg.Options, &opts); err != nil {
			return fmt.Errorf("invalid postgres options: %w", err)
		}
	}

	dsn := buildPostgresDSN(cfg, opts.SSLMode)
	s.logger.Debug("connecting to postgres staging source", "host", cfg.Host, "database", cfg.Database)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	s.db = db
	s.opts = opts
	return nil
}

// buildPostgresDSN constructs a key=value connection string.
func buildPostgresDSN(cfg Config, sslmode string) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s", host, port, cfg.Database, sslmode)
	if cfg.Username != "" {
		dsn += " user=" + cfg.Username
	}
	if cfg.Password != "" {
		dsn += " password=" + cfg.Password
	}
	return dsn
}

// Close closes the Postgres connection.
func (s *PostgresSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads all rows of <schema>.bronze_<entity>.
func (s *PostgresSource) Load(ctx context.Context, entity string) (relation.Staged, error) {
	if s.db == nil {
		return nil, fmt.Errorf("postgres source not connected")
	}
	if !validEntity(entity) {
		return nil, fmt.Errorf("unknown staged entity %q", entity)
	}

	table := fmt.Sprintf("%s.%s%s", s.opts.Schema, s.opts.TablePrefix, entity)
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
