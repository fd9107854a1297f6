// Package pipeline orchestrates a full medallion run: staged relations
// are enforced and standardized into the silver layer, modeled into the
// gold star schema, and exported with metadata sidecars. A run either
// completes and replaces outputs, or fails and leaves prior outputs
// untouched.
package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gibbonslabs/medallion/internal/gold"
	"github.com/gibbonslabs/medallion/internal/silver"
	"github.com/gibbonslabs/medallion/internal/staging"
	"github.com/gibbonslabs/medallion/internal/state"
	"github.com/gibbonslabs/medallion/pkg/relation"
)

// Config holds pipeline configuration.
type Config struct {
	// Source is the connected staging source to read from.
	Source staging.Source

	// Store records run history and quality reports. Optional; nil
	// disables persistence.
	Store state.Store

	// OutputDir is the root of the layered export tree. Silver goes to
	// <OutputDir>/silver, gold to <OutputDir>/gold.
	OutputDir string

	// SkipExport runs the transformation stages without writing any
	// output files.
	SkipExport bool

	// Logger is the structured logger (nil uses discard).
	Logger *slog.Logger
}

// Pipeline is a stateless full-recompute job: it reads a fixed snapshot
// of staged input and produces a fresh, fully-replacing output
// snapshot. It carries no mutable state between runs.
type Pipeline struct {
	src        staging.Source
	store      state.Store
	outputDir  string
	skipExport bool
	logger     *slog.Logger
}

// Result holds everything a completed run produced.
type Result struct {
	RunID string

	// Silver relations by name (silver_customers, ...).
	Silver map[string]*relation.Relation

	// Gold relations.
	DimCustomer *relation.Relation
	DimProduct  *relation.Relation
	DimCountry  *relation.Relation
	DimDate     *relation.Relation
	Fact        *relation.Relation

	// Quality reports.
	SilverReports []silver.Report
	FactReport    gold.FactReport
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		src:        cfg.Source,
		store:      cfg.Store,
		outputDir:  cfg.OutputDir,
		skipExport: cfg.SkipExport,
		logger:     logger,
	}
}

// silverDir returns the export directory for the silver layer.
func (p *Pipeline) silverDir() string { return filepath.Join(p.outputDir, "silver") }

// goldDir returns the export directory for the gold layer.
func (p *Pipeline) goldDir() string { return filepath.Join(p.outputDir, "gold") }

// entitySchema returns the silver target schema and source-field
// aliases for one staged entity.
func entitySchema(entity string) (relation.Schema, map[string]string, error) {
	switch entity {
	case "customers":
		return silver.CustomersSchema(), nil, nil
	case "products":
		return silver.ProductsSchema(), nil, nil
	case "orders":
		return silver.OrdersSchema(), nil, nil
	case "sales":
		return silver.SalesSchema(), nil, nil
	case "countries":
		return silver.CountriesSchema(), silver.CountryAliases, nil
	default:
		return relation.Schema{}, nil, fmt.Errorf("unknown staged entity %q", entity)
	}
}
