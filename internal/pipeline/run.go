package pipeline

// run.go - stage orchestration for a full medallion run.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gibbonslabs/medallion/internal/export"
	"github.com/gibbonslabs/medallion/internal/gold"
	"github.com/gibbonslabs/medallion/internal/silver"
	"github.com/gibbonslabs/medallion/internal/staging"
	"github.com/gibbonslabs/medallion/internal/state"
	"github.com/gibbonslabs/medallion/pkg/relation"
)

// Run executes the full pipeline. Per-relation stages fan out across
// relations; the fact builder is the only ordering barrier and waits
// for every dimension key mapping and the calendar.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{Silver: make(map[string]*relation.Relation)}

	var run *state.Run
	if p.store != nil {
		var err error
		run, err = p.store.CreateRun()
		if err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
		result.RunID = run.ID
	}

	err := p.execute(ctx, result)

	if p.store != nil && run != nil {
		p.persistReports(run.ID, result)
		if err != nil {
			_ = p.store.CompleteRun(run.ID, state.RunStatusFailed, err.Error())
		} else {
			_ = p.store.CompleteRun(run.ID, state.RunStatusCompleted, "")
		}
	}

	if err != nil {
		p.logger.Error("run failed", "run_id", result.RunID, "error", err)
		return result, err
	}
	p.logger.Info("run completed", "run_id", result.RunID, "fact_rows", result.Fact.NumRows())
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, result *Result) error {
	staged, err := p.loadStaged(ctx)
	if err != nil {
		return err
	}

	if err := p.buildSilver(ctx, staged, result); err != nil {
		return err
	}
	if err := p.buildGold(result); err != nil {
		return err
	}

	if p.skipExport {
		return nil
	}
	return p.exportLayers(result)
}

// loadStaged reads the five staged relations concurrently.
func (p *Pipeline) loadStaged(ctx context.Context) (map[string]relation.Staged, error) {
	staged := make(map[string]relation.Staged, len(staging.Entities))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, entity := range staging.Entities {
		g.Go(func() error {
			rows, err := p.src.Load(gctx, entity)
			if err != nil {
				return fmt.Errorf("staging: %w", err)
			}
			mu.Lock()
			staged[entity] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return staged, nil
}

// buildSilver enforces and standardizes each staged relation. The
// relations have no cross-relation dependency, so they are processed
// concurrently.
func (p *Pipeline) buildSilver(ctx context.Context, staged map[string]relation.Staged, result *Result) error {
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	for _, entity := range staging.Entities {
		g.Go(func() error {
			schema, aliases, err := entitySchema(entity)
			if err != nil {
				return err
			}

			rel, report := silver.Enforce(staged[entity], schema, aliases, p.logger)
			silver.Standardize(rel)

			mu.Lock()
			result.Silver[schema.Name] = rel
			result.SilverReports = append(result.SilverReports, report)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// The denormalized transaction relation joins across the per-entity
	// relations, so it waits for all of them.
	result.Silver["silver_fact_sales"] = silver.BuildFactSales(
		result.Silver["silver_sales"],
		result.Silver["silver_orders"],
		result.Silver["silver_customers"],
		result.Silver["silver_products"],
		result.Silver["silver_countries"],
		p.logger,
	)
	return nil
}

// buildGold derives the star schema. Dimension and calendar builders
// all complete before the fact builder starts.
func (p *Pipeline) buildGold(result *Result) error {
	var err error
	var customerKeys, productKeys, countryKeys gold.KeyMap

	result.DimCustomer, customerKeys, err = gold.BuildCustomerDim(result.Silver["silver_customers"])
	if err != nil {
		return fmt.Errorf("gold: %w", err)
	}
	result.DimProduct, productKeys, err = gold.BuildProductDim(result.Silver["silver_products"])
	if err != nil {
		return fmt.Errorf("gold: %w", err)
	}
	result.DimCountry, countryKeys, err = gold.BuildCountryDim(result.Silver["silver_countries"])
	if err != nil {
		return fmt.Errorf("gold: %w", err)
	}

	var dateKeys map[string]int64
	result.DimDate, dateKeys = gold.BuildCalendar(orderDates(result.Silver["silver_orders"]))

	result.Fact, result.FactReport = gold.BuildFact(gold.FactInput{
		Sales:        result.Silver["silver_sales"],
		Orders:       result.Silver["silver_orders"],
		Customers:    result.Silver["silver_customers"],
		Products:     result.Silver["silver_products"],
		CustomerKeys: customerKeys,
		ProductKeys:  productKeys,
		CountryKeys:  countryKeys,
		DateKeys:     dateKeys,
	}, p.logger)

	return nil
}

// orderDates collects the non-null order dates the calendar spans.
func orderDates(orders *relation.Relation) []time.Time {
	idx := orders.Schema.ColumnIndex("Date")
	var dates []time.Time
	for _, row := range orders.Rows {
		if d, ok := row[idx].(time.Time); ok {
			dates = append(dates, d)
		}
	}
	return dates
}

// exportLayers writes silver as NDJSON and gold as Parquet, each with a
// metadata sidecar. Exports are atomic per file: a failed run never
// truncates a previously valid export.
func (p *Pipeline) exportLayers(result *Result) error {
	now := time.Now().UTC()

	for _, rel := range result.Silver {
		if err := p.exportRelation(rel, p.silverDir(), export.WriteJSON, now); err != nil {
			return err
		}
	}

	goldRelations := []*relation.Relation{
		result.DimCustomer,
		result.DimProduct,
		result.DimCountry,
		result.DimDate,
		result.Fact,
	}
	for _, rel := range goldRelations {
		if err := p.exportRelation(rel, p.goldDir(), export.WriteParquet, now); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) exportRelation(rel *relation.Relation, dir string, write func(*relation.Relation, string) (string, error), now time.Time) error {
	path, err := write(rel, dir)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := export.WriteMetadata(rel, dir, now); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	p.logger.Info("exported relation", "relation", rel.Schema.Name, "path", path, "rows", rel.NumRows())
	return nil
}

// persistReports saves quality counts; persistence failures are logged
// but never mask the run outcome.
func (p *Pipeline) persistReports(runID string, result *Result) {
	for _, r := range result.SilverReports {
		err := p.store.SaveRelationReport(state.RelationReport{
			RunID:        runID,
			Stage:        "silver",
			Relation:     r.Relation,
			InputRows:    r.InputRows,
			RejectedRows: r.RejectedRows,
			OutputRows:   r.OutputRows,
		})
		if err != nil {
			p.logger.Error("failed to persist relation report", "relation", r.Relation, "error", err)
		}
	}

	if result.Fact == nil {
		return
	}

	err := p.store.SaveRelationReport(state.RelationReport{
		RunID:        runID,
		Stage:        "gold",
		Relation:     result.Fact.Schema.Name,
		InputRows:    result.FactReport.InputRows,
		RejectedRows: result.FactReport.RejectedTotal(),
		OutputRows:   result.FactReport.OutputRows,
	})
	if err != nil {
		p.logger.Error("failed to persist fact report", "error", err)
	}

	rejections := make(map[string]int, len(result.FactReport.Rejected))
	for reason, count := range result.FactReport.Rejected {
		rejections[string(reason)] = count
	}
	if err := p.store.SaveFactRejections(runID, rejections); err != nil {
		p.logger.Error("failed to persist fact rejections", "error", err)
	}
}
