// cmd/tools/costdb-seeder/main.go
//
// Seeds the material_costs table with the baseline bakery price list.
// Existing rows are updated in place, so the seeder is safe to re-run.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/liduanken/bakery-quotation-agent/internal/common/config"
	"github.com/liduanken/bakery-quotation-agent/internal/common/database"
	"github.com/liduanken/bakery-quotation-agent/internal/common/logger"
	"github.com/liduanken/bakery-quotation-agent/internal/costs"
	"github.com/liduanken/bakery-quotation-agent/internal/models"
)

var baselineCosts = []models.MaterialCost{
	{Name: "flour", Unit: "kg", UnitCost: 0.90, Currency: "GBP"},
	{Name: "sugar", Unit: "kg", UnitCost: 0.70, Currency: "GBP"},
	{Name: "butter", Unit: "kg", UnitCost: 4.50, Currency: "GBP"},
	{Name: "eggs", Unit: "each", UnitCost: 0.18, Currency: "GBP"},
	{Name: "milk", Unit: "L", UnitCost: 0.60, Currency: "GBP"},
	{Name: "vanilla", Unit: "ml", UnitCost: 0.05, Currency: "GBP"},
	{Name: "baking_powder", Unit: "kg", UnitCost: 3.00, Currency: "GBP"},
	{Name: "cocoa", Unit: "kg", UnitCost: 6.00, Currency: "GBP"},
	{Name: "salt", Unit: "kg", UnitCost: 0.40, Currency: "GBP"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		zapLog.Fatal("postgres unreachable", zap.Error(err))
	}

	store := costs.NewPostgresStore(pg, log)
	if err := store.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("schema setup failed", zap.Error(err))
	}

	for _, cost := range baselineCosts {
		if err := store.Upsert(ctx, cost); err != nil {
			zapLog.Fatal("seeding failed",
				zap.String("material", cost.Name),
				zap.Error(err),
			)
		}
		zapLog.Info("seeded material",
			zap.String("name", cost.Name),
			zap.Float64("unit_cost", cost.UnitCost),
			zap.String("unit", cost.Unit),
		)
	}

	zapLog.Info("cost database seeded", zap.Int("materials", len(baselineCosts)))
}
