// internal/costs/postgres.go
package costs

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/liduanken/bakery-quotation-agent/internal/common/database"
	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
	"github.com/liduanken/bakery-quotation-agent/internal/common/logger"
	"github.com/liduanken/bakery-quotation-agent/internal/models"
)

const costColumns = "name, unit, unit_cost, currency, last_updated"

// PostgresStore reads and writes material costs in the material_costs table.
type PostgresStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

// NewPostgresStore creates a cost store backed by the given Postgres client.
func NewPostgresStore(db *database.PostgresClient, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: log}
}

// LookupBulk fetches costs for the given names in one round trip.
// Names with no stored cost are omitted from the result.
func (s *PostgresStore) LookupBulk(ctx context.Context, names []string) (map[string]models.MaterialCost, error) {
	result := make(map[string]models.MaterialCost, len(names))
	if len(names) == 0 {
		return result, nil
	}

	lowered := make([]string, 0, len(names))
	for _, n := range names {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(n)))
	}

	rows, err := s.db.Query(ctx,
		"SELECT "+costColumns+" FROM material_costs WHERE LOWER(name) = ANY($1)",
		pq.Array(lowered))
	if err != nil {
		return nil, errors.NewMaterialLookupFailedError(err)
	}
	defer rows.Close()

	for rows.Next() {
		cost, err := scanCost(rows)
		if err != nil {
			return nil, errors.NewMaterialLookupFailedError(err)
		}
		result[strings.ToLower(cost.Name)] = cost
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewMaterialLookupFailedError(err)
	}
	return result, nil
}

// Get returns the cost for one material, or nil when none is stored.
func (s *PostgresStore) Get(ctx context.Context, name string) (*models.MaterialCost, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+costColumns+" FROM material_costs WHERE LOWER(name) = LOWER($1)",
		strings.TrimSpace(name))

	var cost models.MaterialCost
	var updated time.Time
	err := row.Scan(&cost.Name, &cost.Unit, &cost.UnitCost, &cost.Currency, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewMaterialLookupFailedError(err)
	}
	cost.LastUpdated = updated.UTC().Format(time.RFC3339)
	return &cost, nil
}

// List returns every stored cost ordered by material name.
func (s *PostgresStore) List(ctx context.Context) ([]models.MaterialCost, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+costColumns+" FROM material_costs ORDER BY name")
	if err != nil {
		return nil, errors.NewMaterialLookupFailedError(err)
	}
	defer rows.Close()
	return collectCosts(rows)
}

// Search returns costs whose name contains the pattern, case-insensitively.
func (s *PostgresStore) Search(ctx context.Context, pattern string) ([]models.MaterialCost, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+costColumns+" FROM material_costs WHERE LOWER(name) LIKE $1 ORDER BY name",
		"%"+strings.ToLower(strings.TrimSpace(pattern))+"%")
	if err != nil {
		return nil, errors.NewMaterialLookupFailedError(err)
	}
	defer rows.Close()
	return collectCosts(rows)
}

// Upsert inserts or updates one material cost. Used by the seeding tool.
func (s *PostgresStore) Upsert(ctx context.Context, cost models.MaterialCost) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO material_costs (name, unit, unit_cost, currency, last_updated)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (name) DO UPDATE
		SET unit = EXCLUDED.unit,
		    unit_cost = EXCLUDED.unit_cost,
		    currency = EXCLUDED.currency,
		    last_updated = NOW()`,
		strings.ToLower(strings.TrimSpace(cost.Name)), cost.Unit, cost.UnitCost, cost.Currency)
	if err != nil {
		return errors.NewMaterialLookupFailedError(err)
	}
	return nil
}

// EnsureSchema creates the material_costs table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS material_costs (
			name         TEXT PRIMARY KEY,
			unit         TEXT NOT NULL,
			unit_cost    DOUBLE PRECISION NOT NULL,
			currency     TEXT NOT NULL DEFAULT 'GBP',
			last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	return nil
}

func scanCost(rows *sql.Rows) (models.MaterialCost, error) {
	var cost models.MaterialCost
	var updated time.Time
	err := rows.Scan(&cost.Name, &cost.Unit, &cost.UnitCost, &cost.Currency, &updated)
	if err == nil {
		cost.LastUpdated = updated.UTC().Format(time.RFC3339)
	}
	return cost, err
}

func collectCosts(rows *sql.Rows) ([]models.MaterialCost, error) {
	var out []models.MaterialCost
	for rows.Next() {
		cost, err := scanCost(rows)
		if err != nil {
			return nil, errors.NewMaterialLookupFailedError(err)
		}
		out = append(out, cost)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewMaterialLookupFailedError(err)
	}
	return out, nil
}
