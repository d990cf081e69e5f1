package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"goenrich/domain/core"
	"goenrich/domain/enrich"
	"goenrich/ports"
)

// resultRepository implements the ResultRepository interface
type resultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new enrichment result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &resultRepository{db: db}
}

// StoreTable inserts all rows of a run's result table in one transaction
func (r *resultRepository) StoreTable(ctx context.Context, runID core.RunID, table enrich.Table) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO enrichment_results (
		run_id, set_name, coef, n_genes, correlation, delta, se,
		p_less, p_greater, p_value, direction, fdr
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, row := range table {
		if _, err := tx.ExecContext(ctx, query,
			runID.String(), row.Set.String(), row.Coef.String(), row.NGenes,
			row.Correlation, row.Delta, row.SE,
			row.PLess, row.PGreater, row.PValue, string(row.Direction), row.FDR,
		); err != nil {
			return fmt.Errorf("failed to store result for set %q: %w", row.Set, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit result table: %w", err)
	}
	return nil
}

// TableByRun retrieves a run's result table, preserving each coefficient's
// internal p-value ordering
func (r *resultRepository) TableByRun(ctx context.Context, runID core.RunID) (enrich.Table, error) {
	query := `SELECT
		set_name, coef, n_genes, correlation, delta, se,
		p_less, p_greater, p_value, direction, fdr
	FROM enrichment_results WHERE run_id = $1 ORDER BY coef, p_value`

	rows, err := r.db.QueryContext(ctx, query, runID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found: %s", runID)
		}
		return nil, fmt.Errorf("failed to load result table: %w", err)
	}
	defer rows.Close()

	var table enrich.Table
	for rows.Next() {
		var row enrich.Result
		var set, coef, direction string
		if err := rows.Scan(
			&set, &coef, &row.NGenes, &row.Correlation, &row.Delta, &row.SE,
			&row.PLess, &row.PGreater, &row.PValue, &direction, &row.FDR,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		row.Set = core.SetName(set)
		row.Coef = core.Coefficient(coef)
		row.Direction = enrich.Direction(direction)
		table = append(table, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read result rows: %w", err)
	}

	return table, nil
}
