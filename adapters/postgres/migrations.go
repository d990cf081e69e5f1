package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const createResultsTable = `
CREATE TABLE IF NOT EXISTS enrichment_results (
	run_id      TEXT             NOT NULL,
	set_name    TEXT             NOT NULL,
	coef        TEXT             NOT NULL,
	n_genes     INTEGER          NOT NULL,
	correlation DOUBLE PRECISION NOT NULL,
	delta       DOUBLE PRECISION NOT NULL,
	se          DOUBLE PRECISION NOT NULL,
	p_less      DOUBLE PRECISION NOT NULL,
	p_greater   DOUBLE PRECISION NOT NULL,
	p_value     DOUBLE PRECISION NOT NULL,
	direction   TEXT             NOT NULL,
	fdr         DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, set_name, coef)
);
CREATE INDEX IF NOT EXISTS idx_enrichment_results_run ON enrichment_results (run_id);
`

// EnsureSchema creates the result tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, createResultsTable); err != nil {
		return fmt.Errorf("failed to create enrichment_results table: %w", err)
	}
	return nil
}
