package ports

import (
	"context"

	"goenrich/domain/core"
	"goenrich/domain/enrich"
)

// ResultRepository persists enrichment result tables for downstream
// reporting. One row per (gene set, coefficient).
type ResultRepository interface {
	StoreTable(ctx context.Context, runID core.RunID, table enrich.Table) error
	TableByRun(ctx context.Context, runID core.RunID) (enrich.Table, error)
}
