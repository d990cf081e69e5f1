package app

import (
	"context"
	"fmt"
	"time"

	"goenrich/adapters/stats/engine"
	"goenrich/domain/core"
	"goenrich/domain/enrich"
	"goenrich/domain/fit"
	"goenrich/domain/geneset"
	"goenrich/ports"
)

// DefaultMinSetSize is the smallest resolved set worth testing; tiny sets
// carry almost no competitive signal and destabilize the variance formulas.
const DefaultMinSetSize = 10

// EnrichmentService maps the single-coefficient engine over a gene-set
// database and a list of model coefficients.
type EnrichmentService struct {
	engine  *engine.Engine
	results ports.ResultRepository // optional; nil skips persistence
}

// NewEnrichmentService creates a batch enrichment service.
func NewEnrichmentService(eng *engine.Engine, results ports.ResultRepository) *EnrichmentService {
	return &EnrichmentService{engine: eng, results: results}
}

// BatchRequest defines the inputs for a multi-coefficient enrichment run.
type BatchRequest struct {
	Fit        *fit.ModelFit
	Sets       geneset.Collection
	Coefs      []core.Coefficient
	MinSetSize int // 0 means DefaultMinSetSize
	Options    engine.Options
	RunID      core.RunID // optional, generated if empty
}

// BatchResult contains the concatenated result table and audit metadata.
type BatchResult struct {
	RunID    core.RunID   `json:"run_id"`
	Table    enrich.Table `json:"table"`
	Manifest RunManifest  `json:"manifest"`
}

// RunManifest captures what a batch run saw and did. Audit metadata only;
// it has no bearing on the statistics.
type RunManifest struct {
	RunID        core.RunID         `json:"run_id"`
	NGenes       int                `json:"n_genes"`
	SetsSupplied int                `json:"sets_supplied"`
	SetsTested   int                `json:"sets_tested"`
	Coefs        []core.Coefficient `json:"coefs"`
	MinSetSize   int                `json:"min_set_size"`
	UseRanks     bool               `json:"use_ranks"`
	RuntimeMs    int64              `json:"runtime_ms"`
	CreatedAt    core.Timestamp     `json:"created_at"`
}

// Run resolves the collection against the fit, drops sets below the size
// threshold, and tests every surviving set once per coefficient. Each
// coefficient is its own FDR scope; tables are concatenated in coefficient
// order with each coefficient's internal p-value ordering preserved.
func (s *EnrichmentService) Run(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	startTime := time.Now()

	if req.Fit == nil {
		return nil, fmt.Errorf("%w: nil model fit", core.ErrPrecondition)
	}
	if len(req.Coefs) == 0 {
		return nil, fmt.Errorf("%w: no coefficients requested", core.ErrPrecondition)
	}
	if err := req.Fit.Validate(); err != nil {
		return nil, err
	}
	if err := req.Fit.RestrictResiduals(); err != nil {
		return nil, err
	}

	minSize := req.MinSetSize
	if minSize <= 0 {
		minSize = DefaultMinSetSize
	}

	resolved, err := req.Sets.ResolveAll(req.Fit.IndexByGene(), req.Fit.NGenes(), minSize)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, core.ErrNoSetsRemaining
	}

	// Hand the engine pre-resolved row positions so the size filter is
	// applied exactly once.
	filtered := make(geneset.Collection, len(resolved))
	for i, r := range resolved {
		filtered[i] = geneset.GeneSet{Name: r.Name, Indices: r.Indices}
	}

	runID := req.RunID
	if runID == "" {
		runID = core.RunID(core.NewID())
	}

	var table enrich.Table
	for _, coef := range req.Coefs {
		coefTable, err := s.engine.Run(ctx, req.Fit, coef, filtered, req.Options)
		if err != nil {
			return nil, fmt.Errorf("coefficient %q: %w", coef, err)
		}
		table = append(table, coefTable...)
	}

	if s.results != nil {
		if err := s.results.StoreTable(ctx, runID, table); err != nil {
			return nil, fmt.Errorf("failed to store result table: %w", err)
		}
	}

	return &BatchResult{
		RunID: runID,
		Table: table,
		Manifest: RunManifest{
			RunID:        runID,
			NGenes:       req.Fit.NGenes(),
			SetsSupplied: len(req.Sets),
			SetsTested:   len(resolved),
			Coefs:        req.Coefs,
			MinSetSize:   minSize,
			UseRanks:     req.Options.UseRanks,
			RuntimeMs:    time.Since(startTime).Milliseconds(),
			CreatedAt:    core.Now(),
		},
	}, nil
}
