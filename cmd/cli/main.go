package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"goenrich/adapters/genesets"
	"goenrich/adapters/postgres"
	"goenrich/adapters/stats/engine"
	"goenrich/app"
	"goenrich/domain/core"
	"goenrich/domain/fit"
	"goenrich/domain/geneset"
	"goenrich/internal"
	"goenrich/internal/config"
	apperrors "goenrich/internal/errors"
)

var logger = internal.NewDefaultLogger()

func main() {
	rootCmd := &cobra.Command{
		Use:   "goenrich-cli",
		Short: "Competitive gene-set enrichment testing against a fitted model's statistics",
	}

	rootCmd.AddCommand(newRunCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		statsPath     string
		residualsPath string
		gmtPath       string
		coefs         []string
		dfResidual    float64
		dfTotal       float64
		useRanks      bool
		allowNegCor   bool
		estimateCor   bool
		interGeneCor  float64
		minSetSize    int
		progressbar   bool
		store         bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch enrichment over a GMT collection",
		Long: `Run competitive gene-set enrichment for one or more coefficients.

The statistics file is tab-separated with one "gene<TAB>statistic" column pair
per coefficient; the residuals file is "gene<TAB>sample values...". Example:

  goenrich-cli run --stats stats.tsv --residuals resid.tsv --gmt hallmark.gmt --coef treatment`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			// .env is optional; the environment itself wins
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("inter-gene-cor") {
				interGeneCor = cfg.Run.InterGeneCorrelation
			}
			if !cmd.Flags().Changed("min-set-size") {
				minSetSize = cfg.Run.MinSetSize
			}

			modelFit, err := loadFit(statsPath, residualsPath, coefs, dfResidual, dfTotal)
			if err != nil {
				return err
			}

			db, err := genesets.NewGMTFile(gmtPath).Sets(ctx)
			if err != nil {
				return err
			}

			opts := engine.DefaultOptions()
			opts.UseRanks = useRanks
			opts.AllowNegCorrelation = allowNegCor
			opts.EstimateCorrelation = estimateCor
			opts.InterGeneCorrelation = interGeneCor
			opts.Workers = cfg.Run.Workers
			if progressbar {
				opts.Progress = stderrProgress{}
			}

			service, cleanup, err := buildService(ctx, cfg, store)
			if err != nil {
				return err
			}
			defer cleanup()

			coefIDs := make([]core.Coefficient, len(coefs))
			for i, c := range coefs {
				coefIDs[i], err = core.ParseCoefficient(c)
				if err != nil {
					return err
				}
			}

			result, err := service.Run(ctx, app.BatchRequest{
				Fit:        modelFit,
				Sets:       geneset.FromMap(db),
				Coefs:      coefIDs,
				MinSetSize: minSetSize,
				Options:    opts,
			})
			if err != nil {
				return err
			}

			printTable(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&statsPath, "stats", "", "tab-separated per-gene statistics file (required)")
	cmd.Flags().StringVar(&residualsPath, "residuals", "", "tab-separated residual matrix file (required)")
	cmd.Flags().StringVar(&gmtPath, "gmt", "", "gene-set collection in GMT format (required)")
	cmd.Flags().StringSliceVar(&coefs, "coef", []string{"coef1"}, "coefficient labels, one per statistic column")
	cmd.Flags().Float64Var(&dfResidual, "df-residual", 0, "residual degrees of freedom of the fit (required)")
	cmd.Flags().Float64Var(&dfTotal, "df-total", 0, "total degrees of freedom of the fit (defaults to --df-residual)")
	cmd.Flags().BoolVar(&useRanks, "use-ranks", false, "use the rank-sum test instead of the parametric test")
	cmd.Flags().BoolVar(&allowNegCor, "allow-neg-cor", false, "allow negative intra-set correlation")
	cmd.Flags().BoolVar(&estimateCor, "estimate-cor", false, "estimate intra-set correlation from residuals")
	cmd.Flags().Float64Var(&interGeneCor, "inter-gene-cor", engine.DefaultInterGeneCorrelation, "fixed intra-set correlation")
	cmd.Flags().IntVar(&minSetSize, "min-set-size", app.DefaultMinSetSize, "smallest resolved set to test")
	cmd.Flags().BoolVar(&progressbar, "progress", false, "report progress to stderr")
	cmd.Flags().BoolVar(&store, "store", false, "persist the result table to postgres (DATABASE_URL)")
	_ = cmd.MarkFlagRequired("stats")
	_ = cmd.MarkFlagRequired("residuals")
	_ = cmd.MarkFlagRequired("gmt")
	_ = cmd.MarkFlagRequired("df-residual")

	return cmd
}

// buildService wires the batch service, optionally with postgres persistence.
func buildService(ctx context.Context, cfg *config.Config, store bool) (*app.EnrichmentService, func(), error) {
	if !store {
		return app.NewEnrichmentService(engine.New(), nil), func() {}, nil
	}

	if err := cfg.RequireDatabase(); err != nil {
		return nil, nil, apperrors.Wrap(err, "--store needs a database")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to connect to postgres")
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Debug("postgres schema ready")
	service := app.NewEnrichmentService(engine.New(), postgres.NewResultRepository(db))
	return service, func() { db.Close() }, nil
}

// loadFit reads the per-gene statistics and residual matrix into a
// linear-family model fit.
func loadFit(statsPath, residualsPath string, coefs []string, dfResidual, dfTotal float64) (*fit.ModelFit, error) {
	if dfTotal == 0 {
		dfTotal = dfResidual
	}

	statRows, err := readTSV(statsPath)
	if err != nil {
		return nil, err
	}
	geneIDs := make([]core.GeneID, len(statRows))
	statistics := make(map[core.Coefficient][]float64, len(coefs))
	for c := range coefs {
		statistics[core.Coefficient(coefs[c])] = make([]float64, len(statRows))
	}
	for i, row := range statRows {
		if len(row.values) != len(coefs) {
			return nil, fmt.Errorf("%s: gene %q has %d statistics for %d coefficients",
				statsPath, row.gene, len(row.values), len(coefs))
		}
		geneIDs[i] = core.GeneID(row.gene)
		for c := range coefs {
			statistics[core.Coefficient(coefs[c])][i] = row.values[c]
		}
	}

	residRows, err := readTSV(residualsPath)
	if err != nil {
		return nil, err
	}
	residuals := make([][]float64, len(residRows))
	residGenes := make([]core.GeneID, len(residRows))
	for i, row := range residRows {
		residuals[i] = row.values
		residGenes[i] = core.GeneID(row.gene)
	}

	return &fit.ModelFit{
		Family:          fit.FamilyLinear,
		GeneIDs:         geneIDs,
		Statistics:      statistics,
		Residuals:       residuals,
		ResidualGeneIDs: residGenes,
		DFResidual:      dfResidual,
		DFTotal:         dfTotal,
	}, nil
}

type tsvRow struct {
	gene   string
	values []float64
}

func readTSV(path string) ([]tsvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var rows []tsvRow
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s:%d: expected gene and at least one value", path, lineNo)
		}
		values := make([]float64, len(fields)-1)
		for i, field := range fields[1:] {
			values[i], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: bad value %q: %w", path, lineNo, field, err)
			}
		}
		rows = append(rows, tsvRow{gene: fields[0], values: values})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

func printTable(result *app.BatchResult) {
	logger.Info("run %s: %d genes, %d of %d sets tested, %d ms",
		result.RunID, result.Manifest.NGenes, result.Manifest.SetsTested,
		result.Manifest.SetsSupplied, result.Manifest.RuntimeMs)
	fmt.Printf("%-40s %-12s %6s %9s %10s %10s %10s %5s %10s\n",
		"Set", "Coef", "N", "Cor", "delta", "se", "PValue", "Dir", "FDR")
	for _, row := range result.Table {
		fmt.Printf("%-40s %-12s %6d %9.4f %10.4f %10.4f %10.3e %5s %10.3e\n",
			row.Set, row.Coef, row.NGenes, row.Correlation, row.Delta, row.SE,
			row.PValue, row.Direction, row.FDR)
	}
}

// stderrProgress prints coarse batch progress.
type stderrProgress struct{}

func (stderrProgress) Advance(unitsDone, unitsTotal int64) {
	if unitsTotal <= 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\rprogress: %3.0f%%", 100*float64(unitsDone)/float64(unitsTotal))
	if unitsDone >= unitsTotal {
		fmt.Fprintln(os.Stderr)
	}
}
