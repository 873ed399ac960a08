package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TFMV/planscribe/cmd/planscribe/config"
	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/infrastructure/metrics"
	"github.com/TFMV/planscribe/pkg/models"
	"github.com/TFMV/planscribe/pkg/repositories/duckdb"
	"github.com/TFMV/planscribe/pkg/repositories/filesystem"
	"github.com/TFMV/planscribe/pkg/services"
)

// stdinName labels documents read from standard input.
const stdinName = "-"

func newNarrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "narrate [file]",
		Short: "Narrate one plan document",
		Long: `Narrate one plan document read from a file, or from standard input when
the file is omitted or "-".

Example:
  planscribe narrate plan.json
  psql -XqAt -c "EXPLAIN (FORMAT JSON) SELECT 1" | planscribe narrate`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runNarrate,
	}
	cmd.Flags().StringP("output", "o", "", "write the narrative to this file instead of stdout")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Narrate every plan document in a directory",
		Long: `Narrate every document matching the pattern in the input directory and
write one .txt narrative per document into the output directory.

Example:
  planscribe batch --input-dir ./plans --output-dir ./narratives`,
		Args: cobra.NoArgs,
		RunE: a.runBatch,
	}
	cmd.Flags().String("input-dir", ".", "directory holding plan documents")
	cmd.Flags().String("output-dir", "", "directory for narratives (defaults to input-dir)")
	cmd.Flags().String("pattern", filesystem.DefaultPattern, "glob selecting plan documents")
	cmd.Flags().Int("concurrency", 4, "documents narrated at once")
	cmd.Flags().String("report", "text", "report format (text, json)")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Print the node table, execution order and narrative of a plan",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runInspect,
	}
	cmd.Flags().StringP("format", "f", "yaml", "output format (yaml, json)")
	return cmd
}

func newExplainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain [query]",
		Short: "Ask DuckDB for a query plan and narrate it",
		Long: `Run EXPLAIN (FORMAT JSON) for the query on a DuckDB database and narrate
the returned plan.

Example:
  planscribe explain --database shop.duckdb "SELECT * FROM orders WHERE amount > 100"
  planscribe explain --setup "CREATE TABLE t (id INTEGER)" "SELECT * FROM t"`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runExplain,
	}
	cmd.Flags().String("database", "", "DuckDB database path (empty for in-memory)")
	cmd.Flags().String("motherduck-token", "", "MotherDuck token for md: databases")
	cmd.Flags().StringP("query", "q", "", "query to explain")
	cmd.Flags().StringArray("setup", nil, "statement to run before explaining (repeatable)")
	cmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	return cmd
}

// newCLINarrationService builds the service used by the one-shot commands.
func newCLINarrationService(cfg *config.Config, logger zerolog.Logger) services.NarrationService {
	return services.NewNarrationService(
		services.NarrationOptions{Workers: cfg.Workers},
		newLoggerAdapter(logger, "narration_service"),
		&serviceMetricsAdapter{collector: metrics.NewNoOpCollector()},
	)
}

func (a *app) runNarrate(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg.LogLevel, cmd.ErrOrStderr())

	name, data, err := a.readInput(cmd, args)
	if err != nil {
		return err
	}

	result, err := newCLINarrationService(cfg, logger).Narrate(cmd.Context(), &models.NarrateRequest{
		Name:     name,
		Document: data,
		Source:   "cli",
	})
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		_, err = io.WriteString(cmd.OutOrStdout(), result.Narrative)
		return err
	}
	if err := afero.WriteFile(a.fs, output, []byte(result.Narrative), 0o644); err != nil {
		return errors.Wrapf(err, errors.CodeSinkFailed, "failed to write %s", output)
	}
	return nil
}

func (a *app) runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg.LogLevel, cmd.ErrOrStderr())

	repo := filesystem.New(a.fs, filesystem.Config{
		InputDir:  cfg.Batch.InputDir,
		OutputDir: cfg.Batch.OutputDir,
		Pattern:   cfg.Batch.Pattern,
	}, logger.With().Str("component", "filesystem").Logger())

	batch := services.NewBatchService(
		repo,
		repo,
		newCLINarrationService(cfg, logger),
		cfg.Batch.Concurrency,
		newLoggerAdapter(logger, "batch_service"),
		&serviceMetricsAdapter{collector: metrics.NewNoOpCollector()},
	)

	report, runErr := batch.Run(cmd.Context())
	if report == nil {
		return runErr
	}

	format, _ := cmd.Flags().GetString("report")
	if err := writeBatchReport(cmd.OutOrStdout(), format, report); err != nil {
		return err
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("%d of %d documents failed", len(report.Failures), report.Total)
	}
	return nil
}

func writeBatchReport(w io.Writer, format string, report *models.BatchReport) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "text":
		fmt.Fprintf(w, "run %s: narrated %d of %d documents in %s\n",
			report.RunID, report.Succeeded, report.Total, report.Duration.Round(time.Millisecond))
		for _, out := range report.Outputs {
			fmt.Fprintf(w, "  wrote %s\n", out)
		}
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  failed %s [%s]: %s\n", f.Name, f.Code, f.Error)
		}
		return nil
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func (a *app) runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg.LogLevel, cmd.ErrOrStderr())

	_, data, err := a.readInput(cmd, args)
	if err != nil {
		return err
	}

	n, err := newCLINarrationService(cfg, logger).Inspect(cmd.Context(), data)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(n); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(n)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func (a *app) runExplain(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg.LogLevel, cmd.ErrOrStderr())

	query, _ := cmd.Flags().GetString("query")
	if len(args) == 1 {
		query = args[0]
	}
	if strings.TrimSpace(query) == "" {
		return errors.New(errors.CodeInvalidRequest, "a query is required")
	}

	repo, err := duckdb.Open(cmd.Context(), duckdb.ResolveDSN(cfg.DuckDB.DSN, cfg.DuckDB.Token), logger.With().Str("component", "duckdb").Logger())
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := services.NewExplainService(
		repo,
		newCLINarrationService(cfg, logger),
		newLoggerAdapter(logger, "explain_service"),
		&serviceMetricsAdapter{collector: metrics.NewNoOpCollector()},
	)
	if err := svc.Setup(cmd.Context(), cfg.DuckDB.Setup); err != nil {
		return err
	}

	result, err := svc.Explain(cmd.Context(), query)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch strings.ToLower(format) {
	case "text":
		_, err = io.WriteString(cmd.OutOrStdout(), result.Narration.Narrative)
		return err
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// readInput returns the document named by args, or standard input.
func (a *app) readInput(cmd *cobra.Command, args []string) (string, []byte, error) {
	if len(args) == 0 || args[0] == stdinName {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", nil, errors.Wrap(err, errors.CodeSourceFailed, "failed to read standard input")
		}
		return stdinName, data, nil
	}

	data, err := afero.ReadFile(a.fs, args[0])
	if err != nil {
		return "", nil, errors.Wrapf(err, errors.CodeSourceFailed, "failed to read %s", args[0])
	}
	return args[0], data, nil
}
