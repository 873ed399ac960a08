// Package main provides the entry point for the planscribe CLI.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TFMV/planscribe/cmd/planscribe/config"
)

var (
	// Version information (set by build flags)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// envPrefix namespaces environment overrides, e.g. PLANSCRIBE_LOG_LEVEL.
const envPrefix = "PLANSCRIBE"

// app carries what every command shares.
type app struct {
	fs afero.Fs
	v  *viper.Viper
}

func newApp(fs afero.Fs) *app {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &app{fs: fs, v: v}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "planscribe",
		Short: "Turn query execution plans into step-by-step narratives",
		Long: `planscribe reads a JSON query execution plan (PostgreSQL EXPLAIN
(FORMAT JSON) output or a bare plan node) and writes a numbered, plain-English
description of the steps the database performs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to viper
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("workers", 1, "goroutines rendering nodes of one plan")

	rootCmd.AddCommand(
		newNarrateCmd(a),
		newBatchCmd(a),
		newInspectCmd(a),
		newExplainCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "planscribe\n")
			fmt.Fprintf(out, "Version:    %s\n", version)
			fmt.Fprintf(out, "Commit:     %s\n", commit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	}
}

func main() {
	if err := newRootCmd(newApp(afero.NewOsFs())).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// override copies one flag into the configuration when it was given on the
// command line or through the environment.
type override struct {
	flag  string
	apply func(v *viper.Viper, cfg *config.Config)
}

var overrides = []override{
	{"log-level", func(v *viper.Viper, c *config.Config) { c.LogLevel = v.GetString("log-level") }},
	{"workers", func(v *viper.Viper, c *config.Config) { c.Workers = v.GetInt("workers") }},
	{"input-dir", func(v *viper.Viper, c *config.Config) { c.Batch.InputDir = v.GetString("input-dir") }},
	{"output-dir", func(v *viper.Viper, c *config.Config) { c.Batch.OutputDir = v.GetString("output-dir") }},
	{"pattern", func(v *viper.Viper, c *config.Config) { c.Batch.Pattern = v.GetString("pattern") }},
	{"concurrency", func(v *viper.Viper, c *config.Config) { c.Batch.Concurrency = v.GetInt("concurrency") }},
	{"address", func(v *viper.Viper, c *config.Config) { c.Server.Address = v.GetString("address") }},
	{"shutdown-timeout", func(v *viper.Viper, c *config.Config) { c.Server.ShutdownTimeout = v.GetDuration("shutdown-timeout") }},
	{"max-body-bytes", func(v *viper.Viper, c *config.Config) { c.Server.MaxBodyBytes = v.GetInt64("max-body-bytes") }},
	{"metrics", func(v *viper.Viper, c *config.Config) { c.Metrics.Enabled = v.GetBool("metrics") }},
	{"metrics-address", func(v *viper.Viper, c *config.Config) { c.Metrics.Address = v.GetString("metrics-address") }},
	{"cache", func(v *viper.Viper, c *config.Config) { c.Cache.Enabled = v.GetBool("cache") }},
	{"cache-size", func(v *viper.Viper, c *config.Config) { c.Cache.MaxSize = v.GetInt64("cache-size") }},
	{"cache-ttl", func(v *viper.Viper, c *config.Config) { c.Cache.TTL = v.GetDuration("cache-ttl") }},
	{"database", func(v *viper.Viper, c *config.Config) { c.DuckDB.DSN = v.GetString("database") }},
	{"motherduck-token", func(v *viper.Viper, c *config.Config) { c.DuckDB.Token = v.GetString("motherduck-token") }},
	{"setup", func(v *viper.Viper, c *config.Config) { c.DuckDB.Setup = v.GetStringSlice("setup") }},
}

// loadConfig layers defaults, the config file, then flags and environment.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	// Load config file if specified
	if configFile := a.v.GetString("config"); configFile != "" {
		loaded, err := config.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	for _, o := range overrides {
		if a.isSet(cmd, o.flag) {
			o.apply(a.v, cfg)
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// isSet reports whether the command defines flag and the user supplied it.
func (a *app) isSet(cmd *cobra.Command, flag string) bool {
	f := cmd.Flags().Lookup(flag)
	if f == nil {
		return false
	}
	if f.Changed {
		return true
	}
	_, ok := os.LookupEnv(envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_")))
	return ok
}

func setupLogging(level string, w io.Writer) zerolog.Logger {
	// Configure zerolog
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond

	// Set log level
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
		zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
			short := file
			for i := len(file) - 1; i > 0; i-- {
				if file[i] == '/' {
					short = file[i+1:]
					break
				}
			}
			return fmt.Sprintf("%s:%d", short, line)
		}
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	logger := zerolog.New(w).
		Level(logLevel).
		With().
		Timestamp().
		Str("service", "planscribe")

	if logLevel == zerolog.DebugLevel {
		logger = logger.Caller()
	}

	return logger.Logger()
}
