package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seriate-io/seriate/pkg/compression"
	"github.com/seriate-io/seriate/pkg/config"
	"github.com/seriate-io/seriate/pkg/formats/columnar"
	"github.com/seriate-io/seriate/pkg/ingest"
	"github.com/seriate-io/seriate/pkg/logger"
	"github.com/seriate-io/seriate/pkg/observability"
	"github.com/seriate-io/seriate/pkg/schema"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "seriate",
		Short: "Seriate - dynamic columnar series builder",
		Long: `Seriate converts streams of schema-less JSON events into strongly
typed Arrow batches, inferring types on the fly and cutting batch
boundaries where events disagree.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Seriate v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newConvertCommand())
	root.AddCommand(newSchemaCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newConvertCommand() *cobra.Command {
	var configFile string
	flags := config.Default()

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert NDJSON events to Arrow IPC files",
		Long: `Convert reads newline-delimited JSON events, builds typed columnar
batches, and writes one Arrow IPC file per emitted schema.

Example:
  seriate convert --in events.ndjson --out events.arrow --batch-rows 65536`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mergeConfig(cmd, configFile, flags)
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML/JSON configuration file (optional)")
	cmd.Flags().StringVar(&flags.Input, "in", "-", "NDJSON input path, - for stdin")
	cmd.Flags().StringVar(&flags.Output, "out", "", "Arrow IPC output path (required unless set in config)")
	cmd.Flags().StringVar(&flags.SchemaFile, "protect", "", "Type declaration file; writes that do not cast into it are skipped")
	cmd.Flags().StringVar(&flags.SchemaName, "schema-name", "", "Name assigned to emitted batches")
	cmd.Flags().IntVar(&flags.BatchRows, "batch-rows", 0, "Cut a batch every N rows; 0 cuts only at conflicts and end of input")
	cmd.Flags().StringVar(&flags.Compression, "compress", "none", "Output compression (none, zstd, lz4)")
	cmd.Flags().BoolVar(&flags.Strict, "strict", false, "Abort on the first undecodable or rejected event")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.MetricsAddr, "metrics-addr", "", "Address to expose Prometheus metrics on (e.g. :9090)")
	cmd.Flags().BoolVar(&flags.Trace, "trace", false, "Emit OpenTelemetry spans to stdout")

	return cmd
}

// mergeConfig loads the config file (if any) and lets explicitly set
// command-line flags win over it.
func mergeConfig(cmd *cobra.Command, configFile string, flags *config.Config) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("in") {
		cfg.Input = flags.Input
	}
	if cmd.Flags().Changed("out") {
		cfg.Output = flags.Output
	}
	if cmd.Flags().Changed("protect") {
		cfg.SchemaFile = flags.SchemaFile
	}
	if cmd.Flags().Changed("schema-name") {
		cfg.SchemaName = flags.SchemaName
	}
	if cmd.Flags().Changed("batch-rows") {
		cfg.BatchRows = flags.BatchRows
	}
	if cmd.Flags().Changed("compress") {
		cfg.Compression = flags.Compression
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict = flags.Strict
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr = flags.MetricsAddr
	}
	if cmd.Flags().Changed("trace") {
		cfg.Trace = flags.Trace
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConvert(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Encoding: "json"}); err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := observability.NewStructuredLogger("seriate-cli")

	if cfg.Trace {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    "seriate",
			ServiceVersion: version,
			SamplingRate:   1.0,
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = shutdown(context.Background())
		}()
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Warn("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	opts := ingest.Options{
		SchemaName: cfg.SchemaName,
		BatchRows:  cfg.BatchRows,
		Strict:     cfg.Strict,
	}
	if cfg.SchemaFile != "" {
		ty, err := schema.ParseFile(cfg.SchemaFile)
		if err != nil {
			return err
		}
		opts.Protect = &ty
	}

	in := os.Stdin
	if cfg.Input != "-" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return fmt.Errorf("failed to open input %s: %w", cfg.Input, err)
		}
		defer f.Close()
		in = f
	}

	algo, err := compression.ParseAlgorithm(cfg.Compression)
	if err != nil {
		return err
	}
	if algo == compression.None {
		algo = compression.ForPath(cfg.Output)
	}

	ctx, span := observability.GetTracer().Start(ctx, "convert")
	defer span.End()

	op := log.WithOperation("convert")
	start := time.Now()
	result, err := ingest.Run(ctx, in, opts)
	if err != nil {
		op.Fail(err)
		return err
	}

	out := columnar.NewFileSet(cfg.Output, algo)
	for _, b := range result.Batches {
		if err := out.Write(b); err != nil {
			out.Close()
			op.Fail(err)
			return err
		}
	}
	if err := out.Close(); err != nil {
		op.Fail(err)
		return err
	}

	duration := time.Since(start)
	op.Complete(
		zap.Int64("events", result.Events),
		zap.Int64("skipped", result.Skipped),
		zap.Int("batches", len(result.Batches)),
		zap.Strings("outputs", out.Paths()),
		zap.Float64("events_per_second", float64(result.Events)/duration.Seconds()))
	return nil
}

func newSchemaCommand() *cobra.Command {
	var input string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Infer and print the unified type of an NDJSON input",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(logger.Config{Level: logLevel, Encoding: "json"}); err != nil {
				return err
			}
			in := os.Stdin
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("failed to open input %s: %w", input, err)
				}
				defer f.Close()
				in = f
			}
			result, err := ingest.Run(cmd.Context(), in, ingest.Options{})
			if err != nil {
				return err
			}
			for _, b := range result.Batches {
				fmt.Printf("%s: %s (%d rows)\n", b.Name, b.Type, b.Record.NumRows())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "in", "-", "NDJSON input path, - for stdin")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	return cmd
}
