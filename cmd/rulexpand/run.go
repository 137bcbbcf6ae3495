package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rulexpand/rulexpand/internal/config"
	"github.com/rulexpand/rulexpand/internal/fetch"
	"github.com/rulexpand/rulexpand/internal/logging"
	"github.com/rulexpand/rulexpand/internal/observability"
	"github.com/rulexpand/rulexpand/internal/pipeline"
	"github.com/rulexpand/rulexpand/internal/publish"
	"github.com/rulexpand/rulexpand/internal/ratelimit"
	"github.com/rulexpand/rulexpand/internal/report"
	"github.com/rulexpand/rulexpand/internal/resolve"
)

type runOverrides struct {
	inDir   string
	outDir  string
	ext     string
	timeout time.Duration
	publish bool
}

func newRunCmd() *cobra.Command {
	var configPath string
	var overrides runOverrides
	var summaryFormat string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Expand every input rule list into the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyOverrides(cfg, overrides)
			if err := cfg.Validate(); err != nil {
				return err
			}
			switch summaryFormat {
			case "text", "json":
			default:
				return fmt.Errorf("unknown summary format %q", summaryFormat)
			}
			return runExpand(cmd.Context(), cfg, cmd.OutOrStdout(), summaryFormat)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (defaults apply when omitted)")
	cmd.Flags().StringVar(&overrides.inDir, "in", "", "Override input directory")
	cmd.Flags().StringVar(&overrides.outDir, "out", "", "Override output directory")
	cmd.Flags().StringVar(&overrides.ext, "ext", "", "Override input file extension")
	cmd.Flags().DurationVar(&overrides.timeout, "timeout", 0, "Override per-reference fetch timeout")
	cmd.Flags().BoolVar(&overrides.publish, "publish", false, "Run the configured publish command after expanding")
	cmd.Flags().StringVar(&summaryFormat, "summary", "text", "Summary format: text|json")

	return cmd
}

func applyOverrides(cfg *config.Config, o runOverrides) {
	if o.inDir != "" {
		cfg.Input.Dir = o.inDir
	}
	if o.outDir != "" {
		cfg.Output.Dir = o.outDir
	}
	if o.ext != "" {
		cfg.Input.Ext = o.ext
	}
	if o.timeout > 0 {
		cfg.Fetch.Timeout = o.timeout
	}
	if o.publish {
		cfg.Publish.Enabled = true
	}
}

func runExpand(ctx context.Context, cfg *config.Config, stdout io.Writer, summaryFormat string) error {
	logger, closeLog, err := logging.New(os.Stderr, logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.ResolvePath(cfg.Logging.File),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	logger = logger.With("run_id", uuid.NewString())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	p := buildPipeline(cfg, logger, metrics)
	logger.Info("starting run", "input", cfg.ResolvePath(cfg.Input.Dir), "output", p.OutputDir)

	summary, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrInputMissing) {
			logger.Error("input directory missing", "error", err)
		}
		return err
	}

	if cfg.Metrics.Textfile != "" {
		if err := observability.WriteTextfile(cfg.ResolvePath(cfg.Metrics.Textfile), reg); err != nil {
			logger.Warn("write metrics textfile failed", "error", err)
		}
	}

	if err := writeSummary(stdout, summary, summaryFormat); err != nil {
		return err
	}

	if failed := len(summary.Files) - summary.Succeeded(); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(summary.Files))
	}
	return nil
}

func buildPipeline(cfg *config.Config, logger logging.Logger, metrics *observability.Metrics) *pipeline.Pipeline {
	opts := fetch.Options{Timeout: cfg.Fetch.Timeout, UserAgent: cfg.Fetch.UserAgent}
	if cfg.Fetch.RateLimit.Enabled {
		opts.Limiter = ratelimit.NewLimiter(cfg.Fetch.RateLimit.RPS, cfg.Fetch.RateLimit.Burst)
	}

	resolver := resolve.New(fetch.New(opts))
	resolver.SetMetrics(metrics)

	p := &pipeline.Pipeline{
		Lister: pipeline.DirLister{Dir: cfg.ResolvePath(cfg.Input.Dir), Ext: cfg.Input.Ext},
		Aggregator: &pipeline.Aggregator{
			Resolver:         resolver,
			Logger:           logger,
			ExpandDomainSets: cfg.ExpandDomainSets,
		},
		OutputDir: cfg.ResolvePath(cfg.Output.Dir),
		Logger:    logger,
		Metrics:   metrics,
	}

	if cfg.Publish.Enabled {
		p.Publisher = publish.Runner{}
		p.PublishCommand = publish.Command{
			Name:    cfg.Publish.Command[0],
			Args:    cfg.Publish.Command[1:],
			Dir:     cfg.ResolvePath(cfg.Publish.Dir),
			Timeout: cfg.Publish.Timeout,
		}
	}
	return p
}

func writeSummary(w io.Writer, summary report.Summary, format string) error {
	if format == "json" {
		data, err := report.RenderJSON(summary)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err := io.WriteString(w, report.RenderText(summary))
	return err
}
