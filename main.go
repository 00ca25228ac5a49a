package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/TFMV/fdgraph/config"
	"github.com/TFMV/fdgraph/expand"
	"github.com/TFMV/fdgraph/fetch"
	"github.com/TFMV/fdgraph/graph"
	"github.com/TFMV/fdgraph/ingest"
	"github.com/TFMV/fdgraph/layout"
	"github.com/TFMV/fdgraph/metrics"
	"github.com/TFMV/fdgraph/models"
	"github.com/TFMV/fdgraph/physics"
	"github.com/TFMV/fdgraph/render"
	"github.com/TFMV/fdgraph/server"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	debugMode bool

	success = color.New(color.FgHiGreen, color.Bold)
	warning = color.New(color.FgYellow)
	subtle  = color.New(color.FgHiBlack)
)

// layoutOptions are the flags of the layout command
type layoutOptions struct {
	Format     string
	OutputFile string
	Iterations int
	Timeout    time.Duration
}

// layoutResult reports how a batch layout went
type layoutResult struct {
	Output     []byte
	Vertices   int
	Edges      int
	Iterations int
	Stable     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fdgraph",
		Short:         "Force-directed layout for entity graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	root.AddCommand(newLayoutCmd(), newServeCmd(), newConfigCmd())
	return root
}

func newLayoutCmd() *cobra.Command {
	opts := layoutOptions{}
	cmd := &cobra.Command{
		Use:   "layout <file>",
		Short: "Lay out a JSON or CSV graph file and render it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if opts.OutputFile == "" {
				opts.OutputFile = "output." + strings.ToLower(opts.Format)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := layoutFile(ctx, cfg, args[0], opts, logger)
			if err != nil {
				return err
			}
			if err := os.WriteFile(opts.OutputFile, result.Output, 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}

			if !result.Stable {
				warning.Printf("Layout did not settle within %d iterations\n", result.Iterations)
			}
			success.Printf("Wrote %s ", opts.OutputFile)
			subtle.Printf("(%d vertices, %d edges, %d iterations)\n", result.Vertices, result.Edges, result.Iterations)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "svg", "Output format: svg, json, dot")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Output file (defaults to output.<format>)")
	cmd.Flags().IntVar(&opts.Iterations, "iterations", 1000, "Maximum simulation steps")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Give up on settling after this long")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the live graph over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var fetcher ingest.Fetcher
			if cfg.Fetch.BaseURL != "" {
				client, err := fetch.NewClient(cfg.ClientConfig(), logger)
				if err != nil {
					return err
				}
				fetcher = client
			} else {
				warning.Println("No fetch.base_url configured; load and expand are disabled")
			}

			boxes := render.NewBoxMetrics()
			collector := metrics.NewCollector("fdgraph")
			manager := newManager(cfg, boxes, fetcher, logger)
			expander := expand.NewController(manager, fetcher, logger, collector, cfg.ExpandOptions())
			srv := server.New(manager, expander, collector, logger, server.Config{
				Addr:            cfg.Server.Addr,
				TickInterval:    cfg.Server.TickInterval,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				AllowedOrigins:  cfg.Server.AllowedOrigins,
				Width:           cfg.Canvas.Width,
				Height:          cfg.Canvas.Height,
				Boxes:           boxes,
			})

			success.Printf("Serving on %s\n", cfg.Server.Addr)
			return srv.Run(ctx)
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Log, debugMode)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg config.LogConfig, debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if debug {
		zc = zap.NewDevelopmentConfig()
	} else {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = level
		zc.Encoding = cfg.Format
	}
	return zc.Build()
}

func newManager(cfg *config.Config, boxes *render.BoxMetrics, fetcher ingest.Fetcher, logger *zap.Logger) *graph.Manager {
	initializer := layout.NewInitializer(cfg.Canvas.Width, cfg.Canvas.Height)
	initializer.ComponentRadius = cfg.Layout.ComponentRadius
	initializer.LayerRadius = cfg.Layout.LayerRadius
	initializer.AppendRadius = cfg.Layout.AppendRadius

	return graph.NewManager(graph.Config{
		Simulator:   physics.NewSimulator(cfg.PhysicsParams(), boxes, cfg.Physics.Seed),
		Initializer: initializer,
		Fetcher:     fetcher,
		Logger:      logger,
		MinEntities: cfg.Fetch.MinEntities,
	})
}

// layoutFile reads a graph file, simulates until it settles and renders it
func layoutFile(ctx context.Context, cfg *config.Config, path string, opts layoutOptions, logger *zap.Logger) (layoutResult, error) {
	renderer, err := render.GetRenderer(opts.Format)
	if err != nil {
		return layoutResult{}, err
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	processor, err := ingest.GetProcessor(format)
	if err != nil {
		return layoutResult{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return layoutResult{}, fmt.Errorf("failed to read file: %w", err)
	}
	resp, err := processor.ProcessData(data)
	if err != nil {
		return layoutResult{}, fmt.Errorf("failed to process data: %w", err)
	}
	if resp.Len() == 0 {
		return layoutResult{}, fmt.Errorf("%s: %w", path, models.ErrInsufficientData)
	}

	boxes := render.NewBoxMetrics()
	manager := newManager(cfg, boxes, nil, logger)
	if _, err := manager.Apply(resp, false, nil); err != nil {
		return layoutResult{}, err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	result := layoutResult{}
	for result.Iterations < opts.Iterations && !result.Stable {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				logger.Warn("simulation timed out, using partial layout",
					zap.Int("iterations", result.Iterations))
				break
			}
			return layoutResult{}, err
		}
		result.Stable = manager.Simulate()
		result.Iterations++
	}

	options := render.NewDefaultOptions(opts.Format)
	options.Width = cfg.Canvas.Width
	options.Height = cfg.Canvas.Height
	options.Boxes = boxes
	manager.View(func(g *models.Graph) {
		result.Output, err = renderer.Render(g, options)
	})
	if err != nil {
		return layoutResult{}, fmt.Errorf("rendering failed: %w", err)
	}

	result.Vertices, result.Edges = manager.Stats()
	logger.Debug("layout finished",
		zap.String("file", path),
		zap.Int("iterations", result.Iterations),
		zap.Bool("stable", result.Stable))
	return result, nil
}
