package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/angelstreet/virtualpytest-sub017/pkg/artifacts"
	"github.com/angelstreet/virtualpytest-sub017/pkg/config"
	"github.com/angelstreet/virtualpytest-sub017/pkg/controller"
	"github.com/angelstreet/virtualpytest-sub017/pkg/controller/mock"
	"github.com/angelstreet/virtualpytest-sub017/pkg/devices"
	"github.com/angelstreet/virtualpytest-sub017/pkg/execution"
	"github.com/angelstreet/virtualpytest-sub017/pkg/navgraph"
	"github.com/angelstreet/virtualpytest-sub017/pkg/resultsink"
	redissink "github.com/angelstreet/virtualpytest-sub017/pkg/resultsink/redis"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Execute a navigation on a device",
	ArgsUsage: "<from> <to>",
	Description: `Drive the device from one screen to another: resolve the path, perform
each edge's actions, verify every screen reached. The traversal result is
printed as a step log and optionally written to a results directory and
published to Redis.

Devices are bound through the fleet file; every device runs against the
built-in mock controller, which acknowledges actions and passes
verifications.

Examples:
  navengine run -g tvapp.yaml -f fleet.yaml -d living-room-tv home wifi
  navengine run -g tvapp.yaml -f fleet.yaml -d tv-1 --results-dir ./results home wifi
  navengine run -g tvapp.yaml -f fleet.yaml -d tv-1 --redis-addr localhost:6379 home wifi`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "artifacts-dir",
			Usage: "Directory for verification evidence captures",
		},
		&cli.StringFlag{
			Name:  "results-dir",
			Usage: "Directory for traversal result records (JSON)",
		},
		&cli.StringFlag{
			Name:    "redis-addr",
			Usage:   "Publish results to Redis at this address",
			EnvVars: []string{"NAVENGINE_REDIS_ADDR"},
		},
		&cli.IntFlag{
			Name:  "redis-db",
			Usage: "Redis database number",
		},
		&cli.StringFlag{
			Name:  "redis-prefix",
			Usage: "Redis key prefix",
		},
	},
	Action: runRun,
}

func runRun(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected <from> <to> arguments")
	}
	from, to := c.Args().Get(0), c.Args().Get(1)

	cfg, err := resolveOptions(c)
	if err != nil {
		return err
	}
	if cfg.Device == "" {
		return fmt.Errorf("no device given (--device)")
	}

	graph, err := loadGraph(cfg)
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	opts := []execution.Option{
		loggerOption(c.Bool("verbose")),
	}

	if cfg.ArtifactsDir != "" {
		store, err := artifacts.NewFSStore(cfg.ArtifactsDir)
		if err != nil {
			return err
		}
		opts = append(opts, execution.WithArtifactStore(store))
	}

	var sinks []execution.Sink
	var fileSink *resultsink.File
	if cfg.ResultsDir != "" {
		fileSink, err = resultsink.NewFile(cfg.ResultsDir)
		if err != nil {
			return err
		}
		sinks = append(sinks, fileSink)
	}
	if cfg.Redis.Addr != "" {
		var redisOpts []redissink.Option
		if cfg.Redis.Prefix != "" {
			redisOpts = append(redisOpts, redissink.WithPrefix(cfg.Redis.Prefix))
		}
		sink := redissink.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redisOpts...)
		defer sink.Close()
		sinks = append(sinks, sink)
	}
	if len(sinks) > 0 {
		opts = append(opts, execution.WithSink(resultsink.Multi(sinks...)))
	}

	engine := execution.New(graph, registry, opts...)

	// Ctrl-C stops the traversal between steps; the step in flight finishes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n  %s%s%s v%s: %s → %s on %s\n",
		color(colorBold), graph.Name(), color(colorReset), graph.Version(), from, to, cfg.Device)
	fmt.Println("  " + strings.Repeat("─", 60))

	result, err := engine.Navigate(ctx, execution.Request{DeviceID: cfg.Device, From: from, To: to})
	if err != nil && result == nil {
		return err
	}

	printResult(result, c.Bool("verbose"))
	if fileSink != nil {
		fmt.Printf("  %sRecord: %s%s\n", color(colorGray), fileSink.Path(result.TraversalID), color(colorReset))
	}

	if result.Status != execution.StatusCompleted {
		return cli.Exit("", 1)
	}
	return nil
}

// loggerOption builds the engine logger: debug to stderr when verbose,
// warnings only otherwise, so the step log stays readable.
func loggerOption(verbose bool) execution.Option {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return execution.WithLogger(slog.New(handler))
}

func printResult(result *execution.Result, verbose bool) {
	for _, step := range result.Steps {
		printStep(step, verbose)
	}

	fmt.Println()
	switch result.Status {
	case execution.StatusCompleted:
		fmt.Printf("%s✓ %s%s reached %q %s(%s)%s\n",
			color(colorGreen), color(colorReset), result.DeviceID, result.To,
			color(colorGray), formatDuration(result.DurationMs), color(colorReset))
	default:
		fmt.Printf("%s✗ %s%s stopped at %q %s(%s)%s\n",
			color(colorRed), color(colorReset), result.DeviceID, result.FurthestReached,
			color(colorGray), formatDuration(result.DurationMs), color(colorReset))
		if result.Error != "" {
			fmt.Printf("  %s╰─%s %s\n", color(colorGray), color(colorReset), result.Error)
		}
	}
}

func printStep(step execution.StepOutcome, verbose bool) {
	switch step.Status {
	case execution.StatusPassed:
		fmt.Printf("    %s✓%s %s %s(%s)%s\n",
			color(colorGreen), color(colorReset), step.Edge,
			color(colorGray), formatDuration(step.DurationMs), color(colorReset))
	case execution.StatusSkipped:
		fmt.Printf("    %s-%s %s %s(skipped)%s\n",
			color(colorCyan), color(colorReset), step.Edge,
			color(colorGray), color(colorReset))
		return
	default:
		fmt.Printf("    %s✗%s %s %s(%s)%s\n",
			color(colorRed), color(colorReset), step.Edge,
			color(colorGray), formatDuration(step.DurationMs), color(colorReset))
	}

	if verbose || step.Status == execution.StatusFailed {
		for _, action := range step.Actions {
			sym, symColor := "✓", colorGreen
			if !action.Success {
				sym, symColor = "✗", colorRed
			}
			fmt.Printf("      %s%s%s %s %s(%d attempt(s))%s\n",
				color(symColor), sym, color(colorReset), action.Action,
				color(colorGray), len(action.Attempts), color(colorReset))
		}
		for _, v := range step.Verifications {
			sym, symColor := "✓", colorGreen
			if !v.Passed {
				sym, symColor = "✗", colorRed
			}
			fmt.Printf("      %s%s%s %s\n", color(symColor), sym, color(colorReset), v.Verification)
		}
	}
	if step.Error != "" {
		fmt.Printf("      %s╰─%s %s\n", color(colorGray), color(colorReset), step.Error)
	}
}

// resolveOptions merges the workspace config with command-line flags;
// flags win.
func resolveOptions(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, err
	}

	if v := c.String("graph"); v != "" {
		cfg.Graph = v
	}
	if v := c.String("fleet"); v != "" {
		cfg.Fleet = v
	}
	if v := c.String("device"); v != "" {
		cfg.Device = v
	}
	if v := c.String("artifacts-dir"); v != "" {
		cfg.ArtifactsDir = v
	}
	if v := c.String("results-dir"); v != "" {
		cfg.ResultsDir = v
	}
	if v := c.String("redis-addr"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := c.Int("redis-db"); v != 0 {
		cfg.Redis.DB = v
	}
	if v := c.String("redis-prefix"); v != "" {
		cfg.Redis.Prefix = v
	}
	return cfg, nil
}

func loadGraph(cfg *config.Config) (*navgraph.Graph, error) {
	if cfg.Graph == "" {
		return nil, fmt.Errorf("no graph file given (--graph)")
	}
	return navgraph.LoadFile(cfg.Graph)
}

func loadRegistry(cfg *config.Config) (devices.Registry, error) {
	if cfg.Fleet == "" {
		return nil, fmt.Errorf("no fleet file given (--fleet)")
	}
	fleet, err := devices.ParseFleetFile(cfg.Fleet)
	if err != nil {
		return nil, err
	}
	return devices.BuildRegistry(fleet, mockFactory)
}

// mockFactory binds every fleet device to the built-in mock controller.
func mockFactory(device devices.Device) (controller.Controller, error) {
	return mock.New(mock.Config{Name: "mock:" + device.ID}), nil
}

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// formatDuration formats milliseconds to a human-readable string.
// Shows milliseconds for values < 1s, seconds otherwise.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
