package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/alecthomas/kong"

	"github.com/Adda-Baaj/preview-harvester/internal/app"
	"github.com/Adda-Baaj/preview-harvester/internal/config"
	"github.com/Adda-Baaj/preview-harvester/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewMain().Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "harvester start failed: %v\n", err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	LoadConfig func() (*config.Config, error)
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{LoadConfig: config.Load}
}

// Flags override the environment-driven configuration.
type Flags struct {
	Providers  string        `help:"Providers file; overrides PROVIDERS_FILE." type:"path"`
	Publishers string        `help:"Publishers file; overrides PUBLISHERS_FILE." type:"path"`
	Interval   time.Duration `help:"Crawl interval; overrides CRAWL_INTERVAL."`
	Once       bool          `help:"Run a single crawl and exit."`
}

// Run parses args, builds the harvester and blocks until ctx is done. With
// --once it returns after one crawl.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := &Flags{}
	parser, err := kong.New(flags,
		kong.Name("harvester"),
		kong.Description("Crawl news providers on an interval and publish unseen article previews"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}
	for _, a := range args {
		if a == "--help" || a == "-h" {
			_, _ = parser.Parse([]string{"--help"})
			return nil
		}
	}
	if _, err := parser.Parse(args); err != nil {
		return err
	}

	cfg, err := m.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	flags.apply(cfg)

	if _, err := logger.InitWriter(cfg, stdout); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("harvester starting", "config", cfg)

	harvester, err := app.NewHarvester(ctx, cfg, logger.Default())
	if err != nil {
		logger.ErrorObj("failed to initialize harvester", "error", err.Error())
		return err
	}

	if flags.Once {
		return harvester.Once(ctx)
	}
	if err := harvester.Run(ctx); err != nil {
		return fmt.Errorf("harvester run: %w", err)
	}
	return nil
}

func (f *Flags) apply(cfg *config.Config) {
	if f.Providers != "" {
		cfg.ProvidersFile = f.Providers
	}
	if f.Publishers != "" {
		cfg.PublishersFile = f.Publishers
	}
	if f.Interval > 0 {
		cfg.CrawlInterval = f.Interval
	}
}
