package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/alecthomas/kong"

	"github.com/Adda-Baaj/preview-harvester/internal/config"
	"github.com/Adda-Baaj/preview-harvester/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewMain().Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// LoadConfig reads the runtime configuration. Replaced in tests.
	LoadConfig func() (*config.Config, error)
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{LoadConfig: config.Load}
}

// Dependencies are bound into every command's Run method.
type Dependencies struct {
	Ctx    context.Context
	Config *config.Config
	Stdout io.Writer
	Stderr io.Writer
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Providers string `help:"Providers file; overrides PROVIDERS_FILE." type:"path"`

	Crawl   CrawlCmd   `cmd:"" help:"Crawl providers once and print previews as JSON lines."`
	Extract ExtractCmd `cmd:"" help:"Run a provider's layout table over a saved listing page."`
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("collector"),
		kong.Description("Collect article previews from configured news providers"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'collector --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := m.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cli.Providers != "" {
		cfg.ProvidersFile = cli.Providers
	}

	// stdout carries data, so logs go to stderr.
	if _, err := logger.InitWriter(cfg, stderr); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	return kongCtx.Run(&Dependencies{
		Ctx:    ctx,
		Config: cfg,
		Stdout: stdout,
		Stderr: stderr,
	})
}
