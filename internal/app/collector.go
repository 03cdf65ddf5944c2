package app

import (
	"context"
	"fmt"
	"io"

	"github.com/Adda-Baaj/preview-harvester/internal/config"
	"github.com/Adda-Baaj/preview-harvester/internal/crawler"
	"github.com/Adda-Baaj/preview-harvester/internal/logger"
	"github.com/Adda-Baaj/preview-harvester/internal/storage"
	"github.com/Adda-Baaj/preview-harvester/pkg/preview"
	"github.com/Adda-Baaj/preview-harvester/pkg/providers"
	"github.com/Adda-Baaj/preview-harvester/pkg/publishers"
)

// Collector runs single crawl passes and writes every preview as a JSON line.
// It keeps no state between runs.
type Collector struct {
	cfg          *config.Config
	providerReg  *providers.Registry
	crawlService *crawler.Service
	log          logger.Logger
}

// NewCollector builds a collector that writes events to out.
func NewCollector(cfg *config.Config, out io.Writer, log logger.Logger) (*Collector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if out == nil {
		return nil, fmt.Errorf("output writer must not be nil")
	}
	if log == nil {
		log = logger.Default()
	}

	providerReg, err := loadProviders(cfg, log)
	if err != nil {
		return nil, err
	}

	// Duplicates across listing pages and providers are dropped within a run.
	store, err := openStore(storage.TypeMemory, cfg, log)
	if err != nil {
		return nil, err
	}

	client := newHTTPClient(cfg, providerReg.All())
	fanout := publishers.NewFanout([]publishers.Publisher{publishers.NewWriterPublisher("stdout", out)})

	return &Collector{
		cfg:         cfg,
		providerReg: providerReg,
		crawlService: crawler.NewService(
			newFetcherRegistry(cfg, client, log),
			crawler.NewScraper(client, log),
			fanout,
			store,
			log,
		),
		log: log,
	}, nil
}

// Crawl runs one pass over the given providers, or all of them when ids is empty.
func (c *Collector) Crawl(ctx context.Context, ids ...string) ([]crawler.Report, error) {
	if c == nil || c.crawlService == nil {
		return nil, fmt.Errorf("collector is not initialized")
	}

	selected, err := selectProviders(c.providerReg, ids)
	if err != nil {
		return nil, err
	}
	return c.crawlService.RunOnce(ctx, selected)
}

// Extract runs the preview parser of a preview_page provider over a saved
// listing page.
func (c *Collector) Extract(id string, body []byte) (preview.Result, error) {
	if c == nil {
		return preview.Result{}, fmt.Errorf("collector is not initialized")
	}
	return ExtractPage(c.providerReg, id, body, preview.WithWorkers(c.cfg.ParseWorkers), preview.WithLogger(c.log))
}

// ExtractPage runs the layout table of provider id over body without any
// network access.
func ExtractPage(reg *providers.Registry, id string, body []byte, opts ...preview.Option) (preview.Result, error) {
	p, ok := reg.ByID(id)
	if !ok {
		return preview.Result{}, fmt.Errorf("unknown provider %q", id)
	}
	if p.Type != providers.ProviderTypePreviewPage {
		return preview.Result{}, fmt.Errorf("provider %q has type %q; only %s providers can extract saved pages", id, p.Type, providers.ProviderTypePreviewPage)
	}
	adapter, err := providers.NewAdapter(p, opts...)
	if err != nil {
		return preview.Result{}, err
	}
	return adapter.Extract(body)
}

func selectProviders(reg *providers.Registry, ids []string) ([]providers.Provider, error) {
	if len(ids) == 0 {
		return reg.All(), nil
	}
	out := make([]providers.Provider, 0, len(ids))
	for _, id := range ids {
		p, ok := reg.ByID(id)
		if !ok {
			return nil, fmt.Errorf("unknown provider %q", id)
		}
		out = append(out, p)
	}
	return out, nil
}
