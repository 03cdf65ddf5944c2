package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/preview-harvester/internal/config"
	"github.com/Adda-Baaj/preview-harvester/internal/crawler"
	"github.com/Adda-Baaj/preview-harvester/internal/logger"
	"github.com/Adda-Baaj/preview-harvester/internal/storage"
	"github.com/Adda-Baaj/preview-harvester/pkg/providers"
	"github.com/Adda-Baaj/preview-harvester/pkg/publishers"
)

// Harvester is the long-running runtime. It crawls every provider on the
// configured interval and publishes unseen previews to all enabled publishers.
type Harvester struct {
	cfg           *config.Config
	providerReg   *providers.Registry
	fanout        *publishers.Fanout
	crawlService  *crawler.Service
	crawlInterval time.Duration
	log           logger.Logger
	store         storage.Store
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	providerReg, err := loadProviders(cfg, log)
	if err != nil {
		return nil, err
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := openStore(cfg.StorageType, cfg, log)
	if err != nil {
		_ = fanout.Close()
		return nil, err
	}

	client := newHTTPClient(cfg, providerReg.All())
	crawlService := crawler.NewService(
		newFetcherRegistry(cfg, client, log),
		crawler.NewScraper(client, log),
		fanout,
		store,
		log,
	)

	return &Harvester{
		cfg:           cfg,
		providerReg:   providerReg,
		fanout:        fanout,
		crawlService:  crawlService,
		crawlInterval: cfg.CrawlInterval,
		log:           log,
		store:         store,
	}, nil
}

// Run starts the crawl loop until the context is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.crawlService == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	providers := h.providerReg.All()
	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"providers_count":  len(providers),
		"publishers_count": h.fanout.Size(),
		"crawl_interval":   h.crawlInterval.String(),
	})

	if err := h.runOnce(ctx, providers); err != nil {
		h.log.ErrorObj("initial crawl failed", "error", err.Error())
	}

	ticker := time.NewTicker(h.crawlInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := h.runOnce(ctx, providers); err != nil {
				h.log.ErrorObj("scheduled crawl failed", "error", err.Error())
			}
		}
	}
}

// Once runs a single crawl across all providers and releases the runtime.
func (h *Harvester) Once(ctx context.Context) error {
	if h == nil || h.crawlService == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()
	return h.runOnce(ctx, h.providerReg.All())
}

// runOnce performs a single crawl operation across all providers.
func (h *Harvester) runOnce(ctx context.Context, providers []providers.Provider) error {
	start := time.Now()
	h.log.InfoObj("crawl started", "crawl_meta", map[string]any{
		"providers_count": len(providers),
		"started_at":      start.UTC(),
	})
	reports, err := h.crawlService.RunOnce(ctx, providers)
	published := 0
	for _, r := range reports {
		published += r.Published
	}
	h.log.InfoObj("crawl completed", "crawl_meta", map[string]any{
		"providers_count": len(providers),
		"published":       published,
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
	return err
}

// close releases the publishers and the storage backend, logging failures.
func (h *Harvester) close() {
	if err := h.fanout.Close(); err != nil {
		h.log.ErrorObj("publisher close failed", "error", err.Error())
	}
	if h.store == nil {
		return
	}
	if err := h.store.Close(); err != nil {
		h.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
