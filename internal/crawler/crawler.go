package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adda-Baaj/preview-harvester/internal/domain"
	"github.com/Adda-Baaj/preview-harvester/internal/logger"
	"github.com/Adda-Baaj/preview-harvester/pkg/providers"
	"github.com/Adda-Baaj/preview-harvester/pkg/publishers"
)

// Report summarizes one provider's crawl.
type Report struct {
	ProviderID string `json:"provider_id"`
	Fetched    int    `json:"fetched"`
	Fresh      int    `json:"fresh"`
	Published  int    `json:"published"`
	Failed     int    `json:"failed"`
}

// ProviderProcessor fetches one provider's previews and hands the unseen ones
// to the publisher.
type ProviderProcessor struct {
	registry providers.FetcherRegistry
	scraper  PreviewScraper
	pub      EventPublisher
	log      logger.Logger
	store    Deduper
}

// NewProviderProcessor wires a processor. scraper, pub and store are optional.
func NewProviderProcessor(reg providers.FetcherRegistry, scraper PreviewScraper, pub EventPublisher, log logger.Logger, store Deduper) *ProviderProcessor {
	if log == nil {
		log = logger.Default()
	}
	return &ProviderProcessor{
		registry: reg,
		scraper:  scraper,
		pub:      pub,
		log:      log,
		store:    store,
	}
}

// Process crawls cfg once. Previews are published in listing order; a
// preview is marked as seen only after at least one publisher accepted it.
func (p *ProviderProcessor) Process(ctx context.Context, cfg providers.Provider) (Report, error) {
	report := Report{ProviderID: cfg.ID}

	fetcher, err := p.registry.FetcherFor(cfg)
	if err != nil {
		return report, fmt.Errorf("resolve fetcher for provider %s: %w", cfg.ID, err)
	}

	previews, fetchErr := fetcher.Fetch(ctx, cfg)
	if fetchErr != nil {
		fetchErr = fmt.Errorf("fetch provider %s: %w", cfg.ID, fetchErr)
		if len(previews) == 0 {
			return report, fetchErr
		}
		p.log.WarnObj("provider fetch partially failed", "provider_warning", map[string]any{
			"provider_id": cfg.ID,
			"previews":    len(previews),
			"error":       fetchErr.Error(),
		})
	}
	report.Fetched = len(previews)

	fresh := p.filterNewPreviews(cfg, previews)
	if p.scraper != nil && providers.ConfigBool(cfg, providers.ConfigEnrichMissingDatesKey, false) {
		fresh = p.scraper.Enrich(ctx, cfg, fresh)
	}
	report.Fresh = len(fresh)

	errs := []error{fetchErr}
	for _, preview := range fresh {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := p.publish(ctx, cfg, preview); err != nil {
			report.Failed++
			errs = append(errs, err)
			continue
		}
		report.Published++
	}

	p.log.InfoObj("provider crawl completed", "provider_result", report)
	return report, errors.Join(errs...)
}

func (p *ProviderProcessor) publish(ctx context.Context, cfg providers.Provider, preview domain.ArticlePreview) error {
	if p.pub == nil {
		return nil
	}

	evt := publishers.NewEvent(cfg.ID, cfg.Name, preview)
	delivered, err := p.pub.Publish(ctx, evt)
	if delivered > 0 && p.store != nil {
		if markErr := p.store.MarkPreview(preview.ID()); markErr != nil {
			p.log.WarnObj("mark preview failed", "dedupe_error", map[string]any{
				"provider_id": cfg.ID,
				"url":         preview.ArticleLink,
				"error":       markErr.Error(),
			})
		}
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", preview.ArticleLink, err)
	}
	return nil
}

// filterNewPreviews drops previews already published. Lookup failures keep
// the preview so it is not lost.
func (p *ProviderProcessor) filterNewPreviews(cfg providers.Provider, previews []domain.ArticlePreview) []domain.ArticlePreview {
	if p.store == nil {
		return previews
	}

	out := make([]domain.ArticlePreview, 0, len(previews))
	for _, preview := range previews {
		seen, err := p.store.SeenPreview(preview.ID())
		if err != nil {
			p.log.WarnObj("dedupe lookup failed", "dedupe_error", map[string]any{
				"provider_id": cfg.ID,
				"url":         preview.ArticleLink,
				"error":       err.Error(),
			})
			out = append(out, preview)
			continue
		}
		if !seen {
			out = append(out, preview)
		}
	}
	return out
}

// Service coordinates crawling across multiple providers.
type Service struct {
	processor *ProviderProcessor
	log       logger.Logger
}

// NewService wires a crawler with the provider fetcher registry.
func NewService(reg providers.FetcherRegistry, scraper PreviewScraper, pub EventPublisher, store Deduper, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		processor: NewProviderProcessor(reg, scraper, pub, log, store),
		log:       log,
	}
}

// Run executes a crawl pass for all configured providers.
func (s *Service) Run(ctx context.Context, cfgs []providers.Provider) error {
	_, err := s.RunOnce(ctx, cfgs)
	return err
}

// RunOnce is Run returning the per-provider reports.
func (s *Service) RunOnce(ctx context.Context, cfgs []providers.Provider) ([]Report, error) {
	if s == nil || s.processor == nil || s.processor.registry == nil {
		return nil, fmt.Errorf("crawler service is not initialized")
	}

	if len(cfgs) == 0 {
		return nil, fmt.Errorf("no providers configured for crawling")
	}

	reports, errs := s.runAll(ctx, cfgs)
	if len(errs) > 0 {
		return reports, errors.Join(errs...)
	}

	return reports, nil
}

// runAll crawls providers in order and stops starting new ones once ctx is done.
func (s *Service) runAll(ctx context.Context, cfgs []providers.Provider) ([]Report, []error) {
	reports := make([]Report, 0, len(cfgs))
	errs := make([]error, 0, len(cfgs))

	for _, cfg := range cfgs {
		if ctx.Err() != nil {
			break
		}
		report, err := s.processor.Process(ctx, cfg)
		reports = append(reports, report)
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("provider crawl failed", "provider_error", map[string]any{
				"provider_id": cfg.ID,
				"error":       err.Error(),
			})
		}
	}

	return reports, errs
}
