// Package app wires configuration, providers, the crawler and publishers into
// the harvester and collector runtimes.
package app

import (
	"fmt"
	"time"

	"github.com/Adda-Baaj/preview-harvester/internal/config"
	"github.com/Adda-Baaj/preview-harvester/internal/logger"
	"github.com/Adda-Baaj/preview-harvester/internal/storage"
	"github.com/Adda-Baaj/preview-harvester/pkg/httpclient"
	"github.com/Adda-Baaj/preview-harvester/pkg/preview"
	"github.com/Adda-Baaj/preview-harvester/pkg/providers"
)

// loadProviders reads the providers file and logs what was loaded.
func loadProviders(cfg *config.Config, log logger.Logger) (*providers.Registry, error) {
	reg, err := providers.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}

	list := reg.All()
	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	log.InfoObj("providers registry loaded", "providers_meta", map[string]any{
		"count": len(ids),
		"ids":   ids,
	})
	return reg, nil
}

const (
	fetchRetries   = 2
	fetchRetryWait = time.Second
)

// newHTTPClient returns the shared resty client behind a per-host limiter.
// Every listing host gets at least its provider's request delay.
func newHTTPClient(cfg *config.Config, list []providers.Provider) *httpclient.HostLimiter {
	opts := []httpclient.Option{httpclient.WithRetries(fetchRetries, fetchRetryWait)}
	if cfg.AppName != "" {
		opts = append(opts, httpclient.WithUserAgent(cfg.AppName+"/1.0"))
	}
	rc := httpclient.NewRestyClient(cfg.HTTPTimeout, opts...)
	limited := httpclient.NewHostLimiter(rc, cfg.HostDelay)
	for _, p := range list {
		for _, u := range p.ListingURLs() {
			if host := httpclient.HostOf(u); host != "" {
				limited.SetHostDelay(host, p.RequestDelay())
			}
		}
	}
	return limited
}

func newFetcherRegistry(cfg *config.Config, client httpclient.Client, log logger.Logger) providers.FetcherRegistry {
	return providers.DefaultFetcherRegistry(client,
		preview.WithWorkers(cfg.ParseWorkers),
		preview.WithLogger(log),
	)
}

func openStore(typ string, cfg *config.Config, log logger.Logger) (storage.Store, error) {
	opts := storage.Options{
		PreviewTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(typ, cfg.BBoltPath, opts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     typ,
		"path":                     cfg.BBoltPath,
		"preview_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})
	return store, nil
}
