// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/taibuivan/gibiteca/internal/platform/config"
)

/*
Build creates a [Registry] holding every provider the configuration enables.

Comic Vine is skipped without an API key; Metron and Guia are skipped when
their base URL is empty. All providers share one HTTP client bound to
cfg.Timeout.

Returns:
  - *Registry: Possibly empty registry
  - err: A configured base URL could not be parsed
*/
func Build(cfg config.CatalogConfig, logger *slog.Logger) (*Registry, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	var providers []Provider

	if cfg.ComicVineAPIKey != "" {
		comicVine, err := NewComicVine(ComicVineOptions{
			BaseURL:    cfg.ComicVineBaseURL,
			APIKey:     cfg.ComicVineAPIKey,
			UserAgent:  cfg.UserAgent,
			DeepCovers: cfg.ComicVineDeepCovers,
		}, client, logger.With(slog.String("provider", ComicVineName)))
		if err != nil {
			return nil, fmt.Errorf("catalog_build_comicvine: %w", err)
		}
		providers = append(providers, comicVine)
	} else {
		logger.Warn("catalog_provider_disabled", slog.String("provider", ComicVineName), slog.String("reason", "missing api key"))
	}

	if cfg.MetronBaseURL != "" {
		metron, err := NewMetron(MetronOptions{
			BaseURL:   cfg.MetronBaseURL,
			Username:  cfg.MetronUsername,
			Password:  cfg.MetronPassword,
			UserAgent: cfg.UserAgent,
		}, client, logger.With(slog.String("provider", MetronName)))
		if err != nil {
			return nil, fmt.Errorf("catalog_build_metron: %w", err)
		}
		providers = append(providers, metron)
	}

	if cfg.GuiaBaseURL != "" {
		guia, err := NewGuia(GuiaOptions{
			BaseURL:   cfg.GuiaBaseURL,
			UserAgent: cfg.UserAgent,
		}, client, logger.With(slog.String("provider", GuiaName)))
		if err != nil {
			return nil, fmt.Errorf("catalog_build_guia: %w", err)
		}
		providers = append(providers, guia)
	}

	registry := NewRegistry(providers...)
	logger.Info("catalog_registry_ready", slog.Any("providers", registry.Names()))
	return registry, nil
}
