package source

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/modbrowse/internal/adapter"
	"github.com/mmcdole/modbrowse/internal/adapter/source/local"
	"github.com/mmcdole/modbrowse/internal/adapter/source/modrinth"
	"github.com/mmcdole/modbrowse/internal/domain"
)

// NewCatalog creates the catalog backend selected by the configuration.
// This factory function abstracts away the specific backend implementation.
func NewCatalog(cfg *adapter.Config, logger *slog.Logger) (domain.Catalog, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	src := cfg.Source
	switch src.Type {
	case adapter.SourceTypeModrinth:
		if src.URL == "" {
			return nil, fmt.Errorf("source URL is required")
		}
		return modrinth.NewClient(src.URL, src.UserAgent, cfg.Search.PageSize, src.Timeout, logger), nil

	case adapter.SourceTypeLocal:
		if src.CatalogFile == "" {
			return nil, fmt.Errorf("catalog file is required")
		}
		cat, err := local.Open(src.CatalogFile, cfg.Search.PageSize, logger)
		if err != nil {
			return nil, err
		}
		return cat, nil

	default:
		return nil, fmt.Errorf("unknown source type: %s", src.Type)
	}
}

// CacheKey identifies the backend for the icon disk tier
func CacheKey(cfg *adapter.Config) string {
	if cfg.Source.Type == adapter.SourceTypeLocal {
		return "local:" + cfg.Source.CatalogFile
	}
	return cfg.Source.URL
}
