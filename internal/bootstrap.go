package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/scribe/internal/assets"
	"github.com/starford/scribe/internal/index"
	"github.com/starford/scribe/internal/journal"
	"github.com/starford/scribe/internal/scribeservice"
	"github.com/starford/scribe/internal/storage"
)

// NewService builds the full service stack for one-shot CLI commands and
// the MCP server. The caller must Close the returned DB when done.
func NewService(cfg *Config, logger *slog.Logger) (*scribeservice.Service, *index.DB, error) {
	if err := os.MkdirAll(cfg.Corpus.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create corpus dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Corpus.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	assetStore, err := assets.NewStore(cfg.Corpus.AssetsDir())
	if err != nil {
		return nil, nil, fmt.Errorf("init assets: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("index sync failed", slog.String("error", err.Error()))
	}

	jnl := journal.New(store, nil)
	return scribeservice.New(jnl, assetStore, store, db), db, nil
}
