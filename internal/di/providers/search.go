package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/coursepilot/coursepilot/internal/config"
	"github.com/coursepilot/coursepilot/internal/logger"
	"github.com/coursepilot/coursepilot/internal/search"
	"github.com/coursepilot/coursepilot/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve summary index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.SearchPath(),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// TriggerSummaryReindexIfNeeded refills a freshly created index from the
// summary cache in the background.
func TriggerSummaryReindexIfNeeded(i do.Injector) {
	summaries := do.MustInvoke[*service.SummaryService](i)
	log := do.MustInvoke[*logger.Logger](i)

	go func() {
		if err := summaries.EnsureIndex(context.Background()); err != nil {
			log.Error("Initial summary reindex failed", "error", err)
		}
	}()
}
