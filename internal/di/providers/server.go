package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/coursepilot/coursepilot/internal/api"
	"github.com/coursepilot/coursepilot/internal/config"
	"github.com/coursepilot/coursepilot/internal/logger"
	"github.com/coursepilot/coursepilot/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	_ = h.handler.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	localHandle := do.MustInvoke[*LocalStoreHandle](i)
	syncHandle := do.MustInvoke[*SyncStoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	busHandle := do.MustInvoke[*BusHandle](i)

	// The coordinator must be attached before the bus is reachable over HTTP.
	_ = do.MustInvoke[*CoordinatorHandle](i)

	services := api.Services{
		Settings:  do.MustInvoke[*service.SettingsService](i),
		Stats:     do.MustInvoke[*service.StatsService](i),
		Activity:  do.MustInvoke[*service.ActivityService](i),
		Notes:     do.MustInvoke[*service.NoteService](i),
		Summaries: do.MustInvoke[*service.SummaryService](i),
		Commands:  do.MustInvoke[*service.CommandService](i),
		Sync:      do.MustInvoke[*service.SyncService](i),
	}

	handler := api.NewServer(api.Deps{
		Services:   services,
		Bus:        busHandle.Bus,
		SSEManager: sseHandle.Manager,
		Local:      localHandle.Store,
		Synced:     syncHandle.Store,
		Index:      indexHandle.SearchIndex,
		Logger:     log.Logger,
	}, api.Config{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		MessageRateLimit: cfg.Server.MessageRateLimit,
		SyncOutbox:       cfg.Sync.OutboxPath,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
