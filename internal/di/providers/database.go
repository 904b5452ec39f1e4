package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/coursepilot/coursepilot/internal/config"
	"github.com/coursepilot/coursepilot/internal/logger"
	"github.com/coursepilot/coursepilot/internal/sse"
	"github.com/coursepilot/coursepilot/internal/store"
	"github.com/coursepilot/coursepilot/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// LocalStoreHandle wraps the Badger local tier with shutdown capability.
type LocalStoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *LocalStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideLocalStore provides the local tier. Its change events feed SSE.
func ProvideLocalStore(i do.Injector) (*LocalStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	path := cfg.LocalStorePath()
	db, err := store.New(path, log.Logger, sseHandle.Manager)
	if err != nil {
		return nil, err
	}

	log.Info("Local store initialized", "path", path)
	return &LocalStoreHandle{Store: db}, nil
}

// SyncStoreHandle wraps the SQLite synced tier with shutdown capability.
type SyncStoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *SyncStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideSyncStore provides the synced tier holding settings.
func ProvideSyncStore(i do.Injector) (*SyncStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := cfg.SyncStorePath()
	db, err := sqlite.Open(path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Sync store initialized", "path", path)
	return &SyncStoreHandle{Store: db}, nil
}
