package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coursepilot/coursepilot/internal/bus"
	"github.com/coursepilot/coursepilot/internal/domain"
	domainerrors "github.com/coursepilot/coursepilot/internal/errors"
	"github.com/coursepilot/coursepilot/internal/store"
)

// Requester sends a request and waits for the reply. *bus.Bus implements it.
type Requester interface {
	Notifier
	Request(ctx context.Context, addr bus.Address, msg bus.Message) bus.Reply
	Contexts(kind bus.Kind) []bus.Address
}

// CommandResult reports what a keyboard command did.
type CommandResult struct {
	Command     string              `json:"command"`
	Tab         string              `json:"tab,omitempty"`
	IsRunning   *bool               `json:"isRunning,omitempty"`
	PendingNote *domain.PendingNote `json:"pendingNote,omitempty"`
	Delivered   bool                `json:"delivered"`
	Error       string              `json:"error,omitempty"`
}

// CommandService runs the keyboard commands against the active tab.
type CommandService struct {
	local    store.KV
	settings *SettingsService
	bus      Requester
	logger   *slog.Logger
	now      func() time.Time
}

// NewCommandService creates a new command service.
func NewCommandService(local store.KV, settings *SettingsService, b Requester, logger *slog.Logger) *CommandService {
	return &CommandService{
		local:    local,
		settings: settings,
		bus:      b,
		logger:   logger,
		now:      time.Now,
	}
}

// Run dispatches a command by name. An empty tab targets the first
// attached tab.
func (s *CommandService) Run(ctx context.Context, name, tab string) (CommandResult, error) {
	switch name {
	case domain.CommandToggleAutomation:
		return s.ToggleAutomation(ctx, tab)
	case domain.CommandTakeNote:
		return s.TakeNote(ctx, tab)
	default:
		return CommandResult{}, domainerrors.Unsupportedf("unknown command %q", name)
	}
}

// ToggleAutomation flips isRunning and tells the tab to start or stop. The
// flip persists even when no controller is listening.
func (s *CommandService) ToggleAutomation(ctx context.Context, tab string) (CommandResult, error) {
	current, err := s.settings.Get(ctx)
	if err != nil {
		return CommandResult{}, err
	}
	running := !current.IsRunning
	updated, err := s.settings.SetRunning(ctx, running)
	if err != nil {
		return CommandResult{}, err
	}

	result := CommandResult{Command: domain.CommandToggleAutomation, IsRunning: &running}

	addr, ok := s.activeTab(tab)
	if !ok {
		result.Error = "target unavailable: no tab attached"
		s.logger.Info("automation toggled without a tab", "is_running", running)
		return result, nil
	}
	result.Tab = addr.ID

	msg := bus.MustMessage(domain.ActionStop, nil)
	if running {
		msg = bus.MustMessage(domain.ActionStart, map[string]any{"settings": updated})
	}
	reply := s.bus.Request(ctx, addr, msg)
	result.Delivered = reply.Success
	result.Error = reply.Error

	s.logger.Info("automation toggled", "is_running", running, "context_id", addr.String(), "delivered", reply.Success)
	return result, nil
}

// TakeNote captures the tab's playback position as the pending note and
// asks surfaces to open note entry.
func (s *CommandService) TakeNote(ctx context.Context, tab string) (CommandResult, error) {
	addr, ok := s.activeTab(tab)
	if !ok {
		return CommandResult{}, domainerrors.TargetUnavailable("target unavailable: no tab attached")
	}

	reply := s.bus.Request(ctx, addr, bus.MustMessage(domain.ActionGetCurrentTimestamp, nil))
	if !reply.Success {
		return CommandResult{}, reply.Err()
	}
	var info domain.TimestampInfo
	if err := reply.Bind(&info); err != nil {
		return CommandResult{}, err
	}

	pending := domain.PendingNote{TimestampInfo: info, TimestampTrigger: s.now().UnixMilli()}
	if err := s.local.Set(ctx, map[string]any{domain.KeyPendingNote: pending}); err != nil {
		return CommandResult{}, fmt.Errorf("save pending note: %w", err)
	}

	notifySurfaces(s.bus, s.logger, domain.ActionOpenNoteEntry, map[string]any{"pendingNote": pending})
	s.logger.Info("note capture requested", "context_id", addr.String(), "video_url", info.VideoURL)

	return CommandResult{
		Command:     domain.CommandTakeNote,
		Tab:         addr.ID,
		PendingNote: &pending,
		Delivered:   true,
	}, nil
}

// PendingNote returns the captured note waiting for entry, or nil.
func (s *CommandService) PendingNote(ctx context.Context) (*domain.PendingNote, error) {
	var p domain.PendingNote
	found, err := store.Load(ctx, s.local, domain.KeyPendingNote, &p)
	if err != nil {
		return nil, fmt.Errorf("load pending note: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

// ClearPendingNote discards the pending note.
func (s *CommandService) ClearPendingNote(ctx context.Context) error {
	return s.local.Remove(ctx, domain.KeyPendingNote)
}

func (s *CommandService) activeTab(tab string) (bus.Address, bool) {
	if tab != "" {
		return bus.Tab(tab), true
	}
	tabs := s.bus.Contexts(bus.KindTab)
	if len(tabs) == 0 {
		return bus.Address{}, false
	}
	return tabs[0], true
}
