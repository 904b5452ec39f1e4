package service

import (
	"context"
	"log/slog"

	"github.com/coursepilot/coursepilot/internal/bus"
	"github.com/coursepilot/coursepilot/internal/domain"
	domainerrors "github.com/coursepilot/coursepilot/internal/errors"
)

// Services groups what the coordinator dispatches to.
type Services struct {
	Settings  *SettingsService
	Stats     *StatsService
	Activity  *ActivityService
	Notes     *NoteService
	Summaries *SummaryService
	Commands  *CommandService
}

// Coordinator is the background context. It answers the action catalog on
// the bus and relays controller notifications to display surfaces.
//
// Every error becomes a {success:false} reply; nothing escapes the bus.
type Coordinator struct {
	bctx     *bus.Context
	bus      *bus.Bus
	services Services
	logger   *slog.Logger
}

// NewCoordinator attaches the background context to b and registers the
// action catalog on it.
func NewCoordinator(b *bus.Bus, services Services, logger *slog.Logger) (*Coordinator, error) {
	bctx, err := b.Attach(bus.KindBackground, bus.BackgroundID)
	if err != nil {
		return nil, err
	}
	c := &Coordinator{bctx: bctx, bus: b, services: services, logger: logger}
	c.register()
	return c, nil
}

// Close detaches the background context.
func (c *Coordinator) Close() {
	c.bctx.Detach()
}

// Done is closed once the background loop has exited.
func (c *Coordinator) Done() <-chan struct{} {
	return c.bctx.Done()
}

type actionFunc func(ctx context.Context, msg bus.Message) (any, error)

func (c *Coordinator) handle(action string, fn actionFunc) {
	c.bctx.Handle(action, func(ctx context.Context, msg bus.Message) bus.Reply {
		payload, err := fn(ctx, msg)
		if err != nil {
			c.logger.Debug("action failed",
				"action", action,
				"request_id", bus.RequestID(ctx),
				"code", domainerrors.CodeOf(err),
				"error", err,
			)
			return bus.Fail(err)
		}
		if r, ok := payload.(bus.Reply); ok {
			return r
		}
		return bus.OK(payload)
	})
}

func (c *Coordinator) register() {
	s := c.services

	c.handle(domain.ActionVideoCompleted, c.videoCompleted)

	c.handle(domain.ActionGetSettings, func(ctx context.Context, _ bus.Message) (any, error) {
		return s.Settings.Get(ctx)
	})
	c.handle(domain.ActionUpdateSettings, func(ctx context.Context, msg bus.Message) (any, error) {
		var patch domain.SettingsPatch
		if err := msg.Bind(&patch); err != nil {
			return nil, err
		}
		return s.Settings.Update(ctx, patch)
	})

	c.handle(domain.ActionLogActivity, func(ctx context.Context, msg bus.Message) (any, error) {
		var entry domain.ActivityEntry
		if err := msg.Bind(&entry); err != nil {
			return nil, err
		}
		delete(entry.Extra, "action")
		_, err := s.Activity.Log(ctx, entry)
		return nil, err
	})
	c.handle(domain.ActionGetActivity, func(ctx context.Context, msg bus.Message) (any, error) {
		var req struct {
			Limit int `json:"limit"`
		}
		if err := msg.Bind(&req); err != nil {
			return nil, err
		}
		entries, err := s.Activity.List(ctx, req.Limit)
		return map[string]any{"activity": entries}, err
	})
	c.handle(domain.ActionGetStats, func(ctx context.Context, _ bus.Message) (any, error) {
		stats, err := s.Stats.Get(ctx)
		return stats.View(), err
	})

	c.handle(domain.ActionGetSummary, func(ctx context.Context, msg bus.Message) (any, error) {
		var req struct {
			URL string `json:"url"`
		}
		if err := msg.Bind(&req); err != nil {
			return nil, err
		}
		sum, err := s.Summaries.Get(ctx, req.URL)
		return map[string]any{"summary": sum}, err
	})
	c.handle(domain.ActionGetRecentSummaries, func(ctx context.Context, msg bus.Message) (any, error) {
		var req struct {
			Limit int `json:"limit"`
		}
		if err := msg.Bind(&req); err != nil {
			return nil, err
		}
		list, err := s.Summaries.Recent(ctx, req.Limit)
		return map[string]any{"summaries": list}, err
	})
	c.handle(domain.ActionSearchSummaries, func(ctx context.Context, msg bus.Message) (any, error) {
		var req struct {
			Query string `json:"query"`
			Limit int    `json:"limit"`
		}
		if err := msg.Bind(&req); err != nil {
			return nil, err
		}
		list, err := s.Summaries.Search(ctx, req.Query, req.Limit)
		return map[string]any{"summaries": list}, err
	})

	c.handle(domain.ActionSaveNote, func(ctx context.Context, msg bus.Message) (any, error) {
		var in domain.NoteInput
		if err := msg.Bind(&in); err != nil {
			return nil, err
		}
		note, err := s.Notes.Create(ctx, in)
		return map[string]any{"note": note}, err
	})
	c.handle(domain.ActionGetNotes, func(ctx context.Context, msg bus.Message) (any, error) {
		var filter domain.NoteFilter
		if err := msg.Bind(&filter); err != nil {
			return nil, err
		}
		notes, err := s.Notes.List(ctx, filter)
		return map[string]any{"notes": notes}, err
	})
	c.handle(domain.ActionUpdateNote, func(ctx context.Context, msg bus.Message) (any, error) {
		var req struct {
			VideoURL string `json:"videoUrl"`
			NoteID   string `json:"noteId"`
			domain.NoteUpdate
		}
		if err := msg.Bind(&req); err != nil {
			return nil, err
		}
		note, err := s.Notes.Update(ctx, req.VideoURL, req.NoteID, req.NoteUpdate)
		return map[string]any{"note": note}, err
	})
	c.handle(domain.ActionDeleteNote, func(ctx context.Context, msg bus.Message) (any, error) {
		var req struct {
			VideoURL string `json:"videoUrl"`
			NoteID   string `json:"noteId"`
		}
		if err := msg.Bind(&req); err != nil {
			return nil, err
		}
		removed, err := s.Notes.Delete(ctx, req.VideoURL, req.NoteID)
		if err != nil {
			return nil, err
		}
		return bus.Reply{Success: removed}, nil
	})
	c.handle(domain.ActionSearchNotes, func(ctx context.Context, msg bus.Message) (any, error) {
		var req struct {
			Query string `json:"query"`
		}
		if err := msg.Bind(&req); err != nil {
			return nil, err
		}
		notes, err := s.Notes.Search(ctx, req.Query)
		return map[string]any{"notes": notes}, err
	})
	c.handle(domain.ActionGetNoteStatistics, func(ctx context.Context, _ bus.Message) (any, error) {
		return s.Notes.Statistics(ctx)
	})
	c.handle(domain.ActionExportNotes, func(ctx context.Context, msg bus.Message) (any, error) {
		var req struct {
			Format   domain.ExportFormat `json:"format"`
			VideoURL string              `json:"videoUrl"`
		}
		if err := msg.Bind(&req); err != nil {
			return nil, err
		}
		if req.Format == "" {
			req.Format = domain.ExportMarkdown
		}
		out, err := s.Notes.Export(ctx, req.Format, req.VideoURL)
		return map[string]any{"format": req.Format, "content": out}, err
	})

	c.handle(domain.ActionCommand, func(ctx context.Context, msg bus.Message) (any, error) {
		var req struct {
			Command string `json:"command"`
			Tab     string `json:"tab"`
		}
		if err := msg.Bind(&req); err != nil {
			return nil, err
		}
		return s.Commands.Run(ctx, req.Command, req.Tab)
	})
	c.handle(domain.ActionGetPendingNote, func(ctx context.Context, msg bus.Message) (any, error) {
		var req struct {
			Clear bool `json:"clear"`
		}
		if err := msg.Bind(&req); err != nil {
			return nil, err
		}
		pending, err := s.Commands.PendingNote(ctx)
		if err != nil {
			return nil, err
		}
		if req.Clear && pending != nil {
			if err := s.Commands.ClearPendingNote(ctx); err != nil {
				return nil, err
			}
		}
		return map[string]any{"pendingNote": pending}, nil
	})

	// Notifications from controllers, fanned out to surfaces.
	c.handle(domain.ActionUpdateProgress, c.relay(domain.ActionUpdateProgress))
	c.handle(domain.ActionNotice, c.relay(domain.ActionNotice))

	c.bctx.Fallback(func(_ context.Context, msg bus.Message) bus.Reply {
		return bus.Fail(domainerrors.Unsupportedf("unknown action %q", msg.Action))
	})
}

// videoCompleted records the completion and, when asked, replies with a
// freshly generated summary.
func (c *Coordinator) videoCompleted(ctx context.Context, msg bus.Message) (any, error) {
	var done domain.Completion
	if err := msg.Bind(&done); err != nil {
		return nil, err
	}
	view, err := c.services.Stats.RecordCompletion(ctx, done)
	if err != nil {
		return nil, err
	}
	if !done.RequestSummary {
		return map[string]any{"stats": view}, nil
	}

	sum, err := c.services.Summaries.Generate(ctx, domain.VideoInfo{
		Title:    done.Title,
		URL:      done.URL,
		Platform: done.Platform,
		Duration: done.DurationOrZero(),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"stats": view, "summary": sum}, nil
}

// relay forwards a controller notification to every surface, tagging it
// with the sending tab when the controller supplied one.
func (c *Coordinator) relay(action string) actionFunc {
	return func(_ context.Context, msg bus.Message) (any, error) {
		receipt := c.bus.Notify(bus.Broadcast(bus.KindSurface), bus.Message{Action: action, Raw: msg.Raw})
		if receipt.Delivered == 0 {
			c.logger.Debug("surface notification not delivered", "action", action, "dropped", receipt.Dropped)
		}
		return nil, nil
	}
}
