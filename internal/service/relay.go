package service

import (
	"context"
	"log/slog"

	"github.com/coursepilot/coursepilot/internal/bus"
	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/sse"
	"github.com/coursepilot/coursepilot/internal/store"
)

// SSESurfaceID is the surface context id of the SSE relay.
const SSESurfaceID = "sse"

// SurfaceRelay is a display surface that turns bus notifications into SSE
// events for HTTP clients.
type SurfaceRelay struct {
	bctx    *bus.Context
	emitter store.EventEmitter
	logger  *slog.Logger
}

// NewSurfaceRelay attaches the relay as surface "sse".
func NewSurfaceRelay(b *bus.Bus, emitter store.EventEmitter, logger *slog.Logger) (*SurfaceRelay, error) {
	bctx, err := b.Attach(bus.KindSurface, SSESurfaceID)
	if err != nil {
		return nil, err
	}
	r := &SurfaceRelay{bctx: bctx, emitter: emitter, logger: logger}

	bctx.Handle(domain.ActionStatsUpdated, r.on(func(msg bus.Message) (sse.Event, error) {
		var p struct {
			Stats domain.StatsView `json:"stats"`
		}
		err := msg.Bind(&p)
		return sse.NewStatsUpdatedEvent(p.Stats), err
	}))
	bctx.Handle(domain.ActionNoteAdded, r.on(func(msg bus.Message) (sse.Event, error) {
		var p struct {
			Note domain.Note `json:"note"`
		}
		err := msg.Bind(&p)
		return sse.NewNoteAddedEvent(p.Note), err
	}))
	bctx.Handle(domain.ActionNoteDeleted, r.on(func(msg bus.Message) (sse.Event, error) {
		var p struct {
			NoteID   string `json:"noteId"`
			VideoURL string `json:"videoUrl"`
		}
		err := msg.Bind(&p)
		return sse.NewNoteDeletedEvent(p.VideoURL, p.NoteID), err
	}))
	bctx.Handle(domain.ActionUpdateProgress, r.on(func(msg bus.Message) (sse.Event, error) {
		var p struct {
			domain.Progress
			TabID string `json:"tabId"`
		}
		err := msg.Bind(&p)
		return sse.NewProgressEvent(p.TabID, p.Progress), err
	}))
	bctx.Handle(domain.ActionNotice, r.on(func(msg bus.Message) (sse.Event, error) {
		var n domain.Notice
		err := msg.Bind(&n)
		return sse.NewNoticeEvent(n), err
	}))
	bctx.Handle(domain.ActionOpenNoteEntry, r.on(func(msg bus.Message) (sse.Event, error) {
		var p struct {
			PendingNote domain.PendingNote `json:"pendingNote"`
		}
		err := msg.Bind(&p)
		return sse.NewOpenNoteEntryEvent(p.PendingNote), err
	}))

	return r, nil
}

func (r *SurfaceRelay) on(convert func(bus.Message) (sse.Event, error)) bus.HandlerFunc {
	return func(_ context.Context, msg bus.Message) bus.Reply {
		event, err := convert(msg)
		if err != nil {
			r.logger.Warn("dropping malformed surface notification", "action", msg.Action, "error", err)
			return bus.Fail(err)
		}
		r.emitter.Emit(event)
		return bus.OK(nil)
	}
}

// Close detaches the relay.
func (r *SurfaceRelay) Close() {
	r.bctx.Detach()
}
