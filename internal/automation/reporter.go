package automation

import (
	"context"
	"log/slog"
	"time"

	"github.com/coursepilot/coursepilot/internal/bus"
	"github.com/coursepilot/coursepilot/internal/domain"
)

// DefaultCompletionTimeout bounds the videoCompleted round trip.
const DefaultCompletionTimeout = 10 * time.Second

// Sender is the part of the bus a controller talks through.
type Sender interface {
	Notify(addr bus.Address, msg bus.Message) bus.Receipt
	Request(ctx context.Context, addr bus.Address, msg bus.Message) bus.Reply
}

// Reporter sends a controller's messages to the background context.
// logActivity and updateProgress are fire-and-forget; only videoCompleted
// waits for a reply.
type Reporter struct {
	bus     Sender
	tabID   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewReporter creates a reporter that tags messages with tabID.
func NewReporter(b Sender, tabID string, logger *slog.Logger) *Reporter {
	return &Reporter{bus: b, tabID: tabID, timeout: DefaultCompletionTimeout, logger: logger}
}

// Activity logs an activity entry.
func (r *Reporter) Activity(kind, message, url string) {
	r.notify(domain.ActionLogActivity, map[string]any{
		"type":    kind,
		"message": message,
		"url":     url,
		"tabId":   r.tabID,
	})
}

// Progress reports playback progress.
func (r *Reporter) Progress(p domain.Progress) {
	r.notify(domain.ActionUpdateProgress, struct {
		domain.Progress
		TabID string `json:"tabId"`
	}{p, r.tabID})
}

// Notice shows a message on every display surface.
func (r *Reporter) Notice(message string) {
	r.notify(domain.ActionNotice, domain.Notice{Message: message, Level: "warning"})
}

// Stopped records that automation stopped itself.
func (r *Reporter) Stopped() {
	r.notify(domain.ActionUpdateSettings, map[string]any{domain.KeyIsRunning: false})
}

// Completed reports a finished video and waits for the background to
// record it.
func (r *Reporter) Completed(ctx context.Context, c domain.Completion) bus.Reply {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	msg, err := bus.NewMessage(domain.ActionVideoCompleted, c)
	if err != nil {
		return bus.Fail(err)
	}
	reply := r.bus.Request(ctx, bus.Background(), msg)
	if !reply.Success {
		r.logger.Warn("completion not recorded", "video_url", c.URL, "error", reply.Error)
	}
	return reply
}

func (r *Reporter) notify(action string, payload any) {
	msg, err := bus.NewMessage(action, payload)
	if err != nil {
		r.logger.Error("encode notification", "action", action, "error", err)
		return
	}
	receipt := r.bus.Notify(bus.Background(), msg)
	if receipt.Delivered == 0 {
		r.logger.Debug("notification not delivered", "action", action, "missing", receipt.Missing, "dropped", receipt.Dropped)
	}
}
