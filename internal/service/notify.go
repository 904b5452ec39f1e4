package service

import (
	"log/slog"

	"github.com/coursepilot/coursepilot/internal/bus"
)

// Notifier delivers fire-and-forget messages. *bus.Bus implements it.
type Notifier interface {
	Notify(addr bus.Address, msg bus.Message) bus.Receipt
}

// notifySurfaces broadcasts action to every display surface. Failures are
// logged at debug and never returned.
func notifySurfaces(n Notifier, logger *slog.Logger, action string, payload any) {
	if n == nil {
		return
	}
	msg, err := bus.NewMessage(action, payload)
	if err != nil {
		logger.Debug("surface notification not encodable", "action", action, "error", err)
		return
	}
	receipt := n.Notify(bus.Broadcast(bus.KindSurface), msg)
	if receipt.Delivered == 0 {
		logger.Debug("surface notification not delivered",
			"action", action,
			"dropped", receipt.Dropped,
			"missing", receipt.Missing,
		)
	}
}
