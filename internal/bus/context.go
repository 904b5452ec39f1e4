package bus

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	apperr "github.com/coursepilot/coursepilot/internal/errors"
)

type delivery struct {
	ctx   context.Context // nil for notifications
	msg   Message
	reply chan Reply // nil for notifications
}

// Context is one attached execution context with its own sequential loop.
type Context struct {
	bus  *Bus
	addr Address
	seq  uint64 // attach order, set under Bus.mu

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	fallback HandlerFunc

	inbox    chan delivery
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	detached atomic.Bool
	logger   *slog.Logger
}

func newContext(b *Bus, addr Address) *Context {
	ctx, cancel := context.WithCancel(context.Background())
	return &Context{
		bus:      b,
		addr:     addr,
		handlers: make(map[string]HandlerFunc),
		inbox:    make(chan delivery, b.inboxSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		logger:   b.logger.With(slog.String("context_id", addr.String())),
	}
}

// Address returns where this context is attached.
func (c *Context) Address() Address { return c.addr }

// Bus returns the bus the context is attached to.
func (c *Context) Bus() *Bus { return c.bus }

// Done is closed once the loop has exited after Detach.
func (c *Context) Done() <-chan struct{} { return c.done }

// Handle registers fn for action, replacing any previous handler.
func (c *Context) Handle(action string, fn HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[action] = fn
}

// Fallback registers fn for actions without a dedicated handler.
func (c *Context) Fallback(fn HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = fn
}

// Unhandle removes the handler for action.
func (c *Context) Unhandle(action string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, action)
}

func (c *Context) handler(action string) HandlerFunc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if fn, ok := c.handlers[action]; ok {
		return fn
	}
	return c.fallback
}

func (c *Context) handles(action string) bool {
	return !c.isDetached() && c.handler(action) != nil
}

func (c *Context) isDetached() bool { return c.detached.Load() }

// Detach removes the context from the bus and stops its loop. Queued
// requests resolve to TargetUnavailable. It does not wait for the loop; use
// Done for that. Safe to call more than once, including from a handler.
func (c *Context) Detach() {
	if c.detached.Swap(true) {
		return
	}
	c.bus.remove(c)
	c.cancel()
	c.logger.Debug("context detached")
}

func (c *Context) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			c.drain()
			return
		case d := <-c.inbox:
			if c.ctx.Err() != nil {
				c.reject(d)
				c.drain()
				return
			}
			c.dispatch(d)
		}
	}
}

// drain answers whatever is still queued after Detach.
func (c *Context) drain() {
	for {
		select {
		case d := <-c.inbox:
			c.reject(d)
		default:
			return
		}
	}
}

func (c *Context) reject(d delivery) {
	if d.reply != nil {
		d.reply <- Fail(apperr.TargetUnavailablef("target unavailable: %s detached", c.addr))
		return
	}
	c.logger.Debug("notification to detached context swallowed", slog.String("action", d.msg.Action))
}

func (c *Context) dispatch(d delivery) {
	fn := c.handler(d.msg.Action)
	if fn == nil {
		if d.reply != nil {
			d.reply <- Fail(apperr.TargetUnavailablef("target unavailable: %s does not handle %q", c.addr, d.msg.Action))
		} else {
			c.logger.Debug("no handler for notification", slog.String("action", d.msg.Action))
		}
		return
	}

	ctx := d.ctx
	if ctx == nil {
		ctx = c.ctx
	}
	// The caller may already have given up; the handler still runs so that
	// in-order side effects are not skipped.
	r := c.invoke(ctx, fn, d.msg)
	if d.reply != nil {
		d.reply <- r
	}
}

func (c *Context) invoke(ctx context.Context, fn HandlerFunc, msg Message) (r Reply) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("handler panic",
				slog.String("action", msg.Action),
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())))
			r = Fail(apperr.Internal(fmt.Sprintf("handler %q panicked: %v", msg.Action, p)))
		}
	}()
	return fn(ctx, msg)
}
