// Package bus routes messages between execution contexts.
//
// Each attached Context runs its handlers on one goroutine, in arrival
// order. Requests wait for a Reply; notifications are queued and forgotten.
// A handler must not Request its own context: the loop that would answer is
// the one blocked waiting.
package bus

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	apperr "github.com/coursepilot/coursepilot/internal/errors"
	"github.com/coursepilot/coursepilot/internal/id"
)

// Kind classifies a context.
type Kind string

// Context kinds.
const (
	KindBackground Kind = "background"
	KindTab        Kind = "tab"
	KindSurface    Kind = "surface"
)

// BackgroundID is the id of the single background context.
const BackgroundID = "main"

const broadcastID = "*"

// Address names one context, or every context of a kind when built by Broadcast.
type Address struct {
	Kind Kind
	ID   string
}

// Background addresses the background context.
func Background() Address { return Address{Kind: KindBackground, ID: BackgroundID} }

// Tab addresses a controller context.
func Tab(id string) Address { return Address{Kind: KindTab, ID: id} }

// Broadcast addresses every context of kind.
func Broadcast(kind Kind) Address { return Address{Kind: kind, ID: broadcastID} }

// IsBroadcast reports whether a addresses a whole kind.
func (a Address) IsBroadcast() bool { return a.ID == broadcastID }

func (a Address) String() string { return string(a.Kind) + ":" + a.ID }

// ParseAddress parses "kind:id". A bare "background" addresses the background context.
func ParseAddress(s string) (Address, error) {
	if s == "" || s == string(KindBackground) {
		return Background(), nil
	}
	kind, rest, ok := strings.Cut(s, ":")
	if !ok || rest == "" {
		return Address{}, apperr.Validationf("invalid address %q", s)
	}
	switch Kind(kind) {
	case KindBackground, KindTab, KindSurface:
	default:
		return Address{}, apperr.Validationf("unknown context kind %q", kind)
	}
	return Address{Kind: Kind(kind), ID: rest}, nil
}

// HandlerFunc answers one message. For notifications the Reply is discarded.
type HandlerFunc func(ctx context.Context, msg Message) Reply

// Receipt reports the outcome of a Notify.
type Receipt struct {
	Delivered int `json:"delivered"`
	Dropped   int `json:"dropped"` // inbox full
	Missing   int `json:"missing"` // no context, or detached
}

type requestIDKey struct{}

// RequestID returns the correlation id of the request being handled, if any.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// Option configures a Bus.
type Option func(*Bus)

// WithInboxSize sets the per-context inbox capacity. Minimum 1.
func WithInboxSize(n int) Option {
	return func(b *Bus) {
		if n < 1 {
			n = 1
		}
		b.inboxSize = n
	}
}

const defaultInboxSize = 64

// Bus connects contexts.
type Bus struct {
	mu        sync.RWMutex
	contexts  map[Address]*Context
	seq       uint64
	closed    bool
	logger    *slog.Logger
	inboxSize int
}

// New creates an empty bus.
func New(logger *slog.Logger, opts ...Option) *Bus {
	b := &Bus{
		contexts:  make(map[Address]*Context),
		logger:    logger,
		inboxSize: defaultInboxSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach creates a context and starts its loop. An empty id is generated.
func (b *Bus) Attach(kind Kind, ctxID string) (*Context, error) {
	if ctxID == "" {
		var err error
		if ctxID, err = id.Generate(string(kind)); err != nil {
			return nil, err
		}
	}
	addr := Address{Kind: kind, ID: ctxID}
	if addr.IsBroadcast() {
		return nil, apperr.Validation("context id must not be a wildcard")
	}

	c := newContext(b, addr)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, apperr.TargetUnavailable("bus closed")
	}
	if _, exists := b.contexts[addr]; exists {
		b.mu.Unlock()
		return nil, apperr.Validationf("context %s already attached", addr)
	}
	b.seq++
	c.seq = b.seq
	b.contexts[addr] = c
	b.mu.Unlock()

	go c.loop()

	b.logger.Debug("context attached", slog.String("context_id", addr.String()))
	return c, nil
}

// Contexts lists the attached addresses of kind in attach order.
func (b *Bus) Contexts(kind Kind) []Address {
	b.mu.RLock()
	var found []*Context
	for addr, c := range b.contexts {
		if addr.Kind == kind {
			found = append(found, c)
		}
	}
	b.mu.RUnlock()
	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })
	out := make([]Address, len(found))
	for i, c := range found {
		out[i] = c.addr
	}
	return out
}

// Attached reports whether a context is attached at addr.
func (b *Bus) Attached(addr Address) bool {
	return b.lookup(addr) != nil
}

func (b *Bus) lookup(addr Address) *Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.contexts[addr]
}

func (b *Bus) remove(c *Context) {
	b.mu.Lock()
	if b.contexts[c.addr] == c {
		delete(b.contexts, c.addr)
	}
	b.mu.Unlock()
}

// Request delivers msg to addr and waits for the reply or ctx's end. It never
// returns an error: failures resolve to an unsuccessful Reply.
func (b *Bus) Request(ctx context.Context, addr Address, msg Message) Reply {
	if addr.IsBroadcast() {
		return Fail(apperr.Validation("cannot request a broadcast address"))
	}

	c := b.lookup(addr)
	if c == nil {
		return Fail(apperr.TargetUnavailablef("target unavailable: no listener at %s", addr))
	}
	if !c.handles(msg.Action) {
		return Fail(apperr.TargetUnavailablef("target unavailable: %s does not handle %q", addr, msg.Action))
	}

	requestID := uuid.NewString()
	d := delivery{
		ctx:   context.WithValue(ctx, requestIDKey{}, requestID),
		msg:   msg,
		reply: make(chan Reply, 1),
	}

	log := b.logger.With(
		slog.String("request_id", requestID),
		slog.String("action", msg.Action),
		slog.String("context_id", addr.String()))

	select {
	case c.inbox <- d:
	case <-ctx.Done():
		log.Debug("request abandoned before delivery")
		return Fail(apperr.TargetUnavailablef("target unavailable: no response from %s", addr))
	case <-c.done:
		return Fail(apperr.TargetUnavailablef("target unavailable: %s detached", addr))
	}

	select {
	case r := <-d.reply:
		return r
	case <-ctx.Done():
		log.Debug("request abandoned waiting for reply")
		return Fail(apperr.TargetUnavailablef("target unavailable: no response from %s", addr))
	case <-c.done:
		// The loop may have answered just before exiting.
		select {
		case r := <-d.reply:
			return r
		default:
		}
		return Fail(apperr.TargetUnavailablef("target unavailable: %s detached", addr))
	}
}

// Notify queues msg for addr without waiting. Full inboxes drop the message.
func (b *Bus) Notify(addr Address, msg Message) Receipt {
	var targets []*Context
	b.mu.RLock()
	if addr.IsBroadcast() {
		for a, c := range b.contexts {
			if a.Kind == addr.Kind {
				targets = append(targets, c)
			}
		}
	} else if c, ok := b.contexts[addr]; ok {
		targets = append(targets, c)
	}
	b.mu.RUnlock()

	var receipt Receipt
	if len(targets) == 0 {
		if !addr.IsBroadcast() {
			receipt.Missing = 1
		}
		b.logger.Debug("notification has no listener",
			slog.String("action", msg.Action),
			slog.String("context_id", addr.String()))
		return receipt
	}

	for _, c := range targets {
		if c.isDetached() {
			receipt.Missing++
			b.logger.Debug("notification to detached context swallowed",
				slog.String("action", msg.Action),
				slog.String("context_id", c.addr.String()))
			continue
		}
		select {
		case c.inbox <- delivery{msg: msg}:
			receipt.Delivered++
		default:
			receipt.Dropped++
			b.logger.Warn("inbox full, notification dropped",
				slog.String("action", msg.Action),
				slog.String("context_id", c.addr.String()))
		}
	}
	return receipt
}

// Close detaches every context. Attach fails afterwards.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	all := make([]*Context, 0, len(b.contexts))
	for _, c := range b.contexts {
		all = append(all, c)
	}
	b.mu.Unlock()

	for _, c := range all {
		c.Detach()
	}
	for _, c := range all {
		<-c.done
	}
}
