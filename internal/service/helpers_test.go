package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/coursepilot/coursepilot/internal/bus"
	"github.com/coursepilot/coursepilot/internal/logger"
	"github.com/coursepilot/coursepilot/internal/search"
	"github.com/coursepilot/coursepilot/internal/store"
	"github.com/coursepilot/coursepilot/internal/validation"
	"github.com/stretchr/testify/require"
)

// memKV is an in-memory store.KV for service tests.
type memKV struct {
	ns   store.Namespace
	mu   sync.Mutex
	data map[string]json.RawMessage
}

func newMemKV(ns store.Namespace) *memKV {
	return &memKV{ns: ns, data: make(map[string]json.RawMessage)}
}

func (m *memKV) Namespace() store.Namespace { return m.ns }

func (m *memKV) Get(_ context.Context, keys ...string) (store.Values, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := store.Values{}
	if len(keys) == 0 {
		for k, v := range m.data {
			out[k] = v
		}
		return out, nil
	}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memKV) Set(_ context.Context, values map[string]any) error {
	encoded, err := store.EncodeAll(values)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range encoded {
		m.data[k] = v
	}
	return nil
}

func (m *memKV) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memKV) Close() error { return nil }

func (m *memKV) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// recordingNotifier captures surface notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []bus.Message
}

func (r *recordingNotifier) Notify(_ bus.Address, msg bus.Message) bus.Receipt {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return bus.Receipt{Delivered: 1}
}

func (r *recordingNotifier) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Action
	}
	return out
}

// recordingEmitter captures SSE events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []any
}

func (r *recordingEmitter) Emit(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) all() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.events...)
}

// fixedClock returns a clock starting at start that advances by step per call.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}

func testIndex(t *testing.T) *search.SearchIndex {
	t.Helper()
	idx, err := search.NewSearchIndex(search.Options{DataPath: t.TempDir(), Logger: logger.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

// testEnv wires every service over in-memory stores and a real bus.
type testEnv struct {
	local    *memKV
	synced   *memKV
	emitter  *recordingEmitter
	bus      *bus.Bus
	services Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Discard()
	v := validation.New()

	env := &testEnv{
		local:   newMemKV(store.NamespaceLocal),
		synced:  newMemKV(store.NamespaceSync),
		emitter: &recordingEmitter{},
		bus:     bus.New(log),
	}
	t.Cleanup(env.bus.Close)

	settings := NewSettingsService(env.synced, env.emitter, v, log)
	env.services = Services{
		Settings:  settings,
		Stats:     NewStatsService(env.local, env.bus, log),
		Activity:  NewActivityService(env.local, log),
		Notes:     NewNoteService(env.local, v, env.bus, log),
		Summaries: NewSummaryService(env.local, testIndex(t), v, log),
		Commands:  NewCommandService(env.local, settings, env.bus, log),
	}
	return env
}
