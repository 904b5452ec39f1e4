package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func TestManager_BroadcastsToAllClients(t *testing.T) {
	m := startManager(t)

	a, err := m.Connect()
	require.NoError(t, err)
	b, err := m.Connect()
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())

	m.Emit(NewStorageChangedEvent("local", []string{"stats"}, false))

	for _, c := range []*Client{a, b} {
		select {
		case evt := <-c.EventChan:
			assert.Equal(t, EventStorageChanged, evt.Type)
			data, ok := evt.Data.(StorageChangedEventData)
			require.True(t, ok)
			assert.Equal(t, []string{"stats"}, data.Keys)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestManager_FiltersByType(t *testing.T) {
	m := startManager(t)

	notesOnly, err := m.Connect(EventNoteAdded)
	require.NoError(t, err)

	m.Emit(NewStorageChangedEvent("local", []string{"videoNotes"}, false))
	m.Emit(NewNoteDeletedEvent("https://v", "note_1"))
	m.Emit(NewNoteAddedEvent(noteFixture()))

	select {
	case evt := <-notesOnly.EventChan:
		assert.Equal(t, EventNoteAdded, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("note.added not delivered")
	}
	assert.Empty(t, notesOnly.EventChan)
}

func TestManager_DisconnectClosesChannels(t *testing.T) {
	m := startManager(t)

	c, err := m.Connect()
	require.NoError(t, err)
	m.Disconnect(c.ID)
	m.Disconnect(c.ID)

	_, open := <-c.EventChan
	assert.False(t, open)
	assert.Zero(t, m.ClientCount())
}

func TestManager_EmitAfterShutdownIsDropped(t *testing.T) {
	m := startManager(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	assert.NotPanics(t, func() {
		m.Emit(NewHeartbeatEvent())
	})
	require.NoError(t, m.Shutdown(ctx))
}

func TestManager_IgnoresForeignEvents(t *testing.T) {
	m := startManager(t)
	c, err := m.Connect()
	require.NoError(t, err)

	m.Emit("not an event")

	select {
	case <-c.EventChan:
		t.Fatal("unexpected delivery")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestParseEventTypes(t *testing.T) {
	got := ParseEventTypes([]string{"note.added", "bogus", "notice"})
	assert.Equal(t, []EventType{EventNoteAdded, EventNotice}, got)
}

func TestHandler_StreamsConnectedAndEvents(t *testing.T) {
	m := startManager(t)
	h := NewHandler(m, logger.Discard())

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?types=notice", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	m.Emit(NewNoticeEvent(noticeFixture()))

	buf := make([]byte, 4096)
	var body strings.Builder
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(body.String(), "event: notice") {
		n, err := resp.Body.Read(buf)
		body.Write(buf[:n])
		if err != nil {
			break
		}
	}

	assert.Contains(t, body.String(), "event: connected")
	assert.Contains(t, body.String(), "event: notice")
	assert.Contains(t, body.String(), "Video limit reached")
}

func noteFixture() domain.Note {
	return domain.Note{ID: "note_1", VideoURL: "https://v", NoteText: "hello"}
}

func noticeFixture() domain.Notice {
	return domain.Notice{Message: "Video limit reached! Automation stopped.", Level: "info"}
}
