package service

import (
	"context"
	"testing"
	"time"

	"github.com/coursepilot/coursepilot/internal/bus"
	"github.com/coursepilot/coursepilot/internal/domain"
	domainerrors "github.com/coursepilot/coursepilot/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// attachFakeTab registers a tab context that records the actions it receives.
func attachFakeTab(t *testing.T, b *bus.Bus, id string) <-chan bus.Message {
	t.Helper()
	tab, err := b.Attach(bus.KindTab, id)
	require.NoError(t, err)
	t.Cleanup(tab.Detach)

	received := make(chan bus.Message, 8)
	record := func(_ context.Context, msg bus.Message) bus.Reply {
		received <- msg
		return bus.OK(nil)
	}
	tab.Handle(domain.ActionStart, record)
	tab.Handle(domain.ActionStop, record)
	tab.Handle(domain.ActionGetCurrentTimestamp, func(_ context.Context, msg bus.Message) bus.Reply {
		received <- msg
		return bus.OK(domain.TimestampInfo{
			Timestamp:     75.5,
			FormattedTime: "1:15",
			VideoTitle:    "Go Generics",
			VideoURL:      "https://y/generics",
			Platform:      "youtube",
		})
	})
	return received
}

func TestCommandService_ToggleWithoutTab(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.services.Commands.Run(ctx, domain.CommandToggleAutomation, "")
	require.NoError(t, err)
	require.NotNil(t, res.IsRunning)
	assert.True(t, *res.IsRunning)
	assert.False(t, res.Delivered)
	assert.Contains(t, res.Error, "target unavailable")

	settings, err := env.services.Settings.Get(ctx)
	require.NoError(t, err)
	assert.True(t, settings.IsRunning)
}

func TestCommandService_ToggleSendsStartThenStop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	received := attachFakeTab(t, env.bus, "42")

	res, err := env.services.Commands.ToggleAutomation(ctx, "")
	require.NoError(t, err)
	assert.True(t, res.Delivered)
	assert.Equal(t, "42", res.Tab)

	msg := <-received
	assert.Equal(t, domain.ActionStart, msg.Action)
	var payload struct {
		Settings domain.Settings `json:"settings"`
	}
	require.NoError(t, msg.Bind(&payload))
	assert.True(t, payload.Settings.IsRunning)

	res, err = env.services.Commands.ToggleAutomation(ctx, "42")
	require.NoError(t, err)
	assert.False(t, *res.IsRunning)
	assert.Equal(t, domain.ActionStop, (<-received).Action)
}

func TestCommandService_ToggleTargetsFirstAttachedTab(t *testing.T) {
	env := newTestEnv(t)
	first := attachFakeTab(t, env.bus, "9")
	second := attachFakeTab(t, env.bus, "10")

	res, err := env.services.Commands.ToggleAutomation(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "9", res.Tab)
	assert.Equal(t, domain.ActionStart, (<-first).Action)
	assert.Empty(t, second)
}

func TestCommandService_TakeNote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	attachFakeTab(t, env.bus, "7")
	env.services.Commands.now = func() time.Time { return time.UnixMilli(1_760_000_000_000) }

	res, err := env.services.Commands.Run(ctx, domain.CommandTakeNote, "")
	require.NoError(t, err)
	require.NotNil(t, res.PendingNote)
	assert.Equal(t, 75.5, res.PendingNote.Timestamp)
	assert.Equal(t, int64(1_760_000_000_000), res.PendingNote.TimestampTrigger)

	pending, err := env.services.Commands.PendingNote(ctx)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, "https://y/generics", pending.VideoURL)

	require.NoError(t, env.services.Commands.ClearPendingNote(ctx))
	pending, err = env.services.Commands.PendingNote(ctx)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestCommandService_TakeNoteWithoutTab(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Commands.TakeNote(context.Background(), "")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrTargetUnavailable))
}

func TestCommandService_UnknownCommand(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Commands.Run(context.Background(), "dance", "")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnsupported))
}
