package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepilot/coursepilot/internal/logger"
)

type importRecorder struct {
	mu    sync.Mutex
	paths []string
	fail  map[string]bool
}

func (r *importRecorder) importFile(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, filepath.Base(path))
	if r.fail[filepath.Base(path)] {
		return errors.New("bad package")
	}
	return nil
}

func (r *importRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestInbox_ImportsWaitingAndNewPackages(t *testing.T) {
	dir := t.TempDir()
	waiting := filepath.Join(dir, "sync_package_20260301_090000.json")
	require.NoError(t, os.WriteFile(waiting, []byte("{}"), 0o644))

	rec := &importRecorder{fail: map[string]bool{"sync_package_20260301_110000.json": true}}
	in, err := NewInbox(dir, rec.importFile, logger.Discard(), Options{SettleDelay: 30 * time.Millisecond})
	require.NoError(t, err)
	defer in.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go in.Run(ctx) //nolint:errcheck // Test goroutine

	assert.Eventually(t, func() bool {
		_, err := os.Stat(waiting + ImportedSuffix)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	fresh := filepath.Join(dir, "sync_package_20260301_100000.json")
	bad := filepath.Join(dir, "sync_package_20260301_110000.json")
	require.NoError(t, os.WriteFile(fresh, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))

	assert.Eventually(t, func() bool {
		_, err1 := os.Stat(fresh + ImportedSuffix)
		_, err2 := os.Stat(bad + FailedSuffix)
		return err1 == nil && err2 == nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.ElementsMatch(t, []string{
		"sync_package_20260301_090000.json",
		"sync_package_20260301_100000.json",
		"sync_package_20260301_110000.json",
	}, rec.seen())
}

func TestNewInbox_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sync", "inbox")
	in, err := NewInbox(dir, func(context.Context, string) error { return nil }, logger.Discard(), Options{})
	require.NoError(t, err)
	defer in.Close() //nolint:errcheck // Test cleanup

	assert.DirExists(t, dir)
	assert.Equal(t, dir, in.Dir())
}
