package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/sse"
	"github.com/coursepilot/coursepilot/internal/store"
	"github.com/coursepilot/coursepilot/internal/validation"
)

// SettingsService reads and writes the synced settings record.
//
// The synced tier does not raise change events itself, so every write here
// emits a storage.changed event for the sync namespace.
type SettingsService struct {
	kv        store.KV
	emitter   store.EventEmitter
	validator *validation.Validator
	logger    *slog.Logger

	mu sync.Mutex
}

// NewSettingsService creates a new settings service over the synced tier.
func NewSettingsService(kv store.KV, emitter store.EventEmitter, v *validation.Validator, logger *slog.Logger) *SettingsService {
	if emitter == nil {
		emitter = store.NewNoopEmitter()
	}
	return &SettingsService{
		kv:        kv,
		emitter:   emitter,
		validator: v,
		logger:    logger,
	}
}

// Get returns the settings, using the install default for any absent key.
func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	values, err := s.kv.Get(ctx, domain.SettingsKeys...)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	settings := domain.DefaultSettings()
	err = errors.Join(
		decodeValue(values, domain.KeyPlaybackSpeed, &settings.PlaybackSpeed),
		decodeValue(values, domain.KeyVideoLimit, &settings.VideoLimit),
		decodeValue(values, domain.KeyAutoSkipAds, &settings.AutoSkipAds),
		decodeValue(values, domain.KeyAutoNext, &settings.AutoNext),
		decodeValue(values, domain.KeyTrackProgress, &settings.TrackProgress),
		decodeValue(values, domain.KeyIsRunning, &settings.IsRunning),
	)
	if err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// Update validates and persists the fields set in patch, returning the
// merged settings.
func (s *SettingsService) Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	if err := s.validator.Validate(patch); err != nil {
		return domain.Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Get(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if patch.Empty() {
		return current, nil
	}

	values := patch.Values()
	if err := s.kv.Set(ctx, values); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	patch.Apply(&current)

	s.emitChanged(values)
	s.logger.Info("settings updated", "keys", keysOf(values))
	return current, nil
}

// SetRunning persists the isRunning flag.
func (s *SettingsService) SetRunning(ctx context.Context, running bool) (domain.Settings, error) {
	return s.Update(ctx, domain.SettingsPatch{IsRunning: &running})
}

// InstallDefaults writes the default value of every absent settings key.
// Existing values are left alone.
func (s *SettingsService) InstallDefaults(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.kv.Get(ctx, domain.SettingsKeys...)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	missing := make(map[string]any)
	for k, v := range domain.DefaultSettings().Values() {
		if _, ok := existing[k]; !ok {
			missing[k] = v
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err := s.kv.Set(ctx, missing); err != nil {
		return fmt.Errorf("install default settings: %w", err)
	}
	s.emitChanged(missing)
	s.logger.Info("installed default settings", "keys", keysOf(missing))
	return nil
}

func (s *SettingsService) emitChanged(values map[string]any) {
	s.emitter.Emit(sse.NewStorageChangedEvent(string(store.NamespaceSync), keysOf(values), false))
}

func decodeValue[T any](values store.Values, key string, dst *T) error {
	_, err := store.Decode(values, key, dst)
	return err
}

func keysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
