package domain

// Settings keys in the synced namespace. Each field is stored under its own key.
const (
	KeyPlaybackSpeed = "playbackSpeed"
	KeyVideoLimit    = "videoLimit"
	KeyAutoSkipAds   = "autoSkipAds"
	KeyAutoNext      = "autoNext"
	KeyTrackProgress = "trackProgress"
	KeyIsRunning     = "isRunning"
)

// SettingsKeys lists every synced settings key.
var SettingsKeys = []string{
	KeyPlaybackSpeed,
	KeyVideoLimit,
	KeyAutoSkipAds,
	KeyAutoNext,
	KeyTrackProgress,
	KeyIsRunning,
}

// Playback speed bounds offered by the speed control.
const (
	MinPlaybackSpeed = 0.25
	MaxPlaybackSpeed = 3.0
)

// Settings is the singleton automation configuration. Last writer wins.
type Settings struct {
	PlaybackSpeed float64 `json:"playbackSpeed" toml:"playbackSpeed"`
	VideoLimit    int     `json:"videoLimit" toml:"videoLimit"` // 0 means unlimited
	AutoSkipAds   bool    `json:"autoSkipAds" toml:"autoSkipAds"`
	AutoNext      bool    `json:"autoNext" toml:"autoNext"`
	TrackProgress bool    `json:"trackProgress" toml:"trackProgress"`
	IsRunning     bool    `json:"isRunning" toml:"isRunning"`
}

// DefaultSettings returns the install defaults.
func DefaultSettings() Settings {
	return Settings{
		PlaybackSpeed: 1.0,
		VideoLimit:    0,
		AutoSkipAds:   true,
		AutoNext:      true,
		TrackProgress: true,
		IsRunning:     false,
	}
}

// Values returns the settings as a key/value record for the store.
func (s Settings) Values() map[string]any {
	return map[string]any{
		KeyPlaybackSpeed: s.PlaybackSpeed,
		KeyVideoLimit:    s.VideoLimit,
		KeyAutoSkipAds:   s.AutoSkipAds,
		KeyAutoNext:      s.AutoNext,
		KeyTrackProgress: s.TrackProgress,
		KeyIsRunning:     s.IsRunning,
	}
}

// LimitReached reports whether watched has hit a non-zero video limit.
func (s Settings) LimitReached(watched int) bool {
	return s.VideoLimit > 0 && watched >= s.VideoLimit
}

// SettingsPatch is a partial settings update. Nil fields are left alone.
type SettingsPatch struct {
	PlaybackSpeed *float64 `json:"playbackSpeed,omitempty" validate:"omitnil,gte=0.25,lte=3"`
	VideoLimit    *int     `json:"videoLimit,omitempty" validate:"omitnil,gte=0"`
	AutoSkipAds   *bool    `json:"autoSkipAds,omitempty"`
	AutoNext      *bool    `json:"autoNext,omitempty"`
	TrackProgress *bool    `json:"trackProgress,omitempty"`
	IsRunning     *bool    `json:"isRunning,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p SettingsPatch) Empty() bool {
	return len(p.Values()) == 0
}

// Apply copies the set fields onto s.
func (p SettingsPatch) Apply(s *Settings) {
	if p.PlaybackSpeed != nil {
		s.PlaybackSpeed = *p.PlaybackSpeed
	}
	if p.VideoLimit != nil {
		s.VideoLimit = *p.VideoLimit
	}
	if p.AutoSkipAds != nil {
		s.AutoSkipAds = *p.AutoSkipAds
	}
	if p.AutoNext != nil {
		s.AutoNext = *p.AutoNext
	}
	if p.TrackProgress != nil {
		s.TrackProgress = *p.TrackProgress
	}
	if p.IsRunning != nil {
		s.IsRunning = *p.IsRunning
	}
}

// Values returns only the keys the patch sets.
func (p SettingsPatch) Values() map[string]any {
	out := make(map[string]any)
	if p.PlaybackSpeed != nil {
		out[KeyPlaybackSpeed] = *p.PlaybackSpeed
	}
	if p.VideoLimit != nil {
		out[KeyVideoLimit] = *p.VideoLimit
	}
	if p.AutoSkipAds != nil {
		out[KeyAutoSkipAds] = *p.AutoSkipAds
	}
	if p.AutoNext != nil {
		out[KeyAutoNext] = *p.AutoNext
	}
	if p.TrackProgress != nil {
		out[KeyTrackProgress] = *p.TrackProgress
	}
	if p.IsRunning != nil {
		out[KeyIsRunning] = *p.IsRunning
	}
	return out
}
