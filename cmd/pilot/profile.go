package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/coursepilot/coursepilot/internal/domain"
)

// profile is an automation preset read from TOML. Absent keys keep the
// stored setting.
//
//	playbackSpeed = 2.0
//	videoLimit    = 5
//	autoSkipAds   = true
type profile struct {
	PlaybackSpeed *float64 `toml:"playbackSpeed"`
	VideoLimit    *int     `toml:"videoLimit"`
	AutoSkipAds   *bool    `toml:"autoSkipAds"`
	AutoNext      *bool    `toml:"autoNext"`
	TrackProgress *bool    `toml:"trackProgress"`
}

func loadProfile(path string) (profile, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from the operator
	if err != nil {
		return profile{}, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	var p profile
	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&p); err != nil {
		return profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

func (p profile) patch() domain.SettingsPatch {
	return domain.SettingsPatch{
		PlaybackSpeed: p.PlaybackSpeed,
		VideoLimit:    p.VideoLimit,
		AutoSkipAds:   p.AutoSkipAds,
		AutoNext:      p.AutoNext,
		TrackProgress: p.TrackProgress,
	}
}
