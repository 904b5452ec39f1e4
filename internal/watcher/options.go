package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// PackagePattern matches the files written by a sync export.
const PackagePattern = "sync_package_*.json"

// Options configures the watcher.
type Options struct {
	// Patterns limits events to base names matching any glob. Empty accepts all.
	Patterns       []string
	IgnorePatterns []string
	SettleDelay    time.Duration
	IgnoreHidden   bool
}

func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 100 * time.Millisecond
	}

	// Explicitly empty patterns keep the caller's IgnoreHidden choice.
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{".DS_Store", "*.tmp", "*.temp", "Thumbs.db"}
		o.IgnoreHidden = true
	}
}

func (o *Options) shouldIgnore(path string) bool {
	if o.IgnoreHidden {
		for _, part := range strings.Split(filepath.Clean(path), string(filepath.Separator)) {
			if strings.HasPrefix(part, ".") && part != "." && part != ".." {
				return true
			}
		}
	}

	base := filepath.Base(path)
	for _, pattern := range o.IgnorePatterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}

// accepts reports whether a file passes the include patterns.
func (o *Options) accepts(path string) bool {
	if len(o.Patterns) == 0 {
		return true
	}
	base := filepath.Base(path)
	for _, pattern := range o.Patterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
