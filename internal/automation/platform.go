package automation

import (
	"context"
	_ "embed"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Platform adapts the controller to one learning site.
type Platform interface {
	Name() string
	// IsWatchPage reports whether rawURL is a page that plays a video.
	IsWatchPage(rawURL string) bool
	VideoTitle(ctx context.Context, page Page) string
	// EnableAutoplay turns on the site's own autoplay toggle if it is off.
	EnableAutoplay(ctx context.Context, page Page) (bool, error)
	// SkipAds clicks a visible skip button and reports whether one was found.
	// Overlay ads are closed as a side effect.
	SkipAds(ctx context.Context, page Page) (bool, error)
	// Dismiss closes modal prompts that interrupt playback.
	Dismiss(ctx context.Context, page Page) error
	// Resume restarts a stalled video.
	Resume(ctx context.Context, page Page) error
	// Advance moves to the next item. Only called when ManualAdvance is set.
	Advance(ctx context.Context, page Page) (bool, error)
	// IsInterstitial reports whether rawURL is a quiz or project page that
	// sits between videos.
	IsInterstitial(rawURL string) bool
	// SkipInterstitial clicks the site's skip or next control on an
	// interstitial page and reports whether one was found.
	SkipInterstitial(ctx context.Context, page Page) (bool, error)

	RequestSummary() bool
	AutoResume() bool
	ManualAdvance() bool
}

//go:embed platforms.yaml
var platformsYAML []byte

type toggleDef struct {
	Selector  string `yaml:"selector"`
	Attribute string `yaml:"attribute"`
	OffValue  string `yaml:"offValue"`
}

type platformDef struct {
	Name                string    `yaml:"name"`
	Hosts               []string  `yaml:"hosts"`
	WatchMarkers        []string  `yaml:"watchMarkers"`
	InterstitialMarkers []string  `yaml:"interstitialMarkers"`
	TitleSuffix         string    `yaml:"titleSuffix"`
	TitleSelectors      []string  `yaml:"titleSelectors"`
	AdSkipSelectors     []string  `yaml:"adSkipSelectors"`
	OverlaySelectors    []string  `yaml:"overlaySelectors"`
	DismissSelectors    []string  `yaml:"dismissSelectors"`
	NextSelectors       []string  `yaml:"nextSelectors"`
	SkipSelectors       []string  `yaml:"skipSelectors"`
	PlaySelectors       []string  `yaml:"playSelectors"`
	AutoplayToggle      toggleDef `yaml:"autoplayToggle"`
	RequestSummary      bool      `yaml:"requestSummary"`
	AutoResume          bool      `yaml:"autoResume"`
	ManualAdvance       bool      `yaml:"manualAdvance"`
}

type platformFile struct {
	Platforms []platformDef `yaml:"platforms"`
}

// selectorPlatform drives a site purely through CSS selectors.
type selectorPlatform struct {
	def platformDef
}

// ParsePlatforms reads platform definitions in the platforms.yaml format.
func ParsePlatforms(data []byte) ([]Platform, error) {
	var file platformFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse platforms: %w", err)
	}
	out := make([]Platform, 0, len(file.Platforms))
	for _, def := range file.Platforms {
		if def.Name == "" || len(def.Hosts) == 0 {
			return nil, fmt.Errorf("parse platforms: entry %q needs a name and hosts", def.Name)
		}
		out = append(out, &selectorPlatform{def: def})
	}
	return out, nil
}

//nolint:gochecknoglobals // Parsed once from the embedded definitions
var (
	builtinOnce      sync.Once
	builtinPlatforms []Platform
	builtinErr       error
)

// Platforms returns the built-in platform definitions.
func Platforms() ([]Platform, error) {
	builtinOnce.Do(func() {
		builtinPlatforms, builtinErr = ParsePlatforms(platformsYAML)
	})
	return builtinPlatforms, builtinErr
}

// Detect returns the built-in platform serving rawURL.
func Detect(rawURL string) (Platform, bool) {
	platforms, err := Platforms()
	if err != nil {
		return nil, false
	}
	return DetectIn(platforms, rawURL)
}

// DetectIn returns the platform in platforms whose hosts match rawURL.
func DetectIn(platforms []Platform, rawURL string) (Platform, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, false
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range platforms {
		sp, ok := p.(*selectorPlatform)
		if !ok {
			continue
		}
		for _, h := range sp.def.Hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return p, true
			}
		}
	}
	return nil, false
}

func (p *selectorPlatform) Name() string { return p.def.Name }

func (p *selectorPlatform) IsWatchPage(rawURL string) bool {
	if len(p.def.WatchMarkers) == 0 {
		return true
	}
	for _, m := range p.def.WatchMarkers {
		if strings.Contains(rawURL, m) {
			return true
		}
	}
	return false
}

func (p *selectorPlatform) IsInterstitial(rawURL string) bool {
	for _, m := range p.def.InterstitialMarkers {
		if strings.Contains(rawURL, m) {
			return true
		}
	}
	return false
}

// SkipInterstitial tries the skip selectors in order. Sites without any
// never report a skip.
func (p *selectorPlatform) SkipInterstitial(ctx context.Context, page Page) (bool, error) {
	if len(p.def.SkipSelectors) == 0 {
		return false, nil
	}
	return page.ClickVisible(ctx, p.def.SkipSelectors...)
}

// VideoTitle tries the title selectors and falls back to the document
// title without the site suffix.
func (p *selectorPlatform) VideoTitle(ctx context.Context, page Page) string {
	if text, err := page.Text(ctx, p.def.TitleSelectors...); err == nil && text != "" {
		return text
	}
	title, err := page.Title(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(title, p.def.TitleSuffix))
}

func (p *selectorPlatform) EnableAutoplay(ctx context.Context, page Page) (bool, error) {
	t := p.def.AutoplayToggle
	if t.Selector == "" {
		return false, nil
	}
	state, err := page.Attribute(ctx, t.Selector, t.Attribute)
	if err != nil || state != t.OffValue {
		return false, err
	}
	return page.ClickVisible(ctx, t.Selector)
}

func (p *selectorPlatform) SkipAds(ctx context.Context, page Page) (bool, error) {
	skipped := false
	if len(p.def.AdSkipSelectors) > 0 {
		var err error
		if skipped, err = page.ClickVisible(ctx, p.def.AdSkipSelectors...); err != nil {
			return false, err
		}
	}
	if len(p.def.OverlaySelectors) > 0 {
		if _, err := page.ClickVisible(ctx, p.def.OverlaySelectors...); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

func (p *selectorPlatform) Dismiss(ctx context.Context, page Page) error {
	if len(p.def.DismissSelectors) == 0 {
		return nil
	}
	_, err := page.ClickAllVisible(ctx, p.def.DismissSelectors...)
	return err
}

// Resume clicks the site's play control, or plays the element directly
// when no control is visible.
func (p *selectorPlatform) Resume(ctx context.Context, page Page) error {
	if len(p.def.PlaySelectors) > 0 {
		clicked, err := page.ClickVisible(ctx, p.def.PlaySelectors...)
		if err != nil || clicked {
			return err
		}
	}
	return page.Play(ctx)
}

func (p *selectorPlatform) Advance(ctx context.Context, page Page) (bool, error) {
	if len(p.def.NextSelectors) == 0 {
		return false, nil
	}
	return page.ClickVisible(ctx, p.def.NextSelectors...)
}

func (p *selectorPlatform) RequestSummary() bool { return p.def.RequestSummary }
func (p *selectorPlatform) AutoResume() bool     { return p.def.AutoResume }
func (p *selectorPlatform) ManualAdvance() bool  { return p.def.ManualAdvance }
