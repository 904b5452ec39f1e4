// Package rodpage implements automation.Page on a Chrome tab driven by rod.
package rodpage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/coursepilot/coursepilot/internal/automation"
)

const (
	videoJS = `() => {
		const v = document.querySelector('video');
		if (!v) return "";
		return JSON.stringify({
			currentTime: v.currentTime,
			duration: isFinite(v.duration) ? v.duration : 0,
			paused: v.paused,
			ended: v.ended,
			playbackRate: v.playbackRate,
		});
	}`
	setRateJS = `(rate) => {
		const v = document.querySelector('video');
		if (!v) return false;
		v.playbackRate = rate;
		return true;
	}`
	seekJS = `(t) => {
		const v = document.querySelector('video');
		if (!v) return false;
		v.currentTime = t;
		return true;
	}`
	playJS = `() => {
		const v = document.querySelector('video');
		if (!v) return false;
		v.play().catch(() => {});
		return true;
	}`
	textJS = `(sels) => {
		for (const s of sels) {
			try {
				const el = document.querySelector(s);
				const t = el && el.textContent ? el.textContent.trim() : "";
				if (t) return t;
			} catch (e) {}
		}
		return "";
	}`
	clickJS = `(sels) => {
		for (const s of sels) {
			let el = null;
			try { el = document.querySelector(s); } catch (e) { continue; }
			if (el && el.offsetParent !== null && !el.disabled) {
				el.click();
				return true;
			}
		}
		return false;
	}`
	clickAllJS = `(sels) => {
		let n = 0;
		for (const s of sels) {
			let els = [];
			try { els = document.querySelectorAll(s); } catch (e) { continue; }
			for (const el of els) {
				if (el.offsetParent !== null && !el.disabled) {
					el.click();
					n++;
				}
			}
		}
		return n;
	}`
	attrJS = `(sel, name) => {
		try {
			const el = document.querySelector(sel);
			return el ? (el.getAttribute(name) || "") : "";
		} catch (e) { return ""; }
	}`
	titleJS = `() => document.title`
	urlJS   = `() => location.href`
)

// Page adapts a rod page to automation.Page.
type Page struct {
	page *rod.Page
}

var _ automation.Page = (*Page)(nil)

// New wraps p.
func New(p *rod.Page) *Page {
	return &Page{page: p}
}

// Rod returns the underlying rod page.
func (p *Page) Rod() *rod.Page { return p.page }

func (p *Page) eval(ctx context.Context, js string, args ...any) (*evalResult, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return nil, err
	}
	return &evalResult{str: res.Value.Str(), b: res.Value.Bool(), n: res.Value.Int()}, nil
}

type evalResult struct {
	str string
	b   bool
	n   int
}

func (p *Page) Video(ctx context.Context) (automation.VideoState, error) {
	res, err := p.eval(ctx, videoJS)
	if err != nil {
		return automation.VideoState{}, fmt.Errorf("read video: %w", err)
	}
	if res.str == "" {
		return automation.VideoState{}, automation.ErrNoVideo
	}
	var v automation.VideoState
	if err := json.Unmarshal([]byte(res.str), &v); err != nil {
		return automation.VideoState{}, fmt.Errorf("decode video state: %w", err)
	}
	return v, nil
}

func (p *Page) SetPlaybackRate(ctx context.Context, rate float64) error {
	return p.videoCall(ctx, setRateJS, rate)
}

func (p *Page) Seek(ctx context.Context, seconds float64) error {
	return p.videoCall(ctx, seekJS, seconds)
}

func (p *Page) Play(ctx context.Context) error {
	return p.videoCall(ctx, playJS)
}

func (p *Page) videoCall(ctx context.Context, js string, args ...any) error {
	res, err := p.eval(ctx, js, args...)
	if err != nil {
		return err
	}
	if !res.b {
		return automation.ErrNoVideo
	}
	return nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	res, err := p.eval(ctx, urlJS)
	if err != nil {
		return "", err
	}
	return res.str, nil
}

func (p *Page) Text(ctx context.Context, selectors ...string) (string, error) {
	if len(selectors) == 0 {
		return "", nil
	}
	res, err := p.eval(ctx, textJS, selectors)
	if err != nil {
		return "", err
	}
	return res.str, nil
}

func (p *Page) ClickVisible(ctx context.Context, selectors ...string) (bool, error) {
	if len(selectors) == 0 {
		return false, nil
	}
	res, err := p.eval(ctx, clickJS, selectors)
	if err != nil {
		return false, err
	}
	return res.b, nil
}

func (p *Page) ClickAllVisible(ctx context.Context, selectors ...string) (int, error) {
	if len(selectors) == 0 {
		return 0, nil
	}
	res, err := p.eval(ctx, clickAllJS, selectors)
	if err != nil {
		return 0, err
	}
	return res.n, nil
}

func (p *Page) Attribute(ctx context.Context, selector, name string) (string, error) {
	res, err := p.eval(ctx, attrJS, selector, name)
	if err != nil {
		return "", err
	}
	return res.str, nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	res, err := p.eval(ctx, titleJS)
	if err != nil {
		return "", err
	}
	return res.str, nil
}
