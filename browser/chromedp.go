package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// controlIDAttr tags snapshotted controls so later actions can resolve
// them without re-walking the DOM.
const controlIDAttr = "data-applyflow-id"

// snapshotScript walks visible, enabled form controls, tags each with
// a stable per-snapshot ID, and returns their metadata as JSON.
const snapshotScript = `
(function(limit) {
	const visible = (el) => {
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') return false;
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	};
	const kindOf = (el) => {
		const tag = el.tagName.toLowerCase();
		if (tag === 'textarea') return 'textarea';
		if (tag === 'select') return 'select';
		const type = (el.getAttribute('type') || 'text').toLowerCase();
		if (type === 'checkbox') return 'checkbox';
		if (type === 'radio') return 'radio';
		if (type === 'file') return 'file';
		if (['hidden', 'submit', 'button', 'reset', 'image'].includes(type)) return null;
		return 'text';
	};
	const out = [];
	const els = document.querySelectorAll('input, textarea, select');
	for (const el of els) {
		if (out.length >= limit) break;
		if (el.disabled || el.readOnly || !visible(el)) continue;
		const kind = kindOf(el);
		if (!kind) continue;
		const id = 'ctl-' + out.length;
		el.setAttribute('` + controlIDAttr + `', id);
		const control = {
			id: id,
			kind: kind,
			name: el.getAttribute('name') || '',
			placeholder: el.getAttribute('placeholder') || '',
			aria_label: el.getAttribute('aria-label') || '',
			value: kind === 'checkbox' ? String(el.checked) : (el.value || ''),
			required: el.required === true,
		};
		if (kind === 'select') {
			control.options = Array.from(el.options).map(o => o.textContent.trim());
		}
		out.push(control);
	}
	return JSON.stringify(out);
})`

// clickButtonScript clicks the first visible button whose text matches
// one of the labels (case-insensitive substring). Returns true on
// click.
const clickButtonScript = `
(function(labels) {
	const wanted = labels.map(l => l.toLowerCase());
	const candidates = document.querySelectorAll(
		'button, input[type="submit"], input[type="button"], a[role="button"]');
	for (const el of candidates) {
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') continue;
		const text = (el.textContent || el.value || '').trim().toLowerCase();
		if (!text) continue;
		if (wanted.some(w => text.includes(w))) {
			el.click();
			return true;
		}
	}
	return false;
})`

// ChromeBrowser drives a headless Chrome instance via chromedp.
type ChromeBrowser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	opts        ChromeOptions
}

// ChromeOptions configures the Chrome session.
type ChromeOptions struct {
	Headless       bool
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	NavTimeout     time.Duration
}

// NewChromeBrowser launches a Chrome allocator with the given options.
func NewChromeBrowser(ctx context.Context, opts ChromeOptions) (*ChromeBrowser, error) {
	if opts.ViewportWidth == 0 {
		opts.ViewportWidth = 1280
	}
	if opts.ViewportHeight == 0 {
		opts.ViewportHeight = 800
	}
	if opts.NavTimeout == 0 {
		opts.NavTimeout = 30 * time.Second
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{},
		chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	return &ChromeBrowser{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		opts:        opts,
	}, nil
}

// NewPage opens a fresh tab.
func (b *ChromeBrowser) NewPage(_ context.Context) (Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.allocCtx)
	return &chromePage{
		ctx:        tabCtx,
		cancel:     tabCancel,
		navTimeout: b.opts.NavTimeout,
	}, nil
}

// Close shuts the browser down.
func (b *ChromeBrowser) Close() error {
	b.allocCancel()
	return nil
}

type chromePage struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
	closed     bool
}

func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()
	select {
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) Location(ctx context.Context) (string, error) {
	var loc string
	if err := p.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("get location: %w", err)
	}
	return loc, nil
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("get page content: %w", err)
	}
	return html, nil
}

func (p *chromePage) Controls(ctx context.Context, limit int) ([]Control, error) {
	var raw string
	expr := fmt.Sprintf("%s(%d)", snapshotScript, limit)
	if err := p.run(ctx, chromedp.Evaluate(expr, &raw)); err != nil {
		return nil, fmt.Errorf("snapshot controls: %w", err)
	}

	var controls []Control
	if err := json.Unmarshal([]byte(raw), &controls); err != nil {
		return nil, fmt.Errorf("decode control snapshot: %w", err)
	}
	return controls, nil
}

func (p *chromePage) selector(controlID string) string {
	return fmt.Sprintf(`[%s=%q]`, controlIDAttr, controlID)
}

func (p *chromePage) Fill(ctx context.Context, controlID, value string) error {
	sel := p.selector(controlID)
	err := p.run(ctx,
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, value, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill %s: %w", controlID, err)
	}
	return nil
}

func (p *chromePage) SetChecked(ctx context.Context, controlID string, checked bool) error {
	expr := fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) return false;
		if (el.checked !== %t) el.click();
		return true;
	})()`, p.selector(controlID), checked)

	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
		return fmt.Errorf("set checked %s: %w", controlID, err)
	}
	if !ok {
		return fmt.Errorf("set checked %s: %w", controlID, ErrControlNotFound)
	}
	return nil
}

// SelectOption picks the option whose visible text matches label,
// since the snapshot (and therefore the decision) speaks in option
// labels, not value attributes.
func (p *chromePage) SelectOption(ctx context.Context, controlID, label string) error {
	expr := fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) return 'missing';
		const wanted = %q.trim().toLowerCase();
		for (const opt of el.options) {
			if (opt.textContent.trim().toLowerCase() === wanted) {
				el.value = opt.value;
				el.dispatchEvent(new Event('change', { bubbles: true }));
				return 'ok';
			}
		}
		return 'no-option';
	})()`, p.selector(controlID), label)

	var result string
	if err := p.run(ctx, chromedp.Evaluate(expr, &result)); err != nil {
		return fmt.Errorf("select option %s: %w", controlID, err)
	}
	switch result {
	case "ok":
		return nil
	case "missing":
		return fmt.Errorf("select option %s: %w", controlID, ErrControlNotFound)
	default:
		return fmt.Errorf("select option %s: no option labeled %q", controlID, label)
	}
}

func (p *chromePage) AttachFile(ctx context.Context, controlID, path string) error {
	sel := p.selector(controlID)
	if err := p.run(ctx, chromedp.SetUploadFiles(sel, []string{path}, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("attach file %s: %w", controlID, err)
	}
	return nil
}

func (p *chromePage) ClickButton(ctx context.Context, labels []string) error {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	expr := fmt.Sprintf("%s([%s])", clickButtonScript, strings.Join(quoted, ","))

	var clicked bool
	if err := p.run(ctx, chromedp.Evaluate(expr, &clicked)); err != nil {
		return fmt.Errorf("click button: %w", err)
	}
	if !clicked {
		return ErrNoButton
	}
	return nil
}

func (p *chromePage) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.cancel()
	return nil
}
