package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"

	"portalfetch/logger"
)

// ChromeOptions configures the Chrome process started by ChromeLauncher.
type ChromeOptions struct {
	// ExecPath overrides chromedp's Chrome discovery when set.
	ExecPath string
	Headless bool
	// SettleDelay is slept between scrolling an element into view and clicking it.
	SettleDelay  time.Duration
	WindowWidth  int
	WindowHeight int
}

// DefaultChromeOptions mirrors the flags used on CI runners.
func DefaultChromeOptions() ChromeOptions {
	return ChromeOptions{
		Headless:     true,
		SettleDelay:  500 * time.Millisecond,
		WindowWidth:  1920,
		WindowHeight: 1080,
	}
}

// ChromeLauncher starts headless Chrome through the DevTools protocol.
type ChromeLauncher struct {
	Options ChromeOptions
	Log     logger.Logger
}

// NewChromeLauncher returns a launcher using opts.
func NewChromeLauncher(opts ChromeOptions, log logger.Logger) *ChromeLauncher {
	return &ChromeLauncher{Options: opts, Log: log}
}

func (l *ChromeLauncher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.Options.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(l.Options.WindowWidth, l.Options.WindowHeight),
	)
	if l.Options.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.Options.ExecPath))
	}
	return opts
}

// Launch starts Chrome and allows downloads into downloadDir. The returned
// session must be closed even when later steps fail.
func (l *ChromeLauncher) Launch(ctx context.Context, downloadDir string) (Session, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, l.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		ctx:         tabCtx,
		settleDelay: l.Options.SettleDelay,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
	}

	// An empty Run starts the browser. It must use the long-lived tab context:
	// the first Run binds the browser's lifetime to its context.
	if err := chromedp.Run(tabCtx); err != nil {
		s.cancel()
		return nil, fmt.Errorf("error starting chrome: %w", err)
	}

	// Headless Chrome refuses downloads unless told otherwise. Newer builds
	// accept them anyway, so a failure here is only worth a warning.
	err := chromedp.Run(tabCtx,
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(downloadDir).
			WithEventsEnabled(true),
	)
	if err != nil {
		l.Log.Warn(ctx, "could not set download behavior", logger.String("dir", downloadDir), logger.Error(err))
	}

	return s, nil
}

type chromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	settleDelay time.Duration
	closed      bool
}

// bind returns a context carrying the tab from s.ctx and the deadline and
// cancellation of ctx.
func (s *chromeSession) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	bound, cancel := context.WithCancel(s.ctx)
	stop := context.AfterFunc(ctx, cancel)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		bound, cancelDeadline = context.WithDeadline(bound, deadline)
		return bound, func() {
			cancelDeadline()
			stop()
			cancel()
		}
	}
	return bound, func() {
		stop()
		cancel()
	}
}

func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.closed {
		return errors.New("session closed")
	}
	bound, cancel := s.bind(ctx)
	defer cancel()
	return chromedp.Run(bound, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("error navigating to %s: %w", url, err)
	}
	return nil
}

func (s *chromeSession) WaitClickable(ctx context.Context, loc Locator) error {
	xp := loc.XPath()
	err := s.run(ctx,
		chromedp.WaitVisible(xp, chromedp.BySearch),
		chromedp.WaitEnabled(xp, chromedp.BySearch),
	)
	if err != nil {
		return notFound(loc, err)
	}
	return nil
}

func (s *chromeSession) Click(ctx context.Context, loc Locator) error {
	xp := loc.XPath()
	found, err := s.scrollIntoView(ctx, xp)
	if err != nil {
		return fmt.Errorf("error scrolling to %s: %w", loc, err)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	err = s.run(ctx,
		chromedp.Sleep(s.settleDelay),
		chromedp.Click(xp, chromedp.BySearch, chromedp.NodeVisible),
	)
	if err != nil {
		return fmt.Errorf("error clicking %s: %w", loc, err)
	}
	return nil
}

func (s *chromeSession) FindAll(ctx context.Context, loc Locator) ([]Locator, error) {
	var count int
	if err := s.run(ctx, chromedp.Evaluate(countScript(loc.XPath()), &count)); err != nil {
		return nil, fmt.Errorf("error finding %s: %w", loc, err)
	}
	matches := make([]Locator, count)
	for i := range matches {
		matches[i] = Nth(loc, i)
	}
	return matches, nil
}

type optionsResult struct {
	Found   bool     `json:"found"`
	Options []string `json:"options"`
}

func (s *chromeSession) Options(ctx context.Context, loc Locator) ([]string, error) {
	var res optionsResult
	if err := s.run(ctx, chromedp.Evaluate(optionsScript(loc.XPath()), &res)); err != nil {
		return nil, fmt.Errorf("error reading options of %s: %w", loc, err)
	}
	if !res.Found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	return res.Options, nil
}

func (s *chromeSession) SelectOption(ctx context.Context, loc Locator, label string) error {
	var selected bool
	if err := s.run(ctx, chromedp.Evaluate(selectScript(loc.XPath(), label), &selected)); err != nil {
		return fmt.Errorf("error selecting %q in %s: %w", label, loc, err)
	}
	if !selected {
		return fmt.Errorf("%w: option %q in %s", ErrNotFound, label, loc)
	}
	return nil
}

func (s *chromeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	// Cancel closes the browser gracefully; the allocator cancel then
	// reaps the process and its temporary profile.
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("error closing chrome: %w", err)
	}
	return nil
}

func (s *chromeSession) scrollIntoView(ctx context.Context, xp string) (bool, error) {
	var found bool
	err := s.run(ctx, chromedp.Evaluate(scrollScript(xp), &found))
	return found, err
}

func notFound(loc Locator, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s not clickable in time", ErrNotFound, loc)
	}
	return fmt.Errorf("error waiting for %s: %w", loc, err)
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

const firstNodeJS = `document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`

func countScript(xp string) string {
	return fmt.Sprintf(`document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength`, jsString(xp))
}

func scrollScript(xp string) string {
	return fmt.Sprintf(`(function() {
	const el = `+firstNodeJS+`;
	if (!el) return false;
	el.scrollIntoView({block: 'center'});
	return true;
})()`, jsString(xp))
}

func optionsScript(xp string) string {
	return fmt.Sprintf(`(function() {
	const el = `+firstNodeJS+`;
	if (!el || !el.options) return {found: false, options: []};
	return {found: true, options: Array.from(el.options).map(o => o.text)};
})()`, jsString(xp))
}

func selectScript(xp, label string) string {
	return fmt.Sprintf(`(function() {
	const el = `+firstNodeJS+`;
	if (!el || !el.options) return false;
	for (let i = 0; i < el.options.length; i++) {
		if (el.options[i].text === %s) {
			el.selectedIndex = i;
			el.dispatchEvent(new Event('change', {bubbles: true}));
			return true;
		}
	}
	return false;
})()`, jsString(xp), jsString(label))
}
