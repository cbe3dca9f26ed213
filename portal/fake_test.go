package portal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"portalfetch/browser"
)

// fakeSession plays the portal: it records every call and lets tests decide
// which elements exist.
type fakeSession struct {
	mu sync.Mutex

	calls []string
	// missing holds XPaths that never become clickable.
	missing map[string]bool
	// clickErrs fails clicks on specific XPaths.
	clickErrs map[string]error
	// selectAll is the number of select-all controls on the page.
	selectAll  int
	findErr    error
	options    []string
	optionsErr error
	selected   string
	onClick    func(loc browser.Locator)
	closed     int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		missing:   map[string]bool{},
		clickErrs: map[string]error{},
	}
}

func (s *fakeSession) record(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *fakeSession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.record("navigate %s", url)
	return nil
}

func (s *fakeSession) WaitClickable(ctx context.Context, loc browser.Locator) error {
	if s.missing[loc.XPath()] {
		<-ctx.Done()
		return fmt.Errorf("%w: %s not clickable in time", browser.ErrNotFound, loc)
	}
	return nil
}

func (s *fakeSession) Click(_ context.Context, loc browser.Locator) error {
	if err := s.clickErrs[loc.XPath()]; err != nil {
		return err
	}
	s.record("click %s", loc)
	if s.onClick != nil {
		s.onClick(loc)
	}
	return nil
}

func (s *fakeSession) FindAll(_ context.Context, loc browser.Locator) ([]browser.Locator, error) {
	s.record("find %s", loc)
	if s.findErr != nil {
		return nil, s.findErr
	}
	matches := make([]browser.Locator, s.selectAll)
	for i := range matches {
		matches[i] = browser.Nth(loc, i)
	}
	return matches, nil
}

func (s *fakeSession) Options(_ context.Context, loc browser.Locator) ([]string, error) {
	if s.optionsErr != nil {
		return nil, s.optionsErr
	}
	return s.options, nil
}

func (s *fakeSession) SelectOption(_ context.Context, loc browser.Locator, label string) error {
	s.record("select %q", label)
	s.selected = label
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type fakeLauncher struct {
	session *fakeSession
	err     error
	dir     string
}

func (l *fakeLauncher) Launch(_ context.Context, downloadDir string) (browser.Session, error) {
	l.dir = downloadDir
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

var errClickIntercepted = errors.New("element click intercepted")
