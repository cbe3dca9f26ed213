// Package portal runs one end-to-end extraction: drive the portal to export
// the dataset, wait for the file, and normalize it into the output CSV.
package portal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"portalfetch/browser"
	"portalfetch/download"
	"portalfetch/executor"
	"portalfetch/logger"
	"portalfetch/metrics"
	"portalfetch/models"
)

// Error kinds surfaced by a run. Download timeouts and parse failures keep
// their own sentinels, download.ErrTimeout and artifact.ErrParse.
var (
	ErrNavigation = errors.New("navigation failed")
	ErrSubmit     = errors.New("submit failed")
)

// Stage names, in run order.
const (
	StageInit          = "Init"
	StageNavigate      = "Navigate"
	StageSelectFilters = "SelectFilters"
	StageChooseFormat  = "ChooseFormat"
	StageSubmit        = "Submit"
	StageAwaitDownload = "AwaitDownload"
	StageNormalize     = "Normalize"
	StagePublish       = "Publish"
)

// Publisher receives the normalized table, e.g. to load it into a database.
type Publisher interface {
	Publish(ctx context.Context, table *models.Table) (int, error)
}

// Result summarizes a run.
type Result struct {
	RunID string
	// Stage is the last stage entered; on failure, the one that failed.
	Stage    string
	Artifact string
	Output   string

	RowsRead    int
	RowsWritten int
	RowsDropped int
	Published   int

	Timings []executor.StageTiming
	Elapsed time.Duration
	Err     error
}

// Succeeded reports whether the output file was produced.
func (r *Result) Succeeded() bool {
	return r.Err == nil
}

// Fetcher performs extraction runs. It is not safe for concurrent use: runs
// share the download directory.
type Fetcher struct {
	launcher  browser.Launcher
	opts      Options
	log       logger.Logger
	metrics   *metrics.Manager
	publisher Publisher
	now       func() time.Time
	runID     string
}

// New creates a Fetcher that starts browsers with launcher.
func New(launcher browser.Launcher, opts Options, options ...Option) *Fetcher {
	f := &Fetcher{
		launcher: launcher,
		opts:     opts,
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, o := range options {
		o(f)
	}
	return f
}

// run carries the state of one Run between stages.
type run struct {
	*Fetcher
	log      logger.Logger
	result   *Result
	session  browser.Session
	baseline download.Snapshot
	table    *models.Table
}

// Run performs one extraction. The browser is closed and the marker file
// written on every exit path; the returned Result carries the first fatal
// error, if any.
func (f *Fetcher) Run(ctx context.Context) *Result {
	id := f.runID
	if id == "" {
		id = uuid.NewString()
	}
	r := &run{Fetcher: f, log: f.log.Named("portal"), result: &Result{RunID: id}}

	ex := &executor.Executor{Log: r.log, Observer: r.observe}
	stages := []executor.Stage{
		{Name: StageInit, Run: r.init},
		{Name: StageNavigate, Run: r.navigate},
		{Name: StageSelectFilters, Run: r.selectFilters},
		{Name: StageChooseFormat, Run: r.chooseFormat},
		{Name: StageSubmit, Run: r.submit},
		{Name: StageAwaitDownload, Run: r.awaitDownload},
		{Name: StageNormalize, Run: r.normalize},
		{Name: StagePublish, Run: r.publish, Skip: func() bool { return f.publisher == nil }},
	}

	r.log.Info(ctx, "run started", logger.String("run_id", id), logger.String("download_dir", f.opts.DownloadDir))
	ex.Execute(ctx, stages, r.cleanup)
	return r.result
}

func (r *run) observe(timing executor.StageTiming, _ error) {
	if r.metrics != nil {
		r.metrics.ObserveStage(timing.Name, timing.Duration)
	}
}

func (r *run) init(ctx context.Context) error {
	if err := ensureDir(r.opts.DownloadDir); err != nil {
		return err
	}
	session, err := r.launcher.Launch(ctx, r.opts.DownloadDir)
	if err != nil {
		return fmt.Errorf("error starting browser: %w", err)
	}
	r.session = session
	return nil
}

// step bounds one element interaction by the element timeout.
func (r *run) step(ctx context.Context, fn func(ctx context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, r.opts.ElementTimeout)
	defer cancel()
	return fn(stepCtx)
}

func (r *run) clickWhenReady(ctx context.Context, loc browser.Locator) error {
	return r.step(ctx, func(ctx context.Context) error {
		if err := r.session.WaitClickable(ctx, loc); err != nil {
			return err
		}
		return r.session.Click(ctx, loc)
	})
}

func (r *run) navigate(ctx context.Context) error {
	plan := r.opts.Plan
	r.log.Info(ctx, "opening portal", logger.String("url", plan.PortalURL))
	err := r.step(ctx, func(ctx context.Context) error {
		return r.session.Navigate(ctx, plan.PortalURL)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNavigation, err)
	}

	for i, label := range plan.Steps {
		r.log.Info(ctx, "following link", logger.Int("step", i+1), logger.String("label", label))
		if err := r.clickWhenReady(ctx, browser.LinkText(label)); err != nil {
			return fmt.Errorf("%w: step %d %q: %w", ErrNavigation, i+1, label, err)
		}
	}
	return nil
}

// selectFilters is best effort: nothing here fails the run.
func (r *run) selectFilters(ctx context.Context) error {
	plan := r.opts.Plan
	loc := browser.TextContaining(plan.SelectAllTag, plan.SelectAllPhrase)

	var matches []browser.Locator
	err := r.step(ctx, func(ctx context.Context) error {
		var err error
		matches, err = r.session.FindAll(ctx, loc)
		return err
	})
	if err != nil {
		r.log.Warn(ctx, "could not look up select-all controls; continuing", logger.Error(err))
		return nil
	}
	if len(matches) == 0 {
		r.log.Warn(ctx, "no select-all controls found; continuing", logger.String("phrase", plan.SelectAllPhrase))
		return nil
	}

	clicked := 0
	for i, match := range matches {
		err := r.step(ctx, func(ctx context.Context) error {
			return r.session.Click(ctx, match)
		})
		if err != nil {
			r.log.Warn(ctx, "select-all click failed; skipping", logger.Int("index", i), logger.Error(err))
			continue
		}
		clicked++
	}
	r.log.Info(ctx, "selected all variables", logger.Int("controls", len(matches)), logger.Int("clicked", clicked))
	return nil
}

// chooseFormat picks the first output format mentioning the keyword. The
// portal's default format is kept when there is no such option.
func (r *run) chooseFormat(ctx context.Context) error {
	plan := r.opts.Plan
	loc := browser.Name(plan.FormatControl)

	var options []string
	err := r.step(ctx, func(ctx context.Context) error {
		if err := r.session.WaitClickable(ctx, loc); err != nil {
			return err
		}
		var err error
		options, err = r.session.Options(ctx, loc)
		return err
	})
	if err != nil {
		r.log.Warn(ctx, "output format control unavailable; using default export type", logger.Error(err))
		return nil
	}

	label, ok := matchOption(options, plan.FormatKeyword)
	if !ok {
		r.log.Warn(ctx, "format option not found; using default export type",
			logger.String("keyword", plan.FormatKeyword), logger.Any("options", options))
		return nil
	}

	err = r.step(ctx, func(ctx context.Context) error {
		return r.session.SelectOption(ctx, loc, label)
	})
	if err != nil {
		r.log.Warn(ctx, "could not select format; using default export type", logger.String("option", label), logger.Error(err))
		return nil
	}
	r.log.Info(ctx, "selected format", logger.String("option", label))
	return nil
}

// matchOption returns the first option whose label contains keyword, ignoring case.
func matchOption(options []string, keyword string) (string, bool) {
	keyword = strings.ToLower(keyword)
	for _, opt := range options {
		if strings.Contains(strings.ToLower(opt), keyword) {
			return opt, true
		}
	}
	return "", false
}

func (r *run) submit(ctx context.Context) error {
	plan := r.opts.Plan

	// Files already present are not the export we are about to request.
	baseline, err := download.Take(r.opts.DownloadDir)
	if err != nil {
		return err
	}
	r.baseline = baseline

	var errs []error
	for _, loc := range submitLocators(plan) {
		err := r.clickWhenReady(ctx, loc)
		if err == nil {
			r.log.Info(ctx, "export requested", logger.String("control", loc.String()))
			return nil
		}
		r.log.Warn(ctx, "submit control failed", logger.String("control", loc.String()), logger.Error(err))
		errs = append(errs, err)
	}
	return fmt.Errorf("%w: %w", ErrSubmit, errors.Join(errs...))
}

func submitLocators(plan models.Plan) []browser.Locator {
	var locs []browser.Locator
	if plan.SubmitName != "" {
		locs = append(locs, browser.Name(plan.SubmitName))
	}
	if plan.SubmitFallbackXPath != "" {
		locs = append(locs, browser.XPath(plan.SubmitFallbackXPath))
	}
	return locs
}

func (r *run) awaitDownload(ctx context.Context) error {
	r.log.Info(ctx, "waiting for download", logger.String("dir", r.opts.DownloadDir), logger.Duration("timeout", r.opts.DownloadTimeout))
	path, err := download.Wait(ctx, r.opts.DownloadDir, download.Options{
		Interval: r.opts.PollInterval,
		Timeout:  r.opts.DownloadTimeout,
		Ignore:   r.ownFiles(),
		Baseline: r.baseline,
	})
	if err != nil {
		return err
	}
	r.result.Artifact = path
	r.log.Info(ctx, "downloaded", logger.String("file", path))
	return nil
}

// ownFiles lists the base names this program writes into the download directory.
func (r *run) ownFiles() []string {
	var names []string
	for _, p := range []string{r.opts.OutputPath, r.opts.MarkerPath, r.opts.MetricsPath} {
		if p != "" {
			names = append(names, filepath.Base(p))
		}
	}
	return names
}

func (r *run) normalize(ctx context.Context) error {
	table, stats, err := Normalize(r.result.Artifact, r.opts.OutputPath)
	if err != nil {
		return err
	}
	r.table = table
	r.result.Output = stats.Output
	r.result.RowsRead = stats.RowsRead
	r.result.RowsWritten = stats.RowsWritten
	r.result.RowsDropped = stats.RowsDropped
	if r.metrics != nil {
		r.metrics.RecordRows(stats.RowsRead, stats.RowsWritten, stats.RowsDropped)
	}
	r.log.Info(ctx, "saved cleaned file", logger.String("file", stats.Output),
		logger.Int("rows", stats.RowsWritten), logger.Int("dropped", stats.RowsDropped))
	return nil
}

func (r *run) publish(ctx context.Context) error {
	n, err := r.publisher.Publish(ctx, r.table)
	if err != nil {
		return fmt.Errorf("error publishing table: %w", err)
	}
	r.result.Published = n
	r.log.Info(ctx, "published table", logger.Int("rows", n))
	return nil
}

// cleanup runs on every exit path, so it logs its own failures instead of
// replacing the run's error.
func (r *run) cleanup(ctx context.Context, exec *executor.ExecutionResult) {
	res := r.result
	res.Stage = exec.Stage
	res.Timings = exec.Timings
	res.Elapsed = exec.Elapsed
	res.Err = exec.Err

	if r.session != nil {
		if err := r.session.Close(); err != nil {
			r.log.Warn(ctx, "error closing browser", logger.Error(err))
		} else {
			r.log.Info(ctx, "browser closed")
		}
	}

	finished := r.now()
	if err := writeMarker(r.opts.MarkerPath, res, finished); err != nil {
		r.log.Warn(ctx, "could not write marker file", logger.String("file", r.opts.MarkerPath), logger.Error(err))
	}

	if r.metrics != nil {
		r.metrics.RecordRun(res.RunID, res.Stage, res.Succeeded(), res.Elapsed, finished)
		if r.opts.MetricsPath != "" {
			if err := r.metrics.WriteTextfile(r.opts.MetricsPath); err != nil {
				r.log.Warn(ctx, "could not write metrics", logger.String("file", r.opts.MetricsPath), logger.Error(err))
			}
		}
	}
}
