package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"inspiration-batch/internal/artifact"
	"inspiration-batch/internal/catalog"
	"inspiration-batch/internal/prompt"
)

const titleWidth = 50

type Generator interface {
	Generate(ctx context.Context, text string, slug string, aspect prompt.AspectRatio) bool
}

type Options struct {
	Executor Generator
	Store    *artifact.Store
	// Delay is waited after every generation attempt. Skipped entries make
	// no remote call and are not followed by a delay.
	Delay  time.Duration
	Out    io.Writer
	Logger *slog.Logger
	// Sleep replaces the context-aware timer wait, mainly for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Runner processes entries strictly one after another.
type Runner struct {
	exec   Generator
	store  *artifact.Store
	delay  time.Duration
	out    io.Writer
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(opts Options) *Runner {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	delay := opts.Delay
	if delay < 0 {
		delay = 0
	}

	return &Runner{
		exec:   opts.Executor,
		store:  opts.Store,
		delay:  delay,
		out:    out,
		logger: logger,
		sleep:  sleep,
	}
}

// Run generates every entry that has no artifact yet and writes the ledger
// named after label. Per-entry failures are recorded and never stop the
// loop. If ctx is cancelled the ledger of the processed prefix is still
// written and ctx's error is returned.
func (r *Runner) Run(ctx context.Context, entries []catalog.Entry, label string) (Summary, error) {
	total := len(entries)
	summary := Summary{Outcomes: make([]Outcome, 0, total)}

	fmt.Fprintf(r.out, "Processing %d prompts (%s)\n", total, label)
	fmt.Fprintf(r.out, "Output directory: %s\n", r.store.Dir())
	r.logger.Info("batch started", "label", label, "count", total, "delay", r.delay)

	var runErr error
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		outcome, attempted := r.process(ctx, i, total, e)
		summary.add(outcome)

		if attempted && r.delay > 0 && i < total-1 {
			if err := r.sleep(ctx, r.delay); err != nil {
				runErr = err
				break
			}
		}
	}

	r.printSummary(summary)

	ledgerPath, err := writeLedger(r.store, label, summary.Outcomes)
	if err != nil {
		return summary, err
	}
	summary.LedgerPath = ledgerPath
	fmt.Fprintf(r.out, "\nResults saved to %s\n", ledgerPath)

	r.logger.Info("batch finished",
		"label", label,
		"success", summary.Success,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"ledger", ledgerPath,
	)

	if runErr != nil {
		r.logger.Warn("batch interrupted", "processed", summary.Total(), "count", total, "err", runErr)
		return summary, runErr
	}
	return summary, nil
}

// process handles one entry. attempted reports whether a remote call was made.
func (r *Runner) process(ctx context.Context, i, total int, e catalog.Entry) (outcome Outcome, attempted bool) {
	outcome = Outcome{ID: e.ID, Slug: e.Slug}

	if !artifact.ValidSlug(e.Slug) {
		fmt.Fprintf(r.out, "[%d/%d] Invalid slug %q\n", i+1, total, e.Slug)
		r.logger.Warn("entry has an unusable slug", "id", e.ID, "slug", e.Slug)
		outcome.Status = StatusFailed
		return outcome, false
	}

	path := r.store.Path(e.Slug)
	if r.store.Exists(e.Slug) {
		fmt.Fprintf(r.out, "[%d/%d] Skipping %s (already exists)\n", i+1, total, e.Slug)
		outcome.Status = StatusSkipped
		outcome.Path = path
		return outcome, false
	}

	raw, ok := e.FirstPrompt()
	if !ok {
		fmt.Fprintf(r.out, "[%d/%d] %s has no prompt\n", i+1, total, e.Slug)
		r.logger.Warn("entry has no prompt", "id", e.ID, "slug", e.Slug)
		outcome.Status = StatusFailed
		return outcome, false
	}

	fmt.Fprintf(r.out, "[%d/%d] Generating %s: %s...\n", i+1, total, e.Slug, shortTitle(e.Title))

	text := prompt.Normalize(raw)
	aspect := prompt.ClassifyAspectRatio(text)

	if r.exec.Generate(ctx, text, e.Slug, aspect) {
		fmt.Fprintf(r.out, "  ✓ Saved to %s\n", path)
		outcome.Status = StatusSuccess
		outcome.Path = path
	} else {
		fmt.Fprintf(r.out, "  ✗ Failed to generate\n")
		outcome.Status = StatusFailed
	}
	return outcome, true
}

func (r *Runner) printSummary(s Summary) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintf(r.out, "\n%s\nSUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(r.out, "Success: %d\n", s.Success)
	fmt.Fprintf(r.out, "Skipped: %d\n", s.Skipped)
	fmt.Fprintf(r.out, "Failed: %d\n", s.Failed)
}

func shortTitle(title string) string {
	if title == "" {
		title = "untitled"
	}
	runes := []rune(title)
	if len(runes) > titleWidth {
		return string(runes[:titleWidth])
	}
	return title
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
