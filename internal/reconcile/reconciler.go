package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"inspiration-batch/internal/artifact"
	"inspiration-batch/internal/catalog"
)

const DefaultPublicPrefix = "/generated-inspiration/"

type Options struct {
	Catalog *catalog.Catalog
	Store   *artifact.Store
	// PublicPrefix is prepended to <slug>.png to form the reference stored in
	// the catalog.
	PublicPrefix string
	Out          io.Writer
	Logger       *slog.Logger
}

type Reconciler struct {
	catalog *catalog.Catalog
	store   *artifact.Store
	prefix  string
	out     io.Writer
	logger  *slog.Logger
}

func New(opts Options) *Reconciler {
	prefix := opts.PublicPrefix
	if prefix == "" {
		prefix = DefaultPublicPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Reconciler{
		catalog: opts.Catalog,
		store:   opts.Store,
		prefix:  prefix,
		out:     out,
		logger:  logger,
	}
}

// Reference is the catalog value recorded for a slug's artifact.
func (r *Reconciler) Reference(slug string) string {
	return r.prefix + slug + artifact.Ext
}

// Run annotates every entry that has an artifact and saves the catalog. It
// returns the number of entries annotated.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	artifacts, err := r.store.List(ctx)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(r.out, "Found %d generated images\n", len(artifacts))
	r.logger.Info("artifacts found", "count", len(artifacts), "dir", r.store.Dir())

	updated := 0
	for i, e := range r.catalog.Entries {
		if e.Slug == "" {
			continue
		}
		if _, ok := artifacts[e.Slug]; !ok {
			continue
		}
		if err := r.catalog.SetGeneratedImage(i, r.Reference(e.Slug)); err != nil {
			return updated, fmt.Errorf("annotate %s: %w", e.Slug, err)
		}
		updated++
	}

	if err := r.catalog.Save(); err != nil {
		return updated, fmt.Errorf("save catalog: %w", err)
	}

	fmt.Fprintf(r.out, "Updated %d prompts with generatedImage\n", updated)
	fmt.Fprintf(r.out, "Saved to %s\n", r.catalog.Path())
	r.logger.Info("catalog reconciled", "updated", updated, "path", r.catalog.Path())
	return updated, nil
}
