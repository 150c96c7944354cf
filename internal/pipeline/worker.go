package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/epiclist/internal/awesome"
	"github.com/dgallion1/epiclist/internal/mdparse"
	"github.com/dgallion1/epiclist/internal/stats"
)

// Worker extracts catalog entries from documents. It holds no per-document
// state and may be shared by all pipeline goroutines.
type Worker struct {
	opts mdparse.Options
	rec  *stats.Recorder
	log  *slog.Logger

	// extract is awesome.ExtractDocument outside tests.
	extract func(string, mdparse.Options) (*awesome.Catalog, error)

	maxConcurrentExtract int
}

func NewWorker(opts mdparse.Options, rec *stats.Recorder, log *slog.Logger, maxExtract int) *Worker {
	if maxExtract <= 0 {
		maxExtract = 1
	}
	return &Worker{
		opts:                 opts,
		rec:                  rec,
		log:                  log,
		extract:              awesome.ExtractDocument,
		maxConcurrentExtract: maxExtract,
	}
}

// Options returns the parser options the worker extracts with.
func (w *Worker) Options() mdparse.Options { return w.opts }

// Parse parses one document and records the outcome.
func (w *Worker) Parse(markdown string) (*mdparse.Document, error) {
	doc, err := mdparse.Parse(markdown, w.opts)
	w.rec.Parsed(outcome(err))
	return doc, err
}

// Extract parses one document, extracts its catalog and records the
// outcome.
func (w *Worker) Extract(markdown string) (*awesome.Catalog, error) {
	start := time.Now()
	c, err := w.extract(markdown, w.opts)
	w.rec.Extracted(outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	byType := make(map[string]int)
	for _, e := range c.Entries {
		byType[e.LinkType.String()]++
	}
	w.rec.Entries(byType)
	return c, nil
}

func outcome(err error) string {
	var se *mdparse.StructuralError
	switch {
	case err == nil:
		return stats.OutcomeOK
	case errors.As(err, &se):
		return stats.OutcomeRejected
	default:
		return stats.OutcomeError
	}
}

// Process extracts every document of a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)
	docs := job.Documents()

	job.SetStatus(StatusParsing, "parsing")
	log.Info("processing batch", "documents", len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxConcurrentExtract)

	failed := make([]bool, len(docs))
	for i, doc := range docs {
		g.Go(func() error {
			r := DocumentResult{
				Name:        doc.Name,
				ContentHash: ContentHashHex([]byte(doc.Markdown)),
				Entries:     []awesome.AwesomeLink{},
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := w.Extract(doc.Markdown)
			if err != nil {
				log.Error("extraction failed", "document", doc.Name, "error", err)
				r.Error = err.Error()
				failed[i] = true
				job.AddError(fmt.Sprintf("%s: %s", doc.Name, err))
			} else {
				r.Entries = c.Entries
				r.LineCount = c.LineCount
			}
			job.SetResult(i, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("batch cancelled", "error", err)
		job.AddError(fmt.Sprintf("cancelled: %s", err))
		job.SetStatus(StatusFailed, "cancelled")
		return
	}

	nFailed := 0
	for _, f := range failed {
		if f {
			nFailed++
		}
	}
	snap := job.Snapshot()
	log.Info("batch complete", "entries", snap.Progress.EntriesExtracted, "failed_documents", nFailed)

	switch {
	case nFailed == 0:
		job.SetStatus(StatusCompleted, "done")
	case nFailed < len(docs):
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "done")
	}
}
