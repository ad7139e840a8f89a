package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/manuscript/internal/doctree"
	"github.com/dgallion1/manuscript/internal/importer"
	"github.com/dgallion1/manuscript/internal/parser"
	"github.com/dgallion1/manuscript/internal/store"
	"github.com/dgallion1/manuscript/internal/textnorm"
)

// NovelStore is the persistence the worker needs.
type NovelStore interface {
	GetNovel(ctx context.Context, id string) (*store.Novel, error)
	ReplaceNovel(ctx context.Context, novelID string, src store.Source, novel *importer.Novel) ([]store.Chapter, error)
}

// Worker processes a single import job.
type Worker struct {
	store NovelStore
	stats *ImportStats
	log   *slog.Logger
}

func NewWorker(st NovelStore, stats *ImportStats, log *slog.Logger) *Worker {
	return &Worker{store: st, stats: stats, log: log}
}

// Process runs decode, segmentation and storage for a job. Stored chapters
// are only replaced once the whole import has succeeded.
func (w *Worker) Process(ctx context.Context, job *Job) {
	start := time.Now()
	log := w.log.With("job_id", job.ID, "novel_id", job.NovelID, "filename", job.Filename)
	failed := true
	defer func() {
		job.releaseFileData()
		if w.stats != nil {
			w.stats.Record(time.Since(start).Milliseconds(), failed)
		}
	}()

	data := job.FileData()

	// Phase 1: Decode
	job.SetStatus(StatusDecoding, "decoding")
	format, err := parser.Detect(job.Filename, job.MediaType, data)
	if err != nil {
		w.fail(log, job, "decoding", err)
		return
	}
	p, err := parser.ForFormat(format)
	if err != nil {
		w.fail(log, job, "decoding", err)
		return
	}
	paras, err := p.Parse(bytes.NewReader(data), job.Filename)
	if err != nil {
		w.fail(log, job, "decoding", fmt.Errorf("decode %s: %w", format, err))
		return
	}
	job.SetParagraphs(len(paras))
	job.SetContentHash(ContentHashHex(data))

	// Phase 1.5: Dedup check
	if !job.Force {
		existing, err := w.store.GetNovel(ctx, job.NovelID)
		switch {
		case err == nil && existing.ContentHash == job.ContentHash:
			log.Info("duplicate import, skipping", "content_hash", job.ContentHash)
			job.SetStatus(StatusDupSkipped, "dedup")
			failed = false
			return
		case err != nil && !errors.Is(err, store.ErrNotFound):
			log.Warn("dedup check failed, proceeding", "error", err)
		}
	}

	// Phase 2: Segment
	job.SetStatus(StatusSegmenting, "segmenting")
	novel := importer.Build(paras, textnorm.TitleFromFilename(job.Filename), format.String())
	words := 0
	for _, ch := range novel.Chapters {
		words += doctree.WordCount(ch.Doc)
	}
	job.SetResult(novel.Title, len(novel.Chapters), words)
	log.Info("segmented document", "paragraphs", len(paras), "chapters", len(novel.Chapters), "words", words)

	// Phase 3: Store
	job.SetStatus(StatusStoring, "storing")
	src := store.Source{Filename: job.Filename, ContentHash: job.ContentHash}
	var lastErr error
	for attempt := range MaxRetries {
		_, lastErr = w.store.ReplaceNovel(ctx, job.NovelID, src, novel)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable store error", "attempt", attempt, "error", lastErr)
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			lastErr = ctx.Err()
		}
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr != nil {
		w.fail(log, job, "storing", lastErr)
		return
	}

	failed = false
	job.SetStatus(StatusCompleted, "done")
	log.Info("import complete", "novel_title", novel.Title, "duration_ms", time.Since(start).Milliseconds())
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase string, err error) {
	log.Error("import failed", "phase", phase, "error", err)
	job.AddError(fmt.Sprintf("%s: %s", phase, err))
	job.SetStatus(StatusFailed, phase)
}
