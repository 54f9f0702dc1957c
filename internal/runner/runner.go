// Package runner drives one download: metadata, the book shell, the
// sequential chapter loop and the final write.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brogergvhs/noveld/internal/book"
	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/ui"
)

type Source interface {
	FetchMetadata(ctx context.Context) (book.Metadata, error)
	FetchChapter(ctx context.Context, n int) (chapters.Chapter, error)
	FetchCover(ctx context.Context, url string) (contentType string, data []byte, err error)
}

type Persister interface {
	MaybeCheckpoint(doc *book.Document, count int) bool
	Finalize(doc *book.Document) bool
	Output() string
	TempPath() string
}

type Progress interface {
	Increment(title string, bytes int64)
}

// Timer matches fetcher.Timer.
type Timer interface {
	After(time.Duration) <-chan time.Time
}

type realTimer struct{}

func (realTimer) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

type Config struct {
	Start int
	// Max is the chapter cap; 0 means no cap.
	Max   int
	Delay time.Duration
}

type Result struct {
	Phase     Phase
	Reason    Reason
	Chapters  int
	First     int
	Last      int
	Output    string
	TempPath  string
	Persisted bool
	Document  *book.Document
}

type Runner struct {
	cfg      Config
	src      Source
	persist  Persister
	log      *ui.Logger
	progress Progress
	stats    *ui.Stats
	timer    Timer
	state    *RunState
}

type Option func(*Runner)

func WithProgress(p Progress) Option {
	return func(r *Runner) { r.progress = p }
}

func WithStats(s *ui.Stats) Option {
	return func(r *Runner) { r.stats = s }
}

func WithTimer(t Timer) Option {
	return func(r *Runner) { r.timer = t }
}

func New(cfg Config, src Source, p Persister, log *ui.Logger, opts ...Option) *Runner {
	if cfg.Start < 1 {
		cfg.Start = 1
	}
	if cfg.Max < 0 {
		cfg.Max = 0
	}
	if log == nil {
		log = ui.NopLogger()
	}

	r := &Runner{
		cfg:     cfg,
		src:     src,
		persist: p,
		log:     log,
		stats:   &ui.Stats{},
		timer:   realTimer{},
		state:   newRunState(cfg.Start),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Runner) State() *RunState {
	return r.state
}

// Stop is safe to call from a signal handler goroutine.
func (r *Runner) Stop() {
	r.state.Stop()
}

// Run executes the whole download. An error is returned only when metadata
// could not be fetched; in that case nothing is written. Every other path
// ends in exactly one Finalize.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	st := r.state

	st.Phase = PhaseFetchingMetadata
	meta, err := r.src.FetchMetadata(ctx)
	if err != nil {
		st.Phase = PhaseAborted
		r.log.Errorf("Aborting: failed to fetch metadata: %v", err)
		return Result{Phase: PhaseAborted, Output: r.persist.Output()}, fmt.Errorf("fetch metadata: %w", err)
	}

	st.Phase = PhaseBuildingShell
	doc := book.New(meta)
	r.attachCover(ctx, doc, meta.CoverURL)
	doc.AddDescriptionPage()

	st.Phase = PhaseFetchingChapters
	st.Reason = r.fetchChapters(ctx, doc)
	if st.Reason.StoppedEarly() {
		r.log.Infof("Stopping at chapter %d: %s", st.Cursor, st.Reason)
	}

	st.Phase = PhaseFinalizing
	persisted := r.persist.Finalize(doc)

	st.Phase = PhaseDone

	res := Result{
		Phase:     PhaseDone,
		Reason:    st.Reason,
		Chapters:  st.Count,
		Output:    r.persist.Output(),
		TempPath:  r.persist.TempPath(),
		Persisted: persisted,
		Document:  doc,
	}
	if st.Count > 0 {
		res.First = r.cfg.Start
		res.Last = doc.LastChapter()
	}

	return res, nil
}

func (r *Runner) fetchChapters(ctx context.Context, doc *book.Document) (reason Reason) {
	st := r.state

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorf("Chapter %d: unexpected failure: %v", st.Cursor, rec)
			reason = ReasonFetchFailed
		}
	}()

	for {
		if st.Stopped() {
			return ReasonInterrupted
		}
		if r.capReached() {
			return ReasonCapReached
		}

		ch, err := r.src.FetchChapter(ctx, st.Cursor)
		if err != nil {
			switch {
			case errors.Is(err, chapters.ErrNoContent):
				r.log.Warnf("No content found in chapter %d", st.Cursor)
				return ReasonNoContent
			case ctx.Err() != nil:
				return ReasonInterrupted
			default:
				r.log.Errorf("Chapter %d download failed: %v", st.Cursor, err)
				return ReasonFetchFailed
			}
		}

		if err := doc.AppendChapter(ch); err != nil {
			r.log.Errorf("Chapter %d rejected: %v", st.Cursor, err)
			return ReasonFetchFailed
		}

		st.Count++
		st.Cursor++

		r.stats.TotalChapters.Add(1)
		r.stats.TotalBytes.Add(ch.Size())
		if r.progress != nil {
			r.progress.Increment(ch.Title, ch.Size())
		}
		r.log.Debugf("Chapter %d: %s", ch.Number, ch.Title)

		r.persist.MaybeCheckpoint(doc, st.Count)

		if !st.Stopped() && !r.capReached() {
			r.pause(ctx)
		}
	}
}

func (r *Runner) capReached() bool {
	return r.cfg.Max > 0 && r.state.Count >= r.cfg.Max
}

// pause waits out the pacing delay unless a stop request or ctx ends it first.
func (r *Runner) pause(ctx context.Context) {
	if r.cfg.Delay <= 0 {
		return
	}

	select {
	case <-r.timer.After(r.cfg.Delay):
	case <-r.state.wake:
	case <-ctx.Done():
	}
}

func (r *Runner) attachCover(ctx context.Context, doc *book.Document, url string) {
	if url == "" {
		return
	}

	contentType, data, err := r.src.FetchCover(ctx, url)
	if err != nil {
		r.log.Warnf("Cover download failed: %v", err)
		return
	}

	if err := doc.AttachCover(contentType, data); err != nil {
		r.log.Warnf("Cover skipped: %v", err)
		return
	}

	r.log.Debugf("Cover attached (%s, %d bytes)", contentType, len(data))
}
