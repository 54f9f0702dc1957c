package ui

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brogergvhs/noveld/internal/util"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

type MPBProgressManager struct {
	p *mpb.Progress

	mu      sync.Mutex
	handles []*ProgressHandle
}

func NewProgressManager() *MPBProgressManager {
	p := mpb.New(
		mpb.WithWidth(52),
		mpb.WithOutput(os.Stdout),
		mpb.WithRefreshRate(120*time.Millisecond),
	)
	return &MPBProgressManager{p: p}
}

// Close completes any bar still running and waits for the final render.
func (pm *MPBProgressManager) Close() {
	pm.mu.Lock()
	handles := pm.handles
	pm.handles = nil
	pm.mu.Unlock()

	for _, h := range handles {
		h.MarkDone()
	}
	pm.p.Wait()
}

// Register adds a chapter bar. A limit of 0 means the total is unknown and the
// bar grows with every chapter.
func (pm *MPBProgressManager) Register(prefix string, limit int) *ProgressHandle {
	h := &ProgressHandle{
		pm:     pm,
		prefix: prefix,
		limit:  int64(limit),
	}
	h.initBar()

	pm.mu.Lock()
	pm.handles = append(pm.handles, h)
	pm.mu.Unlock()

	return h
}

type ProgressHandle struct {
	pm     *MPBProgressManager
	prefix string
	bar    *mpb.Bar
	limit  int64

	done  atomic.Int64
	bytes atomic.Int64
	last  atomic.Value

	start   time.Time
	elapsed atomic.Int64

	final atomic.Bool
}

func (h *ProgressHandle) initBar() {
	h.start = time.Now()
	h.last.Store("")

	h.bar = h.pm.p.New(
		0,
		mpb.BarStyle().Rbound("]"),

		mpb.PrependDecorators(
			decor.Name(h.prefix+"  "),
		),

		mpb.AppendDecorators(
			decor.Any(func(_ decor.Statistics) string {
				if h.limit > 0 {
					return fmt.Sprintf(" %d/%d chapters", h.done.Load(), h.limit)
				}
				return fmt.Sprintf(" %d chapters", h.done.Load())
			}),
			decor.Any(func(_ decor.Statistics) string {
				return " | " + util.Human(h.bytes.Load())
			}),

			decor.Any(func(_ decor.Statistics) string {
				if h.final.Load() {
					return fmt.Sprintf(" | %ds", h.elapsed.Load())
				}
				return fmt.Sprintf(" | %ds", int(time.Since(h.start).Seconds()))
			}),
			decor.Any(func(_ decor.Statistics) string {
				if t, _ := h.last.Load().(string); t != "" {
					return " | " + t
				}
				return ""
			}),
		),
	)

	if h.limit > 0 {
		h.bar.SetTotal(h.limit, false)
	}
}

// Increment records one appended chapter.
func (h *ProgressHandle) Increment(title string, bytes int64) {
	if h.final.Load() {
		return
	}

	done := h.done.Add(1)
	h.bytes.Add(bytes)
	h.last.Store(title)

	if h.limit <= 0 {
		// keep the bar one step ahead while the end is unknown
		h.bar.SetTotal(done+1, false)
	}
	h.bar.SetCurrent(done)
}

func (h *ProgressHandle) MarkDone() {
	if h.final.Swap(true) {
		return
	}

	h.elapsed.Store(int64(time.Since(h.start).Seconds()))

	done := h.done.Load()
	h.bar.SetCurrent(done)
	h.bar.SetTotal(done, true)
}
