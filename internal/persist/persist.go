// Package persist writes the in-progress book to a temporary file during the
// run and promotes it to the final output path at the end.
package persist

import (
	"os"

	"github.com/brogergvhs/noveld/internal/book"
	"github.com/brogergvhs/noveld/internal/ui"
	"github.com/brogergvhs/noveld/internal/util"
)

// DefaultEvery is the checkpoint cadence in appended chapters.
const DefaultEvery = 5

const tempSuffix = ".tmp"

// Writer serializes a whole document to path.
type Writer interface {
	WriteFile(doc *book.Document, path string) error
}

type Persister struct {
	writer Writer
	output string
	every  int
	log    *ui.Logger
	stats  *ui.Stats

	rename util.RenameFunc
}

func New(w Writer, output string, every int, log *ui.Logger) *Persister {
	if every <= 0 {
		every = DefaultEvery
	}
	if log == nil {
		log = ui.NopLogger()
	}

	return &Persister{
		writer: w,
		output: output,
		every:  every,
		log:    log,
		rename: os.Rename,
	}
}

// WithStats counts successful checkpoints into s.
func (p *Persister) WithStats(s *ui.Stats) *Persister {
	p.stats = s
	return p
}

func (p *Persister) Output() string {
	return p.output
}

// TempPath is where checkpoints go: the output path plus ".tmp".
func (p *Persister) TempPath() string {
	return p.output + tempSuffix
}

func (p *Persister) Every() int {
	return p.every
}

// Checkpoint writes doc to the temp path. Failures are logged and reported as
// false; the caller keeps going.
func (p *Persister) Checkpoint(doc *book.Document) bool {
	if err := p.writer.WriteFile(doc, p.TempPath()); err != nil {
		p.log.Errorf("Progress saving error: %v", err)
		return false
	}

	if p.stats != nil {
		p.stats.Checkpoints.Add(1)
	}
	p.log.Debugf("Checkpoint written: %s (%d chapters)", p.TempPath(), doc.ChapterCount())
	return true
}

// MaybeCheckpoint checkpoints when count is a positive multiple of the
// cadence. It reports whether a checkpoint was attempted.
func (p *Persister) MaybeCheckpoint(doc *book.Document, count int) bool {
	if count <= 0 || count%p.every != 0 {
		return false
	}

	p.Checkpoint(doc)
	p.log.Infof("Downloaded %d chapters...", count)
	return true
}

// Finalize writes the complete document to the temp path and renames it over
// the output. Success means the output holds doc and the temp file is gone. On
// failure the temp file, if written, is kept and an existing output is left
// untouched.
func (p *Persister) Finalize(doc *book.Document) bool {
	tmp := p.TempPath()

	if err := p.writer.WriteFile(doc, tmp); err != nil {
		p.log.Errorf("EPUB finalizing error: %v", err)
		p.reportTemp()
		return false
	}

	if err := util.PromoteFile(tmp, p.output, p.rename); err != nil {
		p.log.Errorf("EPUB finalizing error: %v", err)
		p.reportTemp()
		return false
	}

	return true
}

func (p *Persister) reportTemp() {
	if util.Exists(p.TempPath()) {
		p.log.Warnf("A temporary file with progress has been saved: %s", util.AbsPath(p.TempPath()))
	}
}
