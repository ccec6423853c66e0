package download

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/dustin/go-humanize"

	"github.com/thruflo/shelly/internal/tui"
)

// DefaultRedrawInterval throttles progress redraws.
const DefaultRedrawInterval = 100 * time.Millisecond

const (
	barWidth  = 30
	nameWidth = 32
)

// BarReporter draws download progress on a single console line: a
// progress bar when the size is known, a spinner otherwise.
type BarReporter struct {
	console  *tui.Console
	name     string
	total    int64
	current  int64
	bar      progress.Model
	frames   []string
	frame    int
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewBarReporter creates a BarReporter for a download of name.
func NewBarReporter(c *tui.Console, name string, total int64) *BarReporter {
	return &BarReporter{
		console:  c,
		name:     tui.Truncate(name, nameWidth),
		total:    total,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		frames:   spinner.Dot.Frames,
		interval: DefaultRedrawInterval,
		now:      time.Now,
	}
}

// Bars returns a ReporterFunc drawing BarReporters on c.
func Bars(c *tui.Console) ReporterFunc {
	return func(name string, total int64) Reporter {
		return NewBarReporter(c, name, total)
	}
}

// Add records n more bytes and redraws if the interval has passed or the
// download is complete.
func (r *BarReporter) Add(n int64) {
	r.current += n
	now := r.now()
	complete := r.total > 0 && r.current >= r.total
	if !complete && !r.last.IsZero() && now.Sub(r.last) < r.interval {
		return
	}
	r.last = now
	r.console.Overwrite(r.line())
}

// Finish clears the progress line.
func (r *BarReporter) Finish() {
	r.console.Clear()
}

func (r *BarReporter) line() string {
	if r.total > 0 {
		pct := float64(r.current) / float64(r.total)
		if pct > 1 {
			pct = 1
		}
		return fmt.Sprintf("%s %s %s / %s", r.name, r.bar.ViewAs(pct),
			humanize.Bytes(uint64(r.current)), humanize.Bytes(uint64(r.total)))
	}
	frame := r.frames[r.frame%len(r.frames)]
	r.frame++
	return fmt.Sprintf("%s %s %s", frame, r.name, humanize.Bytes(uint64(r.current)))
}
