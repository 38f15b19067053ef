package session

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// DefaultRenderInterval is the minimum delay between two progress frames.
const DefaultRenderInterval = 10 * time.Millisecond

const frameBanner = "Building..."

// Output is a buffered destination for user-facing text.
type Output interface {
	io.Writer
	Flush() error
}

// Terminal is an Output that knows its size and whether it supports cursor
// movement.
type Terminal interface {
	Output
	Size() (width, height int)
	Interactive() bool
}

// Renderer draws the status table into a region at the bottom of the
// terminal, rewriting the region in place on every frame.
type Renderer struct {
	term     Terminal
	interval time.Duration
	now      func() time.Time
	last     time.Time
	// region holds the lines of the frame currently on screen.
	region []string
}

// RendererOption customizes a Renderer.
type RendererOption func(*Renderer)

// WithInterval sets the throttle window. Zero disables throttling.
func WithInterval(d time.Duration) RendererOption {
	return func(r *Renderer) { r.interval = d }
}

// WithClock replaces the time source used by the throttle.
func WithClock(now func() time.Time) RendererOption {
	return func(r *Renderer) { r.now = now }
}

// NewRenderer returns a Renderer drawing to term.
func NewRenderer(term Terminal, opts ...RendererOption) *Renderer {
	r := &Renderer{term: term, interval: DefaultRenderInterval, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws a frame for values unless the previous frame is younger than
// the throttle window. Non-interactive terminals never get frames.
func (r *Renderer) Render(values []string) error {
	if !r.term.Interactive() {
		return nil
	}
	now := r.now()
	if !r.last.IsZero() && now.Sub(r.last) < r.interval {
		return nil
	}
	r.last = now
	width, height := r.term.Size()
	lines, _ := Frame(values, width, height)
	return r.draw(lines)
}

// Clear erases the progress region unconditionally and leaves the cursor at
// its first line.
func (r *Renderer) Clear() error {
	if !r.term.Interactive() {
		return r.term.Flush()
	}
	return r.draw(nil)
}

// draw replaces the current region with lines in a single write. The cursor
// is left at the end of the last line so a full-height frame never scrolls.
func (r *Renderer) draw(lines []string) error {
	width, _ := r.term.Size()
	var buf bytes.Buffer
	buf.WriteByte('\r')
	if up := regionRows(r.region, width) - 1; up > 0 {
		buf.WriteString(ansi.CursorUp(up))
	}
	for i, line := range lines {
		if i > 0 {
			buf.WriteString("\r\n")
		}
		buf.WriteString(ansi.EraseEntireLine)
		buf.WriteString(line)
	}
	buf.WriteString(ansi.EraseScreenBelow)
	if len(lines) == 0 {
		buf.WriteByte('\r')
	}

	r.region = lines
	if _, err := r.term.Write(buf.Bytes()); err != nil {
		return err
	}
	return r.term.Flush()
}

// regionRows counts the terminal rows lines occupy at width. Lines drawn for
// a wider terminal wrap once it narrows.
func regionRows(lines []string, width int) int {
	rows := 0
	for _, line := range lines {
		w := ansi.StringWidth(line)
		if width <= 0 || w <= width {
			rows++
			continue
		}
		rows += (w + width - 1) / width
	}
	return rows
}

// Frame lays out one progress frame for a terminal of the given size. Each
// value is cut to width-1 display columns; when the values do not fit in
// height-1 rows the oldest are dropped and counted. The first line is the
// banner, carrying the drop count when it is non-zero.
func Frame(values []string, width, height int) (lines []string, dropped int) {
	limit := max(width-1, 0)
	body := make([]string, 0, len(values))
	for _, v := range values {
		body = append(body, ansi.Truncate(singleLine(v), limit, ""))
	}
	for len(body) > 0 && len(body) >= height {
		body = body[1:]
		dropped++
	}

	banner := frameBanner
	if dropped > 0 {
		banner += " (" + strconv.Itoa(dropped) + " more)"
	}
	lines = make([]string, 0, len(body)+1)
	lines = append(lines, ansi.Truncate(banner, limit, ""))
	lines = append(lines, body...)
	return lines, dropped
}

func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
