package terminal

import (
	"bufio"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Fallback dimensions used when the output is not a terminal or its size
// cannot be queried.
const (
	DefaultWidth  = 80
	DefaultHeight = 24
)

// Terminal is a buffered handle on the client's output stream.
type Terminal struct {
	out         *bufio.Writer
	fd          int
	interactive bool
	renderer    *lipgloss.Renderer
}

// Option customizes a Terminal.
type Option func(*settings)

type settings struct {
	noColor     bool
	interactive *bool
}

// WithNoColor disables styling even on a color-capable terminal.
func WithNoColor(noColor bool) Option {
	return func(s *settings) { s.noColor = noColor }
}

// WithInteractive overrides TTY detection.
func WithInteractive(interactive bool) Option {
	return func(s *settings) { s.interactive = &interactive }
}

// New wraps w. Size queries and cursor control are only available when w is
// an *os.File attached to a terminal.
func New(w io.Writer, opts ...Option) *Terminal {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	t := &Terminal{out: bufio.NewWriter(w), fd: -1}
	if file, ok := w.(*os.File); ok {
		t.fd = int(file.Fd())
		t.interactive = isTTY(file.Fd())
	}
	if s.interactive != nil {
		t.interactive = *s.interactive
	}

	t.renderer = lipgloss.NewRenderer(w)
	if s.noColor || !t.interactive {
		t.renderer.SetColorProfile(termenv.Ascii)
	}
	return t
}

func isTTY(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Write buffers p until the next Flush.
func (t *Terminal) Write(p []byte) (int, error) { return t.out.Write(p) }

// Flush writes any buffered output.
func (t *Terminal) Flush() error { return t.out.Flush() }

// Interactive reports whether live progress frames may be drawn.
func (t *Terminal) Interactive() bool { return t.interactive }

// Size returns the current terminal dimensions, re-queried on every call so
// resizes between frames are honored.
func (t *Terminal) Size() (width, height int) {
	if t.fd >= 0 {
		if w, h, err := term.GetSize(t.fd); err == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	return DefaultWidth, DefaultHeight
}

// Emphasis is the style for fatal error lines.
func (t *Terminal) Emphasis() lipgloss.Style {
	return t.renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
}

// Heading is the style for banners.
func (t *Terminal) Heading() lipgloss.Style {
	return t.renderer.NewStyle().Bold(true)
}
