package session

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"mvnd/internal/message"
)

// Finalizer reports the outcome of a session once the progress region is gone.
type Finalizer struct {
	out      Output
	emphasis lipgloss.Style
	create   func(path string) (io.WriteCloser, error)
}

// NewFinalizer returns a Finalizer writing to out. The emphasis style is
// applied to the fatal error line.
func NewFinalizer(out Output, emphasis lipgloss.Style) *Finalizer {
	return &Finalizer{
		out:      out,
		emphasis: emphasis,
		create: func(path string) (io.WriteCloser, error) {
			return os.Create(path)
		},
	}
}

// FailureLine formats a fatal build error for the user.
func FailureLine(exc message.BuildException) string {
	if exc.ClassName == message.ClassUnrecognizedOption {
		return "Unable to parse command line options: " + exc.Message
	}
	return exc.ClassName + ": " + exc.Message
}

// Finish prints the fatal error, if any, then flushes the buffered log. With a
// logFile the log is written there, replacing previous content, and nothing
// of it reaches the terminal; otherwise it is printed after the error line.
func (f *Finalizer) Finish(res Result, logFile string) error {
	if res.Failure != nil {
		if _, err := fmt.Fprintln(f.out, f.emphasis.Render(FailureLine(*res.Failure))); err != nil {
			return fmt.Errorf("write build failure: %w", err)
		}
	}
	if err := f.out.Flush(); err != nil {
		return fmt.Errorf("flush terminal: %w", err)
	}

	if logFile != "" {
		return f.writeLogFile(logFile, res.Log)
	}
	for _, line := range res.Log {
		if _, err := io.WriteString(f.out, line+"\n"); err != nil {
			return fmt.Errorf("write build log: %w", err)
		}
	}
	if err := f.out.Flush(); err != nil {
		return fmt.Errorf("flush terminal: %w", err)
	}
	return nil
}

func (f *Finalizer) writeLogFile(path string, lines []string) (err error) {
	file, err := f.create(path)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close log file: %w", cerr)
		}
	}()

	w := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write log file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write log file: %w", err)
	}
	return nil
}
