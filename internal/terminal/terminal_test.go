package terminal

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestBufferedUntilFlush(t *testing.T) {
	var buf bytes.Buffer
	term := New(&buf)
	if _, err := term.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected output to be buffered, got %q", buf.String())
	}
	if err := term.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if buf.String() != "hello\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestNonFileWriterIsNotInteractive(t *testing.T) {
	term := New(&bytes.Buffer{})
	if term.Interactive() {
		t.Fatal("a buffer must not be treated as a terminal")
	}
	if w, h := term.Size(); w != DefaultWidth || h != DefaultHeight {
		t.Fatalf("Size() = %dx%d, want fallback", w, h)
	}
}

func TestRegularFileIsNotInteractive(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	term := New(f)
	if term.Interactive() {
		t.Fatal("a regular file must not be treated as a terminal")
	}
	if w, h := term.Size(); w != DefaultWidth || h != DefaultHeight {
		t.Fatalf("Size() = %dx%d, want fallback", w, h)
	}
}

func TestStylesArePlainWithoutTerminal(t *testing.T) {
	term := New(&bytes.Buffer{}, WithInteractive(true), WithNoColor(true))
	if !term.Interactive() {
		t.Fatal("WithInteractive must override detection")
	}
	if got := term.Emphasis().Render("boom"); got != "boom" {
		t.Fatalf("Emphasis rendered %q with color disabled", got)
	}
	if got := term.Heading().Render("Maven Daemon"); got != "Maven Daemon" {
		t.Fatalf("Heading rendered %q with color disabled", got)
	}
}
