package main

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"mvnd/internal/session"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func printBanner(out session.Output, heading lipgloss.Style) error {
	if _, err := fmt.Fprintln(out, heading.Render("Maven Daemon "+version)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "Go runtime: %s, platform: %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH); err != nil {
		return err
	}
	return out.Flush()
}
