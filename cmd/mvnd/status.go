package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mvnd/internal/daemonctl"
	"mvnd/internal/registry"
)

const timestampLayout = "2006-01-02 15:04:05"

func (c *client) status(ctx context.Context) error {
	store, err := registry.Open(c.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := daemonctl.Status(ctx, store)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(c.term, statusTable(rows)); err != nil {
		return err
	}
	return c.term.Flush()
}

func statusTable(rows []daemonctl.StatusRow) string {
	title := cases.Title(language.English)
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, []string{
			row.UID,
			strconv.Itoa(row.PID),
			row.Address,
			title.String(string(row.State)),
			formatTimestamp(row.Timestamp),
		})
	}
	return renderTable(
		[]string{"UUID", "PID", "Address", "Status", "Timestamp"},
		cells,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(timestampLayout)
}
