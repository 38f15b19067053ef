package daemonctl

import (
	"context"
	"fmt"
	"time"

	"mvnd/internal/registry"
)

// Lister lists registered daemons.
type Lister interface {
	List(ctx context.Context) ([]registry.DaemonInfo, error)
}

// StatusRow is one line of --status output.
type StatusRow struct {
	UID     string
	PID     int
	Address string
	State   registry.State
	// Timestamp is the most recent of the idle and busy marks.
	Timestamp time.Time
}

// Status returns one row per registered daemon in registration order.
func Status(ctx context.Context, reg Lister) ([]StatusRow, error) {
	daemons, err := reg.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list daemons: %w", err)
	}
	rows := make([]StatusRow, 0, len(daemons))
	for _, info := range daemons {
		rows = append(rows, StatusRow{
			UID:       info.UID,
			PID:       info.PID,
			Address:   info.Address,
			State:     info.State,
			Timestamp: info.LastActive(),
		})
	}
	return rows, nil
}
