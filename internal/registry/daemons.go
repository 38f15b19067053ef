package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const daemonColumns = "uid, pid, address, executable, options_json, state, last_idle, last_busy"

// Add registers a daemon, replacing any previous entry with the same uid.
func (s *Store) Add(ctx context.Context, info DaemonInfo) error {
	if info.UID == "" {
		return errors.New("registry add: uid is required")
	}
	options, err := json.Marshal(nonNil(info.Spec.Options))
	if err != nil {
		return fmt.Errorf("registry add: encode options: %w", err)
	}
	state := info.State
	if state == "" {
		state = StateIdle
	}
	_, err = s.exec(ctx, `INSERT INTO daemons (uid, pid, address, executable, options_json, state, last_idle, last_busy, registered_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(uid) DO UPDATE SET
    pid = excluded.pid,
    address = excluded.address,
    executable = excluded.executable,
    options_json = excluded.options_json,
    state = excluded.state,
    last_idle = excluded.last_idle,
    last_busy = excluded.last_busy`,
		info.UID, info.PID, info.Address, info.Spec.Executable, string(options), string(state),
		nullableTime(info.LastIdle), nullableTime(info.LastBusy), formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("registry add %s: %w", info.UID, err)
	}
	return nil
}

// Get returns the entry for uid, or nil when no such daemon is registered.
func (s *Store) Get(ctx context.Context, uid string) (*DaemonInfo, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+daemonColumns+" FROM daemons WHERE uid = ?", uid)
	info, err := scanDaemon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registry get %s: %w", uid, err)
	}
	return info, nil
}

// List returns every registered daemon in registration order.
func (s *Store) List(ctx context.Context) ([]DaemonInfo, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+daemonColumns+" FROM daemons ORDER BY registered_at, uid")
	if err != nil {
		return nil, fmt.Errorf("registry list: %w", err)
	}
	defer rows.Close()

	var out []DaemonInfo
	for rows.Next() {
		info, err := scanDaemon(rows)
		if err != nil {
			return nil, fmt.Errorf("registry list: %w", err)
		}
		out = append(out, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry list: %w", err)
	}
	return out, nil
}

// Remove deletes the entry for uid. Removing an unknown uid is not an error.
func (s *Store) Remove(ctx context.Context, uid string) error {
	if _, err := s.exec(ctx, "DELETE FROM daemons WHERE uid = ?", uid); err != nil {
		return fmt.Errorf("registry remove %s: %w", uid, err)
	}
	return nil
}

// MarkIdle records that the daemon finished its work and can accept a build.
func (s *Store) MarkIdle(ctx context.Context, uid string) error {
	return s.mark(ctx, uid, StateIdle, "last_idle")
}

// MarkBusy records that the daemon started serving a build.
func (s *Store) MarkBusy(ctx context.Context, uid string) error {
	return s.mark(ctx, uid, StateBusy, "last_busy")
}

// Claim marks an idle daemon busy and reports whether it was idle. Clients
// claim a daemon before handing it a build so that no other client picks it.
func (s *Store) Claim(ctx context.Context, uid string) (bool, error) {
	res, err := s.exec(ctx, "UPDATE daemons SET state = ?, last_busy = ? WHERE uid = ? AND state = ?",
		string(StateBusy), formatTime(s.now()), uid, string(StateIdle))
	if err != nil {
		return false, fmt.Errorf("registry claim %s: %w", uid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("registry claim %s: %w", uid, err)
	}
	return n == 1, nil
}

func (s *Store) mark(ctx context.Context, uid string, state State, column string) error {
	res, err := s.exec(ctx, "UPDATE daemons SET state = ?, "+column+" = ? WHERE uid = ?",
		string(state), formatTime(s.now()), uid)
	if err != nil {
		return fmt.Errorf("registry mark %s %s: %w", uid, state, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("registry mark %s %s: %w", uid, state, ErrNotFound)
	}
	return nil
}

// ErrNotFound reports an update against a daemon that is not registered.
var ErrNotFound = errors.New("daemon not registered")

func scanDaemon(scanner interface{ Scan(dest ...any) error }) (*DaemonInfo, error) {
	var (
		info        DaemonInfo
		state       string
		optionsJSON string
		lastIdle    sql.NullString
		lastBusy    sql.NullString
	)
	if err := scanner.Scan(&info.UID, &info.PID, &info.Address, &info.Spec.Executable, &optionsJSON, &state, &lastIdle, &lastBusy); err != nil {
		return nil, err
	}
	if optionsJSON != "" {
		if err := json.Unmarshal([]byte(optionsJSON), &info.Spec.Options); err != nil {
			return nil, fmt.Errorf("decode options for %s: %w", info.UID, err)
		}
	}
	if len(info.Spec.Options) == 0 {
		info.Spec.Options = nil
	}
	info.State = State(state)
	info.LastIdle = parseTime(lastIdle)
	info.LastBusy = parseTime(lastBusy)
	return &info, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func parseTime(value sql.NullString) time.Time {
	if !value.Valid || value.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
