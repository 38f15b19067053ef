package session

import (
	"slices"

	"mvnd/internal/message"
)

// State is everything a build session accumulates from the daemon. It is only
// mutated through Apply.
type State struct {
	table   *StatusTable
	log     []string
	done    bool
	failure *message.BuildException
}

// NewState returns the state of a session that has not received anything yet.
func NewState() *State {
	return &State{table: NewStatusTable()}
}

// Apply folds one inbound message into the state. It reports whether a render
// should be offered afterwards, which is the case for every recognised
// message that does not end the session. Messages arriving after the session
// ended are ignored.
func (s *State) Apply(msg message.Message) bool {
	if s.done {
		return false
	}
	switch m := msg.(type) {
	case message.BuildEvent:
		switch m.Type {
		case message.BuildStarted:
		case message.ProjectStarted, message.MojoStarted, message.MojoStopped:
			s.table.Upsert(m.ProjectID, m.Display)
		case message.ProjectStopped:
			s.table.Remove(m.ProjectID)
		case message.BuildStopped:
			s.done = true
			return false
		default:
			return false
		}
		return true
	case message.BuildMessage:
		s.log = append(s.log, m.Message)
		return true
	case message.BuildException:
		s.fail(m)
		return false
	default:
		return false
	}
}

func (s *State) fail(exc message.BuildException) {
	if s.done {
		return
	}
	captured := exc
	s.failure = &captured
	s.done = true
}

// Done reports whether a terminal message was received.
func (s *State) Done() bool { return s.done }

// Failure returns the captured fatal error, or nil after a normal end.
func (s *State) Failure() *message.BuildException { return s.failure }

// Table returns the live status table. Callers must treat it as read-only.
func (s *State) Table() *StatusTable { return s.table }

// Snapshot returns the current display lines in insertion order.
func (s *State) Snapshot() []string { return s.table.Values() }

// Log returns a copy of the buffered log lines in arrival order.
func (s *State) Log() []string { return slices.Clone(s.log) }
