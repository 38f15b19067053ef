package message

import "fmt"

// Message is a protocol message exchanged between the client and a daemon.
// The set of implementations is closed: BuildRequest, BuildEvent,
// BuildMessage, BuildException and Unknown.
type Message interface {
	kind() string
}

// EventType enumerates the build lifecycle events a daemon reports.
type EventType int

const (
	BuildStarted EventType = iota
	ProjectStarted
	MojoStarted
	MojoStopped
	ProjectStopped
	BuildStopped
)

var eventTypeNames = [...]string{
	BuildStarted:   "BuildStarted",
	ProjectStarted: "ProjectStarted",
	MojoStarted:    "MojoStarted",
	MojoStopped:    "MojoStopped",
	ProjectStopped: "ProjectStopped",
	BuildStopped:   "BuildStopped",
}

func (t EventType) String() string {
	if t >= 0 && int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Class names reported in BuildException.ClassName that the client treats specially.
const (
	ClassUnrecognizedOption = "UnrecognizedOptionException"
	ClassConnectionClosed   = "ConnectionClosedException"
)

// BuildRequest asks a daemon to run one build.
type BuildRequest struct {
	Args       []string `cbor:"args"`
	WorkingDir string   `cbor:"working_dir"`
	RootDir    string   `cbor:"root_dir"`
}

// BuildEvent reports a lifecycle transition. ProjectID and Display are empty
// for build-level events.
type BuildEvent struct {
	Type      EventType `cbor:"type"`
	ProjectID string    `cbor:"project_id,omitempty"`
	Display   string    `cbor:"display,omitempty"`
}

// BuildMessage carries one line of build log output.
type BuildMessage struct {
	Message string `cbor:"message"`
}

// BuildException reports a fatal build error and ends the session.
type BuildException struct {
	ClassName string `cbor:"class_name"`
	Message   string `cbor:"message"`
}

func (e BuildException) Error() string {
	return e.ClassName + ": " + e.Message
}

// Unknown is produced by the decoder for message kinds it does not recognise.
type Unknown struct {
	Kind string
}

const (
	kindBuildRequest   = "build_request"
	kindBuildEvent     = "build_event"
	kindBuildMessage   = "build_message"
	kindBuildException = "build_exception"
)

func (BuildRequest) kind() string   { return kindBuildRequest }
func (BuildEvent) kind() string     { return kindBuildEvent }
func (BuildMessage) kind() string   { return kindBuildMessage }
func (BuildException) kind() string { return kindBuildException }
func (u Unknown) kind() string      { return u.Kind }
