package session

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"mvnd/internal/logging"
	"mvnd/internal/message"
)

var testRequest = message.BuildRequest{Args: []string{"install", "-T1C", "-bsmart"}, WorkingDir: "/src/app", RootDir: "/src"}

func TestRunExampleScenario(t *testing.T) {
	conn := &fakeConn{inbox: []message.Message{
		event(message.ProjectStarted, "p1", "A"),
		event(message.MojoStarted, "p1", "A>compile"),
		event(message.ProjectStarted, "p2", "B"),
		event(message.ProjectStopped, "p1", ""),
		event(message.BuildStopped, "", ""),
	}}
	display := &recordingDisplay{}

	res, err := NewController(display, logging.NewNop()).Run(conn, testRequest)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failed() {
		t.Fatalf("unexpected failure %+v", res.Failure)
	}
	if len(conn.sent) != 1 || !reflect.DeepEqual(conn.sent[0], testRequest) {
		t.Fatalf("expected exactly the request to be sent, got %#v", conn.sent)
	}

	want := [][]string{{"A"}, {"A>compile"}, {"A>compile", "B"}, {"B"}}
	if !reflect.DeepEqual(display.frames, want) {
		t.Fatalf("frames = %v, want %v", display.frames, want)
	}
	if display.cleared != 1 {
		t.Fatalf("expected one final clear, got %d", display.cleared)
	}

	lines, _ := Frame(display.frames[len(display.frames)-1], 80, 24)
	if !reflect.DeepEqual(lines, []string{"Building...", "B"}) {
		t.Fatalf("final pre-clear frame = %q", lines)
	}
}

func TestRunStopsAtBuildStoppedWithQueuedMessages(t *testing.T) {
	conn := &fakeConn{inbox: []message.Message{
		message.BuildMessage{Message: "one"},
		event(message.BuildStopped, "", ""),
		message.BuildMessage{Message: "two"},
		event(message.ProjectStarted, "p1", "A"),
	}}
	res, err := NewController(nil, nil).Run(conn, testRequest)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if conn.received != 2 {
		t.Fatalf("expected processing to stop after the end marker, received %d", conn.received)
	}
	if !reflect.DeepEqual(res.Log, []string{"one"}) {
		t.Fatalf("unexpected log %v", res.Log)
	}
}

func TestRunCapturesFatalError(t *testing.T) {
	exc := message.BuildException{ClassName: message.ClassUnrecognizedOption, Message: "Unrecognized option: --frobnicate"}
	conn := &fakeConn{inbox: []message.Message{
		event(message.BuildStarted, "", ""),
		message.BuildMessage{Message: "[INFO] Scanning for projects..."},
		exc,
		event(message.ProjectStarted, "p1", "A"),
	}}
	display := &recordingDisplay{}

	res, err := NewController(display, nil).Run(conn, testRequest)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failure == nil || *res.Failure != exc {
		t.Fatalf("expected captured failure %+v, got %+v", exc, res.Failure)
	}
	if conn.received != 3 {
		t.Fatalf("expected no receive after the fatal error, got %d", conn.received)
	}
	for _, frame := range display.frames {
		if len(frame) != 0 {
			t.Fatalf("table must stay empty, saw frame %v", frame)
		}
	}
	if display.cleared != 1 {
		t.Fatalf("expected clear on the failure path, got %d", display.cleared)
	}
}

func TestRunTreatsDisconnectAsFatal(t *testing.T) {
	conn := &fakeConn{
		inbox: []message.Message{
			event(message.ProjectStarted, "p1", "A"),
			message.BuildMessage{Message: "partial"},
		},
		endErr: errors.New("connection closed by peer: EOF"),
	}
	display := &recordingDisplay{}

	res, err := NewController(display, nil).Run(conn, testRequest)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failure == nil || res.Failure.ClassName != message.ClassConnectionClosed {
		t.Fatalf("expected connection closed failure, got %+v", res.Failure)
	}
	if !strings.Contains(res.Failure.Message, "EOF") {
		t.Fatalf("failure should carry the transport error, got %q", res.Failure.Message)
	}
	if !reflect.DeepEqual(res.Log, []string{"partial"}) {
		t.Fatalf("log received before the disconnect must be kept, got %v", res.Log)
	}
	if display.cleared != 1 {
		t.Fatalf("expected clear on the disconnect path, got %d", display.cleared)
	}
}

func TestRunReturnsDispatchError(t *testing.T) {
	conn := &fakeConn{sendErr: errors.New("broken pipe")}
	display := &recordingDisplay{}
	if _, err := NewController(display, nil).Run(conn, testRequest); err == nil {
		t.Fatal("expected dispatch error")
	}
	if conn.received != 0 || display.cleared != 0 {
		t.Fatalf("nothing should run after a failed dispatch, received=%d cleared=%d", conn.received, display.cleared)
	}
}

func TestRunIgnoresUnknownMessages(t *testing.T) {
	conn := &fakeConn{inbox: []message.Message{
		message.Unknown{Kind: "progress"},
		event(message.ProjectStarted, "p1", "A"),
		message.Unknown{Kind: "telemetry"},
		event(message.BuildStopped, "", ""),
	}}
	display := &recordingDisplay{}
	res, err := NewController(display, nil).Run(conn, testRequest)
	if err != nil || res.Failed() {
		t.Fatalf("Run: res=%+v err=%v", res, err)
	}
	if len(display.frames) != 1 {
		t.Fatalf("unknown messages must not trigger renders, got %d frames", len(display.frames))
	}
}

func TestRunWithRendererLeavesRegionCleared(t *testing.T) {
	term := newFakeTerminal(40, 10)
	conn := &fakeConn{inbox: []message.Message{
		event(message.ProjectStarted, "p1", "core"),
		event(message.ProjectStarted, "p2", "web"),
		event(message.BuildStopped, "", ""),
	}}
	res, err := NewController(NewRenderer(term, WithInterval(0)), nil).Run(conn, testRequest)
	if err != nil || res.Failed() {
		t.Fatalf("Run: res=%+v err=%v", res, err)
	}
	if !term.containsPlain("web") {
		t.Fatalf("expected progress output, got %q", term.plain())
	}
	if !strings.HasSuffix(term.String(), "\x1b[J\r") {
		t.Fatalf("expected the session to end with a cleared region, got %q", term.String())
	}
}
