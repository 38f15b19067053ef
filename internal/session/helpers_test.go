package session

import (
	"bytes"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"mvnd/internal/message"
)

type fakeTerminal struct {
	bytes.Buffer
	width, height int
	interactive   bool
	writes        int
	flushes       int
}

func newFakeTerminal(width, height int) *fakeTerminal {
	return &fakeTerminal{width: width, height: height, interactive: true}
}

func (f *fakeTerminal) Write(p []byte) (int, error) {
	f.writes++
	return f.Buffer.Write(p)
}

func (f *fakeTerminal) Flush() error                { f.flushes++; return nil }
func (f *fakeTerminal) Size() (int, int)            { return f.width, f.height }
func (f *fakeTerminal) Interactive() bool           { return f.interactive }
func (f *fakeTerminal) plain() string               { return ansi.Strip(f.String()) }
func (f *fakeTerminal) reset()                      { f.Buffer.Reset(); f.writes = 0 }
func (f *fakeTerminal) containsPlain(s string) bool { return strings.Contains(f.plain(), s) }

type fakeConn struct {
	sent     []message.Message
	inbox    []message.Message
	received int
	endErr   error
	sendErr  error
}

func (c *fakeConn) Dispatch(msg message.Message) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) Receive() (message.Message, error) {
	if c.received >= len(c.inbox) {
		if c.endErr != nil {
			return nil, c.endErr
		}
		return nil, errors.New("fakeConn: receive past end of script")
	}
	msg := c.inbox[c.received]
	c.received++
	return msg, nil
}

type recordingDisplay struct {
	frames  [][]string
	cleared int
}

func (d *recordingDisplay) Render(lines []string) error {
	d.frames = append(d.frames, lines)
	return nil
}

func (d *recordingDisplay) Clear() error {
	d.cleared++
	return nil
}

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time          { return c.now }
func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
