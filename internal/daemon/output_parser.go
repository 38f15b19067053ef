package daemon

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"mvnd/internal/message"
)

var (
	levelPrefix   = regexp.MustCompile(`^\[(?:INFO|WARNING|WARN|ERROR|DEBUG)\]\s?`)
	projectHeader = regexp.MustCompile(`^-+< (\S+) >-+$`)
	buildingLine  = regexp.MustCompile(`^Building ([^:\s][^:]*?) (\S+)(?:\s+\[\d+/\d+\])?$`)
	mojoLine      = regexp.MustCompile(`^--- (\S+)(?: \(([^)]*)\))? @ (\S+) ---$`)
	summaryLine   = regexp.MustCompile(`^(?:Reactor Summary|BUILD SUCCESS|BUILD FAILURE)`)
)

type project struct {
	id   string
	name string
}

// outputParser derives project and mojo events from Maven console output.
// Every project it reports started is reported stopped by the summary or by
// Finish, including projects only seen through a mojo line.
type outputParser struct {
	pendingID string
	current   *project
	open      map[string]*project
	order     []string
}

func newOutputParser() *outputParser {
	return &outputParser{open: make(map[string]*project)}
}

// Parse inspects one console line and returns the events it implies.
func (p *outputParser) Parse(line string) []message.Message {
	text := strings.TrimSpace(levelPrefix.ReplaceAllString(ansi.Strip(line), ""))

	if m := projectHeader.FindStringSubmatch(text); m != nil {
		p.pendingID = m[1]
		return nil
	}
	if m := buildingLine.FindStringSubmatch(text); m != nil {
		id := p.pendingID
		if id == "" {
			id = m[1]
		}
		p.pendingID = ""
		var events []message.Message
		if p.current != nil && p.current.id != id {
			events = p.closeProject(p.current.id)
		}
		events = append(events, p.openProject(id, m[1])...)
		p.current = p.open[id]
		return events
	}
	if m := mojoLine.FindStringSubmatch(text); m != nil {
		proj, events := p.projectFor(m[3])
		display := proj.name + " > " + mojoName(m[1])
		if m[2] != "" {
			display += " (" + m[2] + ")"
		}
		return append(events, message.BuildEvent{Type: message.MojoStarted, ProjectID: proj.id, Display: display})
	}
	if summaryLine.MatchString(text) {
		return p.closeAll()
	}
	return nil
}

// Finish closes the projects still open when the output ends.
func (p *outputParser) Finish() []message.Message {
	return p.closeAll()
}

func (p *outputParser) openProject(id, name string) []message.Message {
	if _, ok := p.open[id]; ok {
		return nil
	}
	p.open[id] = &project{id: id, name: name}
	p.order = append(p.order, id)
	return []message.Message{message.BuildEvent{Type: message.ProjectStarted, ProjectID: id, Display: name}}
}

func (p *outputParser) closeProject(id string) []message.Message {
	proj, ok := p.open[id]
	if !ok {
		return nil
	}
	delete(p.open, id)
	for i, open := range p.order {
		if open == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	if p.current == proj {
		p.current = nil
	}
	return []message.Message{
		message.BuildEvent{Type: message.MojoStopped, ProjectID: proj.id, Display: proj.name},
		message.BuildEvent{Type: message.ProjectStopped, ProjectID: proj.id},
	}
}

func (p *outputParser) closeAll() []message.Message {
	var events []message.Message
	for len(p.order) > 0 {
		events = append(events, p.closeProject(p.order[0])...)
	}
	return events
}

// projectFor maps the artifactId of a mojo line to an open project, opening
// one for an artifact no header announced.
func (p *outputParser) projectFor(artifactID string) (*project, []message.Message) {
	matches := func(proj *project) bool {
		return proj.id == artifactID || strings.HasSuffix(proj.id, ":"+artifactID)
	}
	if p.current != nil && matches(p.current) {
		return p.current, nil
	}
	for _, id := range p.order {
		if proj := p.open[id]; matches(proj) {
			return proj, nil
		}
	}
	events := p.openProject(artifactID, artifactID)
	return p.open[artifactID], events
}

// mojoName drops the plugin version from "plugin:version:goal".
func mojoName(coords string) string {
	parts := strings.Split(coords, ":")
	if len(parts) == 3 {
		return parts[0] + ":" + parts[2]
	}
	return coords
}
