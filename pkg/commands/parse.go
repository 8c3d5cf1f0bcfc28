package commands

import (
	"strings"

	"github.com/peauc/lazycompose/pkg/status"
	"github.com/peauc/lazycompose/pkg/utils"
)

// noValue is what docker's templates print for a missing map key
const noValue = "<no value>"

// Event is one line of `docker events` output
type Event struct {
	Action    string
	Project   string
	Container string
	ExitCode  string
}

// Scope is what the event is about: the container if we know it, otherwise
// the project
func (e Event) Scope() string {
	if e.Container != "" {
		return e.Container
	}
	return e.Project
}

// TemplateValue trims a templated field and maps the missing-key
// placeholder to ""
func TemplateValue(value string) string {
	value = strings.TrimSpace(value)
	if value == noValue {
		return ""
	}
	return value
}

// ParseEventLine reads `action\tproject\tname\texitCode`. Missing trailing
// fields are empty. ok is false when the line has no action.
func ParseEventLine(line string) (Event, bool) {
	parts := strings.SplitN(line, "\t", 4)
	field := func(i int) string {
		if i >= len(parts) {
			return ""
		}
		return TemplateValue(parts[i])
	}

	event := Event{
		Action:    field(0),
		Project:   field(1),
		Container: field(2),
		ExitCode:  field(3),
	}
	if event.Action == "" {
		return Event{}, false
	}
	return event, true
}

func isUp(containerStatus string) bool {
	return strings.HasPrefix(strings.TrimSpace(containerStatus), "Up")
}

// ParseProjectStatus reads `name\tstatus` lines for the containers of one
// project. No containers means stopped; any container whose status starts
// with "Up" means running.
func ParseProjectStatus(output string) status.Observation {
	for _, line := range utils.SplitLines(strings.TrimSpace(output)) {
		parts := strings.Split(line, "\t")
		if len(parts) >= 2 && isUp(parts[1]) {
			return status.ObservedRunning
		}
	}
	return status.ObservedStopped
}

// ParseBatchStatuses reads `name\tstatus\tproject` lines covering every
// container on the host and folds them into one observation per project.
// Projects with no container in the output are stopped; malformed lines and
// containers of projects we don't manage are skipped.
func ParseBatchStatuses(output string, projects []string) map[string]status.Observation {
	observations := make(map[string]status.Observation, len(projects))
	for _, project := range projects {
		observations[project] = status.ObservedStopped
	}

	for _, line := range utils.SplitLines(output) {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}
		project := TemplateValue(parts[2])
		current, ok := observations[project]
		if !ok {
			continue
		}
		if isUp(parts[1]) {
			observations[project] = status.ObservedRunning
		} else if current != status.ObservedRunning {
			observations[project] = status.ObservedStopped
		}
	}

	return observations
}

// ParseNames reads one container name per line, skipping blanks
func ParseNames(output string) []string {
	names := []string{}
	for _, line := range utils.SplitLines(output) {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names
}

// NormalizeRuntimeValue turns templated inspect output such as
// "bridge=172.17.0.2 " into "bridge=172.17.0.2", using fallback when the
// value is empty or one of docker's placeholders
func NormalizeRuntimeValue(value string, fallback string) string {
	normalized := utils.NormalizeWhitespace(value)
	switch strings.ToLower(normalized) {
	case "", "unknown", "none", "invalid, ip", "invalid ip", "<no, value>", noValue:
		return fallback
	}
	return normalized
}
