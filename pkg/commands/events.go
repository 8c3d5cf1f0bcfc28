package commands

import (
	"context"
	"os/exec"
)

const eventsFormat = "{{.Action}}\t" +
	"{{index .Actor.Attributes \"" + composeProjectLabel + "\"}}\t" +
	"{{index .Actor.Attributes \"name\"}}\t" +
	"{{index .Actor.Attributes \"exitCode\"}}"

// EventsCmd is `docker events` restricted to compose-managed containers
func (c *DockerCommand) EventsCmd() *exec.Cmd {
	return c.dockerCmd(
		"events",
		"--filter", "type=container",
		"--filter", "label="+composeProjectLabel,
		"--format", eventsFormat,
	)
}

// StreamEvents tails the event stream and calls onEvent for every line that
// parses, until the stream ends or ctx is cancelled. Lines without an action
// are skipped.
func (c *DockerCommand) StreamEvents(ctx context.Context, onEvent func(Event)) error {
	return c.OSCommand.StreamLines(ctx, c.EventsCmd(), func(line string) {
		if event, ok := ParseEventLine(line); ok {
			onEvent(event)
		}
	})
}
