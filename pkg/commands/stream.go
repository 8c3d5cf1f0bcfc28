package commands

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/go-errors/errors"
)

const maxLineLength = 1024 * 1024

// LineSink receives streamed output one line at a time
type LineSink interface {
	AppendLine(line string)
}

// StreamLines starts cmd with stdout and stderr merged, and calls onLine for
// every line it writes until it exits. If ctx is cancelled first, the whole
// process group is killed and ctx.Err() is returned. A line longer than
// maxLineLength ends the streaming: the rest of the output is discarded and
// bufio.ErrTooLong is returned once the command exits zero.
func (c *OSCommand) StreamLines(ctx context.Context, cmd *exec.Cmd, onLine func(string)) error {
	c.Log.WithField("command", strings.Join(cmd.Args, " ")).Debug("StreamCommand")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, 0)
	}
	cmd.Stderr = cmd.Stdout
	c.PrepareForChildren(cmd)

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, 0)
	}

	stopWatching := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			if err := c.Kill(cmd); err != nil {
				c.Log.Warn(err)
			}
		case <-stopWatching:
		}
	}()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		if onLine != nil {
			onLine(strings.TrimRight(scanner.Text(), "\r"))
		}
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		c.Log.WithError(scanErr).Warn("stopped reading command output")
		// the child would block on a full pipe and Wait would never return
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	close(stopWatching)
	<-watcherDone

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitErr != nil {
		return errors.Wrap(waitErr, 0)
	}
	if scanErr != nil {
		return errors.Wrap(scanErr, 0)
	}
	return nil
}

// RunStream runs cmd to completion, appending every output line to sink
// (when not nil) and handing it to onLine (when not nil). The returned error
// is nil only if the command exited zero.
func (c *OSCommand) RunStream(cmd *exec.Cmd, sink LineSink, onLine func(string)) error {
	return c.StreamLines(context.Background(), cmd, func(line string) {
		if sink != nil {
			sink.AppendLine(line)
		}
		if onLine != nil {
			onLine(line)
		}
	})
}
