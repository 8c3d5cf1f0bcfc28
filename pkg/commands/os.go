package commands

import (
	"os"
	"os/exec"
	"strings"

	"github.com/go-errors/errors"
	"github.com/jesseduffield/kill"
	"github.com/mgutz/str"
	"github.com/peauc/lazycompose/pkg/config"
	"github.com/sirupsen/logrus"
)

// OSCommand holds all the os commands
type OSCommand struct {
	Log     *logrus.Entry
	Config  *config.AppConfig
	command func(string, ...string) *exec.Cmd
	getenv  func(string) string
}

// NewOSCommand os command runner
func NewOSCommand(log *logrus.Entry, config *config.AppConfig) *OSCommand {
	return &OSCommand{
		Log:     log,
		Config:  config,
		command: exec.Command,
		getenv:  os.Getenv,
	}
}

// SetCommand sets the command function used by the struct.
// To be used for testing only
func (c *OSCommand) SetCommand(cmd func(string, ...string) *exec.Cmd) {
	c.command = cmd
}

// ExecutableFromString takes a string like `docker compose pull` and returns
// an executable command for it
func (c *OSCommand) ExecutableFromString(commandStr string) *exec.Cmd {
	return c.NewCmd(str.ToArgv(commandStr))
}

// NewCmd builds a command from an argv, the first element being the binary
func (c *OSCommand) NewCmd(argv []string) *exec.Cmd {
	if len(argv) == 0 {
		return c.command("")
	}
	cmd := c.command(argv[0], argv[1:]...)
	cmd.Env = os.Environ()
	return cmd
}

// TemplateArgv splits a configured command template (e.g. `docker compose`)
// and appends args to it
func (c *OSCommand) TemplateArgv(template string, args ...string) []string {
	return append(str.ToArgv(template), args...)
}

// RunExecutableWithOutput runs an executable file and returns its stdout. On
// failure the error carries whatever the command wrote to stderr.
func (c *OSCommand) RunExecutableWithOutput(cmd *exec.Cmd) (string, error) {
	c.Log.WithField("command", strings.Join(cmd.Args, " ")).Debug("RunCommand")

	var stderr strings.Builder
	if cmd.Stderr == nil {
		cmd.Stderr = &stderr
	}
	output, err := cmd.Output()
	if err != nil {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = strings.TrimSpace(string(output))
		}
		if message == "" {
			return string(output), errors.Wrap(err, 0)
		}
		return string(output), errors.New(message)
	}
	return string(output), nil
}

// RunExecutable runs an executable file and returns an error if there was one
func (c *OSCommand) RunExecutable(cmd *exec.Cmd) error {
	_, err := c.RunExecutableWithOutput(cmd)
	return err
}

// RunCommandWithOutput wrapper around commands returning their output and error
func (c *OSCommand) RunCommandWithOutput(command string) (string, error) {
	return c.RunExecutableWithOutput(c.ExecutableFromString(command))
}

// RunCommand runs a command and just returns the error
func (c *OSCommand) RunCommand(command string) error {
	_, err := c.RunCommandWithOutput(command)
	return err
}

// Succeeds reports whether cmd exited zero. Output is thrown away.
func (c *OSCommand) Succeeds(cmd *exec.Cmd) bool {
	return c.RunExecutable(cmd) == nil
}

// Kill kills a process. If the process has Setpgid == true, then we have
// anticipated that it might spawn its own child processes, so we've given it
// a process group ID (PGID) equal to its process id (PID) and given its child
// processes will inherit the PGID, we can kill that group, rather than
// killing the process itself.
func (c *OSCommand) Kill(cmd *exec.Cmd) error {
	return kill.Kill(cmd)
}

// PrepareForChildren sets Setpgid to true on the cmd, so that when we run it
// as a subprocess, we can kill its group rather than the process itself. This
// is because some commands, like `docker compose logs -f` spawn multiple
// children processes, and killing the parent process isn't sufficient for
// killing those child processes.
func (c *OSCommand) PrepareForChildren(cmd *exec.Cmd) {
	kill.PrepareForChildren(cmd)
}

// Getenv returns the value of an environment variable
func (c *OSCommand) Getenv(key string) string {
	return c.getenv(key)
}
