package commands

import (
	"io"
	"os/exec"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/go-errors/errors"
)

// DaemonAction is a systemctl verb we issue against the engine's units
type DaemonAction string

const (
	DaemonStart   DaemonAction = "start"
	DaemonStop    DaemonAction = "stop"
	DaemonRestart DaemonAction = "restart"
)

// ParseDaemonAction accepts "start", "stop" or "restart"
func ParseDaemonAction(value string) (DaemonAction, bool) {
	switch action := DaemonAction(strings.ToLower(strings.TrimSpace(value))); action {
	case DaemonStart, DaemonStop, DaemonRestart:
		return action, true
	}
	return "", false
}

// Units returns the systemd units the action is applied to
func (c *DockerCommand) Units(action DaemonAction) []string {
	if action == DaemonStart {
		return c.Config.UserConfig.Daemon.StartUnits
	}
	return c.Config.UserConfig.Daemon.StopUnits
}

// SystemctlCmd is `sudo -S systemctl <action> <units...>`
func (c *DockerCommand) SystemctlCmd(action DaemonAction) *exec.Cmd {
	templates := c.Config.UserConfig.CommandTemplates
	argv := c.OSCommand.TemplateArgv(templates.Sudo)
	argv = append(argv, c.OSCommand.TemplateArgv(templates.Systemctl, string(action))...)
	argv = append(argv, c.Units(action)...)
	return c.OSCommand.NewCmd(argv)
}

// RunDaemonAction runs the privileged systemctl command, feeding password
// and a newline on stdin. The caller keeps ownership of password and must
// destroy it. A zero exit does not mean the unit reached its state yet;
// confirm with ServiceActive.
func (c *DockerCommand) RunDaemonAction(action DaemonAction, password *memguard.LockedBuffer) error {
	if password == nil || password.Size() == 0 {
		return errors.New("empty password")
	}

	cmd := c.SystemctlCmd(action)
	cmd.Stdin = io.MultiReader(password.Reader(), strings.NewReader("\n"))

	if err := c.OSCommand.RunExecutable(cmd); err != nil {
		return errors.WrapPrefix(err, "systemctl "+string(action), 0)
	}
	return nil
}

// ServiceActive runs `systemctl is-active <unit>`. With skipServiceCheck
// set the service is always considered active.
func (c *DockerCommand) ServiceActive() bool {
	daemonConfig := c.Config.UserConfig.Daemon
	if daemonConfig.SkipServiceCheck {
		return true
	}
	systemctl := c.Config.UserConfig.CommandTemplates.Systemctl
	return c.OSCommand.Succeeds(c.OSCommand.NewCmd(
		c.OSCommand.TemplateArgv(systemctl, "is-active", daemonConfig.ServiceUnit),
	))
}
