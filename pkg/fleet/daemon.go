package fleet

import (
	"context"
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/go-errors/errors"
	"github.com/peauc/lazycompose/pkg/commands"
	"github.com/peauc/lazycompose/pkg/status"
	"github.com/peauc/lazycompose/pkg/utils"
)

// DaemonStart starts the engine's service. password is wiped before this
// returns.
func (m *Manager) DaemonStart(password []byte) {
	m.daemonAction(commands.DaemonStart, password)
}

// DaemonStop stops every active project, then the engine's service.
// password is wiped before this returns.
func (m *Manager) DaemonStop(password []byte) {
	m.daemonAction(commands.DaemonStop, password)
}

// DaemonRestart stops every active project, then restarts the engine's
// service. password is wiped before this returns.
func (m *Manager) DaemonRestart(password []byte) {
	m.daemonAction(commands.DaemonRestart, password)
}

func (m *Manager) daemonAction(action commands.DaemonAction, password []byte) {
	if len(password) == 0 {
		m.notify(Warning, m.passwordPrompt(action))
		return
	}

	// moves the password into locked memory and zeroes the caller's copy
	buffer := memguard.NewBufferFromBytes(password)

	m.goTask(func() {
		defer buffer.Destroy()
		_ = m.RunDaemonAction(m.ctx, action, buffer)
	})
}

func (m *Manager) passwordPrompt(action commands.DaemonAction) string {
	switch action {
	case commands.DaemonStop:
		return m.Tr.EnterPasswordToStop
	case commands.DaemonRestart:
		return m.Tr.EnterPasswordToRestart
	default:
		return m.Tr.EnterPasswordToStart
	}
}

// RunDaemonAction does the work of a daemon action synchronously, reporting
// the outcome through the notifier as well as the returned error. The
// caller owns password.
func (m *Manager) RunDaemonAction(ctx context.Context, action commands.DaemonAction, password *memguard.LockedBuffer) error {
	if password == nil || password.Size() == 0 {
		m.notify(Warning, m.passwordPrompt(action))
		return ErrEmptyPassword
	}

	if action != commands.DaemonStart {
		count, err := m.drain()
		if err != nil {
			m.notify(Error, fmt.Sprintf(m.Tr.DrainFailed, err.Error()))
			return err
		}
		if count > 0 {
			message := m.Tr.DrainedBeforeStop
			if action == commands.DaemonRestart {
				message = m.Tr.DrainedBeforeRestart
			}
			m.notify(Info, fmt.Sprintf(message, count))
		}
	}

	if err := m.DockerCommand.RunDaemonAction(action, password); err != nil {
		m.notify(Error, fmt.Sprintf(m.Tr.DaemonActionFailed, action, err.Error()))
		return err
	}

	wantActive := action != commands.DaemonStop
	daemonConfig := m.Config.UserConfig.Daemon
	confirmed := utils.PollUntil(ctx, daemonConfig.PollInterval, daemonConfig.PollAttempts, func() bool {
		return m.serviceActive(ctx) == wantActive
	})
	if !confirmed {
		m.notify(Error, fmt.Sprintf(m.Tr.DaemonActionTimedOut, action))
		return ErrDaemonTimeout
	}

	switch action {
	case commands.DaemonStart:
		m.notify(Success, m.Tr.DaemonStarted)
	case commands.DaemonStop:
		m.notify(Success, m.Tr.DaemonStopped)
	default:
		m.notify(Success, m.Tr.DaemonRestarted)
	}

	m.reconcile(true)
	return nil
}

// serviceActive is the state we wait on after a daemon action. Without
// systemd in the picture the engine's own ping is all we have.
func (m *Manager) serviceActive(ctx context.Context) bool {
	if m.Config.UserConfig.Daemon.SkipServiceCheck {
		return m.DockerCommand.Ping(ctx)
	}
	return m.DockerCommand.ServiceActive()
}

// drain stops every running or mid-transition project, one at a time in
// display order, and gives up at the first failure. Projects already
// stopped stay stopped.
func (m *Manager) drain() (int, error) {
	active := m.Registry.Filter(status.Status.IsActive)

	for _, service := range active {
		project := m.projects[service.Name]
		if err := commands.ValidateProjectName(service.Name); err != nil {
			return 0, errors.Errorf("%s: %v", service.Name, err)
		}

		service.SetStatus(status.Stopping)
		m.changed()
		if err := m.runStop(service, project); err != nil {
			m.changed()
			return 0, errors.Errorf("%s: %v", service.Name, err)
		}
		m.changed()
	}

	return len(active), nil
}
