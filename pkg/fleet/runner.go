package fleet

import (
	"fmt"

	"github.com/peauc/lazycompose/pkg/commands"
	"github.com/peauc/lazycompose/pkg/registry"
	"github.com/peauc/lazycompose/pkg/status"
)

// Start pulls (when needed) and brings up a project in the background. It
// refuses, with a notification and without spawning anything, when the name
// is invalid, the daemon is unreachable, or the project is mid-transition.
// The background task asks docker for the project's real state before it
// touches the project, so a project that is already up is left alone.
func (m *Manager) Start(name string) error {
	service, project, err := m.guard(name, "start")
	if err != nil {
		return err
	}
	if current := service.Status(); current.IsTransitional() {
		return m.rejectTransition(name, current)
	}

	m.goTask(func() {
		m.startIfStopped(service, project, m.DockerCommand.ProjectStatus(name))
		m.changed()
	})
	return nil
}

// Stop brings a running project down in the background. As with Start, the
// real state is asked for before anything changes.
func (m *Manager) Stop(name string) error {
	service, project, err := m.guard(name, "stop")
	if err != nil {
		return err
	}
	if current := service.Status(); current.IsTransitional() {
		return m.rejectTransition(name, current)
	}

	m.goTask(func() {
		m.stopIfRunning(service, project, m.DockerCommand.ProjectStatus(name))
		m.changed()
	})
	return nil
}

// Toggle stops a project docker reports as up and starts anything else
func (m *Manager) Toggle(name string) error {
	verb := "start"
	if service, ok := m.Registry.Get(name); ok && service.Status() == status.Running {
		verb = "stop"
	}
	service, project, err := m.guard(name, verb)
	if err != nil {
		return err
	}
	if current := service.Status(); current.IsTransitional() {
		return m.rejectTransition(name, current)
	}

	m.goTask(func() {
		observed := m.DockerCommand.ProjectStatus(name)
		if observed == status.ObservedRunning {
			m.stopIfRunning(service, project, observed)
		} else {
			m.startIfStopped(service, project, observed)
		}
		m.changed()
	})
	return nil
}

// startIfStopped moves the project to Pulling and runs the start sequence,
// unless observed says it is already up. In that case only the cached status
// is corrected: the command log and the notifications stay untouched apart
// from one warning.
func (m *Manager) startIfStopped(service *registry.Service, project *commands.ComposeProject, observed status.Observation) {
	name := service.Name

	if observed == status.ObservedRunning {
		service.UpdateStatus(func(current status.Status) (status.Status, bool) {
			if current.IsTransitional() {
				return current, false
			}
			return status.Running, current != status.Running
		})
		m.notify(Warning, fmt.Sprintf(m.Tr.ProjectAlreadyRunning, name))
		return
	}

	var seen status.Status
	_, _, ok := service.UpdateStatus(func(current status.Status) (status.Status, bool) {
		seen = current
		if current.IsTransitional() {
			return current, false
		}
		return status.Pulling, true
	})
	if !ok {
		_ = m.rejectTransition(name, seen)
		return
	}

	service.Logs.Clear()
	m.changed()
	m.notify(Info, fmt.Sprintf(m.Tr.StartingProject, name))

	if err := m.runStart(service, project); err != nil {
		m.Log.WithError(err).Warnf("starting %s failed", name)
	}
}

// stopIfRunning moves the project to Stopping and runs `down`, unless
// observed says nothing is up. Then the cached status is reconciled with
// observed and the user warned.
func (m *Manager) stopIfRunning(service *registry.Service, project *commands.ComposeProject, observed status.Observation) {
	name := service.Name

	if observed != status.ObservedRunning {
		service.UpdateStatus(func(current status.Status) (status.Status, bool) {
			if current.IsTransitional() {
				return current, false
			}
			next := status.Reconcile(current, observed)
			return next, next != current
		})
		m.notify(Warning, fmt.Sprintf(m.Tr.ProjectNotRunning, name))
		return
	}

	var seen status.Status
	_, _, ok := service.UpdateStatus(func(current status.Status) (status.Status, bool) {
		seen = current
		if current.IsTransitional() {
			return current, false
		}
		return status.Stopping, true
	})
	if !ok {
		_ = m.rejectTransition(name, seen)
		return
	}

	m.changed()
	m.notify(Info, fmt.Sprintf(m.Tr.StoppingProject, name))

	if err := m.runStop(service, project); err != nil {
		m.notify(Error, fmt.Sprintf(m.Tr.ProjectStopFailed, name))
		return
	}
	m.notify(Success, fmt.Sprintf(m.Tr.ProjectStopped, name))
}

// guard runs the checks shared by start and stop. An invalid name puts the
// project in Error straight away.
func (m *Manager) guard(name string, verb string) (*registry.Service, *commands.ComposeProject, error) {
	service, project, err := m.lookup(name)
	if err != nil {
		m.notify(Error, fmt.Sprintf(m.Tr.UnknownProject, name))
		return nil, nil, err
	}

	if err := commands.ValidateProjectName(name); err != nil {
		service.SetStatus(status.Error)
		m.changed()
		m.notify(Error, fmt.Sprintf(m.Tr.InvalidProjectName, name))
		return nil, nil, err
	}

	if !m.DaemonReachable() {
		m.notify(Error, fmt.Sprintf(m.Tr.DaemonNotResponding, verb))
		return nil, nil, ErrDaemonUnreachable
	}

	return service, project, nil
}

// rejectTransition refuses to act on a project that is mid-transition
func (m *Manager) rejectTransition(name string, current status.Status) error {
	m.Log.Debugf("%s is %s, refusing", name, current)
	m.notify(Warning, fmt.Sprintf(m.Tr.ProjectBusy, name))
	return ErrProjectBusy
}

// runStart is the Pulling -> Starting -> Running sequence. Running is only
// set once a fresh status query has seen the project up.
func (m *Manager) runStart(service *registry.Service, project *commands.ComposeProject) error {
	name := service.Name

	if m.imagesPresent(project) {
		service.Logs.AppendLine(m.Tr.SkippingPull)
	} else {
		service.Logs.AppendLine(m.Tr.PullOutputHeader)
		err := m.OSCommand.RunStream(project.PullCmd(), service.Logs, func(line string) {
			if progress, ok := commands.ExtractProgress(line); ok && service.SetPullProgressWhilePulling(progress) {
				m.changed()
			}
		})
		if err != nil {
			return m.failStart(service, fmt.Sprintf(m.Tr.PullFailed, err.Error()), err)
		}
	}

	service.SetStatus(status.Starting)
	m.changed()

	service.Logs.AppendLine(m.Tr.UpOutputHeader)
	if err := m.OSCommand.RunStream(project.UpCmd(), service.Logs, nil); err != nil {
		return m.failStart(service, fmt.Sprintf(m.Tr.UpFailed, err.Error()), err)
	}

	if observed := m.DockerCommand.ProjectStatus(name); observed != status.ObservedRunning {
		return m.failStart(service, fmt.Sprintf(m.Tr.UpNotConfirmed, name), ErrNotRunning)
	}

	service.SetStatus(status.Running)
	m.notify(Success, fmt.Sprintf(m.Tr.ProjectStarted, name))
	return nil
}

func (m *Manager) failStart(service *registry.Service, diagnostic string, err error) error {
	service.SetStatus(status.Error)
	service.Logs.AppendLine(diagnostic)
	m.notify(Error, fmt.Sprintf(m.Tr.ProjectStartFailed, service.Name))
	return err
}

// imagesPresent is true when the compose file names an image for every
// service and all of them are already local
func (m *Manager) imagesPresent(project *commands.ComposeProject) bool {
	images, complete, err := project.Images()
	if err != nil {
		m.Log.WithError(err).Warnf("could not read images of %s", project.Name)
		return false
	}
	return complete && m.DockerCommand.AllImagesPresent(images)
}

// runStop tears a project down. The follow process is killed and the live
// logs emptied before `down` runs, since the containers it tails are about
// to disappear.
func (m *Manager) runStop(service *registry.Service, project *commands.ComposeProject) error {
	m.follower.StopFor(service.Name)
	service.LiveLogs.Clear()

	service.Logs.AppendLine(m.Tr.DownOutputHeader)
	if err := m.OSCommand.RunStream(project.DownCmd(), service.Logs, nil); err != nil {
		service.SetStatus(status.Error)
		service.Logs.AppendLine(fmt.Sprintf(m.Tr.DownFailed, err.Error()))
		return err
	}

	service.SetStatus(status.Stopped)
	return nil
}
