package fleet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/peauc/lazycompose/pkg/registry"
	"github.com/peauc/lazycompose/pkg/status"
)

// Run reconciles on every refresh tick until ctx is done or the manager is
// closed
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.Config.UserConfig.Refresh.Tick)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.Refresh()
		}
	}
}

// Refresh runs one reconciliation pass. The daemon and the containers are
// only queried when their cooldowns have run out, something changed, or a
// project is mid-transition. It blocks on those queries, so call it off the
// UI loop.
func (m *Manager) Refresh() {
	m.reconcile(false)
}

// RefreshNow schedules a pass that queries everything regardless of
// cooldowns
func (m *Manager) RefreshNow() {
	m.goTask(func() {
		m.reconcile(true)
		m.notify(Info, m.Tr.RefreshedStatuses)
	})
}

func (m *Manager) reconcile(force bool) {
	m.reconcileMutex.Lock()
	defer m.reconcileMutex.Unlock()

	now := time.Now()
	daemonUp, daemonChanged := m.checkDaemon(now, force)

	if !daemonUp {
		m.Registry.SetAll(status.DaemonNotRunning)
		m.events.Stop()
		m.follower.Stop()
		m.changed()
		return
	}

	if daemonChanged {
		m.events.Start()
	}

	m.daemonMutex.Lock()
	statusDue := now.Sub(m.lastStatusQuery) >= m.Config.UserConfig.Refresh.StatusCooldown
	m.daemonMutex.Unlock()

	if force || daemonChanged || statusDue || m.Registry.AnyTransitional() {
		m.queryStatuses()

		m.daemonMutex.Lock()
		m.lastStatusQuery = now
		m.daemonMutex.Unlock()
	}

	if daemonChanged {
		m.populateInitialLogs()
	}

	m.syncFollower()
}

// checkDaemon returns whether the daemon is reachable and whether that
// differs from what we believed before. The first check always counts as
// a change.
func (m *Manager) checkDaemon(now time.Time, force bool) (bool, bool) {
	m.daemonMutex.Lock()
	wasUp, checked, last := m.daemonUp, m.daemonChecked, m.lastDaemonCheck
	m.daemonMutex.Unlock()

	if checked && !force && now.Sub(last) < m.Config.UserConfig.Refresh.DaemonCooldown {
		return wasUp, false
	}

	up := m.checkDaemon(m.ctx)

	m.daemonMutex.Lock()
	m.daemonUp = up
	m.daemonChecked = true
	m.lastDaemonCheck = now
	m.daemonMutex.Unlock()

	if !checked || up != wasUp {
		m.Log.WithField("reachable", up).Info("docker daemon reachability changed")
		return up, true
	}
	return up, false
}

// checkDaemon asks the service manager and then the engine itself
func (m *Manager) checkDaemon(ctx context.Context) bool {
	return m.DockerCommand.ServiceActive() && m.DockerCommand.Ping(ctx)
}

// queryStatuses runs the single batch query and folds the observations into
// every cell through the transition table
func (m *Manager) queryStatuses() {
	observations := m.DockerCommand.BatchStatuses(m.Registry.Names())

	for _, service := range m.Registry.All() {
		observed, ok := observations[service.Name]
		if !ok {
			continue
		}
		old, next, changed := service.UpdateStatus(func(current status.Status) (status.Status, bool) {
			next := status.Reconcile(current, observed)
			return next, next != current
		})
		if changed {
			m.Log.Debugf("%s: %s -> %s (observed %s)", service.Name, old, next, observed)
			m.changed()
		}
	}
}

// populateInitialLogs gives projects that were already up when we connected
// something to show in their command log
func (m *Manager) populateInitialLogs() {
	for _, service := range m.Registry.Filter(func(s status.Status) bool { return s == status.Running }) {
		if service.Logs.Len() > 0 {
			continue
		}
		project := m.projects[service.Name]
		output, err := project.Ps()
		if err != nil || !strings.Contains(output, "Up") {
			continue
		}
		names, err := project.ServiceNames()
		if err != nil {
			continue
		}

		var text strings.Builder
		text.WriteString(m.Tr.UpOutputHeader + "\n")
		fmt.Fprintf(&text, "Network %s_default Running\n", service.Name)
		for _, name := range names {
			fmt.Fprintf(&text, "Container %s Running\n", name)
		}
		service.Logs.SetTextIfEmpty(text.String())
	}
}

// syncFollower makes the selected project the only one whose logs are
// followed, provided it is running and its live logs are on screen
func (m *Manager) syncFollower() {
	m.follower.Sync(m.followTarget())
}

func (m *Manager) followTarget() string {
	if !m.DaemonReachable() {
		return ""
	}

	m.selectionMutex.Lock()
	selected, focused := m.selected, m.liveLogsFocused
	m.selectionMutex.Unlock()

	if !focused || selected == "" {
		return ""
	}
	service, ok := m.Registry.Get(selected)
	if !ok || service.Status() != status.Running {
		return ""
	}
	return selected
}

// leftRunning is called when an event moved a project out of Running: its
// tailed output no longer means anything
func (m *Manager) leftRunning(service *registry.Service) {
	m.follower.StopFor(service.Name)
	service.LiveLogs.Clear()
}

// CheckAvailability runs once at startup: it makes sure the docker CLI and
// compose are installed, does a first full reconciliation and tells the
// operator what is missing. It reports whether the daemon is reachable.
func (m *Manager) CheckAvailability() bool {
	if !m.DockerCommand.DockerCLIAvailable() {
		m.notify(Error, m.Tr.DockerCLINotFound)
		return false
	}
	if !m.DockerCommand.ComposeAvailable() {
		m.notify(Warning, m.Tr.DockerComposeNotFound)
	}

	m.reconcile(true)
	if !m.DaemonReachable() {
		m.notify(Warning, m.Tr.DaemonNotRunning)
		return false
	}

	m.notify(Info, m.Tr.Welcome)
	return true
}
