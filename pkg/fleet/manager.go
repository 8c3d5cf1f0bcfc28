// Package fleet keeps the status of every compose project in line with what
// the engine reports, and runs the commands that move projects between
// states. Three writers race on each project: the periodic reconciliation,
// the event listener and the start/stop runner. None of them holds a lock
// across a subprocess call, and nothing exported here blocks on one except
// Refresh and Wait.
package fleet

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/peauc/lazycompose/pkg/commands"
	"github.com/peauc/lazycompose/pkg/config"
	"github.com/peauc/lazycompose/pkg/i18n"
	"github.com/peauc/lazycompose/pkg/registry"
	"github.com/samber/lo"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// Severity of a notification
type Severity int

const (
	Info Severity = iota
	Success
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// defaultTTL is how long a notification of each severity stays up
func (s Severity) defaultTTL() time.Duration {
	switch s {
	case Info:
		return 2 * time.Second
	case Success:
		return 3 * time.Second
	case Warning:
		return 4 * time.Second
	default:
		return 5 * time.Second
	}
}

// Notifier shows a one-off message to the operator
type Notifier func(severity Severity, message string, ttl time.Duration)

var (
	ErrUnknownProject    = errors.New("unknown project")
	ErrDaemonUnreachable = errors.New("docker daemon unreachable")
	ErrProjectBusy       = errors.New("project busy")
	ErrNotRunning        = errors.New("project not running")
	ErrEmptyPassword     = errors.New("empty password")
	ErrDaemonTimeout     = errors.New("timed out waiting for docker daemon")
)

// Manager owns the registry and every background task touching it
type Manager struct {
	Log           *logrus.Entry
	Tr            *i18n.TranslationSet
	Config        *config.AppConfig
	OSCommand     *commands.OSCommand
	DockerCommand *commands.DockerCommand
	Registry      *registry.Registry

	// OnChange, if set, is called after anything in the registry changed.
	// It runs on background goroutines and must not block.
	OnChange func()

	projects map[string]*commands.ComposeProject
	notifier Notifier

	selectionMutex  deadlock.Mutex
	selected        string
	liveLogsFocused bool

	reconcileMutex  deadlock.Mutex
	daemonMutex     deadlock.Mutex
	daemonUp        bool
	daemonChecked   bool
	lastDaemonCheck time.Time
	lastStatusQuery time.Time

	events   *EventListener
	follower *LogFollower

	tasks     sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewManager builds a manager for a fixed set of projects. Every project
// starts Stopped until the first reconciliation.
func NewManager(log *logrus.Entry, tr *i18n.TranslationSet, config *config.AppConfig, dockerCommand *commands.DockerCommand, projects []*commands.ComposeProject, notifier Notifier) *Manager {
	maxLines := config.UserConfig.Logs.MaxLines
	services := lo.Map(projects, func(project *commands.ComposeProject, _ int) *registry.Service {
		return registry.NewService(project.Name, project.Path, maxLines)
	})

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		Log:           log,
		Tr:            tr,
		Config:        config,
		OSCommand:     dockerCommand.OSCommand,
		DockerCommand: dockerCommand,
		Registry:      registry.New(services),
		projects: lo.Associate(projects, func(project *commands.ComposeProject) (string, *commands.ComposeProject) {
			return project.Name, project
		}),
		notifier: notifier,
		ctx:      ctx,
		cancel:   cancel,
	}

	m.follower = NewLogFollower(log, dockerCommand.OSCommand, m.Registry, m.projects, m.changed)
	m.events = NewEventListener(log, dockerCommand, m.Registry, config.UserConfig.Refresh.EventRetryDelay, m.leftRunning, m.changed)

	if names := m.Registry.Names(); len(names) > 0 {
		m.selected = names[0]
	}

	return m
}

func (m *Manager) notify(severity Severity, message string) {
	m.Log.WithField("severity", severity.String()).Info(message)
	if m.notifier != nil {
		m.notifier(severity, message, severity.defaultTTL())
	}
}

func (m *Manager) changed() {
	if m.OnChange != nil {
		m.OnChange()
	}
}

// goTask runs f in the background. Wait blocks until every such task is done.
func (m *Manager) goTask(f func()) {
	m.tasks.Add(1)
	go func() {
		defer m.tasks.Done()
		f()
	}()
}

// Wait blocks until every start, stop and daemon task has finished
func (m *Manager) Wait() {
	m.tasks.Wait()
}

// Close stops the reconciliation loop, the event listener and any log
// follow process. In-flight start/stop tasks are left to finish.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.cancel()
		m.events.Close()
		m.follower.Close()
	})
}

// Snapshot copies the state of every project, in display order
func (m *Manager) Snapshot() []registry.ServiceSnapshot {
	return m.Registry.Snapshot()
}

// Service copies the state of one project
func (m *Manager) Service(name string) (registry.ServiceSnapshot, bool) {
	service, ok := m.Registry.Get(name)
	if !ok {
		return registry.ServiceSnapshot{}, false
	}
	return service.Snapshot(), true
}

// DaemonReachable is the result of the latest daemon check. It is false
// until the first reconciliation ran.
func (m *Manager) DaemonReachable() bool {
	m.daemonMutex.Lock()
	defer m.daemonMutex.Unlock()

	return m.daemonChecked && m.daemonUp
}

// Selected returns the selected project name, "" if there are no projects
func (m *Manager) Selected() string {
	m.selectionMutex.Lock()
	defer m.selectionMutex.Unlock()

	return m.selected
}

// Select makes name the selected project. Unknown names are ignored.
func (m *Manager) Select(name string) bool {
	if _, ok := m.Registry.Get(name); !ok {
		return false
	}

	m.selectionMutex.Lock()
	m.selected = name
	m.selectionMutex.Unlock()

	m.goTask(m.syncFollower)
	return true
}

// SelectNext moves the selection down one project, wrapping around
func (m *Manager) SelectNext() string {
	return m.selectOffset(1)
}

// SelectPrevious moves the selection up one project, wrapping around
func (m *Manager) SelectPrevious() string {
	return m.selectOffset(-1)
}

func (m *Manager) selectOffset(offset int) string {
	names := m.Registry.Names()
	if len(names) == 0 {
		return ""
	}
	index := lo.IndexOf(names, m.Selected())
	if index == -1 {
		index = 0
	} else {
		index = (index + offset + len(names)) % len(names)
	}
	m.Select(names[index])
	return names[index]
}

// FindByPrefix returns the first project whose name starts with prefix,
// ignoring case
func (m *Manager) FindByPrefix(prefix string) (string, bool) {
	prefix = strings.ToLower(prefix)
	return lo.Find(m.Registry.Names(), func(name string) bool {
		return strings.HasPrefix(strings.ToLower(name), prefix)
	})
}

// SetLiveLogsFocused tells the manager whether the live logs are on screen.
// A project's logs are only followed while they are.
func (m *Manager) SetLiveLogsFocused(focused bool) {
	m.selectionMutex.Lock()
	m.liveLogsFocused = focused
	m.selectionMutex.Unlock()

	m.goTask(m.syncFollower)
}

// FollowedProject is the project whose logs are being followed, "" if none
func (m *Manager) FollowedProject() string {
	return m.follower.Active()
}

func (m *Manager) lookup(name string) (*registry.Service, *commands.ComposeProject, error) {
	service, ok := m.Registry.Get(name)
	if !ok {
		return nil, nil, ErrUnknownProject
	}
	return service, m.projects[name], nil
}
