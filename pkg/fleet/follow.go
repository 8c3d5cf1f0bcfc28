package fleet

import (
	"context"

	"github.com/peauc/lazycompose/pkg/commands"
	"github.com/peauc/lazycompose/pkg/registry"
	"github.com/peauc/lazycompose/pkg/status"
	"github.com/peauc/lazycompose/pkg/tasks"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// LogFollower runs `docker compose logs -f` for at most one project at a
// time, fleet wide. The single task slot of its TaskManager is what
// enforces that: starting a follow stops and reaps the previous one first.
type LogFollower struct {
	Log       *logrus.Entry
	OSCommand *commands.OSCommand
	Registry  *registry.Registry

	projects map[string]*commands.ComposeProject
	onChange func()
	tasks    *tasks.TaskManager

	mutex deadlock.Mutex
	// followed is the project whose live-log buffer we last wrote to
	followed string
	closed   bool
}

// NewLogFollower returns an idle follower
func NewLogFollower(log *logrus.Entry, osCommand *commands.OSCommand, reg *registry.Registry, projects map[string]*commands.ComposeProject, onChange func()) *LogFollower {
	return &LogFollower{
		Log:       log,
		OSCommand: osCommand,
		Registry:  reg,
		projects:  projects,
		onChange:  onChange,
		tasks:     tasks.NewTaskManager(log),
	}
}

// Sync makes target the only followed project. Any other follow is killed
// and its buffer cleared. A target whose follow process has exited gets a
// fresh one. An empty target, or one that is no longer Running, stops
// everything.
func (f *LogFollower) Sync(target string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.followed != "" && f.followed != target {
		f.stopLocked()
	}
	if target == "" || f.closed {
		return
	}

	service, ok := f.Registry.Get(target)
	project, hasProject := f.projects[target]
	if !ok || !hasProject {
		return
	}
	// a stop may have begun since the caller picked target
	if service.Status() != status.Running {
		if f.followed == target {
			f.stopLocked()
		}
		return
	}
	if f.followed == target && f.tasks.CurrentKey() == target {
		return
	}

	f.followed = target
	// `logs -f --tail` replays recent output, so start from an empty buffer
	service.LiveLogs.Clear()
	f.tasks.NewTask(target, func(ctx context.Context) {
		err := f.OSCommand.StreamLines(ctx, project.LogsFollowCmd(), func(line string) {
			service.LiveLogs.AppendLine(line)
			f.onChange()
		})
		if err != nil && ctx.Err() == nil {
			f.Log.WithError(err).Warnf("following logs of %s failed", target)
		}
	})
}

// StopFor kills the follow of name, if it is the followed project, and
// clears its buffer
func (f *LogFollower) StopFor(name string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.followed != name {
		return
	}
	if !f.tasks.StopIf(name) {
		f.Log.Debugf("follow of %s had already exited", name)
	}
	if service, ok := f.Registry.Get(name); ok {
		service.LiveLogs.Clear()
	}
	f.followed = ""
}

// Stop kills whatever is being followed
func (f *LogFollower) Stop() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.stopLocked()
}

// Close stops following for good
func (f *LogFollower) Close() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.closed = true
	f.stopLocked()
}

func (f *LogFollower) stopLocked() {
	f.tasks.Stop()
	if f.followed == "" {
		return
	}
	if service, ok := f.Registry.Get(f.followed); ok {
		service.LiveLogs.Clear()
	}
	f.followed = ""
}

// Active is the project with a live follow process, "" if none
func (f *LogFollower) Active() string {
	return f.tasks.CurrentKey()
}
