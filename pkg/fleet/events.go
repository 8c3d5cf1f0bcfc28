package fleet

import (
	"context"
	"fmt"
	"time"

	"github.com/peauc/lazycompose/pkg/commands"
	"github.com/peauc/lazycompose/pkg/registry"
	"github.com/peauc/lazycompose/pkg/status"
	"github.com/peauc/lazycompose/pkg/utils"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const seedConcurrency = 4

// EventListener tails `docker events` for the whole fleet and applies what
// it sees to the registry. It is the only consumer of that stream.
type EventListener struct {
	Log           *logrus.Entry
	DockerCommand *commands.DockerCommand
	Registry      *registry.Registry
	RetryDelay    time.Duration

	onLeftRunning func(*registry.Service)
	onChange      func()

	mutex  deadlock.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// NewEventListener returns a stopped listener
func NewEventListener(log *logrus.Entry, dockerCommand *commands.DockerCommand, reg *registry.Registry, retryDelay time.Duration, onLeftRunning func(*registry.Service), onChange func()) *EventListener {
	return &EventListener{
		Log:           log,
		DockerCommand: dockerCommand,
		Registry:      reg,
		RetryDelay:    retryDelay,
		onLeftRunning: onLeftRunning,
		onChange:      onChange,
	}
}

// Start seeds every project's event log with its running containers and
// then streams events, reconnecting after RetryDelay whenever the stream
// fails or ends. It does nothing if the listener is already running.
func (l *EventListener) Start() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed || l.runningLocked() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	go func() {
		defer close(done)
		l.run(ctx)
	}()
}

// Stop kills the event stream and waits for the listener to return
func (l *EventListener) Stop() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.stopLocked()
}

// Close stops the listener for good
func (l *EventListener) Close() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.closed = true
	l.stopLocked()
}

func (l *EventListener) stopLocked() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.cancel = nil
	l.done = nil
}

// Running reports whether the listener goroutine is alive
func (l *EventListener) Running() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.runningLocked()
}

func (l *EventListener) runningLocked() bool {
	if l.done == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

func (l *EventListener) run(ctx context.Context) {
	l.seed(ctx)

	for {
		err := l.DockerCommand.StreamEvents(ctx, l.handle)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			l.Log.WithError(err).Warn("event stream failed")
		} else {
			l.Log.Warn("event stream ended")
		}
		if !utils.SleepContext(ctx, l.RetryDelay) {
			return
		}
	}
}

// seed writes a snapshot line, plus runtime details, for every container
// already running so the event log isn't empty right after (re)connecting
func (l *EventListener) seed(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(seedConcurrency)

	for _, service := range l.Registry.All() {
		service := service
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			for _, container := range l.DockerCommand.RunningContainers(service.Name) {
				service.Events.AppendLine(fmt.Sprintf("[event] %s running (snapshot)", container))
				l.appendRuntimeDetails(service, container)
			}
			return nil
		})
	}

	_ = g.Wait()
	l.onChange()
}

func (l *EventListener) appendRuntimeDetails(service *registry.Service, container string) {
	if container == "" {
		return
	}
	ips, ports := l.DockerCommand.RuntimeDetails(container)
	service.Events.AppendLine(fmt.Sprintf("[event] %s runtime ips=[%s] ports=[%s]", container, ips, ports))
}

func (l *EventListener) handle(event commands.Event) {
	project := event.Project
	if project == "" {
		project = l.DockerCommand.ProjectOfContainer(event.Container)
	}
	if project == "" {
		return
	}
	service, ok := l.Registry.Get(project)
	if !ok {
		return
	}

	event.Project = project
	service.Events.AppendLine(fmt.Sprintf("[event] %s %s", event.Scope(), event.Action))

	switch event.Action {
	case "start", "restart", "unpause":
		l.appendRuntimeDetails(service, event.Container)
	}

	old, next, changed := service.UpdateStatus(func(current status.Status) (status.Status, bool) {
		next, ok := status.FromEvent(event.Action, current, event.ExitCode)
		if !ok || next == current {
			return current, false
		}
		return next, status.ShouldApplyEvent(current, next)
	})
	if changed {
		l.Log.Debugf("%s: %s -> %s (event %s)", project, old, next, event.Action)
		if old == status.Running && next != status.Running {
			l.onLeftRunning(service)
		}
	}

	l.onChange()
}
