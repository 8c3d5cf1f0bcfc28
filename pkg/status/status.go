// Package status holds the project status enumeration and the rules that
// decide how status queries and engine events move a project between states.
// Nothing in here touches a subprocess so every rule can be tested on its own.
package status

import "strings"

// Status is the authoritative state of one compose project.
type Status int

const (
	Stopped Status = iota
	Starting
	Pulling
	Running
	Stopping
	Error
	DaemonNotRunning
)

func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Pulling:
		return "pulling images"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Error:
		return "error"
	case DaemonNotRunning:
		return "daemon not running"
	default:
		return "unknown"
	}
}

// IsTransitional reports whether the project is in the middle of a command
// the engine itself issued.
func (s Status) IsTransitional() bool {
	return s == Pulling || s == Starting || s == Stopping
}

// IsActive is true for anything that has to be brought down before the
// daemon can be stopped.
func (s Status) IsActive() bool {
	return s == Running || s.IsTransitional()
}

// Observation is what a status query saw for a project. It is kept apart from
// Status so that a query which could not make sense of its output never
// leaks a made-up state into the registry.
type Observation int

const (
	ObservedUnknown Observation = iota
	ObservedRunning
	ObservedStopped
	ObservedError
)

func (o Observation) String() string {
	switch o {
	case ObservedRunning:
		return "running"
	case ObservedStopped:
		return "stopped"
	case ObservedError:
		return "error"
	default:
		return "unknown"
	}
}

// Reconcile returns the status a project should have given its current
// status and what a query observed.
//
// Transitional states only leave on a confirming observation: Pulling and
// Starting need to see the project running, Stopping needs to see no running
// container left. Everything else follows the query, except that an Unknown
// observation changes nothing.
func Reconcile(current Status, observed Observation) Status {
	switch current {
	case Pulling, Starting:
		if observed == ObservedRunning {
			return Running
		}
		return current
	case Stopping:
		if observed == ObservedStopped {
			return Stopped
		}
		return current
	}

	switch observed {
	case ObservedRunning:
		return Running
	case ObservedStopped:
		return Stopped
	case ObservedError:
		return Error
	default:
		return current
	}
}

// FromEvent maps a container event action to the status it implies. The
// second return value is false when the action says nothing about status.
func FromEvent(action string, current Status, exitCode string) (Status, bool) {
	switch action {
	case "create", "restart", "unpause":
		return Starting, true
	case "start":
		return Running, true
	case "stop", "destroy", "pause":
		return Stopped, true
	case "die", "kill":
		if current == Stopping || current == Stopped || exitCode == "0" {
			return Stopped, true
		}
		return Error, true
	}

	if health, ok := strings.CutPrefix(action, "health_status:"); ok {
		switch strings.TrimSpace(health) {
		case "healthy":
			return Running, true
		case "unhealthy":
			return Error, true
		}
	}

	return current, false
}

// ShouldApplyEvent decides whether an event-derived status may overwrite the
// current one. A project that is still pulling images cannot be downgraded
// by an event, but it can always be promoted to Running or Error.
func ShouldApplyEvent(current Status, next Status) bool {
	if current != Pulling {
		return true
	}
	return next == Running || next == Error
}
