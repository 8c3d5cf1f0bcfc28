// Package registry holds the per-project state cells that the reconciler,
// the event listener and the command runner all write to. There is no lock
// around the registry as a whole: every field of every cell has its own, so
// a slow writer on one field never holds up a reader of another.
package registry

import (
	"sort"
	"strings"

	"github.com/peauc/lazycompose/pkg/status"
	"github.com/samber/lo"
	"github.com/sasha-s/go-deadlock"
)

// Service is the state cell of one compose project
type Service struct {
	Name string
	Dir  string

	statusMutex deadlock.RWMutex
	status      status.Status

	progressMutex deadlock.Mutex
	pullProgress  string
	hasProgress   bool

	// Events is the human readable event and runtime log
	Events *LogBuffer
	// Logs is the output of the last pull/up/down sequence
	Logs *LogBuffer
	// LiveLogs is the tailed output of the running containers
	LiveLogs *LogBuffer
}

// NewService returns a cell in the Stopped state
func NewService(name string, dir string, maxLines int) *Service {
	return &Service{
		Name:     name,
		Dir:      dir,
		status:   status.Stopped,
		Events:   NewLogBuffer(maxLines),
		Logs:     NewLogBuffer(maxLines),
		LiveLogs: NewLogBuffer(maxLines),
	}
}

// Status returns the current status
func (s *Service) Status() status.Status {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()

	return s.status
}

// SetStatus overwrites the status and returns the previous one. Any status
// other than Pulling clears the pull progress.
func (s *Service) SetStatus(next status.Status) status.Status {
	old, _, _ := s.UpdateStatus(func(status.Status) (status.Status, bool) {
		return next, true
	})
	return old
}

// UpdateStatus atomically reads the current status and, if fn returns true,
// replaces it with the status fn returned. It returns the status before and
// after the update and whether fn accepted the change.
func (s *Service) UpdateStatus(fn func(current status.Status) (status.Status, bool)) (status.Status, status.Status, bool) {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	old := s.status
	next, ok := fn(old)
	if ok {
		s.status = next
		if next != status.Pulling {
			s.ClearPullProgress()
		}
	}

	if !ok {
		return old, old, false
	}
	return old, next, true
}

// PullProgress returns the latest pull progress label, if any
func (s *Service) PullProgress() (string, bool) {
	s.progressMutex.Lock()
	defer s.progressMutex.Unlock()

	return s.pullProgress, s.hasProgress
}

// SetPullProgress records the latest pull progress label
func (s *Service) SetPullProgress(progress string) {
	s.progressMutex.Lock()
	defer s.progressMutex.Unlock()

	s.pullProgress = progress
	s.hasProgress = true
}

// SetPullProgressWhilePulling records progress only if the project is still
// pulling, so a late output line can't leave a label on a finished pull
func (s *Service) SetPullProgressWhilePulling(progress string) bool {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()

	if s.status != status.Pulling {
		return false
	}
	s.SetPullProgress(progress)
	return true
}

// ClearPullProgress forgets any pull progress
func (s *Service) ClearPullProgress() {
	s.progressMutex.Lock()
	defer s.progressMutex.Unlock()

	s.pullProgress = ""
	s.hasProgress = false
}

// ServiceSnapshot is a point-in-time copy of a cell, safe to hand to a renderer
type ServiceSnapshot struct {
	Name         string
	Status       status.Status
	PullProgress string
	HasProgress  bool
	Events       string
	Logs         string
	LiveLogs     string
}

// Snapshot copies every field of the cell. Each field is read under its own
// lock, so the snapshot as a whole is not atomic.
func (s *Service) Snapshot() ServiceSnapshot {
	progress, hasProgress := s.PullProgress()
	return ServiceSnapshot{
		Name:         s.Name,
		Status:       s.Status(),
		PullProgress: progress,
		HasProgress:  hasProgress,
		Events:       s.Events.String(),
		Logs:         s.Logs.String(),
		LiveLogs:     s.LiveLogs.String(),
	}
}

// Registry is the fixed set of projects discovered at startup
type Registry struct {
	services []*Service
	byName   map[string]*Service
}

// New builds a registry. Services are kept sorted by name, case-insensitively.
func New(services []*Service) *Registry {
	sorted := make([]*Service, len(services))
	copy(sorted, services)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	return &Registry{
		services: sorted,
		byName: lo.Associate(sorted, func(service *Service) (string, *Service) {
			return service.Name, service
		}),
	}
}

// Get returns the cell for name
func (r *Registry) Get(name string) (*Service, bool) {
	service, ok := r.byName[name]
	return service, ok
}

// All returns every cell in display order
func (r *Registry) All() []*Service {
	return r.services
}

// Names returns every project name in display order
func (r *Registry) Names() []string {
	return lo.Map(r.services, func(service *Service, _ int) string {
		return service.Name
	})
}

// Len is the number of projects
func (r *Registry) Len() int {
	return len(r.services)
}

// Filter returns the cells whose current status satisfies predicate
func (r *Registry) Filter(predicate func(status.Status) bool) []*Service {
	return lo.Filter(r.services, func(service *Service, _ int) bool {
		return predicate(service.Status())
	})
}

// AnyTransitional reports whether any project is pulling, starting or stopping
func (r *Registry) AnyTransitional() bool {
	for _, service := range r.services {
		if service.Status().IsTransitional() {
			return true
		}
	}
	return false
}

// SetAll forces every project into the same status
func (r *Registry) SetAll(next status.Status) {
	for _, service := range r.services {
		service.SetStatus(next)
	}
}

// Snapshot copies every cell in display order
func (r *Registry) Snapshot() []ServiceSnapshot {
	return lo.Map(r.services, func(service *Service, _ int) ServiceSnapshot {
		return service.Snapshot()
	})
}
