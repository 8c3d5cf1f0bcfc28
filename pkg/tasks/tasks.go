package tasks

import (
	"context"

	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// TaskFunc is the body of a task. It must return once ctx is done.
type TaskFunc func(ctx context.Context)

// TaskManager runs at most one task at a time. Starting a new task stops the
// current one and waits for it to return first, so two tasks never overlap.
type TaskManager struct {
	currentTask  *Task
	waitingMutex deadlock.Mutex
	Log          *logrus.Entry
}

// Task is one running TaskFunc, identified by a key
type Task struct {
	Key    string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTaskManager returns an idle manager
func NewTaskManager(log *logrus.Entry) *TaskManager {
	return &TaskManager{Log: log}
}

// NewTask stops the current task, if any, then starts f under key
func (t *TaskManager) NewTask(key string, f TaskFunc) *Task {
	t.waitingMutex.Lock()
	defer t.waitingMutex.Unlock()

	t.stopCurrentLocked()

	ctx, cancel := context.WithCancel(context.Background())
	task := &Task{
		Key:    key,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	t.currentTask = task

	go func() {
		defer close(task.done)
		f(ctx)
	}()

	return task
}

// Stop stops the current task and waits for it to return
func (t *TaskManager) Stop() {
	t.waitingMutex.Lock()
	defer t.waitingMutex.Unlock()

	t.stopCurrentLocked()
}

// StopIf stops the current task only if it runs under key. It reports
// whether a task was stopped.
func (t *TaskManager) StopIf(key string) bool {
	t.waitingMutex.Lock()
	defer t.waitingMutex.Unlock()

	if t.currentTask == nil || t.currentTask.Key != key {
		return false
	}
	t.stopCurrentLocked()
	return true
}

func (t *TaskManager) stopCurrentLocked() {
	if t.currentTask == nil {
		return
	}
	t.Log.Debugf("stopping task %s", t.currentTask.Key)
	t.currentTask.Stop()
	t.currentTask = nil
}

// CurrentKey returns the key of the task that is still running, or "" if
// nothing is running
func (t *TaskManager) CurrentKey() string {
	t.waitingMutex.Lock()
	defer t.waitingMutex.Unlock()

	if t.currentTask == nil || t.currentTask.Finished() {
		return ""
	}
	return t.currentTask.Key
}

// Stop cancels the task and waits for its function to return
func (t *Task) Stop() {
	t.cancel()
	<-t.done
}

// Finished reports whether the task function has returned
func (t *Task) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
