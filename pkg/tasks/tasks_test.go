package tasks

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newDummyLog() *logrus.Entry {
	log := logrus.New()
	log.Out = io.Discard
	return log.WithField("test", "test")
}

func TestNewTaskStopsPrevious(t *testing.T) {
	manager := NewTaskManager(newDummyLog())

	var running int32
	var maxRunning int32
	body := func(ctx context.Context) {
		current := atomic.AddInt32(&running, 1)
		for {
			previous := atomic.LoadInt32(&maxRunning)
			if current <= previous || atomic.CompareAndSwapInt32(&maxRunning, previous, current) {
				break
			}
		}
		<-ctx.Done()
		atomic.AddInt32(&running, -1)
	}

	first := manager.NewTask("a", body)
	second := manager.NewTask("b", body)
	manager.NewTask("c", body)

	assert.True(t, first.Finished())
	assert.True(t, second.Finished())
	assert.Equal(t, "c", manager.CurrentKey())
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxRunning))

	manager.Stop()
	assert.Equal(t, "", manager.CurrentKey())
	assert.Equal(t, int32(0), atomic.LoadInt32(&running))
}

func TestStopIf(t *testing.T) {
	manager := NewTaskManager(newDummyLog())
	manager.NewTask("redis", func(ctx context.Context) { <-ctx.Done() })

	assert.False(t, manager.StopIf("mysql"))
	assert.Equal(t, "redis", manager.CurrentKey())

	assert.True(t, manager.StopIf("redis"))
	assert.Equal(t, "", manager.CurrentKey())
	assert.False(t, manager.StopIf("redis"))
}

func TestCurrentKeyAfterTaskReturns(t *testing.T) {
	manager := NewTaskManager(newDummyLog())
	task := manager.NewTask("short", func(ctx context.Context) {})

	assert.Eventually(t, task.Finished, time.Second, time.Millisecond)

	assert.Equal(t, "", manager.CurrentKey())
}
