package registry

import (
	"sync"
	"testing"

	"github.com/peauc/lazycompose/pkg/status"
	"github.com/stretchr/testify/assert"
)

func TestLogBufferBounded(t *testing.T) {
	buffer := NewLogBuffer(3)
	for _, line := range []string{"a", "b", "c", "d", "e"} {
		buffer.AppendLine(line)
	}

	assert.Equal(t, []string{"c", "d", "e"}, buffer.Lines())
	assert.Equal(t, "c\nd\ne\n", buffer.String())
	assert.Equal(t, 3, buffer.Len())

	buffer.Clear()
	assert.Equal(t, "", buffer.String())
	assert.Equal(t, 0, buffer.Len())
}

func TestLogBufferUnbounded(t *testing.T) {
	buffer := NewLogBuffer(0)
	buffer.AppendLine("one")
	buffer.AppendLine("two")
	buffer.AppendLine("three")
	assert.Equal(t, []string{"one", "two", "three"}, buffer.Lines())
}

func TestLogBufferSetTextIfEmpty(t *testing.T) {
	buffer := NewLogBuffer(10)
	assert.True(t, buffer.SetTextIfEmpty("Up output:\nContainer web Running\n"))
	assert.False(t, buffer.SetTextIfEmpty("ignored"))
	assert.Equal(t, "Up output:\nContainer web Running\n", buffer.String())
}

func TestServiceStatusClearsProgress(t *testing.T) {
	service := NewService("redis", "/tmp/redis", 10)
	assert.Equal(t, status.Stopped, service.Status())

	service.SetStatus(status.Pulling)
	service.SetPullProgress("Downloading 40%")
	service.SetStatus(status.Pulling)
	progress, ok := service.PullProgress()
	assert.True(t, ok)
	assert.Equal(t, "Downloading 40%", progress)

	old := service.SetStatus(status.Starting)
	assert.Equal(t, status.Pulling, old)
	_, ok = service.PullProgress()
	assert.False(t, ok)
}

func TestServiceUpdateStatus(t *testing.T) {
	service := NewService("redis", "/tmp/redis", 10)
	service.SetStatus(status.Pulling)
	service.SetPullProgress("Waiting")

	old, next, changed := service.UpdateStatus(func(current status.Status) (status.Status, bool) {
		return status.Stopped, status.ShouldApplyEvent(current, status.Stopped)
	})
	assert.False(t, changed)
	assert.Equal(t, status.Pulling, old)
	assert.Equal(t, status.Pulling, next)
	_, ok := service.PullProgress()
	assert.True(t, ok, "a rejected update leaves progress alone")

	_, next, changed = service.UpdateStatus(func(current status.Status) (status.Status, bool) {
		return status.Error, status.ShouldApplyEvent(current, status.Error)
	})
	assert.True(t, changed)
	assert.Equal(t, status.Error, next)
	_, ok = service.PullProgress()
	assert.False(t, ok)
}

func TestServiceUpdateStatusIsAtomic(t *testing.T) {
	service := NewService("redis", "/tmp/redis", 10)

	wins := 0
	var winsMutex sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, changed := service.UpdateStatus(func(current status.Status) (status.Status, bool) {
				return status.Pulling, !current.IsTransitional()
			})
			if changed {
				winsMutex.Lock()
				wins++
				winsMutex.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, status.Pulling, service.Status())
}

func TestRegistry(t *testing.T) {
	registry := New([]*Service{
		NewService("redis", "/c/redis", 10),
		NewService("Adminer", "/c/Adminer", 10),
		NewService("mysql", "/c/mysql", 10),
	})

	assert.Equal(t, []string{"Adminer", "mysql", "redis"}, registry.Names())
	assert.Equal(t, 3, registry.Len())

	mysql, ok := registry.Get("mysql")
	assert.True(t, ok)
	assert.Equal(t, "/c/mysql", mysql.Dir)
	_, ok = registry.Get("postgres")
	assert.False(t, ok)

	assert.False(t, registry.AnyTransitional())
	mysql.SetStatus(status.Stopping)
	assert.True(t, registry.AnyTransitional())

	active := registry.Filter(status.Status.IsActive)
	assert.Len(t, active, 1)
	assert.Equal(t, "mysql", active[0].Name)

	registry.SetAll(status.DaemonNotRunning)
	for _, snapshot := range registry.Snapshot() {
		assert.Equal(t, status.DaemonNotRunning, snapshot.Status)
	}
}

func TestSetPullProgressWhilePulling(t *testing.T) {
	service := NewService("redis", "/tmp/redis", 10)
	assert.False(t, service.SetPullProgressWhilePulling("Waiting"))
	_, ok := service.PullProgress()
	assert.False(t, ok)

	service.SetStatus(status.Pulling)
	assert.True(t, service.SetPullProgressWhilePulling("Downloading 10%"))
	progress, ok := service.PullProgress()
	assert.True(t, ok)
	assert.Equal(t, "Downloading 10%", progress)
}
