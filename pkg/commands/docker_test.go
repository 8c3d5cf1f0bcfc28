package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awnumar/memguard"
	"github.com/docker/docker/api/types"
	"github.com/go-errors/errors"
	"github.com/peauc/lazycompose/pkg/status"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	err   error
	calls int
}

func (f *fakePinger) Ping(ctx context.Context) (types.Ping, error) {
	f.calls++
	return types.Ping{}, f.err
}

func newRecordedDockerCommand() (*DockerCommand, *CommandRecorder) {
	osCommand, recorder := NewRecordedOSCommand()
	return NewDummyDockerCommand(osCommand), recorder
}

func TestBatchStatusesIssuesOneQuery(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()
	recorder.On("docker ps", FakeResponse{
		Stdout: "redis-cache-1\tUp 1 minute\tredis\nweb-1\tExited (0) 2 minutes ago\tweb\n",
	})

	projects := []string{"adminer", "mysql", "postgres", "redis", "web", "bad name"}
	observations := dockerCommand.BatchStatuses(projects)

	assert.Equal(t, 1, recorder.CountPrefix("docker ps"))
	assert.Equal(t, 1, len(recorder.Calls()))
	assert.Equal(t, map[string]status.Observation{
		"adminer":  status.ObservedStopped,
		"mysql":    status.ObservedStopped,
		"postgres": status.ObservedStopped,
		"redis":    status.ObservedRunning,
		"web":      status.ObservedStopped,
		"bad name": status.ObservedError,
	}, observations)
}

func TestBatchStatusesFailure(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()
	recorder.On("docker ps", FakeResponse{Stderr: "Cannot connect to the Docker daemon", ExitCode: 1})

	observations := dockerCommand.BatchStatuses([]string{"redis", "web"})

	assert.Equal(t, map[string]status.Observation{
		"redis": status.ObservedError,
		"web":   status.ObservedError,
	}, observations)
}

func TestBatchStatusesOnlyInvalidNames(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()

	observations := dockerCommand.BatchStatuses([]string{"rm -rf"})

	assert.Equal(t, status.ObservedError, observations["rm -rf"])
	assert.Empty(t, recorder.Calls())
}

func TestProjectStatus(t *testing.T) {
	type scenario struct {
		testName string
		project  string
		response FakeResponse
		expected status.Observation
	}

	scenarios := []scenario{
		{"running", "redis", FakeResponse{Stdout: "redis-cache-1\tUp 2 seconds\n"}, status.ObservedRunning},
		{"no containers", "redis", FakeResponse{}, status.ObservedStopped},
		{"command fails", "redis", FakeResponse{ExitCode: 1}, status.ObservedError},
		{"invalid name", "red;is", FakeResponse{Stdout: "x\tUp\n"}, status.ObservedError},
	}

	for _, s := range scenarios {
		t.Run(s.testName, func(t *testing.T) {
			dockerCommand, recorder := newRecordedDockerCommand()
			recorder.On("docker ps", s.response)
			assert.Equal(t, s.expected, dockerCommand.ProjectStatus(s.project))
		})
	}

	dockerCommand, recorder := newRecordedDockerCommand()
	dockerCommand.ProjectStatus("redis")
	assert.Equal(t, []string{
		"docker ps --filter label=com.docker.compose.project=redis --format {{.Names}}\t{{.Status}}",
	}, recorder.Calls())
}

func TestRuntimeDetails(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()
	recorder.
		On("docker inspect --format {{range $k, $v := .NetworkSettings.Networks}}", FakeResponse{Stdout: "redis_default=172.18.0.2 \n"}).
		On("docker inspect --format {{range $p, $v := .NetworkSettings.Ports}}", FakeResponse{Stdout: "6379/tcp=0.0.0.0:6379 \n"})

	ips, ports := dockerCommand.RuntimeDetails("redis-cache-1")
	assert.Equal(t, "redis_default=172.18.0.2", ips)
	assert.Equal(t, "6379/tcp=0.0.0.0:6379", ports)
}

func TestRuntimeDetailsFallbacks(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()
	recorder.On("docker inspect", FakeResponse{ExitCode: 1})

	ips, ports := dockerCommand.RuntimeDetails("gone")
	assert.Equal(t, "pending", ips)
	assert.Equal(t, "none", ports)
}

func TestProjectOfContainer(t *testing.T) {
	type scenario struct {
		testName string
		response FakeResponse
		expected string
	}

	scenarios := []scenario{
		{"labelled", FakeResponse{Stdout: "redis\n"}, "redis"},
		{"no label", FakeResponse{Stdout: "<no value>\n"}, ""},
		{"gone", FakeResponse{ExitCode: 1}, ""},
	}

	for _, s := range scenarios {
		t.Run(s.testName, func(t *testing.T) {
			dockerCommand, recorder := newRecordedDockerCommand()
			recorder.On("docker inspect", s.response)
			assert.Equal(t, s.expected, dockerCommand.ProjectOfContainer("redis-cache-1"))
		})
	}
}

func TestRunningContainers(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()
	recorder.On("docker ps", FakeResponse{Stdout: "redis-cache-1\nredis-replica-1\n"})

	assert.Equal(t, []string{"redis-cache-1", "redis-replica-1"}, dockerCommand.RunningContainers("redis"))
	assert.Nil(t, dockerCommand.RunningContainers("../etc"))
	assert.Equal(t, 1, recorder.CountPrefix("docker ps"))
}

func TestPing(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()
	recorder.On("docker info", FakeResponse{ExitCode: 1})
	assert.False(t, dockerCommand.Ping(context.Background()))
	assert.Equal(t, 1, recorder.CountPrefix("docker info"))

	pinger := &fakePinger{}
	dockerCommand.Client = pinger
	assert.True(t, dockerCommand.Ping(context.Background()))

	pinger.err = errors.New("connection refused")
	assert.False(t, dockerCommand.Ping(context.Background()))
	assert.Equal(t, 2, pinger.calls)
	assert.Equal(t, 1, recorder.CountPrefix("docker info"))
}

func TestAvailabilityChecks(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()
	recorder.
		On("docker --version", FakeResponse{Stdout: "Docker version 28.5.2"}).
		On("docker compose version", FakeResponse{ExitCode: 1})

	assert.True(t, dockerCommand.DockerCLIAvailable())
	assert.False(t, dockerCommand.ComposeAvailable())
}

func TestAllImagesPresent(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()
	recorder.
		On("docker image inspect redis:7", FakeResponse{}).
		On("docker image inspect adminer", FakeResponse{ExitCode: 1})

	assert.True(t, dockerCommand.AllImagesPresent([]string{"redis:7"}))
	assert.False(t, dockerCommand.AllImagesPresent([]string{"redis:7", "adminer"}))
	assert.False(t, dockerCommand.AllImagesPresent(nil))
}

func TestEventsCmd(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()
	dockerCommand.EventsCmd()

	assert.Equal(t, []string{
		"docker events --filter type=container --filter label=com.docker.compose.project --format " +
			"{{.Action}}\t{{index .Actor.Attributes \"com.docker.compose.project\"}}\t" +
			"{{index .Actor.Attributes \"name\"}}\t{{index .Actor.Attributes \"exitCode\"}}",
	}, recorder.Calls())
}

func TestStreamEvents(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()
	recorder.On("docker events", FakeResponse{
		Script: `printf 'create\tredis\tredis-1\t\n\nstart\t<no value>\tredis-1\t\ndie\tredis\tredis-1\t0\n'`,
	})

	var events []Event
	err := dockerCommand.StreamEvents(context.Background(), func(event Event) {
		events = append(events, event)
	})

	assert.NoError(t, err)
	assert.Equal(t, []Event{
		{Action: "create", Project: "redis", Container: "redis-1"},
		{Action: "start", Container: "redis-1"},
		{Action: "die", Project: "redis", Container: "redis-1", ExitCode: "0"},
	}, events)
}

func TestRunDaemonAction(t *testing.T) {
	stdinFile := filepath.Join(t.TempDir(), "stdin")

	dockerCommand, recorder := newRecordedDockerCommand()
	recorder.On("sudo -S systemctl", FakeResponse{Script: "cat > '" + stdinFile + "'"})

	password := memguard.NewBufferFromBytes([]byte("hunter2"))
	defer password.Destroy()

	err := dockerCommand.RunDaemonAction(DaemonStop, password)
	assert.NoError(t, err)
	assert.Equal(t, []string{"sudo -S systemctl stop docker.service docker.socket"}, recorder.Calls())

	content, err := os.ReadFile(stdinFile)
	assert.NoError(t, err)
	assert.Equal(t, "hunter2\n", string(content))
}

func TestRunDaemonActionFailure(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()
	recorder.On("sudo", FakeResponse{Stderr: "Sorry, try again.", ExitCode: 1})

	password := memguard.NewBufferFromBytes([]byte("wrong"))
	defer password.Destroy()

	err := dockerCommand.RunDaemonAction(DaemonStart, password)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Sorry, try again.")
	assert.Equal(t, []string{"sudo -S systemctl start docker"}, recorder.Calls())
}

func TestRunDaemonActionEmptyPassword(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()

	assert.Error(t, dockerCommand.RunDaemonAction(DaemonRestart, nil))
	assert.Empty(t, recorder.Calls())
}

func TestServiceActive(t *testing.T) {
	dockerCommand, recorder := newRecordedDockerCommand()
	recorder.On("systemctl is-active docker.service", FakeResponse{Stdout: "inactive\n", ExitCode: 3})

	assert.False(t, dockerCommand.ServiceActive())

	dockerCommand.Config.UserConfig.Daemon.SkipServiceCheck = true
	assert.True(t, dockerCommand.ServiceActive())
	assert.Equal(t, 1, recorder.CountPrefix("systemctl"))
}

func TestParseDaemonAction(t *testing.T) {
	action, ok := ParseDaemonAction(" Restart ")
	assert.True(t, ok)
	assert.Equal(t, DaemonRestart, action)

	_, ok = ParseDaemonAction("reload")
	assert.False(t, ok)
	assert.True(t, strings.HasPrefix(string(DaemonStop), "stop"))
}
