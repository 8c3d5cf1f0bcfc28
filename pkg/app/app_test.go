package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-errors/errors"
	"github.com/gookit/color"
	"github.com/peauc/lazycompose/pkg/commands"
	"github.com/peauc/lazycompose/pkg/fleet"
	"github.com/peauc/lazycompose/pkg/gui"
	"github.com/peauc/lazycompose/pkg/i18n"
	"github.com/peauc/lazycompose/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const redisStatusQuery = "docker ps --filter label=com.docker.compose.project=redis --format {{.Names}}\t{{.Status}}"

func newTestApp(t *testing.T, names ...string) (*App, *commands.CommandRecorder, *bytes.Buffer) {
	t.Helper()
	color.Enable = false

	osCommand, recorder := commands.NewRecordedOSCommand()
	appConfig := osCommand.Config
	appConfig.ProjectsDir = t.TempDir()
	appConfig.UserConfig.Daemon.PollInterval = time.Millisecond
	appConfig.UserConfig.Daemon.PollAttempts = 5

	recorder.On("docker events", commands.FakeResponse{Script: "exec sleep 30"})

	for _, name := range names {
		dir := appConfig.ProjectDir(name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte("services:\n  app:\n    image: "+name+":latest\n"), 0o644))
	}
	projects, err := commands.DiscoverProjects(osCommand)
	require.NoError(t, err)

	log := commands.NewDummyLog()
	out := &bytes.Buffer{}
	app := &App{
		Config:        appConfig,
		Log:           log,
		OSCommand:     osCommand,
		DockerCommand: commands.NewDummyDockerCommand(osCommand),
		Tr:            i18n.NewTranslationSet(log, "en"),
		out:           out,
	}
	app.Gui = gui.NewGui(log, app.Tr, appConfig)
	app.setManager(fleet.NewManager(log, app.Tr, appConfig, app.DockerCommand, projects, app.notify))
	t.Cleanup(func() {
		_ = app.Close()
	})

	return app, recorder, out
}

func TestRunProjectCommandStart(t *testing.T) {
	app, recorder, out := newTestApp(t, "postgres", "redis")
	recorder.On(redisStatusQuery,
		commands.FakeResponse{},
		commands.FakeResponse{Stdout: "redis-app-1\tUp 1 second\n"},
	)

	assert.NoError(t, app.RunProjectCommand("start", "redis"))

	snapshot, _ := app.Manager.Service("redis")
	assert.Equal(t, status.Running, snapshot.Status)
	assert.Contains(t, out.String(), "redis is running")
	assert.Equal(t, 1, recorder.CountPrefix("docker compose up"))
}

func TestRunProjectCommandStartFails(t *testing.T) {
	app, recorder, out := newTestApp(t, "redis")
	recorder.On("docker compose up", commands.FakeResponse{Stderr: "port is already allocated", ExitCode: 1})

	err := app.RunProjectCommand("start", "redis")

	require.Error(t, err)
	assert.Equal(t, "redis ended up error", err.Error())
	assert.Contains(t, out.String(), "Failed to start redis, see its logs")
	assert.Contains(t, out.String(), "Up failed")
}

func TestRunProjectCommandRefusals(t *testing.T) {
	type scenario struct {
		testName        string
		verb            string
		project         string
		expectedErr     error
		expectedMessage string
	}

	scenarios := []scenario{
		{
			testName:        "unknown project",
			verb:            "start",
			project:         "mysql",
			expectedErr:     fleet.ErrUnknownProject,
			expectedMessage: "Unknown project: mysql",
		},
	}

	for _, s := range scenarios {
		t.Run(s.testName, func(t *testing.T) {
			app, recorder, out := newTestApp(t, "redis")

			err := app.RunProjectCommand(s.verb, s.project)

			assert.True(t, errors.Is(err, s.expectedErr), err)
			assert.Contains(t, out.String(), s.expectedMessage)
			assert.Equal(t, 0, recorder.CountPrefix("docker compose"))
		})
	}
}

func TestRunProjectCommandStopWhenNotUp(t *testing.T) {
	app, recorder, out := newTestApp(t, "redis")

	assert.NoError(t, app.RunProjectCommand("stop", "redis"))

	snapshot, _ := app.Manager.Service("redis")
	assert.Equal(t, status.Stopped, snapshot.Status)
	assert.Contains(t, out.String(), "redis not running")
	assert.Equal(t, 0, recorder.CountPrefix("docker compose"))
}

func TestRunProjectCommandUnknownVerb(t *testing.T) {
	app, _, _ := newTestApp(t, "redis")

	err := app.RunProjectCommand("restart", "redis")

	require.Error(t, err)
	assert.Equal(t, "unknown command restart", err.Error())
}

func TestExpectedStatus(t *testing.T) {
	assert.Equal(t, status.Running, expectedStatus("start", status.Stopped))
	assert.Equal(t, status.Stopped, expectedStatus("stop", status.Running))
	assert.Equal(t, status.Stopped, expectedStatus("toggle", status.Running))
	assert.Equal(t, status.Running, expectedStatus("toggle", status.Error))
}

func TestRunDaemonCommand(t *testing.T) {
	app, recorder, out := newTestApp(t, "redis")
	recorder.On("sudo -S systemctl start docker", commands.FakeResponse{Script: "cat > /dev/null"})

	password := []byte("hunter2")
	err := app.RunDaemonCommand(context.Background(), "start", password)

	assert.NoError(t, err)
	assert.Equal(t, make([]byte, len("hunter2")), password)
	assert.Contains(t, out.String(), "Docker daemon started")
}

func TestRunDaemonCommandUnknownAction(t *testing.T) {
	app, recorder, _ := newTestApp(t, "redis")

	password := []byte("hunter2")
	err := app.RunDaemonCommand(context.Background(), "reboot", password)

	require.Error(t, err)
	assert.Equal(t, "Unknown daemon action reboot, expected start, stop or restart", err.Error())
	assert.Equal(t, make([]byte, len("hunter2")), password)
	assert.Equal(t, 0, recorder.CountPrefix("sudo"))
}

func TestKnownError(t *testing.T) {
	app, _, _ := newTestApp(t)

	message, known := app.KnownError(errors.New("Got permission denied while trying to connect to the Docker daemon socket at unix:///var/run/docker.sock"))
	assert.True(t, known)
	assert.Equal(t, app.Tr.DockerSocketDenied, message)

	_, known = app.KnownError(errors.New("something else"))
	assert.False(t, known)
}
