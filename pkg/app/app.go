package app

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/awnumar/memguard"
	"github.com/go-errors/errors"
	"github.com/gookit/color"
	"github.com/peauc/lazycompose/pkg/commands"
	"github.com/peauc/lazycompose/pkg/config"
	"github.com/peauc/lazycompose/pkg/fleet"
	"github.com/peauc/lazycompose/pkg/gui"
	"github.com/peauc/lazycompose/pkg/i18n"
	"github.com/peauc/lazycompose/pkg/log"
	"github.com/peauc/lazycompose/pkg/status"
	"github.com/peauc/lazycompose/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// App struct
type App struct {
	closers []io.Closer

	Config        *config.AppConfig
	Log           *logrus.Entry
	OSCommand     *commands.OSCommand
	DockerCommand *commands.DockerCommand
	Manager       *fleet.Manager
	Gui           *gui.Gui
	Tr            *i18n.TranslationSet

	out      io.Writer
	watching atomic.Bool
}

// NewApp bootstrap a new application
func NewApp(config *config.AppConfig) (*App, error) {
	app := &App{
		closers: []io.Closer{},
		Config:  config,
		out:     os.Stdout,
	}
	var err error
	app.Log = log.NewLogger(config)
	app.Tr, err = i18n.NewTranslationSetFromConfig(app.Log, config.UserConfig.Language)
	if err != nil {
		return app, err
	}
	app.OSCommand = commands.NewOSCommand(app.Log, config)

	app.DockerCommand, err = commands.NewDockerCommand(app.Log, app.OSCommand, config)
	if err != nil {
		return app, err
	}
	app.closers = append(app.closers, app.DockerCommand)

	projects, err := commands.DiscoverProjects(app.OSCommand)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return app, err
		}
		app.Log.WithError(err).Warn("projects directory does not exist")
	}

	app.Gui = gui.NewGui(app.Log, app.Tr, config)
	app.setManager(fleet.NewManager(app.Log, app.Tr, config, app.DockerCommand, projects, app.notify))
	return app, nil
}

func (app *App) setManager(manager *fleet.Manager) {
	app.Manager = manager
	app.Gui.Manager = manager
	manager.OnChange = app.Gui.RequestRender
}

// notify sends notifications to the watch screen while it is up, and prints
// them otherwise
func (app *App) notify(severity fleet.Severity, message string, ttl time.Duration) {
	if app.watching.Load() {
		app.Gui.Notify(severity, message, ttl)
		return
	}
	fmt.Fprintln(app.out, renderNotification(severity, message))
}

func renderNotification(severity fleet.Severity, message string) string {
	switch severity {
	case fleet.Success:
		return color.Green.Sprint(message)
	case fleet.Warning:
		return color.Yellow.Sprint(message)
	case fleet.Error:
		return color.Red.Sprint(message)
	default:
		return message
	}
}

// Run shows the watch screen until ctx is done or the user quits
func (app *App) Run(ctx context.Context) error {
	app.watching.Store(true)
	defer app.watching.Store(false)

	app.Manager.CheckAvailability()
	return app.Gui.Run(ctx)
}

// RunProjectCommand runs start, stop or toggle against one project, waits
// for it to settle, and fails unless the project ended up where the command
// was taking it
func (app *App) RunProjectCommand(verb string, name string) error {
	// the guards need a fresh view of the daemon and the project
	app.Manager.Refresh()

	before, _ := app.Manager.Service(name)
	var err error
	switch verb {
	case "start":
		err = app.Manager.Start(name)
	case "stop":
		err = app.Manager.Stop(name)
	case "toggle":
		err = app.Manager.Toggle(name)
	default:
		return errors.Errorf("unknown command %s", verb)
	}
	if err != nil {
		return err
	}
	app.Manager.Wait()

	after, _ := app.Manager.Service(name)
	if expected := expectedStatus(verb, before.Status); after.Status != expected {
		fmt.Fprint(app.out, after.Logs)
		return errors.New(fmt.Sprintf(app.Tr.ProjectEndedUp, name, after.Status.String()))
	}
	return nil
}

func expectedStatus(verb string, before status.Status) status.Status {
	switch verb {
	case "stop":
		return status.Stopped
	case "toggle":
		if before == status.Running {
			return status.Stopped
		}
	}
	return status.Running
}

// RunDaemonCommand stops the projects if needed, then starts, stops or
// restarts the engine's service. password is wiped before this returns.
func (app *App) RunDaemonCommand(ctx context.Context, action string, password []byte) error {
	daemonAction, ok := commands.ParseDaemonAction(action)
	if !ok {
		memguard.WipeBytes(password)
		return errors.New(fmt.Sprintf(app.Tr.UnknownDaemonAction, action))
	}

	buffer := memguard.NewBufferFromBytes(password)
	defer buffer.Destroy()

	// the drain needs to know what is running
	app.Manager.Refresh()
	return app.Manager.RunDaemonAction(ctx, daemonAction, buffer)
}

// ReadPassword prompts on stderr and reads a line from the terminal without
// echoing it
func (app *App) ReadPassword() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal, cannot read the sudo password")
	}

	fmt.Fprint(os.Stderr, app.Tr.PasswordPrompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return password, nil
}

// Close stops every background process and closes our clients
func (app *App) Close() error {
	if app.Manager != nil {
		app.Manager.Close()
		app.Manager.Wait()
	}
	return utils.CloseMany(app.closers)
}

type errorMapping struct {
	originalError string
	newError      string
}

// KnownError takes an error and tells us whether it's an error that we know about where we can print a nicely formatted version of it rather than panicking with a stack trace
func (app *App) KnownError(err error) (string, bool) {
	errorMessage := err.Error()

	mappings := []errorMapping{
		{
			originalError: "Got permission denied while trying to connect to the Docker daemon socket",
			newError:      app.Tr.DockerSocketDenied,
		},
	}

	for _, mapping := range mappings {
		if strings.Contains(errorMessage, mapping.originalError) {
			return mapping.newError, true
		}
	}

	return "", false
}
