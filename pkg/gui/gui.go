// Package gui is the watch screen: a live table of every project plus the
// events and output of the selected one, redrawn whenever the fleet changes.
package gui

import (
	"context"
	"time"

	throttle "github.com/boz/go-throttle"
	"github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
	"github.com/peauc/lazycompose/pkg/commands"
	"github.com/peauc/lazycompose/pkg/config"
	"github.com/peauc/lazycompose/pkg/fleet"
	"github.com/peauc/lazycompose/pkg/i18n"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

const (
	renderInterval = 50 * time.Millisecond
	redrawInterval = time.Second
)

// Gui wraps the gocui Gui object which handles rendering and events
type Gui struct {
	g       *gocui.Gui
	Log     *logrus.Entry
	Tr      *i18n.TranslationSet
	Config  *config.AppConfig
	Manager *fleet.Manager
	Views   Views

	notifications *notificationList

	stateMutex deadlock.Mutex
	State      guiState

	trigger func()
}

type popupKind int

const (
	noPopup popupKind = iota
	searchPopup
	daemonMenuPopup
	passwordPopup
)

// guiState is what the screen shows on top of the fleet itself
type guiState struct {
	liveLogsFocused bool
	popup           popupKind
	searchQuery     string
	menuIndex       int
	daemonAction    commands.DaemonAction
	password        *passwordInput
}

// NewGui returns a gui for the terminal. Set Manager, and point its OnChange
// at RequestRender, before calling Run.
func NewGui(log *logrus.Entry, tr *i18n.TranslationSet, config *config.AppConfig) *Gui {
	return &Gui{
		Log:           log,
		Tr:            tr,
		Config:        config,
		notifications: newNotificationList(),
		trigger:       func() {},
	}
}

// Notify shows message for ttl. It has the shape of a fleet.Notifier.
func (gui *Gui) Notify(severity fleet.Severity, message string, ttl time.Duration) {
	gui.notifications.add(severity, message, ttl)
	gui.RequestRender()
}

// RequestRender schedules a redraw. Bursts of requests are coalesced, and
// requests made while Run isn't running are dropped.
func (gui *Gui) RequestRender() {
	gui.stateMutex.Lock()
	trigger := gui.trigger
	gui.stateMutex.Unlock()
	trigger()
}

// Run shows the screen until ctx is done or the user quits. It runs the
// manager's reconciliation loop for as long as it is up.
func (gui *Gui) Run(ctx context.Context) error {
	g, err := gocui.NewGui(gocui.NewGuiOpts{
		OutputMode: gocui.OutputTrue,
	})
	if err != nil {
		return errors.Wrap(err, 0)
	}
	defer g.Close()

	gui.g = g
	g.SetManagerFunc(gui.layout)

	if err := gui.keybindings(g); err != nil {
		return err
	}

	managerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go gui.Manager.Run(managerCtx)

	// gocui redraws after every Update, which runs the layout again
	render := throttle.ThrottleFunc(renderInterval, true, func() {
		g.Update(func(*gocui.Gui) error { return nil })
	})
	gui.setTrigger(render.Trigger)
	defer func() {
		gui.setTrigger(func() {})
		render.Stop()
	}()

	done := make(chan struct{})
	defer close(done)
	go gui.tick(ctx, done, render.Trigger)

	err = g.MainLoop()
	if err == nil || errors.Is(err, gocui.ErrQuit) {
		return nil
	}
	return errors.Wrap(err, 0)
}

// tick redraws once a second, so notifications expire on screen, and quits
// the main loop when ctx is done
func (gui *Gui) tick(ctx context.Context, done <-chan struct{}, render func()) {
	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			gui.g.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
			return
		case <-ticker.C:
			render()
		}
	}
}

func (gui *Gui) setTrigger(trigger func()) {
	gui.stateMutex.Lock()
	defer gui.stateMutex.Unlock()

	gui.trigger = trigger
}

// state returns a copy of the screen state
func (gui *Gui) state() guiState {
	gui.stateMutex.Lock()
	defer gui.stateMutex.Unlock()

	return gui.State
}

func (gui *Gui) updateState(f func(state *guiState)) {
	gui.stateMutex.Lock()
	f(&gui.State)
	gui.stateMutex.Unlock()

	gui.RequestRender()
}
