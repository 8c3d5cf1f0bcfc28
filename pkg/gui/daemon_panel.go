package gui

import (
	"strings"

	"github.com/fatih/color"
	"github.com/jesseduffield/gocui"
	"github.com/peauc/lazycompose/pkg/commands"
	"github.com/peauc/lazycompose/pkg/utils"
	"github.com/samber/lo"
)

// daemonMenuActions are the rows of the daemon menu, top to bottom
var daemonMenuActions = []commands.DaemonAction{
	commands.DaemonStart,
	commands.DaemonStop,
	commands.DaemonRestart,
}

func (gui *Gui) daemonMenuLabel(action commands.DaemonAction) string {
	switch action {
	case commands.DaemonStop:
		return gui.Tr.StopDaemon
	case commands.DaemonRestart:
		return gui.Tr.RestartDaemon
	default:
		return gui.Tr.StartDaemon
	}
}

func (gui *Gui) daemonMenuContent(menuIndex int) string {
	return strings.Join(lo.Map(daemonMenuActions, func(action commands.DaemonAction, i int) string {
		if i == menuIndex {
			return utils.ColoredStringDirect("> "+gui.daemonMenuLabel(action), color.New(color.FgGreen, color.Bold))
		}
		return "  " + gui.daemonMenuLabel(action)
	}), "\n")
}

func (gui *Gui) passwordTitle(action commands.DaemonAction) string {
	switch action {
	case commands.DaemonStop:
		return gui.Tr.EnterPasswordToStop
	case commands.DaemonRestart:
		return gui.Tr.EnterPasswordToRestart
	default:
		return gui.Tr.EnterPasswordToStart
	}
}

func (gui *Gui) handleOpenDaemonMenu(g *gocui.Gui, v *gocui.View) error {
	gui.updateState(func(state *guiState) {
		state.popup = daemonMenuPopup
		state.menuIndex = 0
	})
	return nil
}

func (gui *Gui) handleDaemonMenuNext(g *gocui.Gui, v *gocui.View) error {
	gui.updateState(func(state *guiState) {
		state.menuIndex = min(state.menuIndex+1, len(daemonMenuActions)-1)
	})
	return nil
}

func (gui *Gui) handleDaemonMenuPrevious(g *gocui.Gui, v *gocui.View) error {
	gui.updateState(func(state *guiState) {
		state.menuIndex = max(state.menuIndex-1, 0)
	})
	return nil
}

func (gui *Gui) handleCloseDaemonMenu(g *gocui.Gui, v *gocui.View) error {
	gui.updateState(func(state *guiState) {
		state.popup = noPopup
	})
	return nil
}

// handleDaemonMenuPress swaps the menu for the password popup of the
// highlighted action
func (gui *Gui) handleDaemonMenuPress(g *gocui.Gui, v *gocui.View) error {
	gui.updateState(func(state *guiState) {
		state.daemonAction = daemonMenuActions[state.menuIndex]
		if state.password != nil {
			state.password.destroy()
		}
		state.password = newPasswordInput()
		state.popup = passwordPopup
	})
	return nil
}

// passwordEditor replaces gocui's editing in the password popup, so that
// typed runes go to locked memory instead of the view's buffer
func (gui *Gui) passwordEditor(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	matched := true
	gui.updateState(func(state *guiState) {
		if state.password == nil {
			matched = false
			return
		}
		switch {
		case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
			state.password.backspace()
		case key == gocui.KeySpace:
			state.password.add(' ')
		case ch != 0 && mod == gocui.ModNone:
			state.password.add(ch)
		default:
			matched = false
		}
	})
	return matched
}

// handleSubmitPassword hands the password to the daemon action, which moves
// it into its own locked buffer and runs in the background
func (gui *Gui) handleSubmitPassword(g *gocui.Gui, v *gocui.View) error {
	var action commands.DaemonAction
	var password *passwordInput
	gui.updateState(func(state *guiState) {
		action, password = state.daemonAction, state.password
		state.password = nil
		state.popup = noPopup
	})
	if password == nil {
		return nil
	}
	defer password.destroy()

	switch action {
	case commands.DaemonStop:
		gui.Manager.DaemonStop(password.bytes())
	case commands.DaemonRestart:
		gui.Manager.DaemonRestart(password.bytes())
	default:
		gui.Manager.DaemonStart(password.bytes())
	}
	return nil
}

func (gui *Gui) handleCancelPassword(g *gocui.Gui, v *gocui.View) error {
	gui.updateState(func(state *guiState) {
		if state.password != nil {
			state.password.destroy()
			state.password = nil
		}
		state.popup = noPopup
	})
	return nil
}
