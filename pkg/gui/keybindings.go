package gui

import (
	"github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

// Binding maps a key to a handler. The keypress is only handled if the given
// view has focus, or handled globally if the view is ""
type Binding struct {
	ViewName string
	Handler  func(*gocui.Gui, *gocui.View) error
	Key      interface{} // gocui.Key or rune
}

// GetInitialKeybindings lists every key the screen reacts to
func (gui *Gui) GetInitialKeybindings() []*Binding {
	return []*Binding{
		{ViewName: "", Key: gocui.KeyCtrlC, Handler: gui.handleQuit},
		{ViewName: projectsViewName, Key: 'q', Handler: gui.handleQuit},
		{ViewName: projectsViewName, Key: 'j', Handler: gui.handleNextProject},
		{ViewName: projectsViewName, Key: gocui.KeyArrowDown, Handler: gui.handleNextProject},
		{ViewName: projectsViewName, Key: 'k', Handler: gui.handlePreviousProject},
		{ViewName: projectsViewName, Key: gocui.KeyArrowUp, Handler: gui.handlePreviousProject},
		{ViewName: projectsViewName, Key: 's', Handler: gui.handleStartProject},
		{ViewName: projectsViewName, Key: 'x', Handler: gui.handleStopProject},
		{ViewName: projectsViewName, Key: gocui.KeyEnter, Handler: gui.handleToggleProject},
		{ViewName: projectsViewName, Key: gocui.KeySpace, Handler: gui.handleToggleProject},
		{ViewName: projectsViewName, Key: 'l', Handler: gui.handleToggleLiveLogs},
		{ViewName: projectsViewName, Key: 'r', Handler: gui.handleRefresh},
		{ViewName: projectsViewName, Key: '/', Handler: gui.handleOpenSearch},
		{ViewName: projectsViewName, Key: 'd', Handler: gui.handleOpenDaemonMenu},
		{ViewName: searchViewName, Key: gocui.KeyEnter, Handler: gui.handleCloseSearch},
		{ViewName: searchViewName, Key: gocui.KeyEsc, Handler: gui.handleCloseSearch},
		{ViewName: daemonMenuViewName, Key: 'j', Handler: gui.handleDaemonMenuNext},
		{ViewName: daemonMenuViewName, Key: gocui.KeyArrowDown, Handler: gui.handleDaemonMenuNext},
		{ViewName: daemonMenuViewName, Key: 'k', Handler: gui.handleDaemonMenuPrevious},
		{ViewName: daemonMenuViewName, Key: gocui.KeyArrowUp, Handler: gui.handleDaemonMenuPrevious},
		{ViewName: daemonMenuViewName, Key: gocui.KeyEnter, Handler: gui.handleDaemonMenuPress},
		{ViewName: daemonMenuViewName, Key: gocui.KeyEsc, Handler: gui.handleCloseDaemonMenu},
		{ViewName: daemonMenuViewName, Key: 'q', Handler: gui.handleCloseDaemonMenu},
		{ViewName: passwordViewName, Key: gocui.KeyEnter, Handler: gui.handleSubmitPassword},
		{ViewName: passwordViewName, Key: gocui.KeyEsc, Handler: gui.handleCancelPassword},
	}
}

func (gui *Gui) keybindings(g *gocui.Gui) error {
	for _, binding := range gui.GetInitialKeybindings() {
		if err := g.SetKeybinding(binding.ViewName, binding.Key, gocui.ModNone, binding.Handler); err != nil {
			return errors.Wrap(err, 0)
		}
	}
	return nil
}
