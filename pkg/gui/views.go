package gui

import (
	"fmt"

	"github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
	"github.com/jesseduffield/lazycore/pkg/boxlayout"
	"github.com/peauc/lazycompose/pkg/utils"
)

const (
	projectsViewName   = "projects"
	eventsViewName     = "events"
	mainViewName       = "main"
	optionsViewName    = "options"
	searchViewName     = "search"
	daemonMenuViewName = "daemonMenu"
	passwordViewName   = "password"

	minWidth        = 20
	minHeight       = 12
	maxOptionsLines = 4
	popupWidth      = 60
)

// Views holds every view of the screen once the first layout has run
type Views struct {
	Projects   *gocui.View
	Events     *gocui.View
	Main       *gocui.View
	Options    *gocui.View
	Search     *gocui.View
	DaemonMenu *gocui.View
	Password   *gocui.View
}

// box is a view's frame in gocui coordinates, both corners included
type box struct {
	x0, y0, x1, y1 int
}

// innerHeight is the number of content lines inside the frame
func (b box) innerHeight() int {
	return b.y1 - b.y0 - 1
}

type screenLayout struct {
	projects box
	events   box
	main     box
	options  box
}

// arrange splits the screen top to bottom: the project table sized to its
// rows but never more than half the screen, the events of the selected
// project, its output, and a frameless options bar. Terminals smaller than
// minWidth x minHeight are laid out as if they were that big.
func arrange(width int, height int, projectCount int, optionsLines int) screenLayout {
	width = max(width, minWidth)
	height = max(height, minHeight)
	optionsLines = min(max(optionsLines, 1), maxOptionsLines)

	panesHeight := height - optionsLines
	projectsHeight := min(max(projectCount, 1)+2, max(3, panesHeight/2))
	eventsHeight := max(3, (panesHeight-projectsHeight)/3)

	root := &boxlayout.Box{
		Direction: boxlayout.ROW,
		Children: []*boxlayout.Box{
			{Window: projectsViewName, Size: projectsHeight},
			{Window: eventsViewName, Size: eventsHeight},
			{Window: mainViewName, Weight: 1},
			{Window: optionsViewName, Size: optionsLines},
		},
	}
	dimensions := boxlayout.ArrangeWindows(root, 0, 0, width, height)

	framed := func(name string) box {
		d := dimensions[name]
		return box{d.X0, d.Y0, d.X1, d.Y1}
	}
	// a frameless view still reserves the frame cells around its content
	options := dimensions[optionsViewName]
	return screenLayout{
		projects: framed(projectsViewName),
		events:   framed(eventsViewName),
		main:     framed(mainViewName),
		options:  box{options.X0 - 1, options.Y0 - 1, options.X1 + 1, options.Y1 + 1},
	}
}

// popupBox centres a popup with lines lines of content
func popupBox(width int, height int, lines int) box {
	width = max(width, minWidth)
	height = max(height, minHeight)

	popupW := min(popupWidth, width-2)
	x0 := (width - popupW) / 2
	y0 := max(0, (height-lines-2)/2)
	return box{x0, y0, x0 + popupW, y0 + lines + 1}
}

func (gui *Gui) setView(g *gocui.Gui, name string, b box) (*gocui.View, error) {
	v, err := g.SetView(name, b.x0, b.y0, b.x1, b.y1, 0)
	if err != nil && !errors.Is(err, gocui.ErrUnknownView) {
		return nil, errors.Wrap(err, 0)
	}
	return v, nil
}

func setContent(v *gocui.View, content string) {
	v.Clear()
	fmt.Fprint(v, content)
}

// layout is called by gocui before every redraw. It places the views and
// writes the current state of the fleet into them.
func (gui *Gui) layout(g *gocui.Gui) error {
	width, height := g.Size()
	projects := gui.Manager.Snapshot()
	selected := gui.Manager.Selected()
	options := gui.optionsContent()
	screen := arrange(width, height, len(projects), len(utils.SplitLines(options)))

	var err error
	if gui.Views.Projects, err = gui.setView(g, projectsViewName, screen.projects); err != nil {
		return err
	}
	if gui.Views.Events, err = gui.setView(g, eventsViewName, screen.events); err != nil {
		return err
	}
	if gui.Views.Main, err = gui.setView(g, mainViewName, screen.main); err != nil {
		return err
	}
	if gui.Views.Options, err = gui.setView(g, optionsViewName, screen.options); err != nil {
		return err
	}

	gui.Views.Projects.Title = gui.projectsTitle()
	setContent(gui.Views.Projects, gui.projectsContent(projects, selected, screen.projects.innerHeight()))

	gui.Views.Events.Title, gui.Views.Events.Autoscroll = gui.eventsTitle(selected), true
	setContent(gui.Views.Events, gui.eventsContent(selected))

	mainTitle, mainContent := gui.mainContent(selected)
	gui.Views.Main.Title, gui.Views.Main.Autoscroll = mainTitle, true
	setContent(gui.Views.Main, mainContent)

	gui.Views.Options.Frame = false
	setContent(gui.Views.Options, options)

	return gui.layoutPopups(g, width, height)
}

// layoutPopups shows the popup the state asks for, if any, on top of the
// other views and focused
func (gui *Gui) layoutPopups(g *gocui.Gui, width int, height int) error {
	state := gui.state()

	var err error
	if gui.Views.Search, err = gui.setView(g, searchViewName, popupBox(width, height, 1)); err != nil {
		return err
	}
	if gui.Views.DaemonMenu, err = gui.setView(g, daemonMenuViewName, popupBox(width, height, len(daemonMenuActions))); err != nil {
		return err
	}
	if gui.Views.Password, err = gui.setView(g, passwordViewName, popupBox(width, height, 1)); err != nil {
		return err
	}

	gui.Views.Search.Title = gui.Tr.SearchTitle
	gui.Views.Search.Editable = true
	gui.Views.Search.Editor = gocui.EditorFunc(gui.searchEditor)
	gui.Views.Search.Visible = state.popup == searchPopup
	setContent(gui.Views.Search, state.searchQuery)

	gui.Views.DaemonMenu.Title = gui.Tr.DaemonMenuTitle
	gui.Views.DaemonMenu.Visible = state.popup == daemonMenuPopup
	setContent(gui.Views.DaemonMenu, gui.daemonMenuContent(state.menuIndex))

	gui.Views.Password.Title = gui.passwordTitle(state.daemonAction)
	gui.Views.Password.Editable = true
	gui.Views.Password.Editor = gocui.EditorFunc(gui.passwordEditor)
	gui.Views.Password.Visible = state.popup == passwordPopup
	setContent(gui.Views.Password, state.password.masked())

	focus := projectsViewName
	switch state.popup {
	case searchPopup:
		focus = searchViewName
	case daemonMenuPopup:
		focus = daemonMenuViewName
	case passwordPopup:
		focus = passwordViewName
	}
	if focus != projectsViewName {
		if _, err := g.SetViewOnTop(focus); err != nil {
			return errors.Wrap(err, 0)
		}
	}
	if _, err := g.SetCurrentView(focus); err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}
