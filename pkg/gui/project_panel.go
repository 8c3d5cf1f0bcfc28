package gui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/jesseduffield/gocui"
	"github.com/peauc/lazycompose/pkg/gui/presentation"
	"github.com/peauc/lazycompose/pkg/registry"
	"github.com/peauc/lazycompose/pkg/utils"
	"github.com/samber/lo"
)

func (gui *Gui) projectsTitle() string {
	return fmt.Sprintf("%s (%s)", gui.Tr.StatusTitle, gui.Config.ProjectsDir)
}

// projectsContent is the project table, scrolled so the selected row is one
// of the rows visible lines
func (gui *Gui) projectsContent(projects []registry.ServiceSnapshot, selected string, rows int) string {
	if len(projects) == 0 {
		return fmt.Sprintf(gui.Tr.NoProjectsFound, gui.Config.ProjectsDir)
	}

	table := lo.Map(projects, func(project registry.ServiceSnapshot, _ int) []string {
		return presentation.GetProjectDisplayStrings(project, selected)
	})
	lines := utils.SplitLines(utils.RenderTable(table))

	names := lo.Map(projects, func(project registry.ServiceSnapshot, _ int) string {
		return project.Name
	})
	return strings.Join(visibleWindow(lines, lo.IndexOf(names, selected), rows), "\n")
}

// visibleWindow returns at most rows lines, including lines[selected]
func visibleWindow(lines []string, selected int, rows int) []string {
	if rows <= 0 || len(lines) <= rows {
		return lines
	}
	start := min(max(selected-rows+1, 0), len(lines)-rows)
	return lines[start : start+rows]
}

func (gui *Gui) eventsTitle(selected string) string {
	if selected == "" {
		return gui.Tr.EventsTitle
	}
	return fmt.Sprintf("%s: %s", gui.Tr.EventsTitle, selected)
}

func (gui *Gui) eventsContent(selected string) string {
	project, ok := gui.Manager.Service(selected)
	if !ok {
		return ""
	}
	return project.Events
}

// mainContent is the command output of the selected project, or its live
// logs while those are focused
func (gui *Gui) mainContent(selected string) (string, string) {
	project, ok := gui.Manager.Service(selected)
	if !ok {
		return gui.Tr.LogsTitle, gui.Tr.NoProjectSelected
	}

	if gui.state().liveLogsFocused {
		return fmt.Sprintf("%s: %s", gui.Tr.LiveLogsTitle, selected), project.LiveLogs
	}
	return fmt.Sprintf("%s: %s", gui.Tr.LogsTitle, selected), project.Logs
}

// optionsContent is the active notifications, oldest first, followed by the
// key help
func (gui *Gui) optionsContent() string {
	lines := lo.Map(gui.notifications.active(), func(n notification, _ int) string {
		return n.render()
	})
	if len(lines) >= maxOptionsLines {
		lines = lines[len(lines)-maxOptionsLines+1:]
	}
	return strings.Join(append(lines, utils.ColoredString(gui.Tr.KeybindingsHelp, color.FgBlue)), "\n")
}

func (gui *Gui) handleNextProject(g *gocui.Gui, v *gocui.View) error {
	gui.Manager.SelectNext()
	gui.RequestRender()
	return nil
}

func (gui *Gui) handlePreviousProject(g *gocui.Gui, v *gocui.View) error {
	gui.Manager.SelectPrevious()
	gui.RequestRender()
	return nil
}

// the refusals are already on screen as notifications, so the handlers
// below drop the errors

func (gui *Gui) handleStartProject(g *gocui.Gui, v *gocui.View) error {
	_ = gui.Manager.Start(gui.Manager.Selected())
	return nil
}

func (gui *Gui) handleStopProject(g *gocui.Gui, v *gocui.View) error {
	_ = gui.Manager.Stop(gui.Manager.Selected())
	return nil
}

func (gui *Gui) handleToggleProject(g *gocui.Gui, v *gocui.View) error {
	_ = gui.Manager.Toggle(gui.Manager.Selected())
	return nil
}

func (gui *Gui) handleToggleLiveLogs(g *gocui.Gui, v *gocui.View) error {
	var focused bool
	gui.updateState(func(state *guiState) {
		state.liveLogsFocused = !state.liveLogsFocused
		focused = state.liveLogsFocused
	})
	gui.Manager.SetLiveLogsFocused(focused)
	return nil
}

func (gui *Gui) handleRefresh(g *gocui.Gui, v *gocui.View) error {
	gui.Manager.RefreshNow()
	return nil
}

func (gui *Gui) handleQuit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

func (gui *Gui) handleOpenSearch(g *gocui.Gui, v *gocui.View) error {
	gui.updateState(func(state *guiState) {
		state.popup = searchPopup
		state.searchQuery = ""
	})
	return nil
}

func (gui *Gui) handleCloseSearch(g *gocui.Gui, v *gocui.View) error {
	gui.updateState(func(state *guiState) {
		state.popup = noPopup
	})
	return nil
}

// searchEditor takes what is typed in the search popup and selects the first
// project whose name starts with it
func (gui *Gui) searchEditor(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	var query string
	matched := true
	gui.updateState(func(state *guiState) {
		switch {
		case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
			runes := []rune(state.searchQuery)
			if len(runes) > 0 {
				state.searchQuery = string(runes[:len(runes)-1])
			}
		case key == gocui.KeySpace:
			state.searchQuery += " "
		case ch != 0 && mod == gocui.ModNone:
			state.searchQuery += string(ch)
		default:
			matched = false
		}
		query = state.searchQuery
	})

	if query != "" {
		if name, ok := gui.Manager.FindByPrefix(query); ok {
			gui.Manager.Select(name)
		}
	}
	return matched
}
