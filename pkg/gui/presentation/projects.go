package presentation

import (
	"github.com/fatih/color"
	"github.com/peauc/lazycompose/pkg/registry"
	"github.com/peauc/lazycompose/pkg/status"
	"github.com/peauc/lazycompose/pkg/utils"
)

const maxProgressWidth = 24

func GetProjectDisplayStrings(project registry.ServiceSnapshot, selectedProjectName string) []string {
	statusIcon := GetStatusIcon(project.Status)

	// Highlight the project name if it's the selected project
	projectName := project.Name
	if selectedProjectName != "" && project.Name == selectedProjectName {
		projectName = utils.ColoredStringDirect(project.Name, color.New(color.FgGreen, color.Bold))
	}

	progress := ""
	if project.Status == status.Pulling && project.HasProgress {
		progress = utils.TruncateWithEllipsis(project.PullProgress, maxProgressWidth)
	}

	return []string{
		statusIcon,
		projectName,
		utils.ColoredString(project.Status.String(), GetStatusColor(project.Status)),
		progress,
	}
}

func GetStatusIcon(s status.Status) string {
	var icon string

	switch s {
	case status.Running:
		icon = "●"
	case status.Stopped:
		icon = "○"
	case status.Pulling, status.Starting, status.Stopping:
		icon = "◐"
	case status.Error:
		icon = "✗"
	case status.DaemonNotRunning:
		icon = "○"
	default:
		icon = "?"
	}

	return utils.ColoredString(icon, GetStatusColor(s))
}

func GetStatusColor(s status.Status) color.Attribute {
	switch s {
	case status.Running:
		return color.FgGreen
	case status.Stopped:
		return color.FgYellow
	case status.Pulling, status.Starting, status.Stopping:
		return color.FgCyan
	case status.Error, status.DaemonNotRunning:
		return color.FgRed
	default:
		return color.FgWhite
	}
}
