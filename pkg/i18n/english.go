package i18n

// TranslationSet is a set of localised strings for a given language. Entries
// with a %s or %d take the project name, a count or an error message.
type TranslationSet struct {
	Welcome                 string
	DockerCLINotFound       string
	DockerComposeNotFound   string
	DaemonNotRunning        string
	DaemonServiceNotRunning string
	DaemonNotResponding     string
	InvalidProjectName      string
	UnknownProject          string
	ProjectBusy             string
	ProjectAlreadyRunning   string
	ProjectNotRunning       string
	StartingProject         string
	StoppingProject         string
	ProjectStarted          string
	ProjectStopped          string
	ProjectStartFailed      string
	ProjectStopFailed       string
	EnterPasswordToStart    string
	EnterPasswordToStop     string
	EnterPasswordToRestart  string
	DaemonStarted           string
	DaemonStopped           string
	DaemonRestarted         string
	DaemonActionFailed      string
	DaemonActionTimedOut    string
	DrainedBeforeStop       string
	DrainedBeforeRestart    string
	DrainFailed             string
	RefreshedStatuses       string
	SkippingPull            string
	PullOutputHeader        string
	UpOutputHeader          string
	DownOutputHeader        string
	PullFailed              string
	UpFailed                string
	DownFailed              string
	UpNotConfirmed          string
	NoProjectsFound         string
	PasswordPrompt          string
	StatusTitle             string
	UnknownDaemonAction     string
	EventsTitle             string
	LogsTitle               string
	LiveLogsTitle           string
	SearchTitle             string
	KeybindingsHelp         string
	NoProjectSelected       string
	ProjectEndedUp          string
	ErrorOccurred           string
	DockerSocketDenied      string
	DaemonMenuTitle         string
	StartDaemon             string
	StopDaemon              string
	RestartDaemon           string
}

func englishSet() TranslationSet {
	return TranslationSet{
		Welcome:                 "Welcome to lazycompose",
		DockerCLINotFound:       "Docker CLI not found.",
		DockerComposeNotFound:   "Docker Compose not found. Projects may not work.",
		DaemonNotRunning:        "Docker daemon not running.",
		DaemonServiceNotRunning: "Cannot %s project: Docker service not running",
		DaemonNotResponding:     "Cannot %s project: Docker daemon not responding",
		InvalidProjectName:      "Invalid project name: %s",
		UnknownProject:          "Unknown project: %s",
		ProjectBusy:             "%s is busy, wait for the current action to finish",
		ProjectAlreadyRunning:   "%s already running",
		ProjectNotRunning:       "%s not running",
		StartingProject:         "Starting %s",
		StoppingProject:         "Stopping %s",
		ProjectStarted:          "%s is running",
		ProjectStopped:          "%s stopped",
		ProjectStartFailed:      "Failed to start %s, see its logs",
		ProjectStopFailed:       "Failed to stop %s, see its logs",
		EnterPasswordToStart:    "Enter sudo password to start Docker daemon",
		EnterPasswordToStop:     "Enter sudo password to stop Docker daemon",
		EnterPasswordToRestart:  "Enter sudo password to restart Docker daemon",
		DaemonStarted:           "Docker daemon started",
		DaemonStopped:           "Docker daemon stopped (projects stopped first)",
		DaemonRestarted:         "Docker daemon restarted (projects stopped first)",
		DaemonActionFailed:      "Failed to %s Docker daemon: %s",
		DaemonActionTimedOut:    "Timed out waiting for Docker daemon to %s",
		DrainedBeforeStop:       "Stopped %d project(s) before stopping daemon",
		DrainedBeforeRestart:    "Stopped %d project(s) before restart",
		DrainFailed:             "Failed to stop projects: %s",
		RefreshedStatuses:       "Refreshed statuses",
		SkippingPull:            "All images already present, skipping pull.",
		PullOutputHeader:        "Pull output:",
		UpOutputHeader:          "Up output:",
		DownOutputHeader:        "Down output:",
		PullFailed:              "Pull failed: %s",
		UpFailed:                "Up failed: %s",
		DownFailed:              "Down failed: %s",
		UpNotConfirmed:          "Up finished but %s is not running",
		NoProjectsFound:         "No compose projects found in %s",
		PasswordPrompt:          "sudo password: ",
		StatusTitle:             "Projects",
		UnknownDaemonAction:     "Unknown daemon action %s, expected start, stop or restart",
		EventsTitle:             "Events",
		LogsTitle:               "Logs",
		LiveLogsTitle:           "Live logs",
		SearchTitle:             "Search",
		KeybindingsHelp:         "j/k: select  enter: toggle  s: start  x: stop  l: live logs  /: search  d: daemon  r: refresh  q: quit",
		NoProjectSelected:       "No project selected",
		ProjectEndedUp:          "%s ended up %s",
		ErrorOccurred:           "An error occurred! Please create an issue at https://github.com/peauc/lazycompose/issues",
		DockerSocketDenied:      "Can't access docker socket at: unix:///var/run/docker.sock\nRun lazycompose as root or read https://docs.docker.com/install/linux/linux-postinstall/",
		DaemonMenuTitle:         "Docker daemon",
		StartDaemon:             "Start Docker daemon",
		StopDaemon:              "Stop Docker daemon (stops projects first)",
		RestartDaemon:           "Restart Docker daemon (stops projects first)",
	}
}
