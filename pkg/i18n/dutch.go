package i18n

func dutchSet() TranslationSet {
	return TranslationSet{
		Welcome:               "Welkom bij lazycompose",
		DockerCLINotFound:     "Docker CLI niet gevonden.",
		DaemonNotRunning:      "Docker daemon draait niet.",
		ProjectBusy:           "%s is bezig, wacht tot de huidige actie klaar is",
		ProjectAlreadyRunning: "%s draait al",
		ProjectNotRunning:     "%s draait niet",
		StartingProject:       "%s wordt gestart",
		StoppingProject:       "%s wordt gestopt",
		DaemonStarted:         "Docker daemon gestart",
		RefreshedStatuses:     "Statussen ververst",
		PasswordPrompt:        "sudo wachtwoord: ",
		StatusTitle:           "Projecten",
		EventsTitle:           "Gebeurtenissen",
		SearchTitle:           "Zoeken",
		DaemonMenuTitle:       "Docker daemon",
		StartDaemon:           "Docker daemon starten",
		StopDaemon:            "Docker daemon stoppen (stopt eerst de projecten)",
		RestartDaemon:         "Docker daemon herstarten (stopt eerst de projecten)",
	}
}
