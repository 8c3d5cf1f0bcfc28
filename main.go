package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/go-errors/errors"
	"github.com/integrii/flaggy"
	"github.com/peauc/lazycompose/pkg/app"
	"github.com/peauc/lazycompose/pkg/config"
	"github.com/peauc/lazycompose/pkg/gui"
	"github.com/peauc/lazycompose/pkg/utils"
	"github.com/samber/lo"
)

const DEFAULT_VERSION = "unversioned"

var (
	commit      string
	version     = DEFAULT_VERSION
	date        string
	buildSource = "unknown"

	configFlag    = false
	debuggingFlag = false
	versionFlag   = false
	projectsRoot  = ""

	projectName  = ""
	daemonAction = ""
)

func main() {
	updateBuildInfo()

	flaggy.SetName("lazycompose")
	flaggy.SetDescription("Watch, start and stop the docker compose projects living under one directory")
	flaggy.DefaultParser.AdditionalHelpPrepend = "https://github.com/peauc/lazycompose"

	flaggy.Bool(&configFlag, "c", "config", "Print the current config")
	flaggy.Bool(&debuggingFlag, "d", "debug", "Write a development log to the config directory")
	flaggy.String(&projectsRoot, "p", "projects", "Directory holding one subdirectory per compose project")
	flaggy.Bool(&versionFlag, "v", "version", "Print the version and where the config lives")
	flaggy.DefaultParser.ShowVersionWithVersionFlag = false

	projectCommands := lo.Map([]string{"start", "stop", "toggle"}, func(verb string, _ int) *flaggy.Subcommand {
		subcommand := flaggy.NewSubcommand(verb)
		subcommand.Description = fmt.Sprintf("%s one project and wait for it to settle", verb)
		subcommand.AddPositionalValue(&projectName, "project", 1, true, "Name of the project directory")
		flaggy.AttachSubcommand(subcommand, 1)
		return subcommand
	})

	daemonCommand := flaggy.NewSubcommand("daemon")
	daemonCommand.Description = "Start, stop or restart the docker daemon with sudo, stopping projects first"
	daemonCommand.AddPositionalValue(&daemonAction, "action", 1, true, "start, stop or restart")
	flaggy.AttachSubcommand(daemonCommand, 1)

	flaggy.Parse()

	appConfig, err := config.NewAppConfig("lazycompose", version, commit, date, buildSource, debuggingFlag, projectsRoot)
	if err != nil {
		log.Fatal(err.Error())
	}

	if versionFlag {
		fmt.Printf("%s\nOS: %s\nArch: %s\n", gui.VersionContent(appConfig), runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	if configFlag {
		fmt.Println(gui.ConfigContent(appConfig.UserConfig))
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lazycompose, err := app.NewApp(appConfig)
	if err == nil {
		switch {
		case daemonCommand.Used:
			err = runDaemonCommand(ctx, lazycompose)
		default:
			if subcommand, ok := lo.Find(projectCommands, func(s *flaggy.Subcommand) bool { return s.Used }); ok {
				err = lazycompose.RunProjectCommand(subcommand.Name, projectName)
			} else {
				err = lazycompose.Run(ctx)
			}
		}
	}
	_ = lazycompose.Close()

	if err != nil {
		if lazycompose.Tr == nil {
			log.Fatal(err.Error())
		}
		if errorMessage, known := lazycompose.KnownError(err); known {
			log.Println(errorMessage)
			os.Exit(0)
		}
		if daemonCommand.Used || lo.SomeBy(projectCommands, func(s *flaggy.Subcommand) bool { return s.Used }) {
			// the notifications printed above already say what went wrong
			log.Fatal(err.Error())
		}

		newErr := errors.Wrap(err, 0)
		stackTrace := newErr.ErrorStack()
		lazycompose.Log.Error(stackTrace)

		log.Fatalf("%s\n\n%s", lazycompose.Tr.ErrorOccurred, stackTrace)
	}
}

func runDaemonCommand(ctx context.Context, lazycompose *app.App) error {
	password, err := lazycompose.ReadPassword()
	if err != nil {
		return err
	}
	return lazycompose.RunDaemonCommand(ctx, daemonAction, password)
}

func updateBuildInfo() {
	if version == DEFAULT_VERSION {
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			revision, ok := lo.Find(buildInfo.Settings, func(setting debug.BuildSetting) bool {
				return setting.Key == "vcs.revision"
			})
			if ok {
				commit = revision.Value
				// if lazycompose was built from source we'll show the version as the
				// abbreviated commit hash
				version = utils.SafeTruncate(revision.Value, 7)
			}

			// if version hasn't been set we assume that neither has the date
			time, ok := lo.Find(buildInfo.Settings, func(setting debug.BuildSetting) bool {
				return setting.Key == "vcs.time"
			})
			if ok {
				date = time.Value
			}
		}
	}
}
