// Package config handles all the user-configuration. The fields here are
// all in PascalCase but in your actual config.yml they'll be in camelCase.
// You can view the default config with `lazycompose --config`.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/OpenPeeDeeP/xdg"
	"github.com/go-errors/errors"
	"github.com/imdario/mergo"
	"github.com/jesseduffield/yaml"
	"github.com/spkg/bom"
)

// UserConfig holds all of the user-configurable options
type UserConfig struct {
	// ProjectsRoot is the directory whose immediate subdirectories are the
	// compose projects we manage. Relative paths are resolved against the
	// directory lazycompose was started in.
	ProjectsRoot string `yaml:"projectsRoot,omitempty"`

	// ComposeFile is the file a subdirectory must contain to count as a project
	ComposeFile string `yaml:"composeFile,omitempty"`

	// Language is the language the notifications are shown in. "auto" picks
	// it up from the environment.
	Language string `yaml:"language,omitempty"`

	CommandTemplates CommandTemplatesConfig `yaml:"commandTemplates,omitempty"`

	Daemon DaemonConfig `yaml:"daemon,omitempty"`

	Refresh RefreshConfig `yaml:"refresh,omitempty"`

	Logs LogsConfig `yaml:"logs,omitempty"`
}

// CommandTemplatesConfig determines which binaries we shell out to
type CommandTemplatesConfig struct {
	// Docker is the docker CLI
	Docker string `yaml:"docker,omitempty"`

	// DockerCompose is for your docker-compose command. You may want to
	// combine a few files together e.g.
	// `docker compose -f docker-compose.yml -f docker-compose.development.yml`
	DockerCompose string `yaml:"dockerCompose,omitempty"`

	// Sudo must read the password from stdin
	Sudo string `yaml:"sudo,omitempty"`

	Systemctl string `yaml:"systemctl,omitempty"`
}

// DaemonConfig describes how the container engine's control service is managed
type DaemonConfig struct {
	ServiceUnit string   `yaml:"serviceUnit,omitempty"`
	StartUnits  []string `yaml:"startUnits,omitempty"`
	StopUnits   []string `yaml:"stopUnits,omitempty"`

	// PollInterval and PollAttempts bound how long we wait for the service
	// to reach the requested state after a start/stop/restart.
	PollInterval time.Duration `yaml:"pollInterval,omitempty"`
	PollAttempts int           `yaml:"pollAttempts,omitempty"`

	// SkipServiceCheck treats the control service as always active, for
	// hosts where the engine isn't managed by systemd (e.g. Docker Desktop).
	SkipServiceCheck bool `yaml:"skipServiceCheck,omitempty"`
}

// RefreshConfig determines how often we poll the engine
type RefreshConfig struct {
	// Tick is how often a reconciliation pass runs
	Tick time.Duration `yaml:"tick,omitempty"`

	// StatusCooldown is the longest we go without a batch status query when
	// nothing is in flight
	StatusCooldown time.Duration `yaml:"statusCooldown,omitempty"`

	// DaemonCooldown is how long a daemon liveness result is trusted
	DaemonCooldown time.Duration `yaml:"daemonCooldown,omitempty"`

	// EventRetryDelay is how long we wait before reconnecting to the event stream
	EventRetryDelay time.Duration `yaml:"eventRetryDelay,omitempty"`
}

// LogsConfig determines how much output we keep around
type LogsConfig struct {
	// MaxLines caps each per-project buffer (events, command output, live logs)
	MaxLines int `yaml:"maxLines,omitempty"`

	// FollowTail is how many existing lines `logs -f` starts with
	FollowTail int `yaml:"followTail,omitempty"`
}

// GetDefaultConfig returns the application default configuration
func GetDefaultConfig() UserConfig {
	return UserConfig{
		ProjectsRoot: "containers",
		ComposeFile:  "docker-compose.yml",
		Language:     "auto",
		CommandTemplates: CommandTemplatesConfig{
			Docker:        "docker",
			DockerCompose: "docker compose",
			Sudo:          "sudo -S",
			Systemctl:     "systemctl",
		},
		Daemon: DaemonConfig{
			ServiceUnit:  "docker.service",
			StartUnits:   []string{"docker"},
			StopUnits:    []string{"docker.service", "docker.socket"},
			PollInterval: 500 * time.Millisecond,
			PollAttempts: 20,
		},
		Refresh: RefreshConfig{
			Tick:            time.Second,
			StatusCooldown:  5 * time.Second,
			DaemonCooldown:  3 * time.Second,
			EventRetryDelay: time.Second,
		},
		Logs: LogsConfig{
			MaxLines:   2000,
			FollowTail: 100,
		},
	}
}

// AppConfig contains the base configuration fields required for lazycompose.
type AppConfig struct {
	Debug       bool   `long:"debug" env:"DEBUG" default:"false"`
	Version     string `long:"version" env:"VERSION" default:"unversioned"`
	Commit      string `long:"commit" env:"COMMIT"`
	BuildDate   string `long:"build-date" env:"BUILD_DATE"`
	Name        string `long:"name" env:"NAME" default:"lazycompose"`
	BuildSource string `long:"build-source" env:"BUILD_SOURCE" default:""`
	UserConfig  *UserConfig
	ConfigDir   string
	ProjectsDir string
}

// NewAppConfig makes a new app config
func NewAppConfig(name, version, commit, date string, buildSource string, debuggingFlag bool, projectsRoot string) (*AppConfig, error) {
	configDir, err := findOrCreateConfigDir(name)
	if err != nil {
		return nil, err
	}

	userConfig, err := loadUserConfigWithDefaults(configDir)
	if err != nil {
		return nil, err
	}

	if projectsRoot != "" {
		userConfig.ProjectsRoot = projectsRoot
	}

	projectsDir, err := filepath.Abs(userConfig.ProjectsRoot)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	appConfig := &AppConfig{
		Name:        name,
		Version:     version,
		Commit:      commit,
		BuildDate:   date,
		Debug:       debuggingFlag || os.Getenv("DEBUG") == "TRUE",
		BuildSource: buildSource,
		UserConfig:  userConfig,
		ConfigDir:   configDir,
		ProjectsDir: projectsDir,
	}

	return appConfig, nil
}

// NewDummyAppConfig returns an app config with the defaults and no config
// dir, for use in tests
func NewDummyAppConfig() *AppConfig {
	userConfig := GetDefaultConfig()
	return &AppConfig{
		Name:        "lazycompose",
		Version:     "unversioned",
		UserConfig:  &userConfig,
		ProjectsDir: "containers",
	}
}

func configDirForVendor(vendor string, projectName string) string {
	envConfigDir := os.Getenv("CONFIG_DIR")
	if envConfigDir != "" {
		return envConfigDir
	}
	configDirs := xdg.New(vendor, projectName)
	return configDirs.ConfigHome()
}

func configDir(projectName string) string {
	return configDirForVendor("peauc", projectName)
}

func findOrCreateConfigDir(projectName string) (string, error) {
	folder := configDir(projectName)

	err := os.MkdirAll(folder, 0o755)
	if err != nil {
		return "", errors.Wrap(err, 0)
	}

	return folder, nil
}

func loadUserConfigWithDefaults(configDir string) (*UserConfig, error) {
	return loadUserConfig(configDir, GetDefaultConfig())
}

func loadUserConfig(configDir string, base UserConfig) (*UserConfig, error) {
	fileName := filepath.Join(configDir, "config.yml")

	if _, err := os.Stat(fileName); err != nil {
		if os.IsNotExist(err) {
			if _, err := os.Create(fileName); err != nil {
				if os.IsPermission(err) {
					// apparently when people have read-only permissions they
					// prefer us to fail silently
					return &base, nil
				}
				return nil, errors.Wrap(err, 0)
			}
		} else {
			return nil, errors.Wrap(err, 0)
		}
	}

	content, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return parseUserConfig(content, base)
}

// parseUserConfig decodes content and fills every field the user left out
// from base
func parseUserConfig(content []byte, base UserConfig) (*UserConfig, error) {
	var userConfig UserConfig
	if err := yaml.Unmarshal(bom.Clean(content), &userConfig); err != nil {
		return nil, errors.WrapPrefix(err, "invalid config.yml", 0)
	}

	if err := mergo.Merge(&userConfig, base); err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return &userConfig, nil
}

// ConfigFilename returns the filename of the current config file
func (c *AppConfig) ConfigFilename() string {
	return filepath.Join(c.ConfigDir, "config.yml")
}

// ProjectDir returns the working directory of a named project
func (c *AppConfig) ProjectDir(name string) string {
	return filepath.Join(c.ProjectsDir, name)
}
