package commands

import (
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	cliconfig "github.com/docker/cli/cli/config"
	ddocker "github.com/docker/cli/cli/context/docker"
	ctxstore "github.com/docker/cli/cli/context/store"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/go-errors/errors"
	"github.com/peauc/lazycompose/pkg/config"
	"github.com/peauc/lazycompose/pkg/status"
	"github.com/peauc/lazycompose/pkg/utils"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	dockerHostEnvKey = "DOCKER_HOST"

	composeProjectLabel = "com.docker.compose.project"

	projectStatusFormat = "{{.Names}}\t{{.Status}}"
	batchStatusFormat   = "{{.Names}}\t{{.Status}}\t{{.Label \"" + composeProjectLabel + "\"}}"
	projectLabelFormat  = "{{index .Config.Labels \"" + composeProjectLabel + "\"}}"
	networksFormat      = "{{range $k, $v := .NetworkSettings.Networks}}{{$k}}={{$v.IPAddress}} {{end}}"
	portsFormat         = "{{range $p, $v := .NetworkSettings.Ports}}{{$p}}={{if $v}}{{(index $v 0).HostIp}}:{{(index $v 0).HostPort}}{{else}}internal{{end}} {{end}}"

	pingTimeout = 2 * time.Second
)

// Pinger is the slice of the engine API we need: a liveness check
type Pinger interface {
	Ping(ctx context.Context) (types.Ping, error)
}

// DockerCommand is our main docker interface. Everything except the
// liveness ping goes through the docker CLI, so that what we observe is
// exactly what `docker compose` itself sees.
type DockerCommand struct {
	Log       *logrus.Entry
	OSCommand *OSCommand
	Config    *config.AppConfig
	Client    Pinger

	Closers []io.Closer
}

var _ io.Closer = &DockerCommand{}

// NewDockerCommand creates a DockerCommand struct that wraps the docker client
func NewDockerCommand(log *logrus.Entry, osCommand *OSCommand, config *config.AppConfig) (*DockerCommand, error) {
	dockerHost, err := determineDockerHost()
	if err != nil {
		log.Warnf("could not determine docker host, using %s: %v", defaultDockerHost, err)
		dockerHost = defaultDockerHost
	}

	clientOpts := []client.Opt{
		client.WithTLSClientConfigFromEnv(),
		client.WithAPIVersionNegotiation(),
		client.WithHost(dockerHost),
	}

	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	dockerCommand := &DockerCommand{
		Log:       log,
		OSCommand: osCommand,
		Config:    config,
		Client:    cli,
		Closers:   []io.Closer{cli},
	}

	dockerCommand.setDockerComposeCommand(config)

	return dockerCommand, nil
}

// NewDummyDockerCommand returns a DockerCommand with no engine client, so
// that liveness falls back to `docker info`, for use in tests
func NewDummyDockerCommand(osCommand *OSCommand) *DockerCommand {
	return &DockerCommand{
		Log:       osCommand.Log,
		OSCommand: osCommand,
		Config:    osCommand.Config,
	}
}

func (c *DockerCommand) setDockerComposeCommand(config *config.AppConfig) {
	if config.UserConfig.CommandTemplates.DockerCompose != "docker compose" {
		return
	}

	// it's possible that a user is still using docker-compose, so we'll check if 'docker compose' is available, and if not, we'll fall back to 'docker-compose'
	err := c.OSCommand.RunCommand("docker compose version")
	if err != nil {
		if _, lookErr := exec.LookPath("docker-compose"); lookErr == nil {
			config.UserConfig.CommandTemplates.DockerCompose = "docker-compose"
		}
	}
}

func (c *DockerCommand) Close() error {
	return utils.CloseMany(c.Closers)
}

func (c *DockerCommand) dockerCmd(args ...string) *exec.Cmd {
	template := c.Config.UserConfig.CommandTemplates.Docker
	return c.OSCommand.NewCmd(c.OSCommand.TemplateArgv(template, args...))
}

// DockerCLIAvailable runs `docker --version`
func (c *DockerCommand) DockerCLIAvailable() bool {
	return c.OSCommand.Succeeds(c.dockerCmd("--version"))
}

// ComposeAvailable runs `docker compose version`
func (c *DockerCommand) ComposeAvailable() bool {
	template := c.Config.UserConfig.CommandTemplates.DockerCompose
	return c.OSCommand.Succeeds(c.OSCommand.NewCmd(c.OSCommand.TemplateArgv(template, "version")))
}

// Ping reports whether the engine answers. Without an API client it falls
// back to `docker info`.
func (c *DockerCommand) Ping(ctx context.Context) bool {
	if c.Client == nil {
		return c.OSCommand.Succeeds(c.dockerCmd("info"))
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.Client.Ping(ctx); err != nil {
		c.Log.WithError(err).Debug("docker ping failed")
		return false
	}
	return true
}

// ImageExists runs `docker image inspect <image>`
func (c *DockerCommand) ImageExists(image string) bool {
	return c.OSCommand.Succeeds(c.dockerCmd("image", "inspect", image))
}

// AllImagesPresent reports whether every image in images exists locally.
// An empty list is never considered present.
func (c *DockerCommand) AllImagesPresent(images []string) bool {
	if len(images) == 0 {
		return false
	}
	for _, image := range images {
		if !c.ImageExists(image) {
			return false
		}
	}
	return true
}

// ProjectStatus queries the containers of one project directly
func (c *DockerCommand) ProjectStatus(project string) status.Observation {
	if err := ValidateProjectName(project); err != nil {
		return status.ObservedError
	}

	output, err := c.OSCommand.RunExecutableWithOutput(c.dockerCmd(
		"ps",
		"--filter", "label="+composeProjectLabel+"="+project,
		"--format", projectStatusFormat,
	))
	if err != nil {
		c.Log.WithError(err).Warnf("status query for %s failed", project)
		return status.ObservedError
	}
	return ParseProjectStatus(output)
}

// BatchStatuses observes every project with a single `docker ps` call.
// Invalid names are reported as errors without being put on the command
// line. If the call fails every project is an error.
func (c *DockerCommand) BatchStatuses(projects []string) map[string]status.Observation {
	valid := lo.Filter(projects, func(project string, _ int) bool {
		return ValidateProjectName(project) == nil
	})

	observations := make(map[string]status.Observation, len(projects))
	for _, project := range projects {
		observations[project] = status.ObservedError
	}
	if len(valid) == 0 {
		return observations
	}

	output, err := c.OSCommand.RunExecutableWithOutput(c.dockerCmd("ps", "--format", batchStatusFormat))
	if err != nil {
		c.Log.WithError(err).Warn("batch status query failed")
		return observations
	}

	for project, observation := range ParseBatchStatuses(output, valid) {
		observations[project] = observation
	}
	return observations
}

// InspectField runs `docker inspect --format <template> <container>`. ok is
// false when the command fails or prints nothing.
func (c *DockerCommand) InspectField(container string, template string) (string, bool) {
	if container == "" {
		return "", false
	}
	output, err := c.OSCommand.RunExecutableWithOutput(c.dockerCmd("inspect", "--format", template, container))
	if err != nil {
		return "", false
	}
	value := TemplateValue(output)
	return value, value != ""
}

// ProjectOfContainer reads the compose project label off a container
func (c *DockerCommand) ProjectOfContainer(container string) string {
	project, _ := c.InspectField(container, projectLabelFormat)
	return project
}

// RunningContainers lists the names of the running containers of a project
func (c *DockerCommand) RunningContainers(project string) []string {
	if ValidateProjectName(project) != nil {
		return nil
	}
	output, err := c.OSCommand.RunExecutableWithOutput(c.dockerCmd(
		"ps",
		"--filter", "label="+composeProjectLabel+"="+project,
		"--format", "{{.Names}}",
	))
	if err != nil {
		return nil
	}
	return ParseNames(output)
}

// RuntimeDetails returns the networks and published ports of a container,
// one line each, e.g. "bridge=172.17.0.2" and "6379/tcp=0.0.0.0:6379"
func (c *DockerCommand) RuntimeDetails(container string) (ips string, ports string) {
	ips, ok := c.InspectField(container, networksFormat)
	if !ok {
		ips = "unknown"
	}
	ports, ok = c.InspectField(container, portsFormat)
	if !ok {
		ports = "none"
	}
	return NormalizeRuntimeValue(ips, "pending"), NormalizeRuntimeValue(ports, "none")
}

// determineDockerHost tries to the determine the docker host that we should connect to
// in the following order of decreasing precedence:
//   - value of "DOCKER_HOST" environment variable
//   - host retrieved from the current context (specified via DOCKER_CONTEXT)
//   - "default docker host" for the host operating system, otherwise
func determineDockerHost() (string, error) {
	// If the docker host is explicitly set via the "DOCKER_HOST" environment variable,
	// then its a no-brainer :shrug:
	if os.Getenv(dockerHostEnvKey) != "" {
		return os.Getenv(dockerHostEnvKey), nil
	}

	currentContext := os.Getenv("DOCKER_CONTEXT")
	if currentContext == "" {
		cf, err := cliconfig.Load(cliconfig.Dir())
		if err != nil {
			return "", errors.Wrap(err, 0)
		}
		currentContext = cf.CurrentContext
	}

	// On some systems (windows) `default` is stored in the docker config as the currentContext.
	if currentContext == "" || currentContext == "default" {
		return defaultDockerHost, nil
	}

	storeConfig := ctxstore.NewConfig(
		func() interface{} { return &ddocker.EndpointMeta{} },
		ctxstore.EndpointTypeGetter(ddocker.DockerEndpoint, func() interface{} { return &ddocker.EndpointMeta{} }),
	)

	st := ctxstore.New(cliconfig.ContextStoreDir(), storeConfig)
	md, err := st.GetMetadata(currentContext)
	if err != nil {
		return "", errors.Wrap(err, 0)
	}
	dockerEP, ok := md.Endpoints[ddocker.DockerEndpoint]
	if !ok {
		return defaultDockerHost, nil
	}
	dockerEPMeta, ok := dockerEP.(ddocker.EndpointMeta)
	if !ok {
		return "", errors.Errorf("expected docker.EndpointMeta, got %T", dockerEP)
	}

	if dockerEPMeta.Host != "" {
		return dockerEPMeta.Host, nil
	}

	// A context created with an empty host (`docker context create foo --docker "host="`)
	// means the default host, same as the docker cli.
	return defaultDockerHost, nil
}
