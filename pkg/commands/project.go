package commands

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
	"github.com/goccy/go-yaml"
	"github.com/samber/lo"
	"github.com/spkg/bom"
)

// ErrInvalidProjectName is returned for names we refuse to put on a command line
var ErrInvalidProjectName = errors.New("invalid project name")

// ComposeProject is one compose project living in its own directory. It
// builds the compose commands for that project; it does not run them.
type ComposeProject struct {
	Name        string
	Path        string
	ComposeFile string

	OSCommand *OSCommand
}

// NewComposeProject returns the handle for the project called name under
// the configured projects directory
func NewComposeProject(osCommand *OSCommand, name string) *ComposeProject {
	userConfig := osCommand.Config.UserConfig
	return &ComposeProject{
		Name:        name,
		Path:        osCommand.Config.ProjectDir(name),
		ComposeFile: userConfig.ComposeFile,
		OSCommand:   osCommand,
	}
}

// ValidateProjectName only lets through names made of ASCII letters,
// digits, '-' and '_'
func ValidateProjectName(name string) error {
	if name == "" {
		return ErrInvalidProjectName
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return ErrInvalidProjectName
		}
	}
	return nil
}

// DiscoverProjects returns a handle for every immediate subdirectory of the
// projects directory that holds a compose file, sorted by name ignoring case
func DiscoverProjects(osCommand *OSCommand) ([]*ComposeProject, error) {
	root := osCommand.Config.ProjectsDir
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.WrapPrefix(err, "reading "+root, 0)
	}

	composeFile := osCommand.Config.UserConfig.ComposeFile
	projects := []*ComposeProject{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, entry.Name(), composeFile)); err != nil {
			continue
		}
		projects = append(projects, NewComposeProject(osCommand, entry.Name()))
	}

	sort.SliceStable(projects, func(i, j int) bool {
		return strings.ToLower(projects[i].Name) < strings.ToLower(projects[j].Name)
	})

	return projects, nil
}

func (p *ComposeProject) composeCmd(args ...string) *exec.Cmd {
	template := p.OSCommand.Config.UserConfig.CommandTemplates.DockerCompose
	cmd := p.OSCommand.NewCmd(p.OSCommand.TemplateArgv(template, args...))
	cmd.Dir = p.Path
	return cmd
}

// PullCmd is `docker compose pull`
func (p *ComposeProject) PullCmd() *exec.Cmd {
	return p.composeCmd("pull")
}

// UpCmd is `docker compose up -d`
func (p *ComposeProject) UpCmd() *exec.Cmd {
	return p.composeCmd("up", "-d")
}

// DownCmd is `docker compose down`
func (p *ComposeProject) DownCmd() *exec.Cmd {
	return p.composeCmd("down")
}

// PsCmd is `docker compose ps`
func (p *ComposeProject) PsCmd() *exec.Cmd {
	return p.composeCmd("ps")
}

// LogsFollowCmd is `docker compose logs -f --tail=N`
func (p *ComposeProject) LogsFollowCmd() *exec.Cmd {
	tail := p.OSCommand.Config.UserConfig.Logs.FollowTail
	return p.composeCmd("logs", "-f", "--tail="+strconv.Itoa(tail))
}

// Ps returns the output of `docker compose ps`
func (p *ComposeProject) Ps() (string, error) {
	return p.OSCommand.RunExecutableWithOutput(p.PsCmd())
}

type composeDefinition struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	Image string      `yaml:"image"`
	Build interface{} `yaml:"build"`
}

// Images returns the image of every service in the compose file, sorted.
// complete is false when some service has no image of its own (it is
// built locally), in which case the list cannot tell us whether a pull is
// needed.
func (p *ComposeProject) Images() (images []string, complete bool, err error) {
	content, err := os.ReadFile(filepath.Join(p.Path, p.ComposeFile))
	if err != nil {
		return nil, false, errors.Wrap(err, 0)
	}

	var definition composeDefinition
	if err := yaml.Unmarshal(bom.Clean(content), &definition); err != nil {
		return nil, false, errors.WrapPrefix(err, p.ComposeFile, 0)
	}

	complete = len(definition.Services) > 0
	for _, service := range definition.Services {
		if strings.TrimSpace(service.Image) == "" {
			complete = false
			continue
		}
		images = append(images, strings.TrimSpace(service.Image))
	}
	images = lo.Uniq(images)
	sort.Strings(images)

	return images, complete, nil
}

// ServiceNames returns the services declared in the compose file, sorted
func (p *ComposeProject) ServiceNames() ([]string, error) {
	content, err := os.ReadFile(filepath.Join(p.Path, p.ComposeFile))
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	var definition composeDefinition
	if err := yaml.Unmarshal(bom.Clean(content), &definition); err != nil {
		return nil, errors.WrapPrefix(err, p.ComposeFile, 0)
	}

	names := lo.Keys(definition.Services)
	sort.Strings(names)
	return names, nil
}
