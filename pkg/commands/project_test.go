package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const redisCompose = `services:
  cache:
    image: redis:7
    ports:
      - "6379:6379"
  replica:
    image: redis:7
  ui:
    image: rediscommander/redis-commander
`

const buildCompose = "\xef\xbb\xbfservices:\n  app:\n    build: .\n  db:\n    image: postgres:16\n"

func writeProject(t *testing.T, root string, name string, file string, content string) {
	t.Helper()
	dir := filepath.Join(root, name)
	assert.NoError(t, os.MkdirAll(dir, 0o755))
	if file != "" {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
	}
}

func newProjectsOSCommand(t *testing.T) (*OSCommand, *CommandRecorder, string) {
	root := t.TempDir()
	osCommand, recorder := NewRecordedOSCommand()
	osCommand.Config.ProjectsDir = root
	return osCommand, recorder, root
}

func TestDiscoverProjects(t *testing.T) {
	osCommand, _, root := newProjectsOSCommand(t)
	writeProject(t, root, "redis", "docker-compose.yml", redisCompose)
	writeProject(t, root, "Adminer", "docker-compose.yml", "services: {}\n")
	writeProject(t, root, "mysql", "docker-compose.yml", "services: {}\n")
	writeProject(t, root, "notes", "", "")
	writeProject(t, root, "other", "compose.yaml", "services: {}\n")
	assert.NoError(t, os.WriteFile(filepath.Join(root, "docker-compose.yml"), []byte(""), 0o644))

	projects, err := DiscoverProjects(osCommand)
	assert.NoError(t, err)

	names := []string{}
	for _, project := range projects {
		names = append(names, project.Name)
	}
	assert.Equal(t, []string{"Adminer", "mysql", "redis"}, names)
	assert.Equal(t, filepath.Join(root, "redis"), projects[2].Path)
}

func TestDiscoverProjectsMissingRoot(t *testing.T) {
	osCommand, _, root := newProjectsOSCommand(t)
	osCommand.Config.ProjectsDir = filepath.Join(root, "missing")

	_, err := DiscoverProjects(osCommand)
	assert.Error(t, err)
}

func TestComposeCommands(t *testing.T) {
	osCommand, recorder, root := newProjectsOSCommand(t)
	project := NewComposeProject(osCommand, "redis")

	type scenario struct {
		testName     string
		build        func() string
		expectedCall string
	}

	scenarios := []scenario{
		{"pull", func() string { return project.PullCmd().Dir }, "docker compose pull"},
		{"up", func() string { return project.UpCmd().Dir }, "docker compose up -d"},
		{"down", func() string { return project.DownCmd().Dir }, "docker compose down"},
		{"ps", func() string { return project.PsCmd().Dir }, "docker compose ps"},
		{"logs", func() string { return project.LogsFollowCmd().Dir }, "docker compose logs -f --tail=100"},
	}

	for _, s := range scenarios {
		t.Run(s.testName, func(t *testing.T) {
			before := len(recorder.Calls())
			dir := s.build()
			calls := recorder.Calls()
			assert.Equal(t, filepath.Join(root, "redis"), dir)
			assert.Equal(t, before+1, len(calls))
			assert.Equal(t, s.expectedCall, calls[len(calls)-1])
		})
	}
}

func TestComposeCommandsUseTemplate(t *testing.T) {
	osCommand, recorder, _ := newProjectsOSCommand(t)
	osCommand.Config.UserConfig.CommandTemplates.DockerCompose = "docker-compose -f base.yml"

	NewComposeProject(osCommand, "redis").DownCmd()

	assert.Equal(t, []string{"docker-compose -f base.yml down"}, recorder.Calls())
}

func TestImages(t *testing.T) {
	osCommand, _, root := newProjectsOSCommand(t)
	writeProject(t, root, "redis", "docker-compose.yml", redisCompose)
	writeProject(t, root, "app", "docker-compose.yml", buildCompose)
	writeProject(t, root, "broken", "docker-compose.yml", "services: [\n")

	images, complete, err := NewComposeProject(osCommand, "redis").Images()
	assert.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, []string{"redis:7", "rediscommander/redis-commander"}, images)

	images, complete, err = NewComposeProject(osCommand, "app").Images()
	assert.NoError(t, err)
	assert.False(t, complete)
	assert.Equal(t, []string{"postgres:16"}, images)

	_, _, err = NewComposeProject(osCommand, "broken").Images()
	assert.Error(t, err)

	_, _, err = NewComposeProject(osCommand, "missing").Images()
	assert.Error(t, err)
}

func TestServiceNames(t *testing.T) {
	osCommand, _, root := newProjectsOSCommand(t)
	writeProject(t, root, "redis", "docker-compose.yml", redisCompose)

	names, err := NewComposeProject(osCommand, "redis").ServiceNames()
	assert.NoError(t, err)
	assert.Equal(t, []string{"cache", "replica", "ui"}, names)
}

func TestValidateProjectName(t *testing.T) {
	for _, name := range []string{"redis", "my-app_2", "Adminer"} {
		assert.NoError(t, ValidateProjectName(name), name)
	}
	for _, name := range []string{"", "rm -rf", "../etc", "a;b", "naïve", "a/b", "$(id)"} {
		assert.ErrorIs(t, ValidateProjectName(name), ErrInvalidProjectName, name)
	}
}
