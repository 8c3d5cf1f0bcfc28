package commands

import (
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/peauc/lazycompose/pkg/config"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// NewDummyOSCommand creates a new dummy OSCommand for testing
func NewDummyOSCommand() *OSCommand {
	return NewOSCommand(NewDummyLog(), config.NewDummyAppConfig())
}

// NewDummyLog creates a new dummy Log for testing
func NewDummyLog() *logrus.Entry {
	log := logrus.New()
	log.Out = io.Discard
	return log.WithField("test", "test")
}

// FakeResponse is how a faked command behaves when run
type FakeResponse struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Script, when set, is run by sh instead of the fields above
	Script string
}

type fakeRule struct {
	prefix    string
	responses []FakeResponse
	calls     int
}

// CommandRecorder stands in for exec.Command in tests. Every command built
// through it is recorded, and replaced by an `sh -c` process behaving like
// the first registered response whose prefix matches the command line.
type CommandRecorder struct {
	mutex deadlock.Mutex
	rules []*fakeRule
	calls []string
	// OnCall, if set, runs synchronously whenever a command is built
	OnCall func(commandLine string)
}

// NewCommandRecorder returns a recorder where unmatched commands exit zero
// with no output
func NewCommandRecorder() *CommandRecorder {
	return &CommandRecorder{}
}

// On registers responses for commands starting with prefix. With several
// responses, successive calls get successive responses and the last one
// repeats.
func (r *CommandRecorder) On(prefix string, responses ...FakeResponse) *CommandRecorder {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(responses) == 0 {
		responses = []FakeResponse{{}}
	}
	r.rules = append(r.rules, &fakeRule{prefix: prefix, responses: responses})
	return r
}

// Command matches the signature of exec.Command, for OSCommand.SetCommand
func (r *CommandRecorder) Command(name string, args ...string) *exec.Cmd {
	commandLine := strings.Join(append([]string{name}, args...), " ")

	r.mutex.Lock()
	r.calls = append(r.calls, commandLine)
	response := r.responseForLocked(commandLine)
	onCall := r.OnCall
	r.mutex.Unlock()

	if onCall != nil {
		onCall(commandLine)
	}

	if response.Script != "" {
		return exec.Command("sh", "-c", response.Script)
	}
	return exec.Command(
		"sh", "-c", `printf '%s' "$1"; printf '%s' "$2" >&2; exit "$3"`,
		"sh", response.Stdout, response.Stderr, strconv.Itoa(response.ExitCode),
	)
}

func (r *CommandRecorder) responseForLocked(commandLine string) FakeResponse {
	for _, rule := range r.rules {
		if !strings.HasPrefix(commandLine, rule.prefix) {
			continue
		}
		index := rule.calls
		if index >= len(rule.responses) {
			index = len(rule.responses) - 1
		}
		rule.calls++
		return rule.responses[index]
	}
	return FakeResponse{}
}

// Calls returns every command line built so far, in order
func (r *CommandRecorder) Calls() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	calls := make([]string, len(r.calls))
	copy(calls, r.calls)
	return calls
}

// CountPrefix is the number of recorded command lines starting with prefix
func (r *CommandRecorder) CountPrefix(prefix string) int {
	count := 0
	for _, call := range r.Calls() {
		if strings.HasPrefix(call, prefix) {
			count++
		}
	}
	return count
}

// NewRecordedOSCommand returns a dummy OSCommand whose commands all go
// through a fresh recorder
func NewRecordedOSCommand() (*OSCommand, *CommandRecorder) {
	recorder := NewCommandRecorder()
	osCommand := NewDummyOSCommand()
	osCommand.SetCommand(recorder.Command)
	return osCommand, recorder
}
