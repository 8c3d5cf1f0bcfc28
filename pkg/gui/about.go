package gui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jesseduffield/yaml"
	"github.com/peauc/lazycompose/pkg/config"
)

// ConfigContent is the user config merged in with the defaults, as yaml.
// Fields the user left out are included.
func ConfigContent(userConfig *config.UserConfig) string {
	var configBuf bytes.Buffer
	_ = yaml.NewEncoder(&configBuf, yaml.IncludeOmitted).Encode(userConfig)
	return configBuf.String()
}

// VersionContent is what `--version` prints
func VersionContent(appConfig *config.AppConfig) string {
	return strings.Join(
		[]string{
			fmt.Sprintf("Version: %s", appConfig.Version),
			fmt.Sprintf("Date: %s", appConfig.BuildDate),
			fmt.Sprintf("BuildSource: %s", appConfig.BuildSource),
			fmt.Sprintf("Commit: %s", appConfig.Commit),
			fmt.Sprintf("Config: %s", appConfig.ConfigFilename()),
		}, "\n")
}
