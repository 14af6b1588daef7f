package config

import (
	"path/filepath"

	"github.com/distanthq/distant/common/transport"
)

const configFileName = "config.toml"

// UserConfigPath returns the per-user config file LoadMulti checks,
// alongside the per-user socket/pipe distant.transport.UserDir already
// resolves.
func UserConfigPath() (string, error) {
	return transport.UserDirFile(configFileName)
}

// GlobalConfigPath returns the machine-wide config file LoadMulti checks
// before the per-user one, matching config.rs's paths::global::CONFIG_FILE_PATH.
func GlobalConfigPath() string {
	if p := globalConfigDir(); p != "" {
		return filepath.Join(p, configFileName)
	}
	return ""
}
