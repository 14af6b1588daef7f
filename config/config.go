// Package config loads distant's TOML configuration: the `client`,
// `generate`, `manager`, and `server` sections, with defaults merged the
// way the original's Config::load_multi layers a global config file, a
// user config file, and a baked-in default.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/distanthq/distant/common/transport"
)

// NetworkSettings overrides the local IPC endpoint distant's manager
// listens on and its clients dial, mirroring network.rs's
// NetworkSettings.
type NetworkSettings struct {
	UnixSocket  string `toml:"unix_socket,omitempty"`
	WindowsPipe string `toml:"windows_pipe,omitempty"`
}

// merge fills any zero field of s from other, giving s priority, matching
// NetworkSettings::merge's "these settings take priority" rule.
func (s *NetworkSettings) merge(other NetworkSettings) {
	if s.UnixSocket == "" {
		s.UnixSocket = other.UnixSocket
	}
	if s.WindowsPipe == "" {
		s.WindowsPipe = other.WindowsPipe
	}
}

// ClientConfig configures `distant-client`.
type ClientConfig struct {
	Network            NetworkSettings `toml:"network"`
	LogFile            string          `toml:"log_file,omitempty"`
	LogLevel           string          `toml:"log_level,omitempty"`
	Format             string          `toml:"format,omitempty"`
	ConnectTimeoutSecs uint32          `toml:"connect_timeout_secs,omitempty"`
}

// GenerateConfig holds the `generate` section, which carries only logging
// settings. It is loaded, merged and saved like the other sections; no
// binary in this module has a generate command that reads it.
type GenerateConfig struct {
	LogFile  string `toml:"log_file,omitempty"`
	LogLevel string `toml:"log_level,omitempty"`
}

// ManagerConfig configures `distant-manager`: the
// access control applied to its local socket/pipe. MaxPersistedProcesses
// is read by `distant-server` instead, as the bound on its process table.
type ManagerConfig struct {
	Network               NetworkSettings         `toml:"network"`
	Access                transport.AccessControl `toml:"access,omitempty"`
	LogFile               string                  `toml:"log_file,omitempty"`
	LogLevel              string                  `toml:"log_level,omitempty"`
	MaxPersistedProcesses int                     `toml:"max_persisted_processes,omitempty"`
}

// ServerConfig configures `distant-server`: the verb
// handler host. MaxStreamBuffer is loaded and logged by distant-server
// only; it does not change rpc.DefaultSubscriptionBuffer or any client's
// subscription buffering.
type ServerConfig struct {
	LogFile           string `toml:"log_file,omitempty"`
	LogLevel          string `toml:"log_level,omitempty"`
	MaxStreamBuffer   int    `toml:"max_stream_buffer,omitempty"`
	ShutdownAfterSecs uint32 `toml:"shutdown_after_secs,omitempty"`
}

// Config is the root of distant's TOML configuration, matching the
// section layout of config.rs's top-level Config struct.
type Config struct {
	Client   ClientConfig   `toml:"client"`
	Generate GenerateConfig `toml:"generate"`
	Manager  ManagerConfig  `toml:"manager"`
	Server   ServerConfig   `toml:"server"`
}

// Default returns the baked-in configuration every distant binary falls
// back to when no config file is found, matching config.rs's
// Config::default (sourced from DEFAULT_RAW_STR there; here a literal Go
// value, since there is no embed-from-TOML-then-parse step needed for a
// handful of scalar defaults).
func Default() Config {
	return Config{
		Client: ClientConfig{
			LogLevel: "info",
			Format:   "shell",
		},
		Manager: ManagerConfig{
			Access:                transport.AccessOwner,
			LogLevel:              "info",
			MaxPersistedProcesses: 256,
		},
		Server: ServerConfig{
			LogLevel:        "info",
			MaxStreamBuffer: 256,
		},
	}
}

// Load reads and parses path as a Config, verbatim (no merging with
// defaults), matching config.rs's Config::load behavior for an
// explicitly-supplied custom path.
func Load(path string) (Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}

// LoadMulti implements config.rs's Config::load_multi: a custom path, if
// given, is used by itself; otherwise the global and user config paths are
// merged (user settings winning field-by-field), falling back to Default
// when neither exists.
func LoadMulti(custom string, globalPath string, userPath string) (Config, error) {
	if custom != "" {
		return Load(custom)
	}

	globalExists := fileExists(globalPath)
	userExists := fileExists(userPath)
	if !globalExists && !userExists {
		return Default(), nil
	}

	cfg := Default()
	if globalExists {
		var global Config
		if _, err := toml.DecodeFile(globalPath, &global); err != nil {
			return Config{}, err
		}
		cfg = mergeConfig(cfg, global)
	}
	if userExists {
		var user Config
		if _, err := toml.DecodeFile(userPath, &user); err != nil {
			return Config{}, err
		}
		cfg = mergeConfig(cfg, user)
	}
	return cfg, nil
}

// mergeConfig layers override onto base, field by field, with override
// winning wherever it set a non-zero value.
func mergeConfig(base, override Config) Config {
	base.Client = mergeClient(base.Client, override.Client)
	base.Generate = mergeGenerate(base.Generate, override.Generate)
	base.Manager = mergeManager(base.Manager, override.Manager)
	base.Server = mergeServer(base.Server, override.Server)
	return base
}

func mergeClient(base, override ClientConfig) ClientConfig {
	if override.LogFile != "" {
		base.LogFile = override.LogFile
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	if override.Format != "" {
		base.Format = override.Format
	}
	if override.ConnectTimeoutSecs != 0 {
		base.ConnectTimeoutSecs = override.ConnectTimeoutSecs
	}
	override.Network.merge(base.Network)
	base.Network = override.Network
	return base
}

func mergeGenerate(base, override GenerateConfig) GenerateConfig {
	if override.LogFile != "" {
		base.LogFile = override.LogFile
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	return base
}

func mergeManager(base, override ManagerConfig) ManagerConfig {
	if override.Access != "" {
		base.Access = override.Access
	}
	if override.LogFile != "" {
		base.LogFile = override.LogFile
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	if override.MaxPersistedProcesses != 0 {
		base.MaxPersistedProcesses = override.MaxPersistedProcesses
	}
	override.Network.merge(base.Network)
	base.Network = override.Network
	return base
}

func mergeServer(base, override ServerConfig) ServerConfig {
	if override.LogFile != "" {
		base.LogFile = override.LogFile
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	if override.MaxStreamBuffer != 0 {
		base.MaxStreamBuffer = override.MaxStreamBuffer
	}
	if override.ShutdownAfterSecs != 0 {
		base.ShutdownAfterSecs = override.ShutdownAfterSecs
	}
	return base
}

// Save writes cfg to path as TOML, overwriting any existing file
// (config.rs's Config::save).
func Save(cfg Config, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
