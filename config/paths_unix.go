//go:build !windows

package config

// globalConfigDir is the machine-wide config directory on Unix-family
// systems.
func globalConfigDir() string { return "/etc/distant" }
