//go:build windows

package config

import "os"

// globalConfigDir is the machine-wide config directory on Windows.
func globalConfigDir() string {
	if dir := os.Getenv("ProgramData"); dir != "" {
		return dir + `\distant`
	}
	return ""
}
