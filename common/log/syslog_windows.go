//go:build windows
// +build windows

package log

import "github.com/op/go-logging"

// Syslog is unsupported on Windows (log/syslog does not build there, and
// go-winio's event log is a different collaborator not wired up here), so
// --syslog falls back to Setup's stderr backend instead of failing outright.
func Syslog(prefix string, level string) (*logging.Logger, error) {
	return Setup(prefix, level, "")
}
