//go:build !windows
// +build !windows

package log

import (
	"log/syslog"

	"github.com/op/go-logging"
)

// Syslog redirects prefix's logging to the local syslog daemon at NOTICE
// priority, falling back to Setup's stderr backend if syslog is
// unreachable (e.g. running outside a unix-like init system). Only
// distant-server and distant-manager call this, and only when invoked
// with --syslog; distant-client sets up no logger at all.
func Syslog(prefix string, level string) (*logging.Logger, error) {
	backend, err := logging.NewSyslogBackendPriority(prefix, syslog.LOG_NOTICE)
	if err != nil {
		return Setup(prefix, level, "")
	}
	logging.SetFormatter(syslogFormat)
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(levelFromString(level, logging.INFO), prefix)
	logging.SetBackend(leveled)
	return logging.MustGetLogger(prefix), nil
}
