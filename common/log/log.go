// Package log configures the op/go-logging backend shared by the
// distant-server and distant-manager binaries, grounded on the top-level logging.go's
// SetupLogging: a stderr backend by default, a syslog backend when
// requested, both behind one formatter and one leveled filter so every
// binary's logs look the same regardless of which one wrote them. Syslog
// support itself lives in syslog_unix.go/syslog_windows.go, mirroring the
// teacher's own logging.go/logging_syslog.go split, since log/syslog does
// not build on Windows.
package log

import (
	"os"

	"github.com/op/go-logging"
)

var stderrFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.6s} %{module} ▶ %{message}`,
)
var syslogFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.6s} ▶ %{message}`,
)

// levelFromString maps config.toml's log_level strings (and an empty
// string, meaning "use the caller's default") to a logging.Level.
func levelFromString(level string, fallback logging.Level) logging.Level {
	switch level {
	case "critical":
		return logging.CRITICAL
	case "error":
		return logging.ERROR
	case "warning", "warn":
		return logging.WARNING
	case "notice":
		return logging.NOTICE
	case "info":
		return logging.INFO
	case "debug", "trace":
		return logging.DEBUG
	default:
		return fallback
	}
}

// Setup returns a *logging.Logger named prefix, logging at level (parsed
// from config.toml's log_level, defaulting to INFO on an unrecognized
// string) to logFile if non-empty, else to os.Stderr. distant-server and
// distant-manager call this once at startup; distant-client sets up no
// logger.
func Setup(prefix string, level string, logFile string) (*logging.Logger, error) {
	var backend logging.Backend
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, err
		}
		backend = logging.NewLogBackend(f, prefix, 0)
		logging.SetFormatter(syslogFormat)
	} else {
		backend = logging.NewLogBackend(os.Stderr, prefix, 0)
		logging.SetFormatter(stderrFormat)
	}

	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(levelFromString(level, logging.INFO), prefix)
	logging.SetBackend(leveled)

	return logging.MustGetLogger(prefix), nil
}
