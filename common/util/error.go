package util

import (
	"fmt"
)

// Local/process-boundary sentinel errors, declared the same way the
// original error.go did: fmt.Errorf package vars, never wrapped types, so
// callers compare with errors.Is rather than a type switch.
var ErrConnectingToManager = fmt.Errorf("could not connect to distant manager; make sure it is running")
var ErrPtyUnavailable = fmt.Errorf("could not acquire a pseudo terminal on this host")
var ErrRawModeUnavailable = fmt.Errorf("could not put the local terminal into raw mode")
var ErrSessionClosed = fmt.Errorf("session closed before the request completed")
