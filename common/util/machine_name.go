package util

import (
	"os"
)

// MachineName returns the local hostname, used in the server binary's
// startup log line to identify which host a distant-server instance is
// running on.
func MachineName() (name string) {
	name, _ = os.Hostname()
	return
}
