// Package api implements the server-side verb handlers:
// filesystem operations, filesystem watching, search, process spawn and
// control, and the two introspection verbs (system_info, capabilities).
// Each handler is registered against an rpc.Router under its wire type.
package api

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/op/go-logging"

	"github.com/distanthq/distant/common/persist"
	"github.com/distanthq/distant/common/rpc"
)

// Api holds the state shared across verb handlers on one server: the
// active filesystem watchers (keyed by the Watch request's id, so a
// follow-up Unwatch can find them), in-flight searches, and the
// spawned-process table. It is
// constructed once per server binary and shared across every accepted
// connection's rpc.Router.Serve call, so a process spawned with Persist on
// one connection is still reachable by id after that connection ends
//.
type Api struct {
	log *logging.Logger

	mu       sync.Mutex
	watchers map[string]*fsnotify.Watcher
	searches map[uint32]*search
	nextSearchID uint32

	procs     *persist.Store
	nextProcID uint32
}

// New constructs an Api with its process table bounded to maxPersisted
// entries.
func New(log *logging.Logger, maxPersisted int) (*Api, error) {
	procs, err := persist.New(maxPersisted)
	if err != nil {
		return nil, err
	}
	return &Api{
		log:      log,
		watchers: map[string]*fsnotify.Watcher{},
		searches: map[uint32]*search{},
		procs:    procs,
	}, nil
}

// Register wires every verb handler this package implements into router.
func (a *Api) Register(router *rpc.Router) {
	a.registerFS(router)
	a.registerWatch(router)
	a.registerSearch(router)
	a.registerProc(router)
	a.registerInfo(router)
}
