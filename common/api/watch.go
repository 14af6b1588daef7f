package api

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/rpc"
)

func (a *Api) registerWatch(router *rpc.Router) {
	router.Handle(protocol.TypeWatch, a.handleWatch)
	router.Handle(protocol.TypeUnwatch, a.handleUnwatch)
}

func (a *Api) handleWatch(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.WatchRequest)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ctx.Reply(errResponse(err))
	}

	if err := addWatchTarget(watcher, r.Path, r.Recursive); err != nil {
		watcher.Close()
		return ctx.Reply(errResponse(err))
	}

	if err := ctx.Reply(protocol.OkResponse{}); err != nil {
		watcher.Close()
		return err
	}

	id := ctx.RequestID()
	a.mu.Lock()
	a.watchers[id] = watcher
	a.mu.Unlock()

	go a.pumpWatch(ctx, id, watcher)
	return nil
}

// takeWatcher removes and returns the watcher registered under id, if any.
func (a *Api) takeWatcher(id string) *fsnotify.Watcher {
	a.mu.Lock()
	defer a.mu.Unlock()
	w, ok := a.watchers[id]
	if !ok {
		return nil
	}
	delete(a.watchers, id)
	return w
}

// addWatchTarget registers path (and, if recursive, every subdirectory
// under it) with watcher. fsnotify only watches a directory's immediate
// entries, so recursive watching requires one Add call per directory
//.
func addWatchTarget(watcher *fsnotify.Watcher, path string, recursive bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() || !recursive {
		return watcher.Add(path)
	}
	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
}

func (a *Api) pumpWatch(ctx *rpc.Context, id string, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	defer func() {
		a.mu.Lock()
		delete(a.watchers, id)
		a.mu.Unlock()
	}()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if err := ctx.Push(protocol.ChangedResponse{
				Kind:  changeKind(event.Op),
				Paths: []string{event.Name},
			}); err != nil {
				return
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		case <-ctx.Context().Done():
			return
		}
	}
}

func changeKind(op fsnotify.Op) protocol.ChangeKind {
	switch {
	case op&fsnotify.Create != 0:
		return protocol.ChangeCreate
	case op&fsnotify.Remove != 0:
		return protocol.ChangeRemove
	case op&fsnotify.Rename != 0:
		return protocol.ChangeRenameFrom
	case op&fsnotify.Write != 0:
		return protocol.ChangeModifyData
	case op&fsnotify.Chmod != 0:
		return protocol.ChangeModifyMeta
	default:
		return protocol.ChangeOther
	}
}

func (a *Api) handleUnwatch(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.UnwatchRequest)

	watcher := a.takeWatcher(r.Id)
	if watcher == nil {
		return ctx.Reply(invalidInput("no active watch with id " + r.Id))
	}
	watcher.Close()
	return ctx.Reply(protocol.OkResponse{})
}
