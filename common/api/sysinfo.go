package api

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/rpc"
)

func (a *Api) registerInfo(router *rpc.Router) {
	router.Handle(protocol.TypeSystemInfo, a.handleSystemInfo)
	router.Handle(protocol.TypeCapabilities, a.handleCapabilities)
}

func (a *Api) handleSystemInfo(ctx *rpc.Context, req protocol.Message) error {
	cwd, _ := os.Getwd()
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = defaultShell()
	}

	return ctx.Reply(protocol.SystemInfoResponse{
		Family:        osFamily(),
		Os:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		CurrentDir:    cwd,
		MainSeparator: string(filepath.Separator),
		Username:      username,
		Shell:         shell,
	})
}

func osFamily() string {
	if runtime.GOOS == "windows" {
		return "windows"
	}
	return "unix"
}

// capabilities is the fixed set of verbs this build supports, mirroring the
// registrations in Register; handleCapabilities sends it sorted by Kind.
var capabilities = []protocol.Capability{
	{Kind: protocol.TypeReadFile, Description: "read a file as bytes"},
	{Kind: protocol.TypeReadFileText, Description: "read a file as UTF-8 text"},
	{Kind: protocol.TypeWriteFile, Description: "overwrite a file with bytes"},
	{Kind: protocol.TypeWriteFileText, Description: "overwrite a file with UTF-8 text"},
	{Kind: protocol.TypeReadDir, Description: "list a directory's entries"},
	{Kind: protocol.TypeCreateDir, Description: "create a directory"},
	{Kind: protocol.TypeRemove, Description: "remove a file or directory"},
	{Kind: protocol.TypeRename, Description: "rename or move a path"},
	{Kind: protocol.TypeCopy, Description: "copy a file or directory"},
	{Kind: protocol.TypeExists, Description: "check whether a path exists"},
	{Kind: protocol.TypeMetadata, Description: "fetch metadata about a path"},
	{Kind: protocol.TypeWatch, Description: "subscribe to filesystem changes"},
	{Kind: protocol.TypeUnwatch, Description: "cancel a filesystem watch"},
	{Kind: protocol.TypeSearch, Description: "search paths or file contents"},
	{Kind: protocol.TypeSearchCancel, Description: "cancel an in-flight search"},
	{Kind: protocol.TypeProcSpawn, Description: "spawn a process"},
	{Kind: protocol.TypeProcStdin, Description: "write to a spawned process's stdin"},
	{Kind: protocol.TypeProcResize, Description: "resize a spawned process's pty"},
	{Kind: protocol.TypeProcKill, Description: "terminate a spawned process"},
	{Kind: protocol.TypeSystemInfo, Description: "describe the host environment"},
	{Kind: protocol.TypeCapabilities, Description: "enumerate supported verbs"},
}

func (a *Api) handleCapabilities(ctx *rpc.Context, req protocol.Message) error {
	supported := append([]protocol.Capability(nil), capabilities...)
	sort.Slice(supported, func(i, j int) bool { return supported[i].Kind < supported[j].Kind })
	return ctx.Reply(protocol.CapabilitiesResponse{Supported: supported})
}
