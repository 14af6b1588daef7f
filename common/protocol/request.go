package protocol

// Request wire discriminants.
const (
	TypeReadFile      = "read_file"
	TypeReadFileText  = "read_file_text"
	TypeWriteFile     = "write_file"
	TypeWriteFileText = "write_file_text"
	TypeReadDir       = "read_dir"
	TypeCreateDir     = "create_dir"
	TypeRemove        = "remove"
	TypeRename        = "rename"
	TypeCopy          = "copy"
	TypeExists        = "exists"
	TypeMetadata      = "metadata"

	TypeWatch   = "watch"
	TypeUnwatch = "unwatch"

	TypeSearch       = "search"
	TypeSearchCancel = "search_cancel"

	TypeProcSpawn   = "proc_spawn"
	TypeProcStdin   = "proc_stdin"
	TypeProcResize  = "proc_resize"
	TypeProcKill    = "proc_kill"

	TypeSystemInfo   = "system_info"
	TypeCapabilities = "capabilities"
)

// PtySize is the terminal dimensions associated with a spawned pseudo
// terminal, or the target of a resize.
type PtySize struct {
	Rows uint16 `json:"rows"`
	Cols uint16 `json:"cols"`
}

// ReadFileRequest reads a file's contents as an opaque blob.
type ReadFileRequest struct {
	Path string `json:"path"`
}

func (ReadFileRequest) MessageType() string { return TypeReadFile }

// ReadFileTextRequest reads a file's contents decoded as UTF-8 text.
type ReadFileTextRequest struct {
	Path string `json:"path"`
}

func (ReadFileTextRequest) MessageType() string { return TypeReadFileText }

// WriteFileRequest overwrites a file with an opaque blob.
type WriteFileRequest struct {
	Path string `json:"path"`
	Data []byte `json:"data"`
}

func (WriteFileRequest) MessageType() string { return TypeWriteFile }

// WriteFileTextRequest overwrites a file with UTF-8 text.
type WriteFileTextRequest struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

func (WriteFileTextRequest) MessageType() string { return TypeWriteFileText }

// ReadDirRequest lists a directory's entries, optionally recursively.
type ReadDirRequest struct {
	Path         string `json:"path"`
	Depth        uint32 `json:"depth"`
	Absolute     bool   `json:"absolute"`
	Canonicalize bool   `json:"canonicalize"`
	IncludeRoot  bool   `json:"include_root"`
}

func (ReadDirRequest) MessageType() string { return TypeReadDir }

// CreateDirRequest creates a directory, optionally with all parents.
type CreateDirRequest struct {
	Path string `json:"path"`
	All  bool   `json:"all"`
}

func (CreateDirRequest) MessageType() string { return TypeCreateDir }

// RemoveRequest deletes a file or directory.
type RemoveRequest struct {
	Path  string `json:"path"`
	Force bool   `json:"force"`
}

func (RemoveRequest) MessageType() string { return TypeRemove }

// RenameRequest moves src to dst.
type RenameRequest struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

func (RenameRequest) MessageType() string { return TypeRename }

// CopyRequest copies src to dst.
type CopyRequest struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

func (CopyRequest) MessageType() string { return TypeCopy }

// ExistsRequest asks whether a path currently exists.
type ExistsRequest struct {
	Path string `json:"path"`
}

func (ExistsRequest) MessageType() string { return TypeExists }

// MetadataRequest asks for a path's metadata.
type MetadataRequest struct {
	Path            string `json:"path"`
	Canonicalize    bool   `json:"canonicalize"`
	ResolveFileType bool   `json:"resolve_file_type"`
}

func (MetadataRequest) MessageType() string { return TypeMetadata }

// WatchRequest subscribes the caller to filesystem change notifications
// under path. The response to the first envelope resolves to Ok or Error;
// on Ok, subsequent Changed envelopes share this request's id as their
// OriginId until Unwatch or session end.
type WatchRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

func (WatchRequest) MessageType() string { return TypeWatch }

// UnwatchRequest cancels a previously-established watch, identified by the
// original Watch request's id.
type UnwatchRequest struct {
	Id string `json:"id"`
}

func (UnwatchRequest) MessageType() string { return TypeUnwatch }

// SearchQuery describes what to search for and where.
type SearchQuery struct {
	// Paths to search under.
	Paths []string `json:"paths"`
	// Target selects whether to match against file paths or file contents;
	// an empty Target matches paths.
	Target  SearchQueryTarget `json:"target"`
	Pattern string            `json:"pattern"`
	Regex   bool              `json:"regex"`
}

// SearchQueryTarget selects what a SearchQuery pattern is matched against.
type SearchQueryTarget string

const (
	SearchTargetPath     SearchQueryTarget = "path"
	SearchTargetContents SearchQueryTarget = "contents"
)

// SearchRequest starts a search subscription; the server assigns an id
// returned in SearchStartedResponse, and all SearchResults/SearchDone
// envelopes for this search carry the request's id as OriginId.
type SearchRequest struct {
	Query SearchQuery `json:"query"`
}

func (SearchRequest) MessageType() string { return TypeSearch }

// SearchCancelRequest stops an in-flight search identified by the
// server-assigned search id from SearchStartedResponse. Per the protocol's
// open question on cancel semantics, this is deliberately
// best-effort: the server may still deliver one more in-flight batch
// before SearchDone. Callers that want "stop after current batch" simply
// stop reading the stream instead of sending this.
type SearchCancelRequest struct {
	Id uint32 `json:"id"`
}

func (SearchCancelRequest) MessageType() string { return TypeSearchCancel }

// Environment is a set of environment variable assignments for a spawned
// process.
type Environment map[string]string

// ProcSpawnRequest spawns a process. If Pty is non-nil, the process is
// attached to a pseudo terminal and stdout/stderr are merged into
// ProcStdout. If Persist is set the process outlives the
// session that spawned it.
type ProcSpawnRequest struct {
	Cmd     string      `json:"cmd"`
	Args    []string    `json:"args"`
	Env     Environment `json:"env"`
	Cwd     string      `json:"cwd,omitempty"`
	Persist bool        `json:"persist"`
	Pty     *PtySize    `json:"pty,omitempty"`
}

func (ProcSpawnRequest) MessageType() string { return TypeProcSpawn }

// ProcStdinRequest writes to the stdin of a previously spawned process,
// identified by the id returned in ProcSpawnedResponse.
type ProcStdinRequest struct {
	Id   uint32 `json:"id"`
	Data []byte `json:"data"`
}

func (ProcStdinRequest) MessageType() string { return TypeProcStdin }

// ProcResizeRequest resizes the pseudo terminal of a spawned process.
type ProcResizeRequest struct {
	Id   uint32  `json:"id"`
	Size PtySize `json:"size"`
}

func (ProcResizeRequest) MessageType() string { return TypeProcResize }

// ProcKillRequest terminates a spawned process.
type ProcKillRequest struct {
	Id uint32 `json:"id"`
}

func (ProcKillRequest) MessageType() string { return TypeProcKill }

// SystemInfoRequest asks the server to describe its host environment.
type SystemInfoRequest struct{}

func (SystemInfoRequest) MessageType() string { return TypeSystemInfo }

// CapabilitiesRequest asks the server which verbs it supports.
type CapabilitiesRequest struct{}

func (CapabilitiesRequest) MessageType() string { return TypeCapabilities }
