package protocol

// Response wire discriminants.
const (
	TypeOk           = "ok"
	TypeError        = "error"
	TypeBlob         = "blob"
	TypeText         = "text"
	TypeDirEntries   = "dir_entries"
	TypeMetadataResp = "metadata"
	TypeExistsResp   = "exists"

	TypeChanged = "changed"

	TypeSearchStarted = "search_started"
	TypeSearchResults = "search_results"
	TypeSearchDone    = "search_done"

	TypeProcSpawned = "proc_spawned"
	TypeProcStdout  = "proc_stdout"
	TypeProcStderr  = "proc_stderr"
	TypeProcDone    = "proc_done"

	TypeSystemInfoResp   = "system_info"
	TypeCapabilitiesResp = "capabilities"
)

// OkResponse is an empty acknowledgement, used for requests with no
// interesting payload to return (write_file, remove, rename, copy,
// create_dir, unwatch, and the first response to a successful watch).
type OkResponse struct{}

func (OkResponse) MessageType() string { return TypeOk }

// ErrorKindVerb is the closed taxonomy of verb-level error kinds.
type ErrorKindVerb string

const (
	ErrNotFound         ErrorKindVerb = "not_found"
	ErrPermissionDenied ErrorKindVerb = "permission_denied"
	ErrAlreadyExists    ErrorKindVerb = "already_exists"
	ErrInvalidInput     ErrorKindVerb = "invalid_input"
	ErrIO               ErrorKindVerb = "io"
	ErrUnsupported      ErrorKindVerb = "unsupported"
	ErrTimeout          ErrorKindVerb = "timeout"
	ErrOther            ErrorKindVerb = "other"
)

// ErrorResponse reports a verb-level failure. It never terminates the
// session by itself (contrast with a Fatal AuthError).
type ErrorResponse struct {
	Kind        ErrorKindVerb `json:"kind"`
	Description string        `json:"description"`
}

func (ErrorResponse) MessageType() string { return TypeError }

func (e ErrorResponse) Error() string { return string(e.Kind) + ": " + e.Description }

// BlobResponse carries raw bytes, e.g. the contents of a ReadFileRequest.
type BlobResponse struct {
	Data []byte `json:"data"`
}

func (BlobResponse) MessageType() string { return TypeBlob }

// TextResponse carries UTF-8 text, e.g. the contents of a
// ReadFileTextRequest.
type TextResponse struct {
	Data string `json:"data"`
}

func (TextResponse) MessageType() string { return TypeText }

// FileType distinguishes the kinds of directory entries reported by
// ReadDirRequest and MetadataRequest.
type FileType string

const (
	FileTypeFile    FileType = "file"
	FileTypeDir     FileType = "dir"
	FileTypeSymlink FileType = "symlink"
)

// DirEntry is a single entry of a ReadDirRequest listing.
type DirEntry struct {
	Path  string   `json:"path"`
	Type  FileType `json:"file_type"`
	Depth uint32   `json:"depth"`
}

// DirEntriesResponse lists a directory's contents. Errors is populated
// with per-entry failures encountered while walking (e.g. permission
// denied on a subdirectory) without failing the whole listing.
type DirEntriesResponse struct {
	Entries []DirEntry `json:"entries"`
	Errors  []string   `json:"errors"`
}

func (DirEntriesResponse) MessageType() string { return TypeDirEntries }

// UnixMetadata carries POSIX permission bits, present only when the server
// is running on a Unix-family OS.
type UnixMetadata struct {
	OwnerRead  bool `json:"owner_read"`
	OwnerWrite bool `json:"owner_write"`
	OwnerExec  bool `json:"owner_exec"`
	GroupRead  bool `json:"group_read"`
	GroupWrite bool `json:"group_write"`
	GroupExec  bool `json:"group_exec"`
	OtherRead  bool `json:"other_read"`
	OtherWrite bool `json:"other_write"`
	OtherExec  bool `json:"other_exec"`
}

// MetadataResponse describes a single path.
type MetadataResponse struct {
	CanonicalizedPath string        `json:"canonicalized_path,omitempty"`
	FileType          FileType      `json:"file_type"`
	Len               uint64        `json:"len"`
	Readonly          bool          `json:"readonly"`
	Accessed          int64         `json:"accessed,omitempty"`
	Created           int64         `json:"created,omitempty"`
	Modified          int64         `json:"modified,omitempty"`
	Unix              *UnixMetadata `json:"unix,omitempty"`
}

func (MetadataResponse) MessageType() string { return TypeMetadataResp }

// ExistsResponse answers an ExistsRequest.
type ExistsResponse struct {
	Value bool `json:"value"`
}

func (ExistsResponse) MessageType() string { return TypeExistsResp }

// ChangeKind normalizes filesystem notifier events across platforms.
// Platform quirks, such as an extra parent-directory event some notifiers
// emit for a contained file change, are reported as-is and not filtered
// out.
type ChangeKind string

const (
	ChangeCreate       ChangeKind = "create"
	ChangeRemove       ChangeKind = "remove"
	ChangeAccess       ChangeKind = "access"
	ChangeModifyData   ChangeKind = "modify_data"
	ChangeModifyMeta   ChangeKind = "modify_metadata"
	ChangeRenameFrom   ChangeKind = "rename_from"
	ChangeRenameTo     ChangeKind = "rename_to"
	ChangeOther        ChangeKind = "other"
)

// IsAccessKind reports whether kind is one of the Access* family.
func (k ChangeKind) IsAccessKind() bool { return k == ChangeAccess }

// IsModifyKind reports whether kind is one of the Modify* family.
func (k ChangeKind) IsModifyKind() bool {
	return k == ChangeModifyData || k == ChangeModifyMeta
}

// IsRenameKind reports whether kind is one of the Rename* family.
func (k ChangeKind) IsRenameKind() bool {
	return k == ChangeRenameFrom || k == ChangeRenameTo
}

// ChangedResponse is an unsolicited stream envelope for an active watch
// subscription; its OriginId is the id of the Watch request that
// established the subscription.
type ChangedResponse struct {
	Kind  ChangeKind `json:"kind"`
	Paths []string   `json:"paths"`
}

func (ChangedResponse) MessageType() string { return TypeChanged }

// SearchStartedResponse is the first response to a Search request,
// carrying the server-assigned search id used to correlate
// SearchResults/SearchDone and to cancel.
type SearchStartedResponse struct {
	Id uint32 `json:"id"`
}

func (SearchStartedResponse) MessageType() string { return TypeSearchStarted }

// SearchQueryPathMatch is a path-only search hit.
type SearchQueryPathMatch struct {
	Path string `json:"path"`
}

// SearchQueryContentsMatch is a content search hit within a file.
type SearchQueryContentsMatch struct {
	Path       string `json:"path"`
	LineNumber uint64 `json:"line_number"`
	Lines      string `json:"lines"`
}

// SearchQueryMatch is a tagged union of the two match kinds a search can
// report. Exactly one of Path or Contents is set.
type SearchQueryMatch struct {
	Path     *SearchQueryPathMatch     `json:"path,omitempty"`
	Contents *SearchQueryContentsMatch `json:"contents,omitempty"`
}

// SearchResultsResponse streams a batch of matches for an active search.
// Ordering within a batch is implementation-defined; cross-batch order is
// not guaranteed to be path-sorted.
type SearchResultsResponse struct {
	Id      uint32             `json:"id"`
	Matches []SearchQueryMatch `json:"matches"`
}

func (SearchResultsResponse) MessageType() string { return TypeSearchResults }

// SearchDoneResponse terminates a search subscription.
type SearchDoneResponse struct {
	Id uint32 `json:"id"`
}

func (SearchDoneResponse) MessageType() string { return TypeSearchDone }

// ProcSpawnedResponse is the first response to a successful ProcSpawn,
// carrying the server-assigned process id used to correlate
// stdout/stderr/done and to address stdin/resize/kill requests.
type ProcSpawnedResponse struct {
	Id uint32 `json:"id"`
}

func (ProcSpawnedResponse) MessageType() string { return TypeProcSpawned }

// ProcStdoutResponse streams a chunk of a spawned process's stdout. If the
// process was spawned with a Pty, stderr is merged into this stream
// instead of arriving as ProcStderrResponse.
type ProcStdoutResponse struct {
	Id   uint32 `json:"id"`
	Data []byte `json:"data"`
}

func (ProcStdoutResponse) MessageType() string { return TypeProcStdout }

// ProcStderrResponse streams a chunk of a spawned process's stderr.
type ProcStderrResponse struct {
	Id   uint32 `json:"id"`
	Data []byte `json:"data"`
}

func (ProcStderrResponse) MessageType() string { return TypeProcStderr }

// ProcDoneResponse terminates a spawned process's subscription, reporting
// its exit status. Code is absent when the process was terminated by
// signal rather than exiting normally.
type ProcDoneResponse struct {
	Id      uint32 `json:"id"`
	Success bool   `json:"success"`
	Code    *int32 `json:"code,omitempty"`
}

func (ProcDoneResponse) MessageType() string { return TypeProcDone }

// SystemInfoResponse describes the server's host environment. Family
// drives the shell bridge's shell-selection fallback.
type SystemInfoResponse struct {
	Family        string `json:"family"`
	Os            string `json:"os"`
	Arch          string `json:"arch"`
	CurrentDir    string `json:"current_dir"`
	MainSeparator string `json:"main_separator"`
	Username      string `json:"username"`
	Shell         string `json:"shell"`
}

func (SystemInfoResponse) MessageType() string { return TypeSystemInfoResp }

// Capability describes a single supported verb for CapabilitiesResponse.
type Capability struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// CapabilitiesResponse enumerates the verbs this server build supports, as
// a sorted set.
type CapabilitiesResponse struct {
	Supported []Capability `json:"supported"`
}

func (CapabilitiesResponse) MessageType() string { return TypeCapabilitiesResp }
