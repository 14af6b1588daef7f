// Package format implements the output formatter: the
// external collaborator that turns a decoded Response into bytes for one
// of {stdout, stderr, stdout_line, stderr_line, none}. It is grounded
// directly on the original CLI's common/format.rs for field ordering and
// the search-grouping rule, and on color.go for the colorized error/status
// helpers fatih/color provides.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/distanthq/distant/common/protocol"
)

// Mode selects how a Formatter renders a Response.
type Mode string

const (
	// ModeJSON serializes the full Envelope losslessly, one frame per
	// line, suitable for a machine reader that wants to replay it.
	ModeJSON Mode = "json"
	// ModeShell renders a human-readable form per response variant.
	ModeShell Mode = "shell"
)

// ErrBatchUnsupported is returned by PrintBatch in ModeShell for any batch
// other than exactly one envelope.
var ErrBatchUnsupported = protocol.ErrorResponse{
	Kind:        protocol.ErrInvalidInput,
	Description: "shell output format does not support batch responses",
}

// Formatter renders Envelopes to Stdout/Stderr. The only mutable state it
// holds across calls is which path was last printed during a search, used
// to group contents matches by file the way the original's
// FormatterState.last_searched_path does.
type Formatter struct {
	Mode   Mode
	Stdout io.Writer
	Stderr io.Writer

	lastSearchedPath string
	haveLastSearched bool
}

// New returns a Formatter writing to stdout/stderr in the given mode.
func New(mode Mode, stdout, stderr io.Writer) *Formatter {
	return &Formatter{Mode: mode, Stdout: stdout, Stderr: stderr}
}

// Print renders one Envelope. It never buffers indefinitely: every
// non-line write is followed by an explicit flush-equivalent (a direct
// Write call has no internal buffering to flush), accommodating peers
// that don't terminate their own output with a newline.
func (f *Formatter) Print(env protocol.Envelope) error {
	if f.Mode == ModeJSON {
		body, err := json.Marshal(env)
		if err != nil {
			return err
		}
		return f.writeLine(f.Stdout, body)
	}
	return f.printShell(env.Payload)
}

func (f *Formatter) writeLine(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write([]byte("\n"))
	return err
}

// PrintBatch renders a batch of envelopes, e.g. multiple responses
// produced by a single request against several hosts. ModeJSON emits one
// line per envelope; ModeShell rejects batches outright, matching the
// original's "Shell does not support batch responses" behavior.
func (f *Formatter) PrintBatch(envs []protocol.Envelope) error {
	if f.Mode == ModeShell && len(envs) != 1 {
		return ErrBatchUnsupported
	}
	for _, env := range envs {
		if err := f.Print(env); err != nil {
			return err
		}
	}
	return nil
}

func (f *Formatter) printShell(payload protocol.Message) error {
	switch r := payload.(type) {
	case protocol.OkResponse:
		return nil
	case protocol.ErrorResponse:
		return f.writeLine(f.Stderr, []byte(colorRed(r.Description)))
	case protocol.BlobResponse:
		return f.writeLine(f.Stdout, r.Data)
	case protocol.TextResponse:
		return f.writeLine(f.Stdout, []byte(r.Data))
	case protocol.DirEntriesResponse:
		return f.printDirEntries(r)
	case protocol.ChangedResponse:
		return f.writeLine(f.Stdout, []byte(formatChanged(r)))
	case protocol.ExistsResponse:
		if r.Value {
			return f.writeLine(f.Stdout, []byte("true"))
		}
		return f.writeLine(f.Stdout, []byte("false"))
	case protocol.MetadataResponse:
		return f.writeLine(f.Stdout, []byte(formatMetadata(r)))
	case protocol.SearchStartedResponse:
		return f.writeLine(f.Stdout, []byte(fmt.Sprintf("Query %d started", r.Id)))
	case protocol.SearchDoneResponse:
		return nil
	case protocol.SearchResultsResponse:
		return f.printSearchResults(r)
	case protocol.ProcSpawnedResponse:
		return nil
	case protocol.ProcStdoutResponse:
		_, err := f.Stdout.Write(r.Data)
		return err
	case protocol.ProcStderrResponse:
		_, err := f.Stderr.Write(r.Data)
		return err
	case protocol.ProcDoneResponse:
		return f.printProcDone(r)
	case protocol.SystemInfoResponse:
		return f.writeLine(f.Stdout, []byte(formatSystemInfo(r)))
	case protocol.CapabilitiesResponse:
		return f.printCapabilities(r)
	default:
		return fmt.Errorf("format: unsupported response payload %T for shell output", payload)
	}
}

func colorRed(s string) string {
	red := color.New(color.FgHiRed)
	red.EnableColor()
	return red.SprintFunc()(s)
}

func (f *Formatter) printDirEntries(r protocol.DirEntriesResponse) error {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	for _, entry := range r.Entries {
		marker := ""
		switch entry.Type {
		case protocol.FileTypeDir:
			marker = "<DIR>"
		case protocol.FileTypeSymlink:
			marker = "<SYMLINK>"
		}
		fmt.Fprintf(tw, "%s\t%s\n", marker, entry.Path)
	}
	for _, errDesc := range r.Errors {
		fmt.Fprintf(tw, "%s\t%s\n", "<ERROR>", errDesc)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := f.Stdout.Write(buf.Bytes())
	return err
}

func formatChanged(r protocol.ChangedResponse) string {
	var header string
	switch {
	case r.Kind == protocol.ChangeCreate:
		header = "Following paths were created:"
	case r.Kind == protocol.ChangeRemove:
		header = "Following paths were removed:"
	case r.Kind.IsAccessKind():
		header = "Following paths were accessed:"
	case r.Kind.IsModifyKind():
		header = "Following paths were modified:"
	case r.Kind.IsRenameKind():
		header = "Following paths were renamed:"
	default:
		header = "Following paths were affected:"
	}
	out := header
	for _, p := range r.Paths {
		out += "\n* " + p
	}
	return out
}

func formatMetadata(r protocol.MetadataResponse) string {
	var b bytes.Buffer
	if r.CanonicalizedPath != "" {
		fmt.Fprintf(&b, "Canonicalized Path: %s\n", r.CanonicalizedPath)
	}
	fmt.Fprintf(&b, "Type: %s\n", r.FileType)
	fmt.Fprintf(&b, "Len: %d\n", r.Len)
	fmt.Fprintf(&b, "Readonly: %t\n", r.Readonly)
	fmt.Fprintf(&b, "Created: %d\n", r.Created)
	fmt.Fprintf(&b, "Last Accessed: %d\n", r.Accessed)
	fmt.Fprintf(&b, "Last Modified: %d", r.Modified)
	if r.Unix != nil {
		u := r.Unix
		fmt.Fprintf(&b, "\nOwner Read: %t\nOwner Write: %t\nOwner Exec: %t\n", u.OwnerRead, u.OwnerWrite, u.OwnerExec)
		fmt.Fprintf(&b, "Group Read: %t\nGroup Write: %t\nGroup Exec: %t\n", u.GroupRead, u.GroupWrite, u.GroupExec)
		fmt.Fprintf(&b, "Other Read: %t\nOther Write: %t\nOther Exec: %t", u.OtherRead, u.OtherWrite, u.OtherExec)
	}
	return b.String()
}

// printSearchResults groups matches by path, separating groups with a
// blank line only when reporting content matches, never for pure path
// matches.
func (f *Formatter) printSearchResults(r protocol.SearchResultsResponse) error {
	type group struct {
		path  string
		lines []string
	}
	order := []string{}
	byPath := map[string]*group{}
	isTargetingPaths := false

	for _, m := range r.Matches {
		switch {
		case m.Path != nil:
			isTargetingPaths = true
			if _, ok := byPath[m.Path.Path]; !ok {
				byPath[m.Path.Path] = &group{path: m.Path.Path}
				order = append(order, m.Path.Path)
			}
		case m.Contents != nil:
			g, ok := byPath[m.Contents.Path]
			if !ok {
				g = &group{path: m.Contents.Path}
				byPath[m.Contents.Path] = g
				order = append(order, m.Contents.Path)
			}
			g.lines = append(g.lines, fmt.Sprintf("%d:%s", m.Contents.LineNumber, m.Contents.Lines))
		}
	}

	var out bytes.Buffer
	for _, path := range order {
		g := byPath[path]
		if f.haveLastSearched && f.lastSearchedPath != path && !isTargetingPaths {
			out.WriteString("\n")
		}
		if !f.haveLastSearched || f.lastSearchedPath != path {
			out.WriteString(path)
			out.WriteString("\n")
		}
		for _, line := range g.lines {
			out.WriteString(line)
			out.WriteString("\n")
		}
		f.lastSearchedPath = path
		f.haveLastSearched = true
	}

	if out.Len() == 0 {
		return nil
	}
	_, err := f.Stdout.Write(out.Bytes())
	return err
}

func (f *Formatter) printProcDone(r protocol.ProcDoneResponse) error {
	if r.Success {
		return nil
	}
	if r.Code != nil {
		return f.writeLine(f.Stderr, []byte(fmt.Sprintf("Proc %d failed with code %d", r.Id, *r.Code)))
	}
	return f.writeLine(f.Stderr, []byte(fmt.Sprintf("Proc %d failed", r.Id)))
}

func formatSystemInfo(r protocol.SystemInfoResponse) string {
	return fmt.Sprintf(
		"Family: %s\nOperating System: %s\nArch: %s\nCwd: %s\nPath Sep: %s\nUsername: %s\nShell: %s",
		r.Family, r.Os, r.Arch, r.CurrentDir, r.MainSeparator, r.Username, r.Shell,
	)
}

func (f *Formatter) printCapabilities(r protocol.CapabilitiesResponse) error {
	supported := append([]protocol.Capability(nil), r.Supported...)
	sort.Slice(supported, func(i, j int) bool { return supported[i].Kind < supported[j].Kind })

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	for _, cap := range supported {
		fmt.Fprintf(tw, "%s\t%s\n", cap.Kind, cap.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return f.writeLine(f.Stdout, buf.Bytes())
}
