package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/distanthq/distant/common/protocol"
)

func TestPrintJSONIsLineDelimited(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(ModeJSON, &stdout, &stderr)

	env := protocol.Envelope{Id: "a", OriginId: "b", Payload: protocol.ExistsResponse{Value: true}}
	if err := f.Print(env); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(stdout.String(), "\n") {
		t.Fatalf("expected trailing newline, got %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), `"id":"a"`) {
		t.Fatalf("expected envelope id in output, got %q", stdout.String())
	}
}

func TestPrintShellErrorGoesToStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(ModeShell, &stdout, &stderr)

	env := protocol.Envelope{Id: "a", Payload: protocol.ErrorResponse{Kind: protocol.ErrNotFound, Description: "nope"}}
	if err := f.Print(env); err != nil {
		t.Fatal(err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("expected nothing on stdout, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "nope") {
		t.Fatalf("expected error description on stderr, got %q", stderr.String())
	}
}

func TestPrintShellRejectsBatch(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(ModeShell, &stdout, &stderr)

	envs := []protocol.Envelope{
		{Id: "a", Payload: protocol.OkResponse{}},
		{Id: "b", Payload: protocol.OkResponse{}},
	}
	err := f.PrintBatch(envs)
	if err != ErrBatchUnsupported {
		t.Fatalf("expected ErrBatchUnsupported, got %v", err)
	}
}

func TestSearchResultsGroupByPathNoBlankLineForPathOnly(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(ModeShell, &stdout, &stderr)

	env := protocol.Envelope{Id: "a", Payload: protocol.SearchResultsResponse{
		Id: 1,
		Matches: []protocol.SearchQueryMatch{
			{Path: &protocol.SearchQueryPathMatch{Path: "/a"}},
			{Path: &protocol.SearchQueryPathMatch{Path: "/b"}},
		},
	}}
	if err := f.Print(env); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(stdout.String(), "\n\n") {
		t.Fatalf("expected no blank line for path-only matches, got %q", stdout.String())
	}
}

func TestSearchResultsGroupByPathBlankLineForContentMatches(t *testing.T) {
	var stdout, stderr bytes.Buffer
	f := New(ModeShell, &stdout, &stderr)

	first := protocol.Envelope{Id: "a", Payload: protocol.SearchResultsResponse{
		Id: 1,
		Matches: []protocol.SearchQueryMatch{
			{Contents: &protocol.SearchQueryContentsMatch{Path: "/a", LineNumber: 1, Lines: "hello"}},
		},
	}}
	second := protocol.Envelope{Id: "a", Payload: protocol.SearchResultsResponse{
		Id: 1,
		Matches: []protocol.SearchQueryMatch{
			{Contents: &protocol.SearchQueryContentsMatch{Path: "/b", LineNumber: 2, Lines: "world"}},
		},
	}}
	if err := f.Print(first); err != nil {
		t.Fatal(err)
	}
	if err := f.Print(second); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "\n\n/b\n") {
		t.Fatalf("expected blank line separating groups, got %q", stdout.String())
	}
}
