package api

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/rpc"
)

type search struct {
	cancel     chan struct{}
	cancelOnce sync.Once
}

// requestCancel closes s.cancel at most once, guarding against a second
// SearchCancelRequest racing runSearch's own removeSearch/cleanup for the
// same id (a double close would otherwise panic).
func (s *search) requestCancel() {
	s.cancelOnce.Do(func() { close(s.cancel) })
}

// batchSize bounds how many matches accumulate before a SearchResults
// envelope is flushed, keeping individual frames a reasonable size for
// both small and enormous result sets.
const batchSize = 64

func (a *Api) registerSearch(router *rpc.Router) {
	router.Handle(protocol.TypeSearch, a.handleSearch)
	router.Handle(protocol.TypeSearchCancel, a.handleSearchCancel)
}

func (a *Api) handleSearch(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.SearchRequest)

	matcher, err := newMatcher(r.Query.Pattern, r.Query.Regex)
	if err != nil {
		return ctx.Reply(invalidInput(err.Error()))
	}

	id := atomic.AddUint32(&a.nextSearchID, 1)
	s := &search{cancel: make(chan struct{})}
	a.mu.Lock()
	a.searches[id] = s
	a.mu.Unlock()

	if err := ctx.Reply(protocol.SearchStartedResponse{Id: id}); err != nil {
		a.removeSearch(id)
		return err
	}

	go a.runSearch(ctx, id, s, r.Query, matcher)
	return nil
}

func (a *Api) removeSearch(id uint32) {
	a.mu.Lock()
	delete(a.searches, id)
	a.mu.Unlock()
}

type matcher struct {
	re      *regexp.Regexp
	literal string
}

func newMatcher(pattern string, isRegex bool) (*matcher, error) {
	if !isRegex {
		return &matcher{literal: pattern}, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &matcher{re: re}, nil
}

func (m *matcher) match(s string) bool {
	if m.re != nil {
		return m.re.MatchString(s)
	}
	return strings.Contains(s, m.literal)
}

func (a *Api) runSearch(ctx *rpc.Context, id uint32, s *search, query protocol.SearchQuery, m *matcher) {
	defer a.removeSearch(id)
	defer func() { _ = ctx.Push(protocol.SearchDoneResponse{Id: id}) }()

	var batch []protocol.SearchQueryMatch
	flush := func() {
		if len(batch) == 0 {
			return
		}
		_ = ctx.Push(protocol.SearchResultsResponse{Id: id, Matches: batch})
		batch = nil
	}

	for _, root := range query.Paths {
		done := false
		filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			select {
			case <-s.cancel:
				done = true
				return filepath.SkipAll
			case <-ctx.Context().Done():
				done = true
				return filepath.SkipAll
			default:
			}
			if err != nil || d.IsDir() {
				return nil
			}

			if query.Target == protocol.SearchTargetPath || query.Target == "" {
				if m.match(path) {
					batch = append(batch, protocol.SearchQueryMatch{Path: &protocol.SearchQueryPathMatch{Path: path}})
				}
			}
			if query.Target == protocol.SearchTargetContents {
				searchFileContents(path, m, &batch)
			}
			if len(batch) >= batchSize {
				flush()
			}
			return nil
		})
		if done {
			break
		}
	}
	flush()
}

func searchFileContents(path string, m *matcher, batch *[]protocol.SearchQueryMatch) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := uint64(0)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if m.match(line) {
			*batch = append(*batch, protocol.SearchQueryMatch{
				Contents: &protocol.SearchQueryContentsMatch{Path: path, LineNumber: lineNo, Lines: line},
			})
		}
	}
}

func (a *Api) handleSearchCancel(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.SearchCancelRequest)

	a.mu.Lock()
	s, ok := a.searches[r.Id]
	a.mu.Unlock()
	if !ok {
		return ctx.Reply(invalidInput("no active search with that id"))
	}
	s.requestCancel()
	return ctx.Reply(protocol.OkResponse{})
}
