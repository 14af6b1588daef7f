package api

import (
	"errors"
	"os"

	"github.com/distanthq/distant/common/protocol"
)

// classify maps a Go stdlib error onto the closed verb-error taxonomy.
// Unrecognized errors are reported as ErrIO.
func classify(err error) protocol.ErrorKindVerb {
	switch {
	case err == nil:
		return ""
	case os.IsNotExist(err):
		return protocol.ErrNotFound
	case os.IsPermission(err):
		return protocol.ErrPermissionDenied
	case os.IsExist(err):
		return protocol.ErrAlreadyExists
	case errors.Is(err, os.ErrDeadlineExceeded):
		return protocol.ErrTimeout
	default:
		return protocol.ErrIO
	}
}

func errResponse(err error) protocol.ErrorResponse {
	return protocol.ErrorResponse{Kind: classify(err), Description: err.Error()}
}

func invalidInput(description string) protocol.ErrorResponse {
	return protocol.ErrorResponse{Kind: protocol.ErrInvalidInput, Description: description}
}
