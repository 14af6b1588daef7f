//go:build windows

package shell

import (
	"context"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/rpc"
)

// resizePollInterval is how often Windows, which has no SIGWINCH
// equivalent, checks for a console size change.
const resizePollInterval = 250 * time.Millisecond

// watchResize polls the local console size on an interval, since Windows
// has no signal delivered on resize.
func watchResize(ctx context.Context, client *rpc.Client, procID uint32) (stop func()) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(resizePollInterval)
		defer ticker.Stop()

		lastCols, lastRows, _ := term.GetSize(fd)
		for {
			select {
			case <-ticker.C:
				cols, rows, err := term.GetSize(fd)
				if err != nil || (cols == lastCols && rows == lastRows) {
					continue
				}
				lastCols, lastRows = cols, rows
				_, _ = client.Send(ctx, protocol.ProcResizeRequest{
					Id:   procID,
					Size: protocol.PtySize{Rows: uint16(rows), Cols: uint16(cols)},
				})
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}
