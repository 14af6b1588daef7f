//go:build !windows

package shell

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/rpc"
)

// watchResize forwards SIGWINCH as proc_resize requests until ctx is
// canceled, returning a stop function the caller should also invoke on the
// way out.
func watchResize(ctx context.Context, client *rpc.Client, procID uint32) (stop func()) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)

	go func() {
		for {
			select {
			case <-sigCh:
				cols, rows, err := term.GetSize(fd)
				if err != nil {
					continue
				}
				_, _ = client.Send(ctx, protocol.ProcResizeRequest{
					Id:   procID,
					Size: protocol.PtySize{Rows: uint16(rows), Cols: uint16(cols)},
				})
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() { signal.Stop(sigCh) }
}
