package api

import (
	"io"
	"os"
	"os/exec"
	"sync/atomic"

	"github.com/creack/pty"

	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/rpc"
)

// process tracks one spawned child, whether or not it was spawned with a
// pseudo terminal, so ProcStdin/ProcResize/ProcKill can address it by id
//.
type process struct {
	cmd     *exec.Cmd
	pty     *os.File // non-nil only when spawned with Pty
	stdin   io.WriteCloser
	persist bool
}

func (a *Api) registerProc(router *rpc.Router) {
	router.Handle(protocol.TypeProcSpawn, a.handleProcSpawn)
	router.Handle(protocol.TypeProcStdin, a.handleProcStdin)
	router.Handle(protocol.TypeProcResize, a.handleProcResize)
	router.Handle(protocol.TypeProcKill, a.handleProcKill)
}

func (a *Api) handleProcSpawn(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.ProcSpawnRequest)

	cmd := exec.Command(r.Cmd, r.Args...)
	if r.Cwd != "" {
		cmd.Dir = r.Cwd
	}
	if len(r.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range r.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	proc := &process{cmd: cmd, persist: r.Persist}
	id := atomic.AddUint32(&a.nextProcID, 1)

	var stdout, stderr io.Reader
	if r.Pty != nil {
		ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: r.Pty.Rows, Cols: r.Pty.Cols})
		if err != nil {
			return ctx.Reply(errResponse(err))
		}
		proc.pty = ptmx
		proc.stdin = ptmx
		stdout = ptmx
	} else {
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return ctx.Reply(errResponse(err))
		}
		var err2 error
		stdout, err2 = cmd.StdoutPipe()
		if err2 != nil {
			return ctx.Reply(errResponse(err2))
		}
		var err3 error
		stderr, err3 = cmd.StderrPipe()
		if err3 != nil {
			return ctx.Reply(errResponse(err3))
		}
		if err := cmd.Start(); err != nil {
			return ctx.Reply(errResponse(err))
		}
		proc.stdin = stdin
	}

	a.procs.Save(id, proc)

	if err := ctx.Reply(protocol.ProcSpawnedResponse{Id: id}); err != nil {
		return err
	}

	go pumpReader(ctx, id, stdout, func(id uint32, data []byte) protocol.Message {
		return protocol.ProcStdoutResponse{Id: id, Data: data}
	})
	if stderr != nil {
		go pumpReader(ctx, id, stderr, func(id uint32, data []byte) protocol.Message {
			return protocol.ProcStderrResponse{Id: id, Data: data}
		})
	}

	// A process spawned without Persist does not outlive the session
	// that created it: tear it down once the connection ends instead of
	// leaving it orphaned.
	if !r.Persist {
		go func() {
			<-ctx.Context().Done()
			if proc.cmd.Process != nil {
				_ = proc.cmd.Process.Kill()
			}
		}()
	}

	go a.waitProc(ctx, id, proc)
	return nil
}

// pumpReader streams r to ctx.Push in chunks, tagged with id.
func pumpReader(ctx *rpc.Context, id uint32, r io.Reader, build func(id uint32, data []byte) protocol.Message) {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if pushErr := ctx.Push(build(id, chunk)); pushErr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (a *Api) waitProc(ctx *rpc.Context, id uint32, proc *process) {
	err := proc.cmd.Wait()
	a.procs.Delete(id)

	success := err == nil
	var code *int32
	if proc.cmd.ProcessState != nil && proc.cmd.ProcessState.Exited() {
		c := int32(proc.cmd.ProcessState.ExitCode())
		code = &c
	}
	_ = ctx.Push(protocol.ProcDoneResponse{Id: id, Success: success, Code: code})
}

func (a *Api) lookupProc(id uint32) *process {
	v, ok := a.procs.Load(id)
	if !ok {
		return nil
	}
	return v.(*process)
}

func (a *Api) handleProcStdin(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.ProcStdinRequest)
	proc := a.lookupProc(r.Id)
	if proc == nil {
		return ctx.Reply(invalidInput("no process with that id"))
	}
	if _, err := proc.stdin.Write(r.Data); err != nil {
		return ctx.Reply(errResponse(err))
	}
	return ctx.Reply(protocol.OkResponse{})
}

func (a *Api) handleProcResize(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.ProcResizeRequest)
	proc := a.lookupProc(r.Id)
	if proc == nil {
		return ctx.Reply(invalidInput("no process with that id"))
	}
	if proc.pty == nil {
		return ctx.Reply(protocol.ErrorResponse{Kind: protocol.ErrUnsupported, Description: "process was not spawned with a pty"})
	}
	if err := pty.Setsize(proc.pty, &pty.Winsize{Rows: r.Size.Rows, Cols: r.Size.Cols}); err != nil {
		return ctx.Reply(errResponse(err))
	}
	return ctx.Reply(protocol.OkResponse{})
}

func (a *Api) handleProcKill(ctx *rpc.Context, req protocol.Message) error {
	r := req.(protocol.ProcKillRequest)
	proc := a.lookupProc(r.Id)
	if proc == nil {
		return ctx.Reply(invalidInput("no process with that id"))
	}
	if proc.cmd.Process == nil {
		return ctx.Reply(invalidInput("process has not started"))
	}
	if err := proc.cmd.Process.Kill(); err != nil {
		return ctx.Reply(errResponse(err))
	}
	return ctx.Reply(protocol.OkResponse{})
}
