// Command distant-manager owns the local Unix socket/named pipe IPC used
// by distant-client's "launch" subcommand: it
// starts a distant-server on request, hands back that server's endpoint,
// and keeps the child alive (and listed) across the launching client's
// disconnect. Shaped directly on daemon/control/server.go's
// ControlServer: one struct holding shared state and a *logging.Logger,
// HandleControlHTTP registering path handlers on an http.ServeMux and
// serving them over a net.Listener.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/op/go-logging"
	uuid "github.com/satori/go.uuid"
	"github.com/urfave/cli"

	"github.com/distanthq/distant/cmd/internal/managerproto"
	commonlog "github.com/distanthq/distant/common/log"
	"github.com/distanthq/distant/common/transport"
	"github.com/distanthq/distant/common/version"
	"github.com/distanthq/distant/config"
)

func main() {
	app := cli.NewApp()
	app.Name = "distant-manager"
	app.Usage = "launch and track distant-server processes for distant-client"
	app.Version = version.String()
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "path to a config.toml overriding the global/user config"},
		cli.StringFlag{Name: "unix-socket", Usage: "socket path to listen on (default: the user's manager socket)"},
		cli.StringFlag{Name: "server-path", Value: "distant-server", Usage: "path to the distant-server binary to launch"},
		cli.BoolFlag{Name: "syslog", Usage: "log to syslog instead of stderr"},
	}
	app.Action = runManager
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "distant-manager:", err)
		os.Exit(1)
	}
}

func runManager(c *cli.Context) error {
	cfg, err := loadManagerConfig(c.String("config"))
	if err != nil {
		return err
	}

	var log *logging.Logger
	if c.Bool("syslog") {
		log, err = commonlog.Syslog("distant-manager", cfg.Manager.LogLevel)
	} else {
		log, err = commonlog.Setup("distant-manager", cfg.Manager.LogLevel, cfg.Manager.LogFile)
	}
	if err != nil {
		return err
	}

	socketPath := c.String("unix-socket")
	if socketPath == "" {
		socketPath = cfg.Manager.Network.UnixSocket
	}
	if socketPath == "" {
		socketPath, err = transport.UserDirFile(transport.DefaultManagerSocketName)
		if err != nil {
			return err
		}
	}

	access := cfg.Manager.Access
	if access == "" {
		access = transport.AccessOwner
	}

	listener, err := transport.Listen(transport.Endpoint{Path: socketPath, Access: access})
	if err != nil {
		log.Fatal(err)
	}
	defer listener.Close()

	mgr := &manager{
		log:        log,
		serverPath: c.String("server-path"),
		sessions:   map[string]*launchedServer{},
	}

	go func() {
		if err := mgr.serve(listener); err != nil {
			log.Error("distant-manager: serve: " + err.Error())
		}
	}()
	log.Notice("distant-manager listening on " + socketPath)

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, os.Interrupt, syscall.SIGTERM)
	<-stopSignal
	mgr.stopAll()
	log.Notice("distant-manager shutting down")
	return nil
}

func loadManagerConfig(custom string) (config.Config, error) {
	if custom != "" {
		return config.Load(custom)
	}
	userPath, _ := config.UserConfigPath()
	return config.LoadMulti("", config.GlobalConfigPath(), userPath)
}

// launchedServer tracks one distant-server child this manager started.
type launchedServer struct {
	cmd      *exec.Cmd
	endpoint string
}

// manager is this binary's equivalent of ControlServer: shared state plus
// a logger, with handler methods registered against an http.ServeMux.
type manager struct {
	log        *logging.Logger
	serverPath string

	mu       sync.Mutex
	sessions map[string]*launchedServer
}

func (m *manager) serve(listener net.Listener) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/version", m.handleVersion)
	mux.HandleFunc("/launch", m.handleLaunch)
	mux.HandleFunc("/list", m.handleList)
	return http.Serve(listener, mux)
}

func (m *manager) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(version.String()))
}

func (m *manager) handleLaunch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	cmd := exec.Command(m.serverPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		m.writeError(w, err)
		return
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		m.writeError(w, err)
		return
	}

	// distant-server prints its listening socket path as the first line
	// of stdout once ready (see cmd/distant-server/main.go).
	scanner := bufio.NewScanner(stdout)
	if !scanner.Scan() {
		cmd.Process.Kill()
		m.writeError(w, fmt.Errorf("distant-server exited before reporting an endpoint"))
		return
	}
	endpoint := scanner.Text()

	id := uuid.NewV4().String()
	m.mu.Lock()
	m.sessions[id] = &launchedServer{cmd: cmd, endpoint: endpoint}
	m.mu.Unlock()

	go func() {
		cmd.Wait()
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
	}()

	json.NewEncoder(w).Encode(managerproto.LaunchResponse{
		Id:       id,
		Endpoint: endpoint,
		Pid:      cmd.Process.Pid,
	})
}

func (m *manager) handleList(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := make([]managerproto.Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		pid := 0
		if s.cmd.Process != nil {
			pid = s.cmd.Process.Pid
		}
		sessions = append(sessions, managerproto.Session{Id: id, Endpoint: s.endpoint, Pid: pid})
	}
	json.NewEncoder(w).Encode(sessions)
}

func (m *manager) writeError(w http.ResponseWriter, err error) {
	m.log.Error("distant-manager: " + err.Error())
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(err.Error()))
}

func (m *manager) stopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.cmd.Process != nil {
			s.cmd.Process.Signal(syscall.SIGTERM)
		}
		delete(m.sessions, id)
	}
}
