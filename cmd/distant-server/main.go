// Command distant-server is the verb-handler host: it listens
// on a local Unix socket or named pipe, authenticates each connecting
// client, and serves filesystem, watch, search, process, and
// introspection requests against the api package's handlers. Structured
// the way krd/main.go starts krd: load config, open the listener, install
// a signal handler, serve until interrupted.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"github.com/distanthq/distant/common/api"
	"github.com/distanthq/distant/common/auth"
	commonlog "github.com/distanthq/distant/common/log"
	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/protocol/codec"
	"github.com/distanthq/distant/common/rpc"
	"github.com/distanthq/distant/common/transport"
	"github.com/distanthq/distant/common/util"
	"github.com/distanthq/distant/common/version"
	"github.com/distanthq/distant/config"
)

func main() {
	app := cli.NewApp()
	app.Name = "distant-server"
	app.Usage = "serve filesystem, process, and search requests over a local socket"
	app.Version = version.String()
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "path to a config.toml overriding the global/user config"},
		cli.StringFlag{Name: "unix-socket", Usage: "socket path to listen on (default: a freshly created temp path)"},
		cli.StringFlag{Name: "access", Usage: "owner, group, or anyone (default: config's manager access)"},
		cli.StringFlag{Name: "key", Usage: "pre-shared key clients must present; omit to accept any local connection"},
		cli.BoolFlag{Name: "syslog", Usage: "log to syslog instead of stderr"},
	}
	app.Action = runServer
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "distant-server:", err)
		os.Exit(1)
	}
}

func runServer(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	logLevel := cfg.Server.LogLevel
	var log *logging.Logger
	if c.Bool("syslog") {
		log, err = commonlog.Syslog("distant-server", logLevel)
	} else {
		log, err = commonlog.Setup("distant-server", logLevel, cfg.Server.LogFile)
	}
	if err != nil {
		return err
	}

	defer func() {
		if x := recover(); x != nil {
			log.Error(fmt.Sprintf("run time panic: %v", x))
			log.Error(string(debug.Stack()))
			panic(x)
		}
	}()

	socketPath := c.String("unix-socket")
	if socketPath == "" {
		dir, err := os.MkdirTemp("", "distant-server-")
		if err != nil {
			return err
		}
		socketPath = dir + "/distant.sock"
	}

	access := transport.AccessControl(c.String("access"))
	if access == "" {
		access = cfg.Manager.Access
	}
	if access == "" {
		access = transport.AccessOwner
	}

	listener, err := transport.Listen(transport.Endpoint{Path: socketPath, Access: access})
	if err != nil {
		log.Fatal(err)
	}
	defer listener.Close()

	maxPersisted := cfg.Manager.MaxPersistedProcesses
	if maxPersisted <= 0 {
		maxPersisted = 256
	}
	apiImpl, err := api.New(log, maxPersisted)
	if err != nil {
		log.Fatal(err)
	}
	router := rpc.NewRouter()
	apiImpl.Register(router)

	// server.max_stream_buffer is only logged: it sizes no buffer on either
	// side. Clients pick their own subscription buffering (see
	// rpc.Client.Subscribe), and this server has no buffer of its own to
	// size; Context.Push writes straight to the
	// connection, so a slow client applies backpressure through the
	// socket itself rather than through a queue here.
	if cfg.Server.MaxStreamBuffer > 0 {
		log.Debug(fmt.Sprintf("configured stream buffer hint: %d", cfg.Server.MaxStreamBuffer))
	}

	authn := buildAuthenticator(c.String("key"))

	ctx, cancel := context.WithCancel(context.Background())
	go acceptLoop(ctx, listener, authn, router, log)

	// Print the socket path as the single line of stdout a launching
	// process (distant-manager, or a script driving "launch") reads to
	// learn where to dial, the handoff shell.rs's launch flow expects
	// from a freshly started server.
	fmt.Println(socketPath)
	log.Notice(fmt.Sprintf("distant-server %s listening on %s (host %s)", version.String(), socketPath, util.MachineName()))

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, os.Interrupt, syscall.SIGTERM)
	<-stopSignal
	cancel()
	log.Notice("distant-server shutting down")
	return nil
}

func loadConfig(custom string) (config.Config, error) {
	if custom != "" {
		return config.Load(custom)
	}
	userPath, _ := config.UserConfigPath()
	return config.LoadMulti("", config.GlobalConfigPath(), userPath)
}

// buildAuthenticator returns an Authenticator offering only the none
// method for a locally-trusted socket (NoneMethod's doc comment), or, when
// key is non-empty, only the pre-shared-key challenge method — NoneMethod
// is deliberately excluded in that case, since offering both would let any
// client negotiate "none" and skip the key entirely.
func buildAuthenticator(key string) *auth.Authenticator {
	if key == "" {
		return &auth.Authenticator{Methods: []auth.AuthenticatorMethod{auth.NoneMethod{}}}
	}
	return &auth.Authenticator{Methods: []auth.AuthenticatorMethod{
		&auth.ChallengeMethod{
			MethodName: "key",
			Questions:  []protocol.Question{{Text: "key"}},
			Verify: func(answers []string) error {
				if len(answers) != 1 || answers[0] != key {
					return auth.Fatal(fmt.Errorf("distant-server: key mismatch"))
				}
				return nil
			},
		},
	}}
}

func acceptLoop(ctx context.Context, listener net.Listener, authn *auth.Authenticator, router *rpc.Router, log *logging.Logger) {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Error("distant-server: accept: " + err.Error())
				return
			}
		}
		go serveConn(ctx, conn, authn, router, log)
	}
}

func serveConn(ctx context.Context, conn net.Conn, authn *auth.Authenticator, router *rpc.Router, log *logging.Logger) {
	defer conn.Close()

	dec := codec.NewDecoder(conn)
	enc := codec.NewEncoder(conn)

	stream := auth.NewCodecStream(enc, dec)
	if err := authn.Run(stream); err != nil {
		log.Warning("distant-server: authentication failed: " + err.Error())
		return
	}

	if err := router.Serve(ctx, dec, enc, log); err != nil {
		log.Debug("distant-server: connection ended: " + err.Error())
	}
}
