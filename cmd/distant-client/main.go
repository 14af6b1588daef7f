// Command distant-client implements the client half of the protocol:
// shell (interactive PTY), action (one-shot and streaming verb invocation),
// connect (dial an already-running distant-server directly), and launch
// (ask a distant-manager to start one and hand back its endpoint). Built
// with urfave/cli the way kr/kr.go composes its App and Commands.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/distanthq/distant/cmd/internal/session"
	"github.com/distanthq/distant/common/auth"
	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/transport"
	"github.com/distanthq/distant/common/version"
	"github.com/distanthq/distant/config"
	"github.com/distanthq/distant/format"
	"github.com/distanthq/distant/shell"
)

func main() {
	app := cli.NewApp()
	app.Name = "distant-client"
	app.Usage = "connect to a distant-server and run a shell or one-off action"
	app.Version = version.String()
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "path to a config.toml overriding the global/user config"},
		cli.StringFlag{Name: "unix-socket", Usage: "endpoint to dial (default: config's client network unix_socket)"},
		cli.StringFlag{Name: "key", Usage: "pre-shared key to present if the server requires one"},
		cli.StringFlag{Name: "format", Usage: "json or shell (default: config's client format)"},
	}
	app.Commands = []cli.Command{
		shellCommand,
		actionCommand,
		connectCommand,
		launchCommand,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "distant-client:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	if custom := c.GlobalString("config"); custom != "" {
		return config.Load(custom)
	}
	userPath, _ := config.UserConfigPath()
	return config.LoadMulti("", config.GlobalConfigPath(), userPath)
}

func endpoint(c *cli.Context, cfg config.Config) transport.Endpoint {
	path := c.GlobalString("unix-socket")
	if path == "" {
		path = cfg.Client.Network.UnixSocket
	}
	return transport.Endpoint{Path: path}
}

func responder(c *cli.Context) *auth.Responder {
	methods := []auth.ResponderMethod{auth.NoneMethod{}}
	if key := c.GlobalString("key"); key != "" {
		methods = append(methods, &auth.ChallengeMethod{
			MethodName: "key",
			Answer: func(questions []protocol.Question) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = key
				}
				return answers, nil
			},
		})
	}
	return &auth.Responder{Methods: methods}
}

func formatterFor(c *cli.Context, cfg config.Config) *format.Formatter {
	mode := c.GlobalString("format")
	if mode == "" {
		mode = cfg.Client.Format
	}
	if mode == "" {
		mode = string(format.ModeShell)
	}
	return format.New(format.Mode(mode), os.Stdout, os.Stderr)
}

var shellCommand = cli.Command{
	Name:  "shell",
	Usage: "open an interactive shell on the remote host",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "cmd", Usage: "command to run instead of the remote's default shell"},
		cli.BoolFlag{Name: "persist", Usage: "keep the process running if this client disconnects"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		sess, err := session.Dial(endpoint(c, cfg), responder(c))
		if err != nil {
			return err
		}
		defer sess.Close()

		err = shell.Spawn(context.Background(), sess.Client, c.String("cmd"), c.Args().Tail(), nil, c.Bool("persist"))
		if exitErr, ok := err.(*shell.ExitError); ok {
			os.Exit(int(exitErr.Code))
		}
		return err
	},
}

var connectCommand = cli.Command{
	Name:      "connect",
	Usage:     "dial a distant-server directly at a known socket path and open a shell on it",
	ArgsUsage: "<socket-path>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("connect: expected exactly one socket path argument")
		}
		sess, err := session.Dial(transport.Endpoint{Path: c.Args().First()}, responder(c))
		if err != nil {
			return err
		}
		defer sess.Close()
		return shell.Spawn(context.Background(), sess.Client, "", nil, nil, false)
	},
}

var launchCommand = cli.Command{
	Name:  "launch",
	Usage: "ask the local distant-manager to start a distant-server and print its endpoint",
	Action: func(c *cli.Context) error {
		addr, err := requestManagerLaunch()
		if err != nil {
			return err
		}
		fmt.Println(addr)
		return nil
	},
}

var actionCommand = cli.Command{
	Name:  "action",
	Usage: "issue one filesystem, process, or introspection request",
	Subcommands: []cli.Command{
		oneShotCommand("read-file", "read a file's contents as a blob", func(args cli.Args) protocol.Message {
			return protocol.ReadFileRequest{Path: args.Get(0)}
		}, 1),
		oneShotCommand("read-file-text", "read a file's contents as UTF-8 text", func(args cli.Args) protocol.Message {
			return protocol.ReadFileTextRequest{Path: args.Get(0)}
		}, 1),
		oneShotCommand("write-file-text", "overwrite a file with UTF-8 text", func(args cli.Args) protocol.Message {
			return protocol.WriteFileTextRequest{Path: args.Get(0), Text: args.Get(1)}
		}, 2),
		oneShotCommand("read-dir", "list a directory's entries", func(args cli.Args) protocol.Message {
			return protocol.ReadDirRequest{Path: args.Get(0), IncludeRoot: true}
		}, 1),
		oneShotCommand("create-dir", "create a directory and its parents", func(args cli.Args) protocol.Message {
			return protocol.CreateDirRequest{Path: args.Get(0), All: true}
		}, 1),
		oneShotCommand("remove", "delete a file or directory", func(args cli.Args) protocol.Message {
			return protocol.RemoveRequest{Path: args.Get(0), Force: true}
		}, 1),
		oneShotCommand("rename", "move src to dst", func(args cli.Args) protocol.Message {
			return protocol.RenameRequest{Src: args.Get(0), Dst: args.Get(1)}
		}, 2),
		oneShotCommand("copy", "copy src to dst", func(args cli.Args) protocol.Message {
			return protocol.CopyRequest{Src: args.Get(0), Dst: args.Get(1)}
		}, 2),
		oneShotCommand("exists", "report whether a path exists", func(args cli.Args) protocol.Message {
			return protocol.ExistsRequest{Path: args.Get(0)}
		}, 1),
		oneShotCommand("metadata", "report a path's metadata", func(args cli.Args) protocol.Message {
			return protocol.MetadataRequest{Path: args.Get(0), ResolveFileType: true}
		}, 1),
		oneShotCommand("system-info", "describe the server's host environment", func(args cli.Args) protocol.Message {
			return protocol.SystemInfoRequest{}
		}, 0),
		oneShotCommand("capabilities", "list the verbs this server supports", func(args cli.Args) protocol.Message {
			return protocol.CapabilitiesRequest{}
		}, 0),
		watchCommand,
		searchCommand,
	},
}

// oneShotCommand builds a cli.Command that dials, sends exactly one
// request built from its positional args, prints the response with the
// configured formatter, and exits non-zero on an ErrorResponse.
func oneShotCommand(name, usage string, build func(cli.Args) protocol.Message, minArgs int) cli.Command {
	return cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			if c.NArg() < minArgs {
				return fmt.Errorf("%s: expected at least %d argument(s)", name, minArgs)
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			sess, err := session.Dial(endpoint(c, cfg), responder(c))
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := connectTimeout(cfg)
			defer cancel()
			env, err := sess.Client.Send(ctx, build(c.Args()))
			if err != nil {
				return err
			}
			f := formatterFor(c, cfg)
			if err := f.Print(env); err != nil {
				return err
			}
			if _, isErr := env.Payload.(protocol.ErrorResponse); isErr {
				os.Exit(1)
			}
			return nil
		},
	}
}

var watchCommand = cli.Command{
	Name:      "watch",
	Usage:     "stream filesystem change notifications under a path until interrupted",
	ArgsUsage: "<path>",
	Flags:     []cli.Flag{cli.BoolFlag{Name: "recursive"}},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("watch: expected exactly one path argument")
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		sess, err := session.Dial(endpoint(c, cfg), responder(c))
		if err != nil {
			return err
		}
		defer sess.Close()

		sub, first, err := sess.Client.Subscribe(context.Background(), protocol.WatchRequest{
			Path: c.Args().First(), Recursive: c.Bool("recursive"),
		}, 0)
		if err != nil {
			return err
		}
		defer sub.Close()

		f := formatterFor(c, cfg)
		if err := f.Print(first); err != nil {
			return err
		}
		for env := range sub.C() {
			if err := f.Print(env); err != nil {
				return err
			}
		}
		return nil
	},
}

var searchCommand = cli.Command{
	Name:      "search",
	Usage:     "search for a pattern in file paths or contents, streaming batches until done",
	ArgsUsage: "<pattern> <path> [path...]",
	Flags: []cli.Flag{
		cli.BoolFlag{Name: "regex"},
		cli.BoolFlag{Name: "contents", Usage: "match file contents instead of paths"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 2 {
			return fmt.Errorf("search: expected a pattern and at least one path")
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		sess, err := session.Dial(endpoint(c, cfg), responder(c))
		if err != nil {
			return err
		}
		defer sess.Close()

		target := protocol.SearchTargetPath
		if c.Bool("contents") {
			target = protocol.SearchTargetContents
		}
		sub, first, err := sess.Client.Subscribe(context.Background(), protocol.SearchRequest{
			Query: protocol.SearchQuery{
				Paths:   c.Args().Tail(),
				Target:  target,
				Pattern: c.Args().First(),
				Regex:   c.Bool("regex"),
			},
		}, 0)
		if err != nil {
			return err
		}
		defer sub.Close()

		f := formatterFor(c, cfg)
		if err := f.Print(first); err != nil {
			return err
		}
		for env := range sub.C() {
			if err := f.Print(env); err != nil {
				return err
			}
			if _, done := env.Payload.(protocol.SearchDoneResponse); done {
				break
			}
		}
		return nil
	},
}

func connectTimeout(cfg config.Config) (context.Context, context.CancelFunc) {
	secs := cfg.Client.ConnectTimeoutSecs
	if secs == 0 {
		secs = 30
	}
	return context.WithTimeout(context.Background(), time.Duration(secs)*time.Second)
}

