// =============================================================================
// main.go - Julius CLI Entry Point
// =============================================================================
//
// This is the entry point of the julius command-line client. It connects to
// a Julius speech recognition engine running in module mode (julius -module),
// prints the notifications the engine pushes, and offers a small REPL for
// sending module commands such as VERSION, STATUS, PAUSE and RESUME.
//
// Usage:
//
//	julius                              Connect to localhost:10500
//	julius --host asr.local --port 10500
//	julius --encoding euc-jp            Engine built for a Japanese model
//	julius --relay :8080                Also stream notifications on /ws
//	julius --help                       Show help
//
// Recognition results are printed as the best hypothesis, one line each:
//
//	-2170.443115	hello(0.912)world(0.870)
//
// =============================================================================

// GO CONCEPT: Packages
// --------------------
// Every Go source file starts with a "package" declaration. The special
// package name "main" tells the compiler this is an executable program and
// not a library; it must contain a func main() as the entry point. The
// protocol itself lives in the juliusprotocol library package, so this
// package only wires it to a terminal.
//
// Compare with Python: Python uses `if __name__ == "__main__":` as the
// entry point convention. Any .py file can be both a script and a module.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/julius-go/julius/juliusprotocol"
)

// =============================================================================
// Version Information
// =============================================================================

const (
	// version is the current version of the CLI.
	version = "0.3.0"

	// appName is the application name.
	appName = "Julius"

	// copyright is the copyright notice.
	copyright = "Copyright (c) 2026"
)

// fullTitle returns the application name with version.
func fullTitle() string {
	return fmt.Sprintf("%s module client v%s (Go)", appName, version)
}

// welcomeBanner returns the banner displayed when the REPL starts.
func welcomeBanner() string {
	return fmt.Sprintf(`%s - Julius speech recognition engine
%s

Type '.help' for available commands.
Type '.quit' to exit.
`, fullTitle(), copyright)
}

// =============================================================================
// Command-Line Arguments
// =============================================================================

// GO CONCEPT: Zero Values as "Not Set"
// ------------------------------------
// Every Go type has a zero value: "" for strings, 0 for ints, false for
// bools. The flags below use the zero value to mean "not given on the
// command line", so the configuration file and environment keep their say
// unless the user overrides them explicitly.
//
// Compare with Python: Python uses `None` as the universal "no value"
// sentinel, with `Optional[str]` type hints.

// arguments holds the parsed command-line arguments.
type arguments struct {
	// configPath points at an optional TOML configuration file.
	configPath string

	// host and port override the engine address.
	host string
	port int

	// encoding overrides the socket text encoding.
	encoding string

	// raw prints the whole parsed tree of every record.
	raw bool

	// relayAddr enables the websocket relay on this listen address.
	relayAddr string

	// metricsAddr enables the Prometheus endpoint on this listen address.
	metricsAddr string

	// showHelp causes usage information to be printed and the program to exit.
	showHelp bool

	// showVersion causes version information to be printed and the program to exit.
	showVersion bool
}

// parseArguments parses command-line arguments (without the program name).
//
// This is a simple hand-written parser. There are only a handful of flags
// and no subcommands, so a framework would be over-engineering.
func parseArguments(argv []string) (arguments, error) {
	var args arguments
	remaining := argv

	// value consumes the argument that follows a flag.
	value := func(flag string) (string, error) {
		if len(remaining) == 0 {
			return "", fmt.Errorf("%s requires an argument", flag)
		}
		v := remaining[0]
		remaining = remaining[1:]
		return v, nil
	}

	// GO CONCEPT: For as While
	// ------------------------
	// Go has only one loop keyword. "for len(remaining) > 0" behaves like a
	// while loop, consuming arguments one at a time from the front of the
	// slice.
	for len(remaining) > 0 {
		arg := remaining[0]
		remaining = remaining[1:]

		var err error
		switch arg {
		case "--config":
			args.configPath, err = value(arg)

		case "--host":
			args.host, err = value(arg)

		case "--port":
			var raw string
			if raw, err = value(arg); err == nil {
				args.port, err = strconv.Atoi(raw)
				if err != nil {
					err = fmt.Errorf("--port: invalid number %q", raw)
				}
			}

		case "--encoding":
			args.encoding, err = value(arg)

		case "--raw":
			args.raw = true

		case "--relay":
			args.relayAddr, err = value(arg)

		case "--metrics":
			args.metricsAddr, err = value(arg)

		case "--help", "-h":
			args.showHelp = true

		case "--version", "-v":
			args.showVersion = true

		default:
			err = fmt.Errorf("unknown argument: %s", arg)
		}

		if err != nil {
			return arguments{}, err
		}
	}

	return args, nil
}

// =============================================================================
// Help and Usage
// =============================================================================

// printUsage prints usage information to stdout.
func printUsage() {
	fmt.Print(`USAGE: julius [options]

OPTIONS:
  --config <path>     Read settings from a TOML file
  --host <host>       Engine host (default localhost)
  --port <port>       Engine module port (default 10500)
  --encoding <name>   Socket text encoding (default utf-8)
  --raw               Print the parsed tree of every record
  --relay <addr>      Stream notifications to websocket clients on <addr>/ws
  --metrics <addr>    Serve Prometheus metrics on <addr>/metrics
  --help, -h          Show this help
  --version, -v       Show version

ENVIRONMENT:
  JULIUS_HOST, JULIUS_PORT, JULIUS_ENCODING, JULIUS_RAW,
  JULIUS_RELAY_ADDR, JULIUS_METRICS_ADDR   Override the configuration file
  JULIUS_LOG_LEVEL                         trace, debug, info, warn, error, disabled
  JULIUS_LOG_NOCOLOR                       Disable colored log output

EXAMPLES:
  julius                                   Connect to a local engine
  julius --host asr.local --encoding euc-jp
  julius --relay 127.0.0.1:8080 --metrics 127.0.0.1:9100

The engine must be running in module mode: julius -C main.jconf -module
`)
}

// printVersion prints version information to stdout.
func printVersion() {
	fmt.Println(fullTitle())
}

// printError prints an error message to stderr.
func printError(message string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}

// =============================================================================
// Signal Handling
// =============================================================================

// GO CONCEPT: Channels and Goroutines
// ------------------------------------
// A goroutine is a lightweight thread started with the "go" keyword. A
// channel is a typed pipe between goroutines. signal.Notify delivers
// SIGINT and SIGTERM into a channel instead of killing the process, and a
// goroutine waits on that channel to run the cleanup.
//
// Compare with Python: `signal.signal(signal.SIGINT, handler)` installs a
// callback that runs on the main thread between bytecodes.

// setupSignalHandler installs handlers for SIGINT and SIGTERM so the CLI can
// disconnect from the engine and stop its listeners on exit.
func setupSignalHandler(cleanup func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println()
		cleanup()
		os.Exit(0)
	}()
}

// =============================================================================
// Main
// =============================================================================

func main() {
	args, err := parseArguments(os.Args[1:])
	if err != nil {
		printError(err.Error())
		printUsage()
		os.Exit(1)
	}

	if args.showHelp {
		printUsage()
		return
	}
	if args.showVersion {
		printVersion()
		return
	}

	cfg, err := loadConfig(args)
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	logger := newLogger(os.Stderr, logCfg)

	opts := cfg.clientOptions()
	opts.Logger = &logger
	client, err := juliusprotocol.NewClient(opts)
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	// Print every notification as it arrives. Handlers run in the client's
	// reader goroutine, in the order the engine sent the records.
	out := newPrinter(os.Stdout, cfg.Raw)
	out.subscribe(client)

	client.SetErrorHandler(func(err error) {
		fmt.Fprintf(os.Stderr, "\n*** Bad record: %v\n", err)
	})
	client.SetDisconnectHandler(func(err error) {
		fmt.Fprintf(os.Stderr, "\nDisconnected from engine: %v\n", err)
	})

	var servers []*http.Server
	if cfg.RelayAddr != "" {
		rl := newRelay(logger)
		client.Subscribe(juliusprotocol.KindAll, rl.handle)
		servers = append(servers, startHTTPServer(cfg.RelayAddr, rl.routes(), logger))
	}
	if cfg.MetricsAddr != "" {
		juliusprotocol.RegisterMetrics()
		servers = append(servers, startHTTPServer(cfg.MetricsAddr, metricsRoutes(), logger))
	}

	fmt.Printf("Connecting to %s...\n", client.Addr())
	if err := client.Connect(context.Background()); err != nil {
		printError(fmt.Sprintf("Failed to connect to engine: %v", err))
		fmt.Fprintln(os.Stderr, "Start the engine with: julius -C main.jconf -module")
		os.Exit(1)
	}

	cleanup := func() {
		client.Disconnect()
		stopHTTPServers(servers)
	}
	setupSignalHandler(cleanup)

	editor := NewLineEditor()
	defer editor.Close()

	if editor.IsInteractive() {
		fmt.Print(welcomeBanner())
		fmt.Println()
	}

	runREPL(client, editor, out)

	cleanup()
}
