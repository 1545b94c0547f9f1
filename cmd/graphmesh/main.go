package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	abstractlogger "github.com/jensneuse/abstractlogger"
	"go.uber.org/zap"

	"github.com/graphmesh/graphmesh/internal/compose"
	"github.com/graphmesh/graphmesh/internal/eventbus"
	"github.com/graphmesh/graphmesh/internal/gateway"
	"github.com/graphmesh/graphmesh/internal/httptp"
	"github.com/graphmesh/graphmesh/internal/otel"
	"github.com/graphmesh/graphmesh/internal/schema"
	"github.com/graphmesh/graphmesh/internal/server"
	"github.com/graphmesh/graphmesh/internal/subgraph"
)

const rootUsage = `graphmesh — GraphQL federation gateway

USAGE:
  graphmesh <command> [flags]

COMMANDS:
  serve            Run the HTTP gateway over the configured subgraphs
  print-sdl        Introspect & compose the subgraphs, print supergraph SDL
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -subgraph <name=url>                GraphQL subgraph endpoint. Repeatable; at
                                      least one required
  -subgraph.hidden <name=url>         Subgraph reachable only through extend
                                      bindings (not exposed at the root). Repeatable
  -server.addr <addr>                 HTTP listen address (default: :8080)
  -server.pretty                      Pretty-print JSON responses
  -server.timeout <duration>          Per-request timeout, e.g. 10s (default: 10s)
  -server.cors-origin <origin>        Allowed CORS origin. Repeatable
  -transport.timeout <duration>       Subgraph request timeout, e.g. 3s (default: 3s)
  -transport.max-conns-per-endpoint N Max idle conns per endpoint (default: 2)
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: graphmesh)
`

const printSDLUsage = `print-sdl FLAGS:
  -subgraph <name=url>         GraphQL subgraph endpoint. Repeatable; at least one required
  -subgraph.hidden <name=url>  Hidden subgraph endpoint. Repeatable
  -transport.timeout <duration> Subgraph request timeout (default: 3s)
  -out <file>                  Write SDL to file (default: stdout)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("graphmesh", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return runServe(cmdArgs)
	case "print-sdl":
		return runPrintSDL(cmdArgs)
	case "help":
		if len(cmdArgs) > 0 {
			switch cmdArgs[0] {
			case "serve":
				fmt.Print(serveUsage)
			case "print-sdl":
				fmt.Print(printSDLUsage)
			default:
				fmt.Print(rootUsage)
			}
			return nil
		}
		fmt.Print(rootUsage)
		return nil
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// stringList collects values of a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var exposed, hidden, corsOrigins stringList
	fs.Var(&exposed, "subgraph", "subgraph endpoint as name=url (repeatable)")
	fs.Var(&hidden, "subgraph.hidden", "hidden subgraph endpoint as name=url (repeatable)")
	addr := fs.String("server.addr", ":8080", "listen address")
	pretty := fs.Bool("server.pretty", false, "pretty-print JSON")
	timeout := fs.Duration("server.timeout", 10*time.Second, "request timeout")
	fs.Var(&corsOrigins, "server.cors-origin", "allowed CORS origin (repeatable)")
	transportTimeout := fs.Duration("transport.timeout", 3*time.Second, "subgraph request timeout")
	maxConns := fs.Int("transport.max-conns-per-endpoint", 2, "max idle conns per endpoint")
	otelEndpoint := fs.String("otel.endpoint", "", "OTLP collector endpoint")
	otelService := fs.String("otel.service", "graphmesh", "service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if len(exposed) == 0 {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("at least one -subgraph mapping is required")
	}

	logger := newLogger()

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(*otelEndpoint, *otelService)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("otel shutdown", abstractlogger.Error(err))
		}
	}()

	subgraphs, err := buildSubgraphs(exposed, hidden, *transportTimeout, *maxConns)
	if err != nil {
		return err
	}

	gw, err := gateway.New(subgraphs, nil, gateway.WithLogger(logger))
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithTimeout(*timeout)}
	if *pretty {
		opts = append(opts, server.WithPretty())
	}
	if len(corsOrigins) > 0 {
		opts = append(opts, server.WithCORS(corsOrigins...))
	}
	handler, err := server.New(gw, opts...)
	if err != nil {
		return err
	}

	logger.Info("listening", abstractlogger.String("addr", *addr))
	return http.ListenAndServe(*addr, handler)
}

func runPrintSDL(args []string) error {
	fs := flag.NewFlagSet("print-sdl", flag.ContinueOnError)
	var exposed, hidden stringList
	fs.Var(&exposed, "subgraph", "subgraph endpoint as name=url (repeatable)")
	fs.Var(&hidden, "subgraph.hidden", "hidden subgraph endpoint as name=url (repeatable)")
	transportTimeout := fs.Duration("transport.timeout", 3*time.Second, "subgraph request timeout")
	out := fs.String("out", "", "output file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, printSDLUsage)
		return err
	}
	if len(exposed) == 0 {
		fmt.Fprint(os.Stderr, printSDLUsage)
		return fmt.Errorf("at least one -subgraph mapping is required")
	}

	subgraphs, err := buildSubgraphs(exposed, hidden, *transportTimeout, 2)
	if err != nil {
		return err
	}
	super, err := compose.Compose(subgraphs)
	if err != nil {
		return err
	}
	sdl := schema.Render(super)
	if *out == "" {
		fmt.Print(sdl)
		return nil
	}
	return os.WriteFile(*out, []byte(sdl), 0o644)
}

// buildSubgraphs introspects every endpoint and returns the subgraph handles.
func buildSubgraphs(exposed, hidden stringList, timeout time.Duration, maxConns int) ([]*subgraph.SubGraph, error) {
	var out []*subgraph.SubGraph
	build := func(mapping string, exposeAtRoot bool) error {
		name, url, ok := strings.Cut(mapping, "=")
		if !ok || name == "" || url == "" {
			return fmt.Errorf("invalid subgraph mapping %q (want name=url)", mapping)
		}
		tp, err := httptp.New(name, url,
			httptp.WithRequestTimeout(timeout),
			httptp.WithMaxIdleConnsPerHost(maxConns),
		)
		if err != nil {
			return err
		}
		sch, err := tp.Introspect(context.Background())
		if err != nil {
			return fmt.Errorf("introspecting subgraph %s: %w", name, err)
		}
		sg := subgraph.New(name, sch, tp)
		if !exposeAtRoot {
			sg.HideFromRoot()
		}
		out = append(out, sg)
		return nil
	}
	for _, m := range exposed {
		if err := build(m, true); err != nil {
			return nil, err
		}
	}
	for _, m := range hidden {
		if err := build(m, false); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func newLogger() abstractlogger.Logger {
	zl, err := zap.NewProductionConfig().Build()
	if err != nil {
		panic(err)
	}
	return abstractlogger.NewZapLogger(zl, abstractlogger.InfoLevel)
}
