package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ffaiyaz23/commercechat/internal/backend"
	"github.com/ffaiyaz23/commercechat/internal/chat"
	"github.com/ffaiyaz23/commercechat/internal/config"
	"github.com/ffaiyaz23/commercechat/internal/otel"
	"github.com/ffaiyaz23/commercechat/internal/search"
	"github.com/ffaiyaz23/commercechat/internal/slack"
	"github.com/ffaiyaz23/commercechat/internal/tui"
	slackapi "github.com/slack-go/slack"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const usage = `usage: commercechat <command> [flags]

commands:
  chat              interactive chat window
  search [query]    product search; reads queries from stdin when none is given
  login             obtain a session token
  order             create an order from a JSON payload
  pay               submit a payment from a JSON payload
  slack             serve the Slack Events API relay
  mock              run the mock AI service and commerce backend
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// 0) Load configuration
	cfg := config.Load()

	// 1) Initialize Zap logger and replace globals; interactive commands keep logs off the terminal
	logger, err := newLogger(os.Args[1], cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2) Initialize OpenTelemetry tracing; interactive commands keep spans off the terminal
	var console io.Writer
	if interactive(os.Args[1]) {
		console = io.Discard
	}
	tp, err := otel.InitTracer(ctx, "commercechat", console)
	if err != nil {
		zap.S().Fatalw("failed to init OTEL", "error", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	if err := run(ctx, cfg, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		logger.Sync()
		os.Exit(1)
	}
}

// interactive reports whether cmd draws on the terminal.
func interactive(cmd string) bool {
	return cmd != "slack" && cmd != "mock"
}

// newLogger returns the production logger for the servers. Interactive
// commands log to logFile when set and nowhere otherwise.
func newLogger(cmd, logFile string) (*zap.Logger, error) {
	if !interactive(cmd) {
		return zap.NewProduction()
	}
	if logFile == "" {
		return zap.NewNop(), nil
	}
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{logFile}
	zc.ErrorOutputPaths = []string{logFile}
	return zc.Build()
}

func run(ctx context.Context, cfg config.Config, cmd string, args []string) error {
	if cmd == "mock" {
		return runMock(ctx, cfg, args)
	}

	// Auto-start the mock backend when asked to
	if cfg.MockBackend {
		server, addr, err := backend.StartMockServer("127.0.0.1:0", backend.MockOptions{SigningKey: cfg.MockSigningKey})
		if err != nil {
			return fmt.Errorf("start mock backend: %w", err)
		}
		defer server.Close()
		base := "http://" + addr
		cfg.AIServiceURL, cfg.BackendURL, cfg.SearchURL = base, base, base
	}
	zap.S().Infow("using services", "ai", cfg.AIServiceURL, "backend", cfg.BackendURL, "search", cfg.SearchURL)
	client := backend.NewClient(cfg.Options())

	switch cmd {
	case "chat":
		return runChat(ctx, cfg, client, args)
	case "search":
		return runSearch(ctx, client, args)
	case "login":
		return runLogin(ctx, client, args)
	case "order", "pay":
		return runPayload(ctx, client, cmd, args)
	case "slack":
		return runSlack(ctx, cfg, client)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func runChat(ctx context.Context, cfg config.Config, client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	plain := fs.Bool("plain", false, "print messages instead of redrawing the window")
	if err := fs.Parse(args); err != nil {
		return err
	}
	window := chat.NewWindow(backend.FallbackChatter{Client: client}, chat.WithViewport(cfg.ViewHeight, cfg.ViewWidth))
	return tui.RunChat(ctx, window, chat.NewInput(), os.Stdin, os.Stdout, tui.ChatOptions{Plain: *plain, Width: cfg.ViewWidth})
}

func runSearch(ctx context.Context, client *backend.Client, args []string) error {
	app := search.NewApp(client)
	if len(args) == 0 {
		return tui.RunSearch(ctx, app, os.Stdin, os.Stdout)
	}
	res, err := app.SearchFor(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(res)
	return nil
}

func runLogin(ctx context.Context, client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	user := fs.String("user", "", "username")
	password := fs.String("password", os.Getenv("COMMERCE_PASSWORD"), "password (defaults to $COMMERCE_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := client.Login(ctx, backend.Credentials{Username: *user, Password: *password})
	if err != nil {
		return err
	}
	fmt.Println(resp.Token)
	return nil
}

func runPayload(ctx context.Context, client *backend.Client, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	token := fs.String("token", os.Getenv("COMMERCE_TOKEN"), "bearer token (defaults to $COMMERCE_TOKEN)")
	file := fs.String("file", "-", "JSON payload file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := readPayload(*file)
	if err != nil {
		return err
	}
	var resp json.RawMessage
	if cmd == "order" {
		resp, err = client.CreateOrder(ctx, payload, *token)
	} else {
		resp, err = client.MakePayment(ctx, payload, *token)
	}
	if err != nil {
		return err
	}
	out, err := search.Format(resp)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func readPayload(path string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if !json.Valid(data) {
		return nil, errors.New("payload is not valid JSON")
	}
	return json.RawMessage(data), nil
}

func runSlack(ctx context.Context, cfg config.Config, client *backend.Client) error {
	if err := cfg.ValidateSlack(); err != nil {
		return err
	}
	relay := slack.New(slackapi.New(cfg.BotToken), backend.FallbackChatter{Client: client}, client, cfg.WorkerPoolSize, cfg.StreamMode)
	relay.Start(context.WithoutCancel(ctx))

	mux := http.NewServeMux()
	mux.Handle("/events", otelhttp.NewHandler(slack.EventsHandler(relay, cfg.SigningSecret), "SlackEvents"))
	server := &http.Server{Addr: ":" + cfg.Port, Handler: mux}

	// ListenAndServe returns as soon as Shutdown begins; the relay may only
	// stop once Shutdown has waited out the in-flight /events handlers.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			zap.S().Errorw("events server shutdown", "error", err)
		}
	}()

	zap.S().Infow("listening for Events API", "address", ":"+cfg.Port+"/events")
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-shutdownDone
		err = nil
	}
	relay.Stop()
	return err
}

func runMock(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("mock", flag.ContinueOnError)
	addr := fs.String("addr", ":8000", "listen address")
	failChat := fs.Bool("fail-chat", false, "answer /chat with 503")
	if err := fs.Parse(args); err != nil {
		return err
	}
	server, bound, err := backend.StartMockServer(*addr, backend.MockOptions{
		SigningKey: cfg.MockSigningKey,
		FailChat:   *failChat,
	})
	if err != nil {
		return err
	}
	zap.S().Infow("mock backend ready", "address", bound)
	<-ctx.Done()
	return server.Shutdown(context.Background())
}
