// Command rps-arena starts the rock-paper-scissors room server.
//
// It supports two commands:
//  1. "serve" (default) runs the HTTP server: WebSocket game endpoint, read-only
//     REST API and optional static assets
//  2. "mcp" runs an MCP stdio server that observes a running server's REST API
//
// Flags, each also readable from the environment, control host/port, CORS
// origins, heartbeats, debug logging and optional ngrok tunneling.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/rps-arena/api"
	"github.com/wricardo/rps-arena/game/config"
	"github.com/wricardo/rps-arena/game/room"
	"github.com/wricardo/rps-arena/game/service"
	"github.com/wricardo/rps-arena/transport/mcp"
	"github.com/wricardo/rps-arena/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Rock Paper Scissors Arena"
)

const (
	defaultEnvFile  = ".env"
	shutdownTimeout = 10 * time.Second
)

func main() {
	// The .env file must be loaded before flags read their env sources
	if err := config.LoadEnvFile(envFileArg(os.Args[1:])); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newCommand builds the CLI
func newCommand() *cli.Command {
	defaults := config.Default()

	return &cli.Command{
		Name:    "rps-arena",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: defaultEnvFile, Usage: "file with environment variables to load first"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.StringFlag{Name: "host", Value: defaults.Host, Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: defaults.Port, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "cors-origin", Value: strings.Join(defaults.CORSOrigins, ","), Usage: "comma-separated origins allowed to connect, * for any", Sources: cli.EnvVars("CORS_ORIGIN")},
			&cli.DurationFlag{Name: "ping-interval", Value: defaults.PingInterval, Usage: "WebSocket ping period", Sources: cli.EnvVars("SOCKET_PING_INTERVAL")},
			&cli.DurationFlag{Name: "ping-timeout", Value: defaults.PingTimeout, Usage: "drop peers silent for this long", Sources: cli.EnvVars("SOCKET_PING_TIMEOUT")},
			&cli.Int64Flag{Name: "max-message-size", Value: defaults.MaxMessageSize, Usage: "largest inbound WebSocket message in bytes", Sources: cli.EnvVars("MAX_MESSAGE_SIZE")},
			&cli.StringFlag{Name: "static-dir", Usage: "serve static files from this directory", Sources: cli.EnvVars("STATIC_DIR")},
			&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the game server (default)",
				Action: serveAction,
			},
			{
				Name:  "mcp",
				Usage: "run an MCP stdio server against a running game server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:3000", Usage: "base URL of the game server", Sources: cli.EnvVars("API_URL")},
				},
				Action: mcpAction,
			},
		},
	}
}

// envFileArg finds --env-file before the CLI parses anything
func envFileArg(args []string) string {
	for i, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--env-file="):
			return strings.TrimPrefix(arg, "--env-file=")
		case arg == "--env-file" && i+1 < len(args):
			return args[i+1]
		}
	}
	return defaultEnvFile
}

// newLogger writes human-readable logs to stderr, keeping stdout free for MCP
func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

// configFromCommand resolves flags into a validated Config
func configFromCommand(cmd *cli.Command) (config.Config, error) {
	cfg := config.Config{
		Host:           cmd.String("host"),
		Port:           cmd.Int("port"),
		Debug:          cmd.Bool("debug"),
		CORSOrigins:    config.ParseOrigins(cmd.String("cors-origin")),
		PingInterval:   cmd.Duration("ping-interval"),
		PingTimeout:    cmd.Duration("ping-timeout"),
		MaxMessageSize: cmd.Int64("max-message-size"),
		StaticDir:      cmd.String("static-dir"),
		Ngrok: config.NgrokConfig{
			Enabled:   cmd.Bool("ngrok"),
			AuthToken: cmd.String("ngrok-auth"),
			Domain:    cmd.String("ngrok-domain"),
		},
	}
	return cfg, cfg.Validate()
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := configFromCommand(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Debug)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServer(ctx, cfg, logger)
}

// app is the wired server
type app struct {
	coord   *service.Coordinator
	hub     *websocket.Hub
	handler http.Handler
}

// newApp wires Registry, Coordinator, Hub and API
func newApp(cfg config.Config, logger zerolog.Logger) *app {
	hub := websocket.NewHub(
		websocket.WithLogger(logger.With().Str("component", "hub").Logger()),
		websocket.WithHeartbeat(cfg.PingInterval, cfg.PingTimeout),
		websocket.WithMaxMessageSize(cfg.MaxMessageSize),
		websocket.WithAllowedOrigins(cfg.CORSOrigins),
	)
	coord := service.NewCoordinator(room.NewRegistry(), hub,
		service.WithLogger(logger.With().Str("component", "coordinator").Logger()),
	)
	hub.SetDispatcher(coord)

	opts := []api.Option{api.WithLogger(logger.With().Str("component", "http").Logger())}
	if cfg.StaticDir != "" {
		opts = append(opts, api.WithStaticDir(cfg.StaticDir))
	}

	return &app{
		coord:   coord,
		hub:     hub,
		handler: api.NewServer(coord, hub, opts...),
	}
}

// runServer serves until ctx is cancelled, then shuts down gracefully
func runServer(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	a := newApp(cfg, logger)

	loopCtx, cancelLoops := context.WithCancel(context.Background())
	defer cancelLoops()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.coord.Run(loopCtx)
	}()
	go func() {
		defer wg.Done()
		a.hub.Run(loopCtx)
	}()

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	httpServer := &http.Server{
		Handler:     a.handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("version", Version).
			Str("addr", listener.Addr().String()).
			Msg("HTTP server listening")
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if cfg.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveTunnel(ctx, cfg.Ngrok, a.handler, logger); err != nil {
				logger.Error().Err(err).Msg("ngrok tunnel failed")
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case runErr = <-serveErr:
		if runErr != nil {
			logger.Error().Err(runErr).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP server shutdown error")
	}

	cancelLoops()
	wg.Wait()
	logger.Info().Msg("server stopped")

	return runErr
}

// serveTunnel exposes handler through ngrok until ctx is cancelled
func serveTunnel(ctx context.Context, cfg config.NgrokConfig, handler http.Handler, logger zerolog.Logger) error {
	var opts []ngrokConfig.HTTPEndpointOption
	if cfg.Domain != "" {
		opts = append(opts, ngrokConfig.WithDomain(cfg.Domain))
	}

	tun, err := ngrok.Listen(ctx,
		ngrokConfig.HTTPEndpoint(opts...),
		ngrok.WithAuthtoken(cfg.AuthToken),
	)
	if err != nil {
		return fmt.Errorf("start ngrok tunnel: %w", err)
	}

	logger.Info().
		Str("url", tun.URL()).
		Str("websocket", strings.Replace(tun.URL(), "https://", "wss://", 1)+"/ws").
		Msg("ngrok tunnel established")

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve ngrok tunnel: %w", err)
	}
	logger.Info().Msg("ngrok tunnel closed")
	return nil
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd.Bool("debug"))

	apiURL := cmd.String("api-url")
	client := mcp.NewClient(apiURL, Version)

	logger.Info().Str("api", apiURL).Msg("MCP stdio server ready")
	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}
