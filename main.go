package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"

	"github.com/tejzpr/helpdesk/internal/client"
	"github.com/tejzpr/helpdesk/internal/config"
	"github.com/tejzpr/helpdesk/internal/db"
	"github.com/tejzpr/helpdesk/internal/handler"
	"github.com/tejzpr/helpdesk/internal/logging"
	"github.com/tejzpr/helpdesk/internal/manager"
	"github.com/tejzpr/helpdesk/internal/webserver"
)

const version = "1.0.0"

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	mcpMode := pflag.Bool("mcp", false, "serve the helpdesk MCP tools over stdio")
	remote := pflag.String("remote", "", "forward MCP tools to the helpdesk server at this URL")
	port := pflag.IntP("port", "p", 0, "HTTP port, overrides the config file")
	pflag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *remote != "" {
		cfg.MCP.RemoteURL = *remote
	}

	// Stdout carries the MCP stream, so logs go to stderr.
	log := logging.New(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *mcpMode {
		err = runMCP(ctx, cfg, log)
	} else {
		err = runHTTP(ctx, cfg, log)
	}
	if err != nil {
		log.Error("exiting", "error", err.Error())
		os.Exit(1)
	}
}

func openDesk(cfg *config.Config, log *slog.Logger) (*manager.Desk, error) {
	d, err := db.Init(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return manager.New(d, manager.NewBroker()), nil
}

func runHTTP(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	desk, err := openDesk(cfg, log)
	if err != nil {
		return err
	}
	return webserver.New(desk, cfg, log).ListenAndServe(ctx)
}

func runMCP(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	backend, err := mcpBackend(ctx, cfg, log)
	if err != nil {
		return err
	}

	s := server.NewMCPServer(
		"helpdesk",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	handler.NewTools(backend, log).Register(s)

	return server.ServeStdio(s)
}

// mcpBackend picks where tool calls go. An explicit remote wins. Otherwise a
// helpdesk already serving on the configured port becomes the primary and
// this process forwards to it; failing that, this process opens the
// database and serves HTTP itself.
func mcpBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (handler.Helpdesk, error) {
	if cfg.MCP.RemoteURL != "" {
		c := client.New(cfg.MCP.RemoteURL)
		if err := c.Ping(ctx); err != nil {
			return nil, fmt.Errorf("remote helpdesk %s: %w", c.BaseURL(), err)
		}
		log.Info("forwarding tools", "remote", c.BaseURL())
		return handler.NewRemote(c), nil
	}

	primary := client.New("http://" + cfg.Server.Addr())
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := primary.Ping(pingCtx); err == nil {
		log.Info("helpdesk already running, forwarding tools", "remote", primary.BaseURL())
		return handler.NewRemote(primary), nil
	}

	desk, err := openDesk(cfg, log)
	if err != nil {
		return nil, err
	}
	srv := webserver.New(desk, cfg, log)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Warn("http server stopped", "error", err.Error())
		}
	}()
	return handler.NewLocal(desk), nil
}
