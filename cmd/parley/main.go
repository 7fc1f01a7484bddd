// Parley relays group-chat messages to the DeepSeek completion API and back,
// with a bounded per-conversation history and an operator HTTP surface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/parleybot/parley/internal/api"
	"github.com/parleybot/parley/internal/domain/archive"
	"github.com/parleybot/parley/internal/domain/conversation"
	"github.com/parleybot/parley/internal/domain/models"
	"github.com/parleybot/parley/internal/domain/relay"
	"github.com/parleybot/parley/internal/gateway"
	"github.com/parleybot/parley/internal/infra/config"
	"github.com/parleybot/parley/internal/infra/eventbus"
	"github.com/parleybot/parley/internal/infra/llm"
	"github.com/parleybot/parley/internal/infra/sqlite"
	"github.com/parleybot/parley/internal/infra/telegram"
	"github.com/parleybot/parley/internal/server"
	"github.com/parleybot/parley/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("parley", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "configuration error: %v\n", err) //nolint:errcheck
		return 1
	}

	if err := serve(cfg, out); err != nil {
		fmt.Fprintf(out, "fatal: %v\n", err) //nolint:errcheck
		return 1
	}
	return 0
}

// serve wires the dependency graph and blocks until a shutdown signal or a
// fatal server error.
func serve(cfg config.Config, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := sqlite.MigrateUp(db); err != nil {
		db.Close() //nolint:errcheck
		return err
	}

	catalog := models.DefaultCatalog()
	if cfg.ModelsFile != "" {
		catalog, err = models.LoadCatalog(cfg.ModelsFile)
		if err != nil {
			db.Close() //nolint:errcheck
			return err
		}
	}
	registry, err := models.NewRegistry(catalog, cfg.Model)
	if err != nil {
		db.Close() //nolint:errcheck
		return err
	}

	store := conversation.NewStore(cfg.MaxHistory)
	bus := eventbus.New()
	provider := llm.NewDeepSeekClient(cfg.APIURL, cfg.APIKey, cfg.RequestTimeout())
	pipeline := relay.NewPipelineWithBus(store, provider, registry, bus, relay.Config{
		MessageLimit: cfg.MessageLimit,
		SplitMargin:  cfg.SplitMargin,
	})

	archiveSvc := archive.NewService(db)
	go archiveSvc.Start(ctx, bus)

	router := api.NewRouter(api.Deps{
		Store:    store,
		Pipeline: pipeline,
		Registry: registry,
		Archive:  archiveSvc,
	})
	srv := server.NewServer(db, serverConfig(cfg), router)

	if cfg.BotToken != "" {
		// The HTTP timeout must outlive the long-poll window or every
		// idle getUpdates call would error out.
		client := telegram.NewClient(cfg.TelegramAPIBase, cfg.BotToken, cfg.PollTimeout()+10*time.Second)
		gw := gateway.New(client, pipeline, store, registry, gateway.Config{
			PollTimeoutSeconds: cfg.PollTimeoutSeconds,
			SplitDelay:         cfg.SplitDelay(),
			AdminChatID:        cfg.AdminChatID,
			MaxHistory:         cfg.MaxHistory,
		})
		go gw.Run(ctx)
	} else {
		fmt.Fprintln(out, "TELEGRAM_BOT_TOKEN not set, chat gateway disabled") //nolint:errcheck
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-ctx.Done():
	case serveErr := <-errCh:
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			db.Close() //nolint:errcheck
			return serveErr
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// serverConfig translates the flat HTTP_ADDR into the server's host/port
// pair, keeping the defaults for anything unparsable.
func serverConfig(cfg config.Config) server.Config {
	sc := server.DefaultConfig()
	host, portStr, err := net.SplitHostPort(cfg.HTTPAddr)
	if err != nil {
		return sc
	}
	if host != "" {
		sc.Host = host
	}
	if port, convErr := strconv.Atoi(portStr); convErr == nil && port > 0 {
		sc.Port = port
	}
	return sc
}

func printHelp(out io.Writer) {
	helpText := `Parley - chat relay for the DeepSeek completion API

Usage:
  parley [options]

Options:
  --version    Show version information
  --help       Show this help message

Environment:
  DEEPSEEK_API_KEY      API key for the completion endpoint (required)
  DEEPSEEK_MODEL        Model activated at startup (default deepseek-chat)
  TELEGRAM_BOT_TOKEN    Bot token; unset disables the chat gateway
  ADMIN_CHAT_ID         Chat allowed to switch models (0 allows any chat)
  HTTP_ADDR             Operator API listen address (default 0.0.0.0:8080)
  DB_PATH               SQLite transcript archive path (default parley.db)
  MODELS_FILE           YAML model catalog overriding the built-in set`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
