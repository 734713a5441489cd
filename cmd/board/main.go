package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bbernstein/busschema/internal/board"
	"github.com/bbernstein/busschema/internal/config"
	"github.com/bbernstein/busschema/internal/store"
	"github.com/bbernstein/busschema/internal/terminal"
	"github.com/bbernstein/busschema/pkg/http/client"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type options struct {
	apiURL    string
	storePath string
	lang      string
	stop      string
	timeout   time.Duration
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Live Västtrafik departures in the terminal",
		Long: `board shows upcoming departures for a stop, refreshed every 30 seconds.
Search for a stop, pick it by the id shown next to it, hide lines by picking their
badge and keep up to five favorite stops.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd.Context(), opts)
		},
	}

	defaultStore, err := store.DefaultPath()
	if err != nil {
		defaultStore = "busschema.json"
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.apiURL, "api", "http://localhost:8080", "base URL of the departures proxy")
	flags.StringVar(&opts.storePath, "store", defaultStore, "file keeping favorites, hidden lines and the last stop")
	flags.StringVar(&opts.lang, "lang", "sv", "language of the board (sv or en)")
	flags.StringVar(&opts.stop, "stop", board.DefaultQuery, "search text used when no stop was selected before")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "timeout for proxy requests")

	return cmd
}

func runBoard(ctx context.Context, opts options) error {
	// the board owns stdout
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	config.New(
		config.WithEnvironment("local"),
		config.WithLogLevel(level),
		config.WithLogOutput(os.Stderr),
	).InitializeLogging()

	storage, err := store.OpenFileStorage(opts.storePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", opts.storePath, err)
	}

	proxy := board.NewHTTPProxy(client.New(client.Options{
		BaseURL: opts.apiURL,
		Timeout: opts.timeout,
	}))
	view := terminal.New(os.Stdout, terminal.WithClearScreen(isatty.IsTerminal(os.Stdout.Fd())))

	controller := board.NewController(proxy, store.New(storage), view,
		board.WithPrinter(board.NewPrinter(opts.lang)),
		board.WithContext(ctx),
	)
	defer controller.Close()

	controller.Start(ctx, opts.stop)

	return newSession(controller, view, os.Stderr).run(ctx, os.Stdin)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
