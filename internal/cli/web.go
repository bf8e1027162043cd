package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jee-key/brain-blast-bot/internal/config"
	"github.com/jee-key/brain-blast-bot/internal/game"
	"github.com/jee-key/brain-blast-bot/internal/infra/memory"
	"github.com/jee-key/brain-blast-bot/internal/transport/ws"
)

// NewWebCmd builds the CLI subcommand for the websocket playground.
func NewWebCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "web",
		Short: "Start the websocket playground server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWeb(cmd.Context(), *configPath, *port)
		},
	}
}

func runWeb(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = "8080"
	}

	ledger, closeLedger, err := buildLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	handler := ws.NewHandler(buildProvider(cfg))
	handler.Bind(game.NewEngine(memory.NewRoundStore(), ledger, handler, buildTiming(cfg)))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", handler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting playground on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
