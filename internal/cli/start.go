package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jee-key/brain-blast-bot/internal/config"
	"github.com/jee-key/brain-blast-bot/internal/game"
	"github.com/jee-key/brain-blast-bot/internal/infra/chgk"
	"github.com/jee-key/brain-blast-bot/internal/infra/memory"
	pgledger "github.com/jee-key/brain-blast-bot/internal/infra/postgres"
	redisledger "github.com/jee-key/brain-blast-bot/internal/infra/redis"
	"github.com/jee-key/brain-blast-bot/internal/transport/telegram"
)

// NewStartCmd builds the CLI subcommand to start the Telegram bot.
func NewStartCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), *configPath)
		},
	}
}

func runBot(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	token := cfg.Telegram.Token
	if token == "" {
		token = os.Getenv("BOT_TOKEN")
	}
	if token == "" {
		return fmt.Errorf("telegram token not configured (telegram.token or BOT_TOKEN)")
	}

	ledger, closeLedger, err := buildLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("telegram auth: %w", err)
	}
	log.Printf("authorized as @%s", api.Self.UserName)

	engine := game.NewEngine(memory.NewRoundStore(), ledger, telegram.NewNotifier(api), buildTiming(cfg))
	bot := telegram.NewBot(api, engine, buildProvider(cfg))

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return bot.Run(runCtx)
}

// buildLedger picks the score backend: postgres over redis over memory.
func buildLedger(ctx context.Context, cfg config.Config) (game.ScoreLedger, func(), error) {
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return pgledger.NewScoreLedger(pool), pool.Close, nil
	}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisledger.NewScoreLedger(client), func() { _ = client.Close() }, nil
	}
	log.Printf("no score backend configured, keeping scores in memory")
	return memory.NewScoreLedger(), func() {}, nil
}

func buildProvider(cfg config.Config) *chgk.Prefetcher {
	timeout := config.Duration(cfg.Provider.Timeout, 10*time.Second)
	client := chgk.NewClient(cfg.Provider.BaseURL, timeout)
	return chgk.NewPrefetcher(client, cfg.Provider.Prefetch)
}

func buildTiming(cfg config.Config) game.Timing {
	timing := game.DefaultTiming(cfg.Game.Hints)
	timing.Grace = config.Duration(cfg.Game.Grace, timing.Grace)
	return timing
}
