package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/jee-key/brain-blast-bot/internal/domain"
	"github.com/jee-key/brain-blast-bot/internal/game"
	"github.com/jee-key/brain-blast-bot/internal/infra/memory"
	pgledger "github.com/jee-key/brain-blast-bot/internal/infra/postgres"
	pgmigrations "github.com/jee-key/brain-blast-bot/internal/infra/postgres/migrations"
	redisledger "github.com/jee-key/brain-blast-bot/internal/infra/redis"
)

func TestPostgresScoreLedgerEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	dsn, cleanup := startPostgres(t, ctx)
	defer cleanup()

	applyMigrations(t, ctx, dsn)

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	ledger := pgledger.NewScoreLedger(pool)
	for i := 0; i < 3; i++ {
		if err := ledger.Increment(ctx, 1, "Alice"); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if err := ledger.Increment(ctx, 2, "Bob"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	top, err := ledger.TopN(ctx, 5)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].DisplayName != "Alice" || top[0].Score != 3 || top[1].Score != 1 {
		t.Fatalf("unexpected rating %+v", top)
	}
}

// The rename on conflict matters: players change their Telegram display name.
func TestPostgresScoreLedgerUpdatesName(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	dsn, cleanup := startPostgres(t, ctx)
	defer cleanup()

	applyMigrations(t, ctx, dsn)

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	ledger := pgledger.NewScoreLedger(pool)
	if err := ledger.Increment(ctx, 7, "Old Name"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := ledger.Increment(ctx, 7, "New Name"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	top, err := ledger.TopN(ctx, 1)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 || top[0].DisplayName != "New Name" || top[0].Score != 2 {
		t.Fatalf("unexpected rating %+v", top)
	}
}

func TestRedisScoreLedgerEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	url, cleanup := startRedis(t, ctx)
	defer cleanup()

	client, err := redisClientFromURL(url)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	ledger := redisledger.NewScoreLedger(client)
	for i := 0; i < 2; i++ {
		if err := ledger.Increment(ctx, 1, "Alice"); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if err := ledger.Increment(ctx, 2, "Bob"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	top, err := ledger.TopN(ctx, 5)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].DisplayName != "Alice" || top[0].Score != 2 {
		t.Fatalf("unexpected rating %+v", top)
	}
}

// A full round against the real postgres ledger: correct answer scores once.
func TestCorrectAnswerScoresAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	dsn, cleanup := startPostgres(t, ctx)
	defer cleanup()

	applyMigrations(t, ctx, dsn)

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	timing := game.DefaultTiming(false)
	timing.Reading = func(domain.Question) time.Duration { return 0 }
	engine := game.NewEngine(memory.NewRoundStore(), pgledger.NewScoreLedger(pool), noopNotifier{}, timing)

	q := domain.Question{ID: "q1", Text: "Столица Франции?", Answer: "Париж"}
	if _, err := engine.StartRound(ctx, 42, 42, q, domain.ModeNormal); err != nil {
		t.Fatalf("start round: %v", err)
	}
	res := engine.SubmitAnswer(ctx, 42, "Alice", "париж")
	if res.Outcome != domain.OutcomeCorrect {
		t.Fatalf("expected correct, got %v", res.Outcome)
	}

	top, err := engine.Top(ctx, 5)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 || top[0].Score != 1 {
		t.Fatalf("unexpected rating %+v", top)
	}
}

type noopNotifier struct{}

func (noopNotifier) SendText(context.Context, int64, string, ...game.Button) error { return nil }
func (noopNotifier) SendPhoto(context.Context, int64, string, string) error        { return nil }

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
