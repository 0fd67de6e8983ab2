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

	"property-evaluation-service/internal/app"
	"property-evaluation-service/internal/domain"
	pgstore "property-evaluation-service/internal/infra/postgres"
	pgmigrations "property-evaluation-service/internal/infra/postgres/migrations"
	infraredis "property-evaluation-service/internal/infra/redis"
)

func TestEvaluationEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgstore.NewPropertyTypeLoader(pool)
	if err := loader.UpsertPropertyType(ctx, samplePropertyType()); err != nil {
		t.Fatalf("seed property type: %v", err)
	}
	saver := pgstore.NewEvaluationSaver(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	types := infraredis.NewPropertyTypeRepository(redisClient, loader, 5*time.Minute, nil)
	kv := infraredis.NewKV(redisClient, time.Hour)
	queue := app.NewSaveQueue(saver, 8, 2, 10*time.Second, nil)
	queue.Start(ctx)
	service := app.NewEvaluationService(types, kv, queue, nil, nil)

	evaluation, offer, err := service.Open(ctx, "u1", "house")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if offer != nil {
		t.Fatalf("expected no resume offer on first open")
	}
	if err := evaluation.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	surface := 120.0
	if err := evaluation.SavePropertyInfo(ctx, domain.PropertyInfo{Name: "Lake house", Surface: &surface}); err != nil {
		t.Fatalf("save property info: %v", err)
	}
	if err := evaluation.Answer(ctx, "good"); err != nil {
		t.Fatalf("answer roof: %v", err)
	}
	if err := evaluation.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}

	// A reconnect in the middle of the flow is offered the stored session.
	_, offer, err = service.Open(ctx, "u1", "house")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if offer == nil || offer.QuestionIndex != 1 || len(offer.Answers) != 1 {
		t.Fatalf("expected resume offer at question 2, got %+v", offer)
	}

	if err := evaluation.Answer(ctx, "poor"); err != nil {
		t.Fatalf("answer walls: %v", err)
	}
	if err := evaluation.Next(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}
	result, ok := evaluation.Result()
	if !ok {
		t.Fatalf("expected result")
	}
	// (5*1 + 1*2) / (5*1 + 5*2)
	if result.TotalScore != 7 || result.MaxPossibleScore != 15 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if err := queue.Close(); err != nil {
		t.Fatalf("close queue: %v", err)
	}
	n, err := saver.CountEvaluations(ctx, "u1", "house")
	if err != nil {
		t.Fatalf("count evaluations: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 saved evaluation, got %d", n)
	}
	if _, found, err := kv.Get(ctx, "u1:"+app.SessionKey("house")); err != nil || found {
		t.Fatalf("expected session cleared after save, found=%v err=%v", found, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "evaluation", "POSTGRES_PASSWORD": "evaluationpass", "POSTGRES_DB": "evaluationdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
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
	dsn := fmt.Sprintf("postgres://evaluation:evaluationpass@%s:%s/evaluationdb?sslmode=disable", host, port.Port())
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

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
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

func samplePropertyType() domain.PropertyType {
	choices := []domain.Answer{
		{ID: "poor", Text: "Poor", Weight: 1},
		{ID: "good", Text: "Good", Weight: 5},
	}
	return domain.PropertyType{
		ID:   "house",
		Name: "House",
		Categories: []domain.Category{
			{
				ID:   "structure",
				Name: "Structure",
				Questions: []domain.Question{
					{ID: "roof", Text: "Roof condition?", Weight: 1, Answers: choices},
					{ID: "walls", Text: "Wall condition?", Weight: 2, Answers: choices},
				},
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
