package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/shared-lists/internal/api"
	"github.com/dom/shared-lists/internal/config"
	"github.com/dom/shared-lists/internal/repository"
	repoPostgres "github.com/dom/shared-lists/internal/repository/postgres"
	"github.com/dom/shared-lists/internal/service"
	"github.com/dom/shared-lists/internal/websocket"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB starts a PostgreSQL container and migrates the schema. It is
// skipped under -short since it needs a Docker daemon.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_shared_lists"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"shopping_list_items",
		"shopping_lists",
		"user_sessions",
		"users",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:             "0",
		Environment:      "test",
		LogLevel:         "error",
		CORSOrigins:      []string{"*"},
		JWTSecret:        "test-jwt-secret-key-for-testing-only",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    time.Hour,
		BcryptCost:       4, // bcrypt.MinCost keeps tests fast
		AuthRateLimitRPM: 1000,
		WSSendBuffer:     64,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Store    *MemoryStore
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
}

// NewTestServer runs the full router over the in-memory store.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	store := NewMemoryStore()
	ts := newTestServer(t, store.Repositories(), TestConfig())
	ts.Store = store
	return ts
}

// NewDBTestServer runs the full router over a PostgreSQL container.
func NewDBTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	ts := newTestServer(t, repoPostgres.NewRepositories(testDB.DB), TestConfig())
	ts.DB = testDB
	return ts
}

func newTestServer(t *testing.T, repos *repository.Repositories, cfg *config.Config) *TestServer {
	t.Helper()

	log := zap.NewNop()

	hub := websocket.NewHub(repos.List, log)
	go hub.Run()

	services := service.NewServices(repos, cfg, websocket.NewEventEmitter(hub), log)
	router := api.NewRouter(services, hub, cfg, log)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Config:   cfg,
	}

	t.Cleanup(func() {
		hub.Stop()
		server.Close()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + ts.Server.URL[4:] // Replace "http" with "ws"
	return fmt.Sprintf("%s/api/v1/ws?token=%s", wsURL, token)
}
