// Package integration runs the reconcile store against a real PostgreSQL
// started with testcontainers.
package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shopadmin/backend/internal/infrastructure/config"
	"github.com/shopadmin/backend/internal/infrastructure/logger"
	"github.com/shopadmin/backend/internal/infrastructure/migration"
	"github.com/shopadmin/backend/internal/infrastructure/persistence"
)

const reconcileTables = "reconcile_outcomes, reconcile_runs, reconcile_settings"

// postgresServer is the container shared by every test in the package.
// It is started and migrated on first use.
var postgresServer struct {
	mu        sync.Mutex
	container *tcpostgres.PostgresContainer
	cfg       config.DatabaseConfig
}

// TestDB is a connection to the migrated shared database
type TestDB struct {
	*persistence.Database
}

// NewSharedTestDB opens a connection to the shared container through the
// same persistence.Open path the server uses.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	cfg := sharedDatabaseConfig(t)

	var opts []persistence.Option
	if os.Getenv("TEST_DB_DEBUG") != "" {
		opts = append(opts, persistence.WithGormLogger(
			logger.NewGormLogger(zaptest.NewLogger(t), gormlogger.Info)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	db, err := persistence.Open(ctx, &cfg, opts...)
	require.NoError(t, err, "connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	return &TestDB{Database: db}
}

func sharedDatabaseConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()

	postgresServer.mu.Lock()
	defer postgresServer.mu.Unlock()

	if postgresServer.container != nil {
		return postgresServer.cfg
	}

	ctx := context.Background()
	cfg := config.DatabaseConfig{
		User:            "postgres",
		Password:        "admin123",
		DBName:          "shopadmin_test",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 1,
	}

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(cfg.DBName),
		tcpostgres.WithUsername(cfg.User),
		tcpostgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	cfg.Host = host
	cfg.Port = port.Int()

	applyMigrations(t, &cfg)

	postgresServer.container = container
	postgresServer.cfg = cfg
	return cfg
}

func applyMigrations(t *testing.T, cfg *config.DatabaseConfig) {
	t.Helper()

	db, err := persistence.Open(context.Background(), cfg)
	require.NoError(t, err, "connect for migrations")
	defer func() { _ = db.Close() }()

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(t, err, "create migrator")
	require.NoError(t, m.Up(), "apply migrations")
}

// CleanTables empties the reconcile tables between tests
func (tdb *TestDB) CleanTables(t *testing.T) {
	t.Helper()
	require.NoError(t, tdb.DB.Exec("TRUNCATE TABLE "+reconcileTables+" CASCADE").Error,
		"truncate reconcile tables")
}

// CleanupSharedContainer terminates the shared container. Call it from
// TestMain.
func CleanupSharedContainer() {
	postgresServer.mu.Lock()
	defer postgresServer.mu.Unlock()

	if postgresServer.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = postgresServer.container.Terminate(ctx)
	postgresServer.container = nil
	postgresServer.cfg = config.DatabaseConfig{}
}
