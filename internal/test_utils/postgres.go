package test_utils

import (
	"context"
	"database/sql"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/solucal/solucal/internal/config"
	"github.com/solucal/solucal/internal/database"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func preparePostgresContainer() (*postgres.PostgresContainer, error) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithDatabase("solucal"),
		postgres.WithUsername("test_solucal"),
		postgres.WithPassword("test_solucal"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return nil, err
	}
	return pgContainer, nil
}

// TestWithDB sets up a Postgres instance, applies all migrations, and returns
// the container together with a connection factory.
func TestWithDB() (*postgres.PostgresContainer, func() *sql.DB) {
	ctx := context.Background()

	container, err := preparePostgresContainer()
	if err != nil {
		log.Printf("Failed to start postgres container: %v", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432/tcp")

	log.Infof("Postgres container started at %s:%d", host, port.Int())

	cfg := config.Database{
		Host:   host,
		Port:   port.Int(),
		User:   "test_solucal",
		Pass:   "test_solucal",
		Name:   "solucal",
		Schema: "public",
	}

	if err := database.Migrate(cfg); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	if err := container.Snapshot(ctx, postgres.WithSnapshotName("postgres-test-snapshot")); err != nil {
		log.Fatalf("Failed to snapshot postgres container: %v", err)
	}

	return container, func() *sql.DB {
		db, err := database.Open(cfg)
		if err != nil {
			log.Fatalf("Failed to open database connection: %v", err)
		}
		return db
	}
}
