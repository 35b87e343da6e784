package pg_test

import (
	"context"
	"os"
	"testing"
	"time"

	"leveltx-service/internal/config"
	"leveltx-service/internal/infrastructure/migrations"
	"leveltx-service/internal/infrastructure/pg"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func withPostgres(t *testing.T) (*pg.Factory, config.DataSource) {
	t.Helper()
	if os.Getenv("TESTCONTAINERS") == "" {
		t.Skip("set TESTCONTAINERS=1 to run containerized PG tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := postgres.RunContainer(ctx,
		postgres.WithDatabase("levels"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	src := config.DataSource{Name: "container", Driver: config.DriverPGX, URL: dsn}
	require.NoError(t, migrations.Up(ctx, src))

	f := pg.NewFactory(nil)
	t.Cleanup(func() {
		f.Close()
		_ = container.Terminate(context.Background())
	})
	return f, src
}
