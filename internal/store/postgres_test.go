package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// Postgres поднимается в контейнере; без Docker тест пропускается.
func TestPostgresContract(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres container skipped in -short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	var dsn string
	func() {
		defer func() {
			// testcontainers паникует, если Docker недоступен
			if r := recover(); r != nil {
				t.Skipf("docker not available: %v", r)
			}
		}()
		ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("busy"),
			tcpostgres.WithUsername("busy"),
			tcpostgres.WithPassword("busy"),
			tcpostgres.BasicWaitStrategies(),
		)
		if err != nil {
			t.Skipf("postgres container: %v", err)
		}
		t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })
		dsn, err = ctr.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}()

	// отдельная пара таблиц на каждый подтест
	var n atomic.Int32
	runContract(t, func(t *testing.T) Store {
		i := n.Add(1)
		s, err := OpenPostgres(dsn, fmt.Sprintf("ogloszenia_%d", i), fmt.Sprintf("opinie_%d", i))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
