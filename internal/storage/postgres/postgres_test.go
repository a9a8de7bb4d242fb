package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dmgcalc/internal/testutil"
)

func TestPool_TagsSessions(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	ctx := context.Background()

	var name string
	err := pc.RawPool.QueryRow(ctx, "SELECT current_setting('application_name')").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "dmgcalc", name)
}

func TestPool_HealthAndStats(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)

	require.NoError(t, pc.Pool.Health(context.Background(), 5*time.Second))
	stats := pc.Pool.Stats()
	assert.GreaterOrEqual(t, stats.Total, int32(1))
	assert.Equal(t, stats.Total, stats.Idle+stats.Acquired)
}
