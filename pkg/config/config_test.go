package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpplanner/pkg/application/services/mrp"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 30*time.Second, cfg.PlanLockTTL)

	planner, err := cfg.PlannerConfig()
	require.NoError(t, err)
	assert.Equal(t, mrp.AggregatedShortage, planner.Mode)
	assert.Equal(t, "WO-000001", planner.WorkOrderNumbers.Format(1))
	assert.Equal(t, "PR-000001", planner.RequisitionNumbers.Format(1))
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "/tmp/mrp.db")
	t.Setenv("PLAN_LOCK_TTL", "2m")
	t.Setenv("MRP_SHORTAGE_MODE", "per-call")
	t.Setenv("MRP_WORK_ORDER_PREFIX", "MO")
	t.Setenv("MRP_SEQUENCE_PADDING", "4")

	cfg, err := load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, 2*time.Minute, cfg.PlanLockTTL)

	planner, err := cfg.PlannerConfig()
	require.NoError(t, err)
	assert.Equal(t, mrp.PerCallShortage, planner.Mode)
	assert.Equal(t, "MO-0007", planner.WorkOrderNumbers.Format(7))
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DATABASE_DRIVER=memory\nMRP_SCENARIO_DIR=example/scenarios/scenario1\n"), 0o600))

	cfg, err := load(dir)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.DatabaseDriver)
	assert.Equal(t, "example/scenarios/scenario1", cfg.ScenarioDir)
}

func TestLoad_Rejects(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown driver", "DATABASE_DRIVER", "oracle"},
		{"unknown mode", "MRP_SHORTAGE_MODE", "greedy"},
		{"zero lock ttl", "PLAN_LOCK_TTL", "0s"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := load(t.TempDir())
			assert.Error(t, err)
		})
	}
}
