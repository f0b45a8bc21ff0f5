package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ModeSync, cfg.EvaluationMode)
	assert.Equal(t, 64, cfg.MaxDepth)
	assert.Empty(t, cfg.DatabasePath)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"HTTP_ADDR":               ":9090",
		"GRPC_ADDR":               ":9091",
		"EVALUATION_MODE":         "async",
		"COMPUTING_POWER":         "8",
		"QUEUE_SIZE":              "16",
		"MAX_DEPTH":               "10",
		"DATABASE_PATH":           "data/calc.db",
		"TIME_ADDITION_MS":        "100",
		"TIME_SUBTRACTION_MS":     "200",
		"TIME_MULTIPLICATIONS_MS": "300",
		"TIME_DIVISIONS_MS":       "400",
		"SHUTDOWN_TIMEOUT_MS":     "1500",
		"LOG_LEVEL":               "debug",
		"LOG_PRETTY":              "true",
		"ORCHESTRATOR_GRPC_ADDR":  "orchestrator:9091",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, ":9091", cfg.GRPCAddr)
	assert.Equal(t, ModeAsync, cfg.EvaluationMode)
	assert.Equal(t, 8, cfg.ComputingPower)
	assert.Equal(t, 16, cfg.QueueSize)
	assert.Equal(t, 10, cfg.MaxDepth)
	assert.Equal(t, "data/calc.db", cfg.DatabasePath)
	assert.Equal(t, 100*time.Millisecond, cfg.TimeAddition)
	assert.Equal(t, 200*time.Millisecond, cfg.TimeSubtraction)
	assert.Equal(t, 300*time.Millisecond, cfg.TimeMultiplication)
	assert.Equal(t, 400*time.Millisecond, cfg.TimeDivision)
	assert.Equal(t, 1500*time.Millisecond, cfg.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, "orchestrator:9091", cfg.OrchestratorAddr)
}

func TestFromEnvInvalid(t *testing.T) {
	_, err := FromEnv(lookupFrom(map[string]string{
		"COMPUTING_POWER":  "zero",
		"MAX_DEPTH":        "-1",
		"TIME_ADDITION_MS": "-5",
		"EVALUATION_MODE":  "eventually",
		"LOG_PRETTY":       "sometimes",
	}))
	require.Error(t, err)
	for _, key := range []string{"COMPUTING_POWER", "MAX_DEPTH", "TIME_ADDITION_MS", "EVALUATION_MODE", "LOG_PRETTY"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoadConfigFromDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("QUEUE_SIZE=7\n"), 0o644))
	t.Setenv("QUEUE_SIZE", "")
	os.Unsetenv("QUEUE_SIZE")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.QueueSize)
}

func TestLoadConfigMissingFileIsFine(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
