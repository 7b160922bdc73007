package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energinet-labs/prosumer/core/model"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
data_dir: ./data
question: question_1c
num_hours: 24
scenarios: [base, high_price]
seed: 42
metrics:
  prometheus_addr: ":9090"
mqtt:
  broker: tcp://broker:1883
  topic: prosumer/schedule
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, model.VariantDiscomfort, cfg.Variant())
	assert.Equal(t, []string{"base", "high_price"}, cfg.Scenarios)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, ":9090", cfg.Metrics.PrometheusAddr)
	require.NotNil(t, cfg.MQTT)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	// Solver defaults applied.
	assert.Greater(t, cfg.Solver.Tol, 0.0)
}

func TestLoadJSONDefaults(t *testing.T) {
	path := writeConfig(t, "config.json", `{"data_dir":"./data","question":"question_1a"}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.NumHours)
	assert.Equal(t, int64(1), cfg.Seed)
	assert.Nil(t, cfg.MQTT)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PROSUMER_QUESTION", "question_2b")
	path := writeConfig(t, "config.yaml", "data_dir: ./data\nquestion: question_1a\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.VariantSizing, cfg.Variant())
}

func TestLoadRejectsBadQuestion(t *testing.T) {
	path := writeConfig(t, "config.yaml", "data_dir: ./data\nquestion: question_9z\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", "data_dir = './data'\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateMissingDataDir(t *testing.T) {
	cfg := &Config{Question: "question_1a"}
	cfg.SetDefaults()
	assert.Error(t, cfg.Validate())
}
