package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\nserver:\n  port: 9090\n"))
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.ReadTimeout)
	assert.True(t, c.Server.CORS)
	assert.Equal(t, "memory", c.Store.Backend)
	assert.Equal(t, "carbon.samples", c.Kafka.SamplesTopic)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
	assert.NoError(t, c.Validate())
}

func TestParseKeepsExplicitFalse(t *testing.T) {
	c, err := Parse([]byte("environment: test\nserver:\n  cors: false\ncache:\n  enabled: false\n"))
	require.NoError(t, err)
	assert.False(t, c.Server.CORS)
	assert.False(t, c.Cache.Enabled)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
	}{
		{"clickhouse without host", "environment: x\nstore:\n  backend: clickhouse\n"},
		{"unknown store", "environment: x\nstore:\n  backend: sqlite\n"},
		{"kafka ingest without kafka", "environment: x\ningest:\n  backend: kafka\n"},
		{"kafka without brokers", "environment: x\nkafka:\n  enabled: true\n"},
		{"feed without assets", "environment: x\nfeed:\n  enabled: true\n  url: ws://feed\n"},
		{"collector without redis", "environment: x\nlogging:\n  collector:\n    enabled: true\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Parse([]byte(tc.yaml))
			require.NoError(t, err)
			assert.Error(t, c.Validate())
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)
	env := map[string]string{
		"CARBON_KAFKA_BROKERS": "k1:9092, k2:9092",
		"CARBON_HTTP_PORT":     "7000",
		"CARBON_FEED_ASSETS":   "mangrove,peatland",
	}
	require.NoError(t, c.applyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok }))
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 7000, c.Server.Port)
	assert.Equal(t, []string{"mangrove", "peatland"}, c.Feed.Assets)

	env["CARBON_HTTP_PORT"] = "abc"
	assert.Error(t, c.applyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok }))
}

func TestLoadExampleFile(t *testing.T) {
	path := filepath.Join("..", "..", "config", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("example config not present")
	}
	c, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, c.Environment)
}
