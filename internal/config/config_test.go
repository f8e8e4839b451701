package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  env: development\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "development", c.App.Env)
	assert.Equal(t, 2*time.Second, c.Engine.TypingQuiet)
	assert.Equal(t, 1500*time.Millisecond, c.Engine.CallTeardown)
	assert.Equal(t, 10*time.Second, c.Engine.RequestTimeout)
	assert.Equal(t, "nats://localhost:4222", c.NATS.URL)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: https://chat.example.com
  ws_url: wss://chat.example.com/ws
engine:
  typing_quiet_millis: 3000
kafka:
  brokers: ["k1:9092", "k2:9092"]
  topic_inbound: messages.inbound
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", c.Server.BaseURL)
	assert.Equal(t, 3*time.Second, c.Engine.TypingQuiet)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "messages.inbound", c.Kafka.TopicInbound)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
