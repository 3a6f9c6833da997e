package config_test

import (
	stdErrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sreekar2307/clusterhealth/config"
	"github.com/sreekar2307/clusterhealth/service/errors"
)

func missingConfig(t *testing.T) string {
	t.Helper()
	return "--config=" + filepath.Join(t.TempDir(), "absent.yaml")
}

func TestLoadDefaults(t *testing.T) {
	conf, err := config.Load([]string{missingConfig(t)})
	require.NoError(t, err)

	require.Equal(t, []string{"localhost:9092"}, conf.Kafka.BootstrapServers)
	require.Equal(t, config.ProtocolPlaintext, conf.Kafka.SecurityProtocol)
	require.Equal(t, config.MechanismPlain, conf.Kafka.SASL.Mechanism)
	require.Equal(t, 30*time.Second, conf.Kafka.MetadataTimeout)
	require.Equal(t, "clusterhealth", conf.Kafka.ClientID)
	require.Equal(t, "0.0.0.0:8080", conf.HTTP.ListenerAddr)
	require.Empty(t, conf.GRPC.ListenerAddr)
	require.Equal(t, 10*time.Second, conf.GRPC.WatchInterval)
	require.Empty(t, conf.History.Path)
	require.Equal(t, 100, conf.History.Retention)
	require.Equal(t, "clusterhealth", conf.Tracing.ServiceName)
	require.Equal(t, 10*time.Second, conf.ShutdownTimeout)
	require.Equal(t, "info", conf.LogLevel)
	require.False(t, conf.Once)
}

func TestLoadFlags(t *testing.T) {
	conf, err := config.Load([]string{
		missingConfig(t),
		"-b", "k1:9092,k2:9092",
		"-s", "sasl_ssl",
		"-u", "alice",
		"-p", "secret",
		"--sasl.mechanism", "SCRAM-SHA-512",
		"--metadata_timeout", "5s",
		"--grpc.listener_addr", ":9000",
		"--once",
	})
	require.NoError(t, err)

	require.Equal(t, []string{"k1:9092", "k2:9092"}, conf.Kafka.BootstrapServers)
	require.Equal(t, config.ProtocolSASLSSL, conf.Kafka.SecurityProtocol)
	require.Equal(t, "alice", conf.Kafka.SASL.Username)
	require.Equal(t, "secret", conf.Kafka.SASL.Password)
	require.Equal(t, config.MechanismScramSHA512, conf.Kafka.SASL.Mechanism)
	require.Equal(t, 5*time.Second, conf.Kafka.MetadataTimeout)
	require.Equal(t, ":9000", conf.GRPC.ListenerAddr)
	require.True(t, conf.Once)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("CLUSTERHEALTH_KAFKA_BOOTSTRAP_SERVERS", "env1:9092,env2:9092")
	t.Setenv("CLUSTERHEALTH_HTTP_LISTENER_ADDR", ":8181")
	t.Setenv("CLUSTERHEALTH_LOG_LEVEL", "debug")

	conf, err := config.Load([]string{missingConfig(t)})
	require.NoError(t, err)
	require.Equal(t, []string{"env1:9092", "env2:9092"}, conf.Kafka.BootstrapServers)
	require.Equal(t, ":8181", conf.HTTP.ListenerAddr)
	require.Equal(t, "debug", conf.LogLevel)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clusterhealth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kafka:
  bootstrap_servers: ["file:9092"]
  metadata_timeout: 12s
history:
  path: /tmp/history.db
  retention: 7
shutdown_timeout: 3s
`), 0o600))

	conf, err := config.Load([]string{"--config", path})
	require.NoError(t, err)
	require.Equal(t, []string{"file:9092"}, conf.Kafka.BootstrapServers)
	require.Equal(t, 12*time.Second, conf.Kafka.MetadataTimeout)
	require.Equal(t, "/tmp/history.db", conf.History.Path)
	require.Equal(t, 7, conf.History.Retention)
	require.Equal(t, 3*time.Second, conf.ShutdownTimeout)
}

func TestLoadRejectsInvalidConfiguration(t *testing.T) {
	cases := map[string][]string{
		"username without password":   {"-s", "sasl_plaintext", "-u", "alice"},
		"password without username":   {"-s", "sasl_plaintext", "-p", "secret"},
		"sasl protocol without creds": {"-s", "sasl_ssl"},
		"creds with plaintext":        {"-u", "alice", "-p", "secret"},
		"unknown protocol":            {"-s", "carrier_pigeon"},
		"unknown mechanism":           {"-s", "sasl_ssl", "-u", "a", "-p", "b", "--sasl.mechanism", "GSSAPI"},
		"zero timeout":                {"--metadata_timeout", "0s"},
		"no listener":                 {"--http.listener_addr", ""},
		"empty bootstrap address":     {"-b", " "},
		"unknown log level":           {"--log_level", "loud"},
		"unknown flag":                {"--bogus"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(append([]string{missingConfig(t)}, args...))
			require.Error(t, err)
			require.True(t, stdErrors.Is(err, errors.ErrInvalidConfiguration), "got %v", err)
		})
	}
}
