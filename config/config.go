package config

import (
	stdErrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sreekar2307/clusterhealth/logger"
	"github.com/sreekar2307/clusterhealth/service/errors"
)

type (
	Config struct {
		Kafka   Kafka   `mapstructure:"kafka"`
		HTTP    HTTP    `mapstructure:"http"`
		GRPC    GRPC    `mapstructure:"grpc"`
		History History `mapstructure:"history"`
		Tracing Tracing `mapstructure:"tracing"`

		LogLevel        string        `mapstructure:"log_level"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		Once            bool          `mapstructure:"once"`
	}

	Kafka struct {
		BootstrapServers []string      `mapstructure:"bootstrap_servers"`
		SecurityProtocol string        `mapstructure:"security_protocol"`
		SASL             SASL          `mapstructure:"sasl"`
		TLS              TLS           `mapstructure:"tls"`
		ClientID         string        `mapstructure:"client_id"`
		MetadataTimeout  time.Duration `mapstructure:"metadata_timeout"`
	}

	SASL struct {
		Mechanism string `mapstructure:"mechanism"`
		Username  string `mapstructure:"username"`
		Password  string `mapstructure:"password"`
	}

	TLS struct {
		InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
	}

	HTTP struct {
		ListenerAddr string `mapstructure:"listener_addr"`
	}

	GRPC struct {
		ListenerAddr  string        `mapstructure:"listener_addr"`
		WatchInterval time.Duration `mapstructure:"watch_interval"`
	}

	History struct {
		Path      string `mapstructure:"path"`
		Retention int    `mapstructure:"retention"`
	}

	Tracing struct {
		Endpoint    string `mapstructure:"endpoint"`
		ServiceName string `mapstructure:"service_name"`
	}
)

const (
	ProtocolPlaintext     = "plaintext"
	ProtocolSSL           = "ssl"
	ProtocolSASLPlaintext = "sasl_plaintext"
	ProtocolSASLSSL       = "sasl_ssl"

	MechanismPlain       = "PLAIN"
	MechanismScramSHA256 = "SCRAM-SHA-256"
	MechanismScramSHA512 = "SCRAM-SHA-512"

	DefaultMetadataTimeout = 30 * time.Second
)

// flagKeys maps command line flag names onto config keys.
var flagKeys = map[string]string{
	"bootstrap.servers":        "kafka.bootstrap_servers",
	"security.protocol":        "kafka.security_protocol",
	"sasl.username":            "kafka.sasl.username",
	"sasl.password":            "kafka.sasl.password",
	"sasl.mechanism":           "kafka.sasl.mechanism",
	"tls.insecure_skip_verify": "kafka.tls.insecure_skip_verify",
	"client_id":                "kafka.client_id",
	"metadata_timeout":         "kafka.metadata_timeout",
	"http.listener_addr":       "http.listener_addr",
	"grpc.listener_addr":       "grpc.listener_addr",
	"grpc.watch_interval":      "grpc.watch_interval",
	"history.path":             "history.path",
	"history.retention":        "history.retention",
	"tracing.endpoint":         "tracing.endpoint",
	"log_level":                "log_level",
	"once":                     "once",
}

// Load parses args (without the program name), the optional config file and
// CLUSTERHEALTH_ prefixed environment variables into a validated Config.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("clusterhealth", pflag.ContinueOnError)
	fs.String("config", "config", "Path to config file")
	fs.StringSliceP("bootstrap.servers", "b", []string{"localhost:9092"}, "Bootstrap servers list in kafka format")
	fs.StringP("security.protocol", "s", ProtocolPlaintext, "Kafka security protocol (plaintext, ssl, sasl_plaintext, sasl_ssl)")
	fs.StringP("sasl.username", "u", "", "Username for authenticating with Kafka")
	fs.StringP("sasl.password", "p", "", "Password for authenticating with Kafka")
	fs.String("sasl.mechanism", MechanismPlain, "SASL mechanism (PLAIN, SCRAM-SHA-256, SCRAM-SHA-512)")
	fs.Bool("tls.insecure_skip_verify", false, "Skip broker certificate verification")
	fs.String("client_id", "clusterhealth", "Kafka client id")
	fs.Duration("metadata_timeout", DefaultMetadataTimeout, "Timeout for a metadata fetch eg (30s, 1m)")
	fs.String("http.listener_addr", "0.0.0.0:8080", "HTTP listener address")
	fs.String("grpc.listener_addr", "", "GRPC listener address, disabled when empty")
	fs.Duration("grpc.watch_interval", 10*time.Second, "Interval between evaluations of a GRPC health watch")
	fs.String("history.path", "", "Path of the report history database, disabled when empty")
	fs.Int("history.retention", 100, "Number of reports kept in history")
	fs.String("tracing.endpoint", "", "OTLP/HTTP traces endpoint url, disabled when empty")
	fs.String("log_level", "info", "Log level (debug, info, warn, error)")
	fs.Bool("once", false, "Run a single health check, print it and exit")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidConfiguration, err)
	}

	v := viper.New()
	v.SetEnvPrefix("CLUSTERHEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	pathToConfigFile := fs.Lookup("config").Value.String()
	filename := filepath.Base(pathToConfigFile)
	v.AddConfigPath(filepath.Dir(pathToConfigFile))
	v.SetConfigName(filename[0 : len(filename)-len(filepath.Ext(filename))])
	if fileExt := filepath.Ext(pathToConfigFile); len(fileExt) > 1 {
		v.SetConfigType(fileExt[1:])
	}

	v.SetDefault("tracing.service_name", "clusterhealth")
	v.SetDefault("shutdown_timeout", 10*time.Second)

	if err := v.ReadInConfig(); err != nil {
		if !stdErrors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) Validate() error {
	k := c.Kafka
	if len(k.BootstrapServers) == 0 {
		return invalid("at least one bootstrap server is required")
	}
	for _, s := range k.BootstrapServers {
		if strings.TrimSpace(s) == "" {
			return invalid("bootstrap servers must not contain empty addresses")
		}
	}
	switch k.SecurityProtocol {
	case ProtocolPlaintext, ProtocolSSL:
		if k.SASL.Username != "" || k.SASL.Password != "" {
			return invalid("sasl credentials require security protocol sasl_plaintext or sasl_ssl, got %s", k.SecurityProtocol)
		}
	case ProtocolSASLPlaintext, ProtocolSASLSSL:
		if k.SASL.Username == "" && k.SASL.Password == "" {
			return invalid("security protocol %s requires sasl.username and sasl.password", k.SecurityProtocol)
		}
	default:
		return invalid("unknown security protocol %q", k.SecurityProtocol)
	}
	if (k.SASL.Username == "") != (k.SASL.Password == "") {
		return invalid("username should be given together with password")
	}
	switch strings.ToUpper(k.SASL.Mechanism) {
	case MechanismPlain, MechanismScramSHA256, MechanismScramSHA512:
	default:
		return invalid("unknown sasl mechanism %q", k.SASL.Mechanism)
	}
	if k.MetadataTimeout <= 0 {
		return invalid("metadata timeout must be positive")
	}
	if c.HTTP.ListenerAddr == "" && c.GRPC.ListenerAddr == "" && !c.Once {
		return invalid("one of http.listener_addr, grpc.listener_addr or once is required")
	}
	if c.History.Path != "" && c.History.Retention <= 0 {
		return invalid("history retention must be positive")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return invalid("%v", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errors.ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
