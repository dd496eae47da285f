package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. FXCLOUD_KAFKA_BROKERS.
const EnvPrefix = "FXCLOUD"

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Log         struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"1s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Ichimoku struct {
		TenkanPeriod  int `yaml:"tenkan_period" default:"9"`
		KijunPeriod   int `yaml:"kijun_period" default:"26"`
		SenkouBPeriod int `yaml:"senkou_b_period" default:"52"`
		Displacement  int `yaml:"displacement" default:"26"`
		// requests asking for fewer bars get DefaultCount instead
		MinCount     int `yaml:"min_count" default:"52"`
		DefaultCount int `yaml:"default_count" default:"200"`
		RateLimit    struct {
			RPS   float64 `yaml:"rps" default:"5"`
			Burst int     `yaml:"burst" default:"10"`
		} `yaml:"rate_limit"`
	} `yaml:"ichimoku"`
	Cache struct {
		SymbolsTTL time.Duration `yaml:"symbols_ttl" default:"5m"`
		Redis      struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Backend struct {
		Type         string        `yaml:"type" default:"clickhouse"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
	} `yaml:"backend"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
		BarsTopic    string   `yaml:"bars_topic" default:"fxcloud.bars"`
		SignalsTopic string   `yaml:"signals_topic" default:"fxcloud.signals"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"fxcloud-bars"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"100"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"fxcloud.bars.dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"10000"`
			MaxBytes   int           `yaml:"max_bytes" default:"10000000"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"fxcloud"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Bridge struct {
		// empty disables ingestion
		URL            string        `yaml:"url"`
		Token          string        `yaml:"token"`
		Symbols        []string      `yaml:"symbols"`
		Timeframes     []string      `yaml:"timeframes" default:"[\"H1\"]"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"bridge"`
}

// envOverrides lists the settings that may come from the environment. It
// carries no defaults so an unset variable never clobbers the YAML value.
type envOverrides struct {
	Environment        string   `envconfig:"ENVIRONMENT"`
	LogLevel           string   `envconfig:"LOG_LEVEL"`
	ServerPort         int      `envconfig:"SERVER_PORT"`
	Backend            string   `envconfig:"BACKEND"`
	KafkaEnabled       string   `envconfig:"KAFKA_ENABLED"`
	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS"`
	KafkaBarsTopic     string   `envconfig:"KAFKA_BARS_TOPIC"`
	KafkaSignalsTopic  string   `envconfig:"KAFKA_SIGNALS_TOPIC"`
	ClickHouseHost     string   `envconfig:"CLICKHOUSE_HOST"`
	ClickHousePort     int      `envconfig:"CLICKHOUSE_PORT"`
	ClickHouseDatabase string   `envconfig:"CLICKHOUSE_DATABASE"`
	ClickHouseUser     string   `envconfig:"CLICKHOUSE_USER"`
	ClickHousePassword string   `envconfig:"CLICKHOUSE_PASSWORD"`
	RedisAddr          string   `envconfig:"REDIS_ADDR"`
	RedisPassword      string   `envconfig:"REDIS_PASSWORD"`
	BridgeURL          string   `envconfig:"BRIDGE_URL"`
	BridgeToken        string   `envconfig:"BRIDGE_TOKEN"`
	BridgeSymbols      []string `envconfig:"BRIDGE_SYMBOLS"`
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads the YAML file, then applies .env and FXCLOUD_* overrides.
// A missing .env file is not an error.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, statErr := os.Stat(f); statErr != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	c.applyEnv(env)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(e envOverrides) {
	setString(&c.Environment, e.Environment)
	setString(&c.Log.Level, e.LogLevel)
	setInt(&c.Server.Port, e.ServerPort)
	setString(&c.Backend.Type, e.Backend)
	switch e.KafkaEnabled {
	case "true", "1":
		c.Kafka.Enabled = true
	case "false", "0":
		c.Kafka.Enabled = false
	}
	if len(e.KafkaBrokers) > 0 {
		c.Kafka.Brokers = e.KafkaBrokers
	}
	setString(&c.Kafka.BarsTopic, e.KafkaBarsTopic)
	setString(&c.Kafka.SignalsTopic, e.KafkaSignalsTopic)
	setString(&c.ClickHouse.Host, e.ClickHouseHost)
	setInt(&c.ClickHouse.Port, e.ClickHousePort)
	setString(&c.ClickHouse.Database, e.ClickHouseDatabase)
	setString(&c.ClickHouse.User, e.ClickHouseUser)
	setString(&c.ClickHouse.Password, e.ClickHousePassword)
	if e.RedisAddr != "" {
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Addr = e.RedisAddr
	}
	setString(&c.Cache.Redis.Password, e.RedisPassword)
	setString(&c.Bridge.URL, e.BridgeURL)
	setString(&c.Bridge.Token, e.BridgeToken)
	if len(e.BridgeSymbols) > 0 {
		c.Bridge.Symbols = e.BridgeSymbols
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// IngestionEnabled reports whether the bridge stream should run.
func (c *Config) IngestionEnabled() bool { return c.Bridge.URL != "" }

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && !c.Kafka.Enabled {
		return fmt.Errorf("backend.type 'kafka' requires kafka.enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Ichimoku.TenkanPeriod <= 0 || c.Ichimoku.KijunPeriod <= 0 || c.Ichimoku.SenkouBPeriod <= 0 {
		return fmt.Errorf("ichimoku periods must be positive")
	}
	if c.Ichimoku.Displacement < 0 {
		return fmt.Errorf("ichimoku.displacement must not be negative")
	}
	if c.Ichimoku.DefaultCount < c.Ichimoku.MinCount {
		return fmt.Errorf("ichimoku.default_count (%d) must be >= min_count (%d)", c.Ichimoku.DefaultCount, c.Ichimoku.MinCount)
	}
	if c.IngestionEnabled() && len(c.Bridge.Symbols) == 0 {
		return fmt.Errorf("bridge.symbols cannot be empty when bridge.url is set")
	}
	return nil
}
