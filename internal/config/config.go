package config

import "time"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Filter     FilterConfig     `yaml:"filter"`
	Generation GenerationConfig `yaml:"generation"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + itoa(d.Port) + "/" + d.Name + "?sslmode=disable"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	s := ""
	for i > 0 {
		s = string(rune('0'+i%10)) + s
		i /= 10
	}
	return s
}

type RedisConfig struct {
	Addresses []string `yaml:"addresses"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	PoolSize  int      `yaml:"pool_size"`
}

type TelemetryConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type FilterConfig struct {
	Secrets   SecretsFilterConfig   `yaml:"secrets"`
	Injection InjectionFilterConfig `yaml:"injection"`
	Policy    PolicyFilterConfig    `yaml:"policy"`
}

type SecretsFilterConfig struct {
	Enabled bool `yaml:"enabled"`
}

type InjectionFilterConfig struct {
	Enabled        bool    `yaml:"enabled"`
	BlockThreshold float64 `yaml:"block_threshold"`
	FlagThreshold  float64 `yaml:"flag_threshold"`
}

type PolicyFilterConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BundlePath        string        `yaml:"bundle_path"`
	EvaluationTimeout time.Duration `yaml:"evaluation_timeout"`
}

type GenerationConfig struct {
	// DefaultTimeout bounds a single vendor call. There are no retries at
	// this layer; the first terminal error is surfaced to the caller.
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	MaxPromptChars int           `yaml:"max_prompt_chars"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "metadesc",
			User:            "metadesc",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addresses: []string{"localhost:6379"},
			DB:        0,
			PoolSize:  50,
		},
		Telemetry: TelemetryConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
		Filter: FilterConfig{
			Secrets: SecretsFilterConfig{Enabled: true},
			Injection: InjectionFilterConfig{
				Enabled:        true,
				BlockThreshold: 0.9,
				FlagThreshold:  0.7,
			},
			Policy: PolicyFilterConfig{
				Enabled:           false,
				BundlePath:        "/etc/metadesc/policies",
				EvaluationTimeout: 100 * time.Millisecond,
			},
		},
		Generation: GenerationConfig{
			DefaultTimeout: 30 * time.Second,
			MaxPromptChars: 20000,
		},
	}
}
