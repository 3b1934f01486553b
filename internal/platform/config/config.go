package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config is read from an optional YAML file (CONFIG_PATH or -config).
// Environment variables fill whatever the file leaves empty, then defaults apply.
type Config struct {
	Env      string      `yaml:"env" env:"SIGNUP_ENV" env-default:"local"`
	Server   Server      `yaml:"server"`
	Backend  Backend     `yaml:"backend"`
	Frontend Frontend    `yaml:"frontend"`
	Workflow Workflow    `yaml:"workflow"`
	Redis    RedisConfig `yaml:"redis"`
	Kafka    KafkaConfig `yaml:"kafka"`
}

// Server captures HTTP front-end configuration.
type Server struct {
	Addr            string        `yaml:"addr" env:"SIGNUP_ADDR" env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SIGNUP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Backend describes the account service the workflow talks to.
type Backend struct {
	BaseURL string        `yaml:"base_url" env:"SIGNUP_BACKEND_URL" env-default:"http://localhost:8000"`
	Timeout time.Duration `yaml:"timeout" env:"SIGNUP_BACKEND_TIMEOUT" env-default:"10s"`

	// Legacy display strings for backends that do not send the sent/verified
	// discriminator yet. Empty disables the shim.
	LegacySentMessage     string        `yaml:"legacy_sent_message" env:"SIGNUP_LEGACY_SENT_MESSAGE"`
	LegacyVerifiedMessage string        `yaml:"legacy_verified_message" env:"SIGNUP_LEGACY_VERIFIED_MESSAGE"`
	Breaker               BreakerConfig `yaml:"breaker"`
}

// Frontend is the web app users continue to after signing up. It is a
// different host from the backend API.
type Frontend struct {
	BaseURL    string `yaml:"base_url" env:"SIGNUP_FRONTEND_URL" env-default:"http://localhost:3000"`
	SignInPath string `yaml:"sign_in_path" env:"SIGNUP_SIGN_IN_PATH" env-default:"/auth/signIn"`
}

// SignInURL is where a completed signup redirects. An absolute SignInPath is
// used as-is.
func (f Frontend) SignInURL() string {
	if u, err := url.Parse(f.SignInPath); err == nil && u.IsAbs() {
		return f.SignInPath
	}
	return strings.TrimRight(f.BaseURL, "/") + "/" + strings.TrimLeft(f.SignInPath, "/")
}

type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" env:"SIGNUP_BREAKER_FAILURES" env-default:"5"`
	SuccessThreshold int           `yaml:"success_threshold" env:"SIGNUP_BREAKER_SUCCESSES" env-default:"1"`
	Cooldown         time.Duration `yaml:"cooldown" env:"SIGNUP_BREAKER_COOLDOWN" env-default:"10s"`
}

// Workflow bounds how long abandoned signup attempts are kept.
type Workflow struct {
	IdleTTL       time.Duration `yaml:"idle_ttl" env:"SIGNUP_WORKFLOW_TTL" env-default:"30m"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SIGNUP_WORKFLOW_SWEEP" env-default:"1m"`
	StepLockTTL   time.Duration `yaml:"step_lock_ttl" env:"SIGNUP_STEP_LOCK_TTL" env-default:"30s"`
}

// RedisConfig enables the shared workflow store and step lock. Empty URL keeps
// both in memory, which needs sticky routing when several instances run.
type RedisConfig struct {
	URL            string        `yaml:"url" env:"REDIS_URL"`
	PoolSize       int           `yaml:"pool_size" env:"REDIS_POOL_SIZE" env-default:"10"`
	MinIdleConns   int           `yaml:"min_idle_conns" env:"REDIS_MIN_IDLE_CONNS" env-default:"2"`
	DialTimeout    time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"REDIS_WRITE_TIMEOUT" env-default:"3s"`
	LockPrefix     string        `yaml:"lock_prefix" env:"REDIS_LOCK_PREFIX" env-default:"signupgate:lock"`
	WorkflowPrefix string        `yaml:"workflow_prefix" env:"REDIS_WORKFLOW_PREFIX" env-default:"signupgate:workflow"`
}

// KafkaConfig enables publishing workflow events. No brokers keeps events in memory.
type KafkaConfig struct {
	Brokers  []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic    string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"signup.workflow.events"`
	ClientID string   `yaml:"client_id" env:"KAFKA_CLIENT_ID" env-default:"signupgate"`
}

// Load reads configuration from path when given, otherwise from the
// environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env config: %w", err)
		}
		return &cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return &cfg, nil
}

// MustLoad is Load for main packages.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic("cannot read config: " + err.Error())
	}
	return cfg
}

// PathFromEnv returns CONFIG_PATH; flags take priority and are handled by main.
func PathFromEnv() string {
	return os.Getenv("CONFIG_PATH")
}
