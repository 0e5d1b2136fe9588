// Package config loads the products service configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then an
// optional .env file, then the process environment. The resulting Config is
// built once at startup and passed explicitly to every component.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ProductsContextKey names the required connection string
const ProductsContextKey = "ProductsContext"

// ErrMissingConnectionString is returned when ProductsContext is not configured
var ErrMissingConnectionString = fmt.Errorf("connection string '%s' not found", ProductsContextKey)

// Environment is the deployment mode of the process
type Environment string

const (
	Development Environment = "Development"
	Staging     Environment = "Staging"
	Production  Environment = "Production"
)

// ParseEnvironment maps a case-insensitive name onto an Environment.
// An empty name means Production.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return Development, nil
	case "staging":
		return Staging, nil
	case "production", "prod", "":
		return Production, nil
	default:
		return "", fmt.Errorf("unknown environment %q (want Development, Staging or Production)", s)
	}
}

// IsDevelopment reports whether diagnostic endpoints may be exposed
func (e Environment) IsDevelopment() bool {
	return e == Development
}

// ConnectionStrings holds named connection strings
type ConnectionStrings struct {
	ProductsContext string `mapstructure:"productscontext"`
}

// DatabaseConfig holds settings for the products database
type DatabaseConfig struct {
	Provider        string        `mapstructure:"provider"`
	MaxOpenConns    int           `mapstructure:"maxopenconns"`
	ConnMaxLifetime time.Duration `mapstructure:"connmaxlifetime"`
	SlowThreshold   time.Duration `mapstructure:"slowthreshold"`
	LogLevel        string        `mapstructure:"loglevel"`
}

// HTTPConfig holds listener and pipeline settings
type HTTPConfig struct {
	Port           int           `mapstructure:"port"`
	HTTPSPort      int           `mapstructure:"httpsport"`
	CertFile       string        `mapstructure:"certfile"`
	KeyFile        string        `mapstructure:"keyfile"`
	StaticDir      string        `mapstructure:"staticdir"`
	AllowedOrigins []string      `mapstructure:"allowedorigins"`
	ReadTimeout    time.Duration `mapstructure:"readtimeout"`
	WriteTimeout   time.Duration `mapstructure:"writetimeout"`
	IdleTimeout    time.Duration `mapstructure:"idletimeout"`
}

// TLSEnabled reports whether an HTTPS listener should be started
func (c HTTPConfig) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// RedisConfig enables the product read cache when Addr is set
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// KafkaConfig enables product change events when Brokers is set
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Config is the full service configuration
type Config struct {
	ServiceName       string            `mapstructure:"servicename"`
	Version           string            `mapstructure:"version"`
	Environment       Environment       `mapstructure:"environment"`
	LogLevel          string            `mapstructure:"loglevel"`
	ConnectionStrings ConnectionStrings `mapstructure:"connectionstrings"`
	Database          DatabaseConfig    `mapstructure:"database"`
	HTTP              HTTPConfig        `mapstructure:"http"`
	Tracing           TracingConfig     `mapstructure:"tracing"`
	Redis             RedisConfig       `mapstructure:"redis"`
	Kafka             KafkaConfig       `mapstructure:"kafka"`
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ConnectionStrings.ProductsContext) == "" {
		return ErrMissingConnectionString
	}
	if _, err := ParseEnvironment(string(c.Environment)); err != nil {
		return err
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port %d out of range", c.HTTP.Port)
	}
	if (c.HTTP.CertFile == "") != (c.HTTP.KeyFile == "") {
		return errors.New("both TLS certificate and key files must be set")
	}
	return nil
}

type loaderOptions struct {
	configFile string
	envFile    string
}

// Option customizes Load
type Option func(*loaderOptions)

// WithConfigFile sets an explicit YAML config file
func WithConfigFile(path string) Option {
	return func(o *loaderOptions) { o.configFile = path }
}

// WithEnvFile sets an explicit .env file
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// envBindings lists the environment names accepted for each key, first match wins
var envBindings = map[string][]string{
	"servicename":                       {"OTEL_SERVICE_NAME", "SERVICE_NAME"},
	"version":                           {"SERVICE_VERSION"},
	"environment":                       {"ENVIRONMENT", "APP_ENVIRONMENT", "ASPNETCORE_ENVIRONMENT", "DOTNET_ENVIRONMENT"},
	"loglevel":                          {"LOG_LEVEL"},
	"connectionstrings.productscontext": {"ConnectionStrings__ProductsContext", "CONNECTIONSTRINGS__PRODUCTSCONTEXT", "PRODUCTS_CONTEXT"},
	"database.provider":                 {"DB_PROVIDER"},
	"database.maxopenconns":             {"DB_MAX_OPEN_CONNS"},
	"database.connmaxlifetime":          {"DB_CONN_MAX_LIFETIME"},
	"database.slowthreshold":            {"DB_SLOW_THRESHOLD"},
	"database.loglevel":                 {"DB_LOG_LEVEL"},
	"http.port":                         {"HTTP_PORT"},
	"http.httpsport":                    {"HTTPS_PORT"},
	"http.certfile":                     {"TLS_CERT_FILE"},
	"http.keyfile":                      {"TLS_KEY_FILE"},
	"http.staticdir":                    {"STATIC_DIR"},
	"http.allowedorigins":               {"CORS_ALLOWED_ORIGINS"},
	"http.readtimeout":                  {"HTTP_READ_TIMEOUT"},
	"http.writetimeout":                 {"HTTP_WRITE_TIMEOUT"},
	"http.idletimeout":                  {"HTTP_IDLE_TIMEOUT"},
	"tracing.enabled":                   {"TRACING_ENABLED"},
	"tracing.endpoint":                  {"JAEGER_ENDPOINT"},
	"redis.addr":                        {"REDIS_ADDR"},
	"redis.password":                    {"REDIS_PASSWORD"},
	"redis.db":                          {"REDIS_DB"},
	"redis.ttl":                         {"REDIS_TTL"},
	"kafka.brokers":                     {"KAFKA_BROKERS"},
	"kafka.topic":                       {"KAFKA_TOPIC"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("servicename", "products-service")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("environment", string(Production))
	v.SetDefault("loglevel", "info")
	v.SetDefault("database.provider", "sqlite")
	v.SetDefault("database.slowthreshold", 200*time.Millisecond)
	v.SetDefault("database.loglevel", "warn")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.staticdir", "wwwroot")
	v.SetDefault("http.readtimeout", 15*time.Second)
	v.SetDefault("http.writetimeout", 30*time.Second)
	v.SetDefault("http.idletimeout", 60*time.Second)
	v.SetDefault("redis.ttl", 5*time.Minute)
	v.SetDefault("kafka.topic", "product-events")
}

// Load resolves the configuration. The returned Config has been validated;
// a missing ProductsContext yields ErrMissingConnectionString.
func Load(opts ...Option) (*Config, error) {
	o := loaderOptions{
		configFile: os.Getenv("CONFIG_FILE"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.configFile == "" && fileExists("config.yml") {
		o.configFile = "config.yml"
	}
	if o.envFile == "" && fileExists(".env") {
		o.envFile = ".env"
	}

	v := viper.New()
	setDefaults(v)

	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", o.configFile, err)
		}
	}

	// .env never overrides variables already present in the environment
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", o.envFile, err)
		}
	}

	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	env, err := ParseEnvironment(string(cfg.Environment))
	if err != nil {
		return nil, err
	}
	cfg.Environment = env
	cfg.HTTP.AllowedOrigins = splitList(cfg.HTTP.AllowedOrigins)
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList flattens comma separated entries and drops blanks
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
