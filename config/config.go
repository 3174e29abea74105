package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	Port         string `yaml:"port"`
	StoreBackend string `yaml:"store_backend"`

	DB DatabaseConfig `yaml:"database"`

	RedisHost        string `yaml:"redis_host"`
	RedisPassword    string `yaml:"redis_password"`
	KafkaBroker      string `yaml:"kafka_broker"`
	ElasticsearchURL string `yaml:"elasticsearch_url"`

	SentryDSN  string `yaml:"sentry_dsn"`
	AppEnv     string `yaml:"app_env"`
	AppVersion string `yaml:"app_version"`

	UploadDir    string   `yaml:"upload_dir"`
	StaticDir    string   `yaml:"static_dir"`
	TemplatesDir string   `yaml:"templates_dir"`
	CORSOrigins  []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Port     string `yaml:"port"`
}

// DSN returns the connection string in the key=value form accepted by the postgres driver.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.User, d.Password, d.Name, d.Port,
	)
}

func defaults() *Config {
	return &Config{
		Port:         "8080",
		StoreBackend: BackendMemory,
		UploadDir:    "uploads",
		StaticDir:    "static",
		TemplatesDir: "templates",
		CORSOrigins:  []string{"*"},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and finally environment variables. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Port, "PORT")
	setString(&c.StoreBackend, "STORE_BACKEND")

	setString(&c.DB.Host, "DB_HOST")
	setString(&c.DB.User, "DB_USER")
	setString(&c.DB.Password, "DB_PASSWORD")
	setString(&c.DB.Name, "DB_NAME")
	setString(&c.DB.Port, "DB_PORT")

	setString(&c.RedisHost, "REDIS_HOST")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setString(&c.KafkaBroker, "KAFKA_BROKER")
	setString(&c.ElasticsearchURL, "ELASTICSEARCH_URL")

	setString(&c.SentryDSN, "SENTRY_DSN")
	setString(&c.AppEnv, "APP_ENV")
	setString(&c.AppVersion, "APP_VERSION")

	setString(&c.UploadDir, "UPLOAD_DIR")
	setString(&c.StaticDir, "STATIC_DIR")
	setString(&c.TemplatesDir, "TEMPLATES_DIR")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	}
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
