package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		ReadTimeout    time.Duration `yaml:"readTimeout"`
		WriteTimeout   time.Duration `yaml:"writeTimeout"`
		AllowedOrigins []string      `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Storage struct {
		Endpoint     string `yaml:"endpoint"`
		Region       string `yaml:"region"`
		Bucket       string `yaml:"bucket"`
		Prefix       string `yaml:"prefix"`
		AccessKey    string `yaml:"accessKey"`
		SecretKey    string `yaml:"secretKey"`
		SessionToken string `yaml:"sessionToken"`
		UseSSL       bool   `yaml:"useSSL"`
	} `yaml:"storage"`

	Inference struct {
		Provider string        `yaml:"provider"` // bedrock | openai | gemini | stub
		Model    string        `yaml:"model"` // empty: provider default
		Region   string        `yaml:"region"`
		Endpoint string        `yaml:"endpoint"`
		APIKey   string        `yaml:"apiKey"`
		BaseURL  string        `yaml:"baseURL"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"inference"`

	Table struct {
		Driver  string `yaml:"driver"` // mysql | postgres | redis
		Name    string `yaml:"name"`
		Migrate bool   `yaml:"migrate"`

		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		SSLMode  string `yaml:"sslMode"`

		RedisAddr     string `yaml:"redisAddr"`
		RedisPassword string `yaml:"redisPassword"`
		RedisDB       int    `yaml:"redisDB"`
	} `yaml:"table"`

	Gateway struct {
		Endpoint string        `yaml:"endpoint"`
		APIKey   string        `yaml:"apiKey"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"gateway"`

	Auth struct {
		APIKeys string `yaml:"apiKeys"` // name:key,name2:key2
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 90 * time.Second
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Storage.Endpoint = "s3.amazonaws.com"
	c.Storage.Region = "us-east-1"
	c.Storage.Bucket = "traffic-sign-project-bucket"
	c.Storage.Prefix = "inputs/"
	c.Storage.UseSSL = true
	c.Inference.Provider = "bedrock"
	c.Inference.Region = "us-east-1"
	c.Inference.Timeout = 60 * time.Second
	c.Table.Driver = "mysql"
	c.Table.Name = "traffic_sign_recommendations"
	c.Table.Host = "127.0.0.1"
	c.Table.Port = 3306
	c.Table.SSLMode = "disable"
	c.Table.RedisAddr = "127.0.0.1:6379"
	c.Gateway.Timeout = 60 * time.Second
	c.RateLimit.Capacity = 30
	c.RateLimit.RefillRate = 1
	return &c
}

// Load baca file config.yaml di atas Default, lalu override dari env.
// File yang tidak ada bukan error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	var err error
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && err == nil {
			n, e := strconv.Atoi(v)
			if e != nil {
				err = fmt.Errorf("env %s: %w", key, e)
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok && err == nil {
			d, e := time.ParseDuration(v)
			if e != nil {
				err = fmt.Errorf("env %s: %w", key, e)
				return
			}
			*dst = d
		}
	}

	num("PORT", &c.Server.Port)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	str("STORAGE_ENDPOINT", &c.Storage.Endpoint)
	str("STORAGE_REGION", &c.Storage.Region)
	str("STORAGE_BUCKET", &c.Storage.Bucket)
	str("STORAGE_PREFIX", &c.Storage.Prefix)
	str("STORAGE_ACCESS_KEY", &c.Storage.AccessKey)
	str("STORAGE_SECRET_KEY", &c.Storage.SecretKey)
	str("STORAGE_SESSION_TOKEN", &c.Storage.SessionToken)
	if v, ok := os.LookupEnv("STORAGE_USE_SSL"); ok {
		b, e := strconv.ParseBool(v)
		if e != nil && err == nil {
			err = fmt.Errorf("env STORAGE_USE_SSL: %w", e)
		}
		c.Storage.UseSSL = b
	}

	str("INFERENCE_PROVIDER", &c.Inference.Provider)
	str("INFERENCE_MODEL", &c.Inference.Model)
	str("INFERENCE_REGION", &c.Inference.Region)
	str("INFERENCE_ENDPOINT", &c.Inference.Endpoint)
	str("INFERENCE_BASE_URL", &c.Inference.BaseURL)
	dur("INFERENCE_TIMEOUT", &c.Inference.Timeout)

	// provider key, hanya untuk provider yang aktif
	switch c.Inference.Provider {
	case "bedrock":
		str("AWS_BEARER_TOKEN_BEDROCK", &c.Inference.APIKey)
	case "openai":
		str("OPENAI_API_KEY", &c.Inference.APIKey)
	case "gemini":
		str("GEMINI_API_KEY", &c.Inference.APIKey)
	}

	str("TABLE_DRIVER", &c.Table.Driver)
	str("TABLE_NAME", &c.Table.Name)
	str("TABLE_HOST", &c.Table.Host)
	num("TABLE_PORT", &c.Table.Port)
	str("TABLE_USER", &c.Table.User)
	str("TABLE_PASSWORD", &c.Table.Password)
	str("TABLE_DATABASE", &c.Table.Database)
	str("TABLE_SSL_MODE", &c.Table.SSLMode)
	str("TABLE_REDIS_ADDR", &c.Table.RedisAddr)
	str("TABLE_REDIS_PASSWORD", &c.Table.RedisPassword)
	num("TABLE_REDIS_DB", &c.Table.RedisDB)

	str("GATEWAY_ENDPOINT", &c.Gateway.Endpoint)
	str("GATEWAY_API_KEY", &c.Gateway.APIKey)
	dur("GATEWAY_TIMEOUT", &c.Gateway.Timeout)

	str("API_KEYS", &c.Auth.APIKeys)
	return err
}

// Validate checks driver and provider names and the port range.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Inference.Provider {
	case "bedrock", "openai", "gemini", "stub":
	default:
		errs = append(errs, fmt.Errorf("unknown inference.provider %q", c.Inference.Provider))
	}
	switch c.Table.Driver {
	case "mysql", "postgres", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown table.driver %q", c.Table.Driver))
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		errs = append(errs, errors.New("storage.bucket is required"))
	}
	return errors.Join(errs...)
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Table.User,
		c.Table.Password,
		c.Table.Host,
		c.Table.Port,
		c.Table.Database,
	)
}

// PostgresDSN builds a lib/pq keyword/value DSN.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Table.Host,
		c.Table.Port,
		c.Table.User,
		c.Table.Password,
		c.Table.Database,
		c.Table.SSLMode,
	)
}

// Path returns the config file path from CONFIG_PATH, default config.yaml.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "config.yaml"
}
