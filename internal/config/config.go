package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
	Index     Index     `mapstructure:"index"`
	Inference Inference `mapstructure:"inference"`
	Notify    Notify    `mapstructure:"notify"`
	Scheduler Scheduler `mapstructure:"scheduler"`
	Security  Security  `mapstructure:"security"`
}

// Server holds HTTP server configuration
type Server struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Database holds database connection configuration
type Database struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// Index holds document index (Elasticsearch) configuration
type Index struct {
	Addresses []string `mapstructure:"addresses"`
	Name      string   `mapstructure:"name"`
}

// Inference holds text-generation endpoint configuration
type Inference struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

// Notify holds outbound alert targets. Either may be empty, in which case
// that delivery is skipped.
type Notify struct {
	WebhookURL string `mapstructure:"webhook_url"`
	SlackURL   string `mapstructure:"slack_url"`
}

// Scheduler holds background re-sync configuration
type Scheduler struct {
	IntervalMinutes int `mapstructure:"interval_minutes"`
}

// Security holds the key used to encrypt mailbox secrets at rest
type Security struct {
	EncryptionKey string `mapstructure:"encryption_key"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("index.addresses", []string{"http://localhost:9200"})
	viper.SetDefault("index.name", "emails")

	viper.SetDefault("inference.url", "http://127.0.0.1:11434/api/generate")
	viper.SetDefault("inference.model", "llama3.2")

	viper.SetDefault("scheduler.interval_minutes", 15)
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	// Index
	viper.BindEnv("index.addresses", "INDEX_ADDRESSES")
	viper.BindEnv("index.name", "INDEX_NAME")

	// Inference
	viper.BindEnv("inference.url", "INFERENCE_URL")
	viper.BindEnv("inference.model", "INFERENCE_MODEL")

	// Notifications
	viper.BindEnv("notify.webhook_url", "WEBHOOK_SITE_URL")
	viper.BindEnv("notify.slack_url", "SLACK_WEBHOOK_URL")

	// Scheduler
	viper.BindEnv("scheduler.interval_minutes", "SCHEDULER_INTERVAL_MINUTES")

	// Security
	viper.BindEnv("security.encryption_key", "ENCRYPTION_KEY")
}

// GetDSN returns the database connection string
func (d *Database) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	if len(c.Index.Addresses) == 0 || c.Index.Name == "" {
		return fmt.Errorf("index addresses and name are required")
	}

	if c.Inference.URL == "" || c.Inference.Model == "" {
		return fmt.Errorf("inference url and model are required")
	}

	if len(c.Security.EncryptionKey) != 32 {
		return fmt.Errorf("security encryption_key must be exactly 32 bytes")
	}

	if c.Scheduler.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}

	return nil
}
