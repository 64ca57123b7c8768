package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/zimbra-queue-guard/")
	v.AddConfigPath("$HOME/.zimbra-queue-guard")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("QUEUE_GUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Zimbra admin endpoint defaults
	v.SetDefault("zimbra.url", "")
	v.SetDefault("zimbra.admin_user", "")
	v.SetDefault("zimbra.admin_password", "")
	v.SetDefault("zimbra.server_name", "")
	v.SetDefault("zimbra.queue_name", "deferred")
	v.SetDefault("zimbra.scan_limit", 300)
	v.SetDefault("zimbra.insecure_skip_verify", false)

	// Monitoring defaults
	v.SetDefault("monitor.count_threshold", 10)
	v.SetDefault("monitor.domain_suffix", "")
	v.SetDefault("monitor.home_country", "BR")
	v.SetDefault("monitor.known_services", []string{
		"google.com", "outlook.com", "microsoft.com", "hotmail.com", "yahoo.com",
	})
	v.SetDefault("monitor.treat_unknown_as_foreign", true)
	v.SetDefault("monitor.poll_interval", "1m")
	v.SetDefault("monitor.run_once", false)

	// Geolocation defaults
	v.SetDefault("geo.base_url", "https://ipinfo.io")
	v.SetDefault("geo.token", "")
	v.SetDefault("geo.max_attempts", 3)

	// Telegram defaults
	v.SetDefault("telegram.api_url", "https://api.telegram.org")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")

	// State store defaults
	v.SetDefault("state.type", "file")
	v.SetDefault("state.file_path", "/var/lib/zimbra-queue-guard/address-ips.json")
	v.SetDefault("state.sqlite_path", "/var/lib/zimbra-queue-guard/address-ips.db")
	v.SetDefault("state.mysql_dsn", "user:password@tcp(localhost:3306)/queue_guard")
	v.SetDefault("state.redis_addr", "127.0.0.1:6379")
	v.SetDefault("state.redis_password", "")
	v.SetDefault("state.redis_db", 0)
	v.SetDefault("state.redis_key_prefix", "queue_guard:address_ips")

	// Alerting defaults
	v.SetDefault("alerts.dedup_window", "10m")

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_address", "0.0.0.0:9090")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
