package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Agent    AgentConfig    `mapstructure:"agent"`
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AgentConfig struct {
	Identities             []string `mapstructure:"identities"`
	Timezone               string   `mapstructure:"timezone"`
	PollIntervalSeconds    int      `mapstructure:"poll_interval_seconds"`
	BatchSize              int      `mapstructure:"batch_size"`
	DefaultDurationMinutes int      `mapstructure:"default_duration_minutes"`
	FallbackTopic          string   `mapstructure:"fallback_topic"`
	DefaultLocation        string   `mapstructure:"default_location"`
	PruneAfterDays         int      `mapstructure:"prune_after_days"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type CalendarConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	DryRun          bool   `mapstructure:"dry_run"`
}

type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("agent.timezone", "UTC")
	v.SetDefault("agent.poll_interval_seconds", 150)
	v.SetDefault("agent.batch_size", 5)
	v.SetDefault("agent.default_duration_minutes", 30)
	v.SetDefault("agent.fallback_topic", "Scheduled Meeting")
	v.SetDefault("agent.default_location", "Google Meet / Virtual")
	v.SetDefault("agent.prune_after_days", 180)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("calendar.credentials_file", "credentials.json")
	v.SetDefault("metrics.listen_addr", ":9090")

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		config.Database = dbConfig
	}

	// Get other environment variables
	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	return &config, nil
}

// Validate checks the fields the agent cannot run without.
func (c *Config) Validate() error {
	if len(c.Agent.Identities) == 0 {
		return fmt.Errorf("agent.identities must list at least one monitored address")
	}
	for _, id := range c.Agent.Identities {
		if !strings.Contains(id, "@") {
			return fmt.Errorf("agent identity %q is not an email address", id)
		}
	}
	if _, err := time.LoadLocation(c.Agent.Timezone); err != nil {
		return fmt.Errorf("agent.timezone %q is not a valid IANA zone: %w", c.Agent.Timezone, err)
	}
	if c.Agent.PollIntervalSeconds <= 0 {
		return fmt.Errorf("agent.poll_interval_seconds must be positive")
	}
	if c.Agent.DefaultDurationMinutes <= 0 {
		return fmt.Errorf("agent.default_duration_minutes must be positive")
	}
	return nil
}
