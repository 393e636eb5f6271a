package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents application configuration
type Config struct {
	// Matrix configuration
	Matrix MatrixConfig

	// OpenAI-compatible completion API configuration
	OpenAI OpenAIConfig

	// Store configuration
	Store StoreConfig

	// Worker configuration
	Worker WorkerConfig

	// HTTP API configuration
	API APIConfig

	// Debug mode
	Debug bool
}

// MatrixConfig contains homeserver credentials
type MatrixConfig struct {
	Homeserver string
	Username   string
	Password   string
	BotUserID  string // full Matrix ID of the bot, e.g. "@friday:example.org"
}

// OpenAIConfig contains completion API configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// StoreConfig contains persistence configuration
type StoreConfig struct {
	DBPath string
}

// WorkerConfig contains processing loop configuration
type WorkerConfig struct {
	PollInterval    time.Duration
	SummaryCooldown time.Duration
	FetchLimit      int // max message events fetched per room per run
}

// APIConfig contains HTTP API configuration
type APIConfig struct {
	Addr        string
	BearerToken string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	dbPath := os.Getenv("FRIDAY_DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".friday", "friday.db")
	}

	pollSeconds := 5
	if val := os.Getenv("POLL_INTERVAL_SECONDS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			pollSeconds = parsed
		}
	}

	cooldownMinutes := 15
	if val := os.Getenv("SUMMARY_COOLDOWN_MINUTES"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			cooldownMinutes = parsed
		}
	}

	fetchLimit := 1000
	if val := os.Getenv("FETCH_LIMIT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			fetchLimit = parsed
		}
	}

	apiAddr := os.Getenv("API_ADDR")
	if apiAddr == "" {
		apiAddr = ":8080"
	}

	return &Config{
		Matrix: MatrixConfig{
			Homeserver: os.Getenv("MATRIX_HOMESERVER"),
			Username:   os.Getenv("MATRIX_USERNAME"),
			Password:   os.Getenv("MATRIX_PASSWORD"),
			BotUserID:  os.Getenv("MATRIX_BOT_USER_ID"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   os.Getenv("OPENAI_MODEL"),
		},
		Store: StoreConfig{
			DBPath: dbPath,
		},
		Worker: WorkerConfig{
			PollInterval:    time.Duration(pollSeconds) * time.Second,
			SummaryCooldown: time.Duration(cooldownMinutes) * time.Minute,
			FetchLimit:      fetchLimit,
		},
		API: APIConfig{
			Addr:        apiAddr,
			BearerToken: os.Getenv("API_BEARER_TOKEN"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Matrix.Homeserver == "" {
		return &ConfigError{Field: "MATRIX_HOMESERVER", Message: "required"}
	}
	if c.Matrix.Username == "" || c.Matrix.Password == "" {
		return &ConfigError{Field: "MATRIX_USERNAME/MATRIX_PASSWORD", Message: "required"}
	}
	if c.Matrix.BotUserID == "" {
		return &ConfigError{Field: "MATRIX_BOT_USER_ID", Message: "required"}
	}
	if c.OpenAI.APIKey == "" {
		return &ConfigError{Field: "OPENAI_API_KEY", Message: "required"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
