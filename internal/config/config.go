package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" validate:"min=1,max=65535"`
		Host         string        `yaml:"host"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		IdleTimeout  time.Duration `yaml:"idle_timeout"`
		// GenerateTimeout bounds requests that wait on a model
		GenerateTimeout time.Duration `yaml:"generate_timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"server"`

	Backend struct {
		BaseURL string        `yaml:"base_url" validate:"required,url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"backend"`

	LLM struct {
		Provider         string        `yaml:"provider" validate:"oneof=openai claude gemini"`
		FallbackProvider string        `yaml:"fallback_provider" validate:"omitempty,oneof=openai claude gemini"`
		Model            string        `yaml:"model"`
		MaxTokens        int           `yaml:"max_tokens" validate:"min=1"`
		AnswerMaxTokens  int           `yaml:"answer_max_tokens" validate:"min=1"`
		Temperature      float64       `yaml:"temperature" validate:"gte=0,lte=1"`
		Timeout          time.Duration `yaml:"timeout"`
		RateLimit        int           `yaml:"rate_limit"` // requests per minute per provider
		UseServerKeys    bool          `yaml:"use_server_keys"`

		OpenAI struct {
			APIKey  string `yaml:"api_key"`
			BaseURL string `yaml:"base_url"`
		} `yaml:"openai"`

		Claude struct {
			APIKey string `yaml:"api_key"`
			Model  string `yaml:"model"`
		} `yaml:"claude"`

		Gemini struct {
			APIKey string `yaml:"api_key"`
			Model  string `yaml:"model"`
		} `yaml:"gemini"`
	} `yaml:"llm"`

	Quota struct {
		FreeProposalLimit int `yaml:"free_proposal_limit" validate:"min=1"`
	} `yaml:"quota"`

	Session struct {
		APIKeyCacheTTL  time.Duration `yaml:"api_key_cache_ttl"`
		TokenExpirySkew time.Duration `yaml:"token_expiry_skew"`
	} `yaml:"session"`

	Browser struct {
		HeadlessMode      bool          `yaml:"headless_mode"`
		StealthMode       bool          `yaml:"stealth_mode"`
		UserAgent         string        `yaml:"user_agent"`
		MaxTabs           int           `yaml:"max_tabs" validate:"min=1"`
		NavigationTimeout time.Duration `yaml:"navigation_timeout"`
		WatchInterval     time.Duration `yaml:"watch_interval"`
		UserDataDir       string        `yaml:"user_data_dir"`
		RunHistoryPerTab  int           `yaml:"run_history_per_tab" validate:"min=0"`
		RunHistoryTTL     time.Duration `yaml:"run_history_ttl"`
	} `yaml:"browser"`

	Fill struct {
		ReassertAttempts     int           `yaml:"reassert_attempts" validate:"min=0,max=10"`
		ReassertInitialDelay time.Duration `yaml:"reassert_initial_delay"`
		ReassertBackoff      float64       `yaml:"reassert_backoff" validate:"gte=1"`
	} `yaml:"fill"`

	Readiness struct {
		MinFormElements int           `yaml:"min_form_elements" validate:"min=1"`
		PollInterval    time.Duration `yaml:"poll_interval"`
		SettleDelay     time.Duration `yaml:"settle_delay"`
		MaxPolls        int           `yaml:"max_polls" validate:"min=1"`
	} `yaml:"readiness"`

	Orchestrator struct {
		ExtractionRetryDelay time.Duration `yaml:"extraction_retry_delay"`
		QuestionAttempts     int           `yaml:"question_attempts" validate:"min=1"`
		QuestionRetryDelay   time.Duration `yaml:"question_retry_delay"`
		FieldAttempts        int           `yaml:"field_attempts" validate:"min=1"`
		FieldRetryDelay      time.Duration `yaml:"field_retry_delay"`
		MaxDescriptionLength int           `yaml:"max_description_length" validate:"min=100"`
	} `yaml:"orchestrator"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		URL       string        `yaml:"url"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		Timeout   time.Duration `yaml:"timeout"`
		KeyPrefix string        `yaml:"key_prefix"`
	} `yaml:"redis"`
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
var bareEnvPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	s = envPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	s = bareEnvPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})

	return s
}

// Default returns a configuration populated with defaults only
func Default() *Config {
	config := &Config{}

	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 2 * time.Minute
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.GenerateTimeout = 3 * time.Minute
	config.Server.AllowedOrigins = []string{"*"}

	config.Backend.BaseURL = "http://localhost:5500"
	config.Backend.Timeout = 30 * time.Second

	config.LLM.Provider = "openai"
	config.LLM.FallbackProvider = "claude"
	config.LLM.Model = "gpt-3.5-turbo"
	config.LLM.MaxTokens = 500
	config.LLM.AnswerMaxTokens = 2000
	config.LLM.Temperature = 0.7
	config.LLM.Timeout = 60 * time.Second
	config.LLM.RateLimit = 30
	config.LLM.UseServerKeys = true
	config.LLM.OpenAI.BaseURL = "https://api.openai.com/v1"
	config.LLM.Claude.Model = "claude-3-5-haiku-latest"
	config.LLM.Gemini.Model = "gemini-1.5-flash"

	config.Quota.FreeProposalLimit = 50

	config.Session.APIKeyCacheTTL = 5 * time.Minute
	config.Session.TokenExpirySkew = 30 * time.Second

	config.Browser.HeadlessMode = false
	config.Browser.StealthMode = true
	config.Browser.MaxTabs = 4
	config.Browser.NavigationTimeout = 45 * time.Second
	config.Browser.WatchInterval = time.Second
	config.Browser.RunHistoryPerTab = 50
	config.Browser.RunHistoryTTL = 24 * time.Hour
	config.Browser.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	config.Fill.ReassertAttempts = 2
	config.Fill.ReassertInitialDelay = 250 * time.Millisecond
	config.Fill.ReassertBackoff = 1.8

	config.Readiness.MinFormElements = 1
	config.Readiness.PollInterval = 500 * time.Millisecond
	config.Readiness.SettleDelay = 1500 * time.Millisecond
	config.Readiness.MaxPolls = 40

	config.Orchestrator.ExtractionRetryDelay = 2 * time.Second
	config.Orchestrator.QuestionAttempts = 3
	config.Orchestrator.QuestionRetryDelay = 1500 * time.Millisecond
	config.Orchestrator.FieldAttempts = 3
	config.Orchestrator.FieldRetryDelay = time.Second
	config.Orchestrator.MaxDescriptionLength = 4000

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Redis.Timeout = 5 * time.Second
	config.Redis.KeyPrefix = "proposal-autofill:"

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
			}
		}
	}

	config.loadFromEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the struct-level constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if backendURL := os.Getenv("BACKEND_URL"); backendURL != "" {
		c.Backend.BaseURL = backendURL
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}

	if fallback := os.Getenv("LLM_FALLBACK_PROVIDER"); fallback != "" {
		c.LLM.FallbackProvider = fallback
	}

	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}

	// LLM_API_KEY applies to the primary provider
	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		switch c.LLM.Provider {
		case "claude":
			c.LLM.Claude.APIKey = apiKey
		case "gemini":
			c.LLM.Gemini.APIKey = apiKey
		default:
			c.LLM.OpenAI.APIKey = apiKey
		}
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		c.LLM.OpenAI.APIKey = apiKey
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		c.LLM.Claude.APIKey = apiKey
	}

	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		c.LLM.Gemini.APIKey = apiKey
	}

	if serverKeys := os.Getenv("LLM_USE_SERVER_KEYS"); serverKeys != "" {
		c.LLM.UseServerKeys = serverKeys == "true" || serverKeys == "1"
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if headless := os.Getenv("HEADLESS"); headless != "" {
		c.Browser.HeadlessMode = headless == "true" || headless == "1"
	}

	if maxTabs := os.Getenv("BROWSER_MAX_TABS"); maxTabs != "" {
		if n, err := strconv.Atoi(maxTabs); err == nil {
			c.Browser.MaxTabs = n
		}
	}

	if dataDir := os.Getenv("BROWSER_USER_DATA_DIR"); dataDir != "" {
		c.Browser.UserDataDir = dataDir
	}

	if limit := os.Getenv("FREE_PROPOSAL_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			c.Quota.FreeProposalLimit = n
		}
	}
}
