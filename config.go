package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`

	SunoAPIKey  string `yaml:"suno_api_key"`
	SunoBaseURL string `yaml:"suno_base_url"`
	SunoModel   string `yaml:"suno_model"`

	ScreenshotDir string `yaml:"screenshot_dir"`
	DBPath        string `yaml:"db_path"`

	TickIntervalMS     int     `yaml:"tick_interval_ms"`
	DiffThreshold      float64 `yaml:"diff_threshold"`       // fraction of max fingerprint distance
	LargeDiffThreshold float64 `yaml:"large_diff_threshold"` // fraction that overrides the cooldown
	ConfirmCount       int     `yaml:"confirm_count"`
	CooldownSeconds    int     `yaml:"cooldown_seconds"`

	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	PollMaxIterations   int `yaml:"poll_max_iterations"`

	Genres    []string `yaml:"genres"`
	AvoidTags []string `yaml:"avoid_tags"`
	Vocals    bool     `yaml:"vocals"`
	SillyMode bool     `yaml:"silly_mode"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	MaintenanceSchedule string `yaml:"maintenance_schedule"`
	RetentionDays       int    `yaml:"retention_days"`

	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`

	Timezone string         `yaml:"timezone"`
	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.SunoAPIKey, "SUNO_API_KEY")
	envOverride(&cfg.SunoBaseURL, "SUNO_BASE_URL")
	envOverride(&cfg.SunoModel, "SUNO_MODEL")
	envOverride(&cfg.ScreenshotDir, "SCREENSHOT_DIR")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverrideInt(&cfg.TickIntervalMS, "TICK_INTERVAL_MS")
	envOverrideFloat(&cfg.DiffThreshold, "DIFF_THRESHOLD")
	envOverrideFloat(&cfg.LargeDiffThreshold, "LARGE_DIFF_THRESHOLD")
	envOverrideInt(&cfg.ConfirmCount, "CONFIRM_COUNT")
	envOverrideInt(&cfg.CooldownSeconds, "COOLDOWN_SECONDS")
	envOverrideInt(&cfg.PollIntervalSeconds, "POLL_INTERVAL_SECONDS")
	envOverrideInt(&cfg.PollMaxIterations, "POLL_MAX_ITERATIONS")
	envOverrideBool(&cfg.Vocals, "VOCALS")
	envOverrideBool(&cfg.SillyMode, "SILLY_MODE")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.MaintenanceSchedule, "MAINTENANCE_SCHEDULE")
	envOverrideInt(&cfg.RetentionDays, "RETENTION_DAYS")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.Timezone, "TIMEZONE")

	if names := os.Getenv("GENRES"); names != "" {
		cfg.Genres = nil
		for _, name := range strings.Split(names, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				cfg.Genres = append(cfg.Genres, name)
			}
		}
	}

	// Defaults
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = "./temp"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./screenbeat.db"
	}
	if cfg.TickIntervalMS == 0 {
		cfg.TickIntervalMS = 2000
	}
	if cfg.DiffThreshold == 0 {
		cfg.DiffThreshold = 0.10
	}
	if cfg.LargeDiffThreshold == 0 {
		cfg.LargeDiffThreshold = 0.30
	}
	if cfg.ConfirmCount == 0 {
		cfg.ConfirmCount = 2
	}
	if cfg.CooldownSeconds == 0 {
		cfg.CooldownSeconds = 12
	}
	if cfg.PollIntervalSeconds == 0 {
		cfg.PollIntervalSeconds = 5
	}
	if cfg.PollMaxIterations == 0 {
		cfg.PollMaxIterations = 36
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 30
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate required fields
	if cfg.SunoAPIKey == "" {
		log.Fatalf("Required config 'suno_api_key' is not set (via config.yaml or env var)")
	}
	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("openai_api_key is required when llm_provider=openai")
		}
	default:
		log.Fatalf("llm_provider must be 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}

	if cfg.DiffThreshold <= 0 || cfg.DiffThreshold >= 1 {
		log.Fatalf("invalid diff_threshold '%f': must be between 0 and 1 exclusive", cfg.DiffThreshold)
	}
	if cfg.LargeDiffThreshold <= cfg.DiffThreshold || cfg.LargeDiffThreshold >= 1 {
		log.Fatalf("invalid large_diff_threshold '%f': must be above diff_threshold and below 1", cfg.LargeDiffThreshold)
	}
	if cfg.TickIntervalMS < 100 {
		log.Fatalf("invalid tick_interval_ms '%d': must be >= 100", cfg.TickIntervalMS)
	}
	if cfg.ConfirmCount < 1 {
		log.Fatalf("invalid confirm_count '%d': must be >= 1", cfg.ConfirmCount)
	}
	if cfg.CooldownSeconds < 0 {
		log.Fatalf("invalid cooldown_seconds '%d': must be >= 0", cfg.CooldownSeconds)
	}
	if cfg.PollIntervalSeconds < 1 {
		log.Fatalf("invalid poll_interval_seconds '%d': must be >= 1", cfg.PollIntervalSeconds)
	}
	if cfg.PollMaxIterations < 1 {
		log.Fatalf("invalid poll_max_iterations '%d': must be >= 1", cfg.PollMaxIterations)
	}
	if cfg.SlackBotToken != "" && cfg.SlackChannelID == "" {
		log.Fatalf("slack_channel_id is required when slack_bot_token is set")
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
