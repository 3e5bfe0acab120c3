package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func setMinimalValidConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SUNO_API_KEY", "suno-test")
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("TIMEZONE", "UTC")
}

func TestLoadConfigFromEnvWithDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	setMinimalValidConfigEnv(t)
	t.Setenv("GENRES", "lofi, jazz")

	cfg := LoadConfig()

	if cfg.SunoAPIKey != "suno-test" {
		t.Fatalf("unexpected suno api key: %q", cfg.SunoAPIKey)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Fatalf("unexpected provider: %q", cfg.LLMProvider)
	}
	if cfg.DBPath != "./screenbeat.db" {
		t.Fatalf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.ScreenshotDir != "./temp" {
		t.Fatalf("unexpected screenshot dir default: %q", cfg.ScreenshotDir)
	}
	if cfg.TickIntervalMS != 2000 {
		t.Fatalf("unexpected tick interval default: %d", cfg.TickIntervalMS)
	}
	if cfg.DiffThreshold != 0.10 || cfg.LargeDiffThreshold != 0.30 {
		t.Fatalf("unexpected threshold defaults: %f / %f", cfg.DiffThreshold, cfg.LargeDiffThreshold)
	}
	if cfg.ConfirmCount != 2 || cfg.CooldownSeconds != 12 {
		t.Fatalf("unexpected debounce defaults: %d / %d", cfg.ConfirmCount, cfg.CooldownSeconds)
	}
	if cfg.PollIntervalSeconds != 5 || cfg.PollMaxIterations != 36 {
		t.Fatalf("unexpected poll defaults: %d / %d", cfg.PollIntervalSeconds, cfg.PollMaxIterations)
	}
	if cfg.RetentionDays != 30 {
		t.Fatalf("unexpected retention default: %d", cfg.RetentionDays)
	}
	if cfg.ExternalHTTPTimeoutSeconds != int(defaultExternalHTTPTimeout/time.Second) {
		t.Fatalf("unexpected external HTTP timeout default: %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
	if len(cfg.Genres) != 2 || cfg.Genres[0] != "lofi" || cfg.Genres[1] != "jazz" {
		t.Fatalf("unexpected genres from env: %v", cfg.Genres)
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
suno_api_key: "yaml-suno"
llm_provider: "anthropic"
anthropic_api_key: "yaml-anthropic"
screenshot_dir: "/tmp/yaml-shots"
db_path: "/tmp/yaml.db"
tick_interval_ms: 1500
diff_threshold: 0.15
large_diff_threshold: 0.40
genres:
  - classical
  - orchestral
timezone: "America/Los_Angeles"
external_http_timeout_seconds: 75
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("DB_PATH", "/tmp/env.db")
	t.Setenv("TICK_INTERVAL_MS", "3000")
	t.Setenv("EXTERNAL_HTTP_TIMEOUT_SECONDS", "120")
	t.Setenv("VOCALS", "true")

	cfg := LoadConfig()

	if cfg.SunoAPIKey != "yaml-suno" {
		t.Fatalf("expected suno key from yaml, got %q", cfg.SunoAPIKey)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("expected db path from env override, got %q", cfg.DBPath)
	}
	if cfg.ScreenshotDir != "/tmp/yaml-shots" {
		t.Fatalf("expected screenshot dir from yaml, got %q", cfg.ScreenshotDir)
	}
	if cfg.TickIntervalMS != 3000 {
		t.Fatalf("expected tick interval from env override, got %d", cfg.TickIntervalMS)
	}
	if cfg.DiffThreshold != 0.15 || cfg.LargeDiffThreshold != 0.40 {
		t.Fatalf("expected thresholds from yaml, got %f / %f", cfg.DiffThreshold, cfg.LargeDiffThreshold)
	}
	if len(cfg.Genres) != 2 || cfg.Genres[0] != "classical" {
		t.Fatalf("expected genres from yaml, got %v", cfg.Genres)
	}
	if cfg.ExternalHTTPTimeoutSeconds != 120 {
		t.Fatalf("expected external HTTP timeout from env override, got %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if !cfg.Vocals {
		t.Fatal("expected vocals from env override")
	}
}

func TestEnvOverrideHelpers(t *testing.T) {
	s := "initial"
	t.Setenv("SB_TEST_STR", "value")
	envOverride(&s, "SB_TEST_STR")
	if s != "value" {
		t.Fatalf("envOverride failed, got %q", s)
	}

	i := 1
	t.Setenv("SB_TEST_INT", "42")
	envOverrideInt(&i, "SB_TEST_INT")
	if i != 42 {
		t.Fatalf("envOverrideInt failed, got %d", i)
	}

	f := 0.1
	t.Setenv("SB_TEST_FLOAT", "0.75")
	envOverrideFloat(&f, "SB_TEST_FLOAT")
	if f != 0.75 {
		t.Fatalf("envOverrideFloat failed, got %f", f)
	}

	b := false
	t.Setenv("SB_TEST_BOOL", "1")
	envOverrideBool(&b, "SB_TEST_BOOL")
	if !b {
		t.Fatalf("envOverrideBool failed, got %v", b)
	}
}

func TestLoadConfigInvalidTimezoneFatal(t *testing.T) {
	if os.Getenv("TEST_INVALID_TZ_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("SUNO_API_KEY", "suno-test")
		_ = os.Setenv("LLM_PROVIDER", "anthropic")
		_ = os.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
		_ = os.Setenv("TIMEZONE", "Mars/Colony")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigInvalidTimezoneFatal")
	cmd.Env = append(os.Environ(), "TEST_INVALID_TZ_FATAL=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}

func TestLoadConfigMissingSunoKeyFatal(t *testing.T) {
	if os.Getenv("TEST_MISSING_SUNO_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("SUNO_API_KEY", "")
		_ = os.Setenv("LLM_PROVIDER", "anthropic")
		_ = os.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigMissingSunoKeyFatal")
	cmd.Env = append(os.Environ(), "TEST_MISSING_SUNO_FATAL=1", "SUNO_API_KEY=")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}
