package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// setupTestHome points HOME at a temp dir and returns the estimator config dir inside it.
func setupTestHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)

	configDir := filepath.Join(home, ".config", "estimator")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	return configDir
}

func writeConfig(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	// WriteFile is subject to umask.
	if err := os.Chmod(path, perm); err != nil {
		t.Fatalf("Failed to chmod test config: %v", err)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	configDir := setupTestHome(t)
	configPath := filepath.Join(configDir, "config.yaml")

	writeConfig(t, configPath, `server:
  http_port: 8181
  shutdown_timeout: 5s
content:
  base_url: https://rpk.example/wp-json/estimate-calculator/v1/get-calculator-data
  retries: 4
  fallback:
    email: false
sendgrid:
  api_key: SG.secret
jobtread:
  organization_id: org-42
`, 0600)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Server.Port != 8181 {
		t.Errorf("Server.Port = %d, want 8181", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout.Duration() != 5*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 5s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Content.Retries != 4 {
		t.Errorf("Content.Retries = %d, want 4", cfg.Content.Retries)
	}
	if cfg.Content.Fallback.Email {
		t.Error("Content.Fallback.Email = true, want false")
	}
	if !cfg.Content.Fallback.Results {
		t.Error("Content.Fallback.Results = false, want default true")
	}
	if cfg.SendGrid.APIKey.Value() != "SG.secret" {
		t.Errorf("SendGrid.APIKey not loaded")
	}
	if cfg.JobTread.OrganizationID != "org-42" {
		t.Errorf("JobTread.OrganizationID = %q, want org-42", cfg.JobTread.OrganizationID)
	}
	// Untouched sections keep their defaults.
	if cfg.Content.Timeout.Duration() != 10*time.Second {
		t.Errorf("Content.Timeout = %v, want 10s", cfg.Content.Timeout)
	}
	if cfg.Content.CategorySlugs["home-renovations"] != "calculator-renovations" {
		t.Errorf("default category slugs lost: %v", cfg.Content.CategorySlugs)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	configDir := setupTestHome(t)

	cfg, err := Load(filepath.Join(configDir, "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Format.Locale != "en-US" {
		t.Errorf("Format.Locale = %q, want en-US", cfg.Format.Locale)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	configDir := setupTestHome(t)
	configPath := filepath.Join(configDir, "config.yaml")
	writeConfig(t, configPath, "server:\n  http_port: 8181\n", 0600)

	t.Setenv("ESTIMATOR_SERVER_HTTP_PORT", "7070")
	t.Setenv("ESTIMATOR_CONTENT_BASE_URL", "https://env.example/data")
	t.Setenv("ESTIMATOR_SESSION_IDLE_TIMEOUT", "45m")
	t.Setenv("ESTIMATOR_JOBTREAD_API_KEY", "jt-key")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Content.BaseURL != "https://env.example/data" {
		t.Errorf("Content.BaseURL = %q", cfg.Content.BaseURL)
	}
	if cfg.Session.IdleTimeout.Duration() != 45*time.Minute {
		t.Errorf("Session.IdleTimeout = %v, want 45m", cfg.Session.IdleTimeout)
	}
	if cfg.JobTread.APIKey.Value() != "jt-key" {
		t.Error("JobTread.APIKey not loaded from env")
	}
}

func TestLoad_RejectsInsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission model differs on windows")
	}
	configDir := setupTestHome(t)
	configPath := filepath.Join(configDir, "config.yaml")
	writeConfig(t, configPath, "server:\n  http_port: 8181\n", 0644)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() error = nil, want permission error")
	}
	if !strings.Contains(err.Error(), "insecure config file permissions") {
		t.Errorf("Load() error = %v, want permission error", err)
	}
}

func TestLoad_RejectsOversizedFile(t *testing.T) {
	configDir := setupTestHome(t)
	configPath := filepath.Join(configDir, "config.yaml")
	writeConfig(t, configPath, "# "+strings.Repeat("x", maxConfigFileSize), 0600)

	_, err := Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Load() error = %v, want size error", err)
	}
}

func TestLoad_RejectsPathOutsideAllowedDirs(t *testing.T) {
	setupTestHome(t)

	tests := []string{
		filepath.Join(t.TempDir(), "config.yaml"),
		"/etc/passwd",
		"/etc/estimator-evil/config.yaml",
	}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			if _, err := Load(path); err == nil {
				t.Errorf("Load(%q) error = nil, want path validation error", path)
			}
		})
	}
}

func TestLoad_InvalidValuesFailValidation(t *testing.T) {
	configDir := setupTestHome(t)
	configPath := filepath.Join(configDir, "config.yaml")
	writeConfig(t, configPath, "content:\n  retries: -1\n", 0600)

	if _, err := Load(configPath); err == nil {
		t.Error("Load() error = nil, want validation error for negative retries")
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"ESTIMATOR_SERVER_HTTP_PORT":       "server.http_port",
		"ESTIMATOR_CONTENT_CACHE_TTL":      "content.cache_ttl",
		"ESTIMATOR_OBSERVABILITY_ENDPOINT": "observability.endpoint",
		"ESTIMATOR_DEBUG":                  "debug",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnsureConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(home, ".config", "estimator"))
	if err != nil {
		t.Fatalf("config dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("config path is not a directory")
	}
}
