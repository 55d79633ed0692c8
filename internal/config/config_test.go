package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.Worker.Count != DefaultWorkers {
		t.Errorf("Worker.Count = %d, want %d", cfg.Worker.Count, DefaultWorkers)
	}
	if cfg.Fetch.Timeout != 10*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 10s", cfg.Fetch.Timeout)
	}
	if cfg.Storage.BasePath != DefaultBasePath {
		t.Errorf("Storage.BasePath = %q, want %q", cfg.Storage.BasePath, DefaultBasePath)
	}
	if cfg.Fetch.UserAgent == "" {
		t.Error("Fetch.UserAgent should have a default")
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if cfg.Fetch.MaxImagePixels != DefaultMaxImagePixels {
		t.Errorf("Fetch.MaxImagePixels = %d, want %d", cfg.Fetch.MaxImagePixels, DefaultMaxImagePixels)
	}
}

func TestConfig_ApplyDefaults_KeepsSetValues(t *testing.T) {
	cfg := &Config{
		Worker: WorkerConfig{Count: 12},
		Fetch:  FetchConfig{Timeout: 3 * time.Second},
	}
	cfg.ApplyDefaults()

	if cfg.Worker.Count != 12 {
		t.Errorf("Worker.Count = %d, want 12", cfg.Worker.Count)
	}
	if cfg.Fetch.Timeout != 3*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 3s", cfg.Fetch.Timeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"missing storage path", func(c *Config) { c.Storage.BasePath = "" }, true},
		{"negative workers", func(c *Config) { c.Worker.Count = -1 }, true},
		{"zero batch workers", func(c *Config) { c.Worker.BatchWorkers = 0 }, true},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }, true},
		{"negative max bytes", func(c *Config) { c.Fetch.MaxImageBytes = -1 }, true},
		{"max bytes set", func(c *Config) { c.Fetch.MaxImageBytes = 1 << 20 }, false},
		{"negative max pixels", func(c *Config) { c.Fetch.MaxImagePixels = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateServer(t *testing.T) {
	cfg := validConfig()
	if err := cfg.ValidateServer(); err == nil {
		t.Error("ValidateServer() should fail for missing API_KEY")
	}

	cfg.Server.APIKey = "secret"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("ValidateServer() should pass, got %v", err)
	}

	cfg.Server.Port = 70000
	if err := cfg.ValidateServer(); err == nil {
		t.Error("ValidateServer() should fail for out-of-range port")
	}
}

func TestServerConfig_Address(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 9848, "0.0.0.0:9848"},
		{"localhost", 8080, "localhost:8080"},
		{"", 80, ":80"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Address(); got != tt.want {
			t.Errorf("Address() = %q, want %q", got, tt.want)
		}
	}
}

func TestLoad_FromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
storage:
  base_path: /srv/images
worker:
  count: 8
fetch:
  timeout: 20s
  user_agent: yaml-agent
metrics:
  enabled: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.BasePath != "/srv/images" {
		t.Errorf("Storage.BasePath = %q, want /srv/images", cfg.Storage.BasePath)
	}
	if cfg.Worker.Count != 8 {
		t.Errorf("Worker.Count = %d, want 8", cfg.Worker.Count)
	}
	if cfg.Fetch.Timeout != 20*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 20s", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.UserAgent != "yaml-agent" {
		t.Errorf("Fetch.UserAgent = %q, want yaml-agent", cfg.Fetch.UserAgent)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be true")
	}
	// Unset values fall back to defaults.
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
storage:
  base_path: /yaml/path
worker:
  count: 3
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("STORAGE_PATH", "/env/path")
	t.Setenv("WORKER_COUNT", "9")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.BasePath != "/env/path" {
		t.Errorf("Storage.BasePath = %q, want /env/path", cfg.Storage.BasePath)
	}
	if cfg.Worker.Count != 9 {
		t.Errorf("Worker.Count = %d, want 9", cfg.Worker.Count)
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "2s")
	t.Setenv("API_KEY", "env-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Fetch.Timeout != 2*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 2s", cfg.Fetch.Timeout)
	}
	if cfg.Server.APIKey != "env-key" {
		t.Errorf("Server.APIKey = %q, want env-key", cfg.Server.APIKey)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("worker: [unclosed"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load() should fail for invalid YAML")
	}
}

func TestLoad_NonexistentFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load() should fail for nonexistent file")
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("WORKER_COUNT", "many")

	if _, err := Load(""); err == nil {
		t.Error("Load() should fail for non-numeric WORKER_COUNT")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-2")

	if _, err := Load(""); err == nil {
		t.Error("Load() should fail validation for negative WORKER_COUNT")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("IMGRABBA_TEST_DOTENV=from-file\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("IMGRABBA_TEST_DOTENV") })

	if err := loadDotEnv(envPath); err != nil {
		t.Fatalf("loadDotEnv() error = %v", err)
	}
	if got := os.Getenv("IMGRABBA_TEST_DOTENV"); got != "from-file" {
		t.Errorf("IMGRABBA_TEST_DOTENV = %q, want from-file", got)
	}

	if err := loadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("loadDotEnv() should ignore a missing file, got %v", err)
	}
}
