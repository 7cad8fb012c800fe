package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Catalog.BaseURL != "https://world.openfoodfacts.org/api/v0" {
			t.Errorf("Catalog.BaseURL = %s, want https://world.openfoodfacts.org/api/v0", cfg.Catalog.BaseURL)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.Storage.Type != "file" {
			t.Errorf("Storage.Type = %s, want file", cfg.Storage.Type)
		}
		if cfg.Storage.Key != "aimeal-meals" {
			t.Errorf("Storage.Key = %s, want aimeal-meals", cfg.Storage.Key)
		}
		if cfg.Capabilities.Barcode.FallbackDelay != 2*time.Second {
			t.Errorf("Barcode.FallbackDelay = %v, want 2s", cfg.Capabilities.Barcode.FallbackDelay)
		}
		if cfg.Search.Debounce != 300*time.Millisecond {
			t.Errorf("Search.Debounce = %v, want 300ms", cfg.Search.Debounce)
		}
		if cfg.Summary.CalorieGoal != 2000 {
			t.Errorf("Summary.CalorieGoal = %d, want 2000", cfg.Summary.CalorieGoal)
		}
		if cfg.RateLimit.PerIP != 120 {
			t.Errorf("RateLimit.PerIP = %d, want 120", cfg.RateLimit.PerIP)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("AIMEAL_SERVER_PORT", "9090")
		t.Setenv("AIMEAL_SERVER_ENVIRONMENT", "production")
		t.Setenv("AIMEAL_CATALOG_BASE_URL", "https://custom.api.com")
		t.Setenv("AIMEAL_CACHE_TTL", "1h")
		t.Setenv("AIMEAL_STORAGE_TYPE", "s3")
		t.Setenv("AIMEAL_STORAGE_S3_BUCKET", "meals")
		t.Setenv("AIMEAL_CAPABILITIES_BARCODE_ENABLED", "false")
		t.Setenv("AIMEAL_RATELIMIT_PER_IP", "200")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Catalog.BaseURL != "https://custom.api.com" {
			t.Errorf("Catalog.BaseURL = %s, want https://custom.api.com", cfg.Catalog.BaseURL)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.Storage.Type != "s3" || cfg.Storage.S3Bucket != "meals" {
			t.Errorf("Storage = %+v, want s3 bucket meals", cfg.Storage)
		}
		if cfg.Capabilities.Barcode.Enabled {
			t.Error("Barcode.Enabled = true, want false")
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
	})

	t.Run("fails validation for unknown storage type", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("AIMEAL_STORAGE_TYPE", "redis")

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid storage type")
		}
	})

	t.Run("fails validation when postgres DSN missing", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("AIMEAL_STORAGE_TYPE", "postgres")

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing DSN")
		}
	})

	t.Run("reads values from .env file", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		os.Unsetenv("AIMEAL_SERVER_PORT")
		t.Cleanup(func() { os.Unsetenv("AIMEAL_SERVER_PORT") })

		if err := os.WriteFile(".env", []byte("AIMEAL_SERVER_PORT=7070\n"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070", cfg.Server.Port)
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		t.Chdir(t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables and skips comments", func(t *testing.T) {
		t.Chdir(t.TempDir())

		envContent := `
# Comment line
TEST_VAR_1=value1

# TEST_COMMENTED=should_not_load
TEST_VAR_2=value2
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		for _, k := range []string{"TEST_VAR_1", "TEST_VAR_2", "TEST_COMMENTED"} {
			os.Unsetenv(k)
			t.Cleanup(func() { os.Unsetenv(k) })
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("TEST_OVERRIDE", "existing-value")

		if err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Cache:   CacheConfig{TTL: 24 * time.Hour},
			Storage: StorageConfig{Type: "file", Key: "aimeal-meals", Dir: "./data"},
		}
	}

	t.Run("validates successfully with all required fields", func(t *testing.T) {
		if err := validate(valid()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails for s3 storage without bucket", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Type = "s3"

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for s3 without bucket")
		}
	})

	t.Run("validates postgres storage with DSN", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Type = "postgres"
		cfg.Storage.DSN = "host=localhost user=aimeal dbname=aimeal sslmode=disable"

		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil for valid postgres config", err)
		}
	})

	t.Run("fails for empty storage key", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Key = ""

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for empty key")
		}
	})

	t.Run("fails for non-positive cache ttl", func(t *testing.T) {
		cfg := valid()
		cfg.Cache.TTL = 0

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for zero ttl")
		}
	})

	t.Run("fails for unknown timezone", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Timezone = "Mars/Olympus_Mons"

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for unknown timezone")
		}
	})
}

func TestLocation(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Timezone: "UTC"}}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc != time.UTC {
		t.Errorf("Location() = %v, want UTC", loc)
	}

	cfg.Server.Timezone = ""
	loc, err = cfg.Location()
	if err != nil || loc != time.Local {
		t.Errorf("Location() = %v, %v, want Local", loc, err)
	}
}
