package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Server.ReadTimeout = 30e9
	cfg.Server.WriteTimeout = 60e9
	cfg.Server.ShutdownTimeout = 10e9
	cfg.STAC.Version = "1.0.0"
	cfg.STAC.BaseURL = "https://stac.example.com"
	cfg.Federation.ProductTypesDir = "./product-types"
	cfg.Federation.ExternalFetchTimeout = 30e9
	cfg.Features.DefaultLimit = 20
	cfg.Features.MaxLimit = 250
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"
	return cfg
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STAC_BASE_URL", "https://stac.example.com")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DOWNLOAD_KEEP_ORIGIN_URL", "true")
	t.Setenv("DOWNLOAD_ORIGIN_URL_BLACKLIST", "https://internal.example.com,https://private.example.com")
	t.Setenv("DOWNLOAD_AUTO_ORDER_WHITELIST", "provider-a")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if !cfg.Download.KeepOriginURL {
		t.Error("expected KeepOriginURL to be true")
	}
	if len(cfg.Download.OriginURLBlacklist) != 2 {
		t.Errorf("blacklist = %v, want 2 entries", cfg.Download.OriginURLBlacklist)
	}
	if len(cfg.Download.AutoOrderWhitelist) != 1 || cfg.Download.AutoOrderWhitelist[0] != "provider-a" {
		t.Errorf("whitelist = %v", cfg.Download.AutoOrderWhitelist)
	}
	if cfg.Features.DefaultLimit != 20 {
		t.Errorf("default limit = %d, want 20", cfg.Features.DefaultLimit)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "port",
		},
		{
			name:    "missing base URL",
			mutate:  func(c *Config) { c.STAC.BaseURL = "" },
			wantErr: "base URL",
		},
		{
			name:    "max limit below default",
			mutate:  func(c *Config) { c.Features.MaxLimit = 5 },
			wantErr: "max limit",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "log level",
		},
		{
			name:    "empty blacklist prefix",
			mutate:  func(c *Config) { c.Download.OriginURLBlacklist = []string{""} },
			wantErr: "blacklist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestActiveBackends(t *testing.T) {
	t.Setenv("STAC_BASE_URL", "https://stac.example.com")
	t.Setenv("BACKEND_PEPS_BASE_URL", "https://peps.cnes.fr/resto")
	t.Setenv("BACKEND_PEPS_API_KEY", "secret")
	t.Setenv("BACKEND_THEIA_BASE_URL", "https://theia.cnes.fr/atdistrib/resto2")
	t.Setenv("BACKEND_THEIA_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active := cfg.Backends.Active()
	if len(active) != 1 {
		t.Fatalf("active backends = %v, want just peps", active)
	}
	peps, ok := active["peps"]
	if !ok {
		t.Fatal("expected peps to be active")
	}
	if peps.BaseURL != "https://peps.cnes.fr/resto" || peps.APIKey != "secret" {
		t.Errorf("peps = %+v", peps)
	}
}

func TestValidateBackendTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Backends.PEPS.Enabled = true
	cfg.Backends.PEPS.BaseURL = "https://peps.cnes.fr/resto"
	cfg.Backends.PEPS.Timeout = 0

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "backend peps timeout") {
		t.Errorf("error = %v, want backend timeout complaint", err)
	}
}

func TestDownloadBaseURL(t *testing.T) {
	cfg := validConfig()
	if got := cfg.DownloadBaseURL(); got != "https://stac.example.com" {
		t.Errorf("got %q, want STAC base URL", got)
	}

	cfg.Download.BaseURL = "https://download.example.com/"
	if got := cfg.DownloadBaseURL(); got != "https://download.example.com" {
		t.Errorf("got %q, want trimmed download base URL", got)
	}
}

func TestAddress(t *testing.T) {
	cfg := validConfig()
	if got := cfg.Server.Address(); got != "0.0.0.0:8080" {
		t.Errorf("got %q", got)
	}
}
