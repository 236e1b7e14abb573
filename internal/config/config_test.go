package config

import (
	"testing"
	"time"
)

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "unset uses fallback", value: "", want: time.Minute},
		{name: "go duration", value: "15m", want: 15 * time.Minute},
		{name: "day suffix", value: "7d", want: 7 * 24 * time.Hour},
		{name: "garbage uses fallback", value: "soon", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SITEHUB_TEST_DURATION", tt.value)

			got := getEnvDuration("SITEHUB_TEST_DURATION", time.Minute)
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("SITEHUB_TEST_LIST", " https://a.example , ,https://b.example")

	got := getEnvList("SITEHUB_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected list: %#v", got)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		Env:             "prod",
		StoreDriver:     DriverMongo,
		CredentialStore: DriverPostgres,
		JWTSecret:       "s3cret",
		JWTExpires:      time.Hour,
		ResetTokenTTL:   15 * time.Minute,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing secret in prod", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: true},
		{name: "missing secret in dev", mutate: func(c *Config) { c.JWTSecret = ""; c.Env = "dev" }, wantErr: true},
		{name: "zero reset ttl", mutate: func(c *Config) { c.ResetTokenTTL = 0 }, wantErr: true},
		{name: "unknown store", mutate: func(c *Config) { c.StoreDriver = "sqlite" }, wantErr: true},
		{name: "postgres content store rejected", mutate: func(c *Config) { c.StoreDriver = DriverPostgres }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_JWTSecret(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		secret        string
		wantErr       bool
		wantEphemeral bool
	}{
		{name: "dev without secret generates one", env: "dev", wantEphemeral: true},
		{name: "test without secret generates one", env: "test", wantEphemeral: true},
		{name: "prod without secret fails", env: "prod", wantErr: true},
		{name: "explicit secret kept", env: "prod", secret: "configured-secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.env)
			t.Setenv("JWT_SECRET", tt.secret)
			t.Setenv("STORE_DRIVER", DriverMemory)
			t.Setenv("CREDENTIAL_STORE", DriverMemory)

			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() err=%v, wantErr=%v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.EphemeralSecret != tt.wantEphemeral {
				t.Fatalf("EphemeralSecret = %v, want %v", cfg.EphemeralSecret, tt.wantEphemeral)
			}
			if tt.secret != "" && cfg.JWTSecret != tt.secret {
				t.Fatalf("JWTSecret = %q, want %q", cfg.JWTSecret, tt.secret)
			}
			if len(cfg.JWTSecret) < 32 && tt.secret == "" {
				t.Fatalf("generated secret too short: %q", cfg.JWTSecret)
			}
		})
	}
}

func TestLoad_GeneratedSecretsDiffer(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", DriverMemory)

	a, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.JWTSecret == b.JWTSecret {
		t.Fatalf("expected a fresh secret per Load")
	}
}
