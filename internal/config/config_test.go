package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv blanks every override so tests observe the defaults
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"POLLBOOTH_CONFIG", "POLLBOOTH_API_BASE", "POLLBOOTH_WS_BASE",
		"POLLBOOTH_WEB_BASE", "POLLBOOTH_LOG_LEVEL", "POLLBOOTH_SESSION",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	// Point HOME at an empty dir so a developer's real config file is ignored
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIBase != DefaultAPIBase {
		t.Errorf("expected default API base, got %s", cfg.APIBase)
	}
	if cfg.WebBase != DefaultWebBase {
		t.Errorf("expected default web base, got %s", cfg.WebBase)
	}
	if cfg.WSBase != "" {
		t.Errorf("expected empty WS base by default, got %s", cfg.WSBase)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected info log level, got %s", cfg.LogLevel)
	}
	if cfg.SessionPath != ":memory:" {
		t.Errorf("expected in-memory session by default, got %s", cfg.SessionPath)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLLBOOTH_API_BASE", "http://poll.example.com/api/v1")
	t.Setenv("POLLBOOTH_WS_BASE", "ws://poll.example.com")
	t.Setenv("POLLBOOTH_LOG_LEVEL", "debug")
	t.Setenv("POLLBOOTH_SESSION", "/tmp/session.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIBase != "http://poll.example.com/api/v1" {
		t.Errorf("env override not applied to APIBase: %s", cfg.APIBase)
	}
	if cfg.WSBase != "ws://poll.example.com" {
		t.Errorf("env override not applied to WSBase: %s", cfg.WSBase)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("env override not applied to LogLevel: %s", cfg.LogLevel)
	}
	if cfg.SessionPath != "/tmp/session.db" {
		t.Errorf("env override not applied to SessionPath: %s", cfg.SessionPath)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api_base: http://file.example.com/api/v1\nlog_level: warn\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("POLLBOOTH_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIBase != "http://file.example.com/api/v1" {
		t.Errorf("config file not applied: %s", cfg.APIBase)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("config file not applied to LogLevel: %s", cfg.LogLevel)
	}
	// Values absent from the file keep their defaults
	if cfg.WebBase != DefaultWebBase {
		t.Errorf("expected default web base, got %s", cfg.WebBase)
	}
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_base: http://file.example.com\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("POLLBOOTH_CONFIG", path)
	t.Setenv("POLLBOOTH_API_BASE", "http://env.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIBase != "http://env.example.com" {
		t.Errorf("expected env to win over file, got %s", cfg.APIBase)
	}
}

func TestLoad_BadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_base: [not, a, string"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("POLLBOOTH_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}
