package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvCredentials, "")
	t.Setenv(EnvStripeKey, "")
	t.Setenv(EnvIdentityAPIKey, "")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend != BackendMemory {
		t.Fatalf("Backend = %q, want %q", cfg.Backend, BackendMemory)
	}
	if cfg.Currency != "usd" || cfg.PageSize != 12 {
		t.Fatalf("Currency/PageSize = %q/%d, want usd/12", cfg.Currency, cfg.PageSize)
	}
	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
	if cfg.LogLevel != logrus.InfoLevel || cfg.LogFormat != "json" {
		t.Fatalf("log = %v/%q, want info/json", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.TraceFile != "" {
		t.Fatalf("TraceFile = %q, want tracing off", cfg.TraceFile)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	path := writeConfig(t, `
backend = " Firestore "
currency = "EUR"
page_size = 24
live_catalog = true

[firestore]
project_id = "  my-shop "
credentials_file = "~/sa.json"

[identity]
api_key = " key "
endpoint = "http://localhost:9099"

[stripe]
secret_key = "sk_test_1"

[log]
file = "~/logs/shop.log"
level = "debug"
format = "text"

[trace]
file = "~/logs/traces.jsonl"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend != BackendFirestore || cfg.ProjectID != "my-shop" {
		t.Fatalf("Backend/ProjectID = %q/%q", cfg.Backend, cfg.ProjectID)
	}
	if cfg.Currency != "eur" || cfg.PageSize != 24 || !cfg.LiveCatalog {
		t.Fatalf("Currency/PageSize/LiveCatalog = %q/%d/%v", cfg.Currency, cfg.PageSize, cfg.LiveCatalog)
	}
	if cfg.CredentialsFile != filepath.Join(home, "sa.json") {
		t.Fatalf("CredentialsFile = %q", cfg.CredentialsFile)
	}
	if cfg.IdentityAPIKey != "key" || cfg.IdentityEndpoint != "http://localhost:9099" {
		t.Fatalf("identity = %q/%q", cfg.IdentityAPIKey, cfg.IdentityEndpoint)
	}
	if cfg.StripeSecretKey != "sk_test_1" {
		t.Fatalf("StripeSecretKey = %q", cfg.StripeSecretKey)
	}
	if !strings.HasPrefix(cfg.LogFile, home) || cfg.LogDir() != filepath.Join(home, "logs") {
		t.Fatalf("LogFile = %q LogDir = %q, want under HOME", cfg.LogFile, cfg.LogDir())
	}
	if cfg.LogLevel != logrus.DebugLevel || cfg.LogFormat != "text" {
		t.Fatalf("log = %v/%q, want debug/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.TraceFile != filepath.Join(home, "logs", "traces.jsonl") {
		t.Fatalf("TraceFile = %q", cfg.TraceFile)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	cfg, err := Load(writeConfig(t, `
backend = "   "
currency = ""
[redis]
addr = ""
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := Default()
	if cfg.Backend != want.Backend || cfg.Currency != want.Currency || cfg.RedisAddr != want.RedisAddr {
		t.Fatalf("cfg = %#v, want defaults", cfg)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	cases := map[string]string{
		"backend":   `backend = "postgres"`,
		"page size": `page_size = -1`,
		"log level": "[log]\nlevel = \"loud\"",
		"format":    "[log]\nformat = \"xml\"",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: Load returned nil error", name)
		}
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvCredentials, "~/env-sa.json")
	t.Setenv(EnvStripeKey, "sk_env")
	t.Setenv(EnvIdentityAPIKey, "env-key")

	cfg, err := Load(writeConfig(t, `
[stripe]
secret_key = "sk_file"
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.StripeSecretKey != "sk_env" || cfg.IdentityAPIKey != "env-key" {
		t.Fatalf("env overrides not applied: %q %q", cfg.StripeSecretKey, cfg.IdentityAPIKey)
	}
	if cfg.CredentialsFile != filepath.Join(home, "env-sa.json") {
		t.Fatalf("CredentialsFile = %q", cfg.CredentialsFile)
	}

	cfg, err = Load(writeConfig(t, `
[firestore]
credentials_file = "/etc/sa.json"
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.CredentialsFile != "/etc/sa.json" {
		t.Fatalf("file credentials should win over %s, got %q", EnvCredentials, cfg.CredentialsFile)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	_, err := Load(writeConfig(t, `backend = [`))
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestLogDir_DefaultsWhenLogFileEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogDir()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("LogDir = %q, want it under HOME %q", got, home)
	}
}
