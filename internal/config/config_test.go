package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Proctor.SampleInterval != 2*time.Second {
		t.Errorf("Proctor.SampleInterval = %v, want 2s", cfg.Proctor.SampleInterval)
	}
	if cfg.Proctor.MinBrightness != 15 {
		t.Errorf("Proctor.MinBrightness = %v, want 15", cfg.Proctor.MinBrightness)
	}
	if cfg.Proctor.MinSkinRatio != 0.05 {
		t.Errorf("Proctor.MinSkinRatio = %v, want 0.05", cfg.Proctor.MinSkinRatio)
	}
	if cfg.Proctor.Region.Left != 0.25 || cfg.Proctor.Region.Bottom != 0.70 {
		t.Errorf("Proctor.Region = %+v, want 0.25..0.75 x 0.10..0.70", cfg.Proctor.Region)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Database.MaxOpenConns = %d, want 25", cfg.Database.MaxOpenConns)
	}
	if cfg.AMQP.Workers != 3 {
		t.Errorf("AMQP.Workers = %d, want 3", cfg.AMQP.Workers)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "greenroom.yaml")

	yaml := `
server:
  port: 9090
  token: "sekrit"
proctor:
  sample_interval: 4s
  min_brightness: 20
  skin:
    min_red: 90
database:
  name: greenroom_test
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Token != "sekrit" {
		t.Errorf("Server.Token = %q, want %q", cfg.Server.Token, "sekrit")
	}
	if cfg.Proctor.SampleInterval != 4*time.Second {
		t.Errorf("Proctor.SampleInterval = %v, want 4s", cfg.Proctor.SampleInterval)
	}
	if cfg.Proctor.MinBrightness != 20 {
		t.Errorf("Proctor.MinBrightness = %v, want 20", cfg.Proctor.MinBrightness)
	}
	if cfg.Proctor.Skin.MinRed != 90 {
		t.Errorf("Proctor.Skin.MinRed = %d, want 90", cfg.Proctor.Skin.MinRed)
	}
	if cfg.Database.Name != "greenroom_test" {
		t.Errorf("Database.Name = %q, want greenroom_test", cfg.Database.Name)
	}

	// Defaults still apply to everything the file left out.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want default 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Proctor.MinSkinRatio != 0.05 {
		t.Errorf("Proctor.MinSkinRatio = %v, want default 0.05", cfg.Proctor.MinSkinRatio)
	}
	if cfg.Proctor.Skin.MinGreen != 40 {
		t.Errorf("Proctor.Skin.MinGreen = %d, want default 40", cfg.Proctor.Skin.MinGreen)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load("/nonexistent/greenroom.yaml"); err == nil {
		t.Fatal("Load() with explicit missing file should return error")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte(":::not valid yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(cfgPath); err == nil {
		t.Fatal("Load() with invalid YAML should return error")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("GREENROOM_SERVER_PORT", "7070")
	t.Setenv("GREENROOM_DATABASE_PASSWORD", "env-secret")
	t.Setenv("GEMINI_API_KEY", "key-from-env")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "greenroom.yaml")
	if err := os.WriteFile(cfgPath, []byte("server:\n  host: 127.0.0.1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Database.Password != "env-secret" {
		t.Errorf("Database.Password = %q, want env override", cfg.Database.Password)
	}
	if cfg.Agent.APIKey != "key-from-env" {
		t.Errorf("Agent.APIKey = %q, want value from GEMINI_API_KEY", cfg.Agent.APIKey)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want file value 127.0.0.1", cfg.Server.Host)
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "app",
		Password: "pw",
		Name:     "greenroom",
		SSLMode:  "require",
	}

	want := "host=db.internal port=5433 user=app password=pw dbname=greenroom sslmode=require"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
