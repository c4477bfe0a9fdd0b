package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	viper.Reset()
	t.Setenv("SHEETKIT_HOME", dir)
	SetDefaults()
	t.Cleanup(func() {
		viper.Reset()
	})
	return dir
}

func hasIssue(issues []ConfigIssue, key, severity string) bool {
	for _, issue := range issues {
		if issue.Key == key && issue.Severity == severity {
			return true
		}
	}
	return false
}

func TestLoadDefaults(t *testing.T) {
	dir := setupTestConfig(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Mode != "advanced" {
		t.Errorf("default mode = %q", cfg.Engine.Mode)
	}
	if cfg.Export.ChunkSize != 49 {
		t.Errorf("default chunk size = %d", cfg.Export.ChunkSize)
	}
	if cfg.Store.Path != filepath.Join(dir, "sheetkit.db") {
		t.Errorf("default store path = %q", cfg.Store.Path)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	setupTestConfig(t)
	t.Setenv("SHEETKIT_ENGINE_MODE", "baseline")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Mode != "baseline" {
		t.Errorf("mode = %q, want baseline from env", cfg.Engine.Mode)
	}
}

func TestValidateDefaults(t *testing.T) {
	setupTestConfig(t)
	for _, issue := range Validate() {
		if issue.Severity == "error" {
			t.Errorf("unexpected error issue: %+v", issue)
		}
	}
}

func TestValidateBadValues(t *testing.T) {
	setupTestConfig(t)
	viper.Set("engine.mode", "turbo")
	viper.Set("engine.country_code", "+55")
	viper.Set("export.chunk_size", 0)
	viper.Set("log.format", "xml")

	issues := Validate()
	for _, key := range []string{"engine.mode", "engine.country_code", "export.chunk_size", "log.format"} {
		if !hasIssue(issues, key, "error") {
			t.Errorf("expected error issue for %s", key)
		}
	}
}

func TestValidateStoreDisabledWarning(t *testing.T) {
	setupTestConfig(t)
	viper.Set("store.enabled", false)
	if !hasIssue(Validate(), "store.enabled", "warning") {
		t.Error("expected warning when the store is disabled")
	}
}

func TestToEnv(t *testing.T) {
	setupTestConfig(t)
	viper.Set("engine.mode", "baseline")

	env := ToEnv()
	if env["SHEETKIT_ENGINE_MODE"] != "baseline" {
		t.Errorf("SHEETKIT_ENGINE_MODE = %q", env["SHEETKIT_ENGINE_MODE"])
	}
	if env["SHEETKIT_EXPORT_CHUNK_SIZE"] != "49" {
		t.Errorf("SHEETKIT_EXPORT_CHUNK_SIZE = %q", env["SHEETKIT_EXPORT_CHUNK_SIZE"])
	}
}

func TestSetAndGet(t *testing.T) {
	dir := setupTestConfig(t)

	if err := Set("engine.mode", "baseline"); err != nil {
		t.Fatal(err)
	}
	if got := Get("engine.mode"); got != "baseline" {
		t.Errorf("Get(engine.mode) = %q, want %q", got, "baseline")
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config file not written: %v", err)
	}
}

func TestShowConfig(t *testing.T) {
	setupTestConfig(t)
	viper.Set("server.addr", ":9090")

	output := ShowConfig()
	for _, want := range []string{"Engine", "mode:", "advanced", ":9090"} {
		if !strings.Contains(output, want) {
			t.Errorf("ShowConfig should contain %q:\n%s", want, output)
		}
	}
}

func TestWizardNonInteractive(t *testing.T) {
	setupTestConfig(t)
	if err := WizardNonInteractive(); err != nil {
		t.Fatal(err)
	}
	if viper.GetString("engine.mode") != "advanced" {
		t.Errorf("engine.mode = %q", viper.GetString("engine.mode"))
	}
}

func TestWizardInteractive(t *testing.T) {
	setupTestConfig(t)

	// baseline engine, country code 351, no store
	input := strings.NewReader("2\n351\nn\n")
	if err := Wizard(input); err != nil {
		t.Fatal(err)
	}
	if viper.GetString("engine.mode") != "baseline" {
		t.Errorf("engine.mode = %q", viper.GetString("engine.mode"))
	}
	if viper.GetString("engine.country_code") != "351" {
		t.Errorf("engine.country_code = %q", viper.GetString("engine.country_code"))
	}
	if viper.GetBool("store.enabled") {
		t.Error("store.enabled should be false")
	}
}

func TestConfigPath(t *testing.T) {
	dir := setupTestConfig(t)
	if got := ConfigPath(); got != filepath.Join(dir, "config.yaml") {
		t.Errorf("unexpected path: %q", got)
	}
}

func TestResetConfig(t *testing.T) {
	setupTestConfig(t)
	viper.Set("engine.mode", "baseline")
	if err := SaveConfig(); err != nil {
		t.Fatal(err)
	}

	if err := ResetConfig(); err != nil {
		t.Fatal(err)
	}
	if viper.GetString("engine.mode") != "advanced" {
		t.Errorf("engine.mode should reset to default, got %q", viper.GetString("engine.mode"))
	}
	if _, err := os.Stat(ConfigPath()); !os.IsNotExist(err) {
		t.Error("config file should be removed")
	}
}

func TestLoadFileExplicitPath(t *testing.T) {
	dir := setupTestConfig(t)
	path := filepath.Join(dir, "custom.yaml")
	content := "engine:\n  mode: baseline\nexport:\n  chunk_size: 100\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Mode != "baseline" {
		t.Errorf("Engine.Mode = %q, want baseline", cfg.Engine.Mode)
	}
	if cfg.Export.ChunkSize != 100 {
		t.Errorf("Export.ChunkSize = %d, want 100", cfg.Export.ChunkSize)
	}
	if cfg.Engine.CountryCode != "55" {
		t.Errorf("unset keys keep their defaults, got country code %q", cfg.Engine.CountryCode)
	}
}

func TestLoadFileMissingExplicitPath(t *testing.T) {
	dir := setupTestConfig(t)
	if _, err := LoadFile(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing explicit config file")
	}
}

func TestDir(t *testing.T) {
	dir := setupTestConfig(t)
	if Dir() != dir {
		t.Errorf("Dir() = %q, want %q", Dir(), dir)
	}
}
