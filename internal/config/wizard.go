package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix"`
}

// Wizard runs the interactive setup wizard.
// If reader is nil, reads from os.Stdin.
func Wizard(reader io.Reader) error {
	if reader == nil {
		reader = os.Stdin
	}
	scanner := bufio.NewScanner(reader)
	ask := func() string {
		scanner.Scan()
		return strings.TrimSpace(scanner.Text())
	}

	fmt.Println("SheetKit Setup Wizard")
	fmt.Println()
	fmt.Println(strings.Repeat("-", 48))
	fmt.Println()

	fmt.Println("Step 1/3: Command engine")
	fmt.Println("  [1] Advanced: rules plus pattern library (recommended)")
	fmt.Println("  [2] Baseline: rules only")
	fmt.Print("  Choice: ")
	switch ask() {
	case "2":
		viper.Set("engine.mode", "baseline")
	default:
		viper.Set("engine.mode", "advanced")
	}
	fmt.Println()

	fmt.Println("Step 2/3: Contacts")
	fmt.Print("  Country code for phone numbers (default: 55): ")
	if cc := ask(); cc != "" {
		viper.Set("engine.country_code", cc)
	} else {
		viper.Set("engine.country_code", "55")
	}
	fmt.Println()

	fmt.Println("Step 3/3: History")
	fmt.Print("  Keep projects and learning history in a local database? [Y/n]: ")
	answer := strings.ToLower(ask())
	viper.Set("store.enabled", answer != "n" && answer != "no" && answer != "nao" && answer != "não")
	fmt.Println()

	if err := SaveConfig(); err != nil {
		return err
	}
	fmt.Printf("Saved to %s\n", ConfigPath())
	fmt.Println("Next: sheetkit run clientes.xlsx \"remover duplicatas\"")
	return nil
}

// WizardNonInteractive sets up config with defaults only (no user input).
func WizardNonInteractive() error {
	for key, val := range defaults() {
		viper.Set(key, val)
	}
	return SaveConfig()
}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	switch mode := viper.GetString("engine.mode"); mode {
	case "baseline", "advanced":
		issues = append(issues, ConfigIssue{
			Key:      "engine.mode",
			Severity: "info",
			Message:  fmt.Sprintf("command engine: %s", mode),
		})
	default:
		issues = append(issues, ConfigIssue{
			Key:      "engine.mode",
			Severity: "error",
			Message:  fmt.Sprintf("engine.mode is %q but must be baseline or advanced", mode),
			Fix:      "sheetkit config set engine.mode advanced",
		})
	}

	if cc := viper.GetString("engine.country_code"); cc == "" || strings.Trim(cc, "0123456789") != "" {
		issues = append(issues, ConfigIssue{
			Key:      "engine.country_code",
			Severity: "error",
			Message:  fmt.Sprintf("engine.country_code %q must contain digits only", cc),
			Fix:      "sheetkit config set engine.country_code 55",
		})
	}

	if viper.GetInt("export.chunk_size") <= 0 {
		issues = append(issues, ConfigIssue{
			Key:      "export.chunk_size",
			Severity: "error",
			Message:  "export.chunk_size must be a positive number of rows",
			Fix:      "sheetkit config set export.chunk_size 49",
		})
	}

	if _, err := zapcore.ParseLevel(viper.GetString("log.level")); err != nil {
		issues = append(issues, ConfigIssue{
			Key:      "log.level",
			Severity: "error",
			Message:  fmt.Sprintf("log.level %q is not a log level", viper.GetString("log.level")),
			Fix:      "sheetkit config set log.level info",
		})
	}
	if f := viper.GetString("log.format"); f != "console" && f != "json" {
		issues = append(issues, ConfigIssue{
			Key:      "log.format",
			Severity: "error",
			Message:  fmt.Sprintf("log.format %q must be console or json", f),
			Fix:      "sheetkit config set log.format console",
		})
	}

	if !strings.Contains(viper.GetString("server.addr"), ":") {
		issues = append(issues, ConfigIssue{
			Key:      "server.addr",
			Severity: "warning",
			Message:  fmt.Sprintf("server.addr %q has no port — sheetkit serve will fail to listen", viper.GetString("server.addr")),
			Fix:      "sheetkit config set server.addr :8000",
		})
	}

	if viper.GetBool("store.enabled") {
		dir := filepath.Dir(viper.GetString("store.path"))
		if _, err := os.Stat(dir); err != nil {
			issues = append(issues, ConfigIssue{
				Key:      "store.path",
				Severity: "info",
				Message:  fmt.Sprintf("%s does not exist yet and will be created on first use", dir),
			})
		}
	} else {
		issues = append(issues, ConfigIssue{
			Key:      "store.enabled",
			Severity: "warning",
			Message:  "history store is disabled — projects and learning are not kept",
			Fix:      "sheetkit config set store.enabled true",
		})
	}

	return issues
}

// ToEnv returns all config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)
	for _, key := range Keys {
		if v := viper.GetString(key); v != "" {
			env[EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = v
		}
	}
	return env
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	viper.Set(key, value)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig resets all config to defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	for key, val := range defaults() {
		viper.Set(key, val)
	}
	return nil
}

// SaveConfig writes the current config to ~/.sheetkit/config.yaml.
func SaveConfig() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	return os.Chmod(path, 0600)
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	section := ""
	for _, key := range Keys {
		group, name, _ := strings.Cut(key, ".")
		if group != section {
			if section != "" {
				sb.WriteString("\n")
			}
			sb.WriteString(strings.ToUpper(group[:1]) + group[1:] + "\n")
			section = group
		}
		sb.WriteString(fmt.Sprintf("  %-20s %s\n", name+":", viper.GetString(key)))
	}
	return sb.String()
}
