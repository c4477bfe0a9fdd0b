// Package pipeline runs recipes: YAML files listing the commands, templates
// and file steps to apply to a table, in order.
package pipeline

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Recipe represents a complete workflow definition.
type Recipe struct {
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []Step `yaml:"steps" json:"steps"`
}

// Step represents a single action in a recipe.
type Step struct {
	ID        string            `yaml:"id" json:"id"`
	Action    string            `yaml:"action" json:"action"`
	Command   string            `yaml:"command,omitempty" json:"command,omitempty"`
	Template  string            `yaml:"template,omitempty" json:"template,omitempty"`
	Path      string            `yaml:"path,omitempty" json:"path,omitempty"`
	Sheet     string            `yaml:"sheet,omitempty" json:"sheet,omitempty"`
	Options   map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
	OnFailure string            `yaml:"on_failure,omitempty" json:"onFailure,omitempty"`
}

// StepResult holds the output of a completed step.
type StepResult struct {
	StepID   string        `json:"stepId"`
	Action   string        `json:"action"`
	Output   string        `json:"output"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
	Skipped  bool          `json:"skipped,omitempty"`
	Error    error         `json:"-"`
}

// LoadRecipe reads and parses a recipe YAML file.
func LoadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("recipe file not found: %s — check that the path is correct", path)
		}
		return nil, fmt.Errorf("could not read recipe file %s: %w", path, err)
	}
	return ParseRecipe(data)
}

// ParseRecipe parses a recipe from YAML bytes. A step that only names a
// command gets the "command" action, and steps without an ID are numbered.
func ParseRecipe(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid recipe YAML: %w", err)
	}

	for i := range r.Steps {
		s := &r.Steps[i]
		if s.Action == "" && s.Command != "" {
			s.Action = "command"
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("step_%d", i+1)
		}
	}

	if err := validateRecipe(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

func validateRecipe(r *Recipe) error {
	if r.Name == "" {
		return fmt.Errorf("recipe is missing a 'name' field")
	}

	if len(r.Steps) == 0 {
		return fmt.Errorf("recipe %q has no steps defined", r.Name)
	}

	seen := make(map[string]bool)
	for i, step := range r.Steps {
		if seen[step.ID] {
			return fmt.Errorf("duplicate step ID %q — each step must have a unique ID", step.ID)
		}
		seen[step.ID] = true

		if step.Action == "" {
			return fmt.Errorf("step %d (%s) needs an 'action' or a 'command'", i+1, step.ID)
		}
		if step.OnFailure != "" && step.OnFailure != "skip" && step.OnFailure != "stop" {
			return fmt.Errorf("step %q: on_failure must be skip or stop, got %q", step.ID, step.OnFailure)
		}
	}
	return nil
}
