package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/klytics/sheetkit/internal/formats/tabular"
	"github.com/klytics/sheetkit/internal/pipeline"
	"github.com/klytics/sheetkit/internal/pipeline/actions"
)

// OutputName is the file a processed input is saved as.
func OutputName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(filepath.Base(path), ext) + "_processado" + ext
}

// RecipeHandler loads each matched file, runs the rule's recipe on it and
// saves the result in outDir as OutputName(path). Recipes are parsed once
// and cached.
func RecipeHandler(proc actions.Processor, outDir string, log *zap.Logger) EventHandler {
	if log == nil {
		log = zap.NewNop()
	}
	var mu sync.Mutex
	recipes := make(map[string]*pipeline.Recipe)

	load := func(path string) (*pipeline.Recipe, error) {
		mu.Lock()
		defer mu.Unlock()
		if r, ok := recipes[path]; ok {
			return r, nil
		}
		r, err := pipeline.LoadRecipe(path)
		if err != nil {
			return nil, err
		}
		recipes[path] = r
		return r, nil
	}

	return func(ctx context.Context, path string, rule Rule) (string, error) {
		if rule.Recipe == "" {
			return "", fmt.Errorf("rule %q has no recipe", rule.ID)
		}
		recipe, err := load(rule.Recipe)
		if err != nil {
			return "", err
		}

		t, err := tabular.Load(path, "")
		if err != nil {
			return "", err
		}

		exec := pipeline.NewExecutor(log.With(zap.String("file", filepath.Base(path))))
		exec.SetVar("input", path)
		exec.SetVar("name", strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		actions.RegisterAll(exec, proc)

		out, _, err := exec.Run(ctx, recipe, t)
		if err != nil {
			return "", err
		}

		dir := outDir
		if dir == "" {
			dir = filepath.Join(filepath.Dir(path), "processados")
		}
		dest := filepath.Join(dir, OutputName(path))
		if err := tabular.Save(dest, out); err != nil {
			return "", err
		}
		return dest, nil
	}
}
