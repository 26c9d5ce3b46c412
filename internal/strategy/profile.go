package strategy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vigil/internal/logger"
)

// profileFile is the on-disk override format. Overrides layer on top of the
// built-ins: an empty field keeps the built-in value.
type profileFile struct {
	Profiles []profileDefinition `yaml:"profiles"`
}

type profileDefinition struct {
	Key          string `yaml:"key"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	SystemPrompt string `yaml:"system_prompt"`
}

// LoadProfileOverrides layers YAML profile definitions over the registry.
// Unknown keys create new prompt-only profiles with no sizing fallback.
func LoadProfileOverrides(r *Registry, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("strategy: read profiles %s: %w", path, err)
	}
	var file profileFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("strategy: parse profiles %s: %w", path, err)
	}
	for _, def := range file.Profiles {
		if def.Key == "" {
			logger.Warnf("strategy: skipping profile override without a key in %s", path)
			continue
		}
		base, err := r.Get(def.Key)
		if err != nil {
			base = Strategy{Name: def.Key}
		}
		if def.Name != "" {
			base.Name = def.Name
		}
		if def.Description != "" {
			base.Description = def.Description
		}
		if def.SystemPrompt != "" {
			base.SystemPrompt = def.SystemPrompt
		}
		r.Register(def.Key, base)
		logger.Infof("strategy: loaded profile override %q from %s", def.Key, path)
	}
	return nil
}
