package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gajana-dev/gajana/internal/model"
)

// LoadProfiles reads every parsing profile in dir. Profiles are .json,
// .yaml or .yml files keyed by their base name ("cc-hdfc.json" is
// "cc-hdfc"). A missing directory yields no profiles.
func LoadProfiles(dir string) (map[string]model.ParsingProfile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]model.ParsingProfile{}, nil
		}
		return nil, fmt.Errorf("reading profiles dir: %w", err)
	}

	profiles := make(map[string]model.ParsingProfile, len(entries))
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".json" && ext != ".yaml" && ext != ".yml") {
			continue
		}
		key := strings.ToLower(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		if _, dup := profiles[key]; dup {
			return nil, fmt.Errorf("profile %q is defined twice in %s", key, dir)
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading profile: %w", err)
		}
		// JSON is a subset of YAML, so one decoder serves both.
		var p model.ParsingProfile
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parsing profile %s: %w", path, err)
		}
		p.Name = key
		profiles[key] = p
	}
	return profiles, nil
}
