package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadDataFiles parses every YAML, JSON, and TOML file under dataDir into a
// nested map keyed by path components, filename without extension last:
// data/people/team.yaml → result["people"]["team"]. A missing directory
// yields an empty map. The returned file list feeds dependency tracking.
func LoadDataFiles(dataDir string) (map[string]any, []string, error) {
	result := make(map[string]any)
	var files []string

	if _, err := os.Stat(dataDir); errors.Is(err, fs.ErrNotExist) {
		return result, nil, nil
	}

	err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" && ext != ".toml" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading data file %s: %w", path, err)
		}

		var parsed any
		switch ext {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &parsed); err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
		case ".json":
			if err := json.Unmarshal(data, &parsed); err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
		case ".toml":
			if err := toml.Unmarshal(data, &parsed); err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
		}

		relPath, err := filepath.Rel(dataDir, path)
		if err != nil {
			return fmt.Errorf("computing relative path for %s: %w", path, err)
		}
		files = append(files, filepath.ToSlash(path))

		parts := strings.Split(filepath.ToSlash(relPath), "/")
		parts[len(parts)-1] = strings.TrimSuffix(parts[len(parts)-1], ext)

		current := result
		for _, key := range parts[:len(parts)-1] {
			next, ok := current[key].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[key] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = parsed
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, files, nil
}
