package forms

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type formsDocument struct {
	Forms []Form `json:"forms" yaml:"forms"`
}

// LoadFS collects the forms declared under the top-level "forms" key of every
// JSON/YAML file in fsys. Files without forms are skipped, so forms can live
// next to bundle definitions. Form names must be unique.
func LoadFS(fsys fs.FS) ([]Form, error) {
	if fsys == nil {
		return nil, nil
	}
	var out []Form
	seen := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("forms: read %s: %w", path, err)
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			return nil
		}

		var doc formsDocument
		if ext == ".json" {
			err = json.Unmarshal(data, &doc)
		} else {
			err = yaml.Unmarshal(data, &doc)
		}
		if err != nil {
			return fmt.Errorf("forms: parse %s: %w", path, err)
		}

		for _, form := range doc.Forms {
			name := strings.TrimSpace(form.Name)
			if name == "" {
				return fmt.Errorf("forms: %s declares a form without a name", path)
			}
			if prev, dup := seen[name]; dup {
				return fmt.Errorf("forms: form %q declared in %s and %s", name, prev, path)
			}
			seen[name] = path
			form.Name = name
			out = append(out, form)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Index maps forms by name.
func Index(list []Form) map[string]Form {
	out := make(map[string]Form, len(list))
	for _, form := range list {
		out[form.Name] = form
	}
	return out
}
