package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gruntek/audit-intake/internal/intake"
	"gopkg.in/yaml.v3"
)

// intakeDocument is the on-disk intake file: the form sections plus an
// optional list of already-known storage keys or URLs.
type intakeDocument struct {
	intake.Form `yaml:",inline"`
	Files       []string `json:"files,omitempty" yaml:"files,omitempty"`
}

// loadDocument reads an intake file. The extension picks the codec: .json
// is JSON, everything else is parsed as YAML.
func loadDocument(path string) (*intakeDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read intake file: %w", err)
	}

	doc := &intakeDocument{Form: intake.DefaultForm()}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, fmt.Errorf("failed to parse intake file %s: %w", path, err)
		}
		return doc, nil
	}

	if err := yaml.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to parse intake file %s: %w", path, err)
	}
	return doc, nil
}
