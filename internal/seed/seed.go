// Package seed holds the default prompt templates shipped with the server.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"

	"notedev-server/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

type file struct {
	Templates []domain.CreateTemplateRequest `yaml:"templates"`
}

// Templates returns the built-in default templates.
func Templates() ([]domain.CreateTemplateRequest, error) {
	return Parse(defaultTemplates)
}

// Parse decodes a templates file. Unknown keys are rejected so typos in an
// operator-supplied file do not silently drop fields.
func Parse(data []byte) ([]domain.CreateTemplateRequest, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if len(f.Templates) == 0 {
		return nil, fmt.Errorf("failed to parse templates: no templates defined")
	}
	return f.Templates, nil
}
