package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/cdmforge/pkg/errors"
)

// Foundation is the foundational schema the canonical schema is initialized
// from. It carries combined type strings like VARCHAR(50) which Initialize
// splits into data_type and max_length.
type Foundation struct {
	Domain   string             `json:"domain" yaml:"domain"`
	Version  string             `json:"cdm_version" yaml:"cdm_version"`
	Entities []FoundationEntity `json:"entities" yaml:"entities"`
}

// FoundationEntity is one entity of a foundational schema.
type FoundationEntity struct {
	EntityName     string                `json:"entity_name" yaml:"entity_name"`
	Description    string                `json:"description" yaml:"description"`
	Classification string                `json:"classification" yaml:"classification"`
	Attributes     []FoundationAttribute `json:"attributes" yaml:"attributes"`
	Relationships  []json.RawMessage     `json:"relationships" yaml:"relationships"`
}

// FoundationAttribute is one attribute of a foundational entity.
type FoundationAttribute struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"` // e.g. "VARCHAR(50)", "DATE"
	Required    bool   `json:"required" yaml:"required"`
	PK          bool   `json:"pk" yaml:"pk"`
	Description string `json:"description" yaml:"description"`
}

// LoadFoundation reads a foundational schema from a JSON or YAML file,
// selecting the decoder by file extension.
func LoadFoundation(path string) (*Foundation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var foundation Foundation
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &foundation); err != nil {
			return nil, errors.WrapParse("yaml", path, err)
		}
	default:
		if err := json.Unmarshal(data, &foundation); err != nil {
			return nil, errors.WrapParse("json", path, err)
		}
	}

	if len(foundation.Entities) == 0 {
		return nil, errors.NewValidationError("entities", nil, "foundation has no entities")
	}

	return &foundation, nil
}
