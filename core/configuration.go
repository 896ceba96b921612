package core

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var emptyObject = json.RawMessage(`{}`)

// ParseIndexConfiguration decodes a JSON index configuration document.
func ParseIndexConfiguration(data []byte) (*IndexConfiguration, error) {
	var config IndexConfiguration
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, &Error{
			Kind:    KindInvalidConfiguration,
			Details: "could not deserialize index configuration: " + string(data),
			cause:   err,
		}
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ParseIndexConfigurationYAML decodes a YAML index configuration document.
// Settings and mappings are converted to JSON and stay opaque.
func ParseIndexConfigurationYAML(data []byte) (*IndexConfiguration, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{
			Kind:    KindInvalidConfiguration,
			Details: "could not deserialize yaml index configuration",
			cause:   err,
		}
	}

	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, &Error{
			Kind:    KindInvalidConfiguration,
			Details: "yaml index configuration is not representable as JSON",
			cause:   err,
		}
	}

	return ParseIndexConfiguration(asJSON)
}

// LoadIndexConfiguration reads an index configuration from disk, picking the
// decoder from the file extension (.yaml/.yml, anything else is JSON).
func LoadIndexConfiguration(path string) (*IndexConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{
			Kind:    KindInvalidConfiguration,
			Details: "could not read index configuration " + path,
			cause:   err,
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseIndexConfigurationYAML(data)
	default:
		return ParseIndexConfiguration(data)
	}
}

func (c *IndexConfiguration) normalize() error {
	if strings.TrimSpace(c.Name) == "" {
		return newError(KindInvalidConfiguration, "index configuration without name")
	}

	if isEmptyJSON(c.Settings) {
		c.Settings = emptyObject
	}
	if isEmptyJSON(c.Mappings) {
		c.Mappings = emptyObject
	}

	return nil
}

// body builds the create index request body.
func (c *IndexConfiguration) body() (json.RawMessage, error) {
	settings, mappings := c.Settings, c.Mappings
	if isEmptyJSON(settings) {
		settings = emptyObject
	}
	if isEmptyJSON(mappings) {
		mappings = emptyObject
	}

	if !json.Valid(settings) {
		return nil, newErrorf(KindInvalidConfiguration, "invalid settings for index '%s'", c.Name)
	}
	if !json.Valid(mappings) {
		return nil, newErrorf(KindInvalidConfiguration, "invalid mappings for index '%s'", c.Name)
	}

	body, err := json.Marshal(struct {
		Mappings json.RawMessage `json:"mappings"`
		Settings json.RawMessage `json:"settings"`
	}{mappings, settings})
	if err != nil {
		return nil, &Error{
			Kind:    KindInvalidConfiguration,
			Details: "could not build index configuration body",
			cause:   err,
		}
	}

	return body, nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
