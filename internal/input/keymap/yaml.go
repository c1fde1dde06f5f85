package keymap

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// MarshalYAML encodes a single mapping as a mapping node and a sequence
// as a list, mirroring the JSON shape.
func (m Mapping) MarshalYAML() (any, error) {
	if m.IsSequence() {
		return m.Steps, nil
	}
	return m.Target, nil
}

// EncodeYAML renders a config as YAML for export.
func EncodeYAML(c *Config) ([]byte, error) {
	out := struct {
		Websites []string `yaml:"websites"`
		Mappings Table    `yaml:"mappings"`
	}{Websites: c.Sites, Mappings: c.Mappings}
	if out.Websites == nil {
		out.Websites = []string{}
	}
	if out.Mappings == nil {
		out.Mappings = Table{}
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, Wrap(KindInvalidConfig, err, "encode yaml")
	}
	return data, nil
}

// DecodeYAML parses and validates a YAML export. The document goes
// through the same checks as a stored JSON config.
func DecodeYAML(data []byte) (*Config, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, Wrap(KindInvalidConfig, err, "decode yaml")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, Wrap(KindInvalidConfig, err, "convert yaml")
	}
	return Parse(raw)
}
