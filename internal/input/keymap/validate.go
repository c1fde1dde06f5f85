package keymap

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Parse decodes and validates a stored config. Any violation is returned
// as a classified *Error and no config is produced.
func Parse(data []byte) (*Config, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}
	c := New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, Wrap(KindInvalidConfig, err, "decode config")
	}
	if err := validateSemantics(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks a config before it is saved. It runs the same
// structural checks as Parse on the encoded form, followed by the
// semantic checks.
func Validate(c *Config) error {
	if c == nil {
		return Errorf(KindInvalidConfig, "config is nil")
	}
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := validateDocument(data); err != nil {
		return err
	}
	return validateSemantics(c)
}

// validateDocument runs the structural schema over raw JSON.
func validateDocument(data []byte) error {
	doc, err := decodeRaw(data)
	if err != nil {
		return err
	}
	schema, err := Schema()
	if err != nil {
		return Wrap(KindInvalidConfig, err, "load schema")
	}
	if err := schema.Validate(doc); err != nil {
		return classifySchemaError(err)
	}
	return nil
}

func validateSemantics(c *Config) error {
	for i, site := range c.Sites {
		if _, err := NormalizeSite(site); err != nil {
			return Wrap(KindInvalidSite, err, fmt.Sprintf("/websites/%d", i))
		}
	}
	for id, m := range c.Mappings {
		if err := validateMapping(id, m); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMapping checks a single mapping and its source identity.
func ValidateMapping(identity string, m Mapping) error {
	if err := validateMapping(identity, m); err != nil {
		return err
	}
	doc := &Config{Sites: []string{}, Mappings: Table{identity: m}}
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	return validateDocument(data)
}

func validateMapping(id string, m Mapping) error {
	if id == "" {
		return Errorf(KindInvalidMapping, "mapping source is empty")
	}
	if m.IsSequence() && len(m.Steps) == 0 {
		return Errorf(KindInvalidMapping, "sequence for %s has no steps", id)
	}
	for i, r := range m.Records() {
		if r.Key == "" {
			return Errorf(KindInvalidKeyInfo, "mapping %s: record %d has no key", id, i+1)
		}
		if r.Delay != nil && *r.Delay < 0 {
			return Errorf(KindInvalidKeyInfo, "mapping %s: step %d has negative delay", id, i+1)
		}
	}
	return nil
}

// decodeRaw decodes JSON into the generic form the schema validator
// expects, keeping numbers exact.
func decodeRaw(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, Wrap(KindInvalidConfig, err, "config is not valid JSON")
	}
	if dec.More() {
		return nil, Errorf(KindInvalidConfig, "config has trailing data")
	}
	return doc, nil
}
