package keymap

import (
	"encoding/json"
	"slices"

	"github.com/Aimarl0/keymap-extension/internal/input/key"
)

// StorageKey is the key the config is stored under in both stores.
const StorageKey = "keyMapperConfig"

// BackupKey is the key of the backup snapshot in the local store.
const BackupKey = "keyMapperConfigBackup"

// Config is the remapping configuration.
type Config struct {
	// Sites are bare lower-case hostnames remapping is active on.
	Sites []string `yaml:"websites"`

	// Mappings maps source identities to their replacement.
	Mappings Table `yaml:"mappings"`
}

// New returns an empty config.
func New() *Config {
	return &Config{
		Sites:    []string{},
		Mappings: Table{},
	}
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return New()
	}
	return &Config{
		Sites:    append([]string{}, c.Sites...),
		Mappings: c.Mappings.Clone(),
	}
}

// Equals returns true if two configs hold the same sites in the same
// order and equal mapping tables.
func (c *Config) Equals(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return slices.Equal(c.Sites, other.Sites) && c.Mappings.Equals(other.Mappings)
}

// HasSite returns true if the exact site entry is configured.
func (c *Config) HasSite(site string) bool {
	return slices.Contains(c.Sites, site)
}

// AddSite appends a site entry. The caller normalizes and deduplicates.
func (c *Config) AddSite(site string) {
	c.Sites = append(c.Sites, site)
}

// RemoveSite removes every entry equal to site and reports whether one
// was found.
func (c *Config) RemoveSite(site string) bool {
	n := len(c.Sites)
	c.Sites = slices.DeleteFunc(c.Sites, func(s string) bool { return s == site })
	return len(c.Sites) != n
}

// Lookup returns the mapping stored under a source identity.
func (c *Config) Lookup(identity string) (Mapping, bool) {
	if c == nil {
		return Mapping{}, false
	}
	m, ok := c.Mappings[identity]
	return m, ok
}

// SetMapping stores a mapping and reports whether it replaced one.
func (c *Config) SetMapping(identity string, m Mapping) (replaced bool) {
	if c.Mappings == nil {
		c.Mappings = Table{}
	}
	_, replaced = c.Mappings[identity]
	c.Mappings[identity] = m.Clone()
	return replaced
}

// RemoveMapping deletes a mapping and reports whether it existed.
func (c *Config) RemoveMapping(identity string) bool {
	if _, ok := c.Mappings[identity]; !ok {
		return false
	}
	delete(c.Mappings, identity)
	return true
}

// Identities returns the mapping sources in sorted order.
func (c *Config) Identities() []string {
	ids := make([]string, 0, len(c.Mappings))
	for id := range c.Mappings {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SourceIdentity computes the identity a captured source record is
// stored under.
func SourceIdentity(p key.Platform, source key.Record) string {
	return key.Identify(p, source)
}

// configJSON is the stored shape of a config.
type configJSON struct {
	Websites []string `json:"websites"`
	Mappings Table    `json:"mappings"`
}

// MarshalJSON encodes the config in its stored shape. Nil collections are
// written as empty ones so the result always validates structurally.
func (c *Config) MarshalJSON() ([]byte, error) {
	out := configJSON{Websites: c.Sites, Mappings: c.Mappings}
	if out.Websites == nil {
		out.Websites = []string{}
	}
	if out.Mappings == nil {
		out.Mappings = Table{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the stored shape without validating it.
func (c *Config) UnmarshalJSON(data []byte) error {
	var in configJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Sites = in.Websites
	c.Mappings = in.Mappings
	if c.Sites == nil {
		c.Sites = []string{}
	}
	if c.Mappings == nil {
		c.Mappings = Table{}
	}
	return nil
}

// Encode returns the stored representation of the config.
func (c *Config) Encode() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, Wrap(KindInvalidConfig, err, "encode config")
	}
	return data, nil
}
