package keymap

import (
	"encoding/json"
	"slices"
)

// RepairReport lists what a load-time repair changed.
type RepairReport struct {
	// DuplicateSites are site entries removed because they repeated an
	// earlier entry.
	DuplicateSites []string

	// InvalidSites are site entries removed because they do not
	// normalize to a hostname.
	InvalidSites []string

	// RewrittenSites are entries replaced by their normalized form.
	RewrittenSites []string

	// DroppedMappings are identities whose mapping was missing or
	// malformed.
	DroppedMappings []string

	// ResetFields names top-level fields that had the wrong type and
	// were reset to empty.
	ResetFields []string
}

// Changed returns true if the repair modified the config.
func (r RepairReport) Changed() bool {
	return len(r.DuplicateSites) > 0 || len(r.InvalidSites) > 0 ||
		len(r.RewrittenSites) > 0 || len(r.DroppedMappings) > 0 ||
		len(r.ResetFields) > 0
}

// Load decodes a stored config leniently. Entries that would fail
// validation are dropped and reported instead of failing the whole
// load. Only a document that is not a JSON object is rejected.
func Load(data []byte) (*Config, RepairReport, error) {
	var report RepairReport

	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil || root == nil {
		if err == nil {
			return nil, report, Errorf(KindInvalidConfig, "config is null")
		}
		return nil, report, Wrap(KindInvalidConfig, err, "config is not an object")
	}

	c := New()
	if raw, ok := root["websites"]; ok {
		var sites []json.RawMessage
		if err := json.Unmarshal(raw, &sites); err != nil {
			report.ResetFields = append(report.ResetFields, "websites")
		}
		for _, s := range sites {
			var site string
			if err := json.Unmarshal(s, &site); err != nil {
				report.InvalidSites = append(report.InvalidSites, string(s))
				continue
			}
			c.Sites = append(c.Sites, site)
		}
	} else {
		report.ResetFields = append(report.ResetFields, "websites")
	}

	if raw, ok := root["mappings"]; ok {
		var table map[string]json.RawMessage
		if err := json.Unmarshal(raw, &table); err != nil {
			report.ResetFields = append(report.ResetFields, "mappings")
		}
		for id, value := range table {
			m, ok := loadMapping(id, value)
			if !ok {
				report.DroppedMappings = append(report.DroppedMappings, id)
				continue
			}
			c.Mappings[id] = m
		}
	} else {
		report.ResetFields = append(report.ResetFields, "mappings")
	}
	slices.Sort(report.DroppedMappings)

	r := Repair(c)
	report.DuplicateSites = r.DuplicateSites
	report.InvalidSites = append(report.InvalidSites, r.InvalidSites...)
	report.RewrittenSites = r.RewrittenSites
	report.DroppedMappings = append(report.DroppedMappings, r.DroppedMappings...)
	return c, report, nil
}

func loadMapping(id string, value json.RawMessage) (Mapping, bool) {
	if id == "" {
		return Mapping{}, false
	}
	doc, err := json.Marshal(map[string]any{
		"websites": []string{},
		"mappings": map[string]json.RawMessage{id: value},
	})
	if err != nil || validateDocument(doc) != nil {
		return Mapping{}, false
	}
	var m Mapping
	if err := json.Unmarshal(value, &m); err != nil {
		return Mapping{}, false
	}
	return m, validateMapping(id, m) == nil
}

// Repair fixes a decoded config in place: site entries are normalized
// and deduplicated keeping first-seen order, unusable sites are dropped
// and mappings that fail validation are removed.
func Repair(c *Config) RepairReport {
	var report RepairReport
	if c.Sites == nil {
		c.Sites = []string{}
	}
	if c.Mappings == nil {
		c.Mappings = Table{}
	}

	seen := make(map[string]struct{}, len(c.Sites))
	sites := c.Sites[:0]
	for _, site := range c.Sites {
		norm, err := NormalizeSite(site)
		if err != nil {
			report.InvalidSites = append(report.InvalidSites, site)
			continue
		}
		if norm != site {
			report.RewrittenSites = append(report.RewrittenSites, site)
		}
		if _, dup := seen[norm]; dup {
			report.DuplicateSites = append(report.DuplicateSites, norm)
			continue
		}
		seen[norm] = struct{}{}
		sites = append(sites, norm)
	}
	c.Sites = sites

	for _, id := range c.Identities() {
		if validateMapping(id, c.Mappings[id]) != nil {
			delete(c.Mappings, id)
			report.DroppedMappings = append(report.DroppedMappings, id)
		}
	}
	return report
}
