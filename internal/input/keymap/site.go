package keymap

import (
	"net/url"
	"strings"
)

// NormalizeSite turns user input into a bare lower-case hostname.
// Both "example.com" and "https://Example.COM/path" normalize to
// "example.com".
func NormalizeSite(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", Errorf(KindInvalidSite, "site is empty")
	}

	candidate := raw
	if !hasHTTPScheme(candidate) {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return "", Wrap(KindInvalidSite, err, "invalid site "+raw)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || strings.ContainsAny(host, " \t") {
		return "", Errorf(KindInvalidSite, "invalid site %s", raw)
	}
	return host, nil
}

// IsActive reports whether remapping applies on hostname: the hostname
// equals a configured site or is a subdomain of one. "evilsite.com" does
// not match "site.com".
//
// It runs on every key press and does not allocate for already
// lower-case hostnames.
func IsActive(c *Config, hostname string) bool {
	if c == nil || hostname == "" {
		return false
	}
	for _, site := range c.Sites {
		s := bareHost(site)
		if s == "" {
			continue
		}
		if strings.EqualFold(hostname, s) {
			return true
		}
		if n := len(hostname) - len(s); n > 0 && hostname[n-1] == '.' && strings.EqualFold(hostname[n:], s) {
			return true
		}
	}
	return false
}

// bareHost strips a scheme and path from a stored site entry without
// allocating. Entries written by this package are already bare; entries
// from older data may not be.
func bareHost(site string) string {
	site = strings.TrimSpace(site)
	if hasHTTPScheme(site) {
		site = site[strings.Index(site, "//")+2:]
	}
	if i := strings.IndexByte(site, '/'); i >= 0 {
		site = site[:i]
	}
	return site
}

func hasHTTPScheme(s string) bool {
	return len(s) >= 7 && strings.EqualFold(s[:7], "http://") ||
		len(s) >= 8 && strings.EqualFold(s[:8], "https://")
}
