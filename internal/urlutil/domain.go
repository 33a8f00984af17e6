package urlutil

import (
	"net/url"
	"strings"
)

// Host prefixes that never distinguish a logical site: a link to
// www.example.com belongs to example.com for policy purposes.
var commonHostPrefixes = []string{"www", "m", "mobile", "api", "cdn", "static", "assets"}

// StripCommonPrefix removes one leading common prefix label from host.
func StripCommonPrefix(host string) string {
	host = strings.ToLower(host)
	for _, p := range commonHostPrefixes {
		if strings.HasPrefix(host, p+".") {
			return host[len(p)+1:]
		}
	}
	return host
}

// BaseDomain reduces a host to its registrable base: common prefixes are
// stripped and, when more than two labels remain, only the last two are
// kept. Good enough for same-site policy checks; not a public-suffix lookup.
func BaseDomain(host string) string {
	host = StripCommonPrefix(host)
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// SubdomainLabel returns the subdomain portion of host relative to base, or
// "" when host is the bare base domain (after common-prefix stripping).
func SubdomainLabel(host, base string) string {
	host = StripCommonPrefix(host)
	if host == base {
		return ""
	}
	if strings.HasSuffix(host, "."+base) {
		return strings.TrimSuffix(host, "."+base)
	}
	return ""
}

// SameBaseDomain reports whether two absolute URLs share a base domain.
func SameBaseDomain(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return BaseDomain(ua.Hostname()) == BaseDomain(ub.Hostname())
}
