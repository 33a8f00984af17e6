package urlutil

import (
	"net"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

// Tracking params stripped during normalization. Everything not listed here
// survives, since unknown query params may affect rendered content.
var trackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {},
	"utm_content": {}, "utm_id": {},
	"gclid": {}, "dclid": {}, "msclkid": {}, "yclid": {}, "wbraid": {}, "gbraid": {},
	"fbclid": {}, "igshid": {}, "twclid": {}, "ttclid": {},
	"mc_cid": {}, "mc_eid": {}, "mkt_tok": {},
	"_hsenc": {}, "_hsmi": {},
}

func isTrackingParam(key string) bool {
	k := strings.ToLower(key)
	if _, ok := trackingParams[k]; ok {
		return true
	}
	return strings.HasPrefix(k, "utm_")
}

// Normalize canonicalizes an absolute URL into the dedup key used by the
// crawler and aggregator: lowercased host, default ports and fragments
// dropped, trailing slash stripped except at the root, tracking params
// removed, remaining query params kept (sorted for determinism).
//
// Normalization is best-effort, not a correctness gate: malformed input is
// returned unchanged so downstream code can treat failure as a no-op.
// Normalize is idempotent.
func Normalize(raw string) string {
	out, err := Canonicalize(raw, Options{DropTrackingParams: true, StripTrailingSlash: true})
	if err != nil {
		return raw
	}
	return out
}

// Options controls optional canonicalization policies.
type Options struct {
	DropTrackingParams bool   // remove known tracking params (utm_*, gclid, fbclid, ...)
	StripTrailingSlash bool   // treat /a and /a/ the same (root "/" kept)
	DefaultScheme      string // if non-empty, assume this scheme for schemeless input
}

// Canonicalize returns a deterministic canonical URL string or an error.
// It uses net/url plus path.Clean and sorts query params for determinism.
func Canonicalize(raw string, opts Options) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &url.Error{Op: "canonicalize", URL: raw, Err: ErrEmptyURL}
	}

	if opts.DefaultScheme != "" && !strings.Contains(raw, "://") {
		raw = opts.DefaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", &url.Error{Op: "canonicalize", URL: raw, Err: ErrMissingHost}
	}

	u.Scheme = strings.ToLower(u.Scheme)

	// Lowercase host and convert IDN -> punycode
	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}

	// Preserve non-default port only
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") || port == "" {
		u.Host = host
	} else {
		u.Host = net.JoinHostPort(host, port)
	}

	// Drop credentials and fragment
	u.User = nil
	u.Fragment = ""

	cleanPath := u.Path
	if cleanPath != "" {
		cleanPath = path.Clean(cleanPath)
		if cleanPath == "." {
			cleanPath = "/"
		}
	}
	if opts.StripTrailingSlash && len(cleanPath) > 1 {
		cleanPath = strings.TrimRight(cleanPath, "/")
		if cleanPath == "" {
			cleanPath = "/"
		}
	}
	u.Path = cleanPath

	// Normalize query: strip tracking params, then sort keys and values
	q := u.Query()
	if opts.DropTrackingParams {
		for k := range q {
			if isTrackingParam(k) {
				q.Del(k)
			}
		}
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := url.Values{}
	for _, k := range keys {
		values := q[k]
		sort.Strings(values)
		for _, v := range values {
			ordered.Add(k, v)
		}
	}
	u.RawQuery = ordered.Encode()

	return u.String(), nil
}

// Errors
var (
	ErrEmptyURL    = &errStr{"empty url"}
	ErrMissingHost = &errStr{"missing host"}
)

type errStr struct{ s string }

func (e *errStr) Error() string { return e.s }
