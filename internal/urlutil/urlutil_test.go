package urlutil

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			in:   "HTTP://Example.COM:80/foo/../bar/?b=2&a=1#frag",
			want: "http://example.com/bar?a=1&b=2",
		},
		{
			in:   "https://example.com/page?utm_source=x&utm_medium=y&z=1",
			want: "https://example.com/page?z=1",
		},
		{
			in:   "https://example.com/page?gclid=abc&fbclid=def&id=42",
			want: "https://example.com/page?id=42",
		},
		{
			// unknown params survive: they may affect rendered content
			in:   "https://example.com/search?q=cadeira&page=2",
			want: "https://example.com/search?page=2&q=cadeira",
		},
		{
			in:   "https://example.com/foo/",
			want: "https://example.com/foo",
		},
		{
			// root slash is kept
			in:   "https://example.com/",
			want: "https://example.com/",
		},
		{
			in:   "https://例え.テスト/a",
			want: "https://xn--r8jz45g.xn--zckzah/a",
		},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"HTTP://Example.COM:80/foo/../bar/?b=2&a=1#frag",
		"https://example.com/page?utm_source=x&z=1",
		"https://www.example.com/a/b/c/",
		"not a url at all",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeMalformedPassthrough(t *testing.T) {
	// Best-effort contract: malformed input comes back unchanged.
	inputs := []string{"", ":://bad", "/relative/only", "%%%"}
	for _, in := range inputs {
		if got := Normalize(in); got != in {
			t.Fatalf("Normalize(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestBaseDomain(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"example.com", "example.com"},
		{"www.example.com", "example.com"},
		{"blog.example.com", "example.com"},
		{"m.blog.example.com", "example.com"},
		{"cdn.example.com", "example.com"},
	}
	for _, tt := range tests {
		if got := BaseDomain(tt.host); got != tt.want {
			t.Fatalf("BaseDomain(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestSubdomainLabel(t *testing.T) {
	if got := SubdomainLabel("blog.example.com", "example.com"); got != "blog" {
		t.Fatalf("SubdomainLabel = %q, want blog", got)
	}
	if got := SubdomainLabel("www.example.com", "example.com"); got != "" {
		t.Fatalf("SubdomainLabel for www = %q, want empty", got)
	}
	if got := SubdomainLabel("other.org", "example.com"); got != "" {
		t.Fatalf("SubdomainLabel for foreign host = %q, want empty", got)
	}
}
