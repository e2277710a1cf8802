package transport

import "testing"

func TestIsOriginAllowedNoOriginHeaderPasses(t *testing.T) {
	if !isOriginAllowed("", "example.com", nil) {
		t.Fatal("empty Origin should be allowed (non-browser clients)")
	}
}

func TestIsOriginAllowedLocalhostPassesWithoutAllowlist(t *testing.T) {
	if !isOriginAllowed("http://localhost:3000", "example.com:9001", nil) {
		t.Fatal("localhost origin should be allowed by default")
	}
}

func TestIsOriginAllowedRejectsUnlistedOrigin(t *testing.T) {
	if isOriginAllowed("http://evil.example", "api.example.com", []string{"http://app.example.com"}) {
		t.Fatal("origin not on the allowlist must be rejected")
	}
}

func TestIsOriginAllowedAcceptsListedOrigin(t *testing.T) {
	if !isOriginAllowed("http://app.example.com", "api.example.com", []string{"http://app.example.com"}) {
		t.Fatal("origin on the allowlist must be accepted")
	}
}
