package ai

import (
	"net"
	"net/netip"
	"net/url"
	"strings"
)

const completionsPath = "/chat/completions"

// privateRanges are the IPv4 blocks treated as local alongside loopback.
var privateRanges = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
}

// NormalizeURL accepts either a bare API root or a full completions
// endpoint and returns the completions endpoint.
func NormalizeURL(base string) string {
	base = strings.TrimSpace(base)
	if strings.HasSuffix(base, completionsPath) {
		return base
	}
	return strings.TrimSuffix(base, "/") + completionsPath
}

// BaseURL strips the completions path, leaving the API root.
func BaseURL(endpoint string) string {
	return strings.TrimSuffix(NormalizeURL(endpoint), completionsPath)
}

// IsLocal reports whether rawURL points at this machine or a private
// network, where no credential is required.
func IsLocal(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "" {
		// "localhost:11434" parses with the host as scheme.
		if h, _, err := net.SplitHostPort(rawURL); err == nil {
			host = h
		}
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	if addr.IsLoopback() {
		return true
	}
	for _, p := range privateRanges {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
