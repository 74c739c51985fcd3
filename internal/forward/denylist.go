package forward

import (
	"net/url"
	"strings"
)

// deniedHosts are local, loopback, and dev hostnames that must never
// receive forwarded traffic. A staging deployment accidentally configured
// with one of these behaves exactly like an unconfigured deployment.
var deniedHosts = []string{
	"localhost",
	"127.0.0.1",
	"::1",
	"0.0.0.0",
	"host.docker.internal",
	".local",
	".internal",
	".test",
}

// HostDenied reports whether the destination host of rawURL matches the
// denylist. Unparseable URLs are denied; they would fail the request
// anyway and denial keeps them off the network.
func HostDenied(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return true
	}
	for _, denied := range deniedHosts {
		if strings.HasPrefix(denied, ".") {
			if strings.HasSuffix(host, denied) {
				return true
			}
			continue
		}
		// Substring match: "localhost" also catches "app.localhost".
		if strings.Contains(host, denied) {
			return true
		}
	}
	return false
}
