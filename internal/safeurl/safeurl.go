// Package safeurl validates URLs that cross trust boundaries: stream
// targets submitted by players and proxy bases taken from configuration.
package safeurl

import (
	"net"
	"net/url"
	"strings"
)

// IsHTTPOrHTTPS returns true if u is a valid URL with scheme http or https.
// Rejects file://, ftp://, and other schemes that could lead to SSRF or
// local file access.
func IsHTTPOrHTTPS(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	s := parsed.Scheme
	return s == "http" || s == "https"
}

// IsLoopback reports whether u names localhost or a loopback IP. Loopback
// stream URLs point back at this process and must never be sent upstream
// for resolution.
func IsLoopback(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
