package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// DefaultTrustedProxies are the loopback and private ranges.
var DefaultTrustedProxies = []string{
	"127.0.0.0/8",
	"::1/128",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

// IPResolver finds the client address, believing forwarding headers only
// when the direct peer is a trusted proxy.
type IPResolver struct {
	trustedProxies []*net.IPNet
}

// NewIPResolver parses cidrs. An empty list means DefaultTrustedProxies.
func NewIPResolver(cidrs []string) (*IPResolver, error) {
	if len(cidrs) == 0 {
		cidrs = DefaultTrustedProxies
	}
	r := &IPResolver{}
	for _, cidr := range cidrs {
		if err := r.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (d *IPResolver) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}

// ExtractClientIP returns the first X-Forwarded-For hop, then X-Real-IP,
// then the peer address.
func (d *IPResolver) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil || !d.isTrustedProxy(parsedDirectIP) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if clientIP := strings.TrimSpace(first); net.ParseIP(clientIP) != nil {
			return clientIP
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

func (d *IPResolver) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
