package ssrf

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// Validation failures. ErrResolve wraps the resolver error so operators see
// the underlying DNS failure code.
var (
	ErrScheme          = errors.New("ssrf: scheme must be http or https")
	ErrUserinfo        = errors.New("ssrf: userinfo in URL is not allowed")
	ErrBlockedHostname = errors.New("ssrf: hostname is blocked")
	ErrBlockedAddr     = errors.New("ssrf: address resolves to a blocked range")
	ErrResolve         = errors.New("ssrf: hostname did not resolve")
)

// blockedHostnames are refused before any DNS lookup.
var blockedHostnames = map[string]struct{}{
	"localhost":             {},
	"localhost.localdomain": {},
	"ip6-localhost":         {},
	"ip6-loopback":          {},
}

// blockedV4 covers private, loopback, link-local/metadata, CGNAT, multicast
// and reserved space.
var blockedV4 = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),       // "this network"
	netip.MustParsePrefix("10.0.0.0/8"),      // RFC1918
	netip.MustParsePrefix("100.64.0.0/10"),   // CGNAT
	netip.MustParsePrefix("127.0.0.0/8"),     // loopback
	netip.MustParsePrefix("169.254.0.0/16"),  // link-local / cloud metadata
	netip.MustParsePrefix("172.16.0.0/12"),   // RFC1918
	netip.MustParsePrefix("192.168.0.0/16"),  // RFC1918
	netip.MustParsePrefix("224.0.0.0/4"),     // multicast
	netip.MustParsePrefix("240.0.0.0/4"),     // reserved / class E
}

var blockedV6 = []netip.Prefix{
	netip.MustParsePrefix("::1/128"),   // loopback
	netip.MustParsePrefix("fc00::/7"),  // unique local
	netip.MustParsePrefix("fe80::/10"), // link-local
}

// Resolver is the subset of net.Resolver the validator needs; swapped out
// in tests.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Validator classifies candidate replay target URLs before any outbound
// call is made. Resolution happens once, synchronously; DNS rebinding after
// validation is out of scope.
type Validator struct {
	resolver Resolver
}

func New(resolver Resolver) *Validator {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Validator{resolver: resolver}
}

// Validate parses rawURL and returns the full set of resolved addresses
// when the target is safe to call. Every address DNS returns is classified;
// one blocked address poisons the whole hostname.
func (v *Validator) Validate(ctx context.Context, rawURL string) ([]netip.Addr, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("ssrf: parse url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrScheme
	}
	if u.User != nil {
		return nil, ErrUserinfo
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("%w: empty host", ErrBlockedHostname)
	}
	if _, ok := blockedHostnames[host]; ok || strings.HasSuffix(host, ".localhost") {
		return nil, fmt.Errorf("%w: %s", ErrBlockedHostname, host)
	}

	// literal addresses skip DNS but still get classified
	if addr, err := netip.ParseAddr(host); err == nil {
		if reason := classify(addr); reason != "" {
			return nil, fmt.Errorf("%w: %s is %s", ErrBlockedAddr, addr, reason)
		}
		return []netip.Addr{addr.Unmap()}, nil
	}

	ipAddrs, err := v.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrResolve, host, err)
	}
	if len(ipAddrs) == 0 {
		return nil, fmt.Errorf("%w: %s: no addresses", ErrResolve, host)
	}

	addrs := make([]netip.Addr, 0, len(ipAddrs))
	for _, ia := range ipAddrs {
		addr, ok := netip.AddrFromSlice(ia.IP)
		if !ok {
			return nil, fmt.Errorf("%w: %s: bad address %v", ErrResolve, host, ia.IP)
		}
		if reason := classify(addr); reason != "" {
			return nil, fmt.Errorf("%w: %s resolves to %s (%s)", ErrBlockedAddr, host, addr, reason)
		}
		addrs = append(addrs, addr.Unmap())
	}

	return addrs, nil
}

// classify returns a non-empty reason when addr falls in a blocked range.
// IPv4-mapped IPv6 addresses are judged by their IPv4 payload.
func classify(addr netip.Addr) string {
	a := addr.Unmap()

	if a.Is4() {
		for _, p := range blockedV4 {
			if p.Contains(a) {
				return rangeName(p)
			}
		}
		return ""
	}

	for _, p := range blockedV6 {
		if p.Contains(a) {
			return rangeName(p)
		}
	}
	return ""
}

func rangeName(p netip.Prefix) string {
	switch p.String() {
	case "127.0.0.0/8", "::1/128":
		return "loopback"
	case "169.254.0.0/16":
		return "link-local"
	case "100.64.0.0/10":
		return "carrier-grade NAT"
	case "224.0.0.0/4":
		return "multicast"
	case "240.0.0.0/4":
		return "reserved"
	case "0.0.0.0/8":
		return "this-network"
	case "fc00::/7":
		return "unique-local"
	case "fe80::/10":
		return "link-local"
	default:
		return "private"
	}
}
