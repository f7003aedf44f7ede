package capture

import (
	"fmt"
	"net/netip"
	"strings"
)

// AnonymizeIP masks a source address before it is persisted: IPv4 keeps the
// /24 (last octet zeroed), IPv6 keeps the first three groups. Returns nil
// for unparseable or empty input — the stored value is null, never a
// placeholder string.
func AnonymizeIP(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return nil
	}
	if addr.Is4() || addr.Is4In6() {
		b := addr.As4()
		b[3] = 0
		s := netip.AddrFrom4(b).String()
		return &s
	}

	// IPv6: keep the first three groups as the sender wrote them, zero the
	// rest. Compressed forms that hide one of those groups are expanded
	// from the parsed address instead.
	parts := strings.Split(raw, ":")
	if len(parts) >= 3 && parts[0] != "" && parts[1] != "" && parts[2] != "" {
		s := parts[0] + ":" + parts[1] + ":" + parts[2] + ":0:0:0:0:0"
		return &s
	}

	b := addr.As16()
	g := make([]string, 8)
	for i := 0; i < 3; i++ {
		g[i] = fmt.Sprintf("%x", uint16(b[2*i])<<8|uint16(b[2*i+1]))
	}
	for i := 3; i < 8; i++ {
		g[i] = "0"
	}
	s := strings.Join(g, ":")
	return &s
}
