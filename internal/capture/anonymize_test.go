package capture

import "testing"

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string // "" means nil expected
	}{
		{"ipv4", "192.168.1.42", "192.168.1.0"},
		{"ipv4 zero already", "10.0.0.0", "10.0.0.0"},
		{"ipv4 public", "203.0.113.77", "203.0.113.0"},
		{"ipv6 full", "2001:0db8:85a3:0000:0000:8a2e:0370:7334", "2001:0db8:85a3:0:0:0:0:0"},
		{"ipv6 short groups", "2001:db8:1:2:3:4:5:6", "2001:db8:1:0:0:0:0:0"},
		{"ipv6 compressed tail", "2001:db8:abcd::1", "2001:db8:abcd:0:0:0:0:0"},
		{"ipv6 loopback", "::1", "0:0:0:0:0:0:0:0"},
		{"ipv4 mapped", "::ffff:192.168.1.42", "192.168.1.0"},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{"garbage", "not-an-ip", ""},
		{"hostname", "example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnonymizeIP(tt.in)
			if tt.want == "" {
				if got != nil {
					t.Fatalf("AnonymizeIP(%q) = %q, want nil", tt.in, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("AnonymizeIP(%q) = nil, want %q", tt.in, tt.want)
			}
			if *got != tt.want {
				t.Errorf("AnonymizeIP(%q) = %q, want %q", tt.in, *got, tt.want)
			}
		})
	}
}
