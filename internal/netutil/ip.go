// Package netutil normalizes IP and MAC address strings extracted from raw
// device output into the canonical forms the store expects.
package netutil

import (
	"fmt"
	"net"
)

// NormalizeIPv4 parses s and returns its canonical dotted-quad form.
// Malformed or non-IPv4 strings are rejected rather than silently passed
// through, per the ARP-load normalization rule.
func NormalizeIPv4(s string) (string, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return "", fmt.Errorf("netutil: invalid IP address %q", s)
	}
	v4 := ip.To4()
	if v4 == nil {
		return "", fmt.Errorf("netutil: %q is not an IPv4 address", s)
	}
	return v4.String(), nil
}

// IsValidIPv4 reports whether s parses as an IPv4 address.
func IsValidIPv4(s string) bool {
	_, err := NormalizeIPv4(s)
	return err == nil
}
