package airthings

import (
	"fmt"
	"net"
	"strings"

	"github.com/pkg/errors"
)

// ParseMacAddress accepts only the colon separated six octet form, e.g. 12:34:56:78:9A:BC.
// Hex digits are case-insensitive.
func ParseMacAddress(s string) (net.HardwareAddr, error) {
	if len(s) != 17 || strings.Count(s, ":") != 5 {
		return nil, errors.Errorf("invalid mac address %q: expected XX:XX:XX:XX:XX:XX", s)
	}
	addr, err := net.ParseMAC(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid mac address %q", s)
	}
	return addr, nil
}

// FormatMacAddress renders addr as upper-case colon separated octets.
func FormatMacAddress(addr net.HardwareAddr) string {
	parts := make([]string, len(addr))
	for i, b := range addr {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}
