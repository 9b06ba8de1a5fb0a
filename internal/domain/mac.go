package domain

import (
	"encoding/hex"
	"errors"
	"strings"
)

// MacAddress is a 6-byte 802.11 hardware address. It is a value type so
// catalog code can compare and map on it directly instead of reparsing
// strings at every boundary.
type MacAddress [6]byte

var ErrMacLength = errors.New("dot11: mac address must be 6 bytes")

// ParseMac accepts 6 raw bytes and returns a MacAddress.
func ParseMac(b []byte) (MacAddress, error) {
	var m MacAddress
	if len(b) != 6 {
		return m, ErrMacLength
	}
	copy(m[:], b)
	return m, nil
}

// ParseMacString parses the canonical "xx:xx:xx:xx:xx:xx" form, the
// inverse of String, used to round-trip a MacAddress through storage.
func ParseMacString(s string) (MacAddress, error) {
	var m MacAddress
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return m, ErrMacLength
	}
	for i, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil || len(b) != 1 {
			return m, ErrMacLength
		}
		m[i] = b[0]
	}
	return m, nil
}

// String renders the canonical lowercase colon-separated form.
func (m MacAddress) String() string {
	buf := make([]byte, 17)
	hex.Encode(buf[0:2], m[0:1])
	buf[2] = ':'
	hex.Encode(buf[3:5], m[1:2])
	buf[5] = ':'
	hex.Encode(buf[6:8], m[2:3])
	buf[8] = ':'
	hex.Encode(buf[9:11], m[3:4])
	buf[11] = ':'
	hex.Encode(buf[12:14], m[4:5])
	buf[14] = ':'
	hex.Encode(buf[15:17], m[5:6])
	return string(buf)
}

var broadcastMac = MacAddress{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// IsBroadcast reports whether m is the all-ones broadcast address.
func (m MacAddress) IsBroadcast() bool {
	return m == broadcastMac
}

// IsZero reports whether m is the all-zero address.
func (m MacAddress) IsZero() bool {
	return m == MacAddress{}
}

// IsMulticast reports whether the individual/group bit (LSB of the first
// octet) is set.
func (m MacAddress) IsMulticast() bool {
	return m[0]&0x01 != 0
}

// IsRealDevice reports whether m can plausibly identify a physical client:
// not broadcast, not multicast, not the zero address.
func (m MacAddress) IsRealDevice() bool {
	return !m.IsBroadcast() && !m.IsMulticast() && !m.IsZero()
}
