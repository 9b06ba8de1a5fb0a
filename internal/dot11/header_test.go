package dot11

import (
	"bytes"
	"testing"

	"github.com/lcalzada-xor/wifitify/internal/domain"
)

func mustMac(b byte) domain.MacAddress {
	m, _ := domain.ParseMac([]byte{b, b, b, b, b, b})
	return m
}

// buildRadiotap returns a minimal, valid 8-byte radiotap header (no
// present fields beyond the length prefix itself).
func buildRadiotap() []byte {
	return []byte{0, 0, 8, 0, 0, 0, 0, 0}
}

func TestAddressResolutionNeitherDS(t *testing.T) {
	addr1, addr2, addr3 := mustMac(0xAA), mustMac(0xBB), mustMac(0xCC)
	mac := []byte{0x08, 0x00, 0, 0}
	mac = append(mac, addr1[:]...)
	mac = append(mac, addr2[:]...)
	mac = append(mac, addr3[:]...)
	mac = append(mac, 0, 0) // seq_ctl

	buf := append(buildRadiotap(), mac...)
	f, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	h := f.Header
	if *h.Src() != addr2 {
		t.Fatalf("src = %v, want %v", h.Src(), addr2)
	}
	if *h.Dest() != addr1 {
		t.Fatalf("dest = %v, want %v", h.Dest(), addr1)
	}
	if *h.BSSID() != addr3 {
		t.Fatalf("bssid = %v, want %v", h.BSSID(), addr3)
	}
}

func TestAddressResolutionWDS(t *testing.T) {
	addr1, addr2, addr3, addr4 := mustMac(0x11), mustMac(0x22), mustMac(0x33), mustMac(0x44)
	mac := []byte{0x08, 0x03, 0, 0} // to_ds=1, from_ds=1
	mac = append(mac, addr1[:]...)
	mac = append(mac, addr2[:]...)
	mac = append(mac, addr3[:]...)
	mac = append(mac, 0, 0)
	mac = append(mac, addr4[:]...)

	buf := append(buildRadiotap(), mac...)
	f, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	h := f.Header
	if *h.Src() != addr4 {
		t.Fatalf("src = %v, want %v", h.Src(), addr4)
	}
	if *h.Dest() != addr3 {
		t.Fatalf("dest = %v, want %v", h.Dest(), addr3)
	}
	if h.BSSID() != nil {
		t.Fatalf("bssid = %v, want nil (WDS has no BSSID)", h.BSSID())
	}
}

func TestAddressResolutionCTS(t *testing.T) {
	addr1 := mustMac(0x55)
	mac := []byte{0xC4, 0x00, 0, 0}
	mac = append(mac, addr1[:]...)

	buf := append(buildRadiotap(), mac...)
	f, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	h := f.Header
	if h.Src() != nil {
		t.Fatalf("src = %v, want nil", h.Src())
	}
	if *h.Dest() != addr1 {
		t.Fatalf("dest = %v, want %v", h.Dest(), addr1)
	}
	if h.BSSID() != nil {
		t.Fatalf("bssid = %v, want nil", h.BSSID())
	}
	if h.Addr2 != nil || h.Addr3 != nil || h.Addr4 != nil {
		t.Fatalf("expected no optional addresses present on a short CTS-like frame")
	}
}

func TestRadiotapSkipExact(t *testing.T) {
	rt := []byte{0, 0, 12, 0, 0, 0, 0, 0, 0xDE, 0xAD, 0xBE, 0xEF}
	addr1 := mustMac(0x01)
	mac := []byte{0xC4, 0x00, 0, 0}
	mac = append(mac, addr1[:]...)
	buf := append(rt, mac...)

	f, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(f.Header.Addr1[:], addr1[:]) {
		t.Fatalf("radiotap prefix was not skipped exactly")
	}
}
