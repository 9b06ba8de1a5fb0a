package dot11

import "testing"

// Mirrors original_source/iee_802_11/header/frame_control.rs's test_flags:
// iterate each bit 0..7 in isolation and confirm only that bit decodes set.
func TestFlagIsSet(t *testing.T) {
	for bit := uint(0); bit < 8; bit++ {
		b := byte(1 << bit)
		for check := uint(0); check < 8; check++ {
			got := flagIsSet(b, check)
			want := check == bit
			if got != want {
				t.Fatalf("flagIsSet(0b%08b, %d) = %v, want %v", b, check, got, want)
			}
		}
	}
}

func TestParseFrameControlType(t *testing.T) {
	cases := []struct {
		name  string
		first byte
		want  FrameType
	}{
		{"management", 0b0000_0000, TypeManagement},
		{"control", 0b0000_0100, TypeControl},
		{"data", 0b0000_1000, TypeData},
		{"unknown", 0b0000_1100, TypeUnknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fc := parseFrameControl([]byte{c.first, 0})
			if fc.Type != c.want {
				t.Fatalf("got %v want %v", fc.Type, c.want)
			}
		})
	}
}

func TestParseFrameControlUnsupportedVersion(t *testing.T) {
	fc := parseFrameControl([]byte{0b0000_0001, 0})
	if fc.ProtocolVersion != 1 {
		t.Fatalf("expected protocol version 1, got %d", fc.ProtocolVersion)
	}
}

func TestParseFrameControlFlags(t *testing.T) {
	// to_ds + retry + wep
	fc := parseFrameControl([]byte{0, 0b0100_1001})
	if !fc.Flags.ToDS || !fc.Flags.Retry || !fc.Flags.WEP {
		t.Fatalf("expected ToDS, Retry, WEP set, got %+v", fc.Flags)
	}
	if fc.Flags.FromDS || fc.Flags.MoreFrag || fc.Flags.PwrMgmt || fc.Flags.MoreData || fc.Flags.Order {
		t.Fatalf("unexpected flag set: %+v", fc.Flags)
	}
}
