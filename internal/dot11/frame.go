// Package dot11 decodes radiotap-prefixed 802.11 frames by hand: frame
// control bits, the variable-length MAC header, address-role resolution,
// and the management-frame TLV bodies the catalog needs (SSID, rates,
// DS-parameter channel, country).
package dot11

import "github.com/lcalzada-xor/wifitify/internal/domain"

// FrameType is the 2-bit type field of the frame control byte.
type FrameType int

const (
	TypeManagement FrameType = iota
	TypeControl
	TypeData
	TypeUnknown
)

// Kind is the fully-dispatched, catalog-relevant classification of a
// frame: the subtype for types the decoder bodies, UnHandled otherwise.
type Kind int

const (
	KindBeacon Kind = iota
	KindProbeRequest
	KindProbeResponse
	KindData
	KindQoSData
	KindNullData
	KindBlockAck
	KindBlockAckRequest
	KindRTS
	KindCTS
	KindACK
	KindUnhandled
)

// Flags holds the eight single-bit flags in the second frame-control byte.
type Flags struct {
	ToDS     bool
	FromDS   bool
	MoreFrag bool
	Retry    bool
	PwrMgmt  bool
	MoreData bool
	WEP      bool
	Order    bool
}

// FrameControl is the decoded first two bytes of the MAC header.
type FrameControl struct {
	ProtocolVersion int
	Type            FrameType
	SubType         int
	Flags           Flags
}

// Header is the variable-length 802.11 MAC header. Optional address
// fields are nil pointers when absent from the wire — never zero-filled,
// so address-role resolution can distinguish "absent" from "all-zero".
type Header struct {
	Control  FrameControl
	Duration uint16
	Addr1    domain.MacAddress
	Addr2    *domain.MacAddress
	Addr3    *domain.MacAddress
	SeqCtl   *uint16
	Addr4    *domain.MacAddress
}

// Src resolves the source address per the to_ds/from_ds table in §4.A.
// Returns nil when the role has no address to point to for this frame
// (e.g. neither addr2 nor addr4 is present).
func (h Header) Src() *domain.MacAddress {
	switch {
	case !h.Control.Flags.ToDS && !h.Control.Flags.FromDS:
		return h.Addr2
	case !h.Control.Flags.ToDS && h.Control.Flags.FromDS:
		return h.Addr3
	case h.Control.Flags.ToDS && !h.Control.Flags.FromDS:
		return h.Addr2
	default: // to_ds && from_ds (WDS)
		return h.Addr4
	}
}

// Dest resolves the destination address per the to_ds/from_ds table.
func (h Header) Dest() *domain.MacAddress {
	switch {
	case !h.Control.Flags.ToDS && !h.Control.Flags.FromDS:
		return &h.Addr1
	case !h.Control.Flags.ToDS && h.Control.Flags.FromDS:
		return &h.Addr1
	case h.Control.Flags.ToDS && !h.Control.Flags.FromDS:
		return h.Addr3
	default: // WDS
		return h.Addr3
	}
}

// BSSID resolves the BSSID per the to_ds/from_ds table. WDS frames have
// no BSSID slot and always return nil.
func (h Header) BSSID() *domain.MacAddress {
	switch {
	case !h.Control.Flags.ToDS && !h.Control.Flags.FromDS:
		return h.Addr3
	case !h.Control.Flags.ToDS && h.Control.Flags.FromDS:
		return h.Addr2
	case h.Control.Flags.ToDS && !h.Control.Flags.FromDS:
		return &h.Addr1
	default: // WDS
		return nil
	}
}

// BeaconBody is the decoded body of a Beacon or ProbeResponse frame.
type BeaconBody struct {
	Timestamp      uint64
	Interval       uint16
	CapabilityInfo uint16
	SSID           string
	Rates          []byte
	Channel        *int
	Country        string
}

// ProbeRequestBody is the decoded body of a ProbeRequest frame.
type ProbeRequestBody struct {
	SSID  string
	Rates []byte
}

// Frame is the tagged decoder output: the common header plus whichever
// variant body matches Kind. At most one body field is populated; kinds
// without a decoded body (e.g. RTS, CTS, ACK, Unhandled) carry none.
type Frame struct {
	Header     Header
	Kind       Kind
	Beacon     *BeaconBody
	ProbeReq   *ProbeRequestBody
	PayloadLen int   // Data / QoS-Data
	AckWeight  int64 // BlockAck synthetic weight

	// ChannelMHz is the radiotap capture-time channel frequency, nil when
	// the radiotap Channel field wasn't present on this packet. This is
	// the capture radio's tuned frequency, distinct from Beacon.Channel
	// (the AP's self-advertised DS-Parameter channel).
	ChannelMHz *int
}
