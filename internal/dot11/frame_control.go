package dot11

// Subtype numbers, grouped by FrameType, matching the dispatch tables in
// original_source/iee_802_11/header/frame_control.rs.
const (
	subMgmtAssoReq    = 0x0
	subMgmtAssoResp   = 0x1
	subMgmtReassoReq  = 0x2
	subMgmtReassoResp = 0x3
	subMgmtProbeReq   = 0x4
	subMgmtProbeResp  = 0x5
	subMgmtBeacon     = 0x8
	subMgmtATIM       = 0x9
	subMgmtDisasso    = 0xA
	subMgmtAuth       = 0xB
	subMgmtDeauth     = 0xC

	subCtrlBlockAckReq = 0x8
	subCtrlBlockAck    = 0x9
	subCtrlPSPoll      = 0xA
	subCtrlRTS         = 0xB
	subCtrlCTS         = 0xC
	subCtrlACK         = 0xD
	subCtrlCFEnd       = 0xE
	subCtrlCFEndCFAck  = 0xF

	subDataData            = 0x0
	subDataCFAck           = 0x1
	subDataCFPull          = 0x2
	subDataCFAckCFPull     = 0x3
	subDataNull            = 0x4
	subDataQoS             = 0x8
	subDataQoSCFPull       = 0xA
	subDataQoSCFAckCFPull  = 0xB
	subDataQoSNull         = 0xC
)

// flagIsSet reports whether bit n (0-indexed from the LSB) is set in b.
func flagIsSet(b byte, n uint) bool {
	return b&(1<<n) != 0
}

// parseFrameControl decodes the two-byte frame control field. b must have
// length >= 2.
func parseFrameControl(b []byte) FrameControl {
	first := b[0]
	second := b[1]

	fc := FrameControl{
		ProtocolVersion: int(first & 0b0000_0011),
		SubType:         int(first >> 4),
	}

	switch (first & 0b0000_1100) >> 2 {
	case 0:
		fc.Type = TypeManagement
	case 1:
		fc.Type = TypeControl
	case 2:
		fc.Type = TypeData
	default:
		fc.Type = TypeUnknown
	}

	fc.Flags = Flags{
		ToDS:     flagIsSet(second, 0),
		FromDS:   flagIsSet(second, 1),
		MoreFrag: flagIsSet(second, 2),
		Retry:    flagIsSet(second, 3),
		PwrMgmt:  flagIsSet(second, 4),
		MoreData: flagIsSet(second, 5),
		WEP:      flagIsSet(second, 6),
		Order:    flagIsSet(second, 7),
	}

	return fc
}

// classifyKind maps a decoded frame control to the catalog-relevant Kind.
// Unrecognized subtypes map to KindUnhandled — never an error (§4.A).
func classifyKind(fc FrameControl) Kind {
	switch fc.Type {
	case TypeManagement:
		switch fc.SubType {
		case subMgmtBeacon:
			return KindBeacon
		case subMgmtProbeReq:
			return KindProbeRequest
		case subMgmtProbeResp:
			return KindProbeResponse
		default:
			return KindUnhandled
		}
	case TypeControl:
		switch fc.SubType {
		case subCtrlBlockAck:
			return KindBlockAck
		case subCtrlBlockAckReq:
			return KindBlockAckRequest
		case subCtrlRTS:
			return KindRTS
		case subCtrlCTS:
			return KindCTS
		case subCtrlACK:
			return KindACK
		default:
			return KindUnhandled
		}
	case TypeData:
		switch fc.SubType {
		case subDataData, subDataCFAck, subDataCFPull, subDataCFAckCFPull:
			return KindData
		case subDataQoS, subDataQoSCFPull, subDataQoSCFAckCFPull:
			return KindQoSData
		case subDataNull, subDataQoSNull:
			return KindNullData
		default:
			return KindUnhandled
		}
	default:
		return KindUnhandled
	}
}
