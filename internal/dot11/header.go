package dot11

import "github.com/lcalzada-xor/wifitify/internal/domain"

// headerLayout is which address/seq_ctl fields a frame's header carries,
// per the subtype class table in §4.A.
type headerLayout int

const (
	layoutAddr1Only  headerLayout = iota // CTS, ACK
	layoutAddr1Addr2                     // RTS, PS-Poll, most Control
	layoutFull                           // Management, most Data (+addr4 for WDS Data)
)

// layoutFor decides header shape from frame type/subtype alone, never
// from the remaining buffer length: a Control frame's body (e.g. a
// BlockAck's BA Control + bitmap) must never be mistaken for addr3/seq_ctl
// just because the total buffer happens to be long enough.
func layoutFor(fc FrameControl) headerLayout {
	if fc.Type != TypeControl {
		return layoutFull
	}
	switch fc.SubType {
	case subCtrlCTS, subCtrlACK:
		return layoutAddr1Only
	default: // RTS, PS-Poll, BlockAck, BlockAckReq, CF-End, CF-End+CF-Ack
		return layoutAddr1Addr2
	}
}

// parseHeader decodes the variable-length MAC header starting at b[0].
// Which address fields are present is decided by layoutFor, matching
// spec's subtype-class table; a buffer too short for the determined
// layout is a decode error, not a signal to silently parse fewer fields.
func parseHeader(b []byte) (Header, []byte, error) {
	if len(b) < 2 {
		return Header{}, nil, incomplete("buffer shorter than frame control field")
	}
	fc := parseFrameControl(b)
	if fc.ProtocolVersion != 0 {
		return Header{}, nil, unsupportedProtocol()
	}

	if len(b) < 10 {
		return Header{}, nil, incomplete("buffer too short for duration/addr1")
	}

	h := Header{
		Control:  fc,
		Duration: le16(b[2:4]),
	}
	addr1, err := domain.ParseMac(b[4:10])
	if err != nil {
		return Header{}, nil, failure(err.Error())
	}
	h.Addr1 = addr1

	switch layoutFor(fc) {
	case layoutAddr1Only:
		return h, b[10:], nil

	case layoutAddr1Addr2:
		if len(b) < 16 {
			return Header{}, nil, incomplete("buffer too short for addr2")
		}
		addr2, err := domain.ParseMac(b[10:16])
		if err != nil {
			return Header{}, nil, failure(err.Error())
		}
		h.Addr2 = &addr2
		return h, b[16:], nil

	default: // layoutFull
		if len(b) < 24 {
			return Header{}, nil, incomplete("buffer too short for management/data header")
		}
		addr2, err := domain.ParseMac(b[10:16])
		if err != nil {
			return Header{}, nil, failure(err.Error())
		}
		h.Addr2 = &addr2
		addr3, err := domain.ParseMac(b[16:22])
		if err != nil {
			return Header{}, nil, failure(err.Error())
		}
		h.Addr3 = &addr3
		seqCtl := le16(b[22:24])
		h.SeqCtl = &seqCtl

		if fc.Type == TypeData && fc.Flags.ToDS && fc.Flags.FromDS {
			if len(b) < 30 {
				return Header{}, nil, incomplete("buffer too short for WDS addr4")
			}
			addr4, err := domain.ParseMac(b[24:30])
			if err != nil {
				return Header{}, nil, failure(err.Error())
			}
			h.Addr4 = &addr4
			return h, b[30:], nil
		}
		return h, b[24:], nil
	}
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
