package dot11

import "math/bits"

// blockAckBasicWeight is the synthetic byte weight for a basic BlockAck
// (§4.A): BlockAck frames carry no payload, so per-minute aggregation needs
// a stand-in approximating an average MSDU size. Documented heuristic, not
// a wire constant (§9 open questions).
const blockAckBasicWeight = 100

// blockAckSegmentWeight is the per-acked-segment weight for a compressed
// BlockAck.
const blockAckSegmentWeight = 500

// compressedBitmapFlag is bit 2 of the Block Ack Control field.
const compressedBitmapFlag = 1 << 2

// Decode parses a radiotap-prefixed buffer into a Frame. The radiotap
// prefix length is read from its own header field and skipped exactly;
// the MAC frame starting immediately after it is then decoded per §4.A.
func Decode(buf []byte) (*Frame, error) {
	rtLen, err := radiotapHeaderLen(buf)
	if err != nil {
		return nil, err
	}

	mac := buf[rtLen:]
	header, rest, err := parseHeader(mac)
	if err != nil {
		return nil, err
	}

	kind := classifyKind(header.Control)
	frame := &Frame{Header: header, Kind: kind}
	if mhz, ok := radiotapChannelMHz(buf[:rtLen]); ok {
		frame.ChannelMHz = &mhz
	}

	switch kind {
	case KindBeacon, KindProbeResponse:
		body, err := decodeBeaconLike(rest)
		if err != nil {
			return nil, err
		}
		frame.Beacon = body
	case KindProbeRequest:
		fields, err := walkTLVs(rest)
		if err != nil {
			return nil, err
		}
		frame.ProbeReq = &ProbeRequestBody{SSID: fields.ssid, Rates: fields.rates}
	case KindData, KindQoSData:
		frame.PayloadLen = len(rest)
	case KindBlockAck:
		frame.AckWeight = blockAckWeight(rest)
	}

	return frame, nil
}

// decodeBeaconLike parses the shared Beacon/ProbeResponse fixed prefix
// (timestamp u64-LE, interval u16-LE, capability u16-LE) followed by the
// TLV stream (§4.A).
func decodeBeaconLike(body []byte) (*BeaconBody, error) {
	if len(body) < 12 {
		return nil, incomplete("beacon-like body shorter than fixed prefix")
	}
	fields, err := walkTLVs(body[12:])
	if err != nil {
		return nil, err
	}
	return &BeaconBody{
		Timestamp:      le64(body[0:8]),
		Interval:       le16(body[8:10]),
		CapabilityInfo: le16(body[10:12]),
		SSID:           fields.ssid,
		Rates:          fields.rates,
		Channel:        fields.channel,
		Country:        fields.country,
	}, nil
}

// blockAckWeight synthesizes a byte weight from the BlockAck variant: a
// compressed bitmap carries one bit per acked MPDU, so the segment count
// is the bitmap's population count; a basic or unreadable control field
// falls back to the flat basic weight.
func blockAckWeight(body []byte) int64 {
	if len(body) < 2 {
		return blockAckBasicWeight
	}
	control := le16(body[0:2])
	if control&compressedBitmapFlag == 0 {
		return blockAckBasicWeight
	}

	// Control (2) + BA Starting Sequence Control (2) precede the bitmap.
	const bitmapOffset = 4
	if len(body) <= bitmapOffset {
		return blockAckBasicWeight
	}
	bitmap := body[bitmapOffset:]

	segments := 0
	for _, b := range bitmap {
		segments += bits.OnesCount8(b)
	}
	if segments == 0 {
		return blockAckBasicWeight
	}
	return int64(segments) * blockAckSegmentWeight
}
