package dot11

// radiotapHeaderLen reads the pseudo-header's own length field (bytes 2-3,
// little-endian) so the caller can skip exactly that many bytes before MAC
// parsing, regardless of which radio metadata fields are actually present.
func radiotapHeaderLen(b []byte) (int, error) {
	if len(b) < 4 {
		return 0, incomplete("buffer too short for radiotap header")
	}
	length := int(le16(b[2:4]))
	if length < 4 {
		return 0, failure("radiotap length field smaller than its own header")
	}
	if length > len(b) {
		return 0, incomplete("radiotap length exceeds buffer")
	}
	return length, nil
}

// radiotap present-bitmask bits for the fields that can precede Channel
// (bit 3) in the fixed 802.11 radiotap namespace, in ascending bit order.
const (
	radiotapBitTSFT  = 0
	radiotapBitFlags = 1
	radiotapBitRate  = 2
	radiotapBitChannel = 3
	radiotapBitExtended = 31
)

// radiotapChannelMHz extracts the Channel field's frequency (bytes 0-1 of
// the 4-byte Channel field: frequency u16-LE, flags u16-LE) from a
// radiotap header, by walking the present bitmask in ascending bit order
// and accumulating each preceding field's size and alignment. Reports
// ok=false if the Channel field isn't present, the buffer is too short to
// reach it, or an extended presence word (bit 31) is set, since this
// decoder only understands the fixed first presence word.
func radiotapChannelMHz(b []byte) (int, bool) {
	if len(b) < 8 {
		return 0, false
	}
	length := int(le16(b[2:4]))
	if length < 8 || length > len(b) {
		return 0, false
	}
	present := le32(b[4:8])
	if present&(1<<radiotapBitExtended) != 0 {
		return 0, false
	}
	if present&(1<<radiotapBitChannel) == 0 {
		return 0, false
	}

	offset := 8
	align := func(off, width int) int {
		if rem := off % width; rem != 0 {
			return off + (width - rem)
		}
		return off
	}
	if present&(1<<radiotapBitTSFT) != 0 {
		offset = align(offset, 8) + 8
	}
	if present&(1<<radiotapBitFlags) != 0 {
		offset = align(offset, 1) + 1
	}
	if present&(1<<radiotapBitRate) != 0 {
		offset = align(offset, 1) + 1
	}
	offset = align(offset, 2)

	if offset+4 > length || offset+4 > len(b) {
		return 0, false
	}
	return int(le16(b[offset : offset+2])), true
}
