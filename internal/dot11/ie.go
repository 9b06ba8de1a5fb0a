package dot11

const (
	ieSSID         = 0
	ieSupportedRates = 1
	ieDSParam      = 3
	ieCountry      = 7
)

// tlvFields accumulates the tagged elements a Beacon/ProbeResponse/
// ProbeRequest body can carry. Unknown tags are skipped (§4.A).
type tlvFields struct {
	ssid    string
	ssidSet bool
	rates   []byte
	channel *int
	country string
}

// walkTLVs walks tag-length-value elements by length, never by fixed
// offset, since SSID length varies 0-32 (§4.A). A length prefix that
// would read past the end of body is a Failure (TLV overrun), not a
// panic or silent truncation.
func walkTLVs(body []byte) (tlvFields, error) {
	var out tlvFields
	i := 0
	for i < len(body) {
		if i+2 > len(body) {
			return out, failure("TLV header overruns body")
		}
		id := body[i]
		length := int(body[i+1])
		start := i + 2
		end := start + length
		if end > len(body) {
			return out, failure("TLV length overruns body")
		}
		value := body[start:end]

		switch id {
		case ieSSID:
			out.ssid = string(value)
			out.ssidSet = true
		case ieSupportedRates:
			out.rates = append([]byte(nil), value...)
		case ieDSParam:
			if len(value) >= 1 {
				ch := int(value[0])
				out.channel = &ch
			}
		case ieCountry:
			out.country = string(value)
		}

		i = end
	}
	return out, nil
}
