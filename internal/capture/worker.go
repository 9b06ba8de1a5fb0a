// Package capture hosts the Capture Worker (§4.E): a single dedicated
// blocking goroutine pulling frames off a pcap handle, decoding them via
// internal/dot11, and forwarding decoded frames over a bounded channel.
package capture

import (
	"log/slog"

	"github.com/google/gopacket/pcap"
	"github.com/lcalzada-xor/wifitify/internal/dot11"
	"github.com/lcalzada-xor/wifitify/internal/telemetry"
)

// dltIEEE80211Radio is DLT_IEEE802_11_RADIO (§6): radiotap-prefixed
// 802.11 frames.
const dltIEEE80211Radio = 127

// Decoded pairs a parsed frame with the snaplen-bounded raw buffer it was
// decoded from, for callers that want to re-derive radiotap fields the
// Frame itself doesn't carry (it carries only the channel frequency, as
// Frame.ChannelMHz).
type Decoded struct {
	Frame *dot11.Frame
	Raw   []byte
}

// Worker owns the pcap handle and the outbound bounded channel. It never
// touches the catalog store or AppState (§4.E).
type Worker struct {
	handle *pcap.Handle
	out    chan<- Decoded
	log    *slog.Logger
}

// Open sets up a live capture handle on device in monitor mode with
// DLT_IEEE802_11_RADIO and immediate mode, as §6 requires.
func Open(device string, out chan<- Decoded, log *slog.Logger) (*Worker, error) {
	handle, err := pcap.OpenLive(device, 65536, true, pcap.BlockForever)
	if err != nil {
		return nil, err
	}
	if err := handle.SetImmediateMode(true); err != nil {
		handle.Close()
		return nil, err
	}
	if err := handle.SetLinkType(dltIEEE80211Radio); err != nil {
		handle.Close()
		return nil, err
	}
	return &Worker{handle: handle, out: out, log: log}, nil
}

// Close releases the pcap handle.
func (w *Worker) Close() {
	w.handle.Close()
}

// Run blocks reading packets until a read fails (e.g. the handle is
// closed), then returns. Sends are non-blocking: when the outbound channel
// is full the newest frame is dropped and a warning logged. Run does not
// detect a consumer that has stopped receiving; it keeps reading and
// dropping until a read fails.
func (w *Worker) Run() {
	for {
		data, _, err := w.handle.ReadPacketData()
		if err != nil {
			if err == pcap.NextErrorTimeoutExpired {
				continue
			}
			w.log.Debug("capture: read error, stopping", "error", err)
			return
		}

		frame, err := dot11.Decode(data)
		if err != nil {
			telemetry.FramesDropped.WithLabelValues("decode_error").Inc()
			w.log.Debug("capture: decode failed", "error", err)
			continue
		}
		telemetry.FramesDecoded.WithLabelValues(kindLabel(frame.Kind)).Inc()

		select {
		case w.out <- Decoded{Frame: frame, Raw: data}:
			telemetry.QueueDepth.Set(float64(len(w.out)))
		default:
			telemetry.FramesDropped.WithLabelValues("queue_full").Inc()
			w.log.Warn("capture: outbound queue full, dropping newest frame")
		}
	}
}

func kindLabel(k dot11.Kind) string {
	switch k {
	case dot11.KindBeacon:
		return "beacon"
	case dot11.KindProbeRequest:
		return "probe_request"
	case dot11.KindProbeResponse:
		return "probe_response"
	case dot11.KindData:
		return "data"
	case dot11.KindQoSData:
		return "qos_data"
	case dot11.KindNullData:
		return "null_data"
	case dot11.KindBlockAck:
		return "block_ack"
	case dot11.KindBlockAckRequest:
		return "block_ack_request"
	case dot11.KindRTS:
		return "rts"
	case dot11.KindCTS:
		return "cts"
	case dot11.KindACK:
		return "ack"
	default:
		return "unhandled"
	}
}
