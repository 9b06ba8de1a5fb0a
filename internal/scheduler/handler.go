// Package scheduler hosts the Main Loop (§4.F) and the per-frame
// Observation Handler (§4.G): the two pieces that turn decoded frames and
// scheduler clocks into catalog writes and channel-hop decisions.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/lcalzada-xor/wifitify/internal/channel"
	"github.com/lcalzada-xor/wifitify/internal/domain"
	"github.com/lcalzada-xor/wifitify/internal/dot11"
	"github.com/lcalzada-xor/wifitify/internal/storage"
	"github.com/lcalzada-xor/wifitify/internal/telemetry"
)

// retryAttempts and retryBackoff bound the pool-acquisition retry loop
// wrapping every store call the handler makes: a busy connection pool is
// treated as transient and retried, never escalated to a fatal error.
const (
	retryAttempts = 3
	retryBackoff  = time.Second
)

// ObservationHandler turns one decoded frame into catalog writes. Each
// invocation runs in its own fire-and-forget goroutine spawned by the
// main loop (§4.F); handlers never touch AppState's scheduler clocks,
// only its station/device mirrors.
type ObservationHandler struct {
	store *storage.Store
	state *domain.AppState
	log   *slog.Logger
}

// NewObservationHandler builds a handler bound to a store and the shared
// AppState mirror.
func NewObservationHandler(store *storage.Store, state *domain.AppState, log *slog.Logger) *ObservationHandler {
	return &ObservationHandler{store: store, state: state, log: log}
}

// Handle dispatches a decoded frame per §4.G: Beacon/ProbeResponse updates
// or creates a Station; Data/QoSData/BlockAck feed the data-frame
// accumulation path; everything else is dropped silently.
func (h *ObservationHandler) Handle(ctx context.Context, frame *dot11.Frame, doingSweep bool) {
	switch frame.Kind {
	case dot11.KindBeacon, dot11.KindProbeResponse:
		h.handleBeacon(ctx, frame, doingSweep)
	case dot11.KindData, dot11.KindQoSData:
		h.logDataFrame(ctx, frame.Header, int64(frame.PayloadLen))
	case dot11.KindBlockAck:
		h.logDataFrame(ctx, frame.Header, frame.AckWeight)
	default:
		// Management/control frames outside the above (ProbeRequest, RTS,
		// CTS, ACK, BlockAckRequest, null data) carry nothing the catalog
		// tracks (§4.A).
	}
}

// handleBeacon resolves the station by its src mac and either updates an
// existing Station's metadata (only meaningful while sweeping — outside a
// sweep we're tuned to a watched channel we already know the station on)
// or inserts a newly discovered one with watch=false (§4.G). The station's
// channel is resolved from the radiotap capture-time frequency, never the
// AP's self-advertised DS-Parameter element; a frequency absent from the
// channel table drops the frame (§7 UnknownChannel).
func (h *ObservationHandler) handleBeacon(ctx context.Context, frame *dot11.Frame, doingSweep bool) {
	src := frame.Header.Src()
	if src == nil || !src.IsRealDevice() {
		return
	}
	beacon := frame.Beacon
	if beacon == nil {
		return
	}
	if frame.ChannelMHz == nil {
		return
	}
	ch, ok := channel.FrequencyToChannel(*frame.ChannelMHz)
	if !ok {
		telemetry.FramesDropped.WithLabelValues("unknown_channel").Inc()
		return
	}

	if st, known := h.state.Station(*src); known {
		if !doingSweep {
			return
		}
		if err := h.withRetry(ctx, func(ctx context.Context) error {
			return h.store.UpdateStationMetadata(ctx, st.ID, beacon.SSID, ch, nil)
		}); err != nil {
			h.log.Warn("scheduler: update station metadata failed", "mac", src.String(), "error", err)
			return
		}
		st.UpdateMetadata(beacon.SSID, ch, nil)
		return
	}

	st := &domain.Station{
		MAC:     *src,
		SSID:    beacon.SSID,
		Channel: ch,
		Watch:   false,
	}
	if err := h.withRetry(ctx, func(ctx context.Context) error {
		return h.store.PersistStation(ctx, st)
	}); err != nil {
		h.log.Warn("scheduler: persist station failed", "mac", src.String(), "error", err)
		return
	}
	h.state.PutStation(st)
}

// logDataFrame is the data-frame accumulation path shared by Data,
// QoS-Data and BlockAck frames (§4.G):
//  1. resolve the station/device pair from the header's address roles
//  2. drop the frame if the device address isn't a plausible real device
//  3. drop the frame unless the station is one we're actively watching
//  4. accumulate BytesPerMinute for the current minute bucket
//  5. record the device↔station link, idempotently
func (h *ObservationHandler) logDataFrame(ctx context.Context, header dot11.Header, weight int64) {
	stationMAC, deviceMAC, ok := resolveStationDevice(header, h.state)
	if !ok {
		return
	}
	if !deviceMAC.IsRealDevice() {
		telemetry.FramesDropped.WithLabelValues("not_real_device").Inc()
		return
	}

	st, known := h.state.Station(stationMAC)
	if !known || !st.Watch {
		telemetry.FramesDropped.WithLabelValues("station_not_watched").Inc()
		return
	}

	dev, known := h.state.Device(deviceMAC)
	if !known {
		dev = &domain.Device{MAC: deviceMAC}
		if err := h.withRetry(ctx, func(ctx context.Context) error {
			return h.store.PersistDevice(ctx, dev)
		}); err != nil {
			h.log.Warn("scheduler: persist device failed", "mac", deviceMAC.String(), "error", err)
			return
		}
		h.state.PutDevice(dev)
	}

	data := domain.Data{
		Time:           domain.TruncateToMinute(time.Now()),
		DeviceID:       dev.ID,
		StationID:      st.ID,
		BytesPerMinute: weight,
	}
	if err := h.withRetry(ctx, func(ctx context.Context) error {
		return h.store.PersistData(ctx, data)
	}); err != nil {
		h.log.Warn("scheduler: persist data failed", "error", err)
		return
	}
	telemetry.DataBytes.Add(float64(weight))

	if err := h.withRetry(ctx, func(ctx context.Context) error {
		return h.store.PersistLink(ctx, st.ID, dev.ID)
	}); err != nil {
		h.log.Warn("scheduler: persist link failed", "error", err)
		return
	}
	h.state.PutLink(st.ID, dev.ID)
}

// resolveStationDevice picks the known-Station address out of the
// header's Src/Dest candidates and pairs it with whichever other
// candidate is the device address. BSSID is not a candidate here: it's a
// third, independent field in every non-WDS branch (§4.A's role table),
// and admitting it would register a device link off the AP's own BSSID
// even when neither the frame's actual src nor dest is a known Station —
// exactly the case that must be dropped (§4.G).
func resolveStationDevice(h dot11.Header, state *domain.AppState) (station, device domain.MacAddress, ok bool) {
	var candidates []domain.MacAddress
	if s := h.Src(); s != nil {
		candidates = append(candidates, *s)
	}
	if d := h.Dest(); d != nil {
		candidates = append(candidates, *d)
	}

	var stationMAC domain.MacAddress
	found := false
	for _, c := range candidates {
		if _, known := state.Station(c); known {
			stationMAC = c
			found = true
			break
		}
	}
	if !found {
		return domain.MacAddress{}, domain.MacAddress{}, false
	}

	for _, c := range candidates {
		if c != stationMAC {
			return stationMAC, c, true
		}
	}
	return domain.MacAddress{}, domain.MacAddress{}, false
}

// withRetry runs fn up to retryAttempts times with retryBackoff between
// attempts, counting every retry against the db_retries metric. Every
// error from fn is retried the same way: errors are not told apart as
// transient (pool exhaustion) or persistent (other SQL errors). The
// handler never blocks the main loop waiting for it.
func (h *ObservationHandler) withRetry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			telemetry.DbRetries.Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}
